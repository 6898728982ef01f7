package models

import "time"

// AfkEntry lives in redis only, keyed by guild and user
type AfkEntry struct {
	Reason string
	Since  time.Time
}
