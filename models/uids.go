package models

import "time"

const (
	UIDsTable = "uids"
)

type UIDEntry struct {
	UID       int64
	UserID    string
	CreatedAt time.Time
}
