package models

import "time"

const (
	LastFmTable = "lastfm_accounts"
)

type LastFmEntry struct {
	UserID         string
	LastFmUsername string
	UpdatedAt      time.Time
}
