package models

import "time"

const (
	RemindersTable = "reminders"
)

type Reminder struct {
	ID        int64
	UserID    string
	ChannelID string
	GuildID   string
	Message   string
	RemindAt  time.Time
}
