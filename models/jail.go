package models

import "time"

const (
	JailConfigTable    = "jail_config"
	JailedMembersTable = "jailed_members"
)

type JailConfig struct {
	GuildID   string
	RoleID    string
	ChannelID string
}

type JailedMember struct {
	GuildID     string
	UserID      string
	Roles       []string // roles the member had before being jailed
	Reason      string
	ModeratorID string
	JailedAt    time.Time
}
