package models

import "time"

const (
	ModCasesTable = "mod_cases"

	ModActionBan    = "ban"
	ModActionKick   = "kick"
	ModActionPurge  = "purge"
	ModActionJail   = "jail"
	ModActionUnjail = "unjail"
)

type ModCase struct {
	ID          string
	GuildID     string
	UserID      string
	ModeratorID string
	Action      string
	Reason      string
	CreatedAt   time.Time
}
