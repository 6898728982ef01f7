package helpers

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/models"
)

// CreateModCase logs a moderation action and returns the stored case
func CreateModCase(guildID, userID, moderatorID, action, reason string) (modCase models.ModCase, err error) {
	modCase = models.ModCase{
		ID:          uuid.New().String(),
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: moderatorID,
		Action:      action,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}

	_, err = cache.GetDB().Exec(
		"INSERT INTO "+models.ModCasesTable+" (id, guild_id, user_id, moderator_id, action, reason, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7)",
		modCase.ID, modCase.GuildID, modCase.UserID, modCase.ModeratorID, modCase.Action, modCase.Reason, modCase.CreatedAt,
	)
	if err != nil {
		return modCase, errors.Wrap(err, "inserting mod case failed")
	}
	return modCase, nil
}

// GetModCases returns the latest $limit cases of $userID in $guildID, newest first
func GetModCases(guildID, userID string, limit int) (cases []models.ModCase, err error) {
	rows, err := cache.GetDB().Query(
		"SELECT id, guild_id, user_id, moderator_id, action, reason, created_at FROM "+models.ModCasesTable+
			" WHERE guild_id = $1 AND user_id = $2 ORDER BY created_at DESC LIMIT $3",
		guildID, userID, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying mod cases failed")
	}
	defer rows.Close()

	for rows.Next() {
		var modCase models.ModCase
		err = rows.Scan(&modCase.ID, &modCase.GuildID, &modCase.UserID, &modCase.ModeratorID,
			&modCase.Action, &modCase.Reason, &modCase.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "scanning mod case failed")
		}
		cases = append(cases, modCase)
	}
	return cases, rows.Err()
}
