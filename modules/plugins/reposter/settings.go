package reposter

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/models"
)

func getSettings(guildID string) (settings models.ReposterSettings, err error) {
	settings.GuildID = guildID

	err = cache.GetDB().QueryRow(
		"SELECT disabled_platforms, delete_original FROM "+models.ReposterSettingsTable+" WHERE guild_id = $1",
		guildID,
	).Scan(pq.Array(&settings.DisabledPlatforms), &settings.DeleteOriginal)
	if err == sql.ErrNoRows {
		return settings, nil
	}
	if err != nil {
		return settings, errors.Wrap(err, "reading reposter settings failed")
	}
	return settings, nil
}

func setSettings(settings models.ReposterSettings) error {
	disabled := settings.DisabledPlatforms
	if disabled == nil {
		disabled = []string{}
	}

	_, err := cache.GetDB().Exec(
		"INSERT INTO "+models.ReposterSettingsTable+" (guild_id, disabled_platforms, delete_original) VALUES ($1, $2, $3) "+
			"ON CONFLICT (guild_id) DO UPDATE SET disabled_platforms = EXCLUDED.disabled_platforms, delete_original = EXCLUDED.delete_original",
		settings.GuildID, pq.Array(disabled), settings.DeleteOriginal,
	)
	return errors.Wrap(err, "saving reposter settings failed")
}

// togglePlatform returns $disabled with $platform added or removed
func togglePlatform(disabled []string, platform string, enable bool) (result []string) {
	for _, name := range disabled {
		if name != platform {
			result = append(result, name)
		}
	}
	if !enable {
		result = append(result, platform)
	}
	return result
}
