package helpers

import (
	"fmt"
	"time"

	"github.com/go-redis/cache"
	"github.com/pkg/errors"
	pcache "github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/models"
)

const guildConfigCacheTTL = 10 * time.Minute

func guildConfigCacheKey(guildID string) string {
	return fmt.Sprintf("pretend:guild-config:%s", guildID)
}

// DefaultPrefix is the prefix of guilds without a configured one
func DefaultPrefix() string {
	return ConfigString("bot.prefix", ",")
}

// GuildSettingsGet returns all config values for the guild or a default object
func GuildSettingsGet(guildID string) (settings models.Config, err error) {
	err = pcache.GetDB().QueryRow(
		"SELECT guild_id, prefix, created_at FROM "+models.GuildConfigTable+" WHERE guild_id = $1",
		guildID,
	).Scan(&settings.GuildID, &settings.Prefix, &settings.CreatedAt)
	if IsNoRows(err) {
		return models.Config{}.Default(guildID, DefaultPrefix()), nil
	}
	if err != nil {
		return settings, errors.Wrap(err, "reading guild config failed")
	}
	return settings, nil
}

// GuildSettingsGetCached reads through the redis object cache when redis is configured
func GuildSettingsGetCached(guildID string) (settings models.Config, err error) {
	if !pcache.HasRedisClient() {
		return GuildSettingsGet(guildID)
	}

	err = pcache.GetRedisCacheCodec().Once(&cache.Item{
		Key:        guildConfigCacheKey(guildID),
		Object:     &settings,
		Expiration: guildConfigCacheTTL,
		Func: func() (interface{}, error) {
			return GuildSettingsGet(guildID)
		},
	})
	return settings, err
}

// GuildSettingsSet writes $config into the db
func GuildSettingsSet(config models.Config) error {
	_, err := pcache.GetDB().Exec(
		"INSERT INTO "+models.GuildConfigTable+" (guild_id, prefix) VALUES ($1, $2) "+
			"ON CONFLICT (guild_id) DO UPDATE SET prefix = EXCLUDED.prefix",
		config.GuildID, config.Prefix,
	)
	if err != nil {
		return errors.Wrap(err, "writing guild config failed")
	}

	if pcache.HasRedisClient() {
		err = pcache.GetRedisCacheCodec().Delete(guildConfigCacheKey(config.GuildID))
		if err != nil && err != cache.ErrCacheMiss {
			RelaxLog(err)
		}
	}
	return nil
}

// GetPrefixForServer gets the prefix for $guild, falls back to the default prefix on errors
func GetPrefixForServer(guildID string) string {
	if guildID == "" {
		return DefaultPrefix()
	}
	settings, err := GuildSettingsGetCached(guildID)
	if err != nil {
		RelaxLog(err)
		return DefaultPrefix()
	}
	if settings.Prefix == "" {
		return DefaultPrefix()
	}
	return settings.Prefix
}

// SetPrefixForServer sets the prefix for $guild to $prefix
func SetPrefixForServer(guildID string, prefix string) error {
	settings, err := GuildSettingsGet(guildID)
	if err != nil {
		return err
	}

	settings.Prefix = prefix

	return GuildSettingsSet(settings)
}
