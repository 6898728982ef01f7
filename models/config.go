package models

import "time"

const (
	GuildConfigTable = "guild_config"
)

type Config struct {
	GuildID   string
	Prefix    string
	CreatedAt time.Time
}

// Default is a helper for generating default config values
func (c Config) Default(guild string, prefix string) Config {
	return Config{
		GuildID:   guild,
		Prefix:    prefix,
		CreatedAt: time.Now(),
	}
}
