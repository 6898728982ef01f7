package helpers

import (
	"testing"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestConfig(t *testing.T, raw string) {
	t.Helper()

	json, err := gabs.ParseJSON([]byte(raw))
	require.NoError(t, err)

	SetConfig(json)
	t.Cleanup(func() { SetConfig(nil) })
}

func TestConfigGetters(t *testing.T) {
	setTestConfig(t, `{
		"bot": {"prefix": "!", "admins": ["1", "", "2"], "name": ""},
		"postgres": {"max_open_conns": 7},
		"debug": true,
		"ai": {"timeout": "45s", "broken": "soon"},
		"autopost": {"categories": {"scenery": ["EarthPorn"], "anime": ["animepfp"]}}
	}`)

	assert.Equal(t, "!", ConfigString("bot.prefix", ","))
	assert.Equal(t, "fallback", ConfigString("bot.name", "fallback"), "empty strings use the fallback")
	assert.Equal(t, "fallback", ConfigString("bot.missing", "fallback"))
	assert.Equal(t, "fallback", ConfigString("postgres.max_open_conns", "fallback"), "numbers are not strings")

	assert.Equal(t, 7, ConfigInt("postgres.max_open_conns", 20))
	assert.Equal(t, 20, ConfigInt("postgres.max_idle_conns", 20))

	assert.True(t, ConfigBool("debug", false))
	assert.True(t, ConfigBool("missing", true))

	assert.Equal(t, 45*time.Second, ConfigDuration("ai.timeout", time.Second))
	assert.Equal(t, time.Second, ConfigDuration("ai.broken", time.Second))

	assert.Equal(t, []string{"1", "2"}, ConfigStringSlice("bot.admins"))
	assert.Empty(t, ConfigStringSlice("bot.missing"))

	assert.Equal(t, []string{"anime", "scenery"}, ConfigKeys("autopost.categories"))
	assert.Empty(t, ConfigKeys("bot.prefix"))
}

func TestConfigMissing(t *testing.T) {
	SetConfig(nil)

	assert.Equal(t, ",", ConfigString("bot.prefix", ","))
	assert.Equal(t, ",", DefaultPrefix())
	assert.False(t, IsBotAdmin("1"))
}

func TestApplyEnvOverrides(t *testing.T) {
	json, err := gabs.ParseJSON([]byte(`{"discord": {"token": "from-file"}, "redis": {"address": "localhost:6379"}}`))
	require.NoError(t, err)

	env := map[string]string{
		"DISCORD_TOKEN":  "from-env",
		"REDIS_ADDRESS":  "",
		"OPENAI_API_KEY": "sk-test",
	}
	applyEnvOverrides(json, func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	})

	assert.Equal(t, "from-env", json.Path("discord.token").Data())
	assert.Equal(t, "localhost:6379", json.Path("redis.address").Data(), "empty variables are ignored")
	assert.Equal(t, "sk-test", json.Path("openai.api_key").Data())
}

func TestBotAdminsAndBlacklist(t *testing.T) {
	setTestConfig(t, `{"bot": {"admins": ["10"], "blacklist": ["20"]}}`)

	assert.True(t, IsBotAdmin("10"))
	assert.False(t, IsBotAdmin("20"))
	assert.True(t, IsBlacklisted("20"))
	assert.False(t, IsBlacklisted("10"))
}
