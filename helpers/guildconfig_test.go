package helpers

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildSettingsGetDefault(t *testing.T) {
	mock := newMockDB(t)
	setTestConfig(t, `{"bot": {"prefix": "?"}}`)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT guild_id, prefix, created_at FROM guild_config WHERE guild_id = $1")).
		WithArgs("1").
		WillReturnError(sql.ErrNoRows)

	settings, err := GuildSettingsGet("1")
	require.NoError(t, err)
	assert.Equal(t, "1", settings.GuildID)
	assert.Equal(t, "?", settings.Prefix)
}

func TestGetPrefixForServer(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT guild_id, prefix, created_at FROM guild_config WHERE guild_id = $1")).
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows([]string{"guild_id", "prefix", "created_at"}).AddRow("1", "$", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT guild_id, prefix, created_at FROM guild_config")).
		WithArgs("2").
		WillReturnRows(sqlmock.NewRows([]string{"guild_id", "prefix", "created_at"}).AddRow("2", "", time.Now()))

	assert.Equal(t, "$", GetPrefixForServer("1"))
	assert.Equal(t, DefaultPrefix(), GetPrefixForServer("2"), "empty prefixes fall back to the default")
	assert.Equal(t, DefaultPrefix(), GetPrefixForServer(""), "dms use the default prefix")
}

func TestSetPrefixForServer(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT guild_id, prefix, created_at FROM guild_config WHERE guild_id = $1")).
		WithArgs("1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO guild_config (guild_id, prefix) VALUES ($1, $2) ON CONFLICT (guild_id) DO UPDATE SET prefix = EXCLUDED.prefix")).
		WithArgs("1", ">>").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, SetPrefixForServer("1", ">>"))
}
