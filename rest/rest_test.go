package rest

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bwmarrin/discordgo"
	jsoniter "github.com/json-iterator/go"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func TestMain(m *testing.M) {
	log := logrus.New()
	log.Out = io.Discard
	cache.SetLogger(log)

	session, err := discordgo.New("Bot test")
	if err != nil {
		panic(err)
	}
	session.State.GuildAdd(&discordgo.Guild{ID: "2", Name: "second", MemberCount: 20})
	session.State.GuildAdd(&discordgo.Guild{ID: "1", Name: "first", Icon: "abc", MemberCount: 10})
	cache.SetSession(session)

	os.Exit(m.Run())
}

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	cache.SetDB(db)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return mock
}

func get(t *testing.T, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(http.MethodGet, path, nil)
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	NewContainer([]string{"https://dashboard.example"}).ServeHTTP(recorder, request)
	return recorder
}

func TestGetAllBotGuilds(t *testing.T) {
	response := get(t, "/bot/guilds", nil)
	require.Equal(t, http.StatusOK, response.Code)

	var guilds []models.Rest_Guild
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &guilds))
	assert.Equal(t, []models.Rest_Guild{
		{ID: "1", Name: "first", Icon: "abc", MemberCount: 10},
		{ID: "2", Name: "second", MemberCount: 20},
	}, guilds)
}

func TestFindGuild(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT guild_id, prefix, created_at FROM guild_config WHERE guild_id = $1")).
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows([]string{"guild_id", "prefix", "created_at"}).AddRow("1", "!", time.Now()))

	response := get(t, "/guild/1", nil)
	require.Equal(t, http.StatusOK, response.Code)

	var guild models.Rest_Guild
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &guild))
	assert.Equal(t, "first", guild.Name)
	assert.Equal(t, "!", guild.Prefix)
}

func TestFindGuildNotFound(t *testing.T) {
	response := get(t, "/guild/404", nil)
	assert.Equal(t, http.StatusNotFound, response.Code)

	var restError models.Rest_Error
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &restError))
	assert.Equal(t, "Guild not found.", restError.Error)
}

func TestFindUserUID(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT uid FROM uids WHERE user_id = $1")).
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"uid"}).AddRow(int64(7)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT uid FROM uids WHERE user_id = $1")).
		WithArgs("43").
		WillReturnError(sql.ErrNoRows)

	response := get(t, "/user/42/uid", nil)
	require.Equal(t, http.StatusOK, response.Code)

	var uid models.Rest_UID
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &uid))
	assert.Equal(t, models.Rest_UID{UserID: "42", UID: 7}, uid)

	response = get(t, "/user/43/uid", nil)
	assert.Equal(t, http.StatusNotFound, response.Code)
}

func TestFindUserLastFm(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT lastfm_username FROM lastfm_accounts WHERE user_id = $1")).
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"lastfm_username"}).AddRow("rj"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT lastfm_username FROM lastfm_accounts")).
		WithArgs("43").
		WillReturnError(sql.ErrNoRows)

	response := get(t, "/user/42/lastfm", nil)
	require.Equal(t, http.StatusOK, response.Code)

	var account models.Rest_LastFm
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &account))
	assert.Equal(t, "rj", account.LastFmUsername)

	response = get(t, "/user/43/lastfm", nil)
	assert.Equal(t, http.StatusNotFound, response.Code)
}

func TestCorsFilter(t *testing.T) {
	response := get(t, "/bot/guilds", map[string]string{"Origin": "https://dashboard.example"})
	assert.Equal(t, "https://dashboard.example", response.Header().Get("Access-Control-Allow-Origin"))

	response = get(t, "/bot/guilds", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, response.Header().Get("Access-Control-Allow-Origin"))
}
