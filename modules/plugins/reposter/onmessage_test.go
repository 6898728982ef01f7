package reposter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/discordgo"
	"github.com/go-redis/redis"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectSettings = "SELECT disabled_platforms, delete_original FROM reposter_settings"

// stubPlatform matches tiktok links and blocks in Fetch until released
type stubPlatform struct {
	fetched chan string
	release chan struct{}
}

func newStubPlatform() *stubPlatform {
	return &stubPlatform{fetched: make(chan string, maxURLsPerMessage), release: make(chan struct{})}
}

func (p *stubPlatform) Name() string { return "tiktok" }

func (p *stubPlatform) Match(url string) bool { return strings.Contains(url, "tiktok.com/") }

func (p *stubPlatform) Fetch(ctx context.Context, url string) (*Media, error) {
	p.fetched <- url
	<-p.release
	return nil, ErrNoMedia
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

func newTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	cache.SetRedisClient(client)

	t.Cleanup(func() {
		cache.SetRedisClient(nil)
		client.Close()
	})
	return server
}

type handlerTransport struct {
	handler http.Handler
}

func (h handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	recorder := httptest.NewRecorder()
	h.handler.ServeHTTP(recorder, req)

	resp := recorder.Result()
	resp.Request = req
	return resp, nil
}

func newTestSession(t *testing.T) *discordgo.Session {
	t.Helper()

	session, err := discordgo.New("Bot test")
	require.NoError(t, err)
	session.Client = &http.Client{Transport: handlerTransport{handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}}

	cache.SetSession(session)
	return session
}

func expectSettings(mock sqlmock.Sqlmock, disabled string, deleteOriginal bool) {
	mock.ExpectQuery(selectSettings).WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"disabled_platforms", "delete_original"}).AddRow(disabled, deleteOriginal))
}

func repostMessage() *discordgo.Message {
	return &discordgo.Message{ID: "m1", GuildID: "g1", ChannelID: "c1", Author: &discordgo.User{ID: "u1"}}
}

func TestOnMessageDoesNotWaitForReposts(t *testing.T) {
	mock := newMockDB(t)
	session := newTestSession(t)
	platform := newStubPlatform()
	defer close(platform.release)
	h := &Handler{platforms: []Platform{platform}}

	mock.ExpectQuery(selectSettings).WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"disabled_platforms", "delete_original"}))

	done := make(chan struct{})
	go func() {
		h.OnMessage("look https://www.tiktok.com/@a/video/1", repostMessage(), session)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reposter.OnMessage() blocked until the repost finished")
	}

	select {
	case link := <-platform.fetched:
		assert.Equal(t, "https://www.tiktok.com/@a/video/1", link)
	case <-time.After(2 * time.Second):
		t.Fatal("reposter.OnMessage() never fetched the link")
	}
}

func TestCollectJobsDedupesLinks(t *testing.T) {
	mock := newMockDB(t)
	server := newTestRedis(t)
	h := &Handler{platforms: []Platform{newStubPlatform()}}

	expectSettings(mock, "{}", true)
	jobs, deleteOriginal := h.collectJobs("https://www.tiktok.com/@a/video/1", repostMessage())
	require.Len(t, jobs, 1)
	assert.True(t, deleteOriginal)

	key := "pretend:reposter:seen:c1:https://www.tiktok.com/@a/video/1"
	assert.True(t, server.Exists(key))
	assert.True(t, server.TTL(key) <= dedupeWindow)

	expectSettings(mock, "{}", true)
	jobs, _ = h.collectJobs("https://www.tiktok.com/@a/video/1", repostMessage())
	assert.Empty(t, jobs, "the same link was reposted twice within the dedupe window")

	server.FastForward(dedupeWindow + time.Second)
	expectSettings(mock, "{}", false)
	jobs, _ = h.collectJobs("https://www.tiktok.com/@a/video/1", repostMessage())
	assert.Len(t, jobs, 1)
}

func TestCollectJobsSkipsDisabledPlatforms(t *testing.T) {
	mock := newMockDB(t)
	cache.SetRedisClient(nil)
	h := &Handler{platforms: []Platform{newStubPlatform()}}

	expectSettings(mock, "{tiktok}", false)
	jobs, _ := h.collectJobs("https://www.tiktok.com/@a/video/1", repostMessage())
	assert.Empty(t, jobs)
}

func TestCollectJobsRateLimitsGuilds(t *testing.T) {
	mock := newMockDB(t)
	cache.SetRedisClient(nil)
	h := &Handler{platforms: []Platform{newStubPlatform()}}

	expectSettings(mock, "{}", false)
	jobs, _ := h.collectJobs("https://www.tiktok.com/@a/video/1 https://www.tiktok.com/@a/video/2 https://www.tiktok.com/@a/video/3",
		repostMessage())
	assert.Len(t, jobs, guildRepostBurst)

	expectSettings(mock, "{}", false)
	jobs, _ = h.collectJobs("https://www.tiktok.com/@a/video/4", repostMessage())
	assert.Empty(t, jobs)
}

func TestCollectJobsIgnoresBotsAndDMs(t *testing.T) {
	newMockDB(t)
	h := &Handler{platforms: []Platform{newStubPlatform()}}

	bot := repostMessage()
	bot.Author.Bot = true
	jobs, _ := h.collectJobs("https://www.tiktok.com/@a/video/1", bot)
	assert.Empty(t, jobs)

	dm := repostMessage()
	dm.GuildID = ""
	jobs, _ = h.collectJobs("https://www.tiktok.com/@a/video/1", dm)
	assert.Empty(t, jobs)

	jobs, _ = h.collectJobs("https://example.com/not-supported", repostMessage())
	assert.Empty(t, jobs)
}

func TestSettingsStorage(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(selectSettings).WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"disabled_platforms", "delete_original"}))
	settings, err := getSettings("g1")
	require.NoError(t, err)
	assert.Equal(t, models.ReposterSettings{GuildID: "g1"}, settings)

	mock.ExpectExec("INSERT INTO reposter_settings").
		WithArgs("g1", "{}", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, setSettings(models.ReposterSettings{GuildID: "g1", DeleteOriginal: true}))

	mock.ExpectExec("INSERT INTO reposter_settings").
		WithArgs("g1", `{"reddit","tiktok"}`, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, setSettings(models.ReposterSettings{GuildID: "g1", DisabledPlatforms: []string{"reddit", "tiktok"}}))

	expectSettings(mock, "{reddit,tiktok}", true)
	settings, err = getSettings("g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"reddit", "tiktok"}, settings.DisabledPlatforms)
	assert.True(t, settings.DeleteOriginal)
	assert.False(t, settings.PlatformEnabled("tiktok"))
}
