package helpers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Seklfreak/lastfm-go/lastfm"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/metrics"
	"github.com/pretend-bot/pretend/models"
	"golang.org/x/time/rate"
)

const (
	lastFmErrorOperationFailed = 8
	lastFmErrorTemporary       = 16
	lastFmErrorRateLimited     = 29

	lastFmMaxAttempts = 3
)

var (
	lastFmClient      *lastfm.Api
	lastFmClientMutex sync.Mutex

	// 5 requests per second as allowed by the last.fm API terms
	lastFmLimiter = rate.NewLimiter(rate.Limit(5), 5)
	// waited between attempts, index is the failed attempt
	lastFmBackoff = []time.Duration{500 * time.Millisecond, 1 * time.Second}
)

// Gets the LastFM client from cache. If there is no LastFM client in cache yet it will create a new instance
func GetLastFmClient() (client *lastfm.Api) {
	lastFmClientMutex.Lock()
	defer lastFmClientMutex.Unlock()

	if lastFmClient != nil {
		return lastFmClient
	}

	lastFmClient = lastfm.New(
		ConfigString("lastfm.api_key", ""),
		ConfigString("lastfm.api_secret", ""),
	)

	return lastFmClient
}

// IsLastFmRetryable reports whether a failed last.fm call is worth another attempt
func IsLastFmRetryable(err error) bool {
	if err == nil {
		return false
	}
	if lastFmErr, ok := errors.Cause(err).(*lastfm.LastfmError); ok {
		switch lastFmErr.Code {
		case lastFmErrorRateLimited, lastFmErrorOperationFailed, lastFmErrorTemporary:
			return true
		}
		return false
	}
	// anything not coming from the api itself is a transport problem
	return true
}

// LastFmErrorCode returns the last.fm error code of $err, or 0 if it is no api error
func LastFmErrorCode(err error) int {
	if lastFmErr, ok := errors.Cause(err).(*lastfm.LastfmError); ok {
		return lastFmErr.Code
	}
	return 0
}

// LastFmDo runs $call through the shared rate limiter, retrying temporary failures
func LastFmDo(ctx context.Context, call func() error) (err error) {
	for attempt := 0; attempt < lastFmMaxAttempts; attempt++ {
		err = lastFmLimiter.Wait(ctx)
		if err != nil {
			return err
		}

		metrics.LastFmRequests.Add(1)
		err = call()
		if err == nil || !IsLastFmRetryable(err) {
			return err
		}
		if attempt+1 >= lastFmMaxAttempts {
			break
		}

		cache.GetLogger().WithField("module", "lastfm").Warnf(
			"last.fm request failed (attempt %d/%d), retrying: %s", attempt+1, lastFmMaxAttempts, err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lastFmBackoff[attempt]):
		}
	}
	return err
}

// Gets the LastFM Username for a Discord User, returns an empty string if no username has been set
// userID	: the ID of the discord user
func GetLastFmUsername(userID string) (username string) {
	err := cache.GetDB().QueryRow(
		"SELECT lastfm_username FROM "+models.LastFmTable+" WHERE user_id = $1", userID,
	).Scan(&username)
	if err != nil {
		if !IsNoRows(err) {
			RelaxLog(err)
		}
		return ""
	}
	return username
}

// SetLastFmUsername links $userID to the last.fm account $username
func SetLastFmUsername(userID, username string) error {
	_, err := cache.GetDB().Exec(
		"INSERT INTO "+models.LastFmTable+" (user_id, lastfm_username, updated_at) VALUES ($1, $2, now()) "+
			"ON CONFLICT (user_id) DO UPDATE SET lastfm_username = EXCLUDED.lastfm_username, updated_at = now()",
		userID, strings.TrimSpace(username),
	)
	return errors.Wrap(err, "saving lastfm username failed")
}

// UnsetLastFmUsername removes the link, removed is false if there was none
func UnsetLastFmUsername(userID string) (removed bool, err error) {
	result, err := cache.GetDB().Exec("DELETE FROM "+models.LastFmTable+" WHERE user_id = $1", userID)
	if err != nil {
		return false, errors.Wrap(err, "removing lastfm username failed")
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}
