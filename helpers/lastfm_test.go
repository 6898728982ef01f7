package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/Seklfreak/lastfm-go/lastfm"
	"github.com/pkg/errors"
)

func fastLastFmBackoff(t *testing.T) {
	previous := lastFmBackoff
	lastFmBackoff = []time.Duration{time.Millisecond, time.Millisecond}
	t.Cleanup(func() { lastFmBackoff = previous })
}

func TestIsLastFmRetryable(t *testing.T) {
	cases := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{&lastfm.LastfmError{Code: 29, Message: "Rate limit exceeded"}, true},
		{&lastfm.LastfmError{Code: 8, Message: "Operation failed"}, true},
		{&lastfm.LastfmError{Code: 16, Message: "Temporary error"}, true},
		{errors.Wrap(&lastfm.LastfmError{Code: 29}, "wrapped"), true},
		{&lastfm.LastfmError{Code: 6, Message: "User not found"}, false},
		{&lastfm.LastfmError{Code: 17, Message: "Login required"}, false},
		{errors.New("connection reset by peer"), true},
	}

	for _, c := range cases {
		if got := IsLastFmRetryable(c.err); got != c.expected {
			t.Fatalf("helpers.IsLastFmRetryable(%v) returned %v, expected %v", c.err, got, c.expected)
		}
	}
}

func TestLastFmErrorCode(t *testing.T) {
	if code := LastFmErrorCode(errors.Wrap(&lastfm.LastfmError{Code: 17}, "profile")); code != 17 {
		t.Fatalf("helpers.LastFmErrorCode() returned %d, expected 17", code)
	}
	if code := LastFmErrorCode(errors.New("timeout")); code != 0 {
		t.Fatalf("helpers.LastFmErrorCode() returned %d for a transport error", code)
	}
}

func TestLastFmDoRetriesTemporaryErrors(t *testing.T) {
	fastLastFmBackoff(t)

	calls := 0
	err := LastFmDo(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &lastfm.LastfmError{Code: 29, Message: "Rate limit exceeded"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("helpers.LastFmDo() returned an error: %s", err.Error())
	}
	if calls != 3 {
		t.Fatalf("helpers.LastFmDo() called %d times, expected 3", calls)
	}
}

func TestLastFmDoGivesUp(t *testing.T) {
	fastLastFmBackoff(t)

	calls := 0
	err := LastFmDo(context.Background(), func() error {
		calls++
		return &lastfm.LastfmError{Code: 16, Message: "Temporary error"}
	})
	if LastFmErrorCode(err) != 16 {
		t.Fatalf("helpers.LastFmDo() returned %v, expected the last api error", err)
	}
	if calls != lastFmMaxAttempts {
		t.Fatalf("helpers.LastFmDo() called %d times, expected %d", calls, lastFmMaxAttempts)
	}
}

func TestLastFmDoStopsOnPermanentErrors(t *testing.T) {
	fastLastFmBackoff(t)

	calls := 0
	err := LastFmDo(context.Background(), func() error {
		calls++
		return &lastfm.LastfmError{Code: 6, Message: "User not found"}
	})
	if LastFmErrorCode(err) != 6 || calls != 1 {
		t.Fatalf("helpers.LastFmDo() retried a permanent error (%d calls, err %v)", calls, err)
	}
}

func TestLastFmDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := LastFmDo(ctx, func() error {
		calls++
		return nil
	})
	if err == nil || calls != 0 {
		t.Fatalf("helpers.LastFmDo() ran with a cancelled context (%d calls, err %v)", calls, err)
	}
}
