package ratelimits

import (
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDrain(t *testing.T) {
	b := &BucketContainer{}

	if err := b.Drain(BUCKET_INITIAL_FILL, "1"); err != nil {
		t.Fatalf("ratelimits.Drain() returned an error on a full bucket: %s", err.Error())
	}
	if b.HasKeys("1") {
		t.Fatalf("ratelimits.HasKeys() should be false after draining the bucket")
	}
	if err := b.Drain(1, "1"); err != ErrNoKeysLeft {
		t.Fatalf("ratelimits.Drain() returned %v on an empty bucket", err)
	}
	if !b.HasKeys("2") {
		t.Fatalf("ratelimits.HasKeys() should create full buckets for new users")
	}
}

func TestRefill(t *testing.T) {
	b := &BucketContainer{}
	b.Set("chill", -1)
	b.Set("empty", 0)
	b.Set("some", 5)
	b.Set("full", BUCKET_UPPER_BOUND)

	b.Refill()

	expected := map[string]int8{
		"chill": BUCKET_INITIAL_FILL,
		"empty": BUCKET_INITIAL_FILL,
		"some":  5 + DROP_SIZE,
		"full":  BUCKET_UPPER_BOUND,
	}
	for user, keys := range expected {
		if got := b.Get(user); got != keys {
			t.Fatalf("ratelimits.Refill() left %s with %d keys, expected %d", user, got, keys)
		}
	}
}

func TestCheckChillZone(t *testing.T) {
	b := &BucketContainer{}

	allowed, warn := b.Check("1")
	if !allowed || warn {
		t.Fatalf("ratelimits.Check() = %v, %v for a new user", allowed, warn)
	}

	if err := b.Drain(BUCKET_INITIAL_FILL, "1"); err != nil {
		t.Fatalf("ratelimits.Drain() returned an error: %s", err.Error())
	}

	allowed, warn = b.Check("1")
	if allowed || !warn {
		t.Fatalf("ratelimits.Check() = %v, %v when entering the chill zone", allowed, warn)
	}
	allowed, warn = b.Check("1")
	if allowed || warn {
		t.Fatalf("ratelimits.Check() = %v, %v inside the chill zone", allowed, warn)
	}
}

func TestChillZoneRecoversWhileSpamming(t *testing.T) {
	b := &BucketContainer{}
	b.Set("1", 0)

	warnings := 0
	allowed, warn := b.Check("1")
	if allowed {
		t.Fatalf("ratelimits.Check() allowed a user without keys")
	}
	if warn {
		warnings++
	}

	// one command between every drop
	for i := 0; i < 5; i++ {
		b.Refill()

		allowed, warn = b.Check("1")
		if warn {
			warnings++
		}
		if !allowed {
			t.Fatalf("ratelimits.Check() still blocks after %d drops, bucket at %d", i+1, b.Get("1"))
		}
		if err := b.Drain(1, "1"); err != nil {
			t.Fatalf("ratelimits.Drain() returned an error: %s", err.Error())
		}
	}

	if warnings != 1 {
		t.Fatalf("ratelimits.Check() warned %d times, expected once", warnings)
	}
}

func TestRefillRoutine(t *testing.T) {
	b := &BucketContainer{}
	b.InitWithInterval(5 * time.Millisecond)
	b.Set("1", 1)

	deadline := time.Now().Add(2 * time.Second)
	for b.Get("1") <= 1 {
		if time.Now().After(deadline) {
			b.Stop()
			t.Fatalf("ratelimits refill routine never dropped a key")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.Stop()
	b.Stop()
}
