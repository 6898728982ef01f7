package ratelimits

import (
	"errors"
	"sync"
	"time"
)

const (
	// How many keys a bucket may contain when created
	BUCKET_INITIAL_FILL = 16

	// The maximum amount of keys a user may possess
	BUCKET_UPPER_BOUND = 32

	// How often new keys drip into the buckets
	DROP_INTERVAL = 10 * time.Second

	// How many keys may drop at a time
	DROP_SIZE = 1
)

var ErrNoKeysLeft = errors.New("no keys left")

// Global pointer to a container instance
var Container = &BucketContainer{}

// Container struct to lock the bucket map
type BucketContainer struct {
	sync.RWMutex

	// Maps discord ids to key-counts
	buckets map[string]int8

	stop chan struct{}
	done chan struct{}
}

// Allocates the map and starts the refill routine
func (b *BucketContainer) Init() {
	b.InitWithInterval(DROP_INTERVAL)
}

// InitWithInterval is Init with a custom drop interval
func (b *BucketContainer) InitWithInterval(interval time.Duration) {
	b.Lock()
	if b.stop != nil {
		b.Unlock()
		return
	}
	b.buckets = make(map[string]int8)
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	stop, done := b.stop, b.done
	b.Unlock()

	go b.refiller(interval, stop, done)
}

// Stop ends the refill routine and waits for it to exit
func (b *BucketContainer) Stop() {
	b.Lock()
	stop, done := b.stop, b.done
	b.stop, b.done = nil, nil
	b.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Refills user buckets in a set interval
func (b *BucketContainer) refiller(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.Refill()
		}
	}
}

// Refill drops keys into every bucket once
func (b *BucketContainer) Refill() {
	b.Lock()
	defer b.Unlock()

	for user, keys := range b.buckets {
		// Chill zone exit
		if keys <= 0 {
			b.buckets[user] = BUCKET_INITIAL_FILL
			continue
		}

		// More free keys for nice users :3
		if keys < BUCKET_UPPER_BOUND {
			b.buckets[user] += DROP_SIZE
			continue
		}
	}
}

func (b *BucketContainer) createBucketIfNotExists(user string) {
	if b.buckets == nil {
		b.buckets = make(map[string]int8)
	}
	if _, ok := b.buckets[user]; !ok {
		b.buckets[user] = BUCKET_INITIAL_FILL
	}
}

// Drains $amount from $user if they have enough keys left
func (b *BucketContainer) Drain(amount int8, user string) error {
	b.Lock()
	defer b.Unlock()

	b.createBucketIfNotExists(user)

	if amount > b.buckets[user] {
		return ErrNoKeysLeft
	}

	b.buckets[user] -= amount
	return nil
}

// Check if the user still has keys
func (b *BucketContainer) HasKeys(user string) bool {
	b.Lock()
	defer b.Unlock()

	b.createBucketIfNotExists(user)

	return b.buckets[user] > 0
}

// Check reports whether $user may run a command.
// Users without keys enter the chill zone, $warn is only true when they enter it.
func (b *BucketContainer) Check(user string) (allowed bool, warn bool) {
	b.Lock()
	defer b.Unlock()

	b.createBucketIfNotExists(user)

	keys := b.buckets[user]
	if keys > 0 {
		return true, false
	}

	b.buckets[user] = -1
	return false, keys == 0
}

func (b *BucketContainer) Get(user string) int8 {
	b.RLock()
	defer b.RUnlock()

	return b.buckets[user]
}

func (b *BucketContainer) Set(user string, value int8) {
	b.Lock()
	defer b.Unlock()

	if b.buckets == nil {
		b.buckets = make(map[string]int8)
	}
	b.buckets[user] = value
}
