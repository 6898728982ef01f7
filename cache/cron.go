package cache

import (
	"errors"
	"sync"

	"github.com/robfig/cron/v3"
)

var (
	cronScheduler      *cron.Cron
	cronSchedulerMutex sync.RWMutex
)

func SetCron(c *cron.Cron) {
	cronSchedulerMutex.Lock()
	cronScheduler = c
	cronSchedulerMutex.Unlock()
}

func GetCron() *cron.Cron {
	cronSchedulerMutex.RLock()
	defer cronSchedulerMutex.RUnlock()

	if cronScheduler == nil {
		panic(errors.New("Tried to get cron scheduler before cache#SetCron() was called"))
	}

	return cronScheduler
}
