package version

import (
	"runtime"
	"time"

	"github.com/pretend-bot/pretend/cache"
)

// Version related vars
// Set by compiler
var (
	// BOT_VERSION example: 1.2.0-4-g205bbb8
	BOT_VERSION string = "DEV_SNAPSHOT"

	// BUILD_TIME example: Fri Jan  6 00:45:46 CET 2017
	BUILD_TIME string = "UNSET"

	// BUILD_USER example: pretend
	BUILD_USER string = "UNSET"

	// BUILD_HOST example: builder
	BUILD_HOST string = "UNSET"
)

// StartTime is set once the process started
var StartTime = time.Now()

// DumpInfo dumps all above vars
func DumpInfo() {
	log := cache.GetLogger().WithField("module", "version")
	log.Debug("BOT VERSION: " + BOT_VERSION)
	log.Debug("BUILD TIME: " + BUILD_TIME)
	log.Debug("BUILD USER: " + BUILD_USER)
	log.Debug("BUILD HOST: " + BUILD_HOST)
	log.Debug("GO VERSION: " + runtime.Version())
}
