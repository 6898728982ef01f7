package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/go-redis/redis"
	"github.com/kz/discordrus"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/logging"
	"github.com/pretend-bot/pretend/metrics"
	"github.com/pretend-bot/pretend/migrations"
	"github.com/pretend-bot/pretend/rest"
	"github.com/pretend-bot/pretend/version"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var BotRuntimeChannel chan os.Signal

// Entrypoint
func main() {
	var err error

	configPath := flag.String("config", "config.json", "path of the json config")
	flag.Parse()

	log := logrus.New()
	log.Out = os.Stdout
	log.Level = logrus.InfoLevel
	log.Formatter = &logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339}
	log.Hooks = make(logrus.LevelHooks)
	cache.SetLogger(log)

	// Read config
	helpers.LoadConfig(*configPath)

	// Check if the bot is being debugged
	if helpers.ConfigBool("debug", false) {
		helpers.DEBUG_MODE = true
		log.Level = logrus.DebugLevel
	}

	if jsonFile := helpers.ConfigString("logging.jsonfile", ""); jsonFile != "" {
		fileHook, err := logging.NewLogrusFileHook(jsonFile, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666, logrus.InfoLevel)
		if err != nil {
			log.WithField("module", "launcher").Error("logrus file hook failed, err:", err.Error())
		} else {
			log.Hooks.Add(fileHook)
			defer fileHook.Close()
		}
	}

	if webhook := helpers.ConfigString("logging.discord_webhook", ""); webhook != "" {
		log.Hooks.Add(discordrus.NewHook(
			webhook,
			logrus.ErrorLevel,
			&discordrus.Opts{
				Username:           "Logging",
				DisableTimestamp:   false,
				TimestampFormat:    "Jan 2 15:04:05.00000",
				EnableCustomColors: true,
				CustomLevelColors: &discordrus.LevelColors{
					Error: 13631488,
					Panic: 13631488,
					Fatal: 13631488,
				},
			},
		))
	}

	log.WithField("module", "launcher").Info("Booting Pretend...")

	// Read i18n
	helpers.LoadTranslations()

	// Show version
	version.DumpInfo()

	// Start metric server
	metrics.Init(helpers.ConfigString("metrics.address", "127.0.0.1:1337"))

	// Print UA
	log.WithField("module", "launcher").Info("USERAGENT: '" + helpers.DEFAULT_UA + "'")

	// Call home
	if dsn := helpers.ConfigString("sentry", ""); dsn != "" {
		log.WithField("module", "launcher").Info("[SENTRY] Calling home...")
		err = raven.SetDSN(dsn)
		if err != nil {
			panic(err)
		}
		if version.BOT_VERSION != "UNSET" {
			raven.SetRelease(version.BOT_VERSION)
		}
		log.WithField("module", "launcher").Info("[SENTRY] Someone picked up the phone \\^-^/")
	}

	// Connect to DB
	log.WithField("module", "launcher").Info("Opening database connection...")
	db, err := helpers.ConnectDB(helpers.ConfigString("postgres.dsn", ""))
	if err != nil {
		raven.CaptureErrorAndWait(err, nil)
		panic(err)
	}

	// Close DB when main dies
	defer db.Close()

	// Run migrations
	err = migrations.Run(db)
	if err != nil {
		raven.CaptureErrorAndWait(err, nil)
		panic(err)
	}

	// Connecting to redis
	if address := helpers.ConfigString("redis.address", ""); address != "" {
		log.WithField("module", "launcher").Info("Connecting to redis...")
		redisClient := redis.NewClient(&redis.Options{
			Addr:     address,
			Password: helpers.ConfigString("redis.password", ""),
			DB:       helpers.ConfigInt("redis.db", 0),
		})
		err = redisClient.Ping().Err()
		if err != nil {
			log.WithField("module", "launcher").Warn("redis is unreachable, continuing without it: " + err.Error())
			redisClient.Close()
		} else {
			cache.SetRedisClient(redisClient)
			defer redisClient.Close()
		}
	} else {
		log.WithField("module", "launcher").Warn("redis.address is empty, afk and reposter dedupe are disabled")
	}

	// Start scheduler
	scheduler := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	cache.SetCron(scheduler)
	scheduler.Start()

	// Connect and add event handlers
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		pc, file, line, _ := runtime.Caller(caller)

		files := strings.Split(file, "/")
		file = files[len(files)-1]

		name := runtime.FuncForPC(pc).Name()
		fns := strings.Split(name, ".")
		name = fns[len(fns)-1]

		msg := format
		if strings.Contains(msg, "%") {
			msg = fmt.Sprintf(format, a...)
		}

		switch msgL {
		case discordgo.LogError:
			log.WithField("module", "discordgo").Errorf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogWarning:
			log.WithField("module", "discordgo").Warnf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogInformational:
			log.WithField("module", "discordgo").Infof("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogDebug:
			log.WithField("module", "discordgo").Debugf("%s:%d:%s() %s", file, line, name, msg)
		}
	}
	log.WithField("module", "launcher").Info("Connecting Pretend to discord...")
	discord, err := discordgo.New("Bot " + helpers.ConfigString("discord.token", ""))
	if err != nil {
		panic(err)
	}

	discord.Lock()
	discord.Debug = false
	discord.LogLevel = discordgo.LogInformational
	discord.StateEnabled = true
	discord.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages
	discord.Unlock()

	discord.AddHandler(BotOnReady)
	discord.AddHandler(BotOnMessageCreate)
	discord.AddHandler(BotOnGuildMemberAdd)
	discord.AddHandler(BotOnGuildMemberRemove)
	discord.AddHandler(BotOnGuildCreate)
	discord.AddHandler(BotOnGuildDelete)
	discord.AddHandlerOnce(metrics.OnReady)
	discord.AddHandler(metrics.OnMessageCreate)

	// Connect to discord
	err = discord.Open()
	if err != nil {
		raven.CaptureErrorAndWait(err, nil)
		panic(err)
	}

	// Open REST API
	apiServer := rest.Start(
		helpers.ConfigString("api.address", "localhost:2021"),
		helpers.ConfigStringSlice("api.allowed_origins"),
	)

	// Make a channel that waits for a os signal
	BotRuntimeChannel = make(chan os.Signal, 1)
	signal.Notify(BotRuntimeChannel, os.Interrupt, syscall.SIGTERM)

	// Wait until the os wants us to shutdown
	<-BotRuntimeChannel

	log.WithField("module", "launcher").Info("Pretend is stopping")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = apiServer.Shutdown(ctx)
	cancel()
	if err != nil {
		log.WithField("module", "launcher").Warn("REST API shutdown: " + err.Error())
	}

	log.WithField("module", "launcher").Info("Uninitializing plugins...")
	BotDestroy(discord)

	log.WithField("module", "launcher").Info("Stopping scheduler...")
	<-scheduler.Stop().Done()

	log.WithField("module", "launcher").Info("Disconnecting bot discord session...")
	discord.Close()
}
