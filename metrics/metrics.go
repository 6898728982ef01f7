package metrics

import (
	"expvar"
	"net/http"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pretend-bot/pretend/cache"
)

var (
	// MessagesReceived counts all ever received messages
	MessagesReceived = expvar.NewInt("messages_received")

	// UserCount counts all members in joined guilds
	UserCount = expvar.NewInt("user_count")

	// ChannelCount counts all watching channels
	ChannelCount = expvar.NewInt("channel_count")

	// GuildCount counts all joined guilds
	GuildCount = expvar.NewInt("guild_count")

	// CommandsExecuted increases after each command execution
	CommandsExecuted = expvar.NewInt("commands_executed")

	// LastFmRequests increases after each request to last.fm, retries included
	LastFmRequests = expvar.NewInt("lastfm_requests")

	// RepostsSent increases after each reposted media
	RepostsSent = expvar.NewInt("reposts_sent")

	// AutopostsSent increases after each autopfp or autobanner post
	AutopostsSent = expvar.NewInt("autoposts_sent")

	// AIRequests increases after each chat completion request
	AIRequests = expvar.NewInt("ai_requests")

	// CoroutineCount counts all running coroutines
	CoroutineCount = expvar.NewInt("coroutine_count")

	// Uptime stores the timestamp of the bot's boot
	Uptime = expvar.NewInt("uptime")
)

// Init starts a http server on $address serving /debug/vars
func Init(address string) {
	cache.GetLogger().WithField("module", "metrics").Info("Listening on " + address)
	Uptime.Set(time.Now().Unix())
	go func() {
		err := http.ListenAndServe(address, nil)
		if err != nil {
			cache.GetLogger().WithField("module", "metrics").Error("metrics server stopped: " + err.Error())
		}
	}()
}

// OnReady listens for said discord event
func OnReady(session *discordgo.Session, event *discordgo.Ready) {
	go CollectDiscordMetrics(session)
	go CollectRuntimeMetrics()
}

// OnMessageCreate listens for said discord event
func OnMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	MessagesReceived.Add(1)
}

// CollectDiscordMetrics counts Guilds, Channels and Users
func CollectDiscordMetrics(session *discordgo.Session) {
	for {
		time.Sleep(15 * time.Second)
		UpdateDiscordMetrics(session)
	}
}

// UpdateDiscordMetrics counts once
func UpdateDiscordMetrics(session *discordgo.Session) {
	users := 0
	channels := 0

	session.State.RLock()
	guilds := len(session.State.Guilds)
	for _, guild := range session.State.Guilds {
		channels += len(guild.Channels)
		users += guild.MemberCount
	}
	session.State.RUnlock()

	UserCount.Set(int64(users))
	ChannelCount.Set(int64(channels))
	GuildCount.Set(int64(guilds))
}

// CollectRuntimeMetrics counts all running coroutines
func CollectRuntimeMetrics() {
	for {
		time.Sleep(15 * time.Second)
		CoroutineCount.Set(int64(runtime.NumGoroutine()))
	}
}
