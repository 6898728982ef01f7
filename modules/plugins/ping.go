package plugins

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
)

type Ping struct{}

func (p *Ping) Commands() []string {
	return []string{
		"ping",
	}
}

var (
	pingMessage string
)

func (p *Ping) Init(session *discordgo.Session) {
	pingMessage = helpers.GetText("plugins.ping.message")
	session.AddHandler(p.OnMessage)
}

func (p *Ping) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	_, err := helpers.SendMessage(msg.ChannelID, pingMessage+" ~ "+strconv.FormatInt(time.Now().UnixNano(), 10))
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
}

// OnMessage finishes the ping by editing our own message with the measured latencies
func (p *Ping) OnMessage(session *discordgo.Session, message *discordgo.MessageCreate) {
	if session.State.User == nil || message.Author.ID != session.State.User.ID {
		return
	}

	if !strings.HasPrefix(message.Content, pingMessage+" ~ ") {
		return
	}

	textUnixNano := strings.Replace(message.Content, pingMessage+" ~ ", "", 1)

	parsedUnixNano, err := strconv.ParseInt(textUnixNano, 10, 64)
	if err != nil {
		return
	}

	gatewayTaken := time.Duration(time.Now().UnixNano() - parsedUnixNano)

	text := pingMessage +
		"\nGateway Latency (receive message): " + gatewayTaken.String() +
		"\nHeartbeat Latency: " + session.HeartbeatLatency().String()

	started := time.Now()
	helpers.EditMessage(message.ChannelID, message.ID, text)
	apiTaken := time.Since(started)

	text = text + "\nHTTP API Latency (edit message): " + apiTaken.String()

	started = time.Now()
	err = cache.GetDB().Ping()
	if err == nil {
		text = text + "\nPostgres Latency: " + time.Since(started).String()
	}

	if cache.HasRedisClient() {
		started = time.Now()
		cache.GetRedisClient().Ping()
		text = text + "\nRedis Latency: " + time.Since(started).String()
	}

	helpers.EditMessage(message.ChannelID, message.ID, text)
}
