package plugins

import (
	"runtime"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/version"
)

type About struct{}

func (a *About) Commands() []string {
	return []string{
		"about",
		"info",
		"botinfo",
	}
}

func (a *About) Init(session *discordgo.Session) {

}

func (a *About) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	var memory runtime.MemStats
	runtime.ReadMemStats(&memory)

	session.State.RLock()
	guildCount := len(session.State.Guilds)
	session.State.RUnlock()

	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetTextF("plugins.about.title", session.State.User.Username),
		Description: helpers.GetText("plugins.about.description"),
		Color:       helpers.ColorNeutral,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: session.State.User.AvatarURL("256")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Version", Value: version.BOT_VERSION, Inline: true},
			{Name: "Go", Value: runtime.Version(), Inline: true},
			{Name: "Uptime", Value: humanize.RelTime(version.StartTime, time.Now(), "", ""), Inline: true},
			{Name: "Servers", Value: humanize.Comma(int64(guildCount)), Inline: true},
			{Name: "Goroutines", Value: strconv.Itoa(runtime.NumGoroutine()), Inline: true},
			{Name: "Memory", Value: humanize.Bytes(memory.Alloc), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "built " + version.BUILD_TIME},
	}

	_, err := helpers.SendEmbed(msg.ChannelID, embed)
	helpers.RelaxEmbed(err, msg.ChannelID, msg.ID)
}
