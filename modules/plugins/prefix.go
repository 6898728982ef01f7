package plugins

import (
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/pretend-bot/pretend/helpers"
)

type Prefix struct{}

const (
	prefixMinLength = 1
	prefixMaxLength = 10
)

func (p *Prefix) Commands() []string {
	return []string{
		"prefix",
	}
}

func (p *Prefix) Init(session *discordgo.Session) {

}

// ValidPrefix reports whether $prefix can be used as a guild prefix
func ValidPrefix(prefix string) bool {
	length := utf8.RuneCountInString(prefix)
	if length < prefixMinLength || length > prefixMaxLength {
		return false
	}
	return !strings.ContainsAny(prefix, " \t\n\r")
}

func (p *Prefix) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.GuildID == "" {
		return
	}

	args := strings.Fields(content)
	if len(args) <= 0 {
		helpers.SendNeutral(msg, helpers.GetTextF("bot.prefix.is", helpers.GetPrefixForServer(msg.GuildID)))
		return
	}

	switch args[0] {
	case "set":
		if !helpers.RequirePermission(msg, "manage_guild") {
			return
		}
		if len(args) != 2 || !ValidPrefix(args[1]) {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.prefix.invalid", prefixMinLength, prefixMaxLength))
			return
		}

		err := helpers.SetPrefixForServer(msg.GuildID, args[1])
		helpers.Relax(err)

		helpers.SendApprove(msg, helpers.GetTextF("bot.prefix.saved", args[1]))
	case "reset", "remove":
		if !helpers.RequirePermission(msg, "manage_guild") {
			return
		}

		err := helpers.SetPrefixForServer(msg.GuildID, helpers.DefaultPrefix())
		helpers.Relax(err)

		helpers.SendApprove(msg, helpers.GetTextF("bot.prefix.saved", helpers.DefaultPrefix()))
	default:
		helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid"))
	}
}
