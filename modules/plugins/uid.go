package plugins

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/pretend-bot/pretend/helpers"
)

type UID struct{}

func (u *UID) Commands() []string {
	return []string{
		"uid",
	}
}

func (u *UID) Init(session *discordgo.Session) {

}

func (u *UID) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	args := strings.Fields(content)

	if len(args) >= 1 && args[0] == "lookup" {
		if len(args) < 2 {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
			return
		}

		uid, err := strconv.ParseInt(strings.TrimPrefix(args[1], "#"), 10, 64)
		if err != nil || uid <= 0 {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid"))
			return
		}

		entry, found, err := helpers.LookupUID(uid)
		helpers.Relax(err)
		if !found {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.uid.not-found", uid))
			return
		}

		helpers.SendNeutral(msg, helpers.GetTextF("plugins.uid.lookup", humanize.Comma(uid), entry.UserID, entry.UserID))
		return
	}

	targetUser := msg.Author
	if len(args) >= 1 {
		var err error
		targetUser, err = helpers.GetUserFromMention(args[0])
		if err != nil {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid-user"))
			return
		}
	}

	var uid int64
	var err error
	if targetUser.ID == msg.Author.ID {
		uid, err = helpers.GetOrCreateUID(targetUser.ID)
		helpers.Relax(err)
	} else {
		var found bool
		uid, found, err = helpers.GetUID(targetUser.ID)
		helpers.Relax(err)
		if !found {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.uid.none", targetUser.Username))
			return
		}
	}

	helpers.SendNeutral(msg, helpers.GetTextF("plugins.uid.is", targetUser.Username, humanize.Comma(uid)))
}
