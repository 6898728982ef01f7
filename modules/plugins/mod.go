package plugins

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/models"
)

type Mod struct{}

const (
	purgeMinMessages = 2
	purgeMaxMessages = 100
	modCasesShown    = 10
	banMaxDays       = 7
	// discord refuses to bulk delete older messages
	bulkDeleteMaxAge = 14 * 24 * time.Hour
)

func (m *Mod) Commands() []string {
	return []string{
		"ban",
		"kick",
		"purge",
		"clear",
		"cases",
	}
}

func (m *Mod) Init(session *discordgo.Session) {

}

func (m *Mod) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.GuildID == "" {
		return
	}

	args := strings.Fields(content)

	switch command {
	case "ban": // [p]ban <User> [<Days>] [<Reason>]
		if !helpers.RequirePermission(msg, "ban_members") {
			return
		}
		if len(args) < 1 {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
			return
		}

		targetUser, err := helpers.GetUserFromMention(args[0])
		if err != nil {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid-user"))
			return
		}

		days := 0
		reasonArgs := args[1:]
		if len(args) >= 2 {
			parsedDays, err := strconv.Atoi(args[1])
			if err == nil {
				if parsedDays < 0 || parsedDays > banMaxDays {
					helpers.SendWarn(msg, helpers.GetTextF("plugins.mod.ban-days-invalid", banMaxDays))
					return
				}
				days = parsedDays
				reasonArgs = args[2:]
			}
		}
		reason := strings.Join(reasonArgs, " ")

		if !m.canTarget(msg, targetUser.ID) {
			return
		}

		err = session.GuildBanCreateWithReason(msg.GuildID, targetUser.ID, m.auditReason(msg, reason), days)
		if helpers.IsDiscordPermissionsError(err) {
			helpers.SendDeny(msg, helpers.GetText("plugins.mod.bot-disallowed"))
			return
		}
		helpers.Relax(err)

		modCase, err := helpers.CreateModCase(msg.GuildID, targetUser.ID, msg.Author.ID, models.ModActionBan, reason)
		helpers.Relax(err)

		cache.GetLogger().WithField("module", "mod").Info(fmt.Sprintf("Banned User %s (#%s) on Guild #%s by %s (#%s)",
			targetUser.Username, targetUser.ID, msg.GuildID, msg.Author.Username, msg.Author.ID))
		helpers.SendApprove(msg, helpers.GetTextF("plugins.mod.user-banned-success", targetUser.Username, modCase.ID))
	case "kick": // [p]kick <User> [<Reason>]
		if !helpers.RequirePermission(msg, "kick_members") {
			return
		}
		if len(args) < 1 {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
			return
		}

		targetMember, err := helpers.GetMemberFromMention(msg.GuildID, args[0])
		if err != nil {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid-user"))
			return
		}
		reason := strings.Join(args[1:], " ")

		if !m.canTarget(msg, targetMember.User.ID) {
			return
		}

		err = session.GuildMemberDeleteWithReason(msg.GuildID, targetMember.User.ID, m.auditReason(msg, reason))
		if helpers.IsDiscordPermissionsError(err) {
			helpers.SendDeny(msg, helpers.GetText("plugins.mod.bot-disallowed"))
			return
		}
		helpers.Relax(err)

		modCase, err := helpers.CreateModCase(msg.GuildID, targetMember.User.ID, msg.Author.ID, models.ModActionKick, reason)
		helpers.Relax(err)

		cache.GetLogger().WithField("module", "mod").Info(fmt.Sprintf("Kicked User %s (#%s) on Guild #%s by %s (#%s)",
			targetMember.User.Username, targetMember.User.ID, msg.GuildID, msg.Author.Username, msg.Author.ID))
		helpers.SendApprove(msg, helpers.GetTextF("plugins.mod.user-kicked-success", targetMember.User.Username, modCase.ID))
	case "purge", "clear": // [p]purge <n>
		if !helpers.RequirePermission(msg, "manage_messages") {
			return
		}
		if len(args) < 1 {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
			return
		}

		amount, err := strconv.Atoi(args[0])
		if err != nil || amount < purgeMinMessages || amount > purgeMaxMessages {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.mod.purge-invalid", purgeMinMessages, purgeMaxMessages))
			return
		}

		messages, err := session.ChannelMessages(msg.ChannelID, amount, msg.ID, "", "")
		helpers.Relax(err)

		messageIDs := PurgeableMessageIDs(messages, time.Now())
		if len(messageIDs) <= 0 {
			helpers.SendWarn(msg, helpers.GetText("plugins.mod.purge-nothing"))
			return
		}

		err = session.ChannelMessagesBulkDelete(msg.ChannelID, messageIDs)
		if helpers.IsDiscordPermissionsError(err) {
			helpers.SendDeny(msg, helpers.GetText("plugins.mod.bot-disallowed"))
			return
		}
		helpers.Relax(err)
		session.ChannelMessageDelete(msg.ChannelID, msg.ID)

		_, err = helpers.CreateModCase(msg.GuildID, msg.ChannelID, msg.Author.ID, models.ModActionPurge,
			strconv.Itoa(len(messageIDs))+" messages")
		helpers.Relax(err)

		cache.GetLogger().WithField("module", "mod").Info(fmt.Sprintf("Deleted %d messages (command issued by %s (#%s))",
			len(messageIDs), msg.Author.Username, msg.Author.ID))

		confirmation, err := helpers.SendEmbed(msg.ChannelID, helpers.ReplyEmbed(msg, helpers.ColorApprove, "✅",
			helpers.GetTextF("plugins.mod.purge-success", len(messageIDs))))
		if err == nil {
			go func() {
				time.Sleep(5 * time.Second)
				session.ChannelMessageDelete(confirmation.ChannelID, confirmation.ID)
			}()
		}
	case "cases": // [p]cases <User>
		if !helpers.RequirePermission(msg, "moderate_members") {
			return
		}
		if len(args) < 1 {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
			return
		}

		targetUser, err := helpers.GetUserFromMention(args[0])
		if err != nil {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid-user"))
			return
		}

		cases, err := helpers.GetModCases(msg.GuildID, targetUser.ID, modCasesShown)
		helpers.Relax(err)

		if len(cases) <= 0 {
			helpers.SendNeutral(msg, helpers.GetTextF("plugins.mod.cases-empty", targetUser.Username))
			return
		}

		embed := &discordgo.MessageEmbed{
			Title: helpers.GetTextF("plugins.mod.cases-title", targetUser.Username),
			Color: helpers.ColorNeutral,
		}
		for _, modCase := range cases {
			reason := modCase.Reason
			if reason == "" {
				reason = "no reason given"
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: strings.ToUpper(modCase.Action) + " · " + humanize.Time(modCase.CreatedAt),
				Value: fmt.Sprintf("%s\nby <@%s> · `%s`",
					helpers.EscapeMarkdown(reason), modCase.ModeratorID, modCase.ID),
			})
		}

		_, err = helpers.SendEmbed(msg.ChannelID, helpers.TruncateEmbed(embed))
		helpers.RelaxEmbed(err, msg.ChannelID, msg.ID)
	}
}

// canTarget refuses actions against oneself, the bot and the guild owner
func (m *Mod) canTarget(msg *discordgo.Message, targetID string) bool {
	if targetID == msg.Author.ID {
		helpers.SendWarn(msg, helpers.GetText("plugins.mod.target-self"))
		return false
	}
	if targetID == cache.GetSession().State.User.ID {
		helpers.SendWarn(msg, helpers.GetText("plugins.mod.target-bot"))
		return false
	}
	guild, err := helpers.GetGuild(msg.GuildID)
	if err == nil && guild.OwnerID == targetID {
		helpers.SendDeny(msg, helpers.GetText("plugins.mod.target-owner"))
		return false
	}
	return true
}

func (m *Mod) auditReason(msg *discordgo.Message, reason string) string {
	auditReason := msg.Author.Username + ": " + reason
	if reason == "" {
		auditReason = msg.Author.Username + ": no reason given"
	}
	return helpers.Truncate(auditReason, 512)
}

// PurgeableMessageIDs returns the ids of $messages young enough for a bulk delete
func PurgeableMessageIDs(messages []*discordgo.Message, now time.Time) (ids []string) {
	for _, message := range messages {
		if now.Sub(message.Timestamp) >= bulkDeleteMaxAge {
			continue
		}
		ids = append(ids, message.ID)
	}
	return ids
}
