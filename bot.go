package main

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/metrics"
	"github.com/pretend-bot/pretend/modules"
	"github.com/pretend-bot/pretend/modules/plugins"
	"github.com/pretend-bot/pretend/ratelimits"
)

var (
	didLaunch     bool
	didLaunchLock sync.Mutex

	statusStop chan struct{}

	mentionHelpRegex      = regexp.MustCompile(`(?i)^HELP.*`)
	mentionPrefixRegex    = regexp.MustCompile(`(?i)^PREFIX.*`)
	mentionSetPrefixRegex = regexp.MustCompile(`(?i)^SET PREFIX\s+(\S{1,25})$`)
	emojiNameRegex        = regexp.MustCompile(`:\w+:`)
)

// BotOnReady gets called after the gateway connected
func BotOnReady(session *discordgo.Session, event *discordgo.Ready) {
	log := cache.GetLogger()

	log.WithField("module", "bot").Info("Connected to discord!")
	log.WithField("module", "bot").Info("Invite link: " + fmt.Sprintf(
		"https://discord.com/oauth2/authorize?client_id=%s&scope=bot&permissions=%s",
		session.State.User.ID,
		helpers.ConfigString("discord.perms", "8"),
	))

	// Cache the session
	cache.SetSession(session)

	// READY fires again after resumes failed, modules are only set up once
	didLaunchLock.Lock()
	defer didLaunchLock.Unlock()
	if didLaunch {
		return
	}
	didLaunch = true

	// Load and init all modules
	modules.Init(session)

	// Run async game-changer
	statusStop = make(chan struct{})
	go changeGameInterval(session, statusStop)

	// Run ratelimiter
	ratelimits.Container.Init()
}

// BotDestroy uninitializes everything started in BotOnReady
func BotDestroy(session *discordgo.Session) {
	didLaunchLock.Lock()
	defer didLaunchLock.Unlock()

	if !didLaunch {
		return
	}

	close(statusStop)
	ratelimits.Container.Stop()
	modules.Uninit(session)
	didLaunch = false
}

func BotOnGuildMemberAdd(session *discordgo.Session, member *discordgo.GuildMemberAdd) {
	modules.CallExtendedPluginOnGuildMemberAdd(
		member.Member,
	)
}

func BotOnGuildMemberRemove(session *discordgo.Session, member *discordgo.GuildMemberRemove) {
	modules.CallExtendedPluginOnGuildMemberRemove(
		member.Member,
	)
}

func BotOnGuildCreate(session *discordgo.Session, guild *discordgo.GuildCreate) {
	cache.GetLogger().WithField("module", "bot").Info(fmt.Sprintf("Joined Guild: %s (#%s) with %d members",
		guild.Name, guild.ID, guild.MemberCount))
	metrics.UpdateDiscordMetrics(session)
}

func BotOnGuildDelete(session *discordgo.Session, guild *discordgo.GuildDelete) {
	// unavailable guilds are outages, not removals
	if guild.Unavailable {
		return
	}
	cache.GetLogger().WithField("module", "bot").Info(fmt.Sprintf("Left Guild: #%s", guild.ID))
	metrics.UpdateDiscordMetrics(session)
}

// BotOnMessageCreate gets called after a new message was sent
// This will be called after *every* message on *every* server so it should die as soon as possible
// or spawn costly work inside of coroutines.
func BotOnMessageCreate(session *discordgo.Session, message *discordgo.MessageCreate) {
	// Ignore other bots and @everyone/@here
	if message.Author == nil || message.Author.Bot || message.MentionEveryone {
		return
	}

	if helpers.IsBlacklisted(message.Author.ID) {
		return
	}

	if message.GuildID == "" {
		go handleDirectMessage(session, message)
		return
	}

	// Check if the message contains @mentions for us
	if isMentionForBot(session, message) {
		if handleMention(session, message) {
			return
		}
	}

	modules.CallExtendedPlugin(
		message.Content,
		message.Message,
	)

	prefix := helpers.GetPrefixForServer(message.GuildID)

	// Check if the message is prefixed for us
	// If not exit
	if prefix == "" || !strings.HasPrefix(message.Content, prefix) {
		return
	}

	// Split the message into parts
	parts := strings.Fields(strings.TrimPrefix(message.Content, prefix))
	if len(parts) <= 0 {
		return
	}

	// Save a sanitized version of the command (no prefix)
	cmd := strings.ToLower(parts[0])

	isHelp := cmd == "h" || cmd == "help"
	if !isHelp && !modules.IsCommand(cmd) {
		suggestCommand(message, prefix, cmd)
		return
	}

	// Check if the user is allowed to request commands
	if !helpers.IsBotAdmin(message.Author.ID) {
		allowed, warn := ratelimits.Container.Check(message.Author.ID)
		if warn {
			_, err := helpers.SendMessage(message.ChannelID, helpers.GetTextF("bot.ratelimit.hit", message.Author.Mention()))
			helpers.RelaxLog(err)
		}
		if !allowed {
			return
		}
	}

	// Check if the user calls for help
	if isHelp {
		metrics.CommandsExecuted.Add(1)
		sendHelp(message, prefix)
		return
	}

	// Separate arguments from the command
	content := strings.TrimSpace(strings.TrimPrefix(message.Content, prefix))
	content = strings.TrimSpace(content[len(parts[0]):])

	// Log commands
	cache.GetLogger().WithField("module", "bot").Debug(fmt.Sprintf("%s (#%s) on #%s: %s",
		message.Author.Username, message.Author.ID, message.GuildID, message.Content))

	// Check if a module matches said command
	modules.CallBotPlugin(cmd, content, message.Message)
}

func isMentionForBot(session *discordgo.Session, message *discordgo.MessageCreate) bool {
	return strings.HasPrefix(message.Content, "<@") &&
		len(message.Mentions) > 0 &&
		message.Mentions[0].ID == session.State.User.ID
}

// handleMention answers "@bot help|prefix|set prefix", returns true if the message was consumed
func handleMention(session *discordgo.Session, message *discordgo.MessageCreate) bool {
	msg := stripBotMention(session, message.Content)

	switch {
	case mentionHelpRegex.MatchString(msg):
		if ratelimits.Container.Drain(1, message.Author.ID) != nil {
			return true
		}
		metrics.CommandsExecuted.Add(1)
		sendHelp(message, helpers.GetPrefixForServer(message.GuildID))
		return true

	case mentionSetPrefixRegex.MatchString(msg):
		if ratelimits.Container.Drain(1, message.Author.ID) != nil {
			return true
		}
		metrics.CommandsExecuted.Add(1)
		if !helpers.RequirePermission(message.Message, "manage_guild") {
			return true
		}

		prefix := mentionSetPrefixRegex.FindStringSubmatch(msg)[1]
		if !plugins.ValidPrefix(prefix) {
			helpers.SendWarn(message.Message, helpers.GetText("bot.arguments.invalid"))
			return true
		}

		err := helpers.SetPrefixForServer(message.GuildID, prefix)
		if err != nil {
			helpers.SendError(message.Message, err)
			return true
		}
		helpers.SendApprove(message.Message, helpers.GetTextF("bot.prefix.saved", prefix))
		return true

	case mentionPrefixRegex.MatchString(msg):
		if ratelimits.Container.Drain(1, message.Author.ID) != nil {
			return true
		}
		metrics.CommandsExecuted.Add(1)
		helpers.SendNeutral(message.Message, helpers.GetTextF("bot.prefix.is", helpers.GetPrefixForServer(message.GuildID)))
		return true
	}

	return false
}

// handleDirectMessage sends DMs to the AI chat
func handleDirectMessage(session *discordgo.Session, message *discordgo.MessageCreate) {
	defer helpers.RecoverDiscord(message.Message)

	if ratelimits.Container.Drain(1, message.Author.ID) != nil {
		return
	}

	// Mark typing
	session.ChannelTyping(message.ChannelID)

	msg := stripBotMention(session, message.Content)

	// Resolve other @mentions before sending the message
	for _, user := range message.Mentions {
		msg = strings.Replace(msg, "<@"+user.ID+">", user.Username, -1)
	}

	// Remove smileys
	msg = strings.TrimSpace(emojiNameRegex.ReplaceAllString(msg, ""))
	if msg == "" {
		return
	}

	reply, err := plugins.AIReply(message.ChannelID, msg)
	if err == plugins.ErrAINotConfigured {
		return
	}
	helpers.Relax(err)

	_, err = helpers.SendMessage(message.ChannelID, reply)
	helpers.Relax(err)
}

func stripBotMention(session *discordgo.Session, content string) string {
	content = strings.Replace(content, "<@"+session.State.User.ID+">", "", -1)
	content = strings.Replace(content, "<@!"+session.State.User.ID+">", "", -1)
	return strings.TrimSpace(content)
}

func suggestCommand(message *discordgo.MessageCreate, prefix, cmd string) {
	suggestion := modules.SuggestCommand(cmd)
	if suggestion == "" {
		return
	}
	if ratelimits.Container.Drain(1, message.Author.ID) != nil {
		return
	}
	helpers.SendWarn(message.Message, helpers.GetTextF("bot.commands.did-you-mean", prefix, suggestion))
}

func sendHelp(message *discordgo.MessageCreate, prefix string) {
	_, err := helpers.SendEmbed(message.ChannelID, modules.HelpEmbed(prefix))
	helpers.RelaxMessage(err, message.ChannelID, message.ID)
}

// Changes the game every ten minutes after called
func changeGameInterval(session *discordgo.Session, stop <-chan struct{}) {
	defer helpers.Recover()

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		status := helpers.GetText("bot.status")
		if strings.Contains(status, "%d") {
			session.State.RLock()
			status = fmt.Sprintf(status, len(session.State.Guilds))
			session.State.RUnlock()
		}

		err := session.UpdateGameStatus(0, status)
		if err != nil {
			raven.CaptureError(err, map[string]string{})
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
