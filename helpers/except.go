// Except.go: Contains functions to make handling panics less PITA

package helpers

import (
	"fmt"
	"math/rand"
	"runtime"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/pretend-bot/pretend/cache"
)

const (
	discordErrorMissingPermissions = 50013
	discordErrorMissingAccess      = 50001
)

// DEBUG_MODE sends stack traces to discord instead of short errors
var DEBUG_MODE = false

// RecoverDiscord recover()s and sends a message to discord
func RecoverDiscord(msg *discordgo.Message) {
	err := recover()
	if err != nil {
		SendError(msg, err)
	}
}

// Recover recover()s and prints the error to console
func Recover() {
	err := recover()
	if err != nil {
		cache.GetLogger().WithField("module", "except").Errorf("recovered from panic: %#v", err)

		raven.CaptureError(fmt.Errorf("%#v", err), map[string]string{})
	}
}

// SoftRelax is a softer form of Relax()
// Calls a callback instead of panicking
func SoftRelax(err error, cb Callback) {
	if err != nil {
		cb()
	}
}

// Relax is a helper to reduce if-checks if panicking is allowed
// If $err is nil this is a no-op. Panics otherwise.
func Relax(err error) {
	if err != nil {
		if DEBUG_MODE {
			if errD, ok := err.(*discordgo.RESTError); ok && errD.Message != nil {
				fmt.Println(strconv.Itoa(errD.Message.Code)+":", errD.Message.Message)
			}
		}
		panic(err)
	}
}

// RelaxLog logs $err without panicking
func RelaxLog(err error) {
	if err != nil {
		cache.GetLogger().WithField("module", "except").Error(err.Error())
		raven.CaptureError(err, map[string]string{})
	}
}

// IsDiscordPermissionsError reports if discord refused the request because we lack permissions or access
func IsDiscordPermissionsError(err error) bool {
	if errD, ok := err.(*discordgo.RESTError); ok && errD.Message != nil {
		return errD.Message.Code == discordErrorMissingPermissions || errD.Message.Code == discordErrorMissingAccess
	}
	return false
}

// RelaxEmbed does nothing if $err is nil, prints a notice if there are no permissions to embed, else sends it to Relax()
func RelaxEmbed(err error, channelID string, commandMessageID string) {
	if err == nil {
		return
	}
	if IsDiscordPermissionsError(err) {
		if channelID != "" {
			_, err = cache.GetSession().ChannelMessageSend(channelID, GetText("bot.errors.no-embed"))
			RelaxMessage(err, channelID, commandMessageID)
		}
		return
	}
	Relax(err)
}

// RelaxMessage does nothing if $err is nil or if there are no permissions to send a message, else sends it to Relax()
func RelaxMessage(err error, channelID string, commandMessageID string) {
	if err == nil {
		return
	}
	if IsDiscordPermissionsError(err) {
		if channelID != "" && commandMessageID != "" {
			reactions := []string{"🙊", "🚫", "😶"}
			cache.GetSession().MessageReactionAdd(channelID, commandMessageID, reactions[rand.Intn(len(reactions))])
		}
		return
	}
	Relax(err)
}

// SendError Takes an error and sends it to discord and sentry.io
func SendError(msg *discordgo.Message, err interface{}) {
	if msg == nil {
		raven.CaptureError(fmt.Errorf("%#v", err), map[string]string{})
		return
	}

	if DEBUG_MODE {
		buf := make([]byte, 1<<16)
		stackSize := runtime.Stack(buf, false)

		cache.GetSession().ChannelMessageSend(
			msg.ChannelID,
			"Error :frowning:\n```\n"+fmt.Sprintf("%#v\n", err)+fmt.Sprintf("%s\n", string(buf[0:stackSize]))+"\n```",
		)
	} else {
		text := fmt.Sprintf("%v", err)
		if errR, ok := err.(*discordgo.RESTError); ok && errR != nil && errR.Message != nil {
			text = errR.Message.Message
		}
		cache.GetSession().ChannelMessageSend(
			msg.ChannelID,
			GetTextF("bot.errors.general", text),
		)
	}

	username := ""
	if msg.Author != nil {
		username = msg.Author.Username
	}
	raven.SetUserContext(&raven.User{
		ID:       msg.ID,
		Username: username,
	})

	raven.CaptureError(fmt.Errorf("%#v", err), map[string]string{
		"ChannelID":       msg.ChannelID,
		"GuildID":         msg.GuildID,
		"Content":         msg.Content,
		"Timestamp":       msg.Timestamp.String(),
		"MentionEveryone": strconv.FormatBool(msg.MentionEveryone),
	})
}
