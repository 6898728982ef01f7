package helpers

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pretend-bot/pretend/cache"
)

const (
	ColorApprove = 0xa9e97a
	ColorWarn    = 0xfac765
	ColorDeny    = 0xff6464
	ColorNeutral = 0x2b2d31

	ZERO_WIDTH_SPACE = "​"
)

// IsBotAdmin checks if $id is listed in bot.admins
func IsBotAdmin(id string) bool {
	for _, s := range ConfigStringSlice("bot.admins") {
		if s == id {
			return true
		}
	}

	return false
}

// IsBlacklisted checks if $id is listed in bot.blacklist
func IsBlacklisted(id string) bool {
	for _, s := range ConfigStringSlice("bot.blacklist") {
		if s == id {
			return true
		}
	}

	return false
}

// GetChannel returns the channel from the state, falls back to the api
func GetChannel(channelID string) (*discordgo.Channel, error) {
	session := cache.GetSession()
	channel, err := session.State.Channel(channelID)
	if err == nil {
		return channel, nil
	}
	return session.Channel(channelID)
}

// GetGuild returns the guild from the state, falls back to the api
func GetGuild(guildID string) (*discordgo.Guild, error) {
	session := cache.GetSession()
	guild, err := session.State.Guild(guildID)
	if err == nil {
		return guild, nil
	}
	return session.Guild(guildID)
}

// GetGuildMember returns the member from the state, falls back to the api and caches the result
func GetGuildMember(guildID, userID string) (*discordgo.Member, error) {
	session := cache.GetSession()
	member, err := session.State.Member(guildID, userID)
	if err == nil {
		return member, nil
	}
	member, err = session.GuildMember(guildID, userID)
	if err != nil {
		return nil, err
	}
	member.GuildID = guildID
	session.State.MemberAdd(member)
	return member, nil
}

// GetUser looks $userID up in the member cache of every guild, falls back to the api
func GetUser(userID string) (*discordgo.User, error) {
	session := cache.GetSession()

	session.State.RLock()
	guildIDs := make([]string, 0, len(session.State.Guilds))
	for _, guild := range session.State.Guilds {
		guildIDs = append(guildIDs, guild.ID)
	}
	session.State.RUnlock()

	for _, guildID := range guildIDs {
		if member, err := session.State.Member(guildID, userID); err == nil && member.User != nil {
			return member.User, nil
		}
	}
	return session.User(userID)
}

// GetDiscordColorFromHex converts "#d51007" into the integer discord embeds expect
func GetDiscordColorFromHex(hex string) int {
	colorInt, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(colorInt)
}

// noMentions keeps replies from pinging anyone but the reply target
var noMentions = &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}

func SendMessage(channelID, content string) (messages []*discordgo.Message, err error) {
	var message *discordgo.Message
	for _, page := range Pagify(content, "\n") {
		message, err = cache.GetSession().ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content:         page,
			AllowedMentions: noMentions,
		})
		if err != nil {
			return messages, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return cache.GetSession().ChannelMessageSendEmbed(channelID, TruncateEmbed(embed))
}

func SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	if data.AllowedMentions == nil {
		data.AllowedMentions = noMentions
	}
	for i := range data.Embeds {
		data.Embeds[i] = TruncateEmbed(data.Embeds[i])
	}
	return cache.GetSession().ChannelMessageSendComplex(channelID, data)
}

// SendFile uploads $data as $filename with an optional message
func SendFile(channelID, filename string, data []byte, content string) (*discordgo.Message, error) {
	return SendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Files: []*discordgo.File{
			{Name: filename, Reader: bytes.NewReader(data)},
		},
	})
}

func EditMessage(channelID, messageID, content string) (*discordgo.Message, error) {
	return cache.GetSession().ChannelMessageEdit(channelID, messageID, content)
}

// ReplyEmbed builds the one-line status embed used for command replies
func ReplyEmbed(msg *discordgo.Message, color int, emoji, text string) *discordgo.MessageEmbed {
	description := text
	if emoji != "" {
		description = emoji + " "
		if msg != nil && msg.Author != nil {
			description += msg.Author.Mention() + ": "
		}
		description += text
	}
	return &discordgo.MessageEmbed{
		Description: description,
		Color:       color,
	}
}

func sendReply(msg *discordgo.Message, color int, emoji, text string) (*discordgo.Message, error) {
	data := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{ReplyEmbed(msg, color, emoji, text)},
	}
	if msg.ID != "" {
		data.Reference = &discordgo.MessageReference{
			MessageID: msg.ID,
			ChannelID: msg.ChannelID,
			GuildID:   msg.GuildID,
		}
	}
	return SendComplex(msg.ChannelID, data)
}

// SendApprove replies with a green success embed
func SendApprove(msg *discordgo.Message, text string) {
	_, err := sendReply(msg, ColorApprove, "✅", text)
	RelaxEmbed(err, msg.ChannelID, msg.ID)
}

// SendWarn replies with a yellow embed, for bad input and missing setup
func SendWarn(msg *discordgo.Message, text string) {
	_, err := sendReply(msg, ColorWarn, "⚠️", text)
	RelaxEmbed(err, msg.ChannelID, msg.ID)
}

// SendDeny replies with a red embed, for failed permission checks
func SendDeny(msg *discordgo.Message, text string) {
	_, err := sendReply(msg, ColorDeny, "⛔", text)
	RelaxEmbed(err, msg.ChannelID, msg.ID)
}

func SendNeutral(msg *discordgo.Message, text string) {
	_, err := sendReply(msg, ColorNeutral, "", text)
	RelaxEmbed(err, msg.ChannelID, msg.ID)
}
