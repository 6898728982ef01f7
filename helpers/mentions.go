package helpers

import (
	"errors"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pretend-bot/pretend/cache"
)

var errNoMention = errors.New("not a valid mention or id")

// ExtractID returns the snowflake inside a mention of the $mention kind, raw ids are accepted as well
func ExtractID(text string, mention *regexp.Regexp) (id string, ok bool) {
	text = strings.TrimSpace(text)
	if SnowflakeRegex.MatchString(text) {
		return text, true
	}
	matches := mention.FindStringSubmatch(text)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// GetUserFromMention resolves "<@id>", "<@!id>" or a raw id to a user
func GetUserFromMention(mention string) (*discordgo.User, error) {
	id, ok := ExtractID(mention, UserRegexStrict)
	if !ok {
		return nil, errNoMention
	}
	return GetUser(id)
}

// GetMemberFromMention resolves the mention to a member of $guildID
func GetMemberFromMention(guildID, mention string) (*discordgo.Member, error) {
	id, ok := ExtractID(mention, UserRegexStrict)
	if !ok {
		return nil, errNoMention
	}
	return GetGuildMember(guildID, id)
}

// GetRoleFromMention resolves "<@&id>", a raw id or a role name to a role of $guildID
func GetRoleFromMention(guildID, mention string) (*discordgo.Role, error) {
	guild, err := GetGuild(guildID)
	if err != nil {
		return nil, err
	}
	id, ok := ExtractID(mention, RoleRegexStrict)
	for _, role := range guild.Roles {
		if ok && role.ID == id {
			return role, nil
		}
		if !ok && strings.EqualFold(role.Name, strings.TrimSpace(mention)) {
			return role, nil
		}
	}
	return nil, errNoMention
}

// GetChannelFromMention resolves "<#id>" or a raw id to a channel of $guildID
func GetChannelFromMention(guildID, mention string) (*discordgo.Channel, error) {
	id, ok := ExtractID(mention, ChannelRegexStrict)
	if !ok {
		return nil, errNoMention
	}
	channel, err := GetChannel(id)
	if err != nil {
		return nil, err
	}
	if channel.GuildID != guildID {
		return nil, errNoMention
	}
	return channel, nil
}

// StripMentions replaces @mentions of the bot and resolves the others to usernames
func StripMentions(msg *discordgo.Message) string {
	content := msg.Content
	self := cache.GetSession().State.User
	if self != nil {
		content = strings.NewReplacer("<@"+self.ID+">", "", "<@!"+self.ID+">", "").Replace(content)
	}
	for _, user := range msg.Mentions {
		content = strings.NewReplacer("<@"+user.ID+">", user.Username, "<@!"+user.ID+">", user.Username).Replace(content)
	}
	return strings.TrimSpace(content)
}
