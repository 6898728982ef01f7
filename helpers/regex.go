package helpers

import "regexp"

var (
	// UserRegexStrict matches Discord User Mentions
	UserRegexStrict = regexp.MustCompile(`^<@!?(\d+)>$`)

	// RoleRegexStrict matches Discord Role Mentions
	RoleRegexStrict = regexp.MustCompile(`^<@&(\d+)>$`)

	// ChannelRegexStrict matches Discord Channel Mentions
	ChannelRegexStrict = regexp.MustCompile(`^<#(\d+)>$`)

	// SnowflakeRegex matches a raw discord id
	SnowflakeRegex = regexp.MustCompile(`^\d{15,21}$`)

	// MentionRegex matches user, role and channel mentions anywhere in a text
	MentionRegex = regexp.MustCompile(`<(?:@[!&]?|#)\d+>`)

	// EmojiRegex matches custom Discord Emoji
	EmojiRegex = regexp.MustCompile(`<a?:\w+:\d+>`)
)
