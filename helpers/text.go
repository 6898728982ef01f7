package helpers

import (
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// discord limits
const (
	MessageMaxLength         = 2000
	EmbedTitleMaxLength      = 256
	EmbedDescriptionMaxLen   = 4096
	EmbedFieldNameMaxLength  = 256
	EmbedFieldValueMaxLength = 1024
	EmbedFooterMaxLength     = 2048
	EmbedMaxFields           = 25
)

// Truncate cuts $text to $limit runes and marks the cut with an ellipsis
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	if limit == 1 {
		return string(runes[:1])
	}
	return string(runes[:limit-1]) + "…"
}

// Pagify splits $text into pages shorter than the discord message limit, preferring to cut at $delimiter
func Pagify(text string, delimiter string) (pages []string) {
	if text == "" {
		return []string{""}
	}

	for utf8.RuneCountInString(text) > MessageMaxLength {
		runes := []rune(text)
		head := string(runes[:MessageMaxLength])
		cut := strings.LastIndex(head, delimiter)
		if cut <= 0 {
			cut = len(head)
		} else {
			cut += len(delimiter)
		}
		pages = append(pages, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		pages = append(pages, text)
	}
	return pages
}

// TruncateEmbed makes sure $embed fits into discords embed limits
func TruncateEmbed(embed *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	if embed == nil {
		return nil
	}
	embed.Title = Truncate(embed.Title, EmbedTitleMaxLength)
	embed.Description = Truncate(embed.Description, EmbedDescriptionMaxLen)
	if len(embed.Fields) > EmbedMaxFields {
		embed.Fields = embed.Fields[:EmbedMaxFields]
	}
	for _, field := range embed.Fields {
		field.Name = Truncate(field.Name, EmbedFieldNameMaxLength)
		field.Value = Truncate(field.Value, EmbedFieldValueMaxLength)
		if field.Name == "" {
			field.Name = ZERO_WIDTH_SPACE
		}
		if field.Value == "" {
			field.Value = ZERO_WIDTH_SPACE
		}
	}
	if embed.Footer != nil {
		embed.Footer.Text = Truncate(embed.Footer.Text, EmbedFooterMaxLength)
	}
	return embed
}

// EscapeMarkdown escapes discord markdown control characters
func EscapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"*", `\*`,
		"_", `\_`,
		"~", `\~`,
		"`", "\\`",
		"|", `\|`,
		">", `\>`,
	)
	return replacer.Replace(text)
}
