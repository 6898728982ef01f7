package plugins

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pretend-bot/pretend/helpers"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Color struct{}

func (c *Color) Commands() []string {
	return []string{
		"color",
		"colour",
	}
}

const (
	PicSize = 200
)

func (c *Color) Init(session *discordgo.Session) {

}

func (c *Color) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	session.ChannelTyping(msg.ChannelID)

	content = strings.TrimSpace(content)
	if content == "" {
		helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
		return
	}

	var color colorful.Color
	var err error
	if member, memberErr := helpers.GetMemberFromMention(msg.GuildID, strings.Fields(content)[0]); msg.GuildID != "" && memberErr == nil {
		color, err = memberColor(msg.GuildID, member)
		if err != nil {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.color.no-role-color", member.User.Username))
			return
		}
	} else {
		color, err = helpers.ParseColor(content)
		if err != nil {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.color.unknown", content))
			return
		}
	}

	pngBytes, err := helpers.ColorSwatchPNG(color, PicSize)
	helpers.Relax(err)

	name, _ := helpers.NearestColorName(color)
	r, g, b := color.Clamped().RGB255()
	h, s, l := color.Hsl()
	hex := color.Clamped().Hex()
	fileName := strings.TrimPrefix(hex, "#") + ".png"

	_, err = helpers.SendComplex(
		msg.ChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{{
				Title: cases.Title(language.English).String(name),
				Color: helpers.ColorToDiscord(color),
				Fields: []*discordgo.MessageEmbedField{
					{Name: "Hex", Value: "`" + hex + "`", Inline: true},
					{Name: "RGB", Value: fmt.Sprintf("`%d, %d, %d`", r, g, b), Inline: true},
					{Name: "HSL", Value: fmt.Sprintf("`%.0f°, %.0f%%, %.0f%%`", math.Round(h), s*100, l*100), Inline: true},
				},
				Thumbnail: &discordgo.MessageEmbedThumbnail{URL: "attachment://" + fileName},
			}},
			Files: []*discordgo.File{
				{
					Name:        fileName,
					ContentType: "image/png",
					Reader:      bytes.NewReader(pngBytes),
				},
			},
		})
	helpers.RelaxEmbed(err, msg.ChannelID, msg.ID)
}

// memberColor returns the color of the highest colored role of $member
func memberColor(guildID string, member *discordgo.Member) (colorful.Color, error) {
	guild, err := helpers.GetGuild(guildID)
	if err != nil {
		return colorful.Color{}, err
	}

	color, ok := TopRoleColor(guild.Roles, member.Roles)
	if !ok {
		return colorful.Color{}, fmt.Errorf("member has no colored role")
	}
	return colorful.Hex(fmt.Sprintf("#%06x", color))
}

// TopRoleColor picks the color of the highest positioned colored role out of $memberRoles
func TopRoleColor(guildRoles []*discordgo.Role, memberRoles []string) (color int, ok bool) {
	has := make(map[string]bool, len(memberRoles))
	for _, roleID := range memberRoles {
		has[roleID] = true
	}

	position := -1
	for _, role := range guildRoles {
		if !has[role.ID] || role.Color == 0 {
			continue
		}
		if role.Position > position {
			position = role.Position
			color = role.Color
			ok = true
		}
	}
	return color, ok
}
