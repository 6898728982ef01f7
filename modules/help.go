package modules

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pretend-bot/pretend/helpers"
)

// HelpEmbed lists every module with its commands
func HelpEmbed(prefix string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetText("bot.help.title"),
		Description: helpers.GetTextF("bot.help.description", prefix),
		Color:       helpers.ColorNeutral,
	}

	addField := func(module interface{}, commands []string) {
		name := strings.TrimPrefix(helpers.Typeof(module), "*")
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if name == "Handler" {
			name = "Reposter"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   name,
			Value:  "`" + prefix + strings.Join(commands, "` `"+prefix) + "`",
			Inline: true,
		})
	}

	for _, plugin := range PluginList {
		addField(plugin, plugin.Commands())
	}
	for _, plugin := range PluginExtendedList {
		if len(plugin.Commands()) <= 0 {
			continue
		}
		addField(plugin, plugin.Commands())
	}

	return helpers.TruncateEmbed(embed)
}
