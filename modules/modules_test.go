package modules

import (
	"os"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
)

func TestMain(m *testing.M) {
	helpers.LoadTranslations()

	os.Exit(m.Run())
}

type fakePlugin struct {
	commands []string
}

func (p *fakePlugin) Commands() []string { return p.commands }

func (p *fakePlugin) Init(session *discordgo.Session) {}

func (p *fakePlugin) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
}

func TestRegisteredCommandsAreUnique(t *testing.T) {
	err := checkDuplicateCommands(PluginList, PluginExtendedList)
	if err != nil {
		t.Fatalf("modules.checkDuplicateCommands() returned an error: %s", err.Error())
	}
}

func TestCheckDuplicateCommands(t *testing.T) {
	plugins := []Plugin{
		&fakePlugin{commands: []string{"ping", "pong"}},
		&fakePlugin{commands: []string{"pong"}},
	}

	err := checkDuplicateCommands(plugins, nil)
	if err == nil || !strings.Contains(err.Error(), "'pong'") {
		t.Fatalf("modules.checkDuplicateCommands() returned %v, expected a duplicate pong error", err)
	}
}

func TestSuggestCommand(t *testing.T) {
	cache.SetPluginList([]string{"ping", "prefix", "weather"})
	defer cache.SetPluginList(nil)

	if got := SuggestCommand("wether"); got != "weather" {
		t.Fatalf("modules.SuggestCommand() returned %q, expected weather", got)
	}
	if got := SuggestCommand("pref"); got != "prefix" {
		t.Fatalf("modules.SuggestCommand() returned %q, expected prefix", got)
	}
	if got := SuggestCommand("xyz"); got != "" {
		t.Fatalf("modules.SuggestCommand() returned %q, expected nothing", got)
	}
}

func TestHelpEmbed(t *testing.T) {
	embed := HelpEmbed("?")

	if len(embed.Fields) == 0 {
		t.Fatalf("modules.HelpEmbed() returned no fields")
	}

	var reposterFound bool
	for _, field := range embed.Fields {
		if strings.Contains(field.Name, ".") || strings.HasPrefix(field.Name, "*") {
			t.Fatalf("modules.HelpEmbed() leaked a type name: %s", field.Name)
		}
		if !strings.HasPrefix(field.Value, "`?") {
			t.Fatalf("modules.HelpEmbed() field %s does not use the prefix: %s", field.Name, field.Value)
		}
		if field.Name == "Reposter" {
			reposterFound = true
		}
	}
	if !reposterFound {
		t.Fatalf("modules.HelpEmbed() is missing the reposter field")
	}
}
