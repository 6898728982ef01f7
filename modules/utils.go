package modules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/metrics"
	"github.com/pretend-bot/pretend/ratelimits"
)

// Init warms the caches and initializes the plugins
func Init(session *discordgo.Session) {
	err := checkDuplicateCommands(PluginList, PluginExtendedList)
	if err != nil {
		panic(err)
	}

	pluginCache = make(map[string]*Plugin)
	extendedPluginCache = make(map[string]*ExtendedPlugin)

	logTemplate := "[PLUG] %s reacts to [ %s]"

	for i := range PluginList {
		ref := &PluginList[i]

		for _, cmd := range (*ref).Commands() {
			pluginCache[cmd] = ref
		}

		cache.GetLogger().WithField("module", "modules").Info(fmt.Sprintf(
			logTemplate,
			helpers.Typeof(*ref),
			strings.Join((*ref).Commands(), " ")+" ",
		))

		(*ref).Init(session)
	}

	logTemplate = "[EXTENDED-PLUG] %s reacts to [ %s]"
	for i := range PluginExtendedList {
		ref := &PluginExtendedList[i]

		for _, cmd := range (*ref).Commands() {
			extendedPluginCache[cmd] = ref
		}

		cache.GetLogger().WithField("module", "modules").Info(fmt.Sprintf(
			logTemplate,
			helpers.Typeof(*ref),
			strings.Join((*ref).Commands(), " ")+" ",
		))

		(*ref).Init(session)
	}

	cache.SetPluginList(Commands())

	cache.GetLogger().WithField("module", "modules").Info(
		"Initializer finished. Loaded " + strconv.Itoa(len(PluginList)) + " plugins and " +
			strconv.Itoa(len(PluginExtendedList)) + " extended plugins",
	)
}

// Uninit deintializes the extended plugins
func Uninit(session *discordgo.Session) {
	logTemplate := "[EXTENDED-PLUG] %s deintializing…"
	for _, extendedPlugin := range PluginExtendedList {
		cache.GetLogger().WithField("module", "modules").Info(fmt.Sprintf(
			logTemplate,
			helpers.Typeof(extendedPlugin),
		))

		extendedPlugin.Uninit(session)
	}

	cache.GetLogger().WithField("module", "modules").Info(
		"Uninit finished. Unitialized " + strconv.Itoa(len(PluginExtendedList)) + " extended plugins",
	)
}

// Commands returns every registered command in alphabetical order
func Commands() (commands []string) {
	for command := range pluginCache {
		commands = append(commands, command)
	}
	for command := range extendedPluginCache {
		commands = append(commands, command)
	}
	sort.Strings(commands)
	return commands
}

// IsCommand reports whether a module reacts to $command
func IsCommand(command string) bool {
	if _, ok := pluginCache[command]; ok {
		return true
	}
	_, ok := extendedPluginCache[command]
	return ok
}

// SuggestCommand returns the registered command closest to $command, or an empty string
func SuggestCommand(command string) string {
	ranks := fuzzy.RankFindFold(command, cache.GetPluginList())
	if len(ranks) <= 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// command - The command that triggered this execution
// content - The content without command
// msg     - The message object
func CallBotPlugin(command string, content string, msg *discordgo.Message) {
	// Defer a recovery in case anything panics
	defer helpers.RecoverDiscord(msg)

	// Consume a key for this action
	ratelimits.Container.Drain(1, msg.Author.ID)

	// Track metrics
	metrics.CommandsExecuted.Add(1)

	// Call the module
	if ref, ok := pluginCache[command]; ok {
		(*ref).Action(command, content, msg, cache.GetSession())
	}
	// call the extended module
	if ref, ok := extendedPluginCache[command]; ok {
		(*ref).Action(command, content, msg, cache.GetSession())
	}
}

func CallExtendedPlugin(content string, msg *discordgo.Message) {
	for _, extendedPlugin := range PluginExtendedList {
		safeExtendedCall(func() {
			extendedPlugin.OnMessage(strings.TrimSpace(content), msg, cache.GetSession())
		})
	}
}

func CallExtendedPluginOnGuildMemberAdd(member *discordgo.Member) {
	// Iterate over all plugins
	for _, extendedPlugin := range PluginExtendedList {
		safeExtendedCall(func() {
			extendedPlugin.OnGuildMemberAdd(member, cache.GetSession())
		})
	}
}

func CallExtendedPluginOnGuildMemberRemove(member *discordgo.Member) {
	// Iterate over all plugins
	for _, extendedPlugin := range PluginExtendedList {
		safeExtendedCall(func() {
			extendedPlugin.OnGuildMemberRemove(member, cache.GetSession())
		})
	}
}

// a panicking plugin must not keep the others from seeing the event
func safeExtendedCall(call func()) {
	defer helpers.Recover()
	call()
}

func checkDuplicateCommands(plugins []Plugin, extendedPlugins []ExtendedPlugin) error {
	cmds := make(map[string]string)

	register := func(t string, commands []string) error {
		for _, cmd := range commands {
			if occupant, ok := cmds[cmd]; ok {
				return errors.New("Failed to load " + t + " because '" + cmd + "' was already registered by " + occupant)
			}
			cmds[cmd] = t
		}
		return nil
	}

	for _, plug := range plugins {
		err := register(helpers.Typeof(plug), plug.Commands())
		if err != nil {
			return err
		}
	}
	for _, plug := range extendedPlugins {
		err := register(helpers.Typeof(plug), plug.Commands())
		if err != nil {
			return err
		}
	}
	return nil
}
