package modules

import (
	"github.com/pretend-bot/pretend/modules/plugins"
	"github.com/pretend-bot/pretend/modules/plugins/reposter"
)

var (
	pluginCache         map[string]*Plugin
	extendedPluginCache map[string]*ExtendedPlugin

	PluginList = []Plugin{
		&plugins.About{},
		&plugins.Ping{},
		&plugins.Prefix{},
		&plugins.FakePerms{},
		&plugins.Mod{},
		&plugins.UID{},
		&plugins.Uwu{},
		&plugins.Color{},
		&plugins.LastFm{},
		&plugins.Weather{},
		&plugins.Translator{},
		&plugins.AI{},
	}

	PluginExtendedList = []ExtendedPlugin{
		&plugins.Jail{},
		&plugins.Afk{},
		&plugins.AutoPost{},
		&plugins.Reminders{},
		&reposter.Handler{},
	}
)
