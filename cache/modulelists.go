package cache

import "sync"

var (
	pluginList      []string
	pluginListMutex sync.RWMutex
)

// SetPluginList stores every command name the module registry knows about
func SetPluginList(commands []string) {
	pluginListMutex.Lock()
	pluginList = commands
	pluginListMutex.Unlock()
}

func GetPluginList() []string {
	pluginListMutex.RLock()
	defer pluginListMutex.RUnlock()

	return pluginList
}
