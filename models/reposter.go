package models

const (
	ReposterSettingsTable = "reposter_settings"
)

type ReposterSettings struct {
	GuildID           string
	DisabledPlatforms []string
	DeleteOriginal    bool
}

func (s ReposterSettings) PlatformEnabled(name string) bool {
	for _, disabled := range s.DisabledPlatforms {
		if disabled == name {
			return false
		}
	}
	return true
}
