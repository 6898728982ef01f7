package models

const (
	AutoPostTable = "autoposts"

	AutoPostKindPfp    = "pfp"
	AutoPostKindBanner = "banner"
)

// AutoPostChannel is a channel that periodically receives pictures of $Category
type AutoPostChannel struct {
	GuildID   string
	ChannelID string
	Kind      string
	Category  string
}
