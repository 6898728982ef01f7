package plugins

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Seklfreak/lastfm-go/lastfm"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	rediscache "github.com/go-redis/cache"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
)

type LastFm struct{}

const (
	lastfmHexColor     string = "#d51007"
	lastfmFriendlyUser string = "https://www.last.fm/user/%s"

	lastfmNowPlayingCacheTTL = 30 * time.Second
	lastfmTopLimit           = 10
	lastfmCollageTileSize    = 300
	lastfmCommandTimeout     = 45 * time.Second
)

// lastfmPeriods maps user input to last.fm period names
var lastfmPeriods = map[string]string{
	"overall": "overall", "all": "overall", "alltime": "overall",
	"7day": "7day", "7days": "7day", "week": "7day", "w": "7day", "7d": "7day",
	"1month": "1month", "month": "1month", "m": "1month", "1m": "1month", "30d": "1month",
	"3month": "3month", "3months": "3month", "3m": "3month", "quarter": "3month",
	"6month": "6month", "6months": "6month", "6m": "6month", "half": "6month",
	"12month": "12month", "12months": "12month", "year": "12month", "y": "12month", "12m": "12month",
}

var lastfmCollageSizeRegex = regexp.MustCompile(`^(\d{1,2})(?:x(\d{1,2}))?$`)

var lastfmPeriodNames = map[string]string{
	"overall": "all time",
	"7day":    "the last week",
	"1month":  "the last month",
	"3month":  "the last 3 months",
	"6month":  "the last 6 months",
	"12month": "the last year",
}

// LastFmNowPlaying is the cached result of a now playing lookup
type LastFmNowPlaying struct {
	Username   string
	Track      string
	Artist     string
	Album      string
	Url        string
	ImageUrl   string
	NowPlaying bool
}

// ParseLastFmPeriod resolves period aliases, ok is false for unknown input
func ParseLastFmPeriod(input string) (period string, ok bool) {
	period, ok = lastfmPeriods[strings.ToLower(input)]
	return period, ok
}

func (m *LastFm) Commands() []string {
	return []string{
		"lastfm",
		"lf",
		"fm",
		"np",
	}
}

func (m *LastFm) Init(session *discordgo.Session) {
	helpers.GetLastFmClient()
}

func (m *LastFm) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	args := strings.Fields(content)

	subCommand := "np"
	if command != "np" && len(args) >= 1 {
		subCommand = strings.ToLower(args[0])
		args = args[1:]
	}

	ctx, cancel := context.WithTimeout(context.Background(), lastfmCommandTimeout)
	defer cancel()

	switch subCommand {
	case "set", "login":
		if len(args) < 1 {
			helpers.SendWarn(msg, helpers.GetText("plugins.lastfm.set-usage"))
			return
		}
		username := args[0]

		session.ChannelTyping(msg.ChannelID)
		var info lastfm.UserGetInfo
		err := helpers.LastFmDo(ctx, func() (err error) {
			info, err = helpers.GetLastFmClient().User.GetInfo(lastfm.P{"user": username})
			return err
		})
		if m.handleError(ctx, msg, err) {
			return
		}

		err = helpers.SetLastFmUsername(msg.Author.ID, info.Name)
		helpers.Relax(err)

		helpers.SendApprove(msg, helpers.GetTextF("plugins.lastfm.set-username-success", info.Name))
	case "unset", "logout", "remove":
		removed, err := helpers.UnsetLastFmUsername(msg.Author.ID)
		helpers.Relax(err)
		if !removed {
			helpers.SendWarn(msg, helpers.GetText("plugins.lastfm.not-set"))
			return
		}
		helpers.SendApprove(msg, helpers.GetText("plugins.lastfm.unset-success"))
	case "np", "nowplaying", "now":
		username, ok := m.resolveUsername(msg, args)
		if !ok {
			return
		}
		session.ChannelTyping(msg.ChannelID)

		nowPlaying, err := m.getNowPlaying(ctx, username)
		if m.handleError(ctx, msg, err) {
			return
		}
		if nowPlaying.Track == "" {
			helpers.SendWarn(msg, helpers.GetText("plugins.lastfm.no-recent-tracks"))
			return
		}

		title := helpers.GetTextF("plugins.lastfm.lasttrack-embed-title-last", username)
		if nowPlaying.NowPlaying {
			title = helpers.GetTextF("plugins.lastfm.lasttrack-embed-title-np", username)
		}
		embed := &discordgo.MessageEmbed{
			Title:       title,
			URL:         nowPlaying.Url,
			Description: fmt.Sprintf("**%s** by **%s**", helpers.EscapeMarkdown(nowPlaying.Track), helpers.EscapeMarkdown(nowPlaying.Artist)),
			Footer:      &discordgo.MessageEmbedFooter{Text: helpers.GetText("plugins.lastfm.embed-footer")},
			Color:       helpers.GetDiscordColorFromHex(lastfmHexColor),
		}
		if nowPlaying.Album != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Album", Value: nowPlaying.Album, Inline: true})
		}
		if nowPlaying.ImageUrl != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: nowPlaying.ImageUrl}
		}
		_, err = helpers.SendEmbed(msg.ChannelID, helpers.TruncateEmbed(embed))
		helpers.RelaxEmbed(err, msg.ChannelID, msg.ID)
	case "topartists", "topartist", "ta":
		m.top(ctx, msg, args, "artists")
	case "toptracks", "toptrack", "tt":
		m.top(ctx, msg, args, "tracks")
	case "topalbums", "topalbum", "tab":
		m.top(ctx, msg, args, "albums")
	case "collage", "chart":
		m.collage(ctx, msg, args)
	case "profile", "info", "user":
		m.profile(ctx, msg, args)
	default:
		// [p]lastfm <username|@user> shows the profile
		m.profile(ctx, msg, append([]string{subCommand}, args...))
	}
}

// resolveUsername finds the last.fm account for the first user or username argument, the author otherwise
func (m *LastFm) resolveUsername(msg *discordgo.Message, args []string) (username string, ok bool) {
	for _, arg := range args {
		if _, isPeriod := ParseLastFmPeriod(arg); isPeriod {
			continue
		}
		if _, isSize := ParseCollageSize(arg); isSize {
			continue
		}
		targetUser, err := helpers.GetUserFromMention(arg)
		if err != nil {
			return arg, true
		}
		username = helpers.GetLastFmUsername(targetUser.ID)
		if username == "" {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.lastfm.not-set-other", targetUser.Username))
			return "", false
		}
		return username, true
	}

	username = helpers.GetLastFmUsername(msg.Author.ID)
	if username == "" {
		helpers.SendWarn(msg, helpers.GetText("plugins.lastfm.too-few"))
		return "", false
	}
	return username, true
}

// ParseCollageSize accepts "4" and "4x4", ok is false for anything else
func ParseCollageSize(input string) (size int, ok bool) {
	parts := lastfmCollageSizeRegex.FindStringSubmatch(strings.ToLower(input))
	if parts == nil {
		return 0, false
	}
	if parts[2] != "" && parts[2] != parts[1] {
		return 0, false
	}
	size, err := strconv.Atoi(parts[1])
	return size, err == nil
}

func periodFromArgs(args []string) string {
	for _, arg := range args {
		if period, ok := ParseLastFmPeriod(arg); ok {
			return period
		}
	}
	return "overall"
}

func (m *LastFm) getNowPlaying(ctx context.Context, username string) (nowPlaying LastFmNowPlaying, err error) {
	fetch := func() (interface{}, error) {
		var recentTracks lastfm.UserGetRecentTracks
		err := helpers.LastFmDo(ctx, func() (err error) {
			recentTracks, err = helpers.GetLastFmClient().User.GetRecentTracks(lastfm.P{
				"limit": 1,
				"user":  username,
			})
			return err
		})
		if err != nil {
			return LastFmNowPlaying{}, err
		}

		result := LastFmNowPlaying{Username: username}
		if len(recentTracks.Tracks) <= 0 {
			return result, nil
		}
		track := recentTracks.Tracks[0]
		result.Track = track.Name
		result.Artist = track.Artist.Name
		result.Album = track.Album.Name
		result.Url = track.Url
		result.NowPlaying = track.NowPlaying != ""
		for _, image := range track.Images {
			if image.Size == "large" || image.Size == "extralarge" {
				result.ImageUrl = image.Url
			}
		}
		return result, nil
	}

	if !cache.HasRedisClient() {
		result, err := fetch()
		return result.(LastFmNowPlaying), err
	}

	err = cache.GetRedisCacheCodec().Once(&rediscache.Item{
		Key:        "pretend:lastfm:np:" + strings.ToLower(username),
		Object:     &nowPlaying,
		Expiration: lastfmNowPlayingCacheTTL,
		Func:       fetch,
	})
	return nowPlaying, err
}

func (m *LastFm) top(ctx context.Context, msg *discordgo.Message, args []string, kind string) {
	username, ok := m.resolveUsername(msg, args)
	if !ok {
		return
	}
	period := periodFromArgs(args)
	params := lastfm.P{
		"limit":  lastfmTopLimit,
		"period": period,
		"user":   username,
	}

	cache.GetSession().ChannelTyping(msg.ChannelID)

	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetTextF("plugins.lastfm.top"+kind+"-embed-title", username),
		URL:         fmt.Sprintf(lastfmFriendlyUser, username),
		Description: "of **" + lastfmPeriodNames[period] + "**",
		Footer:      &discordgo.MessageEmbedFooter{Text: helpers.GetText("plugins.lastfm.embed-footer")},
		Color:       helpers.GetDiscordColorFromHex(lastfmHexColor),
	}

	client := helpers.GetLastFmClient()
	var lines []string
	var err error
	switch kind {
	case "artists":
		var result lastfm.UserGetTopArtists
		err = helpers.LastFmDo(ctx, func() (err error) {
			result, err = client.User.GetTopArtists(params)
			return err
		})
		for _, artist := range result.Artists {
			lines = append(lines, fmt.Sprintf("`#%s` **%s** (%s plays)",
				artist.Rank, helpers.EscapeMarkdown(artist.Name), formatPlays(artist.PlayCount)))
		}
	case "tracks":
		var result lastfm.UserGetTopTracks
		err = helpers.LastFmDo(ctx, func() (err error) {
			result, err = client.User.GetTopTracks(params)
			return err
		})
		for _, track := range result.Tracks {
			lines = append(lines, fmt.Sprintf("`#%s` **%s** by **%s** (%s plays)",
				track.Rank, helpers.EscapeMarkdown(track.Name), helpers.EscapeMarkdown(track.Artist.Name), formatPlays(track.PlayCount)))
		}
	case "albums":
		var result lastfm.UserGetTopAlbums
		err = helpers.LastFmDo(ctx, func() (err error) {
			result, err = client.User.GetTopAlbums(params)
			return err
		})
		for _, album := range result.Albums {
			lines = append(lines, fmt.Sprintf("`#%s` **%s** by **%s** (%s plays)",
				album.Rank, helpers.EscapeMarkdown(album.Name), helpers.EscapeMarkdown(album.Artist.Name), formatPlays(album.PlayCount)))
		}
	}
	if m.handleError(ctx, msg, err) {
		return
	}
	if len(lines) <= 0 {
		helpers.SendWarn(msg, helpers.GetText("plugins.lastfm.no-recent-tracks"))
		return
	}

	embed.Description += "\n\n" + strings.Join(lines, "\n")
	_, err = helpers.SendEmbed(msg.ChannelID, helpers.TruncateEmbed(embed))
	helpers.RelaxEmbed(err, msg.ChannelID, msg.ID)
}

func (m *LastFm) collage(ctx context.Context, msg *discordgo.Message, args []string) {
	username, ok := m.resolveUsername(msg, args)
	if !ok {
		return
	}
	period := periodFromArgs(args)

	size := 3
	for _, arg := range args {
		parsed, ok := ParseCollageSize(arg)
		if !ok {
			continue
		}
		if parsed < 3 || parsed > 5 {
			helpers.SendWarn(msg, helpers.GetText("plugins.lastfm.collage-size"))
			return
		}
		size = parsed
	}

	cache.GetSession().ChannelTyping(msg.ChannelID)

	var topAlbums lastfm.UserGetTopAlbums
	err := helpers.LastFmDo(ctx, func() (err error) {
		topAlbums, err = helpers.GetLastFmClient().User.GetTopAlbums(lastfm.P{
			"limit":  size * size,
			"period": period,
			"user":   username,
		})
		return err
	})
	if m.handleError(ctx, msg, err) {
		return
	}
	if len(topAlbums.Albums) <= 0 {
		helpers.SendWarn(msg, helpers.GetText("plugins.lastfm.no-recent-tracks"))
		return
	}

	imageUrls := make([]string, 0, size*size)
	for _, album := range topAlbums.Albums {
		imageUrl := ""
		for _, image := range album.Images {
			if image.Size == "extralarge" || (imageUrl == "" && image.Size == "large") {
				imageUrl = image.Url
			}
		}
		imageUrls = append(imageUrls, imageUrl)
	}

	collageBytes, err := helpers.CollageFromUrls(
		ctx,
		imageUrls,
		size*lastfmCollageTileSize,
		size*lastfmCollageTileSize,
		lastfmCollageTileSize,
		lastfmCollageTileSize,
		"#000000",
	)
	helpers.Relax(err)

	_, err = helpers.SendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content: helpers.GetTextF("plugins.lastfm.collage-title", username, size, size, lastfmPeriodNames[period]),
		Files: []*discordgo.File{{
			Name:        fmt.Sprintf("%s-%dx%d-%s.jpg", username, size, size, period),
			ContentType: "image/jpeg",
			Reader:      bytes.NewReader(collageBytes),
		}},
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
}

func (m *LastFm) profile(ctx context.Context, msg *discordgo.Message, args []string) {
	username, ok := m.resolveUsername(msg, args)
	if !ok {
		return
	}

	cache.GetSession().ChannelTyping(msg.ChannelID)

	var lastfmUser lastfm.UserGetInfo
	err := helpers.LastFmDo(ctx, func() (err error) {
		lastfmUser, err = helpers.GetLastFmClient().User.GetInfo(lastfm.P{"user": username})
		return err
	})
	if m.handleError(ctx, msg, err) {
		return
	}

	embedTitle := helpers.GetTextF("plugins.lastfm.profile-embed-title", lastfmUser.Name)
	if lastfmUser.RealName != "" {
		embedTitle = helpers.GetTextF("plugins.lastfm.profile-embed-title-realname", lastfmUser.RealName, lastfmUser.Name)
	}
	accountEmbed := &discordgo.MessageEmbed{
		Title:  embedTitle,
		URL:    lastfmUser.Url,
		Footer: &discordgo.MessageEmbedFooter{Text: helpers.GetText("plugins.lastfm.embed-footer")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Scrobbles", Value: formatPlays(lastfmUser.PlayCount), Inline: true}},
		Color: helpers.GetDiscordColorFromHex(lastfmHexColor),
	}
	for _, image := range lastfmUser.Images {
		if image.Size == "large" {
			accountEmbed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: image.Url}
		}
	}
	if lastfmUser.Country != "" && lastfmUser.Country != "None" {
		accountEmbed.Fields = append(accountEmbed.Fields, &discordgo.MessageEmbedField{Name: "Country", Value: lastfmUser.Country, Inline: true})
	}
	if lastfmUser.Registered.Unixtime != "" {
		timeI, err := strconv.ParseInt(lastfmUser.Registered.Unixtime, 10, 64)
		if err == nil {
			accountEmbed.Fields = append(accountEmbed.Fields, &discordgo.MessageEmbedField{
				Name: "Account Creation", Value: humanize.Time(time.Unix(timeI, 0)), Inline: true})
		}
	}

	_, err = helpers.SendEmbed(msg.ChannelID, accountEmbed)
	helpers.RelaxEmbed(err, msg.ChannelID, msg.ID)
}

// handleError replies to user facing last.fm errors, everything else panics
func (m *LastFm) handleError(ctx context.Context, msg *discordgo.Message, err error) (handled bool) {
	if err == nil {
		return false
	}
	switch helpers.LastFmErrorCode(err) {
	case 0:
		if ctx.Err() != nil {
			helpers.SendWarn(msg, helpers.GetText("plugins.lastfm.timeout"))
			return true
		}
		helpers.Relax(err)
	case 6:
		helpers.SendWarn(msg, helpers.GetText("plugins.lastfm.user-not-found"))
	case 17:
		helpers.SendWarn(msg, helpers.GetText("plugins.lastfm.user-private"))
	default:
		helpers.SendWarn(msg, helpers.GetTextF("plugins.lastfm.api-error", errors.Cause(err).(*lastfm.LastfmError).Message))
	}
	return true
}

func formatPlays(playCount string) string {
	plays, err := strconv.ParseInt(playCount, 10, 64)
	if err != nil {
		return playCount
	}
	return humanize.Comma(plays)
}
