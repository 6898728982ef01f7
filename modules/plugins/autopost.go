package plugins

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/bwmarrin/discordgo"
	"github.com/corona10/goimagehash"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/metrics"
	"github.com/pretend-bot/pretend/models"
	"github.com/robfig/cron/v3"
)

type AutoPost struct {
	sync.Mutex
	entryID cron.EntryID
	rng     *rand.Rand

	// held for the duration of a run
	running sync.Mutex
}

const (
	autopostDefaultSchedule = "@every 2m"
	autopostHashHistory     = 50
	autopostMaxDistance     = 5
	autopostAttempts        = 5
	autopostMaxImageSize    = 8 << 20
	autopostListingLimit    = 75
)

var autopostRedditEndpoint = "https://www.reddit.com"

// AutopostCandidate is an image post found on reddit
type AutopostCandidate struct {
	Title     string
	Permalink string
	ImageURL  string
	Subreddit string
}

func (a *AutoPost) Commands() []string {
	return []string{
		"autopfp",
		"autobanner",
	}
}

func (a *AutoPost) Init(session *discordgo.Session) {
	a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))

	schedule := helpers.ConfigString("autopost.schedule", autopostDefaultSchedule)
	entryID, err := cache.GetCron().AddFunc(schedule, a.run)
	if err != nil {
		cache.GetLogger().WithField("module", "autopost").Error("invalid autopost.schedule " + schedule + ": " + err.Error())
		return
	}
	a.entryID = entryID

	cache.GetLogger().WithField("module", "autopost").Info("Scheduled autopfp and autobanner (" + schedule + ")")
}

func (a *AutoPost) Uninit(session *discordgo.Session) {
	if a.entryID != 0 {
		cache.GetCron().Remove(a.entryID)
		a.entryID = 0
	}
}

func kindForCommand(command string) string {
	if command == "autobanner" {
		return models.AutoPostKindBanner
	}
	return models.AutoPostKindPfp
}

// AutopostCategories returns the configured category names
func AutopostCategories() []string {
	return helpers.ConfigKeys("autopost.categories")
}

func (a *AutoPost) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.GuildID == "" {
		return
	}

	kind := kindForCommand(command)
	args := strings.Fields(content)
	if len(args) < 1 {
		helpers.SendWarn(msg, helpers.GetTextF("plugins.autopost.usage", command, strings.Join(AutopostCategories(), ", ")))
		return
	}

	switch args[0] {
	case "list":
		channels, err := listAutoPostChannels(msg.GuildID)
		helpers.Relax(err)

		var lines []string
		for _, channel := range channels {
			lines = append(lines, fmt.Sprintf("<#%s> %s `%s`", channel.ChannelID, channel.Kind, channel.Category))
		}
		if len(lines) <= 0 {
			helpers.SendNeutral(msg, helpers.GetText("plugins.autopost.list-empty"))
			return
		}
		helpers.SendNeutral(msg, strings.Join(lines, "\n"))
	case "add", "set":
		if !helpers.RequirePermission(msg, "manage_channels") {
			return
		}
		if len(args) < 3 {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
			return
		}

		channel, err := helpers.GetChannelFromMention(msg.GuildID, args[1])
		if err != nil || channel.Type != discordgo.ChannelTypeGuildText {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid-channel"))
			return
		}

		category := strings.ToLower(args[2])
		if len(helpers.ConfigStringSlice("autopost.categories."+category)) <= 0 {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.autopost.unknown-category", category, strings.Join(AutopostCategories(), ", ")))
			return
		}

		err = setAutoPostChannel(models.AutoPostChannel{GuildID: msg.GuildID, ChannelID: channel.ID, Kind: kind, Category: category})
		helpers.Relax(err)

		helpers.SendApprove(msg, helpers.GetTextF("plugins.autopost.added", command, channel.ID, category))
	case "remove", "delete":
		if !helpers.RequirePermission(msg, "manage_channels") {
			return
		}
		if len(args) < 2 {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
			return
		}

		channel, err := helpers.GetChannelFromMention(msg.GuildID, args[1])
		if err != nil {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid-channel"))
			return
		}

		removed, err := removeAutoPostChannel(channel.ID, kind)
		helpers.Relax(err)
		if !removed {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.autopost.not-set", command, channel.ID))
			return
		}
		helpers.SendApprove(msg, helpers.GetTextF("plugins.autopost.removed", command, channel.ID))
	default:
		helpers.SendWarn(msg, helpers.GetTextF("plugins.autopost.usage", command, strings.Join(AutopostCategories(), ", ")))
	}
}

func (a *AutoPost) run() {
	defer helpers.Recover()

	if !a.running.TryLock() {
		cache.GetLogger().WithField("module", "autopost").Warn("previous autopost run is still in progress, skipping")
		return
	}
	defer a.running.Unlock()

	channels, err := listAllAutoPostChannels()
	helpers.Relax(err)

	for _, channel := range channels {
		_, err = helpers.GetChannel(channel.ChannelID)
		if err != nil {
			if isUnknownChannel(err) {
				cache.GetLogger().WithField("module", "autopost").Infof("removing autopost for deleted channel #%s", channel.ChannelID)
				_, err = removeAutoPostChannel(channel.ChannelID, channel.Kind)
				helpers.RelaxLog(err)
			}
			continue
		}

		err = a.post(channel)
		if err != nil {
			cache.GetLogger().WithField("module", "autopost").Warnf("autopost to #%s failed: %s", channel.ChannelID, err.Error())
		}
	}
}

func (a *AutoPost) post(channel models.AutoPostChannel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	subreddits := helpers.ConfigStringSlice("autopost.categories." + channel.Category)
	if len(subreddits) <= 0 {
		return errors.New("category " + channel.Category + " has no subreddits")
	}

	a.Lock()
	subreddit := subreddits[a.rng.Intn(len(subreddits))]
	a.Unlock()

	listing, err := helpers.GetJSON(ctx,
		fmt.Sprintf("%s/r/%s/hot.json?limit=%d", autopostRedditEndpoint, url.PathEscape(subreddit), autopostListingLimit), nil)
	if err != nil {
		return errors.Wrap(err, "fetching subreddit failed")
	}

	candidates := AutopostCandidates(listing, channel.Kind)
	if len(candidates) <= 0 {
		return errors.New("no candidates in r/" + subreddit)
	}

	history := getHashHistory(channel.ChannelID)

	a.Lock()
	a.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	a.Unlock()

	for i := 0; i < len(candidates) && i < autopostAttempts; i++ {
		candidate := candidates[i]

		data, tooLarge, err := helpers.NetGetLimited(ctx, candidate.ImageURL, autopostMaxImageSize)
		if err != nil || tooLarge {
			continue
		}
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			continue
		}
		hash, err := goimagehash.AverageHash(decoded)
		if err != nil {
			continue
		}
		if IsDuplicateHash(hash.GetHash(), history, autopostMaxDistance) {
			continue
		}

		_, err = helpers.SendEmbed(channel.ChannelID, &discordgo.MessageEmbed{
			Title:  helpers.Truncate(candidate.Title, helpers.EmbedTitleMaxLength),
			URL:    "https://www.reddit.com" + candidate.Permalink,
			Image:  &discordgo.MessageEmbedImage{URL: candidate.ImageURL},
			Color:  helpers.ColorNeutral,
			Footer: &discordgo.MessageEmbedFooter{Text: channel.Kind + " · " + channel.Category + " · r/" + candidate.Subreddit},
		})
		if err != nil {
			return err
		}

		metrics.AutopostsSent.Add(1)
		pushHashHistory(channel.ChannelID, hash.GetHash())
		return nil
	}

	return errors.New("every candidate was a duplicate or failed to load")
}

// AutopostCandidates extracts image posts of a reddit listing that fit $kind
func AutopostCandidates(listing *gabs.Container, kind string) (candidates []AutopostCandidate) {
	children, err := listing.Path("data.children").Children()
	if err != nil {
		return nil
	}

	for _, child := range children {
		post := child.Path("data")
		if over18, _ := post.Path("over_18").Data().(bool); over18 {
			continue
		}
		imageURL, _ := post.Path("url").Data().(string)
		if !isImageURL(imageURL) {
			continue
		}

		images, err := post.Path("preview.images").Children()
		if err != nil || len(images) <= 0 {
			continue
		}
		width, _ := images[0].Path("source.width").Data().(float64)
		height, _ := images[0].Path("source.height").Data().(float64)
		if !FitsAutopostKind(kind, width, height) {
			continue
		}

		title, _ := post.Path("title").Data().(string)
		permalink, _ := post.Path("permalink").Data().(string)
		subreddit, _ := post.Path("subreddit").Data().(string)
		candidates = append(candidates, AutopostCandidate{
			Title:     title,
			Permalink: permalink,
			ImageURL:  imageURL,
			Subreddit: subreddit,
		})
	}
	return candidates
}

// FitsAutopostKind checks the aspect ratio, avatars are roughly square and banners wide
func FitsAutopostKind(kind string, width, height float64) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	ratio := width / height
	if kind == models.AutoPostKindBanner {
		return ratio >= 1.6
	}
	return ratio >= 0.8 && ratio <= 1.25
}

// IsDuplicateHash reports whether $hash is within $maxDistance of any hash in $history
func IsDuplicateHash(hash uint64, history []uint64, maxDistance int) bool {
	current := goimagehash.NewImageHash(hash, goimagehash.AHash)
	for _, previous := range history {
		distance, err := current.Distance(goimagehash.NewImageHash(previous, goimagehash.AHash))
		if err == nil && distance <= maxDistance {
			return true
		}
	}
	return false
}

func isImageURL(link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	return strings.HasSuffix(path, ".jpg") || strings.HasSuffix(path, ".jpeg") || strings.HasSuffix(path, ".png")
}

func isUnknownChannel(err error) bool {
	if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeUnknownChannel
	}
	return false
}

func hashHistoryKey(channelID string) string {
	return "pretend:autopost:hashes:" + channelID
}

func getHashHistory(channelID string) (history []uint64) {
	if !cache.HasRedisClient() {
		return nil
	}

	values, err := cache.GetRedisClient().LRange(hashHistoryKey(channelID), 0, autopostHashHistory-1).Result()
	if err != nil {
		helpers.RelaxLog(err)
		return nil
	}
	for _, value := range values {
		hash, err := strconv.ParseUint(value, 10, 64)
		if err == nil {
			history = append(history, hash)
		}
	}
	return history
}

func pushHashHistory(channelID string, hash uint64) {
	if !cache.HasRedisClient() {
		return
	}

	pipe := cache.GetRedisClient().TxPipeline()
	pipe.LPush(hashHistoryKey(channelID), strconv.FormatUint(hash, 10))
	pipe.LTrim(hashHistoryKey(channelID), 0, autopostHashHistory-1)
	_, err := pipe.Exec()
	helpers.RelaxLog(err)
}

func setAutoPostChannel(channel models.AutoPostChannel) error {
	_, err := cache.GetDB().Exec(
		"INSERT INTO "+models.AutoPostTable+" (guild_id, channel_id, kind, category) VALUES ($1, $2, $3, $4) "+
			"ON CONFLICT (channel_id, kind) DO UPDATE SET category = EXCLUDED.category",
		channel.GuildID, channel.ChannelID, channel.Kind, channel.Category,
	)
	return errors.Wrap(err, "saving autopost channel failed")
}

func removeAutoPostChannel(channelID, kind string) (removed bool, err error) {
	result, err := cache.GetDB().Exec(
		"DELETE FROM "+models.AutoPostTable+" WHERE channel_id = $1 AND kind = $2", channelID, kind,
	)
	if err != nil {
		return false, errors.Wrap(err, "removing autopost channel failed")
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

func listAutoPostChannels(guildID string) ([]models.AutoPostChannel, error) {
	return queryAutoPostChannels(
		"SELECT guild_id, channel_id, kind, category FROM "+models.AutoPostTable+" WHERE guild_id = $1 ORDER BY kind, channel_id",
		guildID,
	)
}

func listAllAutoPostChannels() ([]models.AutoPostChannel, error) {
	return queryAutoPostChannels("SELECT guild_id, channel_id, kind, category FROM " + models.AutoPostTable)
}

func queryAutoPostChannels(query string, args ...interface{}) (channels []models.AutoPostChannel, err error) {
	rows, err := cache.GetDB().Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying autopost channels failed")
	}
	defer rows.Close()

	for rows.Next() {
		var channel models.AutoPostChannel
		err = rows.Scan(&channel.GuildID, &channel.ChannelID, &channel.Kind, &channel.Category)
		if err != nil {
			return nil, errors.Wrap(err, "scanning autopost channel failed")
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

func (a *AutoPost) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {

}

func (a *AutoPost) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {

}

func (a *AutoPost) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {

}
