package reposter

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/kennygrant/sanitize"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/metrics"
	"github.com/pretend-bot/pretend/models"
	"golang.org/x/time/rate"
)

const (
	maxUploadSize     = 25 << 20
	maxFilesPerRepost = 4
	dedupeWindow      = time.Minute
	guildRepostEvery  = 5 * time.Second
	guildRepostBurst  = 3
	fetchTimeout      = 60 * time.Second
)

var platformColors = map[string]int{
	"tiktok":    0x010101,
	"twitter":   0x1d9bf0,
	"instagram": 0xe1306c,
	"youtube":   0xff0000,
	"reddit":    0xff4500,
}

// Handler reuploads media of supported links posted in guild channels
type Handler struct {
	sync.Mutex
	platforms []Platform
	limiters  map[string]*rate.Limiter
}

func (h *Handler) Commands() []string {
	return []string{
		"reposter",
	}
}

func (h *Handler) Init(session *discordgo.Session) {
	h.Lock()
	defer h.Unlock()

	if h.platforms == nil {
		h.platforms = DefaultPlatforms()
	}
	h.limiters = make(map[string]*rate.Limiter)
}

func (h *Handler) Uninit(session *discordgo.Session) {

}

func (h *Handler) limiter(guildID string) *rate.Limiter {
	h.Lock()
	defer h.Unlock()

	if h.limiters == nil {
		h.limiters = make(map[string]*rate.Limiter)
	}
	limiter, ok := h.limiters[guildID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(guildRepostEvery), guildRepostBurst)
		h.limiters[guildID] = limiter
	}
	return limiter
}

func (h *Handler) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.GuildID == "" {
		return
	}

	settings, err := getSettings(msg.GuildID)
	helpers.Relax(err)

	args := strings.Fields(strings.ToLower(content))
	if len(args) <= 0 {
		var lines []string
		for _, name := range PlatformNames(h.platforms) {
			state := helpers.GetText("plugins.reposter.enabled")
			if !settings.PlatformEnabled(name) {
				state = helpers.GetText("plugins.reposter.disabled")
			}
			lines = append(lines, fmt.Sprintf("`%s` %s", name, state))
		}
		deleteOriginal := helpers.GetText("plugins.reposter.off")
		if settings.DeleteOriginal {
			deleteOriginal = helpers.GetText("plugins.reposter.on")
		}
		lines = append(lines, helpers.GetTextF("plugins.reposter.delete-original", deleteOriginal))

		helpers.SendNeutral(msg, strings.Join(lines, "\n"))
		return
	}

	if !helpers.RequirePermission(msg, "manage_guild") {
		return
	}
	if len(args) < 2 {
		helpers.SendWarn(msg, helpers.GetText("plugins.reposter.usage"))
		return
	}

	switch args[0] {
	case "enable", "disable":
		if platformByName(h.platforms, args[1]) == nil {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.reposter.unknown-platform", args[1], strings.Join(PlatformNames(h.platforms), ", ")))
			return
		}

		enable := args[0] == "enable"
		settings.DisabledPlatforms = togglePlatform(settings.DisabledPlatforms, args[1], enable)
		helpers.Relax(setSettings(settings))

		if enable {
			helpers.SendApprove(msg, helpers.GetTextF("plugins.reposter.platform-enabled", args[1]))
		} else {
			helpers.SendApprove(msg, helpers.GetTextF("plugins.reposter.platform-disabled", args[1]))
		}
	case "deleteoriginal":
		switch args[1] {
		case "on", "true", "yes", "enable":
			settings.DeleteOriginal = true
		case "off", "false", "no", "disable":
			settings.DeleteOriginal = false
		default:
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid"))
			return
		}
		helpers.Relax(setSettings(settings))

		helpers.SendApprove(msg, helpers.GetTextF("plugins.reposter.delete-original-saved", args[1]))
	default:
		helpers.SendWarn(msg, helpers.GetText("plugins.reposter.usage"))
	}
}

func platformByName(platforms []Platform, name string) Platform {
	for _, platform := range platforms {
		if platform.Name() == name {
			return platform
		}
	}
	return nil
}

// repostJob is a link that passed the settings, rate limit and dedupe checks
type repostJob struct {
	platform Platform
	link     string
}

func (h *Handler) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	jobs, deleteOriginal := h.collectJobs(content, msg)
	if len(jobs) <= 0 {
		return
	}

	go func() {
		defer helpers.Recover()

		h.runJobs(jobs, msg, session, deleteOriginal)
	}()
}

// collectJobs picks the links of $content that should be reposted
func (h *Handler) collectJobs(content string, msg *discordgo.Message) (jobs []repostJob, deleteOriginal bool) {
	if msg.GuildID == "" || msg.Author == nil || msg.Author.Bot {
		return nil, false
	}

	links := ExtractURLs(content, maxURLsPerMessage)
	if len(links) <= 0 {
		return nil, false
	}

	var settings *models.ReposterSettings

	for _, link := range links {
		platform := platformFor(h.platforms, link)
		if platform == nil {
			continue
		}

		if settings == nil {
			stored, err := getSettings(msg.GuildID)
			if err != nil {
				helpers.RelaxLog(err)
				return nil, false
			}
			settings = &stored
		}
		if !settings.PlatformEnabled(platform.Name()) {
			continue
		}
		if !h.limiter(msg.GuildID).Allow() {
			continue
		}
		if !claimLink(msg.ChannelID, link) {
			continue
		}

		jobs = append(jobs, repostJob{platform: platform, link: link})
	}

	if settings == nil {
		return jobs, false
	}
	return jobs, settings.DeleteOriginal
}

func (h *Handler) runJobs(jobs []repostJob, msg *discordgo.Message, session *discordgo.Session, deleteOriginal bool) {
	var reposted int
	for _, job := range jobs {
		err := h.repost(job.platform, job.link, msg, deleteOriginal)
		if err != nil {
			if errors.Cause(err) != ErrNoMedia && errors.Cause(err) != ErrUnsupported {
				cache.GetLogger().WithField("module", "reposter").Warnf("reposting %s failed: %s", job.link, err.Error())
			}
			continue
		}
		reposted++
	}

	if reposted > 0 && deleteOriginal {
		err := session.ChannelMessageDelete(msg.ChannelID, msg.ID)
		if err != nil && !helpers.IsDiscordPermissionsError(err) {
			helpers.RelaxLog(err)
		}
	}
}

func (h *Handler) repost(platform Platform, link string, msg *discordgo.Message, deleteOriginal bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	cache.GetSession().ChannelTyping(msg.ChannelID)

	media, err := platform.Fetch(ctx, link)
	if err != nil {
		return err
	}

	embed := MediaEmbed(media, msg.Author)
	send := &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{embed},
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
	}
	if !deleteOriginal {
		send.Reference = msg.Reference()
	}

	var overflow []string
	var total int64
	for i, file := range media.Files {
		if i >= maxFilesPerRepost {
			overflow = append(overflow, file.URL)
			continue
		}

		data, tooLarge, err := helpers.NetGetLimited(ctx, file.URL, maxUploadSize)
		if err != nil {
			return errors.Wrap(err, "downloading media failed")
		}
		if tooLarge || total+int64(len(data)) > maxUploadSize {
			overflow = append(overflow, file.URL)
			continue
		}
		total += int64(len(data))

		send.Files = append(send.Files, &discordgo.File{
			Name:   MediaFilename(media, i, file.Ext),
			Reader: bytes.NewReader(data),
		})
	}

	if len(send.Files) <= 0 && len(overflow) <= 0 && media.Thumbnail != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: media.Thumbnail}
	}
	if len(overflow) > 0 {
		send.Content = strings.Join(overflow, "\n")
	}

	_, err = helpers.SendComplex(msg.ChannelID, send)
	if err != nil {
		return err
	}

	metrics.RepostsSent.Add(1)
	return nil
}

// MediaEmbed describes $media, $requester is shown in the footer
func MediaEmbed(media *Media, requester *discordgo.User) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		URL:         media.URL,
		Description: helpers.Truncate(media.Title, 1024),
		Color:       platformColors[media.Platform],
	}
	if media.Author != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: media.Author, URL: media.AuthorURL}
	}

	var stats []string
	if media.Views > 0 {
		stats = append(stats, "👀 "+humanize.Comma(media.Views))
	}
	if media.Likes > 0 {
		stats = append(stats, "❤️ "+humanize.Comma(media.Likes))
	}
	if media.Comments > 0 {
		stats = append(stats, "💬 "+humanize.Comma(media.Comments))
	}
	footer := media.Platform
	if len(stats) > 0 {
		footer += " · " + strings.Join(stats, " ")
	}
	if requester != nil {
		footer += " · " + requester.Username
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}

	return embed
}

// MediaFilename builds a safe upload name for the $index file of $media
func MediaFilename(media *Media, index int, ext string) string {
	id := media.ID
	if id == "" {
		id = "media"
	}
	return sanitize.Name(fmt.Sprintf("%s-%s-%d%s", media.Platform, id, index+1, ext))
}

// claimLink reports whether $link was not reposted in $channelID within the dedupe window
func claimLink(channelID, link string) bool {
	if !cache.HasRedisClient() {
		return true
	}

	claimed, err := cache.GetRedisClient().SetNX("pretend:reposter:seen:"+channelID+":"+link, 1, dedupeWindow).Result()
	if err != nil {
		helpers.RelaxLog(err)
		return true
	}
	return claimed
}

func (h *Handler) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {

}

func (h *Handler) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {

}
