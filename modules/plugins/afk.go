package plugins

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	rediscache "github.com/go-redis/cache"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/models"
)

type Afk struct{}

const (
	afkMaxNotices    = 3
	afkReasonMaxSize = 200
	afkExpiration    = 30 * 24 * time.Hour
)

func afkKey(guildID, userID string) string {
	return "pretend:afk:" + guildID + ":" + userID
}

func (a *Afk) Commands() []string {
	return []string{
		"afk",
	}
}

func (a *Afk) Init(session *discordgo.Session) {
	if !cache.HasRedisClient() {
		cache.GetLogger().WithField("module", "afk").Warn("redis is not configured, afk is disabled")
	}
}

func (a *Afk) Uninit(session *discordgo.Session) {

}

func (a *Afk) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.GuildID == "" {
		return
	}
	if !cache.HasRedisClient() {
		helpers.SendWarn(msg, helpers.GetText("plugins.afk.disabled"))
		return
	}

	reason := strings.TrimSpace(content)
	if reason == "" {
		reason = "AFK"
	}
	reason = helpers.Truncate(reason, afkReasonMaxSize)

	err := cache.GetRedisCacheCodec().Set(&rediscache.Item{
		Key:        afkKey(msg.GuildID, msg.Author.ID),
		Object:     models.AfkEntry{Reason: reason, Since: time.Now()},
		Expiration: afkExpiration,
	})
	helpers.Relax(err)

	helpers.SendApprove(msg, helpers.GetTextF("plugins.afk.set", helpers.EscapeMarkdown(reason)))
}

func (a *Afk) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.GuildID == "" || !cache.HasRedisClient() {
		return
	}

	codec := cache.GetRedisCacheCodec()

	var own models.AfkEntry
	err := codec.Get(afkKey(msg.GuildID, msg.Author.ID), &own)
	if err == nil {
		err = codec.Delete(afkKey(msg.GuildID, msg.Author.ID))
		if err != nil && err != rediscache.ErrCacheMiss {
			helpers.RelaxLog(err)
		}
		helpers.SendNeutral(msg, helpers.GetTextF("plugins.afk.welcome-back",
			msg.Author.Mention(), humanize.RelTime(own.Since, time.Now(), "", "")))
	} else if err != rediscache.ErrCacheMiss {
		helpers.RelaxLog(err)
	}

	notices := 0
	seen := make(map[string]bool)
	for _, mentioned := range msg.Mentions {
		if notices >= afkMaxNotices {
			break
		}
		if mentioned.Bot || mentioned.ID == msg.Author.ID || seen[mentioned.ID] {
			continue
		}
		seen[mentioned.ID] = true

		var entry models.AfkEntry
		err = codec.Get(afkKey(msg.GuildID, mentioned.ID), &entry)
		if err != nil {
			if err != rediscache.ErrCacheMiss {
				helpers.RelaxLog(err)
			}
			continue
		}

		helpers.SendNeutral(msg, helpers.GetTextF("plugins.afk.is-afk",
			mentioned.Username, helpers.EscapeMarkdown(entry.Reason), humanize.Time(entry.Since)))
		notices++
	}
}

func (a *Afk) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {

}

func (a *Afk) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {

}
