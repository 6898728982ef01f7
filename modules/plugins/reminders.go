package plugins

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/models"
)

type Reminders struct {
	parser *when.Parser

	stop chan struct{}
	wg   sync.WaitGroup
}

const (
	remindersInterval   = 5 * time.Second
	remindersBatchSize  = 100
	remindersMaxPending = 25
)

func (r *Reminders) Commands() []string {
	return []string{
		"remind",
		"remindme",
		"rm",
		"reminders",
		"rms",
	}
}

// NewReminderParser returns a natural language time parser for english input
func NewReminderParser() *when.Parser {
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)
	return parser
}

// ParseReminder splits $content into the time it refers to and the remaining message
func ParseReminder(parser *when.Parser, content string, now time.Time) (remindAt time.Time, message string, err error) {
	result, err := parser.Parse(content, now)
	if err != nil {
		return remindAt, "", err
	}
	if result == nil {
		return remindAt, "", errors.New("no time found")
	}

	message = strings.TrimSpace(content[:result.Index] + content[result.Index+len(result.Text):])
	message = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(message, "to "), "about "))

	return result.Time, message, nil
}

func (r *Reminders) Init(session *discordgo.Session) {
	r.parser = NewReminderParser()
	r.stop = make(chan struct{})

	r.wg.Add(1)
	go r.loop(session)

	cache.GetLogger().WithField("module", "reminders").Info("Started reminder loop (5s)")
}

func (r *Reminders) Uninit(session *discordgo.Session) {
	if r.stop == nil {
		return
	}
	close(r.stop)
	r.wg.Wait()
	r.stop = nil
}

func (r *Reminders) loop(session *discordgo.Session) {
	defer r.wg.Done()

	ticker := time.NewTicker(remindersInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sendDueReminders(session)
		}
	}
}

func (r *Reminders) sendDueReminders(session *discordgo.Session) {
	defer helpers.Recover()

	reminders, err := getDueReminders(time.Now(), remindersBatchSize)
	helpers.Relax(err)

	for _, reminder := range reminders {
		dmChannel, err := session.UserChannelCreate(reminder.UserID)
		if err == nil {
			content := helpers.GetTextF("plugins.reminders.message", helpers.ZERO_WIDTH_SPACE+reminder.Message)
			if reminder.Message == "" {
				content = helpers.GetText("plugins.reminders.message-empty")
			}
			_, err = helpers.SendMessage(dmChannel.ID, content)
		}
		if err != nil {
			cache.GetLogger().WithField("module", "reminders").Warnf("sending reminder #%d to %s failed: %s",
				reminder.ID, reminder.UserID, err.Error())
		}

		// undeliverable reminders are dropped as well, closed DMs would retry forever
		_, err = deleteReminder(reminder.ID, reminder.UserID)
		helpers.Relax(err)
	}
}

func (r *Reminders) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	switch command {
	case "rm", "remind", "remindme":
		remindAt, message, err := ParseReminder(r.parser, content, time.Now())
		if err != nil || !remindAt.After(time.Now()) {
			helpers.SendWarn(msg, helpers.GetText("plugins.reminders.format"))
			return
		}

		pending, err := listReminders(msg.Author.ID)
		helpers.Relax(err)
		if len(pending) >= remindersMaxPending {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.reminders.too-many", remindersMaxPending))
			return
		}

		_, err = addReminder(models.Reminder{
			UserID:    msg.Author.ID,
			ChannelID: msg.ChannelID,
			GuildID:   msg.GuildID,
			Message:   message,
			RemindAt:  remindAt,
		})
		helpers.Relax(err)

		helpers.SendApprove(msg, helpers.GetTextF("plugins.reminders.set", humanize.Time(remindAt)))
	case "rms", "reminders":
		args := strings.Fields(content)
		if len(args) >= 2 && (args[0] == "remove" || args[0] == "delete") {
			id, err := strconv.ParseInt(strings.TrimPrefix(args[1], "#"), 10, 64)
			if err != nil {
				helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid"))
				return
			}
			removed, err := deleteReminder(id, msg.Author.ID)
			helpers.Relax(err)
			if !removed {
				helpers.SendWarn(msg, helpers.GetTextF("plugins.reminders.not-found", id))
				return
			}
			helpers.SendApprove(msg, helpers.GetTextF("plugins.reminders.removed", id))
			return
		}

		reminders, err := listReminders(msg.Author.ID)
		helpers.Relax(err)

		if len(reminders) == 0 {
			helpers.SendNeutral(msg, helpers.GetText("plugins.reminders.empty"))
			return
		}

		var embedFields []*discordgo.MessageEmbedField
		for _, reminder := range reminders {
			message := reminder.Message
			if message == "" {
				message = "…"
			}
			embedFields = append(embedFields, &discordgo.MessageEmbedField{
				Name:  "#" + strconv.FormatInt(reminder.ID, 10) + " · " + humanize.Time(reminder.RemindAt),
				Value: message,
			})
		}

		_, err = helpers.SendEmbed(msg.ChannelID, helpers.TruncateEmbed(&discordgo.MessageEmbed{
			Title:  helpers.GetText("plugins.reminders.list-title"),
			Fields: embedFields,
			Color:  helpers.ColorNeutral,
		}))
		helpers.RelaxEmbed(err, msg.ChannelID, msg.ID)
	}
}

func (r *Reminders) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {

}

func (r *Reminders) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {

}

func (r *Reminders) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {

}

func addReminder(reminder models.Reminder) (id int64, err error) {
	err = cache.GetDB().QueryRow(
		"INSERT INTO "+models.RemindersTable+" (user_id, channel_id, guild_id, message, remind_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		reminder.UserID, reminder.ChannelID, reminder.GuildID, reminder.Message, reminder.RemindAt,
	).Scan(&id)
	return id, errors.Wrap(err, "saving reminder failed")
}

// deleteReminder removes reminder $id of $userID, removed is false if the user has no such reminder
func deleteReminder(id int64, userID string) (removed bool, err error) {
	result, err := cache.GetDB().Exec("DELETE FROM "+models.RemindersTable+" WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, errors.Wrap(err, "deleting reminder failed")
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

func listReminders(userID string) ([]models.Reminder, error) {
	return queryReminders(
		"SELECT id, user_id, channel_id, guild_id, message, remind_at FROM "+models.RemindersTable+
			" WHERE user_id = $1 ORDER BY remind_at",
		userID,
	)
}

func getDueReminders(now time.Time, limit int) ([]models.Reminder, error) {
	return queryReminders(
		"SELECT id, user_id, channel_id, guild_id, message, remind_at FROM "+models.RemindersTable+
			" WHERE remind_at <= $1 ORDER BY remind_at LIMIT $2",
		now, limit,
	)
}

func queryReminders(query string, args ...interface{}) (reminders []models.Reminder, err error) {
	rows, err := cache.GetDB().Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying reminders failed")
	}
	defer rows.Close()

	for rows.Next() {
		var reminder models.Reminder
		err = rows.Scan(&reminder.ID, &reminder.UserID, &reminder.ChannelID, &reminder.GuildID, &reminder.Message, &reminder.RemindAt)
		if err != nil {
			return nil, errors.Wrap(err, "scanning reminder failed")
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}
