package plugins

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bwmarrin/discordgo"
	"github.com/pretend-bot/pretend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReminder(t *testing.T) {
	parser := NewReminderParser()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		content string
		after   time.Duration
		message string
	}{
		{"in 2 hours to drink water", 2 * time.Hour, "drink water"},
		{"feed the cat in 30 minutes", 30 * time.Minute, "feed the cat"},
	}
	for _, c := range cases {
		remindAt, message, err := ParseReminder(parser, c.content, now)
		if err != nil {
			t.Fatalf("plugins.ParseReminder(%q) returned an error: %s", c.content, err.Error())
		}
		if !remindAt.Equal(now.Add(c.after)) {
			t.Fatalf("plugins.ParseReminder(%q) returned %s, expected %s", c.content, remindAt, now.Add(c.after))
		}
		if message != c.message {
			t.Fatalf("plugins.ParseReminder(%q) returned message %q, expected %q", c.content, message, c.message)
		}
	}
}

func TestParseReminderWithoutTime(t *testing.T) {
	_, _, err := ParseReminder(NewReminderParser(), "buy some milk", time.Now())
	if err == nil {
		t.Fatalf("plugins.ParseReminder() should fail without a time")
	}
}

const deleteReminderQuery = "DELETE FROM reminders WHERE id"

func reminderMessage() *discordgo.Message {
	return &discordgo.Message{ID: "m1", ChannelID: "c1", GuildID: "g1", Author: &discordgo.User{ID: "u1"}}
}

func TestRemindersRemove(t *testing.T) {
	mock := newMockDB(t)
	sent := &sentMessages{}
	session := newTestSession(t, sent.handler(t))
	r := &Reminders{}

	mock.ExpectExec(deleteReminderQuery).WithArgs(int64(7), "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	r.Action("reminders", "remove #7", reminderMessage(), session)

	mock.ExpectExec(deleteReminderQuery).WithArgs(int64(8), "u1").WillReturnResult(sqlmock.NewResult(0, 0))
	r.Action("reminders", "delete 8", reminderMessage(), session)

	texts := sent.all()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Removed reminder `7`")
	assert.Contains(t, texts[1], "no pending reminder `8`")
}

func TestReminderStorage(t *testing.T) {
	mock := newMockDB(t)
	remindAt := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO reminders").
		WithArgs("u1", "c1", "g1", "drink water", remindAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	id, err := addReminder(models.Reminder{UserID: "u1", ChannelID: "c1", GuildID: "g1", Message: "drink water", RemindAt: remindAt})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	mock.ExpectQuery("SELECT id, user_id, channel_id, guild_id, message, remind_at FROM reminders WHERE user_id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "channel_id", "guild_id", "message", "remind_at"}).
			AddRow(int64(3), "u1", "c1", "g1", "drink water", remindAt))
	reminders, err := listReminders("u1")
	require.NoError(t, err)
	assert.Equal(t, []models.Reminder{{ID: 3, UserID: "u1", ChannelID: "c1", GuildID: "g1", Message: "drink water", RemindAt: remindAt}}, reminders)
}

func TestSendDueReminders(t *testing.T) {
	mock := newMockDB(t)
	sent := &sentMessages{}
	session := newTestSession(t, sent.handler(t))

	mock.ExpectQuery("SELECT id, user_id, channel_id, guild_id, message, remind_at FROM reminders WHERE remind_at").
		WithArgs(sqlmock.AnyArg(), remindersBatchSize).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "channel_id", "guild_id", "message", "remind_at"}).
			AddRow(int64(3), "u1", "c1", "g1", "drink water", time.Now().Add(-time.Minute)))
	mock.ExpectExec(deleteReminderQuery).WithArgs(int64(3), "u1").WillReturnResult(sqlmock.NewResult(0, 1))

	(&Reminders{}).sendDueReminders(session)

	texts := sent.all()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "drink water")
}
