package plugins

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bwmarrin/discordgo"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jailGuildRoles = []*discordgo.Role{
	{ID: "jail"},
	{ID: "member"},
	{ID: "vip"},
	{ID: "booster", Managed: true},
}

func TestSplitJailRoles(t *testing.T) {
	stored, kept := SplitJailRoles([]string{"member", "booster", "jail", "vip"}, jailGuildRoles, "jail")

	assert.Equal(t, []string{"member", "vip"}, stored)
	assert.Equal(t, []string{"booster"}, kept)
}

func TestSplitJailRolesEmpty(t *testing.T) {
	stored, kept := SplitJailRoles(nil, jailGuildRoles, "jail")

	assert.Empty(t, stored)
	assert.NotNil(t, stored)
	assert.Empty(t, kept)
}

func TestRestoreJailRoles(t *testing.T) {
	roles := RestoreJailRoles(
		[]string{"member", "deleted", "vip"},
		[]string{"jail", "booster", "member"},
		jailGuildRoles,
		"jail",
	)

	assert.Equal(t, []string{"member", "vip", "booster"}, roles)
}

var testJailConfig = models.JailConfig{GuildID: "g1", RoleID: "jail", ChannelID: "jail-channel"}

func testJailTarget() *discordgo.Member {
	return &discordgo.Member{GuildID: "g1", User: &discordgo.User{ID: "u1"}, Roles: []string{"member", "booster", "vip"}}
}

func jailedMemberRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"guild_id", "user_id", "roles", "reason", "moderator_id", "jailed_at"})
}

const (
	selectJailedMember = "SELECT guild_id, user_id, roles, reason, moderator_id, jailed_at FROM jailed_members"
	insertJailedMember = "INSERT INTO jailed_members"
	deleteJailedMember = "DELETE FROM jailed_members"
)

func TestJailMember(t *testing.T) {
	mock := newMockDB(t)

	var edited []string
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, discordPath("/guilds/g1/members/u1"), r.URL.Path)
		assert.NoError(t, mock.ExpectationsWereMet(), "roles were edited before the jailed member was stored")

		var params discordgo.GuildMemberParams
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &params))
		edited = *params.Roles

		w.Write([]byte(`{"user": {"id": "u1"}, "roles": ["booster", "jail"]}`))
	})

	mock.ExpectQuery(selectJailedMember).WithArgs("g1", "u1").WillReturnRows(jailedMemberRows())
	mock.ExpectExec(insertJailedMember).
		WithArgs("g1", "u1", `{"member","vip"}`, "spam", "mod").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := jailMember(session, testJailConfig, testJailTarget(), jailGuildRoles, "mod", "spam")
	require.NoError(t, err)
	assert.Equal(t, []string{"booster", "jail"}, edited)
}

func TestJailMemberAlreadyJailed(t *testing.T) {
	mock := newMockDB(t)
	requests := 0
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	mock.ExpectQuery(selectJailedMember).WithArgs("g1", "u1").
		WillReturnRows(jailedMemberRows().AddRow("g1", "u1", "{member}", "", "mod", time.Now()))

	err := jailMember(session, testJailConfig, testJailTarget(), jailGuildRoles, "mod", "")
	assert.Equal(t, errAlreadyJailed, err)
	assert.Zero(t, requests)
}

func TestJailMemberKeepsRolesWhenStoringFails(t *testing.T) {
	cases := []struct {
		name     string
		dbErr    error
		expected error
	}{
		{"database down", errors.New("connection reset"), nil},
		{"jailed concurrently", &pq.Error{Code: "23505"}, errAlreadyJailed},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mock := newMockDB(t)
			requests := 0
			session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
				requests++
			})

			mock.ExpectQuery(selectJailedMember).WithArgs("g1", "u1").WillReturnRows(jailedMemberRows())
			mock.ExpectExec(insertJailedMember).WillReturnError(c.dbErr)

			err := jailMember(session, testJailConfig, testJailTarget(), jailGuildRoles, "mod", "")
			require.Error(t, err)
			if c.expected != nil {
				assert.Equal(t, c.expected, err)
			}
			assert.Zero(t, requests, "roles were edited without a stored jailed member")
		})
	}
}

func TestJailMemberForgetsRolesWhenEditFails(t *testing.T) {
	mock := newMockDB(t)
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code": 50013, "message": "Missing Permissions"}`))
	})

	mock.ExpectQuery(selectJailedMember).WithArgs("g1", "u1").WillReturnRows(jailedMemberRows())
	mock.ExpectExec(insertJailedMember).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteJailedMember).WithArgs("g1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))

	err := jailMember(session, testJailConfig, testJailTarget(), jailGuildRoles, "mod", "")
	require.Error(t, err)
	assert.True(t, helpers.IsDiscordPermissionsError(err))
}

func TestOnGuildMemberAddRejails(t *testing.T) {
	mock := newMockDB(t)
	var calls []string
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	mock.ExpectQuery(selectJailedMember).WithArgs("g1", "u1").
		WillReturnRows(jailedMemberRows().AddRow("g1", "u1", "{member,vip}", "spam", "mod", time.Now()))
	mock.ExpectQuery("SELECT guild_id, role_id, channel_id FROM jail_config").WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"guild_id", "role_id", "channel_id"}).AddRow("g1", "jail", "jail-channel"))

	(&Jail{}).OnGuildMemberAdd(&discordgo.Member{GuildID: "g1", User: &discordgo.User{ID: "u1"}}, session)

	assert.Equal(t, []string{"PUT " + discordPath("/guilds/g1/members/u1/roles/jail")}, calls)
}

func TestOnGuildMemberAddIgnoresFreeMembers(t *testing.T) {
	mock := newMockDB(t)
	requests := 0
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	mock.ExpectQuery(selectJailedMember).WithArgs("g1", "u2").WillReturnRows(jailedMemberRows())

	(&Jail{}).OnGuildMemberAdd(&discordgo.Member{GuildID: "g1", User: &discordgo.User{ID: "u2"}}, session)

	assert.Zero(t, requests)
}

func TestFindJailRole(t *testing.T) {
	roles := []*discordgo.Role{
		{ID: "1", Name: "member"},
		{ID: "2", Name: "Jailed"},
		{ID: "3", Name: "jailed"},
	}

	assert.Equal(t, "3", findJailRole(roles, "3").ID)
	assert.Equal(t, "2", findJailRole(roles, "").ID)
	assert.Equal(t, "2", findJailRole(roles, "deleted").ID)
	assert.Nil(t, findJailRole(roles[:1], ""))
}

func TestFindJailChannel(t *testing.T) {
	channels := []*discordgo.Channel{
		{ID: "1", GuildID: "g1", Name: "jail", Type: discordgo.ChannelTypeGuildVoice},
		{ID: "2", GuildID: "g2", Name: "jail", Type: discordgo.ChannelTypeGuildText},
		{ID: "3", GuildID: "g1", Name: "general", Type: discordgo.ChannelTypeGuildText},
		{ID: "4", GuildID: "g1", Name: "jail", Type: discordgo.ChannelTypeGuildText},
	}

	assert.Equal(t, "4", findJailChannel(channels, "g1", "").ID)
	assert.Equal(t, "3", findJailChannel(channels, "g1", "3").ID)
	assert.Equal(t, "4", findJailChannel(channels, "g1", "deleted").ID)
	assert.Nil(t, findJailChannel(channels[:3], "g1", ""))
	assert.Equal(t, "4", findJailChannel(channels, "g1", "2").ID)
}
