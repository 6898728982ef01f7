package plugins

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/models"
)

type Jail struct{}

const (
	jailRoleName    = "jailed"
	jailChannelName = "jail"
)

func (j *Jail) Commands() []string {
	return []string{
		"jail",
		"unjail",
	}
}

func (j *Jail) Init(session *discordgo.Session) {

}

func (j *Jail) Uninit(session *discordgo.Session) {

}

func (j *Jail) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.GuildID == "" {
		return
	}

	args := strings.Fields(content)

	if command == "unjail" {
		if !helpers.RequirePermission(msg, "moderate_members") {
			return
		}
		if len(args) < 1 {
			helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
			return
		}
		j.unjail(msg, session, args[0])
		return
	}

	if len(args) < 1 {
		helpers.SendWarn(msg, helpers.GetText("plugins.jail.usage"))
		return
	}

	switch args[0] {
	case "setup":
		if !helpers.RequirePermission(msg, "manage_roles") || !helpers.RequirePermission(msg, "manage_channels") {
			return
		}
		j.setup(msg, session)
	case "list":
		if !helpers.RequirePermission(msg, "moderate_members") {
			return
		}
		j.list(msg)
	default:
		if !helpers.RequirePermission(msg, "moderate_members") {
			return
		}
		j.jail(msg, session, args[0], strings.Join(args[1:], " "))
	}
}

func (j *Jail) setup(msg *discordgo.Message, session *discordgo.Session) {
	session.ChannelTyping(msg.ChannelID)

	guild, err := helpers.GetGuild(msg.GuildID)
	helpers.Relax(err)

	config, _, err := getJailConfig(msg.GuildID)
	helpers.Relax(err)

	channels, err := session.GuildChannels(msg.GuildID)
	helpers.Relax(err)

	role := findJailRole(guild.Roles, config.RoleID)
	channel := findJailChannel(channels, msg.GuildID, config.ChannelID)

	if role == nil {
		mentionable := false
		permissions := int64(0)
		role, err = session.GuildRoleCreate(msg.GuildID, &discordgo.RoleParams{
			Name:        jailRoleName,
			Mentionable: &mentionable,
			Permissions: &permissions,
		})
		if helpers.IsDiscordPermissionsError(err) {
			helpers.SendDeny(msg, helpers.GetText("plugins.jail.bot-disallowed"))
			return
		}
		helpers.Relax(err)
	}

	if channel == nil {
		channel, err = session.GuildChannelCreateComplex(msg.GuildID, discordgo.GuildChannelCreateData{
			Name: jailChannelName,
			Type: discordgo.ChannelTypeGuildText,
			PermissionOverwrites: []*discordgo.PermissionOverwrite{
				{ID: msg.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
				{ID: role.ID, Type: discordgo.PermissionOverwriteTypeRole,
					Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory},
			},
		})
		if helpers.IsDiscordPermissionsError(err) {
			helpers.SendDeny(msg, helpers.GetText("plugins.jail.bot-disallowed"))
			return
		}
		helpers.Relax(err)
	}

	err = setJailConfig(models.JailConfig{GuildID: msg.GuildID, RoleID: role.ID, ChannelID: channel.ID})
	helpers.Relax(err)

	failed := 0
	for _, guildChannel := range channels {
		if guildChannel.ID == channel.ID {
			continue
		}
		err = session.ChannelPermissionSet(guildChannel.ID, role.ID, discordgo.PermissionOverwriteTypeRole,
			0, discordgo.PermissionViewChannel)
		if err != nil {
			failed++
		}
	}

	if failed > 0 {
		helpers.SendWarn(msg, helpers.GetTextF("plugins.jail.setup-partial", channel.ID, role.ID, failed))
		return
	}
	helpers.SendApprove(msg, helpers.GetTextF("plugins.jail.setup-success", channel.ID, role.ID))
}

func (j *Jail) jail(msg *discordgo.Message, session *discordgo.Session, mention, reason string) {
	config, found, err := getJailConfig(msg.GuildID)
	helpers.Relax(err)
	if !found {
		helpers.SendWarn(msg, helpers.GetText("plugins.jail.not-setup"))
		return
	}

	member, err := helpers.GetMemberFromMention(msg.GuildID, mention)
	if err != nil {
		helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid-user"))
		return
	}
	if member.User.ID == msg.Author.ID || member.User.ID == session.State.User.ID {
		helpers.SendWarn(msg, helpers.GetText("plugins.jail.target-invalid"))
		return
	}

	guild, err := helpers.GetGuild(msg.GuildID)
	helpers.Relax(err)

	err = jailMember(session, config, member, guild.Roles, msg.Author.ID, reason)
	if err == errAlreadyJailed {
		helpers.SendWarn(msg, helpers.GetTextF("plugins.jail.already-jailed", member.User.Username))
		return
	}
	if helpers.IsDiscordPermissionsError(err) {
		helpers.SendDeny(msg, helpers.GetText("plugins.jail.bot-disallowed"))
		return
	}
	helpers.Relax(err)

	modCase, err := helpers.CreateModCase(msg.GuildID, member.User.ID, msg.Author.ID, models.ModActionJail, reason)
	helpers.Relax(err)

	cache.GetLogger().WithField("module", "jail").Info(fmt.Sprintf("Jailed User %s (#%s) on Guild #%s by %s (#%s)",
		member.User.Username, member.User.ID, msg.GuildID, msg.Author.Username, msg.Author.ID))
	helpers.SendApprove(msg, helpers.GetTextF("plugins.jail.jailed", member.User.Username, modCase.ID))
}

var errAlreadyJailed = errors.New("member is already jailed")

// jailMember stores the removable roles of $member and swaps them for the jail role.
// The stored entry is dropped again when discord rejects the role change.
func jailMember(session *discordgo.Session, config models.JailConfig, member *discordgo.Member, guildRoles []*discordgo.Role, moderatorID, reason string) error {
	_, jailed, err := getJailedMember(config.GuildID, member.User.ID)
	if err != nil {
		return err
	}
	if jailed {
		return errAlreadyJailed
	}

	stored, kept := SplitJailRoles(member.Roles, guildRoles, config.RoleID)

	err = addJailedMember(models.JailedMember{
		GuildID:     config.GuildID,
		UserID:      member.User.ID,
		Roles:       stored,
		Reason:      reason,
		ModeratorID: moderatorID,
	})
	if helpers.IsUniqueViolation(err) {
		return errAlreadyJailed
	}
	if err != nil {
		return err
	}

	newRoles := append(kept, config.RoleID)
	_, err = session.GuildMemberEdit(config.GuildID, member.User.ID, &discordgo.GuildMemberParams{Roles: &newRoles})
	if err != nil {
		helpers.RelaxLog(removeJailedMember(config.GuildID, member.User.ID))
		return err
	}
	return nil
}

func (j *Jail) unjail(msg *discordgo.Message, session *discordgo.Session, mention string) {
	targetUser, err := helpers.GetUserFromMention(mention)
	if err != nil {
		helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid-user"))
		return
	}

	jailedMember, jailed, err := getJailedMember(msg.GuildID, targetUser.ID)
	helpers.Relax(err)
	if !jailed {
		helpers.SendWarn(msg, helpers.GetTextF("plugins.jail.not-jailed", targetUser.Username))
		return
	}

	config, _, err := getJailConfig(msg.GuildID)
	helpers.Relax(err)

	member, err := helpers.GetGuildMember(msg.GuildID, targetUser.ID)
	if err == nil {
		guild, err := helpers.GetGuild(msg.GuildID)
		helpers.Relax(err)

		restored := RestoreJailRoles(jailedMember.Roles, member.Roles, guild.Roles, config.RoleID)
		_, err = session.GuildMemberEdit(msg.GuildID, targetUser.ID, &discordgo.GuildMemberParams{Roles: &restored})
		if helpers.IsDiscordPermissionsError(err) {
			helpers.SendDeny(msg, helpers.GetText("plugins.jail.bot-disallowed"))
			return
		}
		helpers.Relax(err)
	}

	err = removeJailedMember(msg.GuildID, targetUser.ID)
	helpers.Relax(err)

	modCase, err := helpers.CreateModCase(msg.GuildID, targetUser.ID, msg.Author.ID, models.ModActionUnjail, "")
	helpers.Relax(err)

	helpers.SendApprove(msg, helpers.GetTextF("plugins.jail.unjailed", targetUser.Username, modCase.ID))
}

func (j *Jail) list(msg *discordgo.Message) {
	jailedMembers, err := listJailedMembers(msg.GuildID)
	helpers.Relax(err)

	if len(jailedMembers) <= 0 {
		helpers.SendNeutral(msg, helpers.GetText("plugins.jail.list-empty"))
		return
	}

	var lines []string
	for _, jailedMember := range jailedMembers {
		line := fmt.Sprintf("<@%s> by <@%s> %s", jailedMember.UserID, jailedMember.ModeratorID, humanize.Time(jailedMember.JailedAt))
		if jailedMember.Reason != "" {
			line += ": " + helpers.EscapeMarkdown(jailedMember.Reason)
		}
		lines = append(lines, line)
	}

	_, err = helpers.SendEmbed(msg.ChannelID, helpers.TruncateEmbed(&discordgo.MessageEmbed{
		Title:       helpers.GetTextF("plugins.jail.list-title", len(jailedMembers)),
		Description: strings.Join(lines, "\n"),
		Color:       helpers.ColorNeutral,
	}))
	helpers.RelaxEmbed(err, msg.ChannelID, msg.ID)
}

func (j *Jail) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {

}

// OnGuildMemberAdd puts jailed members that left and rejoined back into jail
func (j *Jail) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
	_, jailed, err := getJailedMember(member.GuildID, member.User.ID)
	if err != nil {
		helpers.RelaxLog(err)
		return
	}
	if !jailed {
		return
	}

	config, found, err := getJailConfig(member.GuildID)
	if err != nil || !found {
		helpers.RelaxLog(err)
		return
	}

	err = session.GuildMemberRoleAdd(member.GuildID, member.User.ID, config.RoleID)
	if err != nil {
		cache.GetLogger().WithField("module", "jail").Warnf("re-jailing %s on #%s failed: %s",
			member.User.ID, member.GuildID, err.Error())
		return
	}
	cache.GetLogger().WithField("module", "jail").Infof("re-jailed %s on #%s after rejoin", member.User.ID, member.GuildID)
}

func (j *Jail) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {

}

// findJailRole returns the role with $roleID, falls back to the first role named like the jail role
func findJailRole(roles []*discordgo.Role, roleID string) *discordgo.Role {
	var named *discordgo.Role
	for _, role := range roles {
		if roleID != "" && role.ID == roleID {
			return role
		}
		if named == nil && strings.EqualFold(role.Name, jailRoleName) {
			named = role
		}
	}
	return named
}

// findJailChannel returns the text channel with $channelID, falls back to the first text channel named like the jail channel
func findJailChannel(channels []*discordgo.Channel, guildID, channelID string) *discordgo.Channel {
	var named *discordgo.Channel
	for _, channel := range channels {
		if channel.GuildID != guildID || channel.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		if channelID != "" && channel.ID == channelID {
			return channel
		}
		if named == nil && strings.EqualFold(channel.Name, jailChannelName) {
			named = channel
		}
	}
	return named
}

// SplitJailRoles separates the roles taken away while jailed from the managed roles discord does not let us remove
func SplitJailRoles(memberRoles []string, guildRoles []*discordgo.Role, jailRoleID string) (stored, kept []string) {
	managed := make(map[string]bool)
	for _, role := range guildRoles {
		if role.Managed {
			managed[role.ID] = true
		}
	}

	stored, kept = []string{}, []string{}
	for _, roleID := range memberRoles {
		switch {
		case roleID == jailRoleID:
		case managed[roleID]:
			kept = append(kept, roleID)
		default:
			stored = append(stored, roleID)
		}
	}
	return stored, kept
}

// RestoreJailRoles returns the roles a member gets back on unjail: stored roles that still exist plus current ones, without the jail role
func RestoreJailRoles(stored, current []string, guildRoles []*discordgo.Role, jailRoleID string) (roles []string) {
	exists := make(map[string]bool, len(guildRoles))
	for _, role := range guildRoles {
		exists[role.ID] = true
	}

	seen := make(map[string]bool)
	roles = []string{}
	for _, roleID := range append(append([]string{}, stored...), current...) {
		if roleID == jailRoleID || seen[roleID] || !exists[roleID] {
			continue
		}
		seen[roleID] = true
		roles = append(roles, roleID)
	}
	return roles
}

func getJailConfig(guildID string) (config models.JailConfig, found bool, err error) {
	err = cache.GetDB().QueryRow(
		"SELECT guild_id, role_id, channel_id FROM "+models.JailConfigTable+" WHERE guild_id = $1", guildID,
	).Scan(&config.GuildID, &config.RoleID, &config.ChannelID)
	if helpers.IsNoRows(err) {
		return config, false, nil
	}
	if err != nil {
		return config, false, errors.Wrap(err, "reading jail config failed")
	}
	return config, true, nil
}

func setJailConfig(config models.JailConfig) error {
	_, err := cache.GetDB().Exec(
		"INSERT INTO "+models.JailConfigTable+" (guild_id, role_id, channel_id) VALUES ($1, $2, $3) "+
			"ON CONFLICT (guild_id) DO UPDATE SET role_id = EXCLUDED.role_id, channel_id = EXCLUDED.channel_id",
		config.GuildID, config.RoleID, config.ChannelID,
	)
	return errors.Wrap(err, "saving jail config failed")
}

func getJailedMember(guildID, userID string) (member models.JailedMember, found bool, err error) {
	err = cache.GetDB().QueryRow(
		"SELECT guild_id, user_id, roles, reason, moderator_id, jailed_at FROM "+models.JailedMembersTable+
			" WHERE guild_id = $1 AND user_id = $2",
		guildID, userID,
	).Scan(&member.GuildID, &member.UserID, pq.Array(&member.Roles), &member.Reason, &member.ModeratorID, &member.JailedAt)
	if helpers.IsNoRows(err) {
		return member, false, nil
	}
	if err != nil {
		return member, false, errors.Wrap(err, "reading jailed member failed")
	}
	return member, true, nil
}

func addJailedMember(member models.JailedMember) error {
	_, err := cache.GetDB().Exec(
		"INSERT INTO "+models.JailedMembersTable+" (guild_id, user_id, roles, reason, moderator_id) VALUES ($1, $2, $3, $4, $5)",
		member.GuildID, member.UserID, pq.Array(member.Roles), member.Reason, member.ModeratorID,
	)
	return errors.Wrap(err, "saving jailed member failed")
}

func removeJailedMember(guildID, userID string) error {
	_, err := cache.GetDB().Exec(
		"DELETE FROM "+models.JailedMembersTable+" WHERE guild_id = $1 AND user_id = $2", guildID, userID,
	)
	return errors.Wrap(err, "removing jailed member failed")
}

func listJailedMembers(guildID string) (members []models.JailedMember, err error) {
	rows, err := cache.GetDB().Query(
		"SELECT guild_id, user_id, roles, reason, moderator_id, jailed_at FROM "+models.JailedMembersTable+
			" WHERE guild_id = $1 ORDER BY jailed_at DESC",
		guildID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "listing jailed members failed")
	}
	defer rows.Close()

	for rows.Next() {
		var member models.JailedMember
		err = rows.Scan(&member.GuildID, &member.UserID, pq.Array(&member.Roles), &member.Reason, &member.ModeratorID, &member.JailedAt)
		if err != nil {
			return nil, errors.Wrap(err, "scanning jailed member failed")
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
