package helpers

import (
	"sort"

	"github.com/bwmarrin/discordgo"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/models"
)

const PermissionAdministrator = "administrator"

// PermissionNames maps the names used by commands and fake permissions to discord permission bits
var PermissionNames = map[string]int64{
	PermissionAdministrator: discordgo.PermissionAdministrator,
	"manage_guild":          discordgo.PermissionManageServer,
	"manage_roles":          discordgo.PermissionManageRoles,
	"manage_channels":       discordgo.PermissionManageChannels,
	"manage_messages":       discordgo.PermissionManageMessages,
	"kick_members":          discordgo.PermissionKickMembers,
	"ban_members":           discordgo.PermissionBanMembers,
	"moderate_members":      discordgo.PermissionModerateMembers,
	"manage_nicknames":      discordgo.PermissionManageNicknames,
	"manage_webhooks":       discordgo.PermissionManageWebhooks,
	"mention_everyone":      discordgo.PermissionMentionEveryone,
	"view_audit_log":        discordgo.PermissionViewAuditLogs,
}

// IsPermissionName reports whether $name is a known permission
func IsPermissionName(name string) bool {
	_, ok := PermissionNames[name]
	return ok
}

// SortedPermissionNames returns all known permission names in alphabetical order
func SortedPermissionNames() (names []string) {
	for name := range PermissionNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SuggestPermissionName returns the closest known permission name or an empty string
func SuggestPermissionName(name string) string {
	ranks := fuzzy.RankFindFold(name, SortedPermissionNames())
	if len(ranks) <= 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// ResolvePermission decides if a member has permission $name given their native permission bits,
// their role ids and the fake permissions of the guild
func ResolvePermission(name string, native int64, memberRoles []string, fakes []models.FakePermission) bool {
	bit, ok := PermissionNames[name]
	if !ok {
		return false
	}

	if native&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator {
		return true
	}
	if native&bit == bit {
		return true
	}

	roles := make(map[string]bool, len(memberRoles))
	for _, roleID := range memberRoles {
		roles[roleID] = true
	}

	for _, fake := range fakes {
		if !roles[fake.RoleID] {
			continue
		}
		if fake.Permission == name || fake.Permission == PermissionAdministrator {
			return true
		}
	}

	return false
}

// HasNativePermission checks discord permissions only, fake permissions are ignored
func HasNativePermission(msg *discordgo.Message, name string) bool {
	if IsBotAdmin(msg.Author.ID) {
		return true
	}
	bit, ok := PermissionNames[name]
	if !ok {
		return false
	}
	if isGuildOwner(msg) {
		return true
	}
	native, err := memberChannelPermissions(msg)
	if err != nil {
		return false
	}
	if native&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator {
		return true
	}
	return native&bit == bit
}

// HasPermission checks native discord permissions and the fake permissions of the member's roles
func HasPermission(msg *discordgo.Message, name string) bool {
	if msg.GuildID == "" {
		return false
	}
	if IsBotAdmin(msg.Author.ID) || isGuildOwner(msg) {
		return true
	}

	native, err := memberChannelPermissions(msg)
	if err != nil {
		RelaxLog(err)
	}

	var memberRoles []string
	if msg.Member != nil {
		memberRoles = msg.Member.Roles
	} else {
		member, err := GetGuildMember(msg.GuildID, msg.Author.ID)
		if err == nil {
			memberRoles = member.Roles
		}
	}

	fakes, err := GetFakePermissions(msg.GuildID)
	if err != nil {
		RelaxLog(err)
	}

	return ResolvePermission(name, native, memberRoles, fakes)
}

// RequirePermission replies with a deny embed and returns false if the author lacks $name
func RequirePermission(msg *discordgo.Message, name string) bool {
	if HasPermission(msg, name) {
		return true
	}
	SendDeny(msg, GetTextF("bot.errors.missing-permission", name))
	return false
}

func isGuildOwner(msg *discordgo.Message) bool {
	guild, err := GetGuild(msg.GuildID)
	if err != nil {
		return false
	}
	return guild.OwnerID == msg.Author.ID
}

func memberChannelPermissions(msg *discordgo.Message) (int64, error) {
	session := cache.GetSession()
	permissions, err := session.State.UserChannelPermissions(msg.Author.ID, msg.ChannelID)
	if err == nil {
		return permissions, nil
	}
	return session.UserChannelPermissions(msg.Author.ID, msg.ChannelID)
}
