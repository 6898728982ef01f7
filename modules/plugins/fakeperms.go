package plugins

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pretend-bot/pretend/helpers"
)

type FakePerms struct{}

func (f *FakePerms) Commands() []string {
	return []string{
		"fakeperms",
		"fakepermissions",
		"fp",
	}
}

func (f *FakePerms) Init(session *discordgo.Session) {

}

func (f *FakePerms) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	if msg.GuildID == "" {
		return
	}

	args := strings.Fields(content)
	if len(args) <= 0 {
		helpers.SendWarn(msg, helpers.GetText("plugins.fakeperms.usage"))
		return
	}

	switch args[0] {
	case "available", "permissions":
		helpers.SendNeutral(msg, helpers.GetTextF("plugins.fakeperms.available",
			"`"+strings.Join(helpers.SortedPermissionNames(), "`, `")+"`"))
		return
	case "list":
		f.list(msg)
		return
	case "add", "grant", "remove", "revoke":
	default:
		helpers.SendWarn(msg, helpers.GetText("plugins.fakeperms.usage"))
		return
	}

	// fake administrators must not be able to hand out permissions
	if !helpers.HasNativePermission(msg, helpers.PermissionAdministrator) {
		helpers.SendDeny(msg, helpers.GetTextF("bot.errors.missing-permission", helpers.PermissionAdministrator))
		return
	}

	if len(args) < 3 {
		helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
		return
	}

	role, err := helpers.GetRoleFromMention(msg.GuildID, args[1])
	if err != nil {
		helpers.SendWarn(msg, helpers.GetText("bot.arguments.invalid-role"))
		return
	}

	permission := strings.ToLower(args[2])
	if !helpers.IsPermissionName(permission) {
		suggestion := helpers.SuggestPermissionName(permission)
		if suggestion != "" {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.fakeperms.unknown-suggestion", permission, suggestion))
			return
		}
		helpers.SendWarn(msg, helpers.GetTextF("plugins.fakeperms.unknown", permission))
		return
	}

	switch args[0] {
	case "add", "grant":
		added, err := helpers.AddFakePermission(msg.GuildID, role.ID, permission)
		helpers.Relax(err)
		if !added {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.fakeperms.already-granted", role.ID, permission))
			return
		}
		helpers.SendApprove(msg, helpers.GetTextF("plugins.fakeperms.granted", permission, role.ID))
	case "remove", "revoke":
		removed, err := helpers.RemoveFakePermission(msg.GuildID, role.ID, permission)
		helpers.Relax(err)
		if !removed {
			helpers.SendWarn(msg, helpers.GetTextF("plugins.fakeperms.not-granted", role.ID, permission))
			return
		}
		helpers.SendApprove(msg, helpers.GetTextF("plugins.fakeperms.revoked", permission, role.ID))
	}
}

func (f *FakePerms) list(msg *discordgo.Message) {
	permissions, err := helpers.GetFakePermissions(msg.GuildID)
	helpers.Relax(err)

	if len(permissions) <= 0 {
		helpers.SendNeutral(msg, helpers.GetText("plugins.fakeperms.list-empty"))
		return
	}

	byRole := make(map[string][]string)
	var roleOrder []string
	for _, permission := range permissions {
		if _, ok := byRole[permission.RoleID]; !ok {
			roleOrder = append(roleOrder, permission.RoleID)
		}
		byRole[permission.RoleID] = append(byRole[permission.RoleID], permission.Permission)
	}

	var description string
	for _, roleID := range roleOrder {
		description += "<@&" + roleID + ">: `" + strings.Join(byRole[roleID], "`, `") + "`\n"
	}

	_, err = helpers.SendEmbed(msg.ChannelID, helpers.TruncateEmbed(&discordgo.MessageEmbed{
		Title:       helpers.GetText("plugins.fakeperms.list-title"),
		Description: description,
		Color:       helpers.ColorNeutral,
	}))
	helpers.RelaxEmbed(err, msg.ChannelID, msg.ID)
}
