package models

const (
	FakePermissionsTable = "fake_permissions"
)

// FakePermission grants $Permission to every member of $RoleID, on top of the native discord permissions
type FakePermission struct {
	GuildID    string
	RoleID     string
	Permission string
}
