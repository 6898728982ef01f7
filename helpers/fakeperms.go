package helpers

import (
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/models"
)

// GetFakePermissions returns every fake permission granted in $guildID
func GetFakePermissions(guildID string) (permissions []models.FakePermission, err error) {
	rows, err := cache.GetDB().Query(
		"SELECT guild_id, role_id, permission FROM "+models.FakePermissionsTable+" WHERE guild_id = $1 ORDER BY role_id, permission",
		guildID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying fake permissions failed")
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.FakePermission
		err = rows.Scan(&entry.GuildID, &entry.RoleID, &entry.Permission)
		if err != nil {
			return nil, errors.Wrap(err, "scanning fake permission failed")
		}
		permissions = append(permissions, entry)
	}

	return permissions, rows.Err()
}

// AddFakePermission grants $permission to $roleID, added is false if the role already had it
func AddFakePermission(guildID, roleID, permission string) (added bool, err error) {
	if !IsPermissionName(permission) {
		return false, errors.New("unknown permission " + permission)
	}

	result, err := cache.GetDB().Exec(
		"INSERT INTO "+models.FakePermissionsTable+" (guild_id, role_id, permission) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		guildID, roleID, permission,
	)
	if err != nil {
		return false, errors.Wrap(err, "inserting fake permission failed")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RemoveFakePermission revokes $permission from $roleID, removed is false if the role never had it
func RemoveFakePermission(guildID, roleID, permission string) (removed bool, err error) {
	result, err := cache.GetDB().Exec(
		"DELETE FROM "+models.FakePermissionsTable+" WHERE guild_id = $1 AND role_id = $2 AND permission = $3",
		guildID, roleID, permission,
	)
	if err != nil {
		return false, errors.Wrap(err, "deleting fake permission failed")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
