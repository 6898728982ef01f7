package migrations

import "database/sql"

func m2_create_table_fake_permissions(tx *sql.Tx) error {
	return execAll(tx, `CREATE TABLE IF NOT EXISTS fake_permissions (
		guild_id   TEXT NOT NULL,
		role_id    TEXT NOT NULL,
		permission TEXT NOT NULL,
		PRIMARY KEY (guild_id, role_id, permission)
	)`)
}
