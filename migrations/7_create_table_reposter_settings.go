package migrations

import "database/sql"

func m7_create_table_reposter_settings(tx *sql.Tx) error {
	return execAll(tx, `CREATE TABLE IF NOT EXISTS reposter_settings (
		guild_id           TEXT PRIMARY KEY,
		disabled_platforms TEXT[] NOT NULL DEFAULT '{}',
		delete_original    BOOLEAN NOT NULL DEFAULT false
	)`)
}
