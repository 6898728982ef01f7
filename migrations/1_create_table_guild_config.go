package migrations

import "database/sql"

func m1_create_table_guild_config(tx *sql.Tx) error {
	return execAll(tx, `CREATE TABLE IF NOT EXISTS guild_config (
		guild_id   TEXT PRIMARY KEY,
		prefix     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
}
