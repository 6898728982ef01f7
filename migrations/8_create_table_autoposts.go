package migrations

import "database/sql"

func m8_create_table_autoposts(tx *sql.Tx) error {
	return execAll(tx, `CREATE TABLE IF NOT EXISTS autoposts (
		guild_id   TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		kind       TEXT NOT NULL,
		category   TEXT NOT NULL,
		PRIMARY KEY (channel_id, kind)
	)`)
}
