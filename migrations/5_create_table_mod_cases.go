package migrations

import "database/sql"

func m5_create_table_mod_cases(tx *sql.Tx) error {
	return execAll(tx,
		`CREATE TABLE IF NOT EXISTS mod_cases (
			id           TEXT PRIMARY KEY,
			guild_id     TEXT NOT NULL,
			user_id      TEXT NOT NULL,
			moderator_id TEXT NOT NULL,
			action       TEXT NOT NULL,
			reason       TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS mod_cases_guild_user ON mod_cases (guild_id, user_id, created_at DESC)`,
	)
}
