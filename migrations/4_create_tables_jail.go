package migrations

import "database/sql"

func m4_create_tables_jail(tx *sql.Tx) error {
	return execAll(tx,
		`CREATE TABLE IF NOT EXISTS jail_config (
			guild_id   TEXT PRIMARY KEY,
			role_id    TEXT NOT NULL,
			channel_id TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS jailed_members (
			guild_id     TEXT NOT NULL,
			user_id      TEXT NOT NULL,
			roles        TEXT[] NOT NULL DEFAULT '{}',
			reason       TEXT NOT NULL DEFAULT '',
			moderator_id TEXT NOT NULL,
			jailed_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (guild_id, user_id)
		)`,
	)
}
