package migrations

import "database/sql"

func m9_create_table_reminders(tx *sql.Tx) error {
	return execAll(tx,
		`CREATE TABLE IF NOT EXISTS reminders (
			id         BIGSERIAL PRIMARY KEY,
			user_id    TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			guild_id   TEXT NOT NULL DEFAULT '',
			message    TEXT NOT NULL,
			remind_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS reminders_remind_at ON reminders (remind_at)`,
	)
}
