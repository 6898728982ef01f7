package migrations

import "database/sql"

func m6_create_table_lastfm_accounts(tx *sql.Tx) error {
	return execAll(tx, `CREATE TABLE IF NOT EXISTS lastfm_accounts (
		user_id         TEXT PRIMARY KEY,
		lastfm_username TEXT NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
}
