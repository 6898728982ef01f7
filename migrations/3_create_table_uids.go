package migrations

import "database/sql"

func m3_create_table_uids(tx *sql.Tx) error {
	return execAll(tx, `CREATE TABLE IF NOT EXISTS uids (
		uid        BIGSERIAL PRIMARY KEY,
		user_id    TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
}
