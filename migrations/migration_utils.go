package migrations

import "database/sql"

// execAll runs every statement inside $tx, stopping at the first error
func execAll(tx *sql.Tx, statements ...string) error {
	for _, statement := range statements {
		_, err := tx.Exec(statement)
		if err != nil {
			return err
		}
	}
	return nil
}
