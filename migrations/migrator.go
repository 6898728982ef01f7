package migrations

import (
	"database/sql"
	"reflect"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
)

type migrationFunc func(tx *sql.Tx) error

var migrations = []migrationFunc{
	m1_create_table_guild_config,
	m2_create_table_fake_permissions,
	m3_create_table_uids,
	m4_create_tables_jail,
	m5_create_table_mod_cases,
	m6_create_table_lastfm_accounts,
	m7_create_table_reposter_settings,
	m8_create_table_autoposts,
	m9_create_table_reminders,
}

// Run executes all registered migrations that have not been applied yet
func Run(db *sql.DB) error {
	return run(db, migrations)
}

func run(db *sql.DB, list []migrationFunc) error {
	log := cache.GetLogger().WithField("module", "migrations")
	log.Info("Running migrations...")

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return errors.Wrap(err, "creating schema_migrations failed")
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}

	for _, migration := range list {
		name := migrationName(migration)
		if applied[name] {
			continue
		}

		log.Infof("Running %s", name)
		err = apply(db, name, migration)
		if err != nil {
			return errors.Wrapf(err, "migration %s failed", name)
		}
	}

	log.Info("Migrations finished!")
	return nil
}

func appliedMigrations(db *sql.DB) (applied map[string]bool, err error) {
	rows, err := db.Query("SELECT name FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "reading schema_migrations failed")
	}
	defer rows.Close()

	applied = make(map[string]bool)
	for rows.Next() {
		var name string
		err = rows.Scan(&name)
		if err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func apply(db *sql.DB, name string, migration migrationFunc) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	err = migration(tx)
	if err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.Exec("INSERT INTO schema_migrations (name) VALUES ($1)", name)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func migrationName(migration migrationFunc) string {
	name := runtime.FuncForPC(reflect.ValueOf(migration).Pointer()).Name()
	return name[strings.LastIndex(name, ".")+1:]
}
