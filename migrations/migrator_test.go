package migrations

import (
	"database/sql"
	"io"
	"os"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	log := logrus.New()
	log.Out = io.Discard
	cache.SetLogger(log)

	os.Exit(m.Run())
}

func m1_create_table_first(tx *sql.Tx) error {
	return execAll(tx, "CREATE TABLE first (id TEXT)")
}

func m2_create_table_second(tx *sql.Tx) error {
	return execAll(tx, "CREATE TABLE second (id TEXT)", "CREATE INDEX second_id ON second (id)")
}

func m3_broken(tx *sql.Tx) error {
	return execAll(tx, "CREATE TABLE broken")
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() returned an error: %s", err.Error())
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestMigrationName(t *testing.T) {
	if name := migrationName(m1_create_table_first); name != "m1_create_table_first" {
		t.Fatalf("migrations.migrationName() returned %q", name)
	}
	if name := migrationName(m9_create_table_reminders); name != "m9_create_table_reminders" {
		t.Fatalf("migrations.migrationName() returned %q", name)
	}
}

func TestRunSkipsAppliedMigrations(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("m1_create_table_first"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE second")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX second_id")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (name) VALUES ($1)")).
		WithArgs("m2_create_table_second").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := run(db, []migrationFunc{m1_create_table_first, m2_create_table_second})
	if err != nil {
		t.Fatalf("migrations.run() returned an error: %s", err.Error())
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("migrations.run() left expectations: %s", err.Error())
	}
}

func TestRunRollsBackFailedMigration(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE broken")).WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err := run(db, []migrationFunc{m3_broken, m1_create_table_first})
	if err == nil {
		t.Fatalf("migrations.run() should fail on a broken migration")
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("migrations.run() left expectations: %s", err.Error())
	}
}

func TestRegisteredMigrationsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, migration := range migrations {
		name := migrationName(migration)
		if seen[name] {
			t.Fatalf("migration %s is registered twice", name)
		}
		seen[name] = true
	}
}
