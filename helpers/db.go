package helpers

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
)

// ConnectDB connects to postgres and stores the pool in the cache
func ConnectDB(dsn string) (*sql.DB, error) {
	log := cache.GetLogger()
	log.WithField("module", "db").Info("Connecting to postgres")

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres failed")
	}

	db.SetMaxOpenConns(ConfigInt("postgres.max_open_conns", 20))
	db.SetMaxIdleConns(ConfigInt("postgres.max_idle_conns", 5))
	db.SetConnMaxLifetime(30 * time.Minute)

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pinging postgres failed")
	}

	cache.SetDB(db)
	log.WithField("module", "db").Info("Connected to postgres")
	return db, nil
}

// IsNoRows reports if $err means the query matched nothing
func IsNoRows(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows
}

// IsUniqueViolation reports if $err was raised by a unique or primary key constraint
func IsUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == "23505"
}
