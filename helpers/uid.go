package helpers

import (
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/models"
)

// GetOrCreateUID returns the uid of $userID, assigning the next one on first use
func GetOrCreateUID(userID string) (uid int64, err error) {
	db := cache.GetDB()

	_, err = db.Exec(
		"INSERT INTO "+models.UIDsTable+" (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING",
		userID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "inserting uid failed")
	}

	err = db.QueryRow("SELECT uid FROM "+models.UIDsTable+" WHERE user_id = $1", userID).Scan(&uid)
	if err != nil {
		return 0, errors.Wrap(err, "reading uid failed")
	}
	return uid, nil
}

// GetUID returns the uid of $userID without assigning one, found is false for unknown users
func GetUID(userID string) (uid int64, found bool, err error) {
	err = cache.GetDB().QueryRow("SELECT uid FROM "+models.UIDsTable+" WHERE user_id = $1", userID).Scan(&uid)
	if IsNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "reading uid failed")
	}
	return uid, true, nil
}

// LookupUID returns the user owning $uid
func LookupUID(uid int64) (entry models.UIDEntry, found bool, err error) {
	err = cache.GetDB().QueryRow(
		"SELECT uid, user_id, created_at FROM "+models.UIDsTable+" WHERE uid = $1", uid,
	).Scan(&entry.UID, &entry.UserID, &entry.CreatedAt)
	if IsNoRows(err) {
		return entry, false, nil
	}
	if err != nil {
		return entry, false, errors.Wrap(err, "looking up uid failed")
	}
	return entry, true, nil
}
