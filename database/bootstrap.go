package database

import (
	"database/sql"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/akozyrev/surveys-api/log"
)

// EnsureAdminUser creates a staff user named "admin" with a random one-time
// password when the user table is empty, so a fresh installation can be
// logged into at all. The password is printed once and never stored in clear.
func EnsureAdminUser(db *sql.DB) error {
	var n int
	err := db.QueryRow("SELECT count(*) FROM user").Scan(&n)
	if err != nil {
		return errors.Wrap(err, "count users")
	}
	if n > 0 {
		return nil
	}

	password, err := uuid.NewV4()
	if err != nil {
		return errors.Wrap(err, "generate admin password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password.String()), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	_, err = db.Exec(
		"INSERT INTO user (username, password_hash, is_staff) VALUES (?, ?, 1)",
		"admin",
		string(hash),
	)
	if err != nil {
		return errors.Wrap(err, "insert admin user")
	}

	log.Warnf("created user 'admin' with password %s - change it", password)
	return nil
}
