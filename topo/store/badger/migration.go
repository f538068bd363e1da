package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"
)

var (
	ErrNewerDatabase      = errors.New("snapshot database was written by a newer gateway")
	ErrUnsupportedVersion = errors.New("snapshot database version predates the oldest migration")
	ErrVersionNotBumped   = errors.New("migration step left the version unchanged")
)

var versionKey = []byte("hub:version")

// MigrationStep upgrades the snapshot layout by one version. It runs inside
// the update transaction and must record the version it reached.
type MigrationStep func(txn *badger.Txn) error

// Migration is a chain of steps where Steps[i] upgrades
// StartVersion+i to StartVersion+i+1.
type Migration struct {
	StartVersion  int
	LatestVersion int
	Steps         []MigrationStep
	// DatabaseID names the database in errors, usually its directory.
	DatabaseID string
}

// MigrateLatest brings db up to the layout this package reads and writes.
func MigrateLatest(db *badger.DB, id string) error {
	m := &Migration{
		Steps:         migrations[:],
		LatestVersion: dbVersion,
		DatabaseID:    id,
	}
	return m.Migrate(db)
}

// Migrate runs the steps between the stored version and LatestVersion in a
// single transaction. Nothing is committed if any step fails.
func (m *Migration) Migrate(db *badger.DB) error {
	return db.Update(func(txn *badger.Txn) error {
		v, err := getVersion(txn)
		if err != nil {
			return m.fail(v, err)
		}
		switch {
		case v > m.LatestVersion:
			return m.fail(v, ErrNewerDatabase)
		case v < m.StartVersion:
			return m.fail(v, ErrUnsupportedVersion)
		}
		for v < m.LatestVersion {
			next, err := m.step(txn, v)
			if err != nil {
				return m.fail(v, err)
			}
			v = next
		}
		return nil
	})
}

func (m *Migration) step(txn *badger.Txn, from int) (int, error) {
	if err := m.Steps[from-m.StartVersion](txn); err != nil {
		return from, err
	}
	to, err := getVersion(txn)
	if err != nil {
		return from, err
	}
	if to <= from {
		return from, ErrVersionNotBumped
	}
	return to, nil
}

func (m *Migration) fail(from int, cause error) MigrationError {
	return MigrationError{From: from, To: m.LatestVersion, Database: m.DatabaseID, Cause: cause}
}

// checkVersion guards a step against running on the wrong layout.
func checkVersion(txn *badger.Txn, want int) error {
	got, err := getVersion(txn)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("step expects version %d, database is at %d", want, got)
	}
	return nil
}

// getVersion returns 0 for a database that never recorded one.
func getVersion(txn *badger.Txn) (int, error) {
	var version int
	err := getItem(txn, versionKey, &version)
	if err == badger.ErrKeyNotFound {
		return 0, nil
	}
	return version, err
}

func setVersion(txn *badger.Txn, version int) error {
	return setItem(txn, versionKey, &version)
}

// MigrationError wraps the cause of a failed upgrade.
type MigrationError struct {
	From     int
	To       int
	Database string
	Cause    error
}

func (err MigrationError) Error() string {
	return fmt.Sprintf("upgrading snapshot database %q from version %d to %d: %s", err.Database, err.From, err.To, err.Cause)
}

func (err MigrationError) Unwrap() error {
	return err.Cause
}
