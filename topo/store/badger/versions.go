package badger

import (
	"github.com/dgraph-io/badger/v2"
)

const dbVersion = 2

var migrations = [dbVersion]MigrationStep{
	// Version 0 -> 1
	func(txn *badger.Txn) error {
		if err := checkVersion(txn, 0); err != nil {
			return err
		}
		return setVersion(txn, 1)
	},

	// Version 1 -> 2 (snapshots gained SpvList, older ones cannot rebuild
	// the light client index so they are dropped and resynced from peers)
	func(txn *badger.Txn) error {
		if err := checkVersion(txn, 1); err != nil {
			return err
		}
		var stale [][]byte
		err := loopKeys(txn, snapshotPrefix, func(suffix []byte) error {
			stale = append(stale, snapshotKey(string(suffix)))
			return nil
		})
		if err != nil {
			return err
		}
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return setVersion(txn, 2)
	},
}
