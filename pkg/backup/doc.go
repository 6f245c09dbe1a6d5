// Package backup serializes the whole record store to timestamped JSON
// manifests, rotates old manifests and restores the store from one.
//
// # Manifest Layout
//
// One file per backup, named backup_<YYYY-MM-DD_HH-mm-ss>.json:
//
//	{
//	  "timestamp": "2024-06-15T02:00:00Z",
//	  "version": "1.0",
//	  "database": "giftpoints",
//	  "collections": {
//	    "orders": [{"_id": "o-1", ...}],
//	    "attempts": {"error": "cursor closed"}
//	  },
//	  "metadata": {
//	    "totalCollections": 2,
//	    "totalDocuments": 1,
//	    "fileSizeMB": 0.01,
//	    "backupType": "scheduled",
//	    "compressed": false
//	  }
//	}
//
// A collection that could not be read is captured as an error marker and
// does not fail the backup. Restore skips such collections.
//
// # Atomic Writes
//
// Manifests are written to a temporary file in the backup directory and
// renamed into place only after the full write and fsync succeed, so a
// reader never observes a partial manifest.
//
// # Rotation
//
// After every successful backup, manifests whose modification time is older
// than the retention window are removed. Files not named like a manifest are
// never touched.
//
// # Scheduling
//
// Scheduler runs one backup at start and then daily at the configured local
// hour. Manual backups, restores and scheduled runs share one lock.
package backup
