// Custodian runs the data-retention, backup and audit subsystem of the
// GiftPoints web application.
//
// It provides:
//   - Scheduled deletion of expired orders and attempts, audited first
//   - Daily JSON backups of the record store with rotation
//   - Restore from a chosen backup
//   - Activity events delivered to a Discord-compatible webhook
//
// Usage:
//
//	# Start the schedulers (and the admin API when enabled)
//	custodian run --config /etc/custodian/config.yaml
//
//	# Run retention once
//	custodian cleanup
//
//	# Take, list and restore backups
//	custodian backup create
//	custodian backup list
//	custodian backup restore backup_2024-06-15_02-00-00.json --yes
//
//	# Show version information
//	custodian version
package main

func main() {
	Execute()
}
