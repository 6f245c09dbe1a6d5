// Package audit records a trace of every record removed by retention or
// replaced by a restore, before the destructive call is issued.
//
// Each Entry holds a bounded snapshot of the record (see package snapshot).
// The entry is persisted to the "audit_logs" collection and mirrored to the
// activity webhook as a deletion_audit event. Both are best effort: a failed
// audit is logged and counted but never blocks the deletion it precedes.
package audit
