// Package retention deletes expired records on a schedule.
//
// Each Class names a collection, the timestamp field that ages its records,
// an optional set of terminal statuses and a maximum age. A run:
//
//  1. takes the "retention" lock, skipping if another run holds it
//  2. skips entirely if the store is not connected
//  3. per class, finds records at or before now - MaxAge
//  4. calls the audit hook for every candidate, then deletes them all in one
//     DeleteMany
//  5. emits one cleanup summary with per-class counts, or nothing when no
//     class had candidates
//
// A failing class is reported and skipped; the other classes still run and
// the next run starts from scratch.
//
//	pruner := retention.NewPruner(s, hook, locker, retention.DefaultConfig(),
//	    retention.WithNotifier(activityLogger))
//	scheduler := retention.NewScheduler(pruner)
//	scheduler.Start(ctx)
package retention
