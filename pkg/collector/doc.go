// Package collector implements the incremental scroll-and-extract loop.
//
// A Run repeatedly asks a PageExtractor for the posts currently on the
// page, keeps the first record seen for every ID, flushes the accumulator
// through a Flusher, scrolls one viewport with the ScrollDriver and waits.
// The loop ends when the record limit is reached or when the content height
// has not grown for MaxNoGrowthStreak consecutive scrolls. A single stalled
// scroll is not the end of the feed.
//
// Transient extraction failures, such as the page's execution context being
// torn down mid-read, are retried in place after a backoff and never count
// toward the streak. Every other collaborator failure ends the run.
//
// The final flush is the caller's job, normally through interrupt.Handler,
// which reads the accumulator with Run.Snapshot.
package collector
