// Package interrupt owns the end of a collection run.
//
// A Handler is created per run with the run's final flush. It cancels its
// Context on SIGINT/SIGTERM, on a 'q' key press, on an explicit Trigger or on
// a panic caught by Guard. Finalize then flushes exactly once and reports
// one of three terminal states: completed, stopped or failed. No process
// exit happens here; the caller maps Outcome.ExitCode to os.Exit.
package interrupt
