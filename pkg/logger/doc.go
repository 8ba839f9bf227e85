// Package logger provides the structured logging interface used across xscraper.
//
// It wraps zerolog behind the Logger interface so that collection code can
// log with fields without depending on zerolog directly, and so tests can
// swap in NewNopLogger or NewTestLogger.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//
//	log := logger.GetLogger().WithField("component", "collector")
//	log.InfoWithFields("Flushed accumulator", map[string]interface{}{
//	    "added": 12,
//	    "total": 480,
//	})
//
// Console output is written to stderr. When Logging.File is set, lines are
// additionally appended to that file.
package logger
