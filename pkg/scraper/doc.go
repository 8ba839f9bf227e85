// Package scraper runs feed collections against X.
//
// A Scraper owns one browser per call. For every target it wires the page
// extractor and scroll driver of that browser, a sentiment annotator, a file
// store and an interrupt handler around a collector.Run:
//
//	s := scraper.New(cfg, scraper.WithMonitor(ui.NewConsoleMonitor(false)))
//	report, err := s.RunSearch(ctx, scraper.SearchTarget{
//	    Query: browser.SearchQuery{Query: "golang", Language: "en"},
//	    Limit: 500,
//	})
//	os.Exit(report.ExitCode())
//
// Whatever ends the run (limit, exhaustion, Ctrl+C, a panic) the handler
// merges the accumulator into the output store once more before the Report
// is returned.
//
// RunProfile reads a user's profile header and runs one collection per tab,
// writing each tab's records to its own store next to the profile document.
package scraper
