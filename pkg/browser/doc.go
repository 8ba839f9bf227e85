// Package browser drives a stealth Chrome session with go-rod.
//
// A Session owns the Chrome process, the cookie jar and login. Extractor,
// Scroller and ProfileReader evaluate JavaScript through the Evaluator
// interface so they can be tested without a browser. DOM selectors and
// page scripts live in selectors.go.
package browser
