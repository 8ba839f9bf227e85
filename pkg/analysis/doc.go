// Package analysis scores the sentiment of collected posts and computes
// word frequency reports over their bodies.
//
// Sentiment uses an AFINN style lexicon for English and a small keyword
// lexicon for Turkish, plus emoji scores. Word frequency lowercases with
// the casing rules of the configured language before counting.
package analysis
