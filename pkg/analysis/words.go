package analysis

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"xscraper/pkg/models"
)

// WordOptions controls word frequency analysis
type WordOptions struct {
	MinWordLength    int
	ExcludeStopWords bool
	Language         string
}

// WordCount is the frequency of one word
type WordCount struct {
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

// WordReport is the word frequency of a set of posts
type WordReport struct {
	AnalyzedTweets int                  `json:"analyzedTweets"`
	TotalWords     int                  `json:"totalWords"`
	UniqueWords    int                  `json:"uniqueWords"`
	WordFrequency  map[string]WordCount `json:"wordFrequency"`
}

// RankedWord pairs a word with its count
type RankedWord struct {
	Word  string
	Count int
}

// WordFrequency counts the words in the record bodies after cleaning
func WordFrequency(records []models.Record, opts WordOptions) WordReport {
	minLen := opts.MinWordLength
	if minLen < 1 {
		minLen = 1
	}
	var stop map[string]bool
	if opts.ExcludeStopWords {
		stop = StopWords(opts.Language)
	}

	counts := make(map[string]int)
	total := 0
	for _, r := range records {
		if r.Body == "" {
			continue
		}
		for _, word := range tokenize(CleanText(r.Body, opts.Language)) {
			if utf8.RuneCountInString(word) < minLen {
				continue
			}
			if stop[word] {
				continue
			}
			counts[word]++
			total++
		}
	}

	freq := make(map[string]WordCount, len(counts))
	for word, count := range counts {
		freq[word] = WordCount{
			Count:      count,
			Percentage: fmt.Sprintf("%.2f%%", float64(count)/float64(total)*100),
		}
	}

	return WordReport{
		AnalyzedTweets: len(records),
		TotalWords:     total,
		UniqueWords:    len(counts),
		WordFrequency:  freq,
	}
}

// Top returns the n most frequent words, ties broken alphabetically.
// n <= 0 returns every word.
func (r WordReport) Top(n int) []RankedWord {
	ranked := make([]RankedWord, 0, len(r.WordFrequency))
	for word, wc := range r.WordFrequency {
		ranked = append(ranked, RankedWord{Word: word, Count: wc.Count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Word < ranked[j].Word
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
