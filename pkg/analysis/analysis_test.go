package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xscraper/pkg/models"
)

func TestSentimentEnglish(t *testing.T) {
	s := Sentiment("this is a good day", "en")

	assert.Equal(t, 3.0, s.Score)
	assert.InDelta(t, 0.6, s.Comparative, 1e-9)
	assert.Equal(t, []string{"good"}, s.Positive)
	assert.Empty(t, s.Negative)
	assert.Equal(t, "normal", s.Intensity)
}

func TestSentimentNegativeAndIntensified(t *testing.T) {
	s := Sentiment("bad bad bad!", "en")

	// -9 * 1.2 is clamped
	assert.Equal(t, -5.0, s.Score)
	assert.Equal(t, "high", s.Intensity)
	assert.Len(t, s.Negative, 3)
}

func TestSentimentEmojis(t *testing.T) {
	s := Sentiment("launch day 🚀", "en")

	require.Len(t, s.Emojis, 1)
	assert.Equal(t, "🚀", s.Emojis[0].Emoji)
	assert.InDelta(t, 0.2, s.Score, 1e-9)
}

func TestSentimentTurkish(t *testing.T) {
	s := Sentiment("Bugün hava çok güzel ama trafik berbat", "tr")

	assert.Equal(t, []string{"güzel"}, s.Positive)
	assert.Equal(t, []string{"berbat"}, s.Negative)
	assert.Equal(t, 0.0, s.Score)
}

func TestSentimentEmpty(t *testing.T) {
	s := Sentiment("   ", "en")

	assert.Zero(t, s.Score)
	assert.NotNil(t, s.Positive)
	assert.NotNil(t, s.Emojis)
}

func TestAnnotate(t *testing.T) {
	r := models.Record{ID: "1", Body: "great"}
	Annotate("en")(&r)

	require.NotNil(t, r.Sentiment)
	assert.Equal(t, 3.0, r.Sentiment.Score)
}

func TestCleanText(t *testing.T) {
	got := CleanText("Check https://x.com/a @bob #golang, IT works!!", "en")
	assert.Equal(t, "check it works", got)
}

func TestCleanTextTurkishCasing(t *testing.T) {
	assert.Equal(t, "ısparta istanbul", CleanText("ISPARTA İSTANBUL", "tr"))
}

func TestWordFrequency(t *testing.T) {
	records := []models.Record{
		{ID: "1", Body: "Go is fast and go is fun"},
		{ID: "2", Body: "Rust is fast"},
		{ID: "3"},
	}

	report := WordFrequency(records, WordOptions{MinWordLength: 2, ExcludeStopWords: true, Language: "en"})

	assert.Equal(t, 3, report.AnalyzedTweets)
	assert.Equal(t, 6, report.TotalWords)
	assert.Equal(t, 4, report.UniqueWords)
	assert.Equal(t, WordCount{Count: 2, Percentage: "33.33%"}, report.WordFrequency["go"])
	assert.NotContains(t, report.WordFrequency, "is")

	top := report.Top(2)
	assert.Equal(t, []RankedWord{{"fast", 2}, {"go", 2}}, top)
}

func TestWordFrequencyKeepsStopWords(t *testing.T) {
	records := []models.Record{{ID: "1", Body: "the cat"}}

	report := WordFrequency(records, WordOptions{MinWordLength: 1})

	assert.Equal(t, 2, report.TotalWords)
	assert.Contains(t, report.WordFrequency, "the")
	assert.Len(t, report.Top(0), 2)
}

func TestStopWordsFallback(t *testing.T) {
	assert.True(t, StopWords("tr-TR")["ve"])
	assert.True(t, StopWords("xx")["the"])
}
