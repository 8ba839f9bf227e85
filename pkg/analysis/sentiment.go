package analysis

import (
	"strings"

	"xscraper/pkg/models"
)

const (
	emojiWeight = 0.5
	intensifier = 1.2
	scoreBound  = 5.0
)

// Sentiment scores text with a word lexicon and an emoji lexicon. Turkish
// text ("tr") uses a small substring lexicon instead of AFINN. An
// exclamation mark and a run of three capitals each raise the intensity.
func Sentiment(text, lang string) models.Sentiment {
	result := models.Sentiment{
		Positive:  []string{},
		Negative:  []string{},
		Emojis:    []models.EmojiScore{},
		Intensity: "normal",
	}
	if strings.TrimSpace(text) == "" {
		return result
	}

	var b strings.Builder
	emojiTotal := 0.0
	for _, r := range text {
		if score, ok := emojiScores[r]; ok {
			result.Emojis = append(result.Emojis, models.EmojiScore{Emoji: string(r), Score: score})
			emojiTotal += score
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	withoutEmojis := b.String()

	var tokens []string
	textScore := 0
	if normalizeLang(lang) == "tr" {
		tokens = tokenize(lower(withoutEmojis, "tr"))
		for _, token := range tokens {
			switch {
			case containsAny(token, turkishPositive):
				result.Positive = append(result.Positive, token)
				textScore++
			case containsAny(token, turkishNegative):
				result.Negative = append(result.Negative, token)
				textScore--
			}
		}
	} else {
		tokens = tokenize(withoutEmojis)
		for _, token := range tokens {
			score := afinn[strings.ToLower(token)]
			switch {
			case score > 0:
				result.Positive = append(result.Positive, token)
			case score < 0:
				result.Negative = append(result.Negative, token)
			}
			textScore += score
		}
	}

	factor := 1.0
	if strings.Contains(text, "!") {
		factor *= intensifier
	}
	if capsPattern.MatchString(text) {
		factor *= intensifier
	}

	score := (float64(textScore) + emojiTotal*emojiWeight) * factor
	if score > scoreBound {
		score = scoreBound
	} else if score < -scoreBound {
		score = -scoreBound
	}

	result.Score = score
	if len(tokens) > 0 {
		result.Comparative = score / float64(len(tokens))
	}
	if factor > 1 {
		result.Intensity = "high"
	}
	return result
}

func containsAny(token string, words []string) bool {
	for _, w := range words {
		if strings.Contains(token, w) {
			return true
		}
	}
	return false
}

// Annotate returns a record decorator attaching sentiment computed in lang.
// Records with an empty body get a zero score.
func Annotate(lang string) func(*models.Record) {
	return func(r *models.Record) {
		s := Sentiment(r.Body, lang)
		r.Sentiment = &s
	}
}
