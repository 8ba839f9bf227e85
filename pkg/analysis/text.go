package analysis

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	mentionPattern = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	specialPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	capsPattern    = regexp.MustCompile(`[A-Z]{3,}`)
)

func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}

// lower lowercases with the casing rules of lang, so that Turkish "I"
// becomes "ı" and "İ" becomes "i"
func lower(text, lang string) string {
	tag, err := language.Parse(normalizeLang(lang))
	if err != nil {
		tag = language.English
	}
	return cases.Lower(tag).String(norm.NFC.String(text))
}

// tokenize splits text into runs of letters, digits and underscores
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_'
	})
}

// CleanText lowercases text and strips URLs, mentions, hashtags and
// punctuation, collapsing whitespace
func CleanText(text, lang string) string {
	if text == "" {
		return ""
	}
	cleaned := lower(text, lang)
	cleaned = urlPattern.ReplaceAllString(cleaned, " ")
	cleaned = mentionPattern.ReplaceAllString(cleaned, " ")
	cleaned = hashtagPattern.ReplaceAllString(cleaned, " ")
	cleaned = specialPattern.ReplaceAllString(cleaned, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}
