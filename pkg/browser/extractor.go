package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"xscraper/pkg/models"
)

var statusIDPattern = regexp.MustCompile(`/status/(\d+)`)

type candidate struct {
	URL         string            `json:"url"`
	Username    string            `json:"username"`
	DisplayName string            `json:"displayName"`
	Content     string            `json:"content"`
	Timestamp   string            `json:"timestamp"`
	Media       []string          `json:"media"`
	Engagement  map[string]string `json:"engagement"`
}

// Extractor reads the posts currently rendered on the page
type Extractor struct {
	eval Evaluator
}

// NewExtractor creates an extractor evaluating in the given page
func NewExtractor(eval Evaluator) *Extractor {
	return &Extractor{eval: eval}
}

// Extract returns one record per rendered post. Posts without a status
// link come back without an ID and are left for the caller to drop.
func (e *Extractor) Extract(ctx context.Context) ([]models.Record, error) {
	raw, err := e.eval.Evaluate(ctx, extractScript)
	if err != nil {
		return nil, err
	}
	return decodeCandidates(raw)
}

func decodeCandidates(raw string) ([]models.Record, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var candidates []candidate
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		return nil, fmt.Errorf("decode extracted posts: %w", err)
	}

	records := make([]models.Record, 0, len(candidates))
	for _, c := range candidates {
		permalink := absoluteURL(c.URL)
		record := models.Record{
			ID:                statusID(permalink),
			AuthorHandle:      strings.TrimPrefix(c.Username, "@"),
			AuthorDisplayName: c.DisplayName,
			Body:              c.Content,
			CreatedAt:         c.Timestamp,
			Permalink:         permalink,
			Media:             c.Media,
		}
		if record.Media == nil {
			record.Media = []string{}
		}
		if len(c.Engagement) > 0 {
			record.Engagement = c.Engagement
		}
		records = append(records, record)
	}
	return records, nil
}

// statusID pulls the numeric post ID out of a permalink
func statusID(link string) string {
	if m := statusIDPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

// absoluteURL resolves site-relative links and drops query strings
func absoluteURL(link string) string {
	if link == "" {
		return ""
	}
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	if strings.HasPrefix(link, "/") {
		return baseURL + link
	}
	return link
}
