package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"xscraper/pkg/models"
)

// ProfileReader reads the header section of a user page
type ProfileReader struct {
	eval Evaluator
}

func NewProfileReader(eval Evaluator) *ProfileReader {
	return &ProfileReader{eval: eval}
}

// Read returns the profile and follower stats of the page currently open.
// A missing handle falls back to the one requested.
func (r *ProfileReader) Read(ctx context.Context, handle string) (models.Profile, models.ProfileStats, error) {
	raw, err := r.eval.Evaluate(ctx, profileScript)
	if err != nil {
		return models.Profile{}, models.ProfileStats{}, err
	}
	return decodeProfile(raw, handle)
}

func decodeProfile(raw, handle string) (models.Profile, models.ProfileStats, error) {
	var doc struct {
		Profile models.Profile      `json:"profile"`
		Stats   models.ProfileStats `json:"stats"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return models.Profile{}, models.ProfileStats{}, fmt.Errorf("decode profile: %w", err)
	}
	if doc.Profile.Username == "" {
		doc.Profile.Username = handle
	}
	return doc.Profile, doc.Stats, nil
}
