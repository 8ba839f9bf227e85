package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xscraper/pkg/analysis"
	"xscraper/pkg/models"
	"xscraper/pkg/store"
)

// ProfileDocument is the analysis written for one user page
type ProfileDocument struct {
	Username     string                         `json:"username"`
	AnalyzedAt   time.Time                      `json:"analyzedAt"`
	Profile      models.Profile                 `json:"profile"`
	Stats        models.ProfileStats            `json:"stats"`
	Tweets       map[string][]models.Record     `json:"tweets"`
	WordAnalysis map[string]analysis.WordReport `json:"wordAnalysis"`
}

// NewProfileDocument creates an empty document for username
func NewProfileDocument(username string) *ProfileDocument {
	return &ProfileDocument{
		Username:     strings.TrimPrefix(username, "@"),
		AnalyzedAt:   time.Now().UTC(),
		Profile:      models.Profile{Username: strings.TrimPrefix(username, "@")},
		Tweets:       make(map[string][]models.Record),
		WordAnalysis: make(map[string]analysis.WordReport),
	}
}

// AddTab stores the posts of one tab together with their word report
func (d *ProfileDocument) AddTab(tab string, records []models.Record, report analysis.WordReport) {
	if records == nil {
		records = []models.Record{}
	}
	d.Tweets[tab] = records
	d.WordAnalysis[tab] = report
}

// Tabs returns the collected tab names in the given order, skipping absent ones
func (d *ProfileDocument) Tabs(order []string) []string {
	var tabs []string
	for _, tab := range order {
		if _, ok := d.Tweets[tab]; ok {
			tabs = append(tabs, tab)
		}
	}
	return tabs
}

// TotalTweets counts posts across all tabs
func (d *ProfileDocument) TotalTweets() int {
	total := 0
	for _, records := range d.Tweets {
		total += len(records)
	}
	return total
}

// Save atomically writes the document to path
func (d *ProfileDocument) Save(path string) error {
	if err := store.WriteJSON(path, d); err != nil {
		return fmt.Errorf("failed to save profile document: %w", err)
	}
	return nil
}

// Load reads a profile document
func Load(path string) (*ProfileDocument, error) {
	var doc ProfileDocument
	if err := store.ReadJSON(path, &doc); err != nil {
		return nil, err
	}
	if doc.Tweets == nil {
		doc.Tweets = make(map[string][]models.Record)
	}
	if doc.WordAnalysis == nil {
		doc.WordAnalysis = make(map[string]analysis.WordReport)
	}
	return &doc, nil
}

// Exists checks whether a document was already written at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// TabStorePath returns the per-tab record store next to the document,
// e.g. out/golang.json -> out/golang.posts.json
func TabStorePath(documentPath, tab string) string {
	ext := filepath.Ext(documentPath)
	base := strings.TrimSuffix(documentPath, ext)
	if ext == "" {
		ext = ".json"
	}
	return base + "." + tab + ext
}

// DefaultPath returns out/<username>_profile.json under dir
func DefaultPath(dir, username string) string {
	return filepath.Join(dir, strings.TrimPrefix(username, "@")+"_profile.json")
}
