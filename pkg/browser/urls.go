package browser

import (
	"fmt"
	"net/url"
	"strings"
)

// SearchQuery describes an advanced search
type SearchQuery struct {
	Language string
	From     string
	Query    string
	Since    string
	Until    string
	// Tab is latest, top or media
	Tab string
}

// Search tabs
const (
	TabLatest = "latest"
	TabTop    = "top"
	TabMedia  = "media"
)

// Profile tabs
const (
	ProfilePosts       = "posts"
	ProfileWithReplies = "with_replies"
	ProfileMedia       = "media"
	ProfileAll         = "all"
)

var searchFilters = map[string]string{
	TabLatest: "live",
	TabTop:    "top",
	TabMedia:  "image",
}

// Terms returns the search operators in the order X expects them
func (q SearchQuery) Terms() string {
	var parts []string
	if q.Language != "" {
		parts = append(parts, "lang:"+q.Language)
	}
	if q.From != "" {
		parts = append(parts, "from:"+strings.TrimPrefix(q.From, "@"))
	}
	if q.Query != "" {
		parts = append(parts, q.Query)
	}
	if q.Since != "" {
		parts = append(parts, "since:"+q.Since)
	}
	if q.Until != "" {
		parts = append(parts, "until:"+q.Until)
	}
	return strings.Join(parts, " ")
}

// SearchURL builds the search page URL. Unknown tabs fall back to latest.
func SearchURL(q SearchQuery) (string, error) {
	terms := q.Terms()
	if terms == "" {
		return "", fmt.Errorf("empty search: set a query, user or language")
	}
	filter, ok := searchFilters[q.Tab]
	if !ok {
		filter = searchFilters[TabLatest]
	}

	values := url.Values{}
	values.Set("q", terms)
	values.Set("src", "typed_query")
	values.Set("f", filter)
	return baseURL + "/search?" + values.Encode(), nil
}

// ProfileTabURL returns the URL of one tab of a user page
func ProfileTabURL(handle, tab string) string {
	handle = url.PathEscape(strings.TrimPrefix(handle, "@"))
	if tab == "" || tab == ProfilePosts {
		return baseURL + "/" + handle
	}
	return baseURL + "/" + handle + "/" + tab
}

// ProfileTabs expands a tab selection; "all" means posts, replies and media
func ProfileTabs(tab string) ([]string, error) {
	switch tab {
	case "", ProfilePosts:
		return []string{ProfilePosts}, nil
	case ProfileWithReplies, ProfileMedia:
		return []string{tab}, nil
	case ProfileAll:
		return []string{ProfilePosts, ProfileWithReplies, ProfileMedia}, nil
	default:
		return nil, fmt.Errorf("unknown profile tab %q", tab)
	}
}
