package browser

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "xscraper/pkg/errors"
)

type fakeEvaluator struct {
	results map[string][]string
	errs    map[string][]error
	calls   map[string]int
}

func newFakeEvaluator() *fakeEvaluator {
	return &fakeEvaluator{
		results: map[string][]string{},
		errs:    map[string][]error{},
		calls:   map[string]int{},
	}
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, script string) (string, error) {
	n := f.calls[script]
	f.calls[script]++
	if errList := f.errs[script]; n < len(errList) && errList[n] != nil {
		return "", errList[n]
	}
	results := f.results[script]
	if len(results) == 0 {
		return "", nil
	}
	if n >= len(results) {
		n = len(results) - 1
	}
	return results[n], nil
}

func TestSearchURL(t *testing.T) {
	tests := []struct {
		name  string
		query SearchQuery
		want  string
	}{
		{
			name:  "language only",
			query: SearchQuery{Language: "tr"},
			want:  "https://x.com/search?f=live&q=lang%3Atr&src=typed_query",
		},
		{
			name:  "all operators on top tab",
			query: SearchQuery{Language: "en", From: "@golang", Query: "generics", Since: "2024-01-01", Until: "2024-02-01", Tab: TabTop},
			want:  "https://x.com/search?f=top&q=lang%3Aen+from%3Agolang+generics+since%3A2024-01-01+until%3A2024-02-01&src=typed_query",
		},
		{
			name:  "media tab",
			query: SearchQuery{Query: "cats", Tab: TabMedia},
			want:  "https://x.com/search?f=image&q=cats&src=typed_query",
		},
		{
			name:  "unknown tab falls back to latest",
			query: SearchQuery{Query: "cats", Tab: "bogus"},
			want:  "https://x.com/search?f=live&q=cats&src=typed_query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SearchURL(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchURLEmpty(t *testing.T) {
	_, err := SearchURL(SearchQuery{Tab: TabLatest})
	assert.Error(t, err)
}

func TestProfileTabURL(t *testing.T) {
	assert.Equal(t, "https://x.com/golang", ProfileTabURL("@golang", ProfilePosts))
	assert.Equal(t, "https://x.com/golang", ProfileTabURL("golang", ""))
	assert.Equal(t, "https://x.com/golang/with_replies", ProfileTabURL("golang", ProfileWithReplies))
	assert.Equal(t, "https://x.com/golang/media", ProfileTabURL("golang", ProfileMedia))
}

func TestProfileTabs(t *testing.T) {
	tabs, err := ProfileTabs(ProfileAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts", "with_replies", "media"}, tabs)

	tabs, err = ProfileTabs("")
	require.NoError(t, err)
	assert.Equal(t, []string{"posts"}, tabs)

	_, err = ProfileTabs("likes")
	assert.Error(t, err)
}

func TestExtractorDecodesCandidates(t *testing.T) {
	eval := newFakeEvaluator()
	eval.results[extractScript] = []string{`[
		{"url": "/gopher/status/1777?s=20", "username": "gopher", "displayName": "Gopher",
		 "content": "hello", "timestamp": "2024-05-01T10:00:00.000Z",
		 "media": ["https://pbs.twimg.com/media/a.jpg"], "engagement": {"likes": "1.2K"}},
		{"url": "", "username": "ad", "content": "promoted", "media": null, "engagement": {}}
	]`}

	records, err := NewExtractor(eval).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "1777", first.ID)
	assert.Equal(t, "https://x.com/gopher/status/1777", first.Permalink)
	assert.Equal(t, "gopher", first.AuthorHandle)
	assert.Equal(t, "Gopher", first.AuthorDisplayName)
	assert.Equal(t, "hello", first.Body)
	assert.Equal(t, map[string]string{"likes": "1.2K"}, first.Engagement)
	assert.True(t, first.Valid())

	assert.False(t, records[1].Valid())
	assert.Equal(t, []string{}, records[1].Media)
	assert.Nil(t, records[1].Engagement)
}

func TestExtractorPassesTransientErrors(t *testing.T) {
	eval := newFakeEvaluator()
	eval.errs[extractScript] = []error{errs.Transient("evaluate", errors.New("Execution context was destroyed"))}

	_, err := NewExtractor(eval).Extract(context.Background())
	assert.True(t, errs.IsTransient(err))
}

func TestExtractorRejectsGarbage(t *testing.T) {
	eval := newFakeEvaluator()
	eval.results[extractScript] = []string{"not json"}

	_, err := NewExtractor(eval).Extract(context.Background())
	assert.Error(t, err)
	assert.False(t, errs.IsTransient(err))
}

func TestIsContextLost(t *testing.T) {
	assert.True(t, IsContextLost(errors.New("{-32000 Execution context was destroyed. }")))
	assert.True(t, IsContextLost(errors.New("Cannot find context with specified id")))
	assert.True(t, IsContextLost(errors.New("frame detached")))
	assert.False(t, IsContextLost(errors.New("net::ERR_NAME_NOT_RESOLVED")))
	assert.False(t, IsContextLost(nil))
}

func TestScrollerRetriesTransientHeight(t *testing.T) {
	eval := newFakeEvaluator()
	eval.errs[heightScript] = []error{errs.Transient("evaluate", errors.New("detached"))}
	eval.results[heightScript] = []string{"", "1200"}

	height, err := NewScroller(eval).CurrentHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1200), height)
	assert.Equal(t, 2, eval.calls[heightScript])
}

func TestScrollerAdvance(t *testing.T) {
	eval := newFakeEvaluator()

	require.NoError(t, NewScroller(eval).Advance(context.Background()))
	assert.Equal(t, 1, eval.calls[scrollScript])
}

func TestProfileReader(t *testing.T) {
	eval := newFakeEvaluator()
	eval.results[profileScript] = []string{`{
		"profile": {"name": "The Go Gopher", "username": "", "bio": "gophers",
			"location": "Earth", "joinDate": "Joined March 2009", "website": "https://go.dev",
			"images": {"profile_image": "https://pbs.twimg.com/p.jpg", "header_image": ""}},
		"stats": {"following": "12", "followers": "1.5M"}
	}`}

	profile, stats, err := NewProfileReader(eval).Read(context.Background(), "golang")
	require.NoError(t, err)
	assert.Equal(t, "The Go Gopher", profile.Name)
	assert.Equal(t, "golang", profile.Username)
	assert.Equal(t, "https://pbs.twimg.com/p.jpg", profile.Images.ProfileImage)
	assert.Equal(t, "1.5M", stats.Followers)
	assert.Equal(t, "12", stats.Following)
}

func TestCookieFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")

	cookies, err := LoadCookieFile(path)
	require.NoError(t, err)
	assert.Empty(t, cookies)

	require.NoError(t, SaveCookieFile(path, []*proto.NetworkCookie{
		{Name: "auth_token", Value: "abc", Domain: ".x.com", Path: "/", Secure: true},
	}))

	cookies, err = LoadCookieFile(path)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "auth_token", cookies[0].Name)

	params := proto.CookiesToParams(cookies)
	require.Len(t, params, 1)
	assert.Equal(t, ".x.com", params[0].Domain)
}
