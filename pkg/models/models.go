package models

// Record is one collected post. ID is the stable identity key; candidates
// without it are discarded by the collector.
type Record struct {
	ID                string            `json:"tweetId"`
	AuthorHandle      string            `json:"username"`
	AuthorDisplayName string            `json:"displayName"`
	Body              string            `json:"content"`
	CreatedAt         string            `json:"timestamp"`
	Permalink         string            `json:"tweetUrl"`
	Media             []string          `json:"images"`
	Engagement        map[string]string `json:"engagement,omitempty"`
	Sentiment         *Sentiment        `json:"sentiment,omitempty"`
}

// Valid reports whether the record carries an identity key
func (r Record) Valid() bool {
	return r.ID != ""
}

type Sentiment struct {
	Score       float64      `json:"score"`
	Comparative float64      `json:"comparative"`
	Positive    []string     `json:"positive"`
	Negative    []string     `json:"negative"`
	Emojis      []EmojiScore `json:"emojis"`
	Intensity   string       `json:"intensity"`
}

type EmojiScore struct {
	Emoji string  `json:"emoji"`
	Score float64 `json:"score"`
}

// Profile is the header section of a user page
type Profile struct {
	Name      string        `json:"name"`
	Username  string        `json:"username"`
	Bio       string        `json:"bio"`
	Location  string        `json:"location"`
	BirthDate string        `json:"birthDate"`
	JoinDate  string        `json:"joinDate"`
	Website   string        `json:"website"`
	Images    ProfileImages `json:"images"`
}

type ProfileImages struct {
	ProfileImage string `json:"profile_image"`
	HeaderImage  string `json:"header_image"`
}

type ProfileStats struct {
	Following string `json:"following"`
	Followers string `json:"followers"`
}
