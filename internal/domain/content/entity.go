package content

import "time"

// MediaType enum
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaCarousel MediaType = "carousel"
	MediaUnknown  MediaType = "unknown"
)

// ParseMediaType normalises the media type reported by the content source.
// Anything unrecognised becomes MediaUnknown.
func ParseMediaType(s string) MediaType {
	switch MediaType(s) {
	case MediaImage, MediaVideo, MediaCarousel:
		return MediaType(s)
	}
	return MediaUnknown
}

// Account of a tracked competitor.
type Account struct {
	Username       string    `json:"username"`
	FullName       string    `json:"full_name,omitempty"`
	Biography      string    `json:"biography,omitempty"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
	PostsCount     int64     `json:"posts_count"`
	IsVerified     bool      `json:"is_verified"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Aggregate Root: Post
//
// ContentCategory and SentimentScore are derived fields; only the analysis
// pipeline writes them.
type Post struct {
	PostID          string    `json:"post_id"`
	AccountUsername string    `json:"account_username"`
	Caption         string    `json:"caption,omitempty"`
	MediaType       MediaType `json:"media_type"`
	Hashtags        []string  `json:"hashtags"`
	Mentions        []string  `json:"mentions"`
	LikesCount      int64     `json:"likes_count"`
	CommentsCount   int64     `json:"comments_count"`
	EngagementRate  float64   `json:"engagement_rate"`
	PostedAt        time.Time `json:"posted_at"`
	ContentCategory Category  `json:"content_category,omitempty"`
	SentimentScore  float64   `json:"sentiment_score"`
}

// HasPostedAt reports whether the source supplied a timestamp.
func (p *Post) HasPostedAt() bool { return !p.PostedAt.IsZero() }

// Analysis is the write-once analysis record of a single post.
type Analysis struct {
	PostID               string    `json:"post_id"`
	ContentCategory      Category  `json:"content_category"`
	CategoryConfidence   float64   `json:"category_confidence"`
	SentimentScore       float64   `json:"sentiment_score"`
	SentimentLabel       string    `json:"sentiment_label"`
	Confidence           float64   `json:"confidence"`
	Keywords             []string  `json:"keywords"`
	Topics               []string  `json:"topics"`
	ContentQualityScore  float64   `json:"content_quality_score"`
	EngagementPrediction float64   `json:"engagement_prediction"`
	CreatedAt            time.Time `json:"created_at"`
}

// PostFilter selects posts. Zero values mean "no constraint".
type PostFilter struct {
	Usernames []string
	Since     time.Time
	Until     time.Time
	Category  Category
	Page      int
	PageSize  int
}

// UniqueUsernames drops repeated and empty usernames, keeping first occurrence order.
func UniqueUsernames(usernames []string) []string {
	seen := make(map[string]struct{}, len(usernames))
	out := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// LocalOffsetHours is the fixed offset of the audience's local time from UTC.
const LocalOffsetHours = 3

// LocalHour converts a UTC instant to the audience's local hour of day.
func LocalHour(t time.Time) int {
	return (t.UTC().Hour() + LocalOffsetHours) % 24
}
