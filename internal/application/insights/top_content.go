package insights

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
)

type ContentSummary struct {
	PostID          string    `json:"post_id"`
	Username        string    `json:"username"`
	Caption         string    `json:"caption"`
	MediaType       string    `json:"media_type"`
	LikesCount      int64     `json:"likes_count"`
	CommentsCount   int64     `json:"comments_count"`
	EngagementRate  float64   `json:"engagement_rate"`
	PostedAt        time.Time `json:"posted_at"`
	ContentCategory string    `json:"content_category,omitempty"`
}

type CompetitorTop struct {
	Username string           `json:"username"`
	Posts    []ContentSummary `json:"posts"`
}

type TopContent struct {
	Days         int              `json:"period_days"`
	ByCompetitor []CompetitorTop  `json:"by_competitor"`
	OverallTop   []ContentSummary `json:"overall_top"`
	TotalPosts   int              `json:"total_posts"`
}

// TopContent ranks the competitors' recent posts by engagement rate.
func (s *Service) TopContent(ctx context.Context, competitors []string, days int) (*TopContent, error) {
	if days <= 0 {
		days = DefaultTopContentDays
	}
	if len(competitors) == 0 {
		competitors = s.Cohort
	}
	competitors = content.UniqueUsernames(competitors)
	now := s.Clock.Now().UTC()
	since := now.AddDate(0, 0, -days)

	out := &TopContent{Days: days, ByCompetitor: []CompetitorTop{}, OverallTop: []ContentSummary{}}
	var all []ContentSummary
	for _, username := range competitors {
		posts, err := s.Content.ListPosts(ctx, content.PostFilter{Usernames: []string{username}, Since: since, Until: now})
		if err != nil {
			return nil, fmt.Errorf("list posts %s: %w", username, err)
		}
		if len(posts) == 0 {
			continue
		}
		summaries := make([]ContentSummary, len(posts))
		for i, p := range posts {
			summaries[i] = summarize(p)
		}
		rankByEngagement(summaries)
		all = append(all, summaries...)
		if len(summaries) > topPerCompetitor {
			summaries = summaries[:topPerCompetitor]
		}
		out.ByCompetitor = append(out.ByCompetitor, CompetitorTop{Username: username, Posts: summaries})
	}

	out.TotalPosts = len(all)
	rankByEngagement(all)
	if len(all) > topOverall {
		all = all[:topOverall]
	}
	out.OverallTop = append(out.OverallTop, all...)
	return out, nil
}

func rankByEngagement(s []ContentSummary) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].EngagementRate > s[j].EngagementRate })
}

func summarize(p *content.Post) ContentSummary {
	return ContentSummary{
		PostID:          p.PostID,
		Username:        p.AccountUsername,
		Caption:         preview(p.Caption),
		MediaType:       string(p.MediaType),
		LikesCount:      p.LikesCount,
		CommentsCount:   p.CommentsCount,
		EngagementRate:  p.EngagementRate,
		PostedAt:        p.PostedAt,
		ContentCategory: string(p.ContentCategory),
	}
}

func preview(caption string) string {
	r := []rune(caption)
	if len(r) <= captionPreviewRunes {
		return caption
	}
	return string(r[:captionPreviewRunes]) + "..."
}
