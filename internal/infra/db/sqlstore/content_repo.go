package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
)

const postColumns = `post_id, account_username, caption, media_type, hashtags, mentions,
  likes_count, comments_count, engagement_rate, posted_at, content_category, sentiment_score`

// analysisLookupChunk bounds the IN list of ListAnalyses.
const analysisLookupChunk = 500

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (*content.Post, error) {
	var (
		p         content.Post
		caption   sql.NullString
		media     string
		hashtags  StringList
		mentions  StringList
		postedAt  sql.NullTime
		category  sql.NullString
		sentiment sql.NullFloat64
	)
	if err := r.Scan(&p.PostID, &p.AccountUsername, &caption, &media, &hashtags, &mentions,
		&p.LikesCount, &p.CommentsCount, &p.EngagementRate, &postedAt, &category, &sentiment); err != nil {
		return nil, err
	}
	p.Caption = caption.String
	p.MediaType = content.ParseMediaType(media)
	p.Hashtags = []string(hashtags)
	p.Mentions = []string(mentions)
	if postedAt.Valid {
		p.PostedAt = postedAt.Time.UTC()
	}
	p.ContentCategory = content.Category(category.String)
	p.SentimentScore = sentiment.Float64
	return &p, nil
}

func (s *Store) GetPost(ctx context.Context, postID string) (*content.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts WHERE post_id = ?`
	p, err := scanPost(s.queryRow(ctx, q, postID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	return p, err
}

func postWhere(f content.PostFilter) (string, []any) {
	var conds []string
	var args []any
	if len(f.Usernames) > 0 {
		conds = append(conds, "account_username IN ("+placeholders(len(f.Usernames))+")")
		for _, u := range f.Usernames {
			args = append(args, u)
		}
	}
	if !f.Since.IsZero() {
		conds = append(conds, "posted_at >= ?")
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		conds = append(conds, "posted_at <= ?")
		args = append(args, f.Until.UTC())
	}
	if f.Category != "" {
		conds = append(conds, "content_category = ?")
		args = append(args, string(f.Category))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListPosts returns matching posts newest first.
func (s *Store) ListPosts(ctx context.Context, f content.PostFilter) ([]*content.Post, error) {
	where, args := postWhere(f)
	q := `SELECT ` + postColumns + ` FROM posts` + where + ` ORDER BY posted_at DESC, post_id DESC`
	if f.PageSize > 0 {
		page := f.Page
		if page <= 0 {
			page = 1
		}
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.PageSize, (page-1)*f.PageSize)
	}

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*content.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CountPosts(ctx context.Context, f content.PostFilter) (int, error) {
	where, args := postWhere(f)
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM posts`+where, args...).Scan(&n)
	return n, err
}

// UpsertPost inserts or refreshes source fields. The pipeline-owned
// content_category and sentiment_score are left untouched on update.
func (s *Store) UpsertPost(ctx context.Context, p *content.Post) error {
	_, err := s.exec(ctx, s.d.UpsertPostSQL,
		p.PostID,
		p.AccountUsername,
		nullString(p.Caption),
		string(p.MediaType),
		StringList(p.Hashtags),
		StringList(p.Mentions),
		p.LikesCount,
		p.CommentsCount,
		p.EngagementRate,
		nullTime(p.PostedAt),
	)
	return err
}

func (s *Store) UpdateDerived(ctx context.Context, postID string, category content.Category, sentiment float64) error {
	const q = `UPDATE posts SET content_category = ?, sentiment_score = ? WHERE post_id = ?`
	res, err := s.exec(ctx, q, string(category), sentiment, postID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return content.ErrNotFound
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, username string) (*content.Account, error) {
	const q = `
SELECT username, full_name, biography, followers_count, following_count, posts_count, is_verified, updated_at
FROM competitor_accounts
WHERE username = ?`
	var (
		a        content.Account
		fullName sql.NullString
		bio      sql.NullString
		updated  sql.NullTime
	)
	err := s.queryRow(ctx, q, username).Scan(&a.Username, &fullName, &bio,
		&a.FollowersCount, &a.FollowingCount, &a.PostsCount, &a.IsVerified, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.FullName = fullName.String
	a.Biography = bio.String
	if updated.Valid {
		a.UpdatedAt = updated.Time.UTC()
	}
	return &a, nil
}

func (s *Store) UpsertAccount(ctx context.Context, a *content.Account) error {
	updated := a.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err := s.exec(ctx, s.d.UpsertAccountSQL,
		a.Username,
		nullString(a.FullName),
		nullString(a.Biography),
		a.FollowersCount,
		a.FollowingCount,
		a.PostsCount,
		a.IsVerified,
		updated.UTC(),
	)
	return err
}

const analysisColumns = `a.post_id, a.content_category, a.category_confidence, a.sentiment_score, a.sentiment_label,
  a.confidence, a.keywords, a.topics, a.content_quality_score, a.engagement_prediction, a.created_at`

func scanAnalysis(r rowScanner) (*content.Analysis, error) {
	var (
		a        content.Analysis
		category string
		keywords StringList
		topics   StringList
	)
	if err := r.Scan(&a.PostID, &category, &a.CategoryConfidence, &a.SentimentScore, &a.SentimentLabel,
		&a.Confidence, &keywords, &topics, &a.ContentQualityScore, &a.EngagementPrediction, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ContentCategory = content.Category(category)
	a.Keywords = []string(keywords)
	a.Topics = []string(topics)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (s *Store) GetAnalysis(ctx context.Context, postID string) (*content.Analysis, error) {
	q := `SELECT ` + analysisColumns + ` FROM content_analyses a WHERE a.post_id = ?`
	a, err := scanAnalysis(s.queryRow(ctx, q, postID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	return a, err
}

// CreateAnalysis inserts a record; the unique key on post_id keeps it
// write-once.
func (s *Store) CreateAnalysis(ctx context.Context, a *content.Analysis) error {
	const q = `
INSERT INTO content_analyses
  (post_id, content_category, category_confidence, sentiment_score, sentiment_label, confidence,
   keywords, topics, content_quality_score, engagement_prediction, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.exec(ctx, q,
		a.PostID,
		string(a.ContentCategory),
		a.CategoryConfidence,
		a.SentimentScore,
		a.SentimentLabel,
		a.Confidence,
		StringList(a.Keywords),
		StringList(a.Topics),
		a.ContentQualityScore,
		a.EngagementPrediction,
		created.UTC(),
	)
	if s.d.uniqueViolation(err) {
		return content.ErrAlreadyExists
	}
	return err
}

func (s *Store) ListAnalyses(ctx context.Context, postIDs []string) (map[string]*content.Analysis, error) {
	out := make(map[string]*content.Analysis, len(postIDs))
	for start := 0; start < len(postIDs); start += analysisLookupChunk {
		end := start + analysisLookupChunk
		if end > len(postIDs) {
			end = len(postIDs)
		}
		chunk := postIDs[start:end]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		q := `SELECT ` + analysisColumns + ` FROM content_analyses a WHERE a.post_id IN (` + placeholders(len(chunk)) + `)`
		if err := s.collectAnalyses(ctx, q, args, func(a *content.Analysis) { out[a.PostID] = a }); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListAnalysesBetween returns analyses of posts published in [since, until].
func (s *Store) ListAnalysesBetween(ctx context.Context, since, until time.Time) ([]*content.Analysis, error) {
	q := `SELECT ` + analysisColumns + `
FROM content_analyses a
JOIN posts p ON p.post_id = a.post_id
WHERE p.posted_at >= ? AND p.posted_at <= ?
ORDER BY p.posted_at ASC, a.post_id ASC`
	out := []*content.Analysis{}
	err := s.collectAnalyses(ctx, q, []any{since.UTC(), until.UTC()}, func(a *content.Analysis) { out = append(out, a) })
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) collectAnalyses(ctx context.Context, q string, args []any, fn func(*content.Analysis)) error {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return err
		}
		fn(a)
	}
	return rows.Err()
}
