package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/rivalscope/internal/application"
	"github.com/bryanwahyu/rivalscope/internal/application/analysis"
	"github.com/bryanwahyu/rivalscope/internal/domain/content"
)

var (
	// ErrInvalid marks records rejected before they reach the store.
	ErrInvalid = errors.New("invalid record")
	// ErrNoSource is returned by Sync when no feed is configured.
	ErrNoSource = errors.New("no content source configured")
)

// Service accepts normalized records from the acquisition side.
type Service struct {
	Store    content.Store
	Analyzer *analysis.Service
	Source   content.Source
	Clock    application.Clock
	Log      logrus.FieldLogger
}

type Result struct {
	Ingested int                   `json:"ingested"`
	PostIDs  []string              `json:"post_ids"`
	Analysis *analysis.BatchResult `json:"analysis,omitempty"`
}

func (s *Service) UpsertAccount(ctx context.Context, a *content.Account) error {
	a.Username = strings.TrimSpace(a.Username)
	if a.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalid)
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = s.Clock.Now().UTC()
	}
	return s.Store.UpsertAccount(ctx, a)
}

func (s *Service) GetAccount(ctx context.Context, username string) (*content.Account, error) {
	return s.Store.GetAccount(ctx, username)
}

// IngestPosts upserts posts in one transaction and, when analyze is set,
// runs the analysis pipeline over them.
func (s *Service) IngestPosts(ctx context.Context, posts []*content.Post, analyze bool) (*Result, error) {
	for i, p := range posts {
		if strings.TrimSpace(p.PostID) == "" || strings.TrimSpace(p.AccountUsername) == "" {
			return nil, fmt.Errorf("%w: post %d needs post_id and account_username", ErrInvalid, i)
		}
	}

	followers := make(map[string]int64)
	err := s.Store.WithinTx(ctx, func(tx content.Repository) error {
		for _, p := range posts {
			if err := s.normalize(ctx, tx, p, followers); err != nil {
				return err
			}
			if err := tx.UpsertPost(ctx, p); err != nil {
				return fmt.Errorf("upsert post %s: %w", p.PostID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Ingested: len(posts), PostIDs: make([]string, len(posts))}
	for i, p := range posts {
		res.PostIDs[i] = p.PostID
	}
	if analyze && s.Analyzer != nil && len(posts) > 0 {
		res.Analysis = s.Analyzer.AnalyzeBatch(ctx, res.PostIDs)
	}
	s.logger().WithFields(logrus.Fields{"posts": len(posts), "analyze": analyze}).Info("posts ingested")
	return res, nil
}

// normalize fills fields the source may leave out: media type, hashtag and
// mention lists, and the engagement rate.
func (s *Service) normalize(ctx context.Context, tx content.Repository, p *content.Post, followers map[string]int64) error {
	p.MediaType = content.ParseMediaType(string(p.MediaType))
	if len(p.Hashtags) == 0 {
		p.Hashtags = analysis.ExtractHashtags(p.Caption)
	}
	if len(p.Mentions) == 0 {
		p.Mentions = analysis.ExtractMentions(p.Caption)
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	if p.Mentions == nil {
		p.Mentions = []string{}
	}
	if !p.PostedAt.IsZero() {
		p.PostedAt = p.PostedAt.UTC()
	}
	// derived fields are owned by the pipeline
	p.ContentCategory = ""
	p.SentimentScore = 0

	if p.EngagementRate != 0 {
		return nil
	}
	n, ok := followers[p.AccountUsername]
	if !ok {
		acct, err := tx.GetAccount(ctx, p.AccountUsername)
		switch {
		case errors.Is(err, content.ErrNotFound):
			n = 0
		case err != nil:
			return fmt.Errorf("get account %s: %w", p.AccountUsername, err)
		default:
			n = acct.FollowersCount
		}
		followers[p.AccountUsername] = n
	}
	p.EngagementRate = content.EngagementRate(p.LikesCount, p.CommentsCount, n)
	return nil
}

func (s *Service) ListPosts(ctx context.Context, f content.PostFilter) ([]*content.Post, int, error) {
	total, err := s.Store.CountPosts(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	posts, err := s.Store.ListPosts(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

type SyncResult struct {
	Accounts int               `json:"accounts"`
	Posts    int               `json:"posts"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// Sync pulls the cohort's accounts and recent posts from the Source. A
// failing account is recorded and skipped.
func (s *Service) Sync(ctx context.Context, cohort []string, since time.Time, analyze bool) (*SyncResult, error) {
	if s.Source == nil {
		return nil, ErrNoSource
	}
	res := &SyncResult{}
	fail := func(username string, err error) {
		if res.Errors == nil {
			res.Errors = make(map[string]string)
		}
		res.Errors[username] = err.Error()
		s.logger().WithError(err).WithField("username", username).Warn("sync failed")
	}

	for _, username := range cohort {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		acct, err := s.Source.FetchAccount(ctx, username)
		if err != nil {
			fail(username, err)
			continue
		}
		if err := s.UpsertAccount(ctx, acct); err != nil {
			fail(username, err)
			continue
		}
		res.Accounts++

		posts, err := s.Source.FetchPosts(ctx, username, since)
		if err != nil {
			fail(username, err)
			continue
		}
		if len(posts) == 0 {
			continue
		}
		ir, err := s.IngestPosts(ctx, posts, analyze)
		if err != nil {
			fail(username, err)
			continue
		}
		res.Posts += ir.Ingested
	}
	return res, nil
}

func (s *Service) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
