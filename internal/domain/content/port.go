package content

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	GetPost(ctx context.Context, postID string) (*Post, error)
	ListPosts(ctx context.Context, f PostFilter) ([]*Post, error)
	CountPosts(ctx context.Context, f PostFilter) (int, error)
	UpsertPost(ctx context.Context, p *Post) error
	// UpdateDerived writes the two pipeline-owned fields of a post.
	UpdateDerived(ctx context.Context, postID string, category Category, sentiment float64) error

	GetAccount(ctx context.Context, username string) (*Account, error)
	UpsertAccount(ctx context.Context, a *Account) error

	GetAnalysis(ctx context.Context, postID string) (*Analysis, error)
	// CreateAnalysis returns ErrAlreadyExists when a record for the post exists.
	CreateAnalysis(ctx context.Context, a *Analysis) error
	ListAnalyses(ctx context.Context, postIDs []string) (map[string]*Analysis, error)
	// ListAnalysesBetween returns analyses of posts published in [since, until].
	ListAnalysesBetween(ctx context.Context, since, until time.Time) ([]*Analysis, error)
}

// Store adds transaction scope to Repository.
type Store interface {
	Repository
	// WithinTx runs fn against a transactional view; an error from fn rolls back.
	WithinTx(ctx context.Context, fn func(Repository) error) error
}

// Source port: acquisition collaborator that supplies normalized records.
type Source interface {
	FetchAccount(ctx context.Context, username string) (*Account, error)
	FetchPosts(ctx context.Context, username string, since time.Time) ([]*Post, error)
}
