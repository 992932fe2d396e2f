package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"

	"github.com/lib/pq"

	"github.com/bryanwahyu/rivalscope/internal/infra/db/sqlstore"
)

//go:embed schema.sql
var schema string

// Dialect is PostgreSQL: numbered placeholders, ON CONFLICT upserts.
var Dialect = sqlstore.Dialect{
	Name:     "postgres",
	Numbered: true,
	UpsertAccountSQL: `
INSERT INTO competitor_accounts
  (username, full_name, biography, followers_count, following_count, posts_count, is_verified, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (username) DO UPDATE SET
  full_name=EXCLUDED.full_name,
  biography=EXCLUDED.biography,
  followers_count=EXCLUDED.followers_count,
  following_count=EXCLUDED.following_count,
  posts_count=EXCLUDED.posts_count,
  is_verified=EXCLUDED.is_verified,
  updated_at=EXCLUDED.updated_at`,
	UpsertPostSQL: `
INSERT INTO posts
  (post_id, account_username, caption, media_type, hashtags, mentions,
   likes_count, comments_count, engagement_rate, posted_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (post_id) DO UPDATE SET
  account_username=EXCLUDED.account_username,
  caption=EXCLUDED.caption,
  media_type=EXCLUDED.media_type,
  hashtags=EXCLUDED.hashtags,
  mentions=EXCLUDED.mentions,
  likes_count=EXCLUDED.likes_count,
  comments_count=EXCLUDED.comments_count,
  engagement_rate=EXCLUDED.engagement_rate,
  posted_at=EXCLUDED.posted_at`,
	IsUniqueViolation: isUniqueViolation,
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func Connect(ctx context.Context, dsn string, pool sqlstore.PoolConfig) (*sql.DB, error) {
	return sqlstore.Open(ctx, "postgres", dsn, pool)
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	return sqlstore.Migrate(ctx, db, schema)
}

// NewStore returns a store speaking PostgreSQL.
func NewStore(db *sql.DB) *sqlstore.Store {
	return sqlstore.New(db, Dialect)
}
