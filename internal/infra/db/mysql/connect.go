package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"

	driver "github.com/go-sql-driver/mysql"

	"github.com/bryanwahyu/rivalscope/internal/infra/db/sqlstore"
)

//go:embed schema.sql
var schema string

const errDuplicateEntry = 1062

// Dialect is MySQL: "?" placeholders, ON DUPLICATE KEY upserts.
var Dialect = sqlstore.Dialect{
	Name: "mysql",
	UpsertAccountSQL: `
INSERT INTO competitor_accounts
  (username, full_name, biography, followers_count, following_count, posts_count, is_verified, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  full_name=VALUES(full_name),
  biography=VALUES(biography),
  followers_count=VALUES(followers_count),
  following_count=VALUES(following_count),
  posts_count=VALUES(posts_count),
  is_verified=VALUES(is_verified),
  updated_at=VALUES(updated_at)`,
	UpsertPostSQL: `
INSERT INTO posts
  (post_id, account_username, caption, media_type, hashtags, mentions,
   likes_count, comments_count, engagement_rate, posted_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  account_username=VALUES(account_username),
  caption=VALUES(caption),
  media_type=VALUES(media_type),
  hashtags=VALUES(hashtags),
  mentions=VALUES(mentions),
  likes_count=VALUES(likes_count),
  comments_count=VALUES(comments_count),
  engagement_rate=VALUES(engagement_rate),
  posted_at=VALUES(posted_at)`,
	IsUniqueViolation: isUniqueViolation,
}

func isUniqueViolation(err error) bool {
	var myErr *driver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateEntry
}

func Connect(ctx context.Context, dsn string, pool sqlstore.PoolConfig) (*sql.DB, error) {
	return sqlstore.Open(ctx, "mysql", dsn, pool)
}

func Migrate(ctx context.Context, db *sql.DB) error {
	return sqlstore.Migrate(ctx, db, schema)
}

func NewStore(db *sql.DB) *sqlstore.Store {
	return sqlstore.New(db, Dialect)
}
