package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

var errDuplicate = errors.New("duplicate key")

var testDialect = Dialect{
	Name:              "test",
	Numbered:          true,
	UpsertAccountSQL:  "INSERT INTO competitor_accounts VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	UpsertPostSQL:     "INSERT INTO posts VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	IsUniqueViolation: func(err error) bool { return errors.Is(err, errDuplicate) },
}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, testDialect), mock
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name     string
		numbered bool
		in       string
		want     string
	}{
		{name: "question marks kept", numbered: false, in: "a = ? AND b = ?", want: "a = ? AND b = ?"},
		{name: "numbered", numbered: true, in: "a = ? AND b IN (?, ?)", want: "a = $1 AND b IN ($2, $3)"},
		{name: "no args", numbered: true, in: "SELECT 1", want: "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dialect{Numbered: tt.numbered}.Rebind(tt.in))
		})
	}
}

func TestStringList(t *testing.T) {
	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = StringList{"#a", "تعليم"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["#a","تعليم"]`, v)

	var sl StringList
	require.NoError(t, sl.Scan([]byte(`["x","y"]`)))
	assert.Equal(t, StringList{"x", "y"}, sl)
	require.NoError(t, sl.Scan(`["z"]`))
	assert.Equal(t, StringList{"z"}, sl)
	require.NoError(t, sl.Scan(nil))
	assert.Equal(t, StringList{}, sl)
	assert.Error(t, sl.Scan(42))
}

var postCols = []string{
	"post_id", "account_username", "caption", "media_type", "hashtags", "mentions",
	"likes_count", "comments_count", "engagement_rate", "posted_at", "content_category", "sentiment_score",
}

func TestGetPost(t *testing.T) {
	store, mock := newMock(t)
	posted := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM posts WHERE post_id = $1")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow("p1", "rival", "hello", "carousel", []byte(`["#a"]`), []byte(`[]`), 10, 2, 1.5, posted, nil, nil))

	p, err := store.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "rival", p.AccountUsername)
	assert.Equal(t, content.MediaCarousel, p.MediaType)
	assert.Equal(t, []string{"#a"}, p.Hashtags)
	assert.Equal(t, []string{}, p.Mentions)
	assert.Equal(t, posted, p.PostedAt)
	assert.Empty(t, p.ContentCategory)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPostNotFound(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM posts WHERE post_id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(postCols))

	_, err := store.GetPost(context.Background(), "missing")
	assert.ErrorIs(t, err, content.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPostsFilter(t *testing.T) {
	store, mock := newMock(t)
	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM posts WHERE account_username IN ($1, $2) AND posted_at >= $3 AND content_category = $4 "+
			"ORDER BY posted_at DESC, post_id DESC LIMIT $5 OFFSET $6")).
		WithArgs("a", "b", since, "promotional", 20, 20).
		WillReturnRows(sqlmock.NewRows(postCols))

	posts, err := store.ListPosts(context.Background(), content.PostFilter{
		Usernames: []string{"a", "b"},
		Since:     since,
		Category:  content.CategoryPromotional,
		Page:      2,
		PageSize:  20,
	})
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAnalysisDuplicate(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO content_analyses")).
		WillReturnError(errDuplicate)

	err := store.CreateAnalysis(context.Background(), &content.Analysis{PostID: "p1", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, content.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBack(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO content_analyses")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET content_category = $1, sentiment_score = $2 WHERE post_id = $3")).
		WithArgs("promotional", 0.5, "p1").
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(tx content.Repository) error {
		if err := tx.CreateAnalysis(context.Background(), &content.Analysis{PostID: "p1"}); err != nil {
			return err
		}
		return tx.UpdateDerived(context.Background(), "p1", content.CategoryPromotional, 0.5)
	})
	assert.ErrorContains(t, err, "lock timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxCommits(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET")).
		WithArgs("educational", -0.2, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx content.Repository) error {
		return tx.UpdateDerived(context.Background(), "p1", content.CategoryEducational, -0.2)
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDerivedMissingPost(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateDerived(context.Background(), "ghost", content.CategoryOther, 0)
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestGetAccountNotFound(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM competitor_accounts")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetAccount(context.Background(), "ghost")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestListAnalysesEmpty(t *testing.T) {
	store, mock := newMock(t)
	got, err := store.ListAnalyses(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAnalyses(t *testing.T) {
	store, mock := newMock(t)
	created := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	cols := []string{"post_id", "content_category", "category_confidence", "sentiment_score", "sentiment_label",
		"confidence", "keywords", "topics", "content_quality_score", "engagement_prediction", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM content_analyses a WHERE a.post_id IN ($1, $2)")).
		WithArgs("p1", "p2").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p1", "educational", 0.25, 0.8, "positive", 0.8, `["math"]`, `["kids"]`, 85.0, 0.05, created))

	got, err := store.ListAnalyses(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, content.CategoryEducational, got["p1"].ContentCategory)
	assert.Equal(t, []string{"kids"}, got["p1"].Topics)
	assert.Equal(t, created, got["p1"].CreatedAt)
}

func TestListAnalysesBetween(t *testing.T) {
	store, mock := newMock(t)
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"post_id", "content_category", "category_confidence", "sentiment_score", "sentiment_label",
		"confidence", "keywords", "topics", "content_quality_score", "engagement_prediction", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.posted_at >= $1 AND p.posted_at <= $2")).
		WithArgs(since, until).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p1", "promotional", 0.5, -0.4, "negative", 0.4, `[]`, `[]`, 60.0, 0.03, until))

	got, err := store.ListAnalysesBetween(context.Background(), since, until)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "negative", got[0].SentimentLabel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestTrend(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM trend_reports")).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, err := store.LatestTrend(context.Background())
	assert.ErrorIs(t, err, reports.ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM trend_reports")).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(`{"id":"r1","period":"weekly","total_posts":3}`))

	r, err := store.LatestTrend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, reports.Weekly, r.Period)
	assert.Equal(t, 3, r.TotalPosts)
}

func TestSaveBenchmark(t *testing.T) {
	store, mock := newMock(t)
	r := &reports.BenchmarkReport{ID: "b1", Name: "Competitor benchmark - 30 days", Days: 30, AvgEngagementRate: 2.5}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO benchmark_reports")).
		WithArgs("b1", r.Name, 30, sqlmock.AnyArg(), 2.5, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SaveBenchmark(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}
