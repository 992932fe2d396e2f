package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/rivalscope/internal/application"
	appbenchmark "github.com/bryanwahyu/rivalscope/internal/application/benchmark"
	apptrends "github.com/bryanwahyu/rivalscope/internal/application/trends"
	"github.com/bryanwahyu/rivalscope/internal/domain/content"
	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
	"github.com/bryanwahyu/rivalscope/internal/testutil"
)

func TestAddRejectsBadSpec(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := New(log, time.Second)
	defer s.Stop()

	assert.Error(t, s.Add(Job{Name: "x", Spec: "not a spec", Run: func(context.Context) error { return nil }}))
	assert.Error(t, s.Add(Job{Name: "y", Spec: "@weekly"}))
	assert.NoError(t, s.Add(Job{Name: "z", Spec: "0 0 6 * * MON", Run: func(context.Context) error { return nil }}))
}

func TestRunLogsFailure(t *testing.T) {
	log, hook := test.NewNullLogger()
	s := New(log, time.Second)
	defer s.Stop()

	s.run(Job{Name: "broken", Run: func(context.Context) error { return errors.New("db down") }})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "broken", entry.Data["job"])
}

func TestRunSkipsOverlap(t *testing.T) {
	log, hook := test.NewNullLogger()
	s := New(log, time.Second)
	defer s.Stop()

	started := make(chan struct{})
	release := make(chan struct{})
	job := Job{Name: "slow", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.run(job)
	}()
	<-started
	s.run(job)
	close(release)
	wg.Wait()

	var skipped int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			skipped++
		}
	}
	assert.Equal(t, 1, skipped)
}

func TestRunHonoursTimeout(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := New(log, 10*time.Millisecond)
	defer s.Stop()

	var got error
	s.run(Job{Name: "wait", Run: func(ctx context.Context) error {
		<-ctx.Done()
		got = ctx.Err()
		return got
	}})
	assert.ErrorIs(t, got, context.DeadlineExceeded)
}

func TestReportJobs(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	clock := application.FixedClock{T: now}
	store := testutil.NewMemStore()
	require.NoError(t, store.UpsertAccount(ctx, &content.Account{Username: "a", FollowersCount: 100}))
	require.NoError(t, store.UpsertPost(ctx, &content.Post{
		PostID: "1", AccountUsername: "a", Caption: "weekend sale", EngagementRate: 3,
		PostedAt: now.Add(-24 * time.Hour), Hashtags: []string{}, Mentions: []string{},
	}))
	log, _ := test.NewNullLogger()

	trend := TrendJob("@weekly", &apptrends.Service{
		Aggregator: &apptrends.Aggregator{Posts: store, Clock: clock},
		Reports:    store,
		Cohort:     []string{"a"},
		Log:        log,
	}, reports.Weekly)
	assert.Equal(t, "trend-weekly", trend.Name)
	require.NoError(t, trend.Run(ctx))
	assert.Equal(t, 1, store.TrendCount())

	bench := BenchmarkJob("@weekly", &appbenchmark.Service{
		Engine:  &appbenchmark.Engine{Posts: store, Clock: clock},
		Reports: store,
		Cohort:  []string{"a"},
		Log:     log,
	}, 30)
	assert.Equal(t, "benchmark-30d", bench.Name)
	require.NoError(t, bench.Run(ctx))
	b, err := store.LatestBenchmark(ctx)
	require.NoError(t, err)
	assert.Len(t, b.CompetitorMetrics, 1)
}
