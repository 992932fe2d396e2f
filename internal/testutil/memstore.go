// Package testutil holds in-memory fakes for application tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bryanwahyu/rivalscope/internal/domain/content"
	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

// MemStore is an in-memory content.Store and reports.Repository. WithinTx
// restores a snapshot when fn fails.
type MemStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	posts      map[string]*content.Post
	postOrder  []string
	accounts   map[string]*content.Account
	analyses   map[string]*content.Analysis
	trends     []*reports.TrendReport
	benchmarks []*reports.BenchmarkReport

	// Fault injection.
	FailCreateAnalysis error
	FailUpdateDerived  error
	FailSaveTrend      error
	FailSaveBenchmark  error

	Writes int
}

func NewMemStore() *MemStore {
	return &MemStore{
		posts:    make(map[string]*content.Post),
		accounts: make(map[string]*content.Account),
		analyses: make(map[string]*content.Analysis),
	}
}

func (m *MemStore) WithinTx(ctx context.Context, fn func(content.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	posts     map[string]content.Post
	postOrder []string
	accounts  map[string]content.Account
	analyses  map[string]content.Analysis
	writes    int
}

func (m *MemStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := memSnapshot{
		posts:     make(map[string]content.Post, len(m.posts)),
		postOrder: append([]string(nil), m.postOrder...),
		accounts:  make(map[string]content.Account, len(m.accounts)),
		analyses:  make(map[string]content.Analysis, len(m.analyses)),
		writes:    m.Writes,
	}
	for k, v := range m.posts {
		s.posts[k] = *v
	}
	for k, v := range m.accounts {
		s.accounts[k] = *v
	}
	for k, v := range m.analyses {
		s.analyses[k] = *v
	}
	return s
}

func (m *MemStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = make(map[string]*content.Post, len(s.posts))
	for k, v := range s.posts {
		m.posts[k] = &v
	}
	m.postOrder = s.postOrder
	m.accounts = make(map[string]*content.Account, len(s.accounts))
	for k, v := range s.accounts {
		m.accounts[k] = &v
	}
	m.analyses = make(map[string]*content.Analysis, len(s.analyses))
	for k, v := range s.analyses {
		m.analyses[k] = &v
	}
	m.Writes = s.writes
}

func (m *MemStore) GetPost(_ context.Context, postID string) (*content.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return nil, content.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemStore) match(p *content.Post, f content.PostFilter) bool {
	if len(f.Usernames) > 0 {
		found := false
		for _, u := range f.Usernames {
			if u == p.AccountUsername {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.Since.IsZero() && (p.PostedAt.IsZero() || p.PostedAt.Before(f.Since)) {
		return false
	}
	if !f.Until.IsZero() && (p.PostedAt.IsZero() || p.PostedAt.After(f.Until)) {
		return false
	}
	if f.Category != "" && p.ContentCategory != f.Category {
		return false
	}
	return true
}

// ListPosts returns matches newest first, insertion order for equal times.
func (m *MemStore) ListPosts(_ context.Context, f content.PostFilter) ([]*content.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*content.Post
	for _, id := range m.postOrder {
		p := m.posts[id]
		if m.match(p, f) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PostedAt.After(out[j].PostedAt) })
	if f.PageSize > 0 {
		page := f.Page
		if page <= 0 {
			page = 1
		}
		start := (page - 1) * f.PageSize
		if start >= len(out) {
			return []*content.Post{}, nil
		}
		end := start + f.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

func (m *MemStore) CountPosts(ctx context.Context, f content.PostFilter) (int, error) {
	f.Page, f.PageSize = 0, 0
	posts, err := m.ListPosts(ctx, f)
	return len(posts), err
}

func (m *MemStore) UpsertPost(_ context.Context, p *content.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	if _, ok := m.posts[p.PostID]; !ok {
		m.postOrder = append(m.postOrder, p.PostID)
	} else {
		cp.ContentCategory = m.posts[p.PostID].ContentCategory
		cp.SentimentScore = m.posts[p.PostID].SentimentScore
	}
	m.posts[p.PostID] = &cp
	m.Writes++
	return nil
}

func (m *MemStore) UpdateDerived(_ context.Context, postID string, category content.Category, sentiment float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdateDerived != nil {
		return m.FailUpdateDerived
	}
	p, ok := m.posts[postID]
	if !ok {
		return content.ErrNotFound
	}
	p.ContentCategory = category
	p.SentimentScore = sentiment
	m.Writes++
	return nil
}

func (m *MemStore) GetAccount(_ context.Context, username string) (*content.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[username]
	if !ok {
		return nil, content.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemStore) UpsertAccount(_ context.Context, a *content.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.accounts[a.Username] = &cp
	m.Writes++
	return nil
}

func (m *MemStore) GetAnalysis(_ context.Context, postID string) (*content.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.analyses[postID]
	if !ok {
		return nil, content.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemStore) CreateAnalysis(_ context.Context, a *content.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreateAnalysis != nil {
		return m.FailCreateAnalysis
	}
	if _, ok := m.analyses[a.PostID]; ok {
		return content.ErrAlreadyExists
	}
	cp := *a
	m.analyses[a.PostID] = &cp
	m.Writes++
	return nil
}

func (m *MemStore) ListAnalyses(_ context.Context, postIDs []string) (map[string]*content.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*content.Analysis)
	for _, id := range postIDs {
		if a, ok := m.analyses[id]; ok {
			cp := *a
			out[id] = &cp
		}
	}
	return out, nil
}

// ListAnalysesBetween joins on posted_at of the analysed post.
func (m *MemStore) ListAnalysesBetween(_ context.Context, since, until time.Time) ([]*content.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*content.Analysis
	for _, id := range m.postOrder {
		a, ok := m.analyses[id]
		if !ok {
			continue
		}
		p := m.posts[id]
		if p.PostedAt.IsZero() || p.PostedAt.Before(since) || p.PostedAt.After(until) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemStore) SaveTrend(_ context.Context, r *reports.TrendReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaveTrend != nil {
		return m.FailSaveTrend
	}
	m.trends = append(m.trends, r)
	m.Writes++
	return nil
}

func (m *MemStore) LatestTrend(context.Context) (*reports.TrendReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.trends) == 0 {
		return nil, reports.ErrNotFound
	}
	return m.trends[len(m.trends)-1], nil
}

func (m *MemStore) SaveBenchmark(_ context.Context, r *reports.BenchmarkReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaveBenchmark != nil {
		return m.FailSaveBenchmark
	}
	m.benchmarks = append(m.benchmarks, r)
	m.Writes++
	return nil
}

func (m *MemStore) LatestBenchmark(context.Context) (*reports.BenchmarkReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.benchmarks) == 0 {
		return nil, reports.ErrNotFound
	}
	return m.benchmarks[len(m.benchmarks)-1], nil
}

// TrendCount is the number of saved trend reports.
func (m *MemStore) TrendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trends)
}

func (m *MemStore) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Writes
}
