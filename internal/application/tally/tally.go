// Package tally counts terms and keeps first-seen order, so that top-N
// selection is deterministic for equal counts.
package tally

import (
	"sort"

	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

type Counter struct {
	index map[string]int
	terms []reports.TermCount
}

func New() *Counter {
	return &Counter{index: make(map[string]int)}
}

func (c *Counter) Add(term string) {
	if i, ok := c.index[term]; ok {
		c.terms[i].Count++
		return
	}
	c.index[term] = len(c.terms)
	c.terms = append(c.terms, reports.TermCount{Term: term, Count: 1})
}

func (c *Counter) Len() int { return len(c.terms) }

// Top returns at most n entries ordered by count desc, then first-seen.
func (c *Counter) Top(n int) []reports.TermCount {
	out := make([]reports.TermCount, len(c.terms))
	copy(out, c.terms)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Terms returns only the term strings of Top(n).
func (c *Counter) Terms(n int) []string {
	top := c.Top(n)
	out := make([]string, len(top))
	for i, t := range top {
		out[i] = t.Term
	}
	return out
}
