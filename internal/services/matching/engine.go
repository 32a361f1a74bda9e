// Package matching finds combinations of outstanding invoices whose balances
// add up to a bank transaction amount.
//
// The search is a bounded branch-and-bound over the candidate pool:
//   - candidates are sorted by amount, largest first, so near-exact sums are
//     reached early
//   - every node either includes the next candidate or skips it
//   - branches that overshoot the window, are full, or cannot reach the lower
//     bound even with the largest remaining candidates are pruned
//   - a node budget (and the context) bounds the work; when it runs out the
//     best combinations found so far are returned
//
// All arithmetic is on int64 cents.
package matching

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"split-reconciliation-backend/internal/apperr"
)

const (
	DefaultToleranceCents int64 = 100
	DefaultMaxComponents        = 5
	DefaultMinComponents        = 2
	DefaultMaxResults           = 5
	DefaultNodeBudget     int64 = 100_000

	ctxCheckInterval = 1024
)

// Candidate is one outstanding invoice offered to the search.
type Candidate struct {
	ID          string
	AmountCents int64
}

// Options bounds a search. Zero values for MaxComponents, MinComponents,
// MaxResults, NodeBudget and Workers fall back to the defaults; a zero
// ToleranceCents means exact matches only.
type Options struct {
	ToleranceCents int64
	MaxComponents  int
	MinComponents  int
	MaxResults     int
	NodeBudget     int64
	Workers        int
}

func DefaultOptions() Options {
	return Options{
		ToleranceCents: DefaultToleranceCents,
		MaxComponents:  DefaultMaxComponents,
		MinComponents:  DefaultMinComponents,
		MaxResults:     DefaultMaxResults,
		NodeBudget:     DefaultNodeBudget,
		Workers:        1,
	}
}

// WithDefaults fills unset fields with the package defaults.
func (o Options) WithDefaults() Options {
	if o.MaxComponents == 0 {
		o.MaxComponents = DefaultMaxComponents
	}
	if o.MinComponents == 0 {
		o.MinComponents = DefaultMinComponents
	}
	if o.MaxResults == 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.NodeBudget == 0 {
		o.NodeBudget = DefaultNodeBudget
	}
	if o.Workers == 0 {
		o.Workers = 1
	}
	return o
}

// Validate checks the options against a target amount.
func (o Options) Validate(targetCents int64) error {
	switch {
	case targetCents <= 0:
		return apperr.Validation("target amount must be positive, got %d", targetCents)
	case o.ToleranceCents < 0:
		return apperr.Validation("tolerance must not be negative, got %d", o.ToleranceCents)
	case o.MinComponents < 1:
		return apperr.Validation("min components must be at least 1, got %d", o.MinComponents)
	case o.MaxComponents < o.MinComponents:
		return apperr.Validation("max components (%d) is below min components (%d)", o.MaxComponents, o.MinComponents)
	case o.MaxResults < 1:
		return apperr.Validation("max results must be at least 1, got %d", o.MaxResults)
	case o.NodeBudget < 1:
		return apperr.Validation("node budget must be positive, got %d", o.NodeBudget)
	case o.Workers < 1:
		return apperr.Validation("workers must be positive, got %d", o.Workers)
	}
	return nil
}

// Combination is one accepted set of candidates, listed largest first.
type Combination struct {
	Candidates     []Candidate
	SumCents       int64
	RemainderCents int64

	key string
}

func (c Combination) Size() int {
	return len(c.Candidates)
}

// IDs returns the candidate ids in combination order.
func (c Combination) IDs() []string {
	ids := make([]string, len(c.Candidates))
	for i, cand := range c.Candidates {
		ids[i] = cand.ID
	}
	return ids
}

// Result holds the ranked combinations of a search. BudgetExceeded is set
// when the node budget or the context stopped the search early; StopErr then
// explains why. Neither makes the search fail.
type Result struct {
	Combinations   []Combination
	NodesVisited   int64
	BudgetExceeded bool
	StopErr        error
}

// Search enumerates combinations of candidates whose sum lies within
// [target-tolerance, target+tolerance] using between MinComponents and
// MaxComponents candidates. The returned error is only ever a validation
// error; running out of budget yields partial results.
func Search(ctx context.Context, targetCents int64, candidates []Candidate, opts Options) (Result, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(targetCents); err != nil {
		return Result{}, err
	}

	pool := preparePool(candidates)
	if len(pool) < opts.MinComponents {
		return Result{}, nil
	}

	lower := targetCents - opts.ToleranceCents
	upper := targetCents + opts.ToleranceCents

	prefix := make([]int64, len(pool)+1)
	for i, c := range pool {
		prefix[i+1] = prefix[i] + c.AmountCents
	}
	if prefix[len(pool)] < lower {
		return Result{}, nil
	}

	s := &searcher{
		pool:   pool,
		prefix: prefix,
		target: targetCents,
		lower:  lower,
		upper:  upper,
		opts:   opts,
	}
	b := &budget{ctx: ctx, limit: opts.NodeBudget}

	var combos []Combination
	if opts.Workers > 1 {
		combos = s.searchParallel(b)
	} else {
		combos = s.explore(b, node{})
	}

	res := Result{
		Combinations: combos,
		NodesVisited: b.visitedCount(),
	}
	if stopErr := b.stopErr(); stopErr != nil {
		res.BudgetExceeded = true
		res.StopErr = stopErr
	}
	return res, nil
}

// preparePool drops non-positive amounts and repeated ids, then orders the
// pool by amount descending with the id as tie-break.
func preparePool(candidates []Candidate) []Candidate {
	seen := make(map[string]bool, len(candidates))
	pool := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.AmountCents <= 0 || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		pool = append(pool, c)
	}
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].AmountCents != pool[j].AmountCents {
			return pool[i].AmountCents > pool[j].AmountCents
		}
		return pool[i].ID < pool[j].ID
	})
	return pool
}

type searcher struct {
	pool   []Candidate
	prefix []int64
	target int64
	lower  int64
	upper  int64
	opts   Options
}

// node is a point in the include/skip tree. chosen is never mutated after
// construction; children get their own copy.
type node struct {
	idx    int
	sum    int64
	chosen []int
	fresh  bool
}

func (n node) include(idx int, amount int64) node {
	chosen := make([]int, len(n.chosen), len(n.chosen)+1)
	copy(chosen, n.chosen)
	return node{
		idx:    idx + 1,
		sum:    n.sum + amount,
		chosen: append(chosen, idx),
		fresh:  true,
	}
}

func (n node) skip() node {
	return node{idx: n.idx + 1, sum: n.sum, chosen: n.chosen}
}

// explore returns the ranked best combinations in the subtree rooted at n.
func (s *searcher) explore(b *budget, n node) []Combination {
	if !b.spend() {
		return nil
	}

	var found []Combination
	if n.fresh && n.sum >= s.lower && len(n.chosen) >= s.opts.MinComponents {
		found = []Combination{s.combination(n)}
	}

	slots := s.opts.MaxComponents - len(n.chosen)
	if slots == 0 || n.idx == len(s.pool) {
		return found
	}
	if n.sum+s.bestCompletion(n.idx, slots) < s.lower {
		return found
	}

	var included []Combination
	if amount := s.pool[n.idx].AmountCents; n.sum+amount <= s.upper {
		included = s.explore(b, n.include(n.idx, amount))
	}
	skipped := s.explore(b, n.skip())

	return s.keepBest(found, included, skipped)
}

// searchParallel splits the tree by the first included candidate and
// explores those branches concurrently against the shared budget.
func (s *searcher) searchParallel(b *budget) []Combination {
	branches := make([][]Combination, len(s.pool))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i := range s.pool {
		if s.bestCompletion(i, s.opts.MaxComponents) < s.lower {
			break
		}
		amount := s.pool[i].AmountCents
		if amount > s.upper {
			continue
		}
		i := i
		g.Go(func() error {
			branches[i] = s.explore(b, node{}.include(i, amount))
			return nil
		})
	}
	_ = g.Wait()

	return s.keepBest(branches...)
}

// bestCompletion is the largest sum reachable by adding up to slots
// candidates from idx onwards. The pool is sorted descending, so those are
// simply the next slots candidates.
func (s *searcher) bestCompletion(idx, slots int) int64 {
	end := idx + slots
	if end > len(s.pool) {
		end = len(s.pool)
	}
	return s.prefix[end] - s.prefix[idx]
}

func (s *searcher) combination(n node) Combination {
	cands := make([]Candidate, len(n.chosen))
	ids := make([]string, len(n.chosen))
	for i, idx := range n.chosen {
		cands[i] = s.pool[idx]
		ids[i] = s.pool[idx].ID
	}
	sort.Strings(ids)
	return Combination{
		Candidates:     cands,
		SumCents:       n.sum,
		RemainderCents: abs(s.target - n.sum),
		key:            strings.Join(ids, "\x00"),
	}
}

// keepBest merges ranked lists, drops repeated invoice sets and keeps the
// top MaxResults.
func (s *searcher) keepBest(lists ...[]Combination) []Combination {
	total := 0
	nonEmpty := 0
	for _, l := range lists {
		if len(l) > 0 {
			total += len(l)
			nonEmpty++
		}
	}
	if total == 0 {
		return nil
	}
	if nonEmpty == 1 {
		for _, l := range lists {
			if len(l) > 0 {
				return l
			}
		}
	}

	merged := make([]Combination, 0, total)
	seen := make(map[string]bool, total)
	for _, l := range lists {
		for _, c := range l {
			if seen[c.key] {
				continue
			}
			seen[c.key] = true
			merged = append(merged, c)
		}
	}
	Rank(merged)
	if len(merged) > s.opts.MaxResults {
		merged = merged[:s.opts.MaxResults]
	}
	return merged
}

// Rank orders combinations by remainder, then size, then invoice ids.
func Rank(combos []Combination) {
	sort.SliceStable(combos, func(i, j int) bool {
		a, b := combos[i], combos[j]
		if a.RemainderCents != b.RemainderCents {
			return a.RemainderCents < b.RemainderCents
		}
		if len(a.Candidates) != len(b.Candidates) {
			return len(a.Candidates) < len(b.Candidates)
		}
		return a.key < b.key
	})
}

// budget counts visited nodes across the whole search, including
// concurrent branches.
type budget struct {
	ctx     context.Context
	limit   int64
	visited atomic.Int64
	stopped atomic.Bool
	reason  atomic.Value
}

func (b *budget) spend() bool {
	if b.stopped.Load() {
		return false
	}
	n := b.visited.Add(1)
	if n > b.limit {
		b.stop(apperr.SearchBudgetExceeded("search stopped after visiting %d nodes", b.limit))
		return false
	}
	if n == 1 || n%ctxCheckInterval == 0 {
		if err := b.ctx.Err(); err != nil {
			b.stop(apperr.Wrap(err, apperr.KindSearchBudgetExceeded, "search interrupted after %d nodes", n-1))
			return false
		}
	}
	return true
}

func (b *budget) stop(err error) {
	if b.stopped.CompareAndSwap(false, true) {
		b.reason.Store(err)
	}
}

func (b *budget) stopErr() error {
	if !b.stopped.Load() {
		return nil
	}
	err, _ := b.reason.Load().(error)
	return err
}

func (b *budget) visitedCount() int64 {
	n := b.visited.Load()
	if n > b.limit {
		return b.limit
	}
	return n
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
