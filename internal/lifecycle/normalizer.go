package lifecycle

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dm/starsearch/internal/client"
	"github.com/dm/starsearch/internal/format"
)

// IndexRecord is the dialect-neutral lifecycle view of one index.
type IndexRecord struct {
	Index     string `json:"index"`
	Policy    string `json:"policy"`
	Phase     string `json:"phase"`
	Age       string `json:"age"`
	SizeBytes int64  `json:"size_bytes"`
	Size      string `json:"size"`
	WarmAt    string `json:"warm_at"`
	ColdAt    string `json:"cold_at"`
	DeleteAt  string `json:"delete_at"`
}

// Normalizer builds the lifecycle view for whatever dialect the cluster speaks.
type Normalizer struct {
	c   client.LifecycleAPI
	log *logrus.Logger
}

// NewNormalizer returns a Normalizer reading from c.
func NewNormalizer(c client.LifecycleAPI, log *logrus.Logger) *Normalizer {
	return &Normalizer{c: c, log: log}
}

// Lifecycle detects the dialect, then fetches lifecycle state, policies and
// store stats concurrently. If any of the three fails, the first error is
// returned and nothing is reported. Records are ordered by size, largest
// first, with ties kept in the order the cluster listed the indices.
// Unmanaged indices are only included when includeUnmanaged is set.
func (n *Normalizer) Lifecycle(ctx context.Context, includeUnmanaged bool) ([]IndexRecord, error) {
	dialect, err := DetectDialect(ctx, n.c)
	if err != nil {
		return nil, err
	}
	backend, err := NewBackend(dialect, n.c, n.log)
	if err != nil {
		return nil, err
	}
	n.log.WithField("dialect", dialect).Debug("dialect detected")

	var (
		states   []IndexState
		policies map[string]*Policy
		stats    *client.IndexStatsResponse
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		states, err = backend.FetchStates(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		policies, err = backend.FetchPolicies(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		stats, err = n.c.GetIndexStoreStats(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]IndexRecord, 0, len(states))
	for _, st := range states {
		var size int64
		if stats != nil {
			size = stats.Indices[st.Index].TotalSize()
		}
		rec, ok := buildRecord(st, policies, size, includeUnmanaged)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SizeBytes > records[j].SizeBytes
	})
	return records, nil
}

func buildRecord(st IndexState, policies map[string]*Policy, size int64, includeUnmanaged bool) (IndexRecord, bool) {
	rec := IndexRecord{
		Index:     st.Index,
		SizeBytes: size,
		Size:      format.FormatBytes(size),
	}
	if !st.Managed {
		if !includeUnmanaged {
			return rec, false
		}
		rec.Policy = "unmanaged"
		rec.Phase = "-"
		rec.Age = "-"
		return rec, true
	}

	rec.Policy = st.Policy
	rec.Phase = st.Phase
	rec.Age = st.Age
	if st.Created == nil {
		return rec, true
	}
	policy := policies[st.Policy]
	if policy == nil {
		return rec, true
	}
	for _, name := range transitionPhases {
		ph, ok := policy.Phases[name]
		if !ok || ph == nil {
			continue
		}
		minAge := ph.MinAge
		if minAge == "" {
			minAge = "0d"
		}
		date := transitionDate(*st.Created, ParseAgeDays(minAge))
		switch name {
		case PhaseWarm:
			rec.WarmAt = date
		case PhaseCold:
			rec.ColdAt = date
		case PhaseDelete:
			rec.DeleteAt = date
		}
	}
	return rec, true
}
