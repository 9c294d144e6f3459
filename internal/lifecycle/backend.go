package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dm/starsearch/internal/apperr"
	"github.com/dm/starsearch/internal/client"
)

// IndexState is one index as reported by a dialect's explain endpoint.
type IndexState struct {
	Index   string
	Managed bool
	Policy  string
	Phase   string
	Age     string
	// Created is the lifecycle origin; nil when the cluster does not report one.
	Created *time.Time
}

// Backend fetches lifecycle state in one dialect. Implementations return
// states in the order the cluster listed them.
type Backend interface {
	Dialect() Dialect
	FetchStates(ctx context.Context) ([]IndexState, error)
	FetchPolicies(ctx context.Context) (map[string]*Policy, error)
}

// NewBackend returns the backend for d.
func NewBackend(d Dialect, c client.LifecycleAPI, log *logrus.Logger) (Backend, error) {
	switch d {
	case DialectElasticsearchILM:
		return &ilmBackend{c: c, log: log}, nil
	case DialectOpenSearchISM:
		return &ismBackend{c: c, log: log}, nil
	default:
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedDialect, d)
	}
}

type ilmBackend struct {
	c   client.LifecycleAPI
	log *logrus.Logger
}

func (b *ilmBackend) Dialect() Dialect { return DialectElasticsearchILM }

func (b *ilmBackend) FetchStates(ctx context.Context) ([]IndexState, error) {
	resp, err := b.c.GetILMExplain(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]IndexState, 0, len(resp.Indices))
	for _, m := range resp.Indices {
		if !m.IsObject() {
			b.log.WithField("index", m.Key).Debug("skipping non-object explain entry")
			continue
		}
		var e client.ILMExplainEntry
		if err := json.Unmarshal(m.Value, &e); err != nil {
			return nil, fmt.Errorf("explain entry %q: %w", m.Key, apperr.Malformed(err))
		}

		st := IndexState{Index: m.Key}
		if e.Policy == nil {
			states = append(states, st)
			continue
		}
		st.Managed = true
		st.Policy = *e.Policy
		st.Phase = valueOr(e.Phase, "unknown")
		st.Age = valueOr(e.Age, "unknown")
		if e.LifecycleDateMillis != "" {
			ms, err := e.LifecycleDateMillis.Int64()
			if err != nil {
				b.log.WithError(err).WithField("index", m.Key).Warn("ignoring unparseable lifecycle_date_millis")
			} else {
				created := time.UnixMilli(ms).UTC()
				st.Created = &created
			}
		}
		states = append(states, st)
	}
	return states, nil
}

func (b *ilmBackend) FetchPolicies(ctx context.Context) (map[string]*Policy, error) {
	resp, err := b.c.GetILMPolicies(ctx)
	if err != nil {
		return nil, err
	}
	policies := make(map[string]*Policy, len(resp))
	for name, entry := range resp {
		p, err := DecodePolicy(entry.Policy)
		if err != nil {
			return nil, fmt.Errorf("policy %q: %w", name, apperr.Malformed(err))
		}
		policies[name] = p
	}
	return policies, nil
}

type ismBackend struct {
	c   client.LifecycleAPI
	log *logrus.Logger
}

func (b *ismBackend) Dialect() Dialect { return DialectOpenSearchISM }

func (b *ismBackend) FetchStates(ctx context.Context) ([]IndexState, error) {
	resp, err := b.c.GetISMExplain(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]IndexState, 0, len(resp))
	for _, m := range resp {
		if !m.IsObject() {
			continue
		}
		var e client.ISMExplainEntry
		if err := json.Unmarshal(m.Value, &e); err != nil {
			return nil, fmt.Errorf("explain entry %q: %w", m.Key, apperr.Malformed(err))
		}

		st := IndexState{Index: m.Key}
		policy := e.PolicyID
		if policy == nil {
			policy = e.LegacyPolicyID
		}
		if policy == nil {
			states = append(states, st)
			continue
		}
		st.Managed = true
		st.Policy = *policy
		st.Phase = ismStateName(e.State)
		st.Age = "-"
		states = append(states, st)
	}
	return states, nil
}

// FetchPolicies lists ISM policy ids. ISM policies are state machines with
// no phase min_age, so no transition dates can be derived from them.
func (b *ismBackend) FetchPolicies(ctx context.Context) (map[string]*Policy, error) {
	resp, err := b.c.GetISMPolicies(ctx)
	if err != nil {
		return nil, err
	}
	policies := make(map[string]*Policy, len(resp.Policies))
	for _, entry := range resp.Policies {
		policies[entry.ID] = &Policy{Phases: map[string]*Phase{}}
	}
	return policies, nil
}

func ismStateName(raw json.RawMessage) string {
	var state struct {
		Name *string `json:"name"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &state) != nil || state.Name == nil {
		return "unknown"
	}
	return *state.Name
}

func valueOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
