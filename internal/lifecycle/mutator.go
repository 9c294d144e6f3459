package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dm/starsearch/internal/apperr"
	"github.com/dm/starsearch/internal/client"
	"github.com/dm/starsearch/internal/format"
)

// MutatorConfig holds the fixed action parameters written into replaced phases.
type MutatorConfig struct {
	WarmPriority             int
	ColdPriority             int
	DeleteSearchableSnapshot bool
}

// DefaultMutatorConfig returns the stock phase parameters.
func DefaultMutatorConfig() MutatorConfig {
	return MutatorConfig{
		WarmPriority:             50,
		ColdPriority:             0,
		DeleteSearchableSnapshot: true,
	}
}

// Change describes what a mutation wrote.
type Change struct {
	Success     bool            `json:"success"`
	Policy      string          `json:"policy"`
	WarmAfter   string          `json:"warm_after,omitempty"`
	ColdAfter   string          `json:"cold_after,omitempty"`
	DeleteAfter string          `json:"delete_after,omitempty"`
	Rollover    *RolloverAction `json:"rollover,omitempty"`
	Message     string          `json:"message"`
}

// Mutator applies single structural edits to an ILM policy. Each edit is a
// read-modify-write with no concurrency check: the last writer wins.
type Mutator struct {
	c   client.LifecycleAPI
	cfg MutatorConfig
	log *logrus.Logger
}

// NewMutator returns a Mutator writing through c.
func NewMutator(c client.LifecycleAPI, cfg MutatorConfig, log *logrus.Logger) *Mutator {
	return &Mutator{c: c, cfg: cfg, log: log}
}

// SetDeletePhase replaces the delete phase so indices are removed days after
// their lifecycle origin.
func (m *Mutator) SetDeletePhase(ctx context.Context, policy string, days int) (*Change, error) {
	ph, err := m.phaseFor(PhaseDelete, days)
	if err != nil {
		return nil, err
	}
	if err := m.replacePhase(ctx, policy, PhaseDelete, ph); err != nil {
		return nil, err
	}
	return &Change{
		Success:     true,
		Policy:      policy,
		DeleteAfter: ph.MinAge,
		Message:     fmt.Sprintf("Policy updated: indices will be deleted after %d days", days),
	}, nil
}

// SetWarmPhase replaces the warm phase.
func (m *Mutator) SetWarmPhase(ctx context.Context, policy string, days int) (*Change, error) {
	ph, err := m.phaseFor(PhaseWarm, days)
	if err != nil {
		return nil, err
	}
	if err := m.replacePhase(ctx, policy, PhaseWarm, ph); err != nil {
		return nil, err
	}
	return &Change{
		Success:   true,
		Policy:    policy,
		WarmAfter: ph.MinAge,
		Message:   fmt.Sprintf("Policy updated: indices move to warm after %d days", days),
	}, nil
}

// SetColdPhase replaces the cold phase.
func (m *Mutator) SetColdPhase(ctx context.Context, policy string, days int) (*Change, error) {
	ph, err := m.phaseFor(PhaseCold, days)
	if err != nil {
		return nil, err
	}
	if err := m.replacePhase(ctx, policy, PhaseCold, ph); err != nil {
		return nil, err
	}
	return &Change{
		Success:   true,
		Policy:    policy,
		ColdAfter: ph.MinAge,
		Message:   fmt.Sprintf("Policy updated: indices move to cold after %d days", days),
	}, nil
}

// SetRollover replaces the hot phase rollover action with the supplied
// thresholds. Either threshold may be absent; an empty rollover is written
// as-is. The hot phase is created when the policy has none.
func (m *Mutator) SetRollover(ctx context.Context, policy, maxSize string, maxDocs *int64) (*Change, error) {
	rollover := &RolloverAction{MaxPrimaryShardSize: maxSize, MaxDocs: maxDocs}
	if err := rollover.Validate(); err != nil {
		return nil, fmt.Errorf("rollover: %w", err)
	}

	err := m.mutate(ctx, policy, func(p *Policy) error {
		hot, ok := p.Phases[PhaseHot]
		if !ok || hot == nil {
			hot = &Phase{MinAge: "0ms"}
			p.Phases[PhaseHot] = hot
		}
		return hot.setAction("rollover", rollover)
	})
	if err != nil {
		return nil, err
	}
	return &Change{
		Success:  true,
		Policy:   policy,
		Rollover: rollover,
		Message:  "Policy updated with rollover: " + describeRollover(rollover),
	}, nil
}

// phaseFor builds the replacement phase for name.
func (m *Mutator) phaseFor(name string, days int) (*Phase, error) {
	if days < 0 {
		return nil, fmt.Errorf("days must be non-negative, got %d", days)
	}
	ph := &Phase{MinAge: fmt.Sprintf("%dd", days)}
	var err error
	switch name {
	case PhaseDelete:
		err = ph.setAction("delete", DeleteAction{DeleteSearchableSnapshot: m.cfg.DeleteSearchableSnapshot})
	case PhaseWarm:
		err = ph.setAction("set_priority", SetPriorityAction{Priority: m.cfg.WarmPriority})
	case PhaseCold:
		err = ph.setAction("set_priority", SetPriorityAction{Priority: m.cfg.ColdPriority})
	default:
		err = fmt.Errorf("unknown phase %q", name)
	}
	if err != nil {
		return nil, err
	}
	return ph, nil
}

func (m *Mutator) replacePhase(ctx context.Context, policy, name string, ph *Phase) error {
	return m.mutate(ctx, policy, func(p *Policy) error {
		p.Phases[name] = ph
		return nil
	})
}

// mutate fetches the policy, applies edit to a freshly decoded copy and
// writes the whole policy back.
func (m *Mutator) mutate(ctx context.Context, name string, edit func(*Policy) error) error {
	dialect, err := DetectDialect(ctx, m.c)
	if err != nil {
		return err
	}
	if dialect != DialectElasticsearchILM {
		return fmt.Errorf("%w: policy edits need %s, cluster speaks %s", apperr.ErrUnsupportedDialect, DialectElasticsearchILM, dialect)
	}

	resp, err := m.c.GetILMPolicy(ctx, name)
	if err != nil {
		if _, ok := client.IsRejected(err); ok {
			return apperr.PolicyNotFound(name)
		}
		return err
	}
	entry, ok := resp[name]
	if !ok {
		return apperr.PolicyNotFound(name)
	}

	policy, err := DecodePolicy(entry.Policy)
	if err != nil {
		return fmt.Errorf("policy %q: %w", name, apperr.Malformed(err))
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("policy %q: %w", name, apperr.Malformed(err))
	}

	if err := edit(policy); err != nil {
		return err
	}
	policy.normalize()
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("policy %q: %w", name, err)
	}

	if err := m.c.PutILMPolicy(ctx, name, PolicyDocument{Policy: policy}); err != nil {
		if rej, ok := client.IsRejected(err); ok {
			return apperr.PolicyUpdateFailed(name, rej.StatusCode, rej.Body)
		}
		return err
	}

	m.log.WithFields(logrus.Fields{
		"policy": name,
		"phases": strings.Join(policy.PhaseNames(), ","),
	}).Info("policy updated")
	return nil
}

func describeRollover(r *RolloverAction) string {
	var parts []string
	if r.MaxPrimaryShardSize != "" {
		parts = append(parts, "max_primary_shard_size="+r.MaxPrimaryShardSize)
	}
	if r.MaxDocs != nil {
		parts = append(parts, "max_docs="+format.FormatNumber(*r.MaxDocs))
	}
	if len(parts) == 0 {
		return "no thresholds"
	}
	return strings.Join(parts, ", ")
}
