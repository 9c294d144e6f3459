package lifecycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Phase names the mutator knows how to replace.
const (
	PhaseHot    = "hot"
	PhaseWarm   = "warm"
	PhaseCold   = "cold"
	PhaseDelete = "delete"
)

// transitionPhases are the phases whose entry dates are projected, in
// report order.
var transitionPhases = []string{PhaseWarm, PhaseCold, PhaseDelete}

var (
	minAgePattern   = regexp.MustCompile(`^\d+(d|h|m|s|ms|micros|nanos)$`)
	shardSizeFormat = regexp.MustCompile(`(?i)^\d+(\.\d+)?(b|kb|mb|gb|tb|pb)$`)
)

// Policy is an ILM policy body. Keys other than phases and _meta are kept
// verbatim so a read-modify-write cycle does not drop them.
type Policy struct {
	Phases map[string]*Phase
	Meta   json.RawMessage
	extra  map[string]json.RawMessage
}

// Phase is one ILM phase. Actions stay raw except the ones the mutator writes.
type Phase struct {
	MinAge  string                     `json:"min_age,omitempty"`
	Actions map[string]json.RawMessage `json:"actions"`
}

// DeleteAction is the body of the delete action.
type DeleteAction struct {
	DeleteSearchableSnapshot bool `json:"delete_searchable_snapshot"`
}

// SetPriorityAction is the body of the set_priority action.
type SetPriorityAction struct {
	Priority int `json:"priority"`
}

// RolloverAction is the body of the rollover action. Absent thresholds are
// omitted from the document.
type RolloverAction struct {
	MaxPrimaryShardSize string `json:"max_primary_shard_size,omitempty"`
	MaxDocs             *int64 `json:"max_docs,omitempty"`
}

// PolicyDocument wraps a policy for PUT /_ilm/policy/<name>.
type PolicyDocument struct {
	Policy *Policy `json:"policy"`
}

// DecodePolicy parses a raw policy body. A missing phases map becomes empty.
func DecodePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Phases == nil {
		p.Phases = map[string]*Phase{}
	}
	return &p, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["phases"]; ok {
		if err := json.Unmarshal(v, &p.Phases); err != nil {
			return fmt.Errorf("phases: %w", err)
		}
		delete(raw, "phases")
	}
	if v, ok := raw["_meta"]; ok {
		p.Meta = v
		delete(raw, "_meta")
	}
	if len(raw) > 0 {
		p.extra = raw
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *Policy) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.extra)+2)
	for k, v := range p.extra {
		out[k] = v
	}
	phases := p.Phases
	if phases == nil {
		phases = map[string]*Phase{}
	}
	out["phases"] = phases
	if len(p.Meta) > 0 {
		out["_meta"] = p.Meta
	}
	return json.Marshal(out)
}

// PhaseNames returns the policy's phase names sorted.
func (p *Policy) PhaseNames() []string {
	names := make([]string, 0, len(p.Phases))
	for name := range p.Phases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every phase.
func (p *Policy) Validate() error {
	for _, name := range p.PhaseNames() {
		ph := p.Phases[name]
		if ph == nil {
			return fmt.Errorf("phase %q: empty", name)
		}
		if err := ph.Validate(); err != nil {
			return fmt.Errorf("phase %q: %w", name, err)
		}
	}
	return nil
}

// Validate checks the phase min_age format.
func (ph *Phase) Validate() error {
	return validation.ValidateStruct(ph,
		validation.Field(&ph.MinAge, validation.Match(minAgePattern)),
	)
}

// Validate checks the rollover thresholds.
func (r *RolloverAction) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.MaxPrimaryShardSize, validation.Match(shardSizeFormat)),
		validation.Field(&r.MaxDocs, validation.By(positiveCount)),
	)
}

func positiveCount(value any) error {
	n, _ := value.(*int64)
	if n != nil && *n <= 0 {
		return errors.New("must be a positive integer")
	}
	return nil
}

// setAction stores v under name in the phase's actions.
func (ph *Phase) setAction(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s action: %w", name, err)
	}
	if ph.Actions == nil {
		ph.Actions = map[string]json.RawMessage{}
	}
	ph.Actions[name] = data
	return nil
}

// normalize gives every phase an actions map and the hot phase a min_age,
// which the cluster expects once a policy has been written back.
func (p *Policy) normalize() {
	for name, ph := range p.Phases {
		if ph == nil {
			ph = &Phase{}
			p.Phases[name] = ph
		}
		if ph.Actions == nil {
			ph.Actions = map[string]json.RawMessage{}
		}
		if name == PhaseHot && ph.MinAge == "" {
			ph.MinAge = "0ms"
		}
	}
}
