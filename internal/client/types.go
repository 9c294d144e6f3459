package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ClusterInfo represents the response from the root endpoint.
type ClusterInfo struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number       string `json:"number"`
		Distribution string `json:"distribution"`
	} `json:"version"`
}

// Member is one key/value pair of a JSON object.
type Member struct {
	Key   string
	Value json.RawMessage
}

// IsObject reports whether the value is a JSON object.
func (m Member) IsObject() bool {
	v := bytes.TrimLeft(m.Value, " \t\r\n")
	return len(v) > 0 && v[0] == '{'
}

// OrderedObject is a JSON object decoded with its key order preserved, so
// entries can be reported in the order the cluster listed them.
type OrderedObject []Member

// UnmarshalJSON implements json.Unmarshaler.
func (o *OrderedObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	var out OrderedObject
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		out = append(out, Member{Key: key, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

// ILMExplainResponse represents the response from /*/_ilm/explain.
type ILMExplainResponse struct {
	Indices OrderedObject `json:"indices"`
}

// ILMExplainEntry is one index in an ILM explain response. Policy is nil
// when the index carries no lifecycle policy.
type ILMExplainEntry struct {
	Index               string      `json:"index"`
	Managed             bool        `json:"managed"`
	Policy              *string     `json:"policy"`
	Phase               *string     `json:"phase"`
	Age                 *string     `json:"age"`
	LifecycleDateMillis json.Number `json:"lifecycle_date_millis"`
}

// ILMPolicyEntry is one policy in a /_ilm/policy response. Policy is kept
// raw and decoded by the lifecycle package.
type ILMPolicyEntry struct {
	Version      int64           `json:"version"`
	ModifiedDate string          `json:"modified_date"`
	Policy       json.RawMessage `json:"policy"`
}

// ISMExplainEntry is one index in an ISM explain response.
type ISMExplainEntry struct {
	PolicyID       *string         `json:"index.plugins.index_state_management.policy_id"`
	LegacyPolicyID *string         `json:"index.opendistro.index_state_management.policy_id"`
	State          json.RawMessage `json:"state"`
}

// ISMPoliciesResponse represents the response from /_plugins/_ism/policies.
type ISMPoliciesResponse struct {
	Policies []ISMPolicyEntry `json:"policies"`
	Total    int64            `json:"total_policies"`
}

// ISMPolicyEntry is one ISM policy document.
type ISMPolicyEntry struct {
	ID     string          `json:"_id"`
	Policy json.RawMessage `json:"policy"`
}

// IndexStatsResponse represents the response from /*/_stats/store.
type IndexStatsResponse struct {
	Indices map[string]IndexStatEntry `json:"indices"`
}

// IndexStatEntry holds per-index statistics split by primaries and total.
type IndexStatEntry struct {
	Primaries *IndexStatShard `json:"primaries,omitempty"`
	Total     *IndexStatShard `json:"total,omitempty"`
}

// IndexStatShard holds shard-level statistics.
type IndexStatShard struct {
	Store *StoreStats `json:"store,omitempty"`
}

// StoreStats holds storage size for a shard.
type StoreStats struct {
	SizeInBytes int64 `json:"size_in_bytes"`
}

// TotalSize returns the total store size, or 0 when the stats omit it.
func (e IndexStatEntry) TotalSize() int64 {
	if e.Total == nil || e.Total.Store == nil {
		return 0
	}
	return e.Total.Store.SizeInBytes
}

// SearchResponse represents a _search response.
type SearchResponse struct {
	Hits SearchHits `json:"hits"`
}

// SearchHits holds the hit list and total count.
type SearchHits struct {
	Total TotalHits   `json:"total"`
	Hits  []SearchHit `json:"hits"`
}

// TotalHits is the hit count. Relation is "gte" when the cluster stopped
// counting early.
type TotalHits struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

// UnmarshalJSON accepts both the object form and the bare number used by
// clusters older than 7.0.
func (t *TotalHits) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		t.Value = n
		t.Relation = "eq"
		return nil
	}
	type plain TotalHits
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = TotalHits(p)
	return nil
}

// SearchHit is a single search hit.
type SearchHit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
}
