package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/starsearch/internal/apperr"
	"github.com/dm/starsearch/internal/client"
)

// policyStore is a MockLifecycleClient holding one policy and recording the
// last write.
type policyStore struct {
	*MockLifecycleClient
	written json.RawMessage
	puts    int
}

func newPolicyStore(t *testing.T, name, policy string) *policyStore {
	t.Helper()
	s := &policyStore{}
	s.MockLifecycleClient = &MockLifecycleClient{
		ILMPolicyFn: func(ctx context.Context, got string) (map[string]client.ILMPolicyEntry, error) {
			if got != name {
				return nil, &apperr.RejectedError{StatusCode: 404, Body: `{"error":"not found"}`}
			}
			return map[string]client.ILMPolicyEntry{name: {Version: 1, Policy: json.RawMessage(policy)}}, nil
		},
		PutILMPolicyFn: func(ctx context.Context, got string, body any) error {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			s.written = data
			s.puts++
			return nil
		},
	}
	return s
}

// phases decodes the phases from the last written policy document.
func (s *policyStore) phases(t *testing.T) map[string]json.RawMessage {
	t.Helper()
	var doc struct {
		Policy struct {
			Phases map[string]json.RawMessage `json:"phases"`
		} `json:"policy"`
	}
	require.NoError(t, json.Unmarshal(s.written, &doc))
	return doc.Policy.Phases
}

func newTestMutator(c client.LifecycleAPI) *Mutator {
	return NewMutator(c, DefaultMutatorConfig(), nullLogger())
}

func TestSetDeletePhase(t *testing.T) {
	store := newPolicyStore(t, "logs", `{"phases":{"hot":{"min_age":"0ms","actions":{"rollover":{"max_age":"7d"}}},"delete":{"min_age":"90d","actions":{"wait_for_snapshot":{"policy":"nightly"},"delete":{}}}}}`)

	change, err := newTestMutator(store).SetDeletePhase(context.Background(), "logs", 30)
	require.NoError(t, err)
	assert.True(t, change.Success)
	assert.Equal(t, "logs", change.Policy)
	assert.Equal(t, "30d", change.DeleteAfter)
	assert.Contains(t, change.Message, "30 days")

	phases := store.phases(t)
	assert.JSONEq(t, `{"min_age":"30d","actions":{"delete":{"delete_searchable_snapshot":true}}}`, string(phases["delete"]))
	assert.JSONEq(t, `{"min_age":"0ms","actions":{"rollover":{"max_age":"7d"}}}`, string(phases["hot"]), "other phases untouched")
}

func TestSetWarmAndColdPhase(t *testing.T) {
	store := newPolicyStore(t, "logs", `{"phases":{}}`)
	m := newTestMutator(store)

	warm, err := m.SetWarmPhase(context.Background(), "logs", 7)
	require.NoError(t, err)
	assert.Equal(t, "7d", warm.WarmAfter)
	assert.JSONEq(t, `{"min_age":"7d","actions":{"set_priority":{"priority":50}}}`, string(store.phases(t)["warm"]))

	cold, err := m.SetColdPhase(context.Background(), "logs", 0)
	require.NoError(t, err)
	assert.Equal(t, "0d", cold.ColdAfter)
	assert.JSONEq(t, `{"min_age":"0d","actions":{"set_priority":{"priority":0}}}`, string(store.phases(t)["cold"]))
}

func TestMutator_ConfiguredPriorities(t *testing.T) {
	store := newPolicyStore(t, "logs", `{"phases":{}}`)
	m := NewMutator(store, MutatorConfig{WarmPriority: 75, ColdPriority: 10, DeleteSearchableSnapshot: false}, nullLogger())

	_, err := m.SetWarmPhase(context.Background(), "logs", 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"min_age":"1d","actions":{"set_priority":{"priority":75}}}`, string(store.phases(t)["warm"]))

	_, err = m.SetDeletePhase(context.Background(), "logs", 2)
	require.NoError(t, err)
	assert.JSONEq(t, `{"min_age":"2d","actions":{"delete":{"delete_searchable_snapshot":false}}}`, string(store.phases(t)["delete"]))
}

func TestSetRollover_SizeOnly(t *testing.T) {
	store := newPolicyStore(t, "logs", `{"phases":{"delete":{"min_age":"30d","actions":{"delete":{}}}}}`)

	change, err := newTestMutator(store).SetRollover(context.Background(), "logs", "50gb", nil)
	require.NoError(t, err)
	assert.Contains(t, change.Message, "max_primary_shard_size=50gb")

	var hot Phase
	require.NoError(t, json.Unmarshal(store.phases(t)["hot"], &hot))
	assert.Equal(t, "0ms", hot.MinAge)
	assert.JSONEq(t, `{"max_primary_shard_size":"50gb"}`, string(hot.Actions["rollover"]))

	out, err := json.Marshal(change)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"policy":"logs","rollover":{"max_primary_shard_size":"50gb"},"message":"Policy updated with rollover: max_primary_shard_size=50gb"}`, string(out))
}

func TestSetRollover_ReplacesExistingAction(t *testing.T) {
	store := newPolicyStore(t, "logs", `{"phases":{"hot":{"min_age":"1h","actions":{"rollover":{"max_age":"7d","max_primary_shard_size":"10gb"},"set_priority":{"priority":100}}}}}`)
	docs := int64(1000000)

	change, err := newTestMutator(store).SetRollover(context.Background(), "logs", "", &docs)
	require.NoError(t, err)
	assert.Contains(t, change.Message, "max_docs=1,000,000")

	var hot Phase
	require.NoError(t, json.Unmarshal(store.phases(t)["hot"], &hot))
	assert.Equal(t, "1h", hot.MinAge)
	assert.JSONEq(t, `{"max_docs":1000000}`, string(hot.Actions["rollover"]))
	assert.JSONEq(t, `{"priority":100}`, string(hot.Actions["set_priority"]))
}

func TestSetRollover_HotWithoutActions(t *testing.T) {
	store := newPolicyStore(t, "logs", `{"phases":{"hot":{}}}`)

	_, err := newTestMutator(store).SetRollover(context.Background(), "logs", "1tb", nil)
	require.NoError(t, err)

	var hot Phase
	require.NoError(t, json.Unmarshal(store.phases(t)["hot"], &hot))
	assert.Equal(t, "0ms", hot.MinAge)
	assert.Contains(t, hot.Actions, "rollover")
}

func TestSetRollover_Empty(t *testing.T) {
	store := newPolicyStore(t, "logs", `{}`)

	change, err := newTestMutator(store).SetRollover(context.Background(), "logs", "", nil)
	require.NoError(t, err)
	assert.NotNil(t, change.Rollover)

	var hot Phase
	require.NoError(t, json.Unmarshal(store.phases(t)["hot"], &hot))
	assert.JSONEq(t, `{}`, string(hot.Actions["rollover"]))
}

func TestSetRollover_InvalidSize(t *testing.T) {
	store := newPolicyStore(t, "logs", `{"phases":{}}`)

	_, err := newTestMutator(store).SetRollover(context.Background(), "logs", "huge", nil)
	require.Error(t, err)
	assert.Equal(t, 0, store.puts, "invalid input must not reach the cluster")
}

func TestMutator_PolicyNotFound(t *testing.T) {
	store := newPolicyStore(t, "logs", `{"phases":{}}`)

	_, err := newTestMutator(store).SetDeletePhase(context.Background(), "metrics", 30)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Contains(t, err.Error(), "metrics")
	assert.Equal(t, 0, store.puts)
}

func TestMutator_PolicyMissingFromResponse(t *testing.T) {
	mock := &MockLifecycleClient{
		ILMPolicyFn: func(ctx context.Context, name string) (map[string]client.ILMPolicyEntry, error) {
			return map[string]client.ILMPolicyEntry{}, nil
		},
	}
	_, err := newTestMutator(mock).SetWarmPhase(context.Background(), "logs", 3)
	assert.True(t, apperr.IsNotFound(err))
}

func TestMutator_TransportErrorIsNotNotFound(t *testing.T) {
	mock := &MockLifecycleClient{
		ILMPolicyFn: func(ctx context.Context, name string) (map[string]client.ILMPolicyEntry, error) {
			return nil, errors.New("connection reset")
		},
	}
	_, err := newTestMutator(mock).SetWarmPhase(context.Background(), "logs", 3)
	require.Error(t, err)
	assert.False(t, apperr.IsNotFound(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestMutator_UpdateRejected(t *testing.T) {
	store := newPolicyStore(t, "logs", `{"phases":{}}`)
	store.PutILMPolicyFn = func(ctx context.Context, name string, body any) error {
		return &apperr.RejectedError{StatusCode: 400, Body: `{"error":"invalid phase"}`}
	}

	_, err := newTestMutator(store).SetColdPhase(context.Background(), "logs", 60)
	require.Error(t, err)

	var rej *apperr.RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, 400, rej.StatusCode)
	assert.Equal(t, `{"error":"invalid phase"}`, rej.Body)
	assert.Contains(t, err.Error(), "logs")
}

func TestMutator_RefusesOpenSearch(t *testing.T) {
	store := newPolicyStore(t, "logs", `{"phases":{}}`)
	store.InfoFn = opensearchInfo

	_, err := newTestMutator(store).SetDeletePhase(context.Background(), "logs", 30)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUnsupportedDialect))
	assert.Equal(t, 0, store.puts)
}

func TestMutator_NegativeDays(t *testing.T) {
	store := newPolicyStore(t, "logs", `{"phases":{}}`)

	_, err := newTestMutator(store).SetWarmPhase(context.Background(), "logs", -1)
	require.Error(t, err)
	assert.Equal(t, 0, store.puts)
}

func TestMutator_MalformedStoredPolicy(t *testing.T) {
	store := newPolicyStore(t, "logs", `{"phases":{"warm":{"min_age":"soon"}}}`)

	_, err := newTestMutator(store).SetDeletePhase(context.Background(), "logs", 30)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrMalformedResponse))
	assert.Equal(t, 0, store.puts)
}
