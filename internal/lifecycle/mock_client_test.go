package lifecycle

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/dm/starsearch/internal/client"
)

// MockLifecycleClient implements client.LifecycleAPI for testing. Unset
// functions return an empty Elasticsearch cluster.
type MockLifecycleClient struct {
	InfoFn         func(ctx context.Context) (*client.ClusterInfo, error)
	ILMExplainFn   func(ctx context.Context) (*client.ILMExplainResponse, error)
	ILMPoliciesFn  func(ctx context.Context) (map[string]client.ILMPolicyEntry, error)
	ILMPolicyFn    func(ctx context.Context, name string) (map[string]client.ILMPolicyEntry, error)
	PutILMPolicyFn func(ctx context.Context, name string, body any) error
	ISMExplainFn   func(ctx context.Context) (client.OrderedObject, error)
	ISMPoliciesFn  func(ctx context.Context) (*client.ISMPoliciesResponse, error)
	StoreStatsFn   func(ctx context.Context) (*client.IndexStatsResponse, error)
}

func (m *MockLifecycleClient) Info(ctx context.Context) (*client.ClusterInfo, error) {
	if m.InfoFn != nil {
		return m.InfoFn(ctx)
	}
	info := &client.ClusterInfo{ClusterName: "test"}
	info.Version.Number = "8.11.0"
	return info, nil
}

func (m *MockLifecycleClient) GetILMExplain(ctx context.Context) (*client.ILMExplainResponse, error) {
	if m.ILMExplainFn != nil {
		return m.ILMExplainFn(ctx)
	}
	return &client.ILMExplainResponse{}, nil
}

func (m *MockLifecycleClient) GetILMPolicies(ctx context.Context) (map[string]client.ILMPolicyEntry, error) {
	if m.ILMPoliciesFn != nil {
		return m.ILMPoliciesFn(ctx)
	}
	return map[string]client.ILMPolicyEntry{}, nil
}

func (m *MockLifecycleClient) GetILMPolicy(ctx context.Context, name string) (map[string]client.ILMPolicyEntry, error) {
	if m.ILMPolicyFn != nil {
		return m.ILMPolicyFn(ctx, name)
	}
	return map[string]client.ILMPolicyEntry{}, nil
}

func (m *MockLifecycleClient) PutILMPolicy(ctx context.Context, name string, body any) error {
	if m.PutILMPolicyFn != nil {
		return m.PutILMPolicyFn(ctx, name, body)
	}
	return nil
}

func (m *MockLifecycleClient) GetISMExplain(ctx context.Context) (client.OrderedObject, error) {
	if m.ISMExplainFn != nil {
		return m.ISMExplainFn(ctx)
	}
	return client.OrderedObject{}, nil
}

func (m *MockLifecycleClient) GetISMPolicies(ctx context.Context) (*client.ISMPoliciesResponse, error) {
	if m.ISMPoliciesFn != nil {
		return m.ISMPoliciesFn(ctx)
	}
	return &client.ISMPoliciesResponse{}, nil
}

func (m *MockLifecycleClient) GetIndexStoreStats(ctx context.Context) (*client.IndexStatsResponse, error) {
	if m.StoreStatsFn != nil {
		return m.StoreStatsFn(ctx)
	}
	return &client.IndexStatsResponse{Indices: map[string]client.IndexStatEntry{}}, nil
}

// opensearchInfo reports an OpenSearch distribution.
func opensearchInfo(ctx context.Context) (*client.ClusterInfo, error) {
	info := &client.ClusterInfo{ClusterName: "test"}
	info.Version.Distribution = "opensearch"
	return info, nil
}

// ordered decodes a JSON object literal preserving key order.
func ordered(t *testing.T, raw string) client.OrderedObject {
	t.Helper()
	var o client.OrderedObject
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("ordered: %v", err)
	}
	return o
}

// storeStats builds a stats response from index name to total size.
func storeStats(sizes map[string]int64) *client.IndexStatsResponse {
	resp := &client.IndexStatsResponse{Indices: map[string]client.IndexStatEntry{}}
	for name, size := range sizes {
		resp.Indices[name] = client.IndexStatEntry{
			Total: &client.IndexStatShard{Store: &client.StoreStats{SizeInBytes: size}},
		}
	}
	return resp
}

// nullLogger discards everything.
func nullLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}
