package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dm/starsearch/internal/apperr"
)

const (
	endpointILMExplain  = "/*/_ilm/explain"
	endpointILMPolicies = "/_ilm/policy"
	endpointISMExplain  = "/_plugins/_ism/explain/*"
	endpointISMPolicies = "/_plugins/_ism/policies"
	endpointStoreStats  = "/*/_stats/store"
)

// GetILMExplain fetches per-index ILM state from /*/_ilm/explain.
func (c *DefaultClient) GetILMExplain(ctx context.Context) (*ILMExplainResponse, error) {
	body, err := c.doGet(ctx, endpointILMExplain)
	if err != nil {
		return nil, fmt.Errorf("GetILMExplain: %w", err)
	}

	var result ILMExplainResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GetILMExplain decode: %w", apperr.Malformed(err))
	}
	return &result, nil
}

// GetILMPolicies fetches every ILM policy from /_ilm/policy.
func (c *DefaultClient) GetILMPolicies(ctx context.Context) (map[string]ILMPolicyEntry, error) {
	body, err := c.doGet(ctx, endpointILMPolicies)
	if err != nil {
		return nil, fmt.Errorf("GetILMPolicies: %w", err)
	}

	var result map[string]ILMPolicyEntry
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GetILMPolicies decode: %w", apperr.Malformed(err))
	}
	return result, nil
}

// GetILMPolicy fetches a single ILM policy. The response is keyed by name.
func (c *DefaultClient) GetILMPolicy(ctx context.Context, name string) (map[string]ILMPolicyEntry, error) {
	if name == "" {
		return nil, fmt.Errorf("GetILMPolicy: name must not be empty")
	}
	body, err := c.doGet(ctx, endpointILMPolicies+"/"+url.PathEscape(name))
	if err != nil {
		return nil, fmt.Errorf("GetILMPolicy: %w", err)
	}

	var result map[string]ILMPolicyEntry
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GetILMPolicy decode: %w", apperr.Malformed(err))
	}
	return result, nil
}

// PutILMPolicy writes body to /_ilm/policy/<name>. body must already be
// wrapped as {"policy": ...}.
func (c *DefaultClient) PutILMPolicy(ctx context.Context, name string, body any) error {
	if name == "" {
		return fmt.Errorf("PutILMPolicy: name must not be empty")
	}
	status, resp, err := c.do(ctx, http.MethodPut, endpointILMPolicies+"/"+url.PathEscape(name), body)
	if err != nil {
		return fmt.Errorf("PutILMPolicy: %w", err)
	}
	if !isSuccess(status) {
		return fmt.Errorf("PutILMPolicy: %w", &apperr.RejectedError{StatusCode: status, Body: string(resp)})
	}
	return nil
}

// GetISMExplain fetches per-index ISM state from /_plugins/_ism/explain/*.
// The response is a flat object keyed by index name, mixed with summary
// counters such as total_managed_indices.
func (c *DefaultClient) GetISMExplain(ctx context.Context) (OrderedObject, error) {
	body, err := c.doGet(ctx, endpointISMExplain)
	if err != nil {
		return nil, fmt.Errorf("GetISMExplain: %w", err)
	}

	var result OrderedObject
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GetISMExplain decode: %w", apperr.Malformed(err))
	}
	return result, nil
}

// GetISMPolicies fetches every ISM policy from /_plugins/_ism/policies.
func (c *DefaultClient) GetISMPolicies(ctx context.Context) (*ISMPoliciesResponse, error) {
	body, err := c.doGet(ctx, endpointISMPolicies)
	if err != nil {
		return nil, fmt.Errorf("GetISMPolicies: %w", err)
	}

	var result ISMPoliciesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GetISMPolicies decode: %w", apperr.Malformed(err))
	}
	return &result, nil
}

// GetIndexStoreStats fetches per-index store sizes from /*/_stats/store.
func (c *DefaultClient) GetIndexStoreStats(ctx context.Context) (*IndexStatsResponse, error) {
	body, err := c.doGet(ctx, endpointStoreStats)
	if err != nil {
		return nil, fmt.Errorf("GetIndexStoreStats: %w", err)
	}

	var result IndexStatsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GetIndexStoreStats decode: %w", apperr.Malformed(err))
	}
	return &result, nil
}

// DeleteIndex deletes one or more indices by name.
// Names are joined with commas into a single DELETE /<names> request.
func (c *DefaultClient) DeleteIndex(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("DeleteIndex: names must not be empty")
	}
	escaped := make([]string, len(names))
	for i, n := range names {
		escaped[i] = url.PathEscape(n)
	}
	path := "/" + strings.Join(escaped, ",")
	if err := c.doDelete(ctx, path, "index", strings.Join(names, ",")); err != nil {
		return fmt.Errorf("DeleteIndex: %w", err)
	}
	return nil
}

// SearchSavedObjects reads one page of the saved-object index. The first
// page omits the from parameter.
func (c *DefaultClient) SearchSavedObjects(ctx context.Context, index string, from, size int) (*SearchResponse, error) {
	path := savedObjectSearchPath(index, from, size)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("SearchSavedObjects: %w", err)
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("SearchSavedObjects decode: %w", apperr.Malformed(err))
	}
	return &result, nil
}

// PutSavedObject writes doc to /<index>/_doc/<docID>. A non-2xx status is not
// an error here: the caller records it per object.
func (c *DefaultClient) PutSavedObject(ctx context.Context, index, docID string, doc any) (int, []byte, error) {
	status, body, err := c.do(ctx, http.MethodPut, savedObjectDocPath(index, docID), doc)
	if err != nil {
		return 0, nil, fmt.Errorf("PutSavedObject: %w", err)
	}
	return status, body, nil
}

// DeleteSavedObject removes /<index>/_doc/<docID>.
func (c *DefaultClient) DeleteSavedObject(ctx context.Context, index, docID string) error {
	if err := c.doDelete(ctx, savedObjectDocPath(index, docID), "saved object", docID); err != nil {
		return fmt.Errorf("DeleteSavedObject: %w", err)
	}
	return nil
}

func savedObjectSearchPath(index string, from, size int) string {
	path := "/" + url.PathEscape(index) + "/_search?size=" + strconv.Itoa(size)
	if from > 0 {
		path += "&from=" + strconv.Itoa(from)
	}
	return path
}

func savedObjectDocPath(index, docID string) string {
	return "/" + url.PathEscape(index) + "/_doc/" + url.PathEscape(docID)
}
