package savedobject

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// sanitizeAttributes blanks the query text and filters inside
// kibanaSavedObjectMeta.searchSourceJSON. Attributes without a search source
// come back unchanged. On error the original attributes are returned with it.
func sanitizeAttributes(attrs json.RawMessage) (json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(attrs, &top); err != nil {
		return attrs, fmt.Errorf("attributes: %w", err)
	}
	metaRaw, ok := top["kibanaSavedObjectMeta"]
	if !ok {
		return attrs, nil
	}
	var meta map[string]json.RawMessage
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return attrs, fmt.Errorf("kibanaSavedObjectMeta: %w", err)
	}
	sourceRaw, ok := meta["searchSourceJSON"]
	if !ok {
		return attrs, nil
	}
	var source string
	if err := json.Unmarshal(sourceRaw, &source); err != nil {
		return attrs, fmt.Errorf("searchSourceJSON: %w", err)
	}

	clean, err := sanitizeSearchSource(source)
	if err != nil {
		return attrs, fmt.Errorf("searchSourceJSON: %w", err)
	}

	if meta["searchSourceJSON"], err = marshal(clean); err != nil {
		return attrs, err
	}
	if top["kibanaSavedObjectMeta"], err = marshal(meta); err != nil {
		return attrs, err
	}
	out, err := marshal(top)
	if err != nil {
		return attrs, err
	}
	return out, nil
}

// sanitizeSearchSource rewrites a search-source document with query.query
// set to "" and filter set to []. Other keys, including query.language, are
// kept. Running it twice gives the same result.
func sanitizeSearchSource(source string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(source))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return "", err
	}
	if doc == nil {
		return "", fmt.Errorf("search source is not an object")
	}
	if q, ok := doc["query"].(map[string]any); ok {
		q["query"] = ""
	}
	if _, ok := doc["filter"]; ok {
		doc["filter"] = []any{}
	}
	out, err := marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// marshal encodes v compactly without HTML escaping, so attribute text such
// as "<" survives an export unchanged.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
