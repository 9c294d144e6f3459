package savedobject

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ndjson(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestImport_MixedStream(t *testing.T) {
	var written []string
	mock := &MockSavedObjectClient{
		PutFn: func(_ context.Context, index, docID string, _ any) (int, []byte, error) {
			written = append(written, docID)
			if docID == "dashboard:d2" {
				return 500, []byte(`{"error":"boom"}`), nil
			}
			return 201, nil, nil
		},
	}

	res, err := NewImporter(mock, "", nullLogger()).Import(context.Background(), ndjson(
		`{"_index_pattern_map":{"p1":"logs-*"}}`,
		`{not json`,
		`{"id":"d1","type":"dashboard","attributes":{"title":"One"}}`,
		`{"type":"dashboard","attributes":{"title":"No id"}}`,
		`{"id":"d2","type":"dashboard","attributes":{"title":"Two"}}`,
		``,
		`{"id":"d3","type":"dashboard","attributes":{}}`,
	), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"dashboard:d1", "dashboard:d2", "dashboard:d3"}, written, "a failed write does not stop later records")
	require.Len(t, res.Imported, 3)
	assert.Equal(t, 2, res.Succeeded())

	failed := res.Imported[1]
	assert.Equal(t, "d2", failed.ID)
	assert.Equal(t, "Two", failed.Title)
	assert.Equal(t, 500, failed.Status)
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Error, "boom")

	assert.Equal(t, "N/A", res.Imported[2].Title)

	require.Len(t, res.Skipped, 2, "the map line is not reported as skipped")
	assert.Equal(t, 2, res.Skipped[0].Line)
	assert.Contains(t, res.Skipped[0].Reason, "malformed JSON")
	assert.Equal(t, 4, res.Skipped[1].Line)
	assert.Equal(t, "missing id", res.Skipped[1].Reason)
}

func TestImport_TransportErrorContinues(t *testing.T) {
	calls := 0
	mock := &MockSavedObjectClient{
		PutFn: func(context.Context, string, string, any) (int, []byte, error) {
			calls++
			if calls == 1 {
				return 0, nil, errors.New("connection reset")
			}
			return 200, nil, nil
		},
	}

	res, err := NewImporter(mock, ".kibana", nullLogger()).Import(context.Background(), ndjson(
		`{"id":"a","type":"search","attributes":{"title":"A"}}`,
		`{"id":"b","type":"search","attributes":{"title":"B"}}`,
	), ImportOptions{})
	require.NoError(t, err)
	require.Len(t, res.Imported, 2)
	assert.False(t, res.Imported[0].Success)
	assert.Equal(t, "connection reset", res.Imported[0].Error)
	assert.True(t, res.Imported[1].Success)
}

func TestImport_DocumentShape(t *testing.T) {
	var gotIndex, gotID string
	var gotDoc []byte
	mock := &MockSavedObjectClient{
		PutFn: func(_ context.Context, index, docID string, doc any) (int, []byte, error) {
			gotIndex, gotID = index, docID
			var err error
			gotDoc, err = json.Marshal(doc)
			return 201, nil, err
		},
	}

	_, err := NewImporter(mock, "", nullLogger()).Import(context.Background(), ndjson(
		`{"id":"d1","type":"dashboard","attributes":{"title":"One"},"references":[{"id":"v1","name":"panel_0","type":"visualization"}]}`,
	), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, ".kibana", gotIndex)
	assert.Equal(t, "dashboard:d1", gotID)
	assert.JSONEq(t,
		`{"dashboard":{"title":"One"},"type":"dashboard","references":[{"id":"v1","name":"panel_0","type":"visualization"}]}`,
		string(gotDoc))
}

func TestImport_NullReferencesOmitted(t *testing.T) {
	var gotDoc []byte
	mock := &MockSavedObjectClient{
		PutFn: func(_ context.Context, _, _ string, doc any) (int, []byte, error) {
			gotDoc, _ = json.Marshal(doc)
			return 201, nil, nil
		},
	}
	_, err := NewImporter(mock, "", nullLogger()).Import(context.Background(), ndjson(
		`{"id":"s1","type":"search","attributes":{"title":"S"},"references":null}`,
	), ImportOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"search":{"title":"S"},"type":"search"}`, string(gotDoc))
}

func TestImport_DryRunWritesNothing(t *testing.T) {
	mock := &MockSavedObjectClient{
		PutFn: func(context.Context, string, string, any) (int, []byte, error) {
			t.Fatal("dry run must not write")
			return 0, nil, nil
		},
	}

	res, err := NewImporter(mock, "", nullLogger()).Import(context.Background(), ndjson(
		`{"_index_pattern_map":{}}`,
		`{"id":"d1","type":"dashboard","attributes":{"title":"One"}}`,
		`{"id":"v1","type":"visualization","attributes":{"title":"Vis"}}`,
	), ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.Empty(t, res.Imported)
	require.Len(t, res.Skipped, 2)
	for _, s := range res.Skipped {
		assert.Equal(t, "dry run", s.Reason)
	}
}

func TestImport_TypeFilter(t *testing.T) {
	idx := newMemoryIndex()
	res, err := NewImporter(idx.client(), "", nullLogger()).Import(context.Background(), ndjson(
		`{"id":"d1","type":"dashboard","attributes":{"title":"One"}}`,
		`{"id":"v1","type":"visualization","attributes":{"title":"Vis"}}`,
	), ImportOptions{Type: "visualization"})
	require.NoError(t, err)

	require.Len(t, res.Imported, 1)
	assert.Equal(t, "v1", res.Imported[0].ID)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, Skip{Line: 1, ID: "d1", Type: "dashboard", Reason: "type mismatch"}, res.Skipped[0])
	assert.Equal(t, []string{"visualization:v1"}, idx.order)
}

func TestImport_UnresolvedReferences(t *testing.T) {
	res, err := NewImporter(&MockSavedObjectClient{}, "", nullLogger()).Import(context.Background(), ndjson(
		`{"_index_pattern_map":{"p1":"logs-*"}}`,
		`{"id":"v1","type":"visualization","attributes":{"title":"Vis"},"references":[{"id":"p1","name":"idx","type":"index-pattern"}]}`,
		`{"id":"d1","type":"dashboard","attributes":{"title":"Dash"},"references":[{"id":"v1","name":"panel_0","type":"visualization"},{"id":"v9","name":"panel_1","type":"visualization"}]}`,
	), ImportOptions{})
	require.NoError(t, err)

	require.Len(t, res.Imported, 2)
	assert.Empty(t, res.Imported[0].UnresolvedReferences)
	assert.Equal(t, []string{"visualization:v9"}, res.Imported[1].UnresolvedReferences)
	assert.True(t, res.Imported[1].Success, "unresolved references do not block the write")
}

func TestImport_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewImporter(&MockSavedObjectClient{}, "", nullLogger()).Import(ctx, ndjson(
		`{"id":"d1","type":"dashboard","attributes":{"title":"One"}}`,
	), ImportOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseNDJSON_MergesMapLines(t *testing.T) {
	ps, err := ParseNDJSON(ndjson(
		`{"_index_pattern_map":{"p1":"logs-*"}}`,
		`{"_index_pattern_map":{"p2":"metrics-*"}}`,
		`{"id":"x","type":"search","attributes":"not an object"}`,
	))
	require.NoError(t, err)
	assert.Equal(t, IndexPatternMap{"p1": "logs-*", "p2": "metrics-*"}, ps.IndexPatterns)
	assert.Empty(t, ps.Records)
	require.Len(t, ps.Skipped, 1)
	assert.Equal(t, "missing attributes", ps.Skipped[0].Reason)
}

func TestExportImport_RoundTrip(t *testing.T) {
	source := seededIndex()
	var first bytes.Buffer
	s, err := newTestExporter(source).Export(context.Background(), Filter{})
	require.NoError(t, err)
	require.NoError(t, s.WriteNDJSON(&first))

	target := newMemoryIndex()
	target.add("index-pattern:p1", object("index-pattern", `{"title":"logs-*"}`, ""))
	res, err := NewImporter(target.client(), "", nullLogger()).Import(context.Background(), bytes.NewReader(first.Bytes()), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, len(s.Records), res.Succeeded())
	assert.Empty(t, res.Skipped)

	var second bytes.Buffer
	s2, err := newTestExporter(target).Export(context.Background(), Filter{})
	require.NoError(t, err)
	require.NoError(t, s2.WriteNDJSON(&second))
	assert.Equal(t, first.String(), second.String())
}
