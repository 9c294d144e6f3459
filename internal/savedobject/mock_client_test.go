package savedobject

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dm/starsearch/internal/apperr"
	"github.com/dm/starsearch/internal/client"
)

// MockSavedObjectClient implements client.SavedObjectAPI for testing.
type MockSavedObjectClient struct {
	SearchFn func(ctx context.Context, index string, from, size int) (*client.SearchResponse, error)
	PutFn    func(ctx context.Context, index, docID string, doc any) (int, []byte, error)
	DeleteFn func(ctx context.Context, index, docID string) error
}

func (m *MockSavedObjectClient) SearchSavedObjects(ctx context.Context, index string, from, size int) (*client.SearchResponse, error) {
	if m.SearchFn != nil {
		return m.SearchFn(ctx, index, from, size)
	}
	return &client.SearchResponse{}, nil
}

func (m *MockSavedObjectClient) PutSavedObject(ctx context.Context, index, docID string, doc any) (int, []byte, error) {
	if m.PutFn != nil {
		return m.PutFn(ctx, index, docID, doc)
	}
	return 201, []byte(`{"result":"created"}`), nil
}

func (m *MockSavedObjectClient) DeleteSavedObject(ctx context.Context, index, docID string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, index, docID)
	}
	return nil
}

// memoryIndex is an in-memory saved-object index. It serves searches in
// insertion order and records writes.
type memoryIndex struct {
	mu    sync.Mutex
	order []string
	docs  map[string]json.RawMessage
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{docs: map[string]json.RawMessage{}}
}

func (m *memoryIndex) add(docID, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[docID]; !ok {
		m.order = append(m.order, docID)
	}
	m.docs[docID] = json.RawMessage(source)
}

func (m *memoryIndex) client() *MockSavedObjectClient {
	return &MockSavedObjectClient{
		SearchFn: func(ctx context.Context, index string, from, size int) (*client.SearchResponse, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			resp := &client.SearchResponse{}
			resp.Hits.Total = client.TotalHits{Value: int64(len(m.order)), Relation: "eq"}
			for i := from; i < len(m.order) && i < from+size; i++ {
				id := m.order[i]
				resp.Hits.Hits = append(resp.Hits.Hits, client.SearchHit{Index: index, ID: id, Source: m.docs[id]})
			}
			return resp, nil
		},
		PutFn: func(ctx context.Context, index, docID string, doc any) (int, []byte, error) {
			data, err := json.Marshal(doc)
			if err != nil {
				return 0, nil, err
			}
			m.add(docID, string(data))
			return 201, nil, nil
		},
		DeleteFn: func(ctx context.Context, index, docID string) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.docs[docID]; !ok {
				return &apperr.NotFoundError{Kind: "saved object", Name: docID}
			}
			delete(m.docs, docID)
			for i, id := range m.order {
				if id == docID {
					m.order = append(m.order[:i], m.order[i+1:]...)
					break
				}
			}
			return nil
		},
	}
}

// object renders a saved-object _source.
func object(objType, attrs, refs string) string {
	if refs == "" {
		return fmt.Sprintf(`{"type":%q,%q:%s}`, objType, objType, attrs)
	}
	return fmt.Sprintf(`{"type":%q,%q:%s,"references":%s}`, objType, objType, attrs, refs)
}

// nullLogger discards everything.
func nullLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}
