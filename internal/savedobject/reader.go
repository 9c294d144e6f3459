package savedobject

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dm/starsearch/internal/apperr"
	"github.com/dm/starsearch/internal/client"
)

// TypeIndexPattern is the saved-object type whose titles name index patterns.
const TypeIndexPattern = "index-pattern"

// ReaderConfig controls how much of the saved-object index is read.
type ReaderConfig struct {
	Index      string
	PageSize   int
	MaxObjects int
}

// DefaultReaderConfig reads .kibana in pages of 1000 up to the default
// result window of 10000.
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{Index: ".kibana", PageSize: 1000, MaxObjects: 10000}
}

// SearchAPI is the read side of the saved-object index.
type SearchAPI interface {
	SearchSavedObjects(ctx context.Context, index string, from, size int) (*client.SearchResponse, error)
}

// Snapshot is the raw hit list read from the saved-object index.
type Snapshot struct {
	Hits  []client.SearchHit
	Total int64
	// Truncated is set when MaxObjects was reached before the index was exhausted.
	Truncated bool
}

// Reader pages through the saved-object index.
type Reader struct {
	c   SearchAPI
	cfg ReaderConfig
	log *logrus.Logger
}

// NewReader returns a Reader. Zero fields in cfg take their defaults.
func NewReader(c SearchAPI, cfg ReaderConfig, log *logrus.Logger) *Reader {
	def := DefaultReaderConfig()
	if cfg.Index == "" {
		cfg.Index = def.Index
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.MaxObjects <= 0 {
		cfg.MaxObjects = def.MaxObjects
	}
	return &Reader{c: c, cfg: cfg, log: log}
}

// Index returns the saved-object index name.
func (r *Reader) Index() string { return r.cfg.Index }

// Read fetches saved-object documents page by page until the index is
// exhausted or MaxObjects is reached. A non-2xx page fails the whole read.
func (r *Reader) Read(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	for {
		size := min(r.cfg.PageSize, r.cfg.MaxObjects-len(snap.Hits))
		resp, err := r.c.SearchSavedObjects(ctx, r.cfg.Index, len(snap.Hits), size)
		if err != nil {
			if rej, ok := client.IsRejected(err); ok {
				return nil, apperr.FetchFailed(rej.StatusCode, rej.Body)
			}
			return nil, err
		}

		page := resp.Hits.Hits
		snap.Hits = append(snap.Hits, page...)
		snap.Total = resp.Hits.Total.Value
		exact := resp.Hits.Total.Relation != "gte"

		if len(page) < size || (exact && int64(len(snap.Hits)) >= snap.Total) {
			break
		}
		if len(snap.Hits) >= r.cfg.MaxObjects {
			snap.Truncated = !exact || snap.Total > int64(len(snap.Hits))
			break
		}
	}

	if snap.Truncated {
		r.log.WithFields(logrus.Fields{
			"index": r.cfg.Index,
			"read":  len(snap.Hits),
			"total": snap.Total,
		}).Warn("saved-object read stopped at max_objects; output is truncated")
	}
	return snap, nil
}

// Document is one saved object as stored in the dashboards index.
type Document struct {
	// DocID is the stored document id, "<type>:<id>".
	DocID      string
	ID         string
	Type       string
	Attributes json.RawMessage
	References json.RawMessage
}

// DecodeHit unpacks a search hit. The attributes live under a key named
// after the object type.
func DecodeHit(hit client.SearchHit) (Document, error) {
	var src map[string]json.RawMessage
	if err := json.Unmarshal(hit.Source, &src); err != nil {
		return Document{}, fmt.Errorf("document %q: %w", hit.ID, err)
	}
	doc := Document{DocID: hit.ID, ID: LocalID(hit.ID)}
	if raw, ok := src["type"]; ok {
		if err := json.Unmarshal(raw, &doc.Type); err != nil {
			return Document{}, fmt.Errorf("document %q: type: %w", hit.ID, err)
		}
	}
	if doc.Type != "" {
		doc.Attributes = src[doc.Type]
	}
	if refs, ok := src["references"]; ok && !isNull(refs) {
		doc.References = refs
	}
	return doc, nil
}

// Title returns the object's title attribute, or "" when absent.
func (d Document) Title() string {
	return titleOf(d.Attributes)
}

// LocalID strips the "<type>:" prefix from a stored document id.
func LocalID(docID string) string {
	if _, id, ok := strings.Cut(docID, ":"); ok {
		return id
	}
	return docID
}

// DocID builds the stored document id for a typed object. An id that
// already carries the type prefix is returned unchanged.
func DocID(objType, id string) string {
	if strings.HasPrefix(id, objType+":") {
		return id
	}
	return objType + ":" + id
}

func titleOf(attrs json.RawMessage) string {
	var a struct {
		Title *string `json:"title"`
	}
	if len(attrs) == 0 || json.Unmarshal(attrs, &a) != nil || a.Title == nil {
		return ""
	}
	return *a.Title
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
