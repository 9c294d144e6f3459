package savedobject

import (
	"context"
	"encoding/json"
	"io"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/dm/starsearch/internal/client"
)

// DefaultTypes are the saved-object types an export carries.
var DefaultTypes = []string{"dashboard", "visualization", "search"}

// IndexPatternMap maps index-pattern local ids to their titles.
type IndexPatternMap map[string]string

// Record is one exported saved object.
type Record struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes json.RawMessage `json:"attributes"`
	References json.RawMessage `json:"references,omitempty"`
}

// Title returns the record's title attribute, or "N/A".
func (r Record) Title() string {
	if t := titleOf(r.Attributes); t != "" {
		return t
	}
	return "N/A"
}

// mapRecord is the first line of an export stream.
type mapRecord struct {
	IndexPatterns IndexPatternMap `json:"_index_pattern_map"`
}

// Stream is an export: the index-pattern map followed by object records.
type Stream struct {
	IndexPatterns IndexPatternMap
	Records       []Record
	// Truncated is set when the saved-object read hit its object cap.
	Truncated bool
}

// WriteNDJSON writes the map record then one record per line.
func (s *Stream) WriteNDJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(mapRecord{IndexPatterns: s.IndexPatterns}); err != nil {
		return err
	}
	for _, rec := range s.Records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the same lines as one indented JSON array.
func (s *Stream) WriteJSON(w io.Writer) error {
	lines := make([]any, 0, len(s.Records)+1)
	lines = append(lines, mapRecord{IndexPatterns: s.IndexPatterns})
	for _, rec := range s.Records {
		lines = append(lines, rec)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(lines)
}

// Filter narrows an export. Empty fields match everything.
type Filter struct {
	IDs  []string
	Type string
}

// Exporter turns the saved-object index into an export stream.
type Exporter struct {
	r     *Reader
	types []string
	log   *logrus.Logger
}

// NewExporter returns an Exporter limited to types, or DefaultTypes when
// types is empty.
func NewExporter(r *Reader, types []string, log *logrus.Logger) *Exporter {
	if len(types) == 0 {
		types = DefaultTypes
	}
	return &Exporter{r: r, types: types, log: log}
}

// Export reads the saved-object index and builds a stream. It never writes
// to the cluster.
func (e *Exporter) Export(ctx context.Context, f Filter) (*Stream, error) {
	snap, err := e.r.Read(ctx)
	if err != nil {
		return nil, err
	}
	s := BuildStream(snap.Hits, f, e.types, e.log)
	s.Truncated = snap.Truncated
	return s, nil
}

// BuildStream builds an export stream from raw hits. It is a pure function of
// its inputs: the same hits always give the same stream.
func BuildStream(hits []client.SearchHit, f Filter, types []string, log *logrus.Logger) *Stream {
	docs := make([]Document, 0, len(hits))
	for _, hit := range hits {
		doc, err := DecodeHit(hit)
		if err != nil {
			log.WithError(err).WithField("id", hit.ID).Warn("skipping undecodable saved object")
			continue
		}
		docs = append(docs, doc)
	}

	s := &Stream{IndexPatterns: IndexPatternMap{}, Records: []Record{}}
	for _, doc := range docs {
		if doc.Type != TypeIndexPattern {
			continue
		}
		if title := doc.Title(); title != "" {
			s.IndexPatterns[doc.ID] = title
		}
	}

	for _, doc := range docs {
		if f.Type != "" && doc.Type != f.Type {
			continue
		}
		if len(f.IDs) > 0 && !slices.Contains(f.IDs, doc.ID) {
			continue
		}
		if !slices.Contains(types, doc.Type) {
			continue
		}
		if !isObject(doc.Attributes) {
			log.WithFields(logrus.Fields{"id": doc.ID, "type": doc.Type}).Warn("skipping saved object without attributes")
			continue
		}

		attrs, err := sanitizeAttributes(doc.Attributes)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{"id": doc.ID, "type": doc.Type}).
				Warn("search source not sanitized; exporting attributes unchanged")
		}
		s.Records = append(s.Records, Record{
			ID:         doc.ID,
			Type:       doc.Type,
			Attributes: attrs,
			References: doc.References,
		})
	}
	return s
}

func isObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
