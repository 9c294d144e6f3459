package savedobject

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// maxLineBytes bounds a single ndjson line; large dashboards embed whole
// visualization states in their attributes.
const maxLineBytes = 64 * 1024 * 1024

// WriteAPI is the write side of the saved-object index.
type WriteAPI interface {
	PutSavedObject(ctx context.Context, index, docID string, doc any) (int, []byte, error)
}

// ImportOptions narrows an import.
type ImportOptions struct {
	// Type, when set, skips records of any other type.
	Type string
	// DryRun validates and reports without writing.
	DryRun bool
}

// Outcome is the result of one attempted write.
type Outcome struct {
	ID                   string   `json:"id"`
	Type                 string   `json:"type"`
	Title                string   `json:"title"`
	Status               int      `json:"status"`
	Success              bool     `json:"success"`
	Error                string   `json:"error,omitempty"`
	UnresolvedReferences []string `json:"unresolved_references,omitempty"`
}

// Skip records a line that was intentionally not written.
type Skip struct {
	Line   int    `json:"line"`
	ID     string `json:"id,omitempty"`
	Type   string `json:"type,omitempty"`
	Reason string `json:"reason"`
}

// Result collects per-record outcomes. One failed write does not stop the
// records after it.
type Result struct {
	Imported []Outcome `json:"imported"`
	Skipped  []Skip    `json:"skipped"`
}

// Succeeded counts successful writes.
func (r *Result) Succeeded() int {
	n := 0
	for _, o := range r.Imported {
		if o.Success {
			n++
		}
	}
	return n
}

// ParsedStream is an export stream read back for import.
type ParsedStream struct {
	IndexPatterns IndexPatternMap
	Records       []LineRecord
	Skipped       []Skip
}

// LineRecord is a record with its 1-based line number.
type LineRecord struct {
	Line int
	Record
}

// ParseNDJSON reads an export stream. Map records are merged into
// IndexPatterns; malformed or incomplete lines are reported in Skipped.
// Only read failures are returned as errors.
func ParseNDJSON(r io.Reader) (*ParsedStream, error) {
	ps := &ParsedStream{IndexPatterns: IndexPatternMap{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			ps.Skipped = append(ps.Skipped, Skip{Line: line, Reason: "malformed JSON: " + err.Error()})
			continue
		}
		if m, ok := fields["_index_pattern_map"]; ok {
			var patterns IndexPatternMap
			if err := json.Unmarshal(m, &patterns); err != nil {
				ps.Skipped = append(ps.Skipped, Skip{Line: line, Reason: "malformed index pattern map: " + err.Error()})
				continue
			}
			for id, title := range patterns {
				ps.IndexPatterns[id] = title
			}
			continue
		}

		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			ps.Skipped = append(ps.Skipped, Skip{Line: line, Reason: "malformed record: " + err.Error()})
			continue
		}
		if reason := missingField(rec); reason != "" {
			ps.Skipped = append(ps.Skipped, Skip{Line: line, ID: rec.ID, Type: rec.Type, Reason: reason})
			continue
		}
		if isNull(rec.References) {
			rec.References = nil
		}
		ps.Records = append(ps.Records, LineRecord{Line: line, Record: rec})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read import stream: %w", err)
	}
	return ps, nil
}

func missingField(rec Record) string {
	switch {
	case rec.ID == "":
		return "missing id"
	case rec.Type == "":
		return "missing type"
	case !isObject(rec.Attributes):
		return "missing attributes"
	}
	return ""
}

// Importer replays an export stream into a saved-object index.
type Importer struct {
	c     WriteAPI
	index string
	log   *logrus.Logger
}

// NewImporter returns an Importer writing to index.
func NewImporter(c WriteAPI, index string, log *logrus.Logger) *Importer {
	if index == "" {
		index = DefaultReaderConfig().Index
	}
	return &Importer{c: c, index: index, log: log}
}

// Import parses r and writes every record as <type>:<id>. Writes are
// idempotent replaces. A record whose write fails, by status or transport
// error, is reported with success=false and the import continues.
func (im *Importer) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*Result, error) {
	ps, err := ParseNDJSON(r)
	if err != nil {
		return nil, err
	}

	res := &Result{Imported: []Outcome{}, Skipped: []Skip{}}
	res.Skipped = append(res.Skipped, ps.Skipped...)

	known := make(map[string]bool, len(ps.Records)+len(ps.IndexPatterns))
	for _, rec := range ps.Records {
		known[DocID(rec.Type, rec.ID)] = true
	}
	for id := range ps.IndexPatterns {
		known[DocID(TypeIndexPattern, id)] = true
	}

	for _, rec := range ps.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.Type != "" && rec.Type != opts.Type {
			res.Skipped = append(res.Skipped, Skip{Line: rec.Line, ID: rec.ID, Type: rec.Type, Reason: "type mismatch"})
			continue
		}
		if opts.DryRun {
			res.Skipped = append(res.Skipped, Skip{Line: rec.Line, ID: rec.ID, Type: rec.Type, Reason: "dry run"})
			continue
		}
		res.Imported = append(res.Imported, im.write(ctx, rec.Record, known))
	}

	im.log.WithFields(logrus.Fields{
		"index":     im.index,
		"attempted": len(res.Imported),
		"succeeded": res.Succeeded(),
		"skipped":   len(res.Skipped),
	}).Info("import finished")
	return res, nil
}

func (im *Importer) write(ctx context.Context, rec Record, known map[string]bool) Outcome {
	out := Outcome{
		ID:                   rec.ID,
		Type:                 rec.Type,
		Title:                rec.Title(),
		UnresolvedReferences: unresolvedReferences(rec.References, known),
	}

	doc := map[string]any{
		rec.Type: rec.Attributes,
		"type":   rec.Type,
	}
	if len(rec.References) > 0 {
		doc["references"] = rec.References
	}

	status, body, err := im.c.PutSavedObject(ctx, im.index, DocID(rec.Type, rec.ID), doc)
	out.Status = status
	switch {
	case err != nil:
		out.Error = err.Error()
	case status == 200 || status == 201:
		out.Success = true
	default:
		out.Error = string(body)
	}
	if !out.Success {
		im.log.WithFields(logrus.Fields{
			"id":     rec.ID,
			"type":   rec.Type,
			"status": status,
			"error":  out.Error,
		}).Warn("saved object import failed")
	}
	return out
}

// reference is one entry of a saved object's references array.
type reference struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func unresolvedReferences(raw json.RawMessage, known map[string]bool) []string {
	if len(raw) == 0 {
		return nil
	}
	var refs []reference
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil
	}
	var missing []string
	for _, ref := range refs {
		if ref.ID == "" || known[DocID(ref.Type, ref.ID)] {
			continue
		}
		missing = append(missing, DocID(ref.Type, ref.ID))
	}
	return missing
}
