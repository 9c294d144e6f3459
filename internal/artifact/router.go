package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dm/starsearch/internal/savedobject"
)

// MapSidecar is the file written next to per-object exports.
const MapSidecar = "_index_pattern_map.json"

// Router reads and writes export streams at a Location.
type Router struct {
	Stdin  io.Reader
	Stdout io.Writer
	// S3 builds the S3 client on first use.
	S3  func(ctx context.Context) (S3API, error)
	Now func() time.Time
	Log *logrus.Logger
}

// Write stores data at loc. For S3, loc.Key is a prefix and the object is
// named by ObjectKey(kind).
func (r *Router) Write(ctx context.Context, loc Location, kind string, data []byte) (string, error) {
	switch loc.Scheme {
	case SchemeStdio:
		if _, err := r.Stdout.Write(data); err != nil {
			return "", err
		}
		return "-", nil
	case SchemeS3:
		st, err := r.s3Store(ctx, loc.Bucket, loc.Key)
		if err != nil {
			return "", err
		}
		return st.Put(ctx, ObjectKey(kind, r.now()), data)
	default:
		return NewDirStore(filepath.Dir(loc.Path), r.Log).Put(ctx, filepath.Base(loc.Path), data)
	}
}

// Read loads the artifact at loc. An S3 location must name an object.
func (r *Router) Read(ctx context.Context, loc Location) ([]byte, error) {
	switch loc.Scheme {
	case SchemeStdio:
		return io.ReadAll(r.Stdin)
	case SchemeS3:
		if loc.Key == "" {
			return nil, fmt.Errorf("S3 location %s does not name an object", loc)
		}
		st, err := r.s3Store(ctx, loc.Bucket, "")
		if err != nil {
			return nil, err
		}
		return st.Get(ctx, loc.Key)
	default:
		return NewDirStore(filepath.Dir(loc.Path), r.Log).Get(ctx, filepath.Base(loc.Path))
	}
}

func (r *Router) s3Store(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	if r.S3 == nil {
		return nil, fmt.Errorf("S3 is not configured")
	}
	c, err := r.S3(ctx)
	if err != nil {
		return nil, err
	}
	return NewS3Store(c, bucket, prefix, r.Log), nil
}

func (r *Router) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// EncodeStream renders a whole export stream, as ndjson or as an indented
// JSON array.
func EncodeStream(s *savedobject.Stream, asJSON bool) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if asJSON {
		err = s.WriteJSON(&buf)
	} else {
		err = s.WriteNDJSON(&buf)
	}
	return buf.Bytes(), err
}

// WriteObjects stores one artifact per record, named <id>.ndjson or
// <id>.json, followed by the index-pattern map sidecar. It returns the
// locations written.
func WriteObjects(ctx context.Context, st Store, s *savedobject.Stream, asJSON bool) ([]string, error) {
	ext := ".ndjson"
	if asJSON {
		ext = ".json"
	}

	written := make([]string, 0, len(s.Records)+1)
	for _, rec := range s.Records {
		data, err := encodeOne(rec, asJSON)
		if err != nil {
			return written, fmt.Errorf("encode %s: %w", rec.ID, err)
		}
		loc, err := st.Put(ctx, rec.ID+ext, data)
		if err != nil {
			return written, err
		}
		written = append(written, loc)
	}

	data, err := encodeOne(map[string]savedobject.IndexPatternMap{"_index_pattern_map": s.IndexPatterns}, true)
	if err != nil {
		return written, err
	}
	loc, err := st.Put(ctx, MapSidecar, data)
	if err != nil {
		return written, err
	}
	return append(written, loc), nil
}

func encodeOne(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
