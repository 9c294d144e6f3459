// Package artifact moves export streams between the CLI and where they are
// kept: standard streams, local files and directories, or S3.
package artifact

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scheme says where a Location points.
type Scheme string

const (
	SchemeStdio Scheme = "stdio"
	SchemeFile  Scheme = "file"
	SchemeS3    Scheme = "s3"
)

// Location is a parsed --output or import argument.
type Location struct {
	Scheme Scheme
	// Path is the local path for SchemeFile.
	Path string
	// Bucket and Key are set for SchemeS3. Key may be a prefix.
	Bucket string
	Key    string
}

// ParseLocation accepts "-" for stdin/stdout, s3://bucket[/key] for S3,
// and anything else as a local path.
func ParseLocation(s string) (Location, error) {
	switch {
	case s == "" || s == "-":
		return Location{Scheme: SchemeStdio}, nil
	case strings.HasPrefix(s, "s3://"):
		bucket, key, _ := strings.Cut(strings.TrimPrefix(s, "s3://"), "/")
		if bucket == "" {
			return Location{}, fmt.Errorf("invalid S3 location %q: missing bucket", s)
		}
		return Location{Scheme: SchemeS3, Bucket: bucket, Key: strings.Trim(key, "/")}, nil
	default:
		return Location{Scheme: SchemeFile, Path: s}, nil
	}
}

func (l Location) String() string {
	switch l.Scheme {
	case SchemeStdio:
		return "-"
	case SchemeS3:
		if l.Key == "" {
			return "s3://" + l.Bucket
		}
		return "s3://" + l.Bucket + "/" + l.Key
	default:
		return l.Path
	}
}

// ObjectKey names an uploaded export: <kind>-<UTC timestamp>-<uuid>.ndjson.
func ObjectKey(kind string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s.ndjson", kind, now.UTC().Format("20060102T150405Z"), uuid.NewString())
}

// joinKey joins an S3 prefix and a name without doubled or leading slashes.
func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
