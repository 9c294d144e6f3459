package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/dm/starsearch/internal/apperr"
	"github.com/dm/starsearch/internal/client"
)

// Dialect identifies which lifecycle API family a cluster speaks.
type Dialect string

const (
	// DialectElasticsearchILM is Elasticsearch Index Lifecycle Management.
	DialectElasticsearchILM Dialect = "elasticsearch-ilm"
	// DialectOpenSearchISM is OpenSearch Index State Management.
	DialectOpenSearchISM Dialect = "opensearch-ism"
)

// DetectDialect reads the root endpoint and picks the dialect from
// version.distribution. Anything that does not mention opensearch is treated
// as Elasticsearch, including a missing distribution field.
func DetectDialect(ctx context.Context, c client.InfoAPI) (Dialect, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrDialectIndeterminate, err)
	}
	if strings.Contains(strings.ToLower(info.Version.Distribution), "opensearch") {
		return DialectOpenSearchISM, nil
	}
	return DialectElasticsearchILM, nil
}
