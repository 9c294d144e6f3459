package savedobject

import (
	"context"
	"slices"

	"github.com/sirupsen/logrus"
)

// DeleteAPI removes saved-object documents.
type DeleteAPI interface {
	DeleteSavedObject(ctx context.Context, index, docID string) error
}

// Summary is one row of a saved-object listing.
type Summary struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

// IndexPattern is one row of an index-pattern listing.
type IndexPattern struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Catalog lists and deletes saved objects.
type Catalog struct {
	r     *Reader
	del   DeleteAPI
	types []string
	log   *logrus.Logger
}

// NewCatalog returns a Catalog over the reader's index.
func NewCatalog(r *Reader, del DeleteAPI, types []string, log *logrus.Logger) *Catalog {
	if len(types) == 0 {
		types = DefaultTypes
	}
	return &Catalog{r: r, del: del, types: types, log: log}
}

// List returns exportable objects, optionally of one type, in index order.
func (c *Catalog) List(ctx context.Context, objType string) ([]Summary, error) {
	docs, err := c.documents(ctx)
	if err != nil {
		return nil, err
	}
	out := []Summary{}
	for _, doc := range docs {
		if objType != "" && doc.Type != objType {
			continue
		}
		if !slices.Contains(c.types, doc.Type) {
			continue
		}
		title := doc.Title()
		if title == "" {
			title = "N/A"
		}
		out = append(out, Summary{Type: doc.Type, ID: doc.ID, Title: title})
	}
	return out, nil
}

// IndexPatterns returns every index pattern, titled or not.
func (c *Catalog) IndexPatterns(ctx context.Context) ([]IndexPattern, error) {
	docs, err := c.documents(ctx)
	if err != nil {
		return nil, err
	}
	out := []IndexPattern{}
	for _, doc := range docs {
		if doc.Type != TypeIndexPattern {
			continue
		}
		out = append(out, IndexPattern{ID: doc.ID, Title: doc.Title()})
	}
	return out, nil
}

// Delete removes the object <objType>:<id>.
func (c *Catalog) Delete(ctx context.Context, objType, id string) error {
	docID := DocID(objType, id)
	if err := c.del.DeleteSavedObject(ctx, c.r.Index(), docID); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{"type": objType, "id": LocalID(docID)}).Info("saved object deleted")
	return nil
}

func (c *Catalog) documents(ctx context.Context) ([]Document, error) {
	snap, err := c.r.Read(ctx)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(snap.Hits))
	for _, hit := range snap.Hits {
		doc, err := DecodeHit(hit)
		if err != nil {
			c.log.WithError(err).Warn("skipping undecodable saved object")
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
