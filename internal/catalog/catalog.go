// Package catalog loads the item list handed over by the capture step and
// reports which items of it are still missing from an output root.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmagar/hlsgrab/internal/model"
)

// ErrInvalidCatalog is returned for catalogs that decode but cannot be processed.
var ErrInvalidCatalog = errors.New("invalid catalog")

var validate = validator.New()

// Catalog is the decoded catalog file.
type Catalog struct {
	Course  string              `json:"course"`
	Session *model.Session      `json:"session,omitempty"`
	Items   []model.CatalogItem `json:"items" validate:"min=1,dive"`
}

// Load reads and validates the catalog at path. Items are returned sorted by ordinal.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog JSON.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, describeValidation(err))
	}

	seen := make(map[int]struct{}, len(c.Items))
	for _, item := range c.Items {
		if _, dup := seen[item.Ordinal]; dup {
			return nil, fmt.Errorf("%w: duplicate ordinal %d", ErrInvalidCatalog, item.Ordinal)
		}
		seen[item.Ordinal] = struct{}{}
	}
	slices.SortStableFunc(c.Items, func(a, b model.CatalogItem) int {
		return a.Ordinal - b.Ordinal
	})
	return &c, nil
}

// HasSession reports whether the capture step supplied any session credentials.
func (c *Catalog) HasSession() bool {
	return c.Session != nil && (c.Session.Cookie != "" || len(c.Session.Headers) > 0)
}

// Remaining returns the items not yet recorded as done in p, in catalog order.
func Remaining(items []model.CatalogItem, p model.Progress) []model.CatalogItem {
	var out []model.CatalogItem
	for _, item := range items {
		if !p.IsDone(item.Ordinal) {
			out = append(out, item)
		}
	}
	return out
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", ns, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", ns, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
