package catalog

import (
	"context"
	"time"

	"quickorder/internal/docstore"
	"quickorder/internal/domain"
	"quickorder/internal/metrics"

	"go.uber.org/zap"
)

type Source string

const (
	SourceStore    Source = "store"
	SourceFallback Source = "fallback"
)

type DocumentLister interface {
	List(ctx context.Context, collection string) ([]docstore.Record, error)
}

// Loader reads the menu from the products collection and falls back to the
// built-in list when the store fails or has nothing. It never retries.
type Loader struct {
	docs    DocumentLister
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewLoader(docs DocumentLister, m *metrics.Metrics, logger *zap.Logger) *Loader {
	return &Loader{
		docs:    docs,
		metrics: m,
		logger:  logger,
	}
}

func (l *Loader) Load(ctx context.Context) ([]domain.Product, Source, error) {
	records, err := l.docs.List(ctx, docstore.CollectionProducts)
	if err != nil {
		l.logger.Error("loading products failed, using fallback", zap.Error(err))
		return l.fallback()
	}
	if len(records) == 0 {
		l.logger.Info("no products in store, using fallback")
		return l.fallback()
	}

	products := make([]domain.Product, 0, len(records))
	for _, rec := range records {
		products = append(products, productFromRecord(rec))
	}
	return products, SourceStore, nil
}

func (l *Loader) fallback() ([]domain.Product, Source, error) {
	l.metrics.CatalogFallbacks.Inc()
	products, err := FallbackProducts()
	if err != nil {
		return nil, SourceFallback, err
	}
	return products, SourceFallback, nil
}

// productFromRecord applies the defaults for missing fields. Images come from
// "images" or, failing that, "image" as a string or a list; at most three are
// kept.
func productFromRecord(rec docstore.Record) domain.Product {
	p := domain.Product{
		ID:          rec.ID,
		Name:        stringField(rec.Data, "name"),
		Description: stringField(rec.Data, "description"),
		Price:       numberField(rec.Data, "price"),
		Category:    stringField(rec.Data, "category"),
		Status:      stringField(rec.Data, "status"),
		CreatedBy:   stringField(rec.Data, "createdBy"),
	}

	if p.Name == "" {
		p.Name = domain.DefaultProductName
	}
	if p.Category == "" {
		p.Category = domain.DefaultCategory
	}

	images := stringList(rec.Data["images"])
	if len(images) == 0 {
		images = stringList(rec.Data["image"])
	}
	if len(images) > domain.MaxProductImages {
		images = images[:domain.MaxProductImages]
	}
	p.Images = images

	if t, ok := timeField(rec.Data, "createdAt"); ok {
		p.CreatedAt = &t
	}
	return p
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func numberField(data map[string]any, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func timeField(data map[string]any, key string) (time.Time, bool) {
	switch v := data[key].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		return t, err == nil
	default:
		return time.Time{}, false
	}
}
