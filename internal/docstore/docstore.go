package docstore

import "context"

const (
	CollectionOrders   = "orders"
	CollectionProducts = "products"
)

type Record struct {
	ID   string
	Data map[string]any
}

// Store is the external document database capability: append a document to a
// collection and list everything in it.
type Store interface {
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	List(ctx context.Context, collection string) ([]Record, error)
}
