package catalog

import (
	_ "embed"
	"fmt"

	"quickorder/internal/domain"

	"go.yaml.in/yaml/v3"
)

//go:embed fallback_products.yaml
var fallbackYAML []byte

// FallbackProducts returns a fresh copy of the built-in menu.
func FallbackProducts() ([]domain.Product, error) {
	var products []domain.Product
	if err := yaml.Unmarshal(fallbackYAML, &products); err != nil {
		return nil, fmt.Errorf("parsing fallback products: %w", err)
	}
	return products, nil
}
