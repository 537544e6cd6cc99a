package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quickorder/internal/docstore"
	"quickorder/internal/domain"
	apperrors "quickorder/internal/errors"

	"go.uber.org/zap"
)

const SearchMinLength = 2

type ProductLoader interface {
	Load(ctx context.Context) ([]domain.Product, Source, error)
}

type DocumentAdder interface {
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
}

// DocumentStore is what the service needs from the document database: adding
// submissions and reading the raw collection for exports.
type DocumentStore interface {
	DocumentAdder
	DocumentLister
}

type Listing struct {
	Products []domain.Product `json:"products"`
	Source   Source           `json:"source"`
	Message  string           `json:"message,omitempty"`
}

type SubmitRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
}

type Service struct {
	loader ProductLoader
	docs   DocumentStore
	now    func() time.Time
	logger *zap.Logger
}

func NewService(loader ProductLoader, docs DocumentStore, logger *zap.Logger) *Service {
	return &Service{
		loader: loader,
		docs:   docs,
		now:    time.Now,
		logger: logger,
	}
}

// List loads the menu and narrows it by category and by a case-insensitive
// search over name, description and category. "all" or an empty category
// means no category filter.
func (s *Service) List(ctx context.Context, category, query string) (*Listing, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query != "" && len([]rune(query)) < SearchMinLength {
		msg := fmt.Sprintf("Please enter at least %d characters", SearchMinLength)
		return nil, apperrors.NewValidationError(msg, apperrors.ValidationDetail{
			Field:   "q",
			Message: msg,
		})
	}

	products, source, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	category = strings.ToLower(strings.TrimSpace(category))
	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if category != "" && category != "all" && strings.ToLower(p.Category) != category {
			continue
		}
		if query != "" && !matches(p, query) {
			continue
		}
		filtered = append(filtered, p)
	}

	listing := &Listing{Products: filtered, Source: source}
	if query != "" {
		listing.Message = searchMessage(len(filtered), query)
	}
	return listing, nil
}

// Submit records a new product in the products collection with status
// pending.
func (s *Service) Submit(ctx context.Context, user domain.User, req SubmitRequest) (*domain.Product, error) {
	if err := validateSubmit(req); err != nil {
		return nil, err
	}

	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if len(images) > domain.MaxProductImages {
		images = images[:domain.MaxProductImages]
	}

	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category == "" {
		category = domain.DefaultCategory
	}

	createdAt := s.now().UTC()
	p := domain.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Images:      images,
		Category:    category,
		Status:      domain.ProductStatusPending,
		CreatedBy:   user.UID,
		CreatedAt:   &createdAt,
	}

	id, err := s.docs.Add(ctx, docstore.CollectionProducts, map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"images":      p.Images,
		"category":    p.Category,
		"status":      p.Status,
		"createdBy":   p.CreatedBy,
		"createdAt":   createdAt,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("saving product", err)
	}
	p.ID = id

	s.logger.Info("product submitted", zap.String("productId", id), zap.String("createdBy", user.UID))
	return &p, nil
}

// Export returns every record of the products collection as stored, each
// with its document id under "id". The built-in menu is never substituted.
func (s *Service) Export(ctx context.Context) ([]map[string]any, error) {
	records, err := s.docs.List(ctx, docstore.CollectionProducts)
	if err != nil {
		return nil, apperrors.NewInternalError("exporting products", err)
	}

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		doc := make(map[string]any, len(rec.Data)+1)
		for k, v := range rec.Data {
			doc[k] = v
		}
		doc["id"] = rec.ID
		out = append(out, doc)
	}

	s.logger.Info("products exported", zap.Int("count", len(out)))
	return out, nil
}

func matches(p domain.Product, query string) bool {
	return strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query) ||
		strings.Contains(strings.ToLower(p.Category), query)
}

func searchMessage(found int, query string) string {
	if found == 0 {
		return fmt.Sprintf("No results found for %q", query)
	}
	plural := ""
	if found > 1 {
		plural = "s"
	}
	return fmt.Sprintf("Found %d item%s for %q", found, plural, query)
}

func validateSubmit(req SubmitRequest) error {
	var details []apperrors.ValidationDetail

	if strings.TrimSpace(req.Name) == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "name",
			Message: "name is required",
		})
	}

	if req.Price <= 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "price",
			Message: "price must be greater than 0",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
