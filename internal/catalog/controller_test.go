package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quickorder/internal/domain"
	apperrors "quickorder/internal/errors"
	"quickorder/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCatalogService struct {
	ListFunc   func(ctx context.Context, category, query string) (*Listing, error)
	SubmitFunc func(ctx context.Context, user domain.User, req SubmitRequest) (*domain.Product, error)
	ExportFunc func(ctx context.Context) ([]map[string]any, error)
}

func (m *mockCatalogService) List(ctx context.Context, category, query string) (*Listing, error) {
	return m.ListFunc(ctx, category, query)
}

func (m *mockCatalogService) Submit(ctx context.Context, user domain.User, req SubmitRequest) (*domain.Product, error) {
	return m.SubmitFunc(ctx, user, req)
}

func (m *mockCatalogService) Export(ctx context.Context) ([]map[string]any, error) {
	return m.ExportFunc(ctx)
}

func TestListProducts(t *testing.T) {
	var gotCategory, gotQuery string
	ctrl := NewController(&mockCatalogService{
		ListFunc: func(ctx context.Context, category, query string) (*Listing, error) {
			gotCategory, gotQuery = category, query
			return &Listing{
				Products: []domain.Product{{ID: "fallback-1", Name: "Classic Burger", Price: 8.99}},
				Source:   SourceFallback,
				Message:  `Found 1 item for "burger"`,
			}, nil
		},
	}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/products?category=burgers&q=burger", nil)
	rec := httptest.NewRecorder()
	ctrl.ListProducts(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "burgers", gotCategory)
	assert.Equal(t, "burger", gotQuery)

	var body Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, SourceFallback, body.Source)
	require.Len(t, body.Products, 1)
	assert.Equal(t, "Classic Burger", body.Products[0].Name)
}

func TestListProducts_ShortQuery(t *testing.T) {
	ctrl := NewController(&mockCatalogService{
		ListFunc: func(ctx context.Context, category, query string) (*Listing, error) {
			return nil, apperrors.NewValidationError("Please enter at least 2 characters")
		},
	}, zap.NewNop())

	rec := httptest.NewRecorder()
	ctrl.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/products?q=a", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestSubmitProduct(t *testing.T) {
	svc := &mockCatalogService{
		SubmitFunc: func(ctx context.Context, user domain.User, req SubmitRequest) (*domain.Product, error) {
			assert.Equal(t, "admin-1", user.UID)
			assert.Equal(t, "Siopao", req.Name)
			return &domain.Product{ID: "doc-1", Name: req.Name, Price: req.Price, Status: domain.ProductStatusPending}, nil
		},
	}
	ctrl := NewController(svc, zap.NewNop())

	t.Run("anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(`{"name":"Siopao","price":2.5}`))
		req = req.WithContext(session.WithSession(req.Context(), session.Session{ClientID: "c1"}))
		rec := httptest.NewRecorder()

		ctrl.SubmitProduct(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("signed in", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(`{"name":"Siopao","price":2.5}`))
		req = req.WithContext(session.WithSession(req.Context(), session.Session{
			ClientID: "c1",
			User:     &domain.User{UID: "admin-1", Role: domain.RoleAdmin},
		}))
		rec := httptest.NewRecorder()

		ctrl.SubmitProduct(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var p domain.Product
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, "doc-1", p.ID)
		assert.Equal(t, domain.ProductStatusPending, p.Status)
	})

	t.Run("bad body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(`{`))
		req = req.WithContext(session.WithSession(req.Context(), session.Session{
			ClientID: "c1",
			User:     &domain.User{UID: "admin-1", Role: domain.RoleAdmin},
		}))
		rec := httptest.NewRecorder()

		ctrl.SubmitProduct(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExportProducts(t *testing.T) {
	ctrl := NewController(&mockCatalogService{
		ExportFunc: func(ctx context.Context) ([]map[string]any, error) {
			return []map[string]any{{"id": "p1", "name": "Pancit"}}, nil
		},
	}, zap.NewNop())

	rec := httptest.NewRecorder()
	ctrl.ExportProducts(rec, httptest.NewRequest(http.MethodGet, "/api/admin/products/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="products-export.json"`, rec.Header().Get("Content-Disposition"))
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "p1", body[0]["id"])
}

func TestExportProducts_StoreFailure(t *testing.T) {
	ctrl := NewController(&mockCatalogService{
		ExportFunc: func(ctx context.Context) ([]map[string]any, error) {
			return nil, apperrors.NewInternalError("exporting products", errors.New("down"))
		},
	}, zap.NewNop())

	rec := httptest.NewRecorder()
	ctrl.ExportProducts(rec, httptest.NewRequest(http.MethodGet, "/api/admin/products/export", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}
