package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo Repository) http.Handler {
	h := NewHandler(repo, nil)
	r := chi.NewRouter()
	r.Post("/products", h.Create)
	r.Get("/products", h.List)
	r.Get("/products/{id}", h.Get)
	r.Delete("/products/{id}", h.Delete)
	r.Post("/products/{id}/variants", h.AddVariant)
	r.Post("/products/{id}/images", h.AddImage)
	return r
}

func TestHandlerCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	router := newTestRouter(repo)

	body, _ := json.Marshal(CreateProductRequest{Name: "Tequila", Price: 95000, Stock: 10})
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Tequila", created.Name)

	req = httptest.NewRequest(http.MethodGet, "/products/"+created.ID.String(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerCreateValidation(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	body, _ := json.Marshal(CreateProductRequest{Name: ""})
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader([]byte("{not json")))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerVariantAndImage(t *testing.T) {
	repo := NewInMemoryRepository()
	router := newTestRouter(repo)

	created, err := repo.CreateProduct(context.Background(), &CreateProductRequest{Name: "Ron Viejo", Price: 60000, Stock: 5})
	require.NoError(t, err)

	body, _ := json.Marshal(CreateVariantRequest{Options: map[string]string{"size": "750ml"}, Price: 60000, Stock: 5})
	req := httptest.NewRequest(http.MethodPost, "/products/"+created.ID.String()+"/variants", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/products/"+created.ID.String()+"/images",
		bytes.NewReader([]byte(`{"url":"https://cdn.example.com/ron.jpg","label":"size:750ml"}`)))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	got, err := repo.GetProduct(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Variants, 1)
	assert.Len(t, got.Images, 1)
}

func TestHandlerNotFound(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, "/products/00000000-0000-0000-0000-000000000001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/products/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
