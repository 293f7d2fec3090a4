package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/api/category"
	"gocatalog/internal/api/product"
	"gocatalog/internal/api/router"
	"gocatalog/internal/domain"
	"gocatalog/internal/event"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/token"
	"gocatalog/internal/registry"
	"gocatalog/internal/repository/memstore"
	"gocatalog/internal/service/categoryservice"
	"gocatalog/internal/service/productservice"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	editor  string
	viewer  string
}

func newTestAPI(t *testing.T, cacheClient cache.Client, limits router.RateLimit) *testAPI {
	t.Helper()
	log := logger.NewNop()

	reg := registry.New(registry.NewMemoryBackend())
	categories := memstore.NewCategoryStore(reg)
	products := memstore.NewProductStore(reg, categories)

	categorySvc := categoryservice.NewService(categories, cacheClient, event.NoopPublisher{}, log, time.Minute)
	productSvc := productservice.NewService(products, event.NoopPublisher{}, log, productservice.SearchLimits{})

	tokens := token.NewService("segredo-de-teste", time.Hour)
	editor, err := tokens.GenerateToken("editor-1", string(domain.RoleEditor))
	require.NoError(t, err)
	viewer, err := tokens.GenerateToken("viewer-1", string(domain.RoleViewer))
	require.NoError(t, err)

	h := router.NewRouter(
		category.NewHandler(categorySvc, log),
		product.NewHandler(productSvc, log),
		tokens,
		cacheClient,
		limits,
		log,
	)
	return &testAPI{t: t, handler: h, editor: editor, viewer: viewer}
}

func (a *testAPI) do(method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) createCategory(name, slug string, parentSlug string) domain.Category {
	a.t.Helper()
	draft := map[string]interface{}{"name": name, "slug": slug}
	if parentSlug != "" {
		draft["parent_slug"] = parentSlug
	}
	rec := a.do(http.MethodPost, "/v1/categories", a.editor, draft)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Category](a.t, rec)
}

func TestPing(t *testing.T) {
	api := newTestAPI(t, cache.NoopClient{}, router.RateLimit{})

	rec := api.do(http.MethodGet, "/ping", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestWrites_RequireWriterRole(t *testing.T) {
	api := newTestAPI(t, cache.NoopClient{}, router.RateLimit{})
	draft := map[string]string{"name": "Moda", "slug": "moda"}

	rec := api.do(http.MethodPost, "/v1/categories", "", draft)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/v1/categories", api.viewer, draft)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decode[domain.ErrorResponse](t, rec).Category)

	// Leitura é pública.
	rec = api.do(http.MethodGet, "/v1/categories/tree", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCategoryHierarchy_EndToEnd(t *testing.T) {
	api := newTestAPI(t, cache.NoopClient{}, router.RateLimit{})

	root := api.createCategory("Eletrônicos", "eletronicos", "")
	a := api.createCategory("TV", "tv", "eletronicos")
	b := api.createCategory("OLED", "oled", "tv")
	c := api.createCategory("55 polegadas", "oled-55", "oled")

	assert.Equal(t, 0, root.Level)
	assert.Equal(t, []string{root.ID, a.ID, b.ID}, c.Ancestors)
	assert.Equal(t, 3, c.Level)

	rec := api.do(http.MethodGet, "/v1/categories/tree?max_depth=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	forest := decode[[]*domain.CategoryTreeNode](t, rec)
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	require.Len(t, forest[0].Children[0].Children, 1)
	oled := forest[0].Children[0].Children[0]
	assert.Equal(t, b.ID, oled.ID)
	assert.Empty(t, oled.Children)
	assert.Equal(t, "Eletrônicos > TV > OLED", oled.Path)

	rec = api.do(http.MethodGet, "/v1/categories/"+c.ID+"/breadcrumbs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	crumbs := decode[[]domain.Breadcrumb](t, rec)
	require.Len(t, crumbs, 4)
	assert.Equal(t, "Eletrônicos > TV > OLED > 55 polegadas", crumbs[3].Path)

	rec = api.do(http.MethodGet, "/v1/categories/by-slug?slug=tv", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, a.ID, decode[domain.Category](t, rec).ID)

	rec = api.do(http.MethodGet, "/v1/categories/"+root.ID+"/descendants", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Category](t, rec), 3)

	rec = api.do(http.MethodDelete, "/v1/categories/"+a.ID, api.editor, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "HAS_CHILDREN", decode[domain.ErrorResponse](t, rec).Category)

	rec = api.do(http.MethodGet, "/v1/categories/"+a.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodDelete, "/v1/categories/"+c.ID, api.editor, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, "/v1/categories/"+c.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategory_ErrorStatuses(t *testing.T) {
	api := newTestAPI(t, cache.NoopClient{}, router.RateLimit{})
	api.createCategory("Moda", "moda", "")

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		code   int
		status string
	}{
		{"slug duplicado", http.MethodPost, "/v1/categories", map[string]string{"name": "Moda 2", "slug": "moda"}, http.StatusConflict, "ALREADY_EXISTS"},
		{"nome vazio", http.MethodPost, "/v1/categories", map[string]string{"name": " ", "slug": "x"}, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"pai inexistente", http.MethodPost, "/v1/categories", map[string]string{"name": "X", "slug": "x", "parent_slug": "nada"}, http.StatusNotFound, "NOT_FOUND"},
		{"json malformado", http.MethodPost, "/v1/categories", "{", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"id malformado", http.MethodGet, "/v1/categories/123", nil, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"profundidade negativa", http.MethodGet, "/v1/categories/tree?max_depth=-1", nil, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"booleano inválido", http.MethodGet, "/v1/categories/tree?include_inactive=talvez", nil, http.StatusBadRequest, "INVALID_ARGUMENT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := api.do(tc.method, tc.path, api.editor, tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
			assert.Equal(t, tc.status, decode[domain.ErrorResponse](t, rec).Category)
		})
	}
}

func TestCategoryImportAndReorder(t *testing.T) {
	api := newTestAPI(t, cache.NoopClient{}, router.RateLimit{})

	items := []map[string]interface{}{
		{"name": "Panelas", "slug": "panelas", "parent_slug": "cozinha"},
		{"name": "Cozinha", "slug": "cozinha", "parent_slug": "casa"},
		{"name": "Casa", "slug": "casa"},
		{"name": "Banho", "slug": "banho", "parent_slug": "casa"},
	}

	rec := api.do(http.MethodPost, "/v1/categories/import?dry_run=true", api.editor, items)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dry := decode[domain.ImportResult](t, rec)
	assert.True(t, dry.DryRun)
	assert.Len(t, dry.Created, 4)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/v1/categories/by-slug?slug=casa", "", nil).Code)

	rec = api.do(http.MethodPost, "/v1/categories/import", api.editor, items)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[domain.ImportResult](t, rec)
	assert.Len(t, result.Created, 4)
	assert.Empty(t, result.Failed)

	casa := decode[domain.Category](t, api.do(http.MethodGet, "/v1/categories/by-slug?slug=casa", "", nil))
	children := decode[[]domain.Category](t, api.do(http.MethodGet, "/v1/categories/"+casa.ID+"/children", "", nil))
	require.Len(t, children, 2)

	reversed := []string{children[1].ID, children[0].ID}
	rec = api.do(http.MethodPut, "/v1/categories/"+casa.ID+"/children/order", api.editor, map[string]interface{}{"child_ids": reversed})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	children = decode[[]domain.Category](t, api.do(http.MethodGet, "/v1/categories/"+casa.ID+"/children", "", nil))
	assert.Equal(t, reversed, []string{children[0].ID, children[1].ID})

	rec = api.do(http.MethodGet, "/v1/categories/export?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exported := decode[[]domain.Category](t, rec)
	require.Len(t, exported, 2)
	assert.Equal(t, "casa", exported[0].Slug)
}

func TestProducts_EndToEnd(t *testing.T) {
	api := newTestAPI(t, cache.NoopClient{}, router.RateLimit{})
	moda := api.createCategory("Moda", "moda", "")

	draft := func(ref, slug, name string) map[string]interface{} {
		return map[string]interface{}{
			"product_ref":     ref,
			"slug":            slug,
			"name":            name,
			"brand":           "Acme",
			"list_categories": []string{"moda"},
		}
	}

	rec := api.do(http.MethodPost, "/v1/products", api.editor, draft("EX-001", "example-shirt", "Example Shirt"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	shirt := decode[domain.Product](t, rec)
	assert.Equal(t, []string{moda.ID}, shirt.ListCategories)

	rec = api.do(http.MethodPost, "/v1/products", api.editor, draft("EX-001", "outro", "Outro"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/v1/products", api.editor, draft("EX-002", "vazio", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for i := 0; i < 3; i++ {
		rec = api.do(http.MethodPost, "/v1/products", api.editor,
			draft(fmt.Sprintf("EX-1%d", i), fmt.Sprintf("mug-%d", i), fmt.Sprintf("Mug %d example", i)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec = api.do(http.MethodPost, "/v1/products", api.editor, draft("OT-001", "hat", "Hat"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodGet, "/v1/products/search?q=Example&limit=3&category=moda", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[domain.SearchResult](t, rec)
	assert.Len(t, res.Products, 3)
	assert.Equal(t, 3, res.Limit)
	for _, p := range res.Products {
		assert.Contains(t, p.Name, "xample")
	}

	rec = api.do(http.MethodGet, "/v1/products/by-slug?slug=example-shirt", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodDelete, "/v1/products/"+shirt.ID, api.editor, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/v1/products/"+shirt.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[domain.ErrorResponse](t, rec).Category)
}

func TestRateLimit_Returns429(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	api := newTestAPI(t, client, router.RateLimit{MaxRequests: 2, Period: time.Minute})

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/v1/categories/tree", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/v1/categories/tree", "", nil).Code)
	rec := api.do(http.MethodGet, "/v1/categories/tree", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decode[domain.ErrorResponse](t, rec).Category)

	// Rotas fora de /v1 não são limitadas.
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/ping", "", nil).Code)
}
