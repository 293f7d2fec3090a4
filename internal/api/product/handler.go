package product

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gocatalog/internal/api/request"
	"gocatalog/internal/api/response"
	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/middleware"
	"gocatalog/internal/pkg/validate"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, draft domain.ProductDraft) (domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, draft domain.ProductDraft) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	SearchProducts(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error)
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// CreateProductHandler lida com a requisição POST /v1/products.
// @Summary Cria um produto
// @Description list_categories aceita ids ou slugs de categorias existentes.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body domain.ProductDraft true "Dados do produto"
// @Success 201 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Categoria referenciada não existe"
// @Failure 409 {object} domain.ErrorResponse "product_ref ou slug já utilizado"
// @Router /v1/products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var draft domain.ProductDraft
	if err := validate.DecodeAndValidate(r.Body, &draft); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		h.Logger.Info("Tentativa de criação de produto por", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})
	}

	newProduct, err := h.Service.CreateProduct(ctx, draft)
	response.Handle(w, r, h.Logger, newProduct, err, http.StatusCreated)
}

// GetProductByIDHandler lida com a requisição GET /v1/products/{id}.
// @Summary Busca um produto por id
// @Tags products
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} domain.Product
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /v1/products/{id} [get]
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	response.Handle(w, r, h.Logger, p, err, http.StatusOK)
}

// GetProductBySlugHandler lida com GET /v1/products/by-slug?slug=.
func (h *Handler) GetProductBySlugHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProductBySlug(r.Context(), r.URL.Query().Get("slug"))
	response.Handle(w, r, h.Logger, p, err, http.StatusOK)
}

// UpdateProductHandler lida com PUT /v1/products/{id}. O corpo substitui o produto inteiro.
// @Summary Substitui um produto
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Param product body domain.ProductDraft true "Produto completo"
// @Success 200 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse "product_ref ou slug alterado"
// @Failure 404 {object} domain.ErrorResponse
// @Router /v1/products/{id} [put]
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	var draft domain.ProductDraft
	if err := validate.DecodeAndValidate(r.Body, &draft); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	p, err := h.Service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), draft)
	response.Handle(w, r, h.Logger, p, err, http.StatusOK)
}

// DeleteProductHandler lida com DELETE /v1/products/{id}.
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}

// SearchProductsHandler lida com GET /v1/products/search.
// @Summary Busca produtos
// @Description Ordena por relevância (nome antes de descrição) e depois por id.
// @Tags products
// @Produce json
// @Param q query string false "Texto buscado"
// @Param category query []string false "Ids ou slugs de categoria" collectionFormat(csv)
// @Param brand query string false "Marca (sem diferenciar maiúsculas)"
// @Param limit query int false "Tamanho da página (padrão 20, máximo 100)"
// @Param offset query int false "Deslocamento"
// @Param in_descriptions query bool false "Inclui descrição e keywords no match"
// @Success 200 {object} domain.SearchResult
// @Failure 400 {object} domain.ErrorResponse
// @Router /v1/products/search [get]
func (h *Handler) SearchProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := domain.SearchQuery{
		Query:      r.URL.Query().Get("q"),
		Categories: request.List(r, "category"),
		Brand:      r.URL.Query().Get("brand"),
	}

	var err error
	if q.Limit, err = request.Int(r, "limit", 0); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if q.Offset, err = request.Int(r, "offset", 0); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if q.IncludeDescriptions, err = request.Bool(r, "in_descriptions"); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	result, err := h.Service.SearchProducts(r.Context(), q)
	response.Handle(w, r, h.Logger, result, err, http.StatusOK)
}
