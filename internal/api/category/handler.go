package category

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gocatalog/internal/api/request"
	"gocatalog/internal/api/response"
	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/middleware"
	"gocatalog/internal/pkg/validate"
)

// CategoryService define o contrato que o Handler espera da camada de Serviço.
type CategoryService interface {
	CreateCategory(ctx context.Context, draft domain.CategoryDraft) (domain.Category, error)
	GetCategory(ctx context.Context, id string) (domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (domain.Category, error)
	UpdateCategory(ctx context.Context, id string, upd domain.CategoryUpdate) (domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	GetCategoryTree(ctx context.Context, opts domain.TreeOptions, rebuild bool) ([]*domain.CategoryTreeNode, error)
	GetChildren(ctx context.Context, id string) ([]domain.Category, error)
	GetDescendants(ctx context.Context, id string) ([]domain.Category, error)
	GetBreadcrumbs(ctx context.Context, id string) ([]domain.Breadcrumb, error)
	ReorderChildren(ctx context.Context, parentID string, orderedIDs []string) error
	ExportCategories(ctx context.Context, limit, offset int) ([]domain.Category, error)
	ImportCategories(ctx context.Context, items []domain.ImportItem, dryRun bool) (domain.ImportResult, error)
}

// Handler agrupa os handlers HTTP de categorias.
type Handler struct {
	Service CategoryService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CategoryService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ReorderRequest é o payload de PUT /v1/categories/{id}/children/order.
type ReorderRequest struct {
	ChildIDs []string `json:"child_ids" validate:"required,min=1"`
}

// CreateCategoryHandler lida com a requisição POST /v1/categories.
// @Summary Cria uma categoria
// @Description Cria uma categoria raiz ou filha. O pai pode ser informado por parent_id ou parent_slug.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category body domain.CategoryDraft true "Dados da categoria"
// @Success 201 {object} domain.Category
// @Failure 400 {object} domain.ErrorResponse "Nome ou slug inválido"
// @Failure 404 {object} domain.ErrorResponse "Pai inexistente"
// @Failure 409 {object} domain.ErrorResponse "Slug já utilizado"
// @Failure 503 {object} domain.ErrorResponse "Armazenamento indisponível"
// @Router /v1/categories [post]
func (h *Handler) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var draft domain.CategoryDraft
	if err := validate.DecodeAndValidate(r.Body, &draft); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
		h.Logger.Info("Criação de categoria solicitada.", map[string]interface{}{"user_id": claims.UserID, "slug": draft.Slug})
	}

	created, err := h.Service.CreateCategory(r.Context(), draft)
	response.Handle(w, r, h.Logger, created, err, http.StatusCreated)
}

// GetCategoryHandler lida com GET /v1/categories/{id}.
// @Summary Busca uma categoria por id
// @Tags categories
// @Produce json
// @Param id path string true "ID da categoria"
// @Success 200 {object} domain.Category
// @Failure 400 {object} domain.ErrorResponse "ID malformado"
// @Failure 404 {object} domain.ErrorResponse "Categoria não encontrada"
// @Router /v1/categories/{id} [get]
func (h *Handler) GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetCategory(r.Context(), chi.URLParam(r, "id"))
	response.Handle(w, r, h.Logger, c, err, http.StatusOK)
}

// GetCategoryBySlugHandler lida com GET /v1/categories/by-slug?slug=.
// @Summary Busca uma categoria por slug
// @Tags categories
// @Produce json
// @Param slug query string true "Slug da categoria"
// @Success 200 {object} domain.Category
// @Failure 404 {object} domain.ErrorResponse "Categoria não encontrada"
// @Router /v1/categories/by-slug [get]
func (h *Handler) GetCategoryBySlugHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetCategoryBySlug(r.Context(), r.URL.Query().Get("slug"))
	response.Handle(w, r, h.Logger, c, err, http.StatusOK)
}

// UpdateCategoryHandler lida com PUT /v1/categories/{id}.
// @Summary Atualiza campos mutáveis de uma categoria
// @Description Slug e pai não são alteráveis.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da categoria"
// @Param category body domain.CategoryUpdate true "Campos a alterar"
// @Success 200 {object} domain.Category
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /v1/categories/{id} [put]
func (h *Handler) UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var upd domain.CategoryUpdate
	if err := validate.DecodeAndValidate(r.Body, &upd); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	c, err := h.Service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), upd)
	response.Handle(w, r, h.Logger, c, err, http.StatusOK)
}

// DeleteCategoryHandler lida com DELETE /v1/categories/{id}.
// @Summary Remove uma categoria sem filhas
// @Tags categories
// @Security BearerAuth
// @Param id path string true "ID da categoria"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse "Categoria não encontrada"
// @Failure 409 {object} domain.ErrorResponse "Categoria possui filhas"
// @Router /v1/categories/{id} [delete]
func (h *Handler) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteCategory(r.Context(), chi.URLParam(r, "id"))
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}

// GetCategoryTreeHandler lida com GET /v1/categories/tree.
// @Summary Retorna a floresta de categorias
// @Tags categories
// @Produce json
// @Param include_inactive query bool false "Inclui categorias inativas"
// @Param max_depth query int false "Profundidade máxima (ilimitada quando ausente)"
// @Param rebuild_cache query bool false "Ignora o cache e reconstrói"
// @Success 200 {array} domain.CategoryTreeNode
// @Failure 400 {object} domain.ErrorResponse
// @Router /v1/categories/tree [get]
func (h *Handler) GetCategoryTreeHandler(w http.ResponseWriter, r *http.Request) {
	var (
		opts    domain.TreeOptions
		rebuild bool
		err     error
	)
	if opts.IncludeInactive, err = request.Bool(r, "include_inactive"); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if opts.MaxDepth, err = request.OptionalInt(r, "max_depth"); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if rebuild, err = request.Bool(r, "rebuild_cache"); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	forest, err := h.Service.GetCategoryTree(r.Context(), opts, rebuild)
	response.Handle(w, r, h.Logger, forest, err, http.StatusOK)
}

// GetChildrenHandler lida com GET /v1/categories/{id}/children.
func (h *Handler) GetChildrenHandler(w http.ResponseWriter, r *http.Request) {
	children, err := h.Service.GetChildren(r.Context(), chi.URLParam(r, "id"))
	response.Handle(w, r, h.Logger, children, err, http.StatusOK)
}

// GetDescendantsHandler lida com GET /v1/categories/{id}/descendants.
func (h *Handler) GetDescendantsHandler(w http.ResponseWriter, r *http.Request) {
	descendants, err := h.Service.GetDescendants(r.Context(), chi.URLParam(r, "id"))
	response.Handle(w, r, h.Logger, descendants, err, http.StatusOK)
}

// GetBreadcrumbsHandler lida com GET /v1/categories/{id}/breadcrumbs.
func (h *Handler) GetBreadcrumbsHandler(w http.ResponseWriter, r *http.Request) {
	crumbs, err := h.Service.GetBreadcrumbs(r.Context(), chi.URLParam(r, "id"))
	response.Handle(w, r, h.Logger, crumbs, err, http.StatusOK)
}

func (h *Handler) ReorderChildrenHandler(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := validate.DecodeAndValidate(r.Body, &req); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	err := h.Service.ReorderChildren(r.Context(), chi.URLParam(r, "id"), req.ChildIDs)
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}

// ExportCategoriesHandler lida com GET /v1/categories/export?limit=&offset=.
func (h *Handler) ExportCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := request.Int(r, "limit", 0)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	offset, err := request.Int(r, "offset", 0)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	categories, err := h.Service.ExportCategories(r.Context(), limit, offset)
	response.Handle(w, r, h.Logger, categories, err, http.StatusOK)
}

// ImportCategoriesHandler lida com POST /v1/categories/import?dry_run=.
// @Summary Importa categorias em lote
// @Description Itens podem referenciar pais do próprio lote por parent_slug. Falhas são reportadas por item.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param dry_run query bool false "Valida sem persistir"
// @Param items body []domain.CategoryDraft true "Categorias a importar"
// @Success 200 {object} domain.ImportResult
// @Failure 400 {object} domain.ErrorResponse
// @Router /v1/categories/import [post]
func (h *Handler) ImportCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	dryRun, err := request.Bool(r, "dry_run")
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	var items []domain.ImportItem
	if err := validate.Decode(r.Body, &items); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	if len(items) == 0 {
		response.Error(w, r, h.Logger, apperror.NewValidationError("o lote de importação está vazio."))
		return
	}

	result, err := h.Service.ImportCategories(r.Context(), items, dryRun)
	response.Handle(w, r, h.Logger, result, err, http.StatusOK)
}
