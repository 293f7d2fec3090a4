// Package productservice implementa o catálogo de produtos: CRUD e busca por relevância.
package productservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/event"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/validate"
)

const (
	// DefaultSearchLimit é usado quando a busca não informa limit.
	DefaultSearchLimit = 20
	// MaxSearchLimit é o maior tamanho de página aceito na busca.
	MaxSearchLimit = 100
)

// ProductRepository define o contrato que este Serviço espera da camada de Persistência.
// Implementado por memstore.ProductStore e productrepo.ProductRepository.
type ProductRepository interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (domain.Product, error)
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.Product, error)
}

// SearchLimits configura a paginação da busca. Zeros usam DefaultSearchLimit e MaxSearchLimit.
type SearchLimits struct {
	Default int
	Max     int
}

// Service é a estrutura que implementa as operações de produto.
type Service struct {
	repo   ProductRepository
	events event.Publisher
	logger logger.Logger
	limits SearchLimits
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo ProductRepository, events event.Publisher, log logger.Logger, limits SearchLimits) *Service {
	if limits.Max <= 0 {
		limits.Max = MaxSearchLimit
	}
	if limits.Default <= 0 || limits.Default > limits.Max {
		limits.Default = min(DefaultSearchLimit, limits.Max)
	}
	return &Service{repo: repo, events: events, logger: log, limits: limits}
}

// CreateProduct valida o draft, gera o id e persiste o produto.
// ProductRef e slug são reservados pelo repositório; categorias são resolvidas por id ou slug.
func (s *Service) CreateProduct(ctx context.Context, draft domain.ProductDraft) (domain.Product, error) {
	if err := validateDraft(draft); err != nil {
		return domain.Product{}, err
	}

	p := draft.ToProduct()
	p.ID = uuid.New().String()

	s.logger.Debug("Criando produto.", map[string]interface{}{"product_ref": p.ProductRef, "slug": p.Slug})

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}

	event.Emit(ctx, s.events, s.logger, event.TopicProductCreated, created.ID, created)
	s.logger.Info("Produto criado.", map[string]interface{}{"id": created.ID, "product_ref": created.ProductRef})
	return created, nil
}

// GetProduct busca um produto por id.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if err := checkID(id); err != nil {
		return domain.Product{}, err
	}
	return s.repo.FindByID(ctx, id)
}

// GetProductBySlug busca um produto por slug.
func (s *Service) GetProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	if slug == "" {
		return domain.Product{}, apperror.NewValidationError("slug é obrigatório.")
	}
	return s.repo.FindBySlug(ctx, slug)
}

// UpdateProduct substitui o produto por completo. ProductRef e slug não podem mudar.
func (s *Service) UpdateProduct(ctx context.Context, id string, draft domain.ProductDraft) (domain.Product, error) {
	if err := checkID(id); err != nil {
		return domain.Product{}, err
	}
	if err := validateDraft(draft); err != nil {
		return domain.Product{}, err
	}

	p := draft.ToProduct()
	p.ID = id

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}

	event.Emit(ctx, s.events, s.logger, event.TopicProductUpdated, updated.ID, updated)
	return updated, nil
}

// DeleteProduct remove o produto e libera productRef e slug.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	event.Emit(ctx, s.events, s.logger, event.TopicProductDeleted, id, nil)
	s.logger.Info("Produto removido.", map[string]interface{}{"id": id})
	return nil
}

// SearchProducts busca por nome (e, opcionalmente, descrição e keywords), filtrando por
// categorias e marca. Resultados vêm por relevância decrescente e id crescente.
func (s *Service) SearchProducts(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	if q.Offset < 0 {
		return domain.SearchResult{}, apperror.NewValidationError("offset não pode ser negativo.")
	}
	if q.Limit < 0 {
		return domain.SearchResult{}, apperror.NewValidationError("limit não pode ser negativo.")
	}
	if q.Limit == 0 {
		q.Limit = s.limits.Default
	}
	if q.Limit > s.limits.Max {
		q.Limit = s.limits.Max
	}
	q.Query = strings.TrimSpace(q.Query)
	q.Brand = strings.TrimSpace(q.Brand)

	products, err := s.repo.Search(ctx, q)
	if err != nil {
		return domain.SearchResult{}, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return domain.SearchResult{Products: products, Limit: q.Limit, Offset: q.Offset}, nil
}

func validateDraft(d domain.ProductDraft) error {
	if err := validate.Struct(d); err != nil {
		return err
	}
	if !domain.ValidProductRef(d.ProductRef) {
		return apperror.NewValidationError(fmt.Sprintf("product_ref '%s' inválido: use 3 a 100 caracteres entre letras, dígitos, '-' e '_'.", d.ProductRef))
	}
	if !domain.ValidSlug(d.Slug) {
		return apperror.NewValidationError(fmt.Sprintf("slug '%s' inválido.", d.Slug))
	}
	if !domain.ValidProductName(d.Name) {
		return apperror.NewValidationError("nome do produto inválido.")
	}
	return nil
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("id '%s' não é um UUID válido.", id))
	}
	return nil
}
