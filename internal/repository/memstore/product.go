package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/registry"
)

// ProductStore guarda produtos em memória e valida referências de categoria no momento da escrita.
type ProductStore struct {
	mu         sync.RWMutex
	registry   *registry.Registry
	categories *CategoryStore
	byID       map[string]*domain.Product
	bySlug     map[string]string
	now        func() time.Time
}

// NewProductStore cria uma loja vazia. categories é usado para resolver list_categories.
func NewProductStore(reg *registry.Registry, categories *CategoryStore) *ProductStore {
	return &ProductStore{
		registry:   reg,
		categories: categories,
		byID:       make(map[string]*domain.Product),
		bySlug:     make(map[string]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create reserva productRef e slug, valida as categorias e persiste o produto.
// Em qualquer falha as reservas são desfeitas.
func (s *ProductStore) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if !domain.ValidName(p.Name) {
		return domain.Product{}, apperror.NewValidationError("o nome do produto é obrigatório.")
	}

	refToken, err := s.registry.Reserve(ctx, registry.NamespaceProductRef, p.ProductRef)
	if err != nil {
		return domain.Product{}, err
	}
	slugToken, err := s.registry.Reserve(ctx, registry.NamespaceProductSlug, p.Slug)
	if err != nil {
		_ = refToken.Release(ctx)
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.resolveCategories(p.ListCategories)
	if err != nil {
		_ = registry.ReleaseAll(ctx, refToken, slugToken)
		return domain.Product{}, err
	}
	p.ListCategories = ids

	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	stored := cloneProduct(p)
	s.byID[p.ID] = &stored
	s.bySlug[p.Slug] = p.ID
	return cloneProduct(stored), nil
}

// resolveCategories normaliza referências (id ou slug) para ids, sem duplicatas.
func (s *ProductStore) resolveCategories(refs []string) ([]string, error) {
	s.categories.mu.RLock()
	defer s.categories.mu.RUnlock()

	ids := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		id, ok := s.categories.resolve(ref)
		if !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("categoria '%s' referenciada pelo produto não existe.", ref))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *ProductStore) FindByID(_ context.Context, id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", id))
	}
	return cloneProduct(*p), nil
}

func (s *ProductStore) FindBySlug(_ context.Context, slug string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com slug '%s' não existe.", slug))
	}
	return cloneProduct(*s.byID[id]), nil
}

// Update substitui o produto. productRef e slug precisam coincidir com os persistidos.
func (s *ProductStore) Update(_ context.Context, p domain.Product) (domain.Product, error) {
	if !domain.ValidName(p.Name) {
		return domain.Product{}, apperror.NewValidationError("o nome do produto é obrigatório.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[p.ID]
	if !ok {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", p.ID))
	}
	if p.ProductRef != current.ProductRef || p.Slug != current.Slug {
		return domain.Product{}, apperror.NewValidationError("product_ref e slug não podem ser alterados.")
	}

	ids, err := s.resolveCategories(p.ListCategories)
	if err != nil {
		return domain.Product{}, err
	}
	p.ListCategories = ids
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = s.now()

	stored := cloneProduct(p)
	s.byID[p.ID] = &stored
	return cloneProduct(stored), nil
}

// Delete remove o produto e libera productRef e slug.
func (s *ProductStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", id))
	}
	if err := s.registry.Release(ctx, registry.NamespaceProductRef, p.ProductRef); err != nil {
		return err
	}
	if err := s.registry.Release(ctx, registry.NamespaceProductSlug, p.Slug); err != nil {
		return err
	}
	delete(s.byID, id)
	delete(s.bySlug, p.Slug)
	return nil
}

// Search filtra por texto, categorias e marca, ordenando por relevância e depois id.
func (s *ProductStore) Search(_ context.Context, q domain.SearchQuery) ([]domain.Product, error) {
	filter, matchable := s.categoryFilter(q.Categories)
	if !matchable {
		return []domain.Product{}, nil
	}

	s.mu.RLock()
	type hit struct {
		p     *domain.Product
		score int
	}
	hits := make([]hit, 0)
	for _, p := range s.byID {
		score := domain.Relevance(*p, q.Query, q.IncludeDescriptions)
		if q.Query != "" && score == 0 {
			continue
		}
		if q.Brand != "" && !strings.EqualFold(p.Brand, q.Brand) {
			continue
		}
		if filter != nil && !slices.ContainsFunc(p.ListCategories, func(id string) bool {
			_, ok := filter[id]
			return ok
		}) {
			continue
		}
		hits = append(hits, hit{p: p, score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].p.ID < hits[j].p.ID
	})
	out := make([]domain.Product, 0, len(hits))
	for _, h := range hits {
		out = append(out, cloneProduct(*h.p))
	}
	s.mu.RUnlock()

	return page(out, q.Limit, q.Offset), nil
}

// categoryFilter resolve o filtro de categorias. Entradas sem correspondência não casam com nada;
// matchable é falso quando nenhuma entrada resolve.
func (s *ProductStore) categoryFilter(refs []string) (map[string]struct{}, bool) {
	if len(refs) == 0 {
		return nil, true
	}
	s.categories.mu.RLock()
	defer s.categories.mu.RUnlock()

	filter := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if id, ok := s.categories.resolve(ref); ok {
			filter[id] = struct{}{}
		}
	}
	return filter, len(filter) > 0
}

func cloneProduct(p domain.Product) domain.Product {
	p.SeoKeywords = slices.Clone(p.SeoKeywords)
	p.DefiningAttributes = maps.Clone(p.DefiningAttributes)
	p.DescriptiveAttributes = maps.Clone(p.DescriptiveAttributes)
	p.ListCategories = slices.Clone(p.ListCategories)
	if p.ListCategories == nil {
		p.ListCategories = []string{}
	}
	p.RelatedProducts = slices.Clone(p.RelatedProducts)
	p.Variants = slices.Clone(p.Variants)
	if p.DefaultVariant != nil {
		v := *p.DefaultVariant
		p.DefaultVariant = &v
	}
	return p
}
