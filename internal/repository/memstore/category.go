// Package memstore implementa as lojas de categorias e produtos em memória.
//
// Ordem de locks: Registry, depois Store. Reservas são feitas antes de tomar o
// lock da loja e desfeitas se a inserção falhar.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/registry"
)

// CategoryStore é um arena de categorias indexado por id, com índice parent -> filhas.
type CategoryStore struct {
	mu       sync.RWMutex
	registry *registry.Registry
	byID     map[string]*domain.Category
	bySlug   map[string]string
	children map[string]map[string]struct{}
	seq      int64
	now      func() time.Time
}

// NewCategoryStore cria uma loja vazia que reserva slugs no registry informado.
func NewCategoryStore(reg *registry.Registry) *CategoryStore {
	return &CategoryStore{
		registry: reg,
		byID:     make(map[string]*domain.Category),
		bySlug:   make(map[string]string),
		children: make(map[string]map[string]struct{}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create persiste uma nova categoria. O pai é resolvido por c.ParentID ou, na ausência, por parentSlug.
func (s *CategoryStore) Create(ctx context.Context, c domain.Category, parentSlug *string) (domain.Category, error) {
	if !domain.ValidName(c.Name) {
		return domain.Category{}, apperror.NewValidationError("o nome da categoria é obrigatório.")
	}

	token, err := s.registry.Reserve(ctx, registry.NamespaceCategorySlug, c.Slug)
	if err != nil {
		return domain.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.attachParent(&c, parentSlug); err != nil {
		_ = token.Release(ctx)
		return domain.Category{}, err
	}

	s.seq++
	c.Seq = s.seq
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now

	stored := cloneCategory(c)
	s.byID[c.ID] = &stored
	s.bySlug[c.Slug] = c.ID
	if c.ParentID != nil {
		set, ok := s.children[*c.ParentID]
		if !ok {
			set = make(map[string]struct{})
			s.children[*c.ParentID] = set
		}
		set[c.ID] = struct{}{}
	}
	return cloneCategory(stored), nil
}

// attachParent resolve o pai e deriva ancestors/level. Deve ser chamado com o lock de escrita.
func (s *CategoryStore) attachParent(c *domain.Category, parentSlug *string) error {
	var parent *domain.Category
	switch {
	case c.ParentID != nil:
		p, ok := s.byID[*c.ParentID]
		if !ok {
			return apperror.NewNotFoundError(fmt.Sprintf("categoria pai com ID %s não existe.", *c.ParentID))
		}
		parent = p
	case parentSlug != nil:
		id, ok := s.bySlug[*parentSlug]
		if !ok {
			return apperror.NewNotFoundError(fmt.Sprintf("categoria pai com slug '%s' não existe.", *parentSlug))
		}
		parent = s.byID[id]
	}

	if parent == nil {
		c.ParentID = nil
		c.Ancestors = []string{}
		c.Level = 0
		return nil
	}

	parentID := parent.ID
	c.ParentID = &parentID
	c.Ancestors = append(slices.Clone(parent.Ancestors), parent.ID)
	c.Level = len(c.Ancestors)
	return nil
}

func (s *CategoryStore) FindByID(_ context.Context, id string) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return domain.Category{}, apperror.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não existe.", id))
	}
	return cloneCategory(*c), nil
}

func (s *CategoryStore) FindBySlug(_ context.Context, slug string) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return domain.Category{}, apperror.NewNotFoundError(fmt.Sprintf("Categoria com slug '%s' não existe.", slug))
	}
	return cloneCategory(*s.byID[id]), nil
}

// FindByIDs retorna as categorias existentes na ordem dos ids informados; ids ausentes são ignorados.
func (s *CategoryStore) FindByIDs(_ context.Context, ids []string) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.byID[id]; ok {
			out = append(out, cloneCategory(*c))
		}
	}
	return out, nil
}

// FindChildren retorna as filhas diretas ordenadas por display_order e ordem de criação.
func (s *CategoryStore) FindChildren(_ context.Context, parentID string) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.children[parentID]))
	for id := range s.children[parentID] {
		out = append(out, cloneCategory(*s.byID[id]))
	}
	sortCategories(out)
	return out, nil
}

// FindDescendants retorna toda a subárvore abaixo de ancestorID, por nível.
func (s *CategoryStore) FindDescendants(_ context.Context, ancestorID string) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0)
	for _, c := range s.byID {
		if slices.Contains(c.Ancestors, ancestorID) {
			out = append(out, cloneCategory(*c))
		}
	}
	sortCategories(out)
	return out, nil
}

// Update aplica os campos mutáveis. Slug, pai, ancestors e level nunca são alterados.
func (s *CategoryStore) Update(_ context.Context, id string, upd domain.CategoryUpdate) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return domain.Category{}, apperror.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não existe.", id))
	}
	updated := upd.Apply(*c)
	updated.UpdatedAt = s.now()
	*c = updated
	return cloneCategory(updated), nil
}

// Reorder define display_order = posição (1..n) para as filhas listadas de parentID.
func (s *CategoryStore) Reorder(_ context.Context, parentID string, orderedIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[parentID]; !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não existe.", parentID))
	}
	for _, id := range orderedIDs {
		if _, ok := s.children[parentID][id]; !ok {
			return apperror.NewValidationError(fmt.Sprintf("categoria %s não é filha de %s", id, parentID))
		}
	}
	now := s.now()
	for i, id := range orderedIDs {
		c := s.byID[id]
		c.DisplayOrder = i + 1
		c.UpdatedAt = now
	}
	return nil
}

// Delete remove a categoria e libera o slug. Recusa com HAS_CHILDREN se houver filhas.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não existe.", id))
	}
	if n := len(s.children[id]); n > 0 {
		return apperror.NewHasChildrenError(fmt.Sprintf("a categoria '%s' possui %d filhas.", c.Slug, n))
	}

	if err := s.registry.Release(ctx, registry.NamespaceCategorySlug, c.Slug); err != nil {
		return err
	}
	delete(s.byID, id)
	delete(s.bySlug, c.Slug)
	delete(s.children, id)
	if c.ParentID != nil {
		delete(s.children[*c.ParentID], id)
	}
	return nil
}

// Snapshot copia todas as categorias em um único ponto no tempo.
func (s *CategoryStore) Snapshot(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, cloneCategory(*c))
	}
	return out, nil
}

// Export retorna uma página ordenada por level, display_order e ordem de criação.
func (s *CategoryStore) Export(ctx context.Context, limit, offset int) ([]domain.Category, error) {
	all, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sortCategories(all)
	return page(all, limit, offset), nil
}

// resolve mapeia uma referência (id ou slug) para o id da categoria.
func (s *CategoryStore) resolve(ref string) (string, bool) {
	if _, ok := s.byID[ref]; ok {
		return ref, true
	}
	id, ok := s.bySlug[ref]
	return id, ok
}

func sortCategories(cs []domain.Category) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Level != cs[j].Level {
			return cs[i].Level < cs[j].Level
		}
		if cs[i].DisplayOrder != cs[j].DisplayOrder {
			return cs[i].DisplayOrder < cs[j].DisplayOrder
		}
		return cs[i].Seq < cs[j].Seq
	})
}

func cloneCategory(c domain.Category) domain.Category {
	c.Ancestors = slices.Clone(c.Ancestors)
	if c.Ancestors == nil {
		c.Ancestors = []string{}
	}
	c.Seo.Keywords = slices.Clone(c.Seo.Keywords)
	if c.ParentID != nil {
		p := *c.ParentID
		c.ParentID = &p
	}
	return c
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
