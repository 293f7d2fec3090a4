// Package categoryservice implementa as operações da hierarquia de categorias:
// CRUD, árvore, filhas, descendentes, breadcrumbs, reordenação, exportação e importação em lote.
package categoryservice

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/event"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/validate"
	"gocatalog/internal/tree"
)

const (
	treeVersionKey = "category-tree:version"

	// DefaultExportLimit é usado quando o chamador não informa limit.
	DefaultExportLimit = 50
	// MaxExportLimit é o maior tamanho de página aceito na exportação.
	MaxExportLimit = 1000
)

// CategoryRepository define o contrato que o Serviço espera da camada de Persistência.
// Implementado por memstore.CategoryStore e categoryrepo.CategoryRepository.
type CategoryRepository interface {
	Create(ctx context.Context, c domain.Category, parentSlug *string) (domain.Category, error)
	FindByID(ctx context.Context, id string) (domain.Category, error)
	FindBySlug(ctx context.Context, slug string) (domain.Category, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Category, error)
	FindChildren(ctx context.Context, parentID string) ([]domain.Category, error)
	FindDescendants(ctx context.Context, ancestorID string) ([]domain.Category, error)
	Update(ctx context.Context, id string, upd domain.CategoryUpdate) (domain.Category, error)
	Reorder(ctx context.Context, parentID string, orderedIDs []string) error
	Delete(ctx context.Context, id string) error
	Snapshot(ctx context.Context) ([]domain.Category, error)
	Export(ctx context.Context, limit, offset int) ([]domain.Category, error)
}

// Service orquestra o repositório, o cache da árvore e a publicação de eventos.
type Service struct {
	repo     CategoryRepository
	cache    cache.Client
	events   event.Publisher
	logger   logger.Logger
	cacheTTL time.Duration
}

// NewService cria e retorna uma nova instância do Serviço de Categorias.
func NewService(repo CategoryRepository, cacheClient cache.Client, events event.Publisher, log logger.Logger, cacheTTL time.Duration) *Service {
	return &Service{repo: repo, cache: cacheClient, events: events, logger: log, cacheTTL: cacheTTL}
}

// CreateCategory valida o rascunho, gera o id e persiste a categoria.
// Ancestors e level são derivados do pai pelo repositório.
func (s *Service) CreateCategory(ctx context.Context, draft domain.CategoryDraft) (domain.Category, error) {
	c, parentSlug, err := s.fromDraft(draft)
	if err != nil {
		return domain.Category{}, err
	}

	s.logger.Debug("Criando categoria.", map[string]interface{}{"slug": c.Slug, "id": c.ID})

	created, err := s.repo.Create(ctx, c, parentSlug)
	if err != nil {
		return domain.Category{}, err
	}

	s.invalidateTree(ctx)
	event.Emit(ctx, s.events, s.logger, event.TopicCategoryCreated, created.ID, created)
	s.logger.Info("Categoria criada.", map[string]interface{}{"id": created.ID, "slug": created.Slug, "level": created.Level})
	return created, nil
}

// fromDraft valida o rascunho e monta a categoria a persistir.
// Quando ParentID e ParentSlug são ambos informados, o slug é descartado.
func (s *Service) fromDraft(draft domain.CategoryDraft) (domain.Category, *string, error) {
	if err := validate.Struct(draft); err != nil {
		return domain.Category{}, nil, err
	}
	if !domain.ValidName(draft.Name) {
		return domain.Category{}, nil, apperror.NewValidationError("o nome da categoria é obrigatório e deve ter no máximo 256 caracteres.")
	}
	if !domain.ValidSlug(draft.Slug) {
		return domain.Category{}, nil, apperror.NewValidationError(fmt.Sprintf("slug '%s' inválido.", draft.Slug))
	}

	parentSlug := draft.ParentSlug
	if draft.ParentID != nil {
		if err := checkID(*draft.ParentID); err != nil {
			return domain.Category{}, nil, err
		}
		parentSlug = nil
	}

	return domain.Category{
		ID:               uuid.New().String(),
		Name:             strings.TrimSpace(draft.Name),
		Slug:             draft.Slug,
		ParentID:         draft.ParentID,
		DisplayOrder:     draft.DisplayOrder,
		IsActive:         draft.Active(),
		ShortDescription: draft.ShortDescription,
		FullDescription:  draft.FullDescription,
		Seo:              draft.Seo,
	}, parentSlug, nil
}

// GetCategory busca uma categoria por id.
func (s *Service) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	if err := checkID(id); err != nil {
		return domain.Category{}, err
	}
	return s.repo.FindByID(ctx, id)
}

// GetCategoryBySlug busca uma categoria por slug.
func (s *Service) GetCategoryBySlug(ctx context.Context, slug string) (domain.Category, error) {
	if slug == "" {
		return domain.Category{}, apperror.NewValidationError("slug é obrigatório.")
	}
	return s.repo.FindBySlug(ctx, slug)
}

// UpdateCategory altera os campos mutáveis. Slug e pai não mudam.
func (s *Service) UpdateCategory(ctx context.Context, id string, upd domain.CategoryUpdate) (domain.Category, error) {
	if err := checkID(id); err != nil {
		return domain.Category{}, err
	}
	if upd.Name != nil && !domain.ValidName(*upd.Name) {
		return domain.Category{}, apperror.NewValidationError("o nome da categoria não pode ser vazio.")
	}

	updated, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return domain.Category{}, err
	}

	s.invalidateTree(ctx)
	event.Emit(ctx, s.events, s.logger, event.TopicCategoryUpdated, updated.ID, updated)
	return updated, nil
}

// DeleteCategory remove uma categoria sem filhas.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateTree(ctx)
	event.Emit(ctx, s.events, s.logger, event.TopicCategoryDeleted, id, nil)
	s.logger.Info("Categoria removida.", map[string]interface{}{"id": id})
	return nil
}

// GetCategoryTree materializa a floresta de categorias.
// O resultado fica em cache por versão; rebuild ignora o cache e o repopula.
func (s *Service) GetCategoryTree(ctx context.Context, opts domain.TreeOptions, rebuild bool) ([]*domain.CategoryTreeNode, error) {
	if opts.MaxDepth != nil && *opts.MaxDepth < 0 {
		return nil, apperror.NewValidationError("max_depth não pode ser negativo.")
	}

	key := treeKey(s.treeVersion(ctx), opts)
	if !rebuild {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var forest []*domain.CategoryTreeNode
			if jsonErr := json.Unmarshal([]byte(raw), &forest); jsonErr == nil {
				return forest, nil
			}
			s.logger.Warn("Árvore em cache corrompida; reconstruindo.", map[string]interface{}{"key": key})
		} else if err != cache.ErrCacheMiss {
			s.logger.Warn("Falha ao ler árvore do cache.", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	forest := tree.Build(snapshot, opts)

	if raw, err := json.Marshal(forest); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
			s.logger.Warn("Falha ao gravar árvore no cache.", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	s.logger.Debug("Árvore de categorias construída.", map[string]interface{}{"roots": len(forest), "nodes": tree.Count(forest)})
	return forest, nil
}

// treeVersion lê a versão corrente da árvore. Ausência ou falha do cache valem 0.
func (s *Service) treeVersion(ctx context.Context) int64 {
	raw, err := s.cache.Get(ctx, treeVersionKey)
	if err != nil {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// invalidateTree avança a versão, tornando obsoletas todas as árvores em cache.
func (s *Service) invalidateTree(ctx context.Context) {
	if _, err := s.cache.Incr(ctx, treeVersionKey); err != nil {
		s.logger.Warn("Falha ao invalidar cache da árvore.", map[string]interface{}{"error": err.Error()})
	}
}

func treeKey(version int64, opts domain.TreeOptions) string {
	depth := "all"
	if opts.MaxDepth != nil {
		depth = strconv.Itoa(*opts.MaxDepth)
	}
	return fmt.Sprintf("category-tree:v%d:inactive=%t:depth=%s", version, opts.IncludeInactive, depth)
}

// GetChildren lista as filhas diretas de uma categoria existente.
func (s *Service) GetChildren(ctx context.Context, id string) ([]domain.Category, error) {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.FindChildren(ctx, id)
}

// GetDescendants lista toda a subárvore abaixo de uma categoria existente.
func (s *Service) GetDescendants(ctx context.Context, id string) ([]domain.Category, error) {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.FindDescendants(ctx, id)
}

// GetBreadcrumbs retorna a trilha da raiz até a categoria, inclusive.
func (s *Service) GetBreadcrumbs(ctx context.Context, id string) ([]domain.Breadcrumb, error) {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	ancestors, err := s.repo.FindByIDs(ctx, c.Ancestors)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Category, len(ancestors))
	for _, a := range ancestors {
		byID[a.ID] = a
	}

	crumbs := make([]domain.Breadcrumb, 0, len(c.Ancestors)+1)
	names := make([]string, 0, len(c.Ancestors)+1)
	add := func(x domain.Category) {
		names = append(names, x.Name)
		crumbs = append(crumbs, domain.Breadcrumb{ID: x.ID, Name: x.Name, Slug: x.Slug, Path: domain.BuildPath(names...)})
	}
	for _, aid := range c.Ancestors {
		if a, ok := byID[aid]; ok {
			add(a)
		}
	}
	add(c)
	return crumbs, nil
}

// ReorderChildren define display_order = 1..n na ordem de orderedIDs.
func (s *Service) ReorderChildren(ctx context.Context, parentID string, orderedIDs []string) error {
	if err := checkID(parentID); err != nil {
		return err
	}
	if len(orderedIDs) == 0 {
		return apperror.NewValidationError("a lista de filhas é obrigatória.")
	}
	seen := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if err := checkID(id); err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			return apperror.NewValidationError(fmt.Sprintf("categoria %s repetida na ordenação.", id))
		}
		seen[id] = struct{}{}
	}

	if err := s.repo.Reorder(ctx, parentID, orderedIDs); err != nil {
		return err
	}
	s.invalidateTree(ctx)
	event.Emit(ctx, s.events, s.logger, event.TopicCategoryUpdated, parentID, map[string]interface{}{"reordered": orderedIDs})
	return nil
}

// ExportCategories retorna uma página de categorias, pais antes de filhas.
func (s *Service) ExportCategories(ctx context.Context, limit, offset int) ([]domain.Category, error) {
	if offset < 0 {
		return nil, apperror.NewValidationError("offset não pode ser negativo.")
	}
	if limit <= 0 {
		limit = DefaultExportLimit
	}
	if limit > MaxExportLimit {
		limit = MaxExportLimit
	}
	return s.repo.Export(ctx, limit, offset)
}

// ImportCategories cria um lote de categorias, pais antes de filhas.
// ParentSlug pode referenciar um item do próprio lote. Falhas são reportadas por item e
// não interrompem o lote. Com dryRun nada é persistido.
func (s *Service) ImportCategories(ctx context.Context, items []domain.ImportItem, dryRun bool) (domain.ImportResult, error) {
	result := domain.ImportResult{DryRun: dryRun, Created: []domain.Category{}, Failed: []domain.ImportError{}}
	order, cyclic := importOrder(items)

	planned := make(map[string]struct{})
	for _, i := range order {
		item := items[i]
		var (
			c   domain.Category
			err error
		)
		if dryRun {
			c, err = s.simulateCreate(ctx, item, planned)
		} else {
			c, err = s.CreateCategory(ctx, item)
		}
		if err != nil {
			result.Failed = append(result.Failed, importError(item.Slug, err))
			continue
		}
		planned[item.Slug] = struct{}{}
		result.Created = append(result.Created, c)
	}

	for _, i := range cyclic {
		result.Failed = append(result.Failed, importError(items[i].Slug,
			apperror.NewValidationError("dependência circular entre parent_slug do lote.")))
	}

	s.logger.Info("Importação de categorias concluída.", map[string]interface{}{
		"dry_run": dryRun,
		"created": len(result.Created),
		"failed":  len(result.Failed),
	})
	return result, nil
}

// simulateCreate aplica as mesmas verificações da criação sem persistir.
// planned contém os slugs que o lote já teria criado.
func (s *Service) simulateCreate(ctx context.Context, item domain.ImportItem, planned map[string]struct{}) (domain.Category, error) {
	c, parentSlug, err := s.fromDraft(item)
	if err != nil {
		return domain.Category{}, err
	}

	if _, ok := planned[c.Slug]; ok {
		return domain.Category{}, apperror.NewAlreadyExistsError(fmt.Sprintf("slug '%s' já está em uso.", c.Slug))
	}
	if _, err := s.repo.FindBySlug(ctx, c.Slug); err == nil {
		return domain.Category{}, apperror.NewAlreadyExistsError(fmt.Sprintf("slug '%s' já está em uso.", c.Slug))
	} else if !apperror.Is(err, apperror.StatusNotFound) {
		return domain.Category{}, err
	}

	switch {
	case c.ParentID != nil:
		if _, err := s.repo.FindByID(ctx, *c.ParentID); err != nil {
			return domain.Category{}, err
		}
	case parentSlug != nil:
		if _, ok := planned[*parentSlug]; !ok {
			if _, err := s.repo.FindBySlug(ctx, *parentSlug); err != nil {
				return domain.Category{}, err
			}
		}
	}

	c.ID = ""
	return c, nil
}

// importOrder ordena os índices do lote para que cada item venha depois do pai referenciado
// por ParentSlug dentro do lote e depois da primeira ocorrência do próprio slug.
// Itens presos em ciclos são devolvidos à parte.
func importOrder(items []domain.ImportItem) (order, cyclic []int) {
	first := make(map[string]int, len(items))
	for i, it := range items {
		if _, ok := first[it.Slug]; !ok {
			first[it.Slug] = i
		}
	}

	deps := make([][]int, len(items))
	for i, it := range items {
		if f := first[it.Slug]; f != i {
			deps[i] = append(deps[i], f)
		}
		if it.ParentID == nil && it.ParentSlug != nil {
			if p, ok := first[*it.ParentSlug]; ok && p != i {
				deps[i] = append(deps[i], p)
			}
		}
	}

	done := make([]bool, len(items))
	ready := func(i int) bool {
		for _, d := range deps[i] {
			if !done[d] {
				return false
			}
		}
		return true
	}

	for progress := true; progress; {
		progress = false
		for i := range items {
			if done[i] || !ready(i) {
				continue
			}
			done[i] = true
			order = append(order, i)
			progress = true
		}
	}

	for i := range items {
		if !done[i] {
			cyclic = append(cyclic, i)
		}
	}
	return order, cyclic
}

func importError(slug string, err error) domain.ImportError {
	_, _, msg := apperror.MapToHTTPStatus(err)
	return domain.ImportError{Slug: slug, Status: apperror.StatusOf(err), Message: msg}
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("id '%s' não é um UUID válido.", id))
	}
	return nil
}
