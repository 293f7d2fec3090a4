package categoryrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gocatalog/internal/domain"
	"gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/registry"
)

// uniqueViolation é o SQLSTATE do PostgreSQL para violação de unicidade.
const uniqueViolation = "23505"

const categoryColumns = `id, seq, name, slug, parent_id, ancestors, level, display_order, is_active, ` +
	`short_description, full_description, seo, created_at, updated_at`

// CategoryRepository persiste categorias no PostgreSQL.
// Reservas de slug vivem na tabela catalog_keys, dentro da mesma transação da entidade.
type CategoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCategoryRepository cria e retorna uma nova instância do Repositório.
func NewCategoryRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *CategoryRepository {
	return &CategoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(row rowScanner) (domain.Category, error) {
	var (
		c        domain.Category
		parentID sql.NullString
		seo      []byte
	)
	err := row.Scan(
		&c.ID, &c.Seq, &c.Name, &c.Slug, &parentID, pq.Array(&c.Ancestors), &c.Level, &c.DisplayOrder,
		&c.IsActive, &c.ShortDescription, &c.FullDescription, &seo, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Category{}, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.String
	}
	if c.Ancestors == nil {
		c.Ancestors = []string{}
	}
	if len(seo) > 0 {
		if err := json.Unmarshal(seo, &c.Seo); err != nil {
			return domain.Category{}, fmt.Errorf("seo inválido para categoria %s: %w", c.ID, err)
		}
	}
	return c, nil
}

// Create reserva o slug, resolve o pai (por id ou slug) com FOR SHARE e insere a categoria,
// tudo na mesma transação.
func (r *CategoryRepository) Create(ctx context.Context, c domain.Category, parentSlug *string) (domain.Category, error) {
	if !domain.ValidName(c.Name) {
		return domain.Category{}, errors.NewValidationError("o nome da categoria é obrigatório.")
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Category{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	reg := registry.New(registry.NewSQLBackend(tx))
	if _, err := reg.Reserve(ctxTimeout, registry.NamespaceCategorySlug, c.Slug); err != nil {
		return domain.Category{}, err
	}

	if err := r.attachParent(ctxTimeout, tx, &c, parentSlug); err != nil {
		return domain.Category{}, err
	}

	seo, err := json.Marshal(c.Seo)
	if err != nil {
		return domain.Category{}, errors.NewInternalError("falha ao serializar seo", err)
	}

	const insertSQL = `
		INSERT INTO categories (id, name, slug, parent_id, ancestors, level, display_order, is_active,
			short_description, full_description, seo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + categoryColumns

	created, err := scanCategory(tx.QueryRowContext(ctxTimeout, insertSQL,
		c.ID, c.Name, c.Slug, c.ParentID, pq.Array(c.Ancestors), c.Level, c.DisplayOrder, c.IsActive,
		c.ShortDescription, c.FullDescription, seo,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Category{}, errors.NewAlreadyExistsError(fmt.Sprintf("category_slug '%s' já está em uso", c.Slug))
		}
		r.logger.Error("Falha ao inserir categoria.", err)
		return domain.Category{}, errors.NewDBError("Falha ao inserir categoria", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Category{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Debug("Categoria inserida.", map[string]interface{}{"id": created.ID, "slug": created.Slug, "level": created.Level})
	return created, nil
}

// attachParent resolve o pai travando a linha (FOR SHARE) para barrar um DELETE concorrente.
func (r *CategoryRepository) attachParent(ctx context.Context, tx *sql.Tx, c *domain.Category, parentSlug *string) error {
	var (
		query string
		arg   string
	)
	switch {
	case c.ParentID != nil:
		query, arg = `SELECT id, ancestors FROM categories WHERE id = $1 FOR SHARE`, *c.ParentID
	case parentSlug != nil:
		query, arg = `SELECT id, ancestors FROM categories WHERE slug = $1 FOR SHARE`, *parentSlug
	default:
		c.ParentID = nil
		c.Ancestors = []string{}
		c.Level = 0
		return nil
	}

	var (
		parentID  string
		ancestors []string
	)
	err := tx.QueryRowContext(ctx, query, arg).Scan(&parentID, pq.Array(&ancestors))
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError(fmt.Sprintf("categoria pai '%s' não existe.", arg))
	}
	if err != nil {
		return errors.NewDBError("Falha ao buscar categoria pai", err)
	}

	c.ParentID = &parentID
	c.Ancestors = append(ancestors, parentID)
	c.Level = len(c.Ancestors)
	return nil
}

func (r *CategoryRepository) findOne(ctx context.Context, where string, arg string) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE ` + where
	c, err := scanCategory(r.DB.QueryRowContext(ctxTimeout, query, arg))
	if err == sql.ErrNoRows {
		return domain.Category{}, errors.NewNotFoundError(fmt.Sprintf("Categoria '%s' não existe.", arg))
	}
	if err != nil {
		return domain.Category{}, errors.NewDBError("Falha ao buscar categoria", err)
	}
	return c, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (domain.Category, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (domain.Category, error) {
	return r.findOne(ctx, `slug = $1`, slug)
}

func (r *CategoryRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		return nil, errors.NewDBError("Falha ao listar categorias", err)
	}
	defer rows.Close()

	out := make([]domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler categoria", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar categorias", err)
	}
	return out, nil
}

// FindByIDs retorna as categorias na ordem dos ids informados; ids ausentes são ignorados.
func (r *CategoryRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Category, error) {
	if len(ids) == 0 {
		return []domain.Category{}, nil
	}
	found, err := r.findMany(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Category, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	out := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *CategoryRepository) FindChildren(ctx context.Context, parentID string) ([]domain.Category, error) {
	return r.findMany(ctx, `SELECT `+categoryColumns+` FROM categories WHERE parent_id = $1 ORDER BY display_order, seq`, parentID)
}

func (r *CategoryRepository) FindDescendants(ctx context.Context, ancestorID string) ([]domain.Category, error) {
	return r.findMany(ctx, `SELECT `+categoryColumns+` FROM categories WHERE $1 = ANY(ancestors) ORDER BY level, display_order, seq`, ancestorID)
}

// Snapshot lê todas as categorias em um único SELECT.
func (r *CategoryRepository) Snapshot(ctx context.Context) ([]domain.Category, error) {
	return r.findMany(ctx, `SELECT `+categoryColumns+` FROM categories`)
}

func (r *CategoryRepository) Export(ctx context.Context, limit, offset int) ([]domain.Category, error) {
	return r.findMany(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY level, display_order, seq LIMIT $1 OFFSET $2`, limit, offset)
}

// Update aplica os campos mutáveis com a linha travada (FOR UPDATE).
func (r *CategoryRepository) Update(ctx context.Context, id string, upd domain.CategoryUpdate) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Category{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	current, err := scanCategory(tx.QueryRowContext(ctxTimeout, `SELECT `+categoryColumns+` FROM categories WHERE id = $1 FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return domain.Category{}, errors.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não existe.", id))
	}
	if err != nil {
		return domain.Category{}, errors.NewDBError("Falha ao buscar categoria para atualização", err)
	}

	next := upd.Apply(current)
	seo, err := json.Marshal(next.Seo)
	if err != nil {
		return domain.Category{}, errors.NewInternalError("falha ao serializar seo", err)
	}

	const updateSQL = `
		UPDATE categories
		SET name = $2, short_description = $3, full_description = $4, display_order = $5,
			is_active = $6, seo = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + categoryColumns

	updated, err := scanCategory(tx.QueryRowContext(ctxTimeout, updateSQL,
		id, next.Name, next.ShortDescription, next.FullDescription, next.DisplayOrder, next.IsActive, seo,
	))
	if err != nil {
		return domain.Category{}, errors.NewDBError("Falha ao atualizar categoria", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Category{}, errors.NewDBError("Falha ao commitar transação", err)
	}
	return updated, nil
}

// Reorder define display_order = posição (1..n) para as filhas listadas.
func (r *CategoryRepository) Reorder(ctx context.Context, parentID string, orderedIDs []string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	var exists string
	err = tx.QueryRowContext(ctxTimeout, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, parentID).Scan(&exists)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não existe.", parentID))
	}
	if err != nil {
		return errors.NewDBError("Falha ao buscar categoria pai", err)
	}

	for i, id := range orderedIDs {
		res, err := tx.ExecContext(ctxTimeout,
			`UPDATE categories SET display_order = $1, updated_at = now() WHERE id = $2 AND parent_id = $3`,
			i+1, id, parentID)
		if err != nil {
			return errors.NewDBError("Falha ao reordenar categorias", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NewValidationError(fmt.Sprintf("categoria %s não é filha de %s", id, parentID))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDBError("Falha ao commitar transação", err)
	}
	return nil
}

// Delete remove a categoria e libera o slug. A linha é travada com FOR UPDATE antes da
// contagem de filhas, de modo que uma criação concorrente sob este pai espera ou falha.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	var slug string
	err = tx.QueryRowContext(ctxTimeout, `SELECT slug FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&slug)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não existe.", id))
	}
	if err != nil {
		return errors.NewDBError("Falha ao buscar categoria para remoção", err)
	}

	var children int
	if err := tx.QueryRowContext(ctxTimeout, `SELECT count(*) FROM categories WHERE parent_id = $1`, id).Scan(&children); err != nil {
		return errors.NewDBError("Falha ao contar filhas", err)
	}
	if children > 0 {
		return errors.NewHasChildrenError(fmt.Sprintf("a categoria '%s' possui %d filhas.", slug, children))
	}

	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return errors.NewDBError("Falha ao remover categoria", err)
	}
	if err := registry.New(registry.NewSQLBackend(tx)).Release(ctxTimeout, registry.NamespaceCategorySlug, slug); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDBError("Falha ao commitar transação", err)
	}
	r.logger.Debug("Categoria removida.", map[string]interface{}{"id": id, "slug": slug})
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
