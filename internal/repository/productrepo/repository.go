package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"gocatalog/internal/domain"
	"gocatalog/internal/errors"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/registry"
)

const uniqueViolation = "23505"

const productColumns = `id, product_ref, slug, name, brand, long_description, product_type, display_on_site, ` +
	`tax_code, seo_title, seo_description, seo_keywords, defining_attributes, descriptive_attributes, ` +
	`list_categories, related_products, default_variant, variants, created_at, updated_at`

// Define a chave de cache para produtos.
const productCacheKey = "product:%s"

// ProductRepository persiste produtos no PostgreSQL com cache-aside no Redis para leituras por ID.
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p                   domain.Product
		defining, describes []byte
		defaultVariant      []byte
		variants            []byte
	)
	err := row.Scan(
		&p.ID, &p.ProductRef, &p.Slug, &p.Name, &p.Brand, &p.LongDescription, &p.ProductType, &p.DisplayOnSite,
		&p.TaxCode, &p.SeoTitle, &p.SeoDescription, pq.Array(&p.SeoKeywords), &defining, &describes,
		pq.Array(&p.ListCategories), pq.Array(&p.RelatedProducts), &defaultVariant, &variants,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}

	for _, field := range []struct {
		raw []byte
		dst interface{}
	}{
		{defining, &p.DefiningAttributes},
		{describes, &p.DescriptiveAttributes},
		{defaultVariant, &p.DefaultVariant},
		{variants, &p.Variants},
	} {
		if len(field.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(field.raw, field.dst); err != nil {
			return domain.Product{}, fmt.Errorf("json inválido no produto %s: %w", p.ID, err)
		}
	}
	if p.ListCategories == nil {
		p.ListCategories = []string{}
	}
	return p, nil
}

// productArgs serializa os campos na ordem $2..$18 usada por INSERT e UPDATE.
func productArgs(p domain.Product) ([]interface{}, error) {
	defining, err := json.Marshal(nonNilMap(p.DefiningAttributes))
	if err != nil {
		return nil, err
	}
	describes, err := json.Marshal(nonNilMap(p.DescriptiveAttributes))
	if err != nil {
		return nil, err
	}
	// sem variante padrão a coluna jsonb recebe NULL
	var defaultVariant interface{}
	if p.DefaultVariant != nil {
		raw, err := json.Marshal(p.DefaultVariant)
		if err != nil {
			return nil, err
		}
		defaultVariant = raw
	}
	variants := p.Variants
	if variants == nil {
		variants = []domain.Variant{}
	}
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return nil, err
	}

	return []interface{}{
		p.ID, p.ProductRef, p.Slug, p.Name, p.Brand, p.LongDescription, p.ProductType, p.DisplayOnSite,
		p.TaxCode, p.SeoTitle, p.SeoDescription, pq.Array(nonNilSlice(p.SeoKeywords)), defining, describes,
		pq.Array(nonNilSlice(p.ListCategories)), pq.Array(nonNilSlice(p.RelatedProducts)), defaultVariant, variantsJSON,
	}, nil
}

// Create reserva productRef e slug, valida as categorias e insere o produto na mesma transação.
func (r *ProductRepository) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if !domain.ValidName(p.Name) {
		return domain.Product{}, errors.NewValidationError("o nome do produto é obrigatório.")
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Product{}, errors.NewDBError("failed to start tx", err)
	}
	defer tx.Rollback()

	reg := registry.New(registry.NewSQLBackend(tx))
	if _, err := reg.Reserve(ctxTimeout, registry.NamespaceProductRef, p.ProductRef); err != nil {
		return domain.Product{}, err
	}
	if _, err := reg.Reserve(ctxTimeout, registry.NamespaceProductSlug, p.Slug); err != nil {
		return domain.Product{}, err
	}

	if p.ListCategories, err = resolveCategories(ctxTimeout, tx, p.ListCategories); err != nil {
		return domain.Product{}, err
	}

	args, err := productArgs(p)
	if err != nil {
		return domain.Product{}, errors.NewInternalError("falha ao serializar produto", err)
	}

	const insertSQL = `
		INSERT INTO products (id, product_ref, slug, name, brand, long_description, product_type, display_on_site,
			tax_code, seo_title, seo_description, seo_keywords, defining_attributes, descriptive_attributes,
			list_categories, related_products, default_variant, variants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING ` + productColumns

	created, err := scanProduct(tx.QueryRowContext(ctxTimeout, insertSQL, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Product{}, errors.NewAlreadyExistsError(fmt.Sprintf("produto '%s' já existe", p.ProductRef))
		}
		return domain.Product{}, errors.NewDBError("failed to insert product", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Product{}, errors.NewDBError("failed to commit tx", err)
	}
	return created, nil
}

// resolveCategories normaliza referências (id ou slug) para ids, travando as categorias com FOR SHARE.
func resolveCategories(ctx context.Context, tx *sql.Tx, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	if len(refs) == 0 {
		return ids, nil
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, slug FROM categories WHERE id = ANY($1) OR slug = ANY($1) FOR SHARE`, pq.Array(refs))
	if err != nil {
		return nil, errors.NewDBError("Falha ao resolver categorias", err)
	}
	defer rows.Close()

	byRef := make(map[string]string, len(refs))
	for rows.Next() {
		var id, slug string
		if err := rows.Scan(&id, &slug); err != nil {
			return nil, errors.NewDBError("Falha ao ler categoria", err)
		}
		byRef[id] = id
		byRef[slug] = id
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar categorias", err)
	}

	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		id, ok := byRef[ref]
		if !ok {
			return nil, errors.NewNotFoundError(fmt.Sprintf("categoria '%s' referenciada pelo produto não existe.", ref))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// --- Cache-Aside (READ) ---
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		r.logger.Warn("Entrada de cache corrompida, lendo do DB.", map[string]interface{}{"key": key})
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	product, err = scanProduct(r.DB.QueryRowContext(ctxTimeout, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	// --- Cache-Aside (WRITE) ---
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		if setErr := r.Cache.Set(ctxTimeout, key, productJSON, r.CacheTTL); setErr != nil {
			r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"key": key, "error": setErr.Error()})
		}
	}
	return product, nil
}

func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	product, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com slug '%s' não existe.", slug))
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}
	return product, nil
}

// lockKeys trava a linha do produto e retorna productRef e slug persistidos.
func lockKeys(ctx context.Context, tx *sql.Tx, id string) (string, string, error) {
	var ref, slug string
	err := tx.QueryRowContext(ctx, `SELECT product_ref, slug FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&ref, &slug)
	if err == sql.ErrNoRows {
		return "", "", errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", id))
	}
	if err != nil {
		return "", "", errors.NewDBError("Falha ao buscar produto", err)
	}
	return ref, slug, nil
}

// Update substitui o produto. productRef e slug precisam coincidir com os persistidos.
func (r *ProductRepository) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	if !domain.ValidName(p.Name) {
		return domain.Product{}, errors.NewValidationError("o nome do produto é obrigatório.")
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Product{}, errors.NewDBError("failed to start tx", err)
	}
	defer tx.Rollback()

	ref, slug, err := lockKeys(ctxTimeout, tx, p.ID)
	if err != nil {
		return domain.Product{}, err
	}
	if ref != p.ProductRef || slug != p.Slug {
		return domain.Product{}, errors.NewValidationError("product_ref e slug não podem ser alterados.")
	}

	if p.ListCategories, err = resolveCategories(ctxTimeout, tx, p.ListCategories); err != nil {
		return domain.Product{}, err
	}

	args, err := productArgs(p)
	if err != nil {
		return domain.Product{}, errors.NewInternalError("falha ao serializar produto", err)
	}

	const updateSQL = `
		UPDATE products
		SET product_ref = $2, slug = $3, name = $4, brand = $5, long_description = $6, product_type = $7,
			display_on_site = $8, tax_code = $9, seo_title = $10, seo_description = $11, seo_keywords = $12,
			defining_attributes = $13, descriptive_attributes = $14, list_categories = $15,
			related_products = $16, default_variant = $17, variants = $18, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns

	updated, err := scanProduct(tx.QueryRowContext(ctxTimeout, updateSQL, args...))
	if err != nil {
		return domain.Product{}, errors.NewDBError("failed to update product", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Product{}, errors.NewDBError("failed to commit tx", err)
	}

	r.invalidate(ctx, p.ID)
	return updated, nil
}

// Delete remove o produto e libera productRef e slug na mesma transação.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return errors.NewDBError("failed to start tx", err)
	}
	defer tx.Rollback()

	ref, slug, err := lockKeys(ctxTimeout, tx, id)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return errors.NewDBError("failed to delete product", err)
	}

	reg := registry.New(registry.NewSQLBackend(tx))
	if err := reg.Release(ctxTimeout, registry.NamespaceProductRef, ref); err != nil {
		return err
	}
	if err := reg.Release(ctxTimeout, registry.NamespaceProductSlug, slug); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDBError("failed to commit tx", err)
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *ProductRepository) invalidate(ctx context.Context, id string) {
	key := fmt.Sprintf(productCacheKey, id)
	if err := r.Cache.Delete(ctx, key); err != nil {
		r.logger.Warn("Falha ao invalidar cache do produto.", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// Search filtra por texto (ILIKE), categorias e marca, ordenando por relevância e depois id.
func (r *ProductRepository) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		where []string
		args  []interface{}
		order = "id ASC"
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Query != "" {
		pattern := arg("%" + escapeLike(q.Query) + "%")
		order = fmt.Sprintf("CASE WHEN name ILIKE %s THEN 2 ELSE 1 END DESC, id ASC", pattern)
		match := fmt.Sprintf("name ILIKE %s", pattern)
		if q.IncludeDescriptions {
			match = fmt.Sprintf("(%s OR long_description ILIKE %s OR EXISTS (SELECT 1 FROM unnest(seo_keywords) k WHERE k ILIKE %s))",
				match, pattern, pattern)
		}
		where = append(where, match)
	}

	if len(q.Categories) > 0 {
		ids, err := r.categoryFilter(ctxTimeout, q.Categories)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []domain.Product{}, nil
		}
		where = append(where, fmt.Sprintf("list_categories && %s", arg(pq.Array(ids))))
	}

	if q.Brand != "" {
		where = append(where, fmt.Sprintf("lower(brand) = lower(%s)", arg(q.Brand)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY %s LIMIT %s OFFSET %s`, order, arg(q.Limit), arg(q.Offset))

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		return nil, errors.NewDBError("Falha ao buscar produtos", err)
	}
	defer rows.Close()

	out := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler produto", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar produtos", err)
	}
	return out, nil
}

func (r *ProductRepository) categoryFilter(ctx context.Context, refs []string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM categories WHERE id = ANY($1) OR slug = ANY($1)`, pq.Array(refs))
	if err != nil {
		return nil, errors.NewDBError("Falha ao resolver filtro de categorias", err)
	}
	defer rows.Close()

	ids := make([]string, 0, len(refs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewDBError("Falha ao ler categoria", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar categorias", err)
	}
	return ids, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
