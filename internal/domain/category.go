package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxNameLength é o limite (em runas) para nomes e slugs.
const MaxNameLength = 256

// PathSeparator separa os nomes dos ancestrais no caminho legível de uma categoria.
const PathSeparator = " > "

// Category representa um nó da hierarquia de categorias.
// Ancestors e Level são derivados no momento da criação e nunca aceitos do cliente.
type Category struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	ParentID         *string   `json:"parent_id,omitempty"`
	Ancestors        []string  `json:"ancestors"`
	Level            int       `json:"level"`
	DisplayOrder     int       `json:"display_order"`
	IsActive         bool      `json:"is_active"`
	ShortDescription string    `json:"short_description,omitempty"`
	FullDescription  string    `json:"full_description,omitempty"`
	Seo              Seo       `json:"seo"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Seq é a sequência de inserção, usada para desempate entre irmãs.
	Seq int64 `json:"-"`
}

// Seo agrupa os metadados de SEO de uma categoria. O conteúdo é opaco para o motor.
type Seo struct {
	MetaTitle       string   `json:"meta_title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
}

// IsRoot indica se a categoria não possui pai.
func (c Category) IsRoot() bool {
	return c.ParentID == nil
}

// CategoryDraft é o payload de criação de uma categoria.
// Quando ParentID e ParentSlug são ambos informados, ParentID prevalece.
type CategoryDraft struct {
	Name             string  `json:"name" validate:"required,max=256"`
	Slug             string  `json:"slug" validate:"required,max=256"`
	ParentID         *string `json:"parent_id,omitempty"`
	ParentSlug       *string `json:"parent_slug,omitempty"`
	DisplayOrder     int     `json:"display_order"`
	IsActive         *bool   `json:"is_active,omitempty"`
	ShortDescription string  `json:"short_description,omitempty"`
	FullDescription  string  `json:"full_description,omitempty"`
	Seo              Seo     `json:"seo"`
}

// Active retorna o valor de IsActive, com true como padrão.
func (d CategoryDraft) Active() bool {
	return d.IsActive == nil || *d.IsActive
}

// CategoryUpdate contém os campos mutáveis de uma categoria.
// Campos nil não são alterados. Slug e pai não são mutáveis.
type CategoryUpdate struct {
	Name             *string `json:"name,omitempty" validate:"omitempty,max=256"`
	ShortDescription *string `json:"short_description,omitempty"`
	FullDescription  *string `json:"full_description,omitempty"`
	DisplayOrder     *int    `json:"display_order,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
	Seo              *Seo    `json:"seo,omitempty"`
}

// Apply aplica a atualização sobre uma cópia da categoria.
func (u CategoryUpdate) Apply(c Category) Category {
	if u.Name != nil {
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.ShortDescription != nil {
		c.ShortDescription = *u.ShortDescription
	}
	if u.FullDescription != nil {
		c.FullDescription = *u.FullDescription
	}
	if u.DisplayOrder != nil {
		c.DisplayOrder = *u.DisplayOrder
	}
	if u.IsActive != nil {
		c.IsActive = *u.IsActive
	}
	if u.Seo != nil {
		c.Seo = *u.Seo
	}
	return c
}

// TreeOptions controla a materialização da árvore.
// MaxDepth nil significa profundidade ilimitada; N materializa as profundidades 0..N-1.
type TreeOptions struct {
	IncludeInactive bool
	MaxDepth        *int
}

// CategoryTreeNode é um nó da floresta materializada.
type CategoryTreeNode struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Slug         string              `json:"slug"`
	Level        int                 `json:"level"`
	DisplayOrder int                 `json:"display_order"`
	IsActive     bool                `json:"is_active"`
	Path         string              `json:"path"`
	ChildCount   int                 `json:"child_count"`
	Children     []*CategoryTreeNode `json:"children"`
}

// Breadcrumb é um elemento da trilha raiz -> categoria.
type Breadcrumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Path string `json:"path"`
}

// ImportItem é uma entrada de importação em lote, resolvida por ParentSlug dentro do lote.
type ImportItem = CategoryDraft

// ImportResult resume uma importação em lote. Erros são reportados por item.
type ImportResult struct {
	DryRun  bool          `json:"dry_run"`
	Created []Category    `json:"created"`
	Failed  []ImportError `json:"failed"`
}

// ImportError descreve a falha de um item da importação.
type ImportError struct {
	Slug    string `json:"slug"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// --- Validações de Domínio ---

// ValidName reporta se um nome é aceitável: não vazio após trim e com no máximo MaxNameLength runas.
func ValidName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed != "" && utf8.RuneCountInString(trimmed) <= MaxNameLength
}

// ValidSlug reporta se um slug é não vazio, sem espaços e com no máximo MaxNameLength runas.
func ValidSlug(slug string) bool {
	if slug == "" || utf8.RuneCountInString(slug) > MaxNameLength {
		return false
	}
	return strings.IndexFunc(slug, unicode.IsSpace) < 0
}

// BuildPath junta os nomes com PathSeparator.
func BuildPath(names ...string) string {
	return strings.Join(names, PathSeparator)
}
