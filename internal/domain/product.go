package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Limites do identificador comercial do produto.
const (
	MinProductRefLength = 3
	MaxProductRefLength = 100
)

// Product representa o item principal do catálogo (a Entidade).
// ListCategories guarda ids de categorias; RelatedProducts são referências fracas.
type Product struct {
	ID                    string            `json:"id"`
	ProductRef            string            `json:"product_ref"`
	Slug                  string            `json:"slug"`
	Name                  string            `json:"name"`
	Brand                 string            `json:"brand,omitempty"`
	LongDescription       string            `json:"long_description,omitempty"`
	ProductType           string            `json:"product_type,omitempty"`
	DisplayOnSite         bool              `json:"display_on_site"`
	TaxCode               string            `json:"tax_code,omitempty"`
	SeoTitle              string            `json:"seo_title,omitempty"`
	SeoDescription        string            `json:"seo_description,omitempty"`
	SeoKeywords           []string          `json:"seo_keywords,omitempty"`
	DefiningAttributes    map[string]string `json:"defining_attributes,omitempty"`
	DescriptiveAttributes map[string]string `json:"descriptive_attributes,omitempty"`
	ListCategories        []string          `json:"list_categories"`
	RelatedProducts       []string          `json:"related_products,omitempty"`
	DefaultVariant        *Variant          `json:"default_variant,omitempty"`
	Variants              []Variant         `json:"variants,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// Variant é uma variação vendável do produto. O motor apenas armazena e devolve.
type Variant struct {
	SKU                string            `json:"sku"`
	DefiningAttributes map[string]string `json:"defining_attributes,omitempty"`
	Color              string            `json:"color,omitempty"`
	Size               string            `json:"size,omitempty"`
	ImageURLs          []string          `json:"image_urls,omitempty"`
}

// ProductDraft é o payload de criação e de substituição completa de um produto.
type ProductDraft struct {
	ProductRef            string            `json:"product_ref" validate:"required,min=3,max=100"`
	Slug                  string            `json:"slug" validate:"required,max=256"`
	Name                  string            `json:"name" validate:"required,max=256"`
	Brand                 string            `json:"brand,omitempty"`
	LongDescription       string            `json:"long_description,omitempty"`
	ProductType           string            `json:"product_type,omitempty"`
	DisplayOnSite         bool              `json:"display_on_site"`
	TaxCode               string            `json:"tax_code,omitempty"`
	SeoTitle              string            `json:"seo_title,omitempty"`
	SeoDescription        string            `json:"seo_description,omitempty"`
	SeoKeywords           []string          `json:"seo_keywords,omitempty"`
	DefiningAttributes    map[string]string `json:"defining_attributes,omitempty"`
	DescriptiveAttributes map[string]string `json:"descriptive_attributes,omitempty"`
	ListCategories        []string          `json:"list_categories"`
	RelatedProducts       []string          `json:"related_products,omitempty"`
	DefaultVariant        *Variant          `json:"default_variant,omitempty"`
	Variants              []Variant         `json:"variants,omitempty" validate:"dive"`
}

// ToProduct monta a entidade a partir do draft. Id e timestamps ficam a cargo do chamador.
func (d ProductDraft) ToProduct() Product {
	return Product{
		ProductRef:            d.ProductRef,
		Slug:                  d.Slug,
		Name:                  strings.TrimSpace(d.Name),
		Brand:                 d.Brand,
		LongDescription:       d.LongDescription,
		ProductType:           d.ProductType,
		DisplayOnSite:         d.DisplayOnSite,
		TaxCode:               d.TaxCode,
		SeoTitle:              d.SeoTitle,
		SeoDescription:        d.SeoDescription,
		SeoKeywords:           d.SeoKeywords,
		DefiningAttributes:    d.DefiningAttributes,
		DescriptiveAttributes: d.DescriptiveAttributes,
		ListCategories:        d.ListCategories,
		RelatedProducts:       d.RelatedProducts,
		DefaultVariant:        d.DefaultVariant,
		Variants:              d.Variants,
	}
}

// SearchQuery define os filtros de SearchProducts.
// Categories aceita ids ou slugs; IncludeDescriptions estende o match para descrição e keywords.
type SearchQuery struct {
	Query               string
	Categories          []string
	Brand               string
	Limit               int
	Offset              int
	IncludeDescriptions bool
}

// SearchResult é a página retornada por SearchProducts.
type SearchResult struct {
	Products []Product `json:"products"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// --- Validações de Domínio ---

// ValidProductName aceita nomes não vazios após trim, com até MaxNameLength runas
// e sem separadores de caminho ou caracteres de controle.
func ValidProductName(name string) bool {
	if !ValidName(name) {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00\n\r\t")
}

// ValidProductRef aceita 3..100 caracteres de [A-Za-z0-9_-], sem '-' ou '_' nas pontas.
func ValidProductRef(ref string) bool {
	n := utf8.RuneCountInString(ref)
	if n < MinProductRefLength || n > MaxProductRefLength {
		return false
	}
	for _, r := range ref {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	first, last := ref[0], ref[len(ref)-1]
	return first != '-' && first != '_' && last != '-' && last != '_'
}

// Relevance calcula a relevância de um produto para a busca: 2 no nome, 1 em descrição/keywords.
func Relevance(p Product, query string, inDescriptions bool) int {
	if query == "" {
		return 0
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.Name), q) {
		return 2
	}
	if !inDescriptions {
		return 0
	}
	if strings.Contains(strings.ToLower(p.LongDescription), q) {
		return 1
	}
	for _, kw := range p.SeoKeywords {
		if strings.Contains(strings.ToLower(kw), q) {
			return 1
		}
	}
	return 0
}
