// Package tree materializa a floresta de categorias a partir de um snapshot.
package tree

import (
	"sort"

	"gocatalog/internal/domain"
)

// Build monta a floresta ordenada a partir de um snapshot de categorias.
//
// Categorias inativas são descartadas quando opts.IncludeInactive é falso, junto
// com toda a subárvore abaixo delas. Uma categoria cujo pai não está no snapshot
// é tratada como raiz. Irmãs são ordenadas por DisplayOrder e depois por Seq.
// Com opts.MaxDepth = N apenas as profundidades 0..N-1 são materializadas.
func Build(categories []domain.Category, opts domain.TreeOptions) []*domain.CategoryTreeNode {
	forest := make([]*domain.CategoryTreeNode, 0)
	if opts.MaxDepth != nil && *opts.MaxDepth <= 0 {
		return forest
	}

	present := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		present[c.ID] = struct{}{}
	}

	var roots []*domain.Category
	children := make(map[string][]*domain.Category)
	for i := range categories {
		c := &categories[i]
		if !c.IsActive && !opts.IncludeInactive {
			continue
		}
		if c.IsRoot() {
			roots = append(roots, c)
			continue
		}
		if _, ok := present[*c.ParentID]; !ok {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	sortSiblings(roots)
	for _, bucket := range children {
		sortSiblings(bucket)
	}

	b := builder{children: children, maxDepth: opts.MaxDepth}
	for _, root := range roots {
		forest = append(forest, b.node(root, "", 0))
	}
	return forest
}

type builder struct {
	children map[string][]*domain.Category
	maxDepth *int
}

func (b builder) node(c *domain.Category, parentPath string, depth int) *domain.CategoryTreeNode {
	path := c.Name
	if parentPath != "" {
		path = domain.BuildPath(parentPath, c.Name)
	}

	n := &domain.CategoryTreeNode{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Level:        c.Level,
		DisplayOrder: c.DisplayOrder,
		IsActive:     c.IsActive,
		Path:         path,
		Children:     make([]*domain.CategoryTreeNode, 0),
	}

	if b.maxDepth != nil && depth+1 >= *b.maxDepth {
		return n
	}
	for _, child := range b.children[c.ID] {
		n.Children = append(n.Children, b.node(child, path, depth+1))
	}
	n.ChildCount = len(n.Children)
	return n
}

func sortSiblings(s []*domain.Category) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].DisplayOrder != s[j].DisplayOrder {
			return s[i].DisplayOrder < s[j].DisplayOrder
		}
		if s[i].Seq != s[j].Seq {
			return s[i].Seq < s[j].Seq
		}
		return s[i].ID < s[j].ID
	})
}

// Count retorna o número de nós da floresta.
func Count(forest []*domain.CategoryTreeNode) int {
	total := 0
	for _, n := range forest {
		total += 1 + Count(n.Children)
	}
	return total
}
