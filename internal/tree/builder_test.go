package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	"gocatalog/internal/tree"
)

func ptr[T any](v T) *T { return &v }

func category(id, name string, parent *domain.Category, order int, seq int64) domain.Category {
	c := domain.Category{
		ID:           id,
		Name:         name,
		Slug:         id,
		DisplayOrder: order,
		IsActive:     true,
		Seq:          seq,
		Ancestors:    []string{},
	}
	if parent != nil {
		c.ParentID = ptr(parent.ID)
		c.Ancestors = append(append([]string{}, parent.Ancestors...), parent.ID)
		c.Level = len(c.Ancestors)
	}
	return c
}

// chain monta root -> a -> b -> c.
func chain() []domain.Category {
	root := category("root", "Root", nil, 0, 1)
	a := category("a", "A", &root, 0, 2)
	b := category("b", "B", &a, 0, 3)
	c := category("c", "C", &b, 0, 4)
	return []domain.Category{c, b, a, root}
}

func TestBuild_MaxDepthTruncatesChain(t *testing.T) {
	forest := tree.Build(chain(), domain.TreeOptions{MaxDepth: ptr(3)})

	require.Len(t, forest, 1)
	root := forest[0]
	assert.Equal(t, "root", root.ID)
	require.Len(t, root.Children, 1)
	a := root.Children[0]
	assert.Equal(t, "a", a.ID)
	require.Len(t, a.Children, 1)
	b := a.Children[0]
	assert.Equal(t, "b", b.ID)
	assert.NotNil(t, b.Children)
	assert.Empty(t, b.Children)
	assert.Equal(t, 0, b.ChildCount)
	assert.Equal(t, "Root > A > B", b.Path)
}

func TestBuild_UnboundedAndZeroDepth(t *testing.T) {
	assert.Equal(t, 4, tree.Count(tree.Build(chain(), domain.TreeOptions{})))

	empty := tree.Build(chain(), domain.TreeOptions{MaxDepth: ptr(0)})
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	rootsOnly := tree.Build(chain(), domain.TreeOptions{MaxDepth: ptr(1)})
	require.Len(t, rootsOnly, 1)
	assert.Empty(t, rootsOnly[0].Children)
}

func TestBuild_SiblingOrder(t *testing.T) {
	root := category("root", "Root", nil, 0, 1)
	late := category("late", "Late", &root, 1, 2)
	firstSeq := category("first", "First", &root, 0, 3)
	secondSeq := category("second", "Second", &root, 0, 4)

	forest := tree.Build([]domain.Category{secondSeq, late, root, firstSeq}, domain.TreeOptions{})

	require.Len(t, forest, 1)
	var ids []string
	for _, n := range forest[0].Children {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"first", "second", "late"}, ids)
	assert.Equal(t, 3, forest[0].ChildCount)
}

func TestBuild_InactiveHidesSubtree(t *testing.T) {
	root := category("root", "Root", nil, 0, 1)
	off := category("off", "Off", &root, 0, 2)
	off.IsActive = false
	under := category("under", "Under", &off, 0, 3)
	sibling := category("sib", "Sib", &root, 1, 4)
	cats := []domain.Category{root, off, under, sibling}

	forest := tree.Build(cats, domain.TreeOptions{})
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "sib", forest[0].Children[0].ID)
	assert.Equal(t, 2, tree.Count(forest))

	all := tree.Build(cats, domain.TreeOptions{IncludeInactive: true})
	assert.Equal(t, 4, tree.Count(all))
}

func TestBuild_OrphanSurfacesAsRoot(t *testing.T) {
	ghost := category("ghost", "Ghost", nil, 0, 1)
	orphan := category("orphan", "Orphan", &ghost, 5, 2)
	root := category("root", "Root", nil, 0, 3)

	forest := tree.Build([]domain.Category{orphan, root}, domain.TreeOptions{})

	require.Len(t, forest, 2)
	assert.Equal(t, "root", forest[0].ID)
	assert.Equal(t, "orphan", forest[1].ID)
	assert.Equal(t, "Orphan", forest[1].Path)
}

func TestBuild_EmptySnapshot(t *testing.T) {
	forest := tree.Build(nil, domain.TreeOptions{})
	assert.NotNil(t, forest)
	assert.Empty(t, forest)
}
