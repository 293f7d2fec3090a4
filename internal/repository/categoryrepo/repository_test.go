package categoryrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/repository/categoryrepo"
)

var columns = []string{
	"id", "seq", "name", "slug", "parent_id", "ancestors", "level", "display_order", "is_active",
	"short_description", "full_description", "seo", "created_at", "updated_at",
}

func newRepo(t *testing.T) (*categoryrepo.CategoryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return categoryrepo.NewCategoryRepository(db, 2*time.Second, logger.NewNop()), mock
}

func TestCreate_ChildDerivesAncestorsInsideTx(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()
	parentID := "root-id"

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO catalog_keys`).
		WithArgs("category_slug", "tv").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, ancestors FROM categories WHERE id = \$1 FOR SHARE`).
		WithArgs(parentID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ancestors"}).AddRow(parentID, "{}"))
	mock.ExpectQuery(`INSERT INTO categories`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"tv-id", int64(2), "TV", "tv", parentID, "{root-id}", 1, 0, true, "", "", []byte(`{}`), now, now,
		))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), domain.Category{
		ID: "tv-id", Name: "TV", Slug: "tv", ParentID: &parentID, IsActive: true,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{parentID}, created.Ancestors)
	assert.Equal(t, 1, created.Level)
	assert.Equal(t, int64(2), created.Seq)
	require.NotNil(t, created.ParentID)
	assert.Equal(t, parentID, *created.ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateSlugRollsBack(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO catalog_keys`).
		WithArgs("category_slug", "tv").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), domain.Category{ID: "x", Name: "TV", Slug: "tv"}, nil)

	assert.IsType(t, &apperror.AlreadyExistsError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_MissingParentSlugRollsBackReservation(t *testing.T) {
	repo, mock := newRepo(t)
	parentSlug := "nao-existe"

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO catalog_keys`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, ancestors FROM categories WHERE slug = \$1 FOR SHARE`).
		WithArgs(parentSlug).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ancestors"}))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), domain.Category{ID: "x", Name: "Filha", Slug: "filha"}, &parentSlug)

	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_EmptyNameNeverTouchesDB(t *testing.T) {
	repo, mock := newRepo(t)

	_, err := repo.Create(context.Background(), domain.Category{ID: "x", Name: "  ", Slug: "vazio"}, nil)

	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_RefusesWithChildren(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT slug FROM categories WHERE id = \$1 FOR UPDATE`).
		WithArgs("cat-1").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("moda"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM categories WHERE parent_id = \$1`).
		WithArgs("cat-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "cat-1")

	assert.IsType(t, &apperror.HasChildrenError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_ReleasesSlugInSameTx(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT slug FROM categories WHERE id = \$1 FOR UPDATE`).
		WithArgs("cat-1").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("moda"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM categories WHERE parent_id = \$1`).
		WithArgs("cat-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM categories WHERE id = \$1`).
		WithArgs("cat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM catalog_keys`).
		WithArgs("category_slug", "moda").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.Delete(context.Background(), "cat-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT slug FROM categories WHERE id = \$1 FOR UPDATE`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "ghost")

	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBySlug_ScansSeoAndRootFields(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM categories WHERE slug = \$1`).
		WithArgs("moda").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"moda-id", int64(1), "Moda", "moda", nil, "{}", 0, 3, true, "curta", "", []byte(`{"meta_title":"Moda"}`), now, now,
		))

	c, err := repo.FindBySlug(context.Background(), "moda")

	require.NoError(t, err)
	assert.True(t, c.IsRoot())
	assert.Empty(t, c.Ancestors)
	assert.Equal(t, "Moda", c.Seo.MetaTitle)
	assert.Equal(t, 3, c.DisplayOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM categories WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.FindByID(context.Background(), "ghost")

	assert.IsType(t, &apperror.NotFoundError{}, err)
}
