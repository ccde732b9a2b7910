package repositories_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"clientes/internal/models"
	"clientes/internal/repositories"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Customer{}, &models.User{}))
	return db
}

// implementations runs fn against every CustomerRepository implementation.
func implementations(t *testing.T, fn func(t *testing.T, repo repositories.CustomerRepository)) {
	t.Run("gorm", func(t *testing.T) {
		fn(t, repositories.NewGORMCustomerRepository(openTestDB(t)))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, repositories.NewMockCustomerRepository())
	})
}

func newCustomer(name, email, taxID string) *models.Customer {
	return &models.Customer{
		Name:       name,
		Email:      email,
		TaxID:      taxID,
		Phone:      "11987654321",
		PostalCode: "01310930",
		State:      "SP",
		City:       "São Paulo",
		District:   "Bela Vista",
		Street:     "Avenida Paulista",
		Number:     gofakeit.Numerify("###"),
	}
}

func TestCustomerRepository_CreateAndGet(t *testing.T) {
	implementations(t, func(t *testing.T, repo repositories.CustomerRepository) {
		ctx := context.Background()
		c := newCustomer("Maria Souza", "maria@example.com", "529.982.247-25")

		require.NoError(t, repo.CreateUnique(ctx, c))
		assert.NotEmpty(t, c.ID)

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Maria Souza", got.Name)
		assert.Equal(t, "529.982.247-25", got.TaxID)

		_, err = repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestCustomerRepository_CreateUniqueRejectsDuplicates(t *testing.T) {
	implementations(t, func(t *testing.T, repo repositories.CustomerRepository) {
		ctx := context.Background()
		require.NoError(t, repo.CreateUnique(ctx, newCustomer("Ana", "ana@example.com", "529.982.247-25")))

		err := repo.CreateUnique(ctx, newCustomer("Outra Ana", "outra@example.com", "529.982.247-25"))
		assert.ErrorIs(t, err, repositories.ErrDuplicateTaxID)

		err = repo.CreateUnique(ctx, newCustomer("Outra Ana", "ana@example.com", "111.444.777-35"))
		assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)

		keyed := newCustomer("Bruno", "bruno@example.com", "123.456.789-09")
		keyed.ID = "12345678909"
		require.NoError(t, repo.CreateUnique(ctx, keyed))
		again := newCustomer("Bruno 2", "bruno2@example.com", "390.533.447-05")
		again.ID = "12345678909"
		assert.ErrorIs(t, repo.CreateUnique(ctx, again), repositories.ErrDuplicateID)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestCustomerRepository_Exists(t *testing.T) {
	implementations(t, func(t *testing.T, repo repositories.CustomerRepository) {
		ctx := context.Background()
		c := newCustomer("Carla", "carla@example.com", "529.982.247-25")
		require.NoError(t, repo.CreateUnique(ctx, c))

		ok, err := repo.ExistsByTaxID(ctx, "529.982.247-25", "")
		require.NoError(t, err)
		assert.True(t, ok)

		// Exact match on the formatted value only.
		ok, err = repo.ExistsByTaxID(ctx, "52998224725", "")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.ExistsByTaxID(ctx, "529.982.247-25", c.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.ExistsByEmail(ctx, "carla@example.com", "")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsByEmail(ctx, "carla@example.com", c.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCustomerRepository_Replace(t *testing.T) {
	implementations(t, func(t *testing.T, repo repositories.CustomerRepository) {
		ctx := context.Background()
		first := newCustomer("Davi", "davi@example.com", "529.982.247-25")
		second := newCustomer("Elisa", "elisa@example.com", "111.444.777-35")
		require.NoError(t, repo.CreateUnique(ctx, first))
		require.NoError(t, repo.CreateUnique(ctx, second))

		updated := *first
		updated.Name = "Davi Lima"
		updated.Number = "42"
		require.NoError(t, repo.Replace(ctx, &updated))

		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Davi Lima", got.Name)
		assert.Equal(t, "42", got.Number)
		assert.Contains(t, got.SearchKey, "davi lima")

		clash := *first
		clash.Email = "elisa@example.com"
		assert.ErrorIs(t, repo.Replace(ctx, &clash), repositories.ErrDuplicateEmail)

		missing := newCustomer("Fantasma", "f@example.com", "390.533.447-05")
		missing.ID = "nope"
		assert.ErrorIs(t, repo.Replace(ctx, missing), repositories.ErrNotFound)
	})
}

func TestCustomerRepository_ListPaginatesAndSearches(t *testing.T) {
	implementations(t, func(t *testing.T, repo repositories.CustomerRepository) {
		ctx := context.Background()
		taxIDs := []string{"529.982.247-25", "111.444.777-35", "123.456.789-09", "390.533.447-05", "987.654.321-00"}
		names := []string{"João Conceição", "Ana Beatriz", "Bruno Dias", "Carlos Eduardo", "Daniela Faria"}
		for i, name := range names {
			email := fmt.Sprintf("%s@example.com", gofakeit.LetterN(8))
			require.NoError(t, repo.CreateUnique(ctx, newCustomer(name, email, taxIDs[i])))
		}

		page, total, err := repo.List(ctx, repositories.ListQuery{Page: 1, PageSize: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		require.Len(t, page, 2)
		assert.Equal(t, "Ana Beatriz", page[0].Name)
		assert.Equal(t, "Bruno Dias", page[1].Name)

		page, _, err = repo.List(ctx, repositories.ListQuery{Page: 3, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "João Conceição", page[0].Name)

		page, total, err = repo.List(ctx, repositories.ListQuery{Search: "JOAO conceicao"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, page, 1)
		assert.Equal(t, "João Conceição", page[0].Name)

		page, total, err = repo.List(ctx, repositories.ListQuery{Search: "4447770"})
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
		assert.Empty(t, page)

		_, total, err = repo.List(ctx, repositories.ListQuery{Search: "444777"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)

		page, _, err = repo.List(ctx, repositories.ListQuery{Page: 9})
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}

func TestListQuery_Normalize(t *testing.T) {
	q := repositories.ListQuery{Page: 0, PageSize: 500}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, repositories.MaxPageSize, q.PageSize)
	assert.Equal(t, 0, q.Offset())

	q = repositories.ListQuery{Page: 3}.Normalize()
	assert.Equal(t, repositories.DefaultPageSize, q.PageSize)
	assert.Equal(t, 20, q.Offset())
}
