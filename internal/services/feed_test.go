package services_test

import (
	"context"
	"errors"
	"testing"

	"clientes/internal/models"
	"clientes/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCustomerFeed_RefreshPublishesSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCustomerRepo)
	feed := services.NewCustomerFeed(repo, zap.NewNop())

	// nobody listening, nothing loaded
	require.NoError(t, feed.Refresh(ctx))
	repo.AssertNotCalled(t, "All", ctx)

	list := []models.Customer{{ID: "c-1", Name: "Ana"}, {ID: "c-2", Name: "Bia"}}
	repo.On("All", ctx).Return(list, nil).Once()

	var a, b []models.Customer
	unsubA := feed.Subscribe(func(l []models.Customer) { a = l })
	unsubB := feed.Subscribe(func(l []models.Customer) { b = l })
	assert.Equal(t, 2, feed.Subscribers())

	require.NoError(t, feed.Refresh(ctx))
	assert.Equal(t, list, a)
	assert.Equal(t, list, b)

	unsubA()
	unsubA()
	unsubB()
	assert.Equal(t, 0, feed.Subscribers())
	repo.AssertExpectations(t)
}

func TestCustomerFeed_RefreshFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCustomerRepo)
	repo.On("All", ctx).Return(nil, errors.New("connection refused")).Once()
	feed := services.NewCustomerFeed(repo, zap.NewNop())

	called := false
	defer feed.Subscribe(func([]models.Customer) { called = true })()

	assert.Error(t, feed.Refresh(ctx))
	assert.False(t, called)
}
