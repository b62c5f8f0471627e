package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/farmbasket/farmbasket-backend/pkg/db/models"
	"github.com/farmbasket/farmbasket-backend/pkg/enums"
	apperrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Order{}, &models.OrderLineItem{}))
	return conn
}

func pendingOrder(cartKey string) *models.Order {
	return &models.Order{
		CartKey:       cartKey,
		Status:        enums.OrderStatusPending,
		SubtotalCents: 1498,
		TotalCents:    1498,
		Items: []models.OrderLineItem{
			{ProductID: uuid.New(), Name: "Heirloom Tomatoes", Qty: 2, UnitPriceCents: 499, TotalCents: 998},
			{ProductID: uuid.New(), Name: "Raw Honey", Qty: 1, UnitPriceCents: 500, TotalCents: 500},
		},
	}
}

func TestRepositoryCreateAndFindByID(t *testing.T) {
	t.Parallel()

	conn := setupRepoTestDB(t)
	repo := NewRepository(conn)

	order := pendingOrder("session-1")
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return repo.CreateTx(tx, order)
	}))
	require.NotEqual(t, uuid.Nil, order.ID)

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Equal(t, enums.OrderStatusPending, found.Status)
	assert.Len(t, found.Items, 2)
	assert.Equal(t, 1498, found.TotalCents)
}

func TestRepositoryFindByIDNotFound(t *testing.T) {
	t.Parallel()

	repo := NewRepository(setupRepoTestDB(t))

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code())
}

func TestRepositoryAttachStripeSession(t *testing.T) {
	t.Parallel()

	conn := setupRepoTestDB(t)
	repo := NewRepository(conn)

	order := pendingOrder("session-2")
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return repo.CreateTx(tx, order)
	}))

	require.NoError(t, repo.AttachStripeSession(context.Background(), order.ID, "cs_test_42"))

	found, err := repo.FindByStripeSessionID(context.Background(), "cs_test_42")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Len(t, found.Items, 2)
}

func TestRepositoryAttachStripeSessionUnknownOrder(t *testing.T) {
	t.Parallel()

	repo := NewRepository(setupRepoTestDB(t))

	err := repo.AttachStripeSession(context.Background(), uuid.New(), "cs_test_43")
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code())
}

func TestRepositoryListByCartKeyScopes(t *testing.T) {
	t.Parallel()

	conn := setupRepoTestDB(t)
	repo := NewRepository(conn)

	mine := pendingOrder("mine")
	theirs := pendingOrder("theirs")
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateTx(tx, mine); err != nil {
			return err
		}
		return repo.CreateTx(tx, theirs)
	}))

	rows, err := repo.ListByCartKey(context.Background(), "mine")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mine.ID, rows[0].ID)
	assert.Len(t, rows[0].Items, 2)
}
