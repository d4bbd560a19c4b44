package application

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type txKey struct{}

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestWithUnitOfWork(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey{}, "tx")

	t.Run("commits on success", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)

		err := WithUnitOfWork(ctx, uow, func(got context.Context) error {
			assert.Equal(t, txCtx, got)
			return nil
		})

		require.NoError(t, err)
		uow.AssertExpectations(t)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		fnErr := errors.New("boom")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)

		err := WithUnitOfWork(ctx, uow, func(context.Context) error { return fnErr })

		assert.Equal(t, fnErr, err)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("joins rollback failure", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		fnErr := errors.New("boom")
		rbErr := errors.New("rollback failed")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(rbErr)

		err := WithUnitOfWork(ctx, uow, func(context.Context) error { return fnErr })

		assert.ErrorIs(t, err, fnErr)
		assert.ErrorIs(t, err, rbErr)
	})

	t.Run("begin failure skips fn", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		beginErr := errors.New("no connection")
		uow.On("Begin", ctx).Return(ctx, beginErr)

		called := false
		err := WithUnitOfWork(ctx, uow, func(context.Context) error {
			called = true
			return nil
		})

		assert.Equal(t, beginErr, err)
		assert.False(t, called)
	})

	t.Run("rolls back and re-panics", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)

		assert.PanicsWithValue(t, "kaboom", func() {
			_ = WithUnitOfWork(ctx, uow, func(context.Context) error { panic("kaboom") })
		})
		uow.AssertCalled(t, "Rollback", txCtx)
	})
}

type stampedEvent struct {
	domain.BaseEvent
}

func TestEventMetadata(t *testing.T) {
	userID := uuid.New()

	t.Run("reuses correlation id from context", func(t *testing.T) {
		ctx := observability.WithCorrelationID(context.Background(), "corr-42")
		md := EventMetadataFromContext(ctx, userID)
		assert.Equal(t, "corr-42", md.CorrelationID)
		assert.Equal(t, userID, md.UserID)
	})

	t.Run("generates correlation id when absent", func(t *testing.T) {
		md := EventMetadataFromContext(context.Background(), userID)
		_, err := uuid.Parse(md.CorrelationID)
		assert.NoError(t, err)
	})

	t.Run("applies to pointer events", func(t *testing.T) {
		ev := &stampedEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "Test", "test.stamped")}
		md := domain.EventMetadata{CorrelationID: "c", UserID: userID}

		ApplyEventMetadata([]domain.DomainEvent{ev}, md)
		assert.Equal(t, md, ev.Metadata())

		require.NotPanics(t, func() { ApplyEventMetadata(nil, md) })
	})
}
