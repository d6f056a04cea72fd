package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewCreateOrderCommand(t *testing.T) {
	t.Run("should build valid command", func(t *testing.T) {
		id := kernel.NewUUID()

		cmd, err := commands.NewCreateOrderCommand(id, "customer-1", testItems(), testDelivery(), order.PaymentMomo)

		require.NoError(t, err)
		require.NoError(t, cmd.Validate())
		assert.Equal(t, id, cmd.OrderID())
		assert.Equal(t, order.PaymentMomo, cmd.PaymentMethod())
	})

	t.Run("should reject zero order id", func(t *testing.T) {
		_, err := commands.NewCreateOrderCommand(kernel.UUID{}, "customer-1", testItems(), testDelivery(), order.PaymentCash)

		assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})

	t.Run("should reject empty items", func(t *testing.T) {
		_, err := commands.NewCreateOrderCommand(kernel.NewUUID(), "customer-1", nil, testDelivery(), order.PaymentCash)

		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should reject zero value command", func(t *testing.T) {
		var cmd commands.CreateOrderCommand

		assert.ErrorIs(t, cmd.Validate(), commands.ErrCreateOrderCommandIsNotConstructed)
	})
}

func TestCreateOrderCommandHandler_Handle(t *testing.T) {
	t.Run("should persist pending order", func(t *testing.T) {
		ctx := t.Context()
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), "customer-1", testItems(), testDelivery(), order.PaymentCash)
		require.NoError(t, err)

		repo := new(MockOrderRepository)
		uow := new(MockUoW)
		mock.InOrder(
			uow.On("Begin", ctx).Return(nil).Once(),
			uow.On("OrderRepository").Return(repo).Once(),
			repo.On("Add", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
			uow.On("Commit", ctx).Return(nil).Once(),
			uow.On("Rollback", ctx).Return(nil).Once(),
		)
		factory := new(MockOrderUoWFactory)
		factory.On("Create").Return(uow).Once()

		handler := commands.NewCreateOrderCommandHandler(factory, fixedClock{now: testNow})
		o, err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, order.Pending, o.Status())
		assert.Equal(t, testNow, o.CreatedAt())
		uow.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("should not commit when add fails", func(t *testing.T) {
		ctx := t.Context()
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), "customer-1", testItems(), testDelivery(), order.PaymentCash)
		require.NoError(t, err)
		dbErr := errors.New("insert failed")

		repo := new(MockOrderRepository)
		repo.On("Add", ctx, mock.Anything).Return(dbErr).Once()
		uow := new(MockUoW)
		uow.On("Begin", ctx).Return(nil).Once()
		uow.On("OrderRepository").Return(repo).Once()
		uow.On("Rollback", ctx).Return(nil).Once()
		factory := new(MockOrderUoWFactory)
		factory.On("Create").Return(uow).Once()

		handler := commands.NewCreateOrderCommandHandler(factory, fixedClock{now: testNow})
		_, err = handler.Handle(ctx, cmd)

		require.ErrorIs(t, err, dbErr)
		uow.AssertNotCalled(t, "Commit", ctx)
	})

	t.Run("should give up when the store outlives the request timeout", func(t *testing.T) {
		// Given
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), "customer-1", testItems(), testDelivery(), order.PaymentCash)
		require.NoError(t, err)
		repo := new(MockOrderRepository)
		repo.On("Add", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).Once()
		uow := new(MockUoW)
		uow.On("Begin", mock.Anything).Return(nil).Once()
		uow.On("OrderRepository").Return(repo).Once()
		uow.On("Commit", mock.Anything).Return(context.DeadlineExceeded).Once()
		uow.On("Rollback", mock.Anything).Return(nil).Once()
		factory := new(MockOrderUoWFactory)
		factory.On("Create").Return(uow).Once()
		handler := commands.NewCreateOrderCommandHandler(factory, fixedClock{now: testNow}).WithTimeout(10 * time.Millisecond)

		// When
		_, err = handler.Handle(t.Context(), cmd)

		// Then
		require.ErrorIs(t, err, commands.ErrStoreTimeout)
		uow.AssertExpectations(t)
	})
}
