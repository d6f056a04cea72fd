package shipper_test

import (
	"testing"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/shipper"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hanoi(t *testing.T) kernel.Location {
	t.Helper()
	loc, err := kernel.NewLocation(21.0285, 105.8542)
	require.NoError(t, err)
	return loc
}

func TestNewShipper(t *testing.T) {
	t.Run("should create available shipper", func(t *testing.T) {
		id := kernel.NewUUID()

		s, err := shipper.NewShipper(id, "Nguyen Van A", "+84901234567", hanoi(t))

		require.NoError(t, err)
		require.NoError(t, s.Validate())
		assert.True(t, s.ID().IsEqual(id))
		assert.True(t, s.Available())
		assert.Nil(t, s.CurrentOrder())
	})

	t.Run("should join every validation error", func(t *testing.T) {
		s, err := shipper.NewShipper(kernel.UUID{}, "", " ", kernel.Location{})

		require.Error(t, err)
		assert.Nil(t, s)
		assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "name")
		assert.Contains(t, err.Error(), "phone")
	})
}

func TestShipper_ClaimRelease(t *testing.T) {
	t.Run("should claim available shipper once", func(t *testing.T) {
		s, err := shipper.NewShipper(kernel.NewUUID(), "A", "1", hanoi(t))
		require.NoError(t, err)
		first, second := kernel.NewUUID(), kernel.NewUUID()

		require.NoError(t, s.Claim(first))
		err = s.Claim(second)

		assert.ErrorIs(t, err, shipper.ErrAlreadyClaimed)
		assert.False(t, s.Available())
		assert.True(t, s.CurrentOrder().IsEqual(first))
	})

	t.Run("should release only for the held order", func(t *testing.T) {
		s, err := shipper.NewShipper(kernel.NewUUID(), "A", "1", hanoi(t))
		require.NoError(t, err)
		orderID := kernel.NewUUID()
		require.NoError(t, s.Claim(orderID))

		assert.ErrorIs(t, s.Release(kernel.NewUUID()), shipper.ErrNotHoldingOrder)
		require.NoError(t, s.Release(orderID))

		assert.True(t, s.Available())
		assert.Nil(t, s.CurrentOrder())
	})

	t.Run("should fail on zero value shipper", func(t *testing.T) {
		var s shipper.Shipper

		assert.ErrorIs(t, s.Claim(kernel.NewUUID()), shipper.ErrShipperIsNotConstructed)
	})
}

func TestRestoreShipper(t *testing.T) {
	orderID := kernel.NewUUID()

	t.Run("should restore claimed shipper", func(t *testing.T) {
		s, err := shipper.RestoreShipper(kernel.NewUUID(), "A", "1", hanoi(t), false, &orderID)

		require.NoError(t, err)
		assert.False(t, s.Available())
		assert.True(t, s.CurrentOrder().IsEqual(orderID))
	})

	t.Run("should reject available shipper holding an order", func(t *testing.T) {
		_, err := shipper.RestoreShipper(kernel.NewUUID(), "A", "1", hanoi(t), true, &orderID)

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should restore off shift shipper", func(t *testing.T) {
		s, err := shipper.RestoreShipper(kernel.NewUUID(), "A", "1", hanoi(t), false, nil)

		require.NoError(t, err)
		assert.False(t, s.Available())
		assert.ErrorIs(t, s.Claim(orderID), shipper.ErrAlreadyClaimed)
	})
}
