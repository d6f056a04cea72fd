package order_test

import (
	"testing"

	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Next(t *testing.T) {
	allowed := map[order.Status]map[order.Event]order.Status{
		order.Pending:           {order.EventConfirm: order.Confirmed, order.EventCancel: order.Cancelled},
		order.Confirmed:         {order.EventStartPreparing: order.Preparing, order.EventCancel: order.Cancelled},
		order.Preparing:         {order.EventPrepTimeElapsed: order.Ready},
		order.Ready:             {order.EventShipperAssigned: order.AssignedToShipper},
		order.AssignedToShipper: {order.EventPickedUp: order.OutForDelivery},
		order.OutForDelivery:    {order.EventDelivered: order.Delivered},
		order.Delivered:         {order.EventComplete: order.Completed},
		order.Completed:         {},
		order.Cancelled:         {},
	}

	for _, from := range order.AllStatuses() {
		for _, event := range order.AllEvents() {
			want, ok := allowed[from][event]
			t.Run(from.String()+" on "+event.String(), func(t *testing.T) {
				got, err := from.Next(event)

				if ok {
					require.NoError(t, err)
					assert.Equal(t, want, got)
					return
				}
				require.ErrorIs(t, err, errs.ErrInvalidTransition)
				assert.Empty(t, got)
			})
		}
	}
}

func TestStatus_Next_UnknownEvent(t *testing.T) {
	_, err := order.Pending.Next("teleport")

	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestStatus_IsTerminal(t *testing.T) {
	for _, s := range order.AllStatuses() {
		want := s == order.Completed || s == order.Cancelled
		assert.Equal(t, want, s.IsTerminal(), s.String())
		if want {
			assert.Empty(t, s.AllowedEvents(), s.String())
		}
	}
}

func TestStatus_AllowedEvents(t *testing.T) {
	assert.Equal(t, []order.Event{order.EventConfirm, order.EventCancel}, order.Pending.AllowedEvents())
	assert.Equal(t, []order.Event{order.EventShipperAssigned}, order.Ready.AllowedEvents())
}

func TestParseStatus(t *testing.T) {
	t.Run("should parse every known status", func(t *testing.T) {
		for _, s := range order.AllStatuses() {
			parsed, err := order.ParseStatus(string(s))

			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		}
	})

	t.Run("should reject unknown status", func(t *testing.T) {
		_, err := order.ParseStatus("Ready")

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestParseEvent(t *testing.T) {
	e, err := order.ParseEvent("pickedUp")
	require.NoError(t, err)
	assert.Equal(t, order.EventPickedUp, e)

	_, err = order.ParseEvent("picked_up")
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}
