package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"interviewdesk/internal/domain"

	"github.com/stretchr/testify/require"
)

// TestOccupancyInvariant_RandomOperations drives random booking traffic and checks after every
// step that each slot is booked exactly when a single active booking holds it.
func TestOccupancyInvariant_RandomOperations(t *testing.T) {
	actions := []domain.BookingStatus{
		domain.BookingStatusApproved,
		domain.BookingStatusRejected,
		domain.BookingStatusScheduled,
		domain.BookingStatusCancelled,
		domain.BookingStatusNoShow,
		domain.BookingStatusCompleted,
	}
	expected := func(err error) bool {
		return err == nil ||
			errors.Is(err, domain.ErrSlotUnavailable) ||
			errors.Is(err, domain.ErrIllegalStateTransition)
	}

	for seed := uint64(1); seed <= 20; seed++ {
		ctx := context.Background()
		rng := rand.New(rand.NewPCG(seed, seed*7919))
		h := newHarness(t, SchedulingOptions{})
		cfg := baseConfig()
		cfg.ApprovalRequired = seed%2 == 0
		_, slots := h.openMeeting(t, cfg)
		slots = slots[:4]

		var bookings []*domain.BookingWithToken
		for step := 0; step < 150; step++ {
			var err error
			switch op := rng.IntN(4); {
			case op == 0 || len(bookings) == 0:
				var res *domain.BookingWithToken
				res, err = h.svc.BookSlot(ctx, slots[rng.IntN(len(slots))].ID, participant("candidate"))
				if err == nil {
					bookings = append(bookings, res)
				}
			case op == 1:
				_, err = h.svc.CancelBooking(ctx, bookings[rng.IntN(len(bookings))].CancelToken)
			default:
				b := bookings[rng.IntN(len(bookings))]
				_, err = applyOrganizerAction(ctx, h.svc, b.ID, actions[rng.IntN(len(actions))])
			}
			require.Truef(t, expected(err), "seed %d step %d: unexpected error %v", seed, step, err)
			require.NoErrorf(t, checkOccupancy(h.store), "seed %d step %d", seed, step)
		}
	}
}

// TestOccupancyInvariant_ConcurrentTraffic mixes concurrent claims and cancellations on a few slots.
func TestOccupancyInvariant_ConcurrentTraffic(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, SchedulingOptions{})
	_, slots := h.openMeeting(t, baseConfig())
	slots = slots[:3]

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(worker, 17))
			for i := 0; i < 40; i++ {
				res, err := h.svc.BookSlot(ctx, slots[rng.IntN(len(slots))].ID, participant("candidate"))
				if err != nil {
					if !errors.Is(err, domain.ErrSlotUnavailable) {
						t.Errorf("book: %v", err)
					}
					continue
				}
				if rng.IntN(2) == 0 {
					if _, err := h.svc.CancelBooking(ctx, res.CancelToken); err != nil {
						t.Errorf("cancel: %v", err)
					}
				}
			}
		}(uint64(w))
	}
	wg.Wait()
	require.NoError(t, checkOccupancy(h.store))
}
