//go:build integration

package integration

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"github.com/thartark/yogastudoapp-sub000/internal/repository"
	"github.com/thartark/yogastudoapp-sub000/internal/service"
)

func createInstance(t *testing.T, capacity int) *models.ClassInstance {
	t.Helper()
	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	instance := &models.ClassInstance{
		InstructorID: "instructor-1",
		RoomID:       "room-a",
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		Capacity:     capacity,
		Status:       models.InstanceScheduled,
	}
	require.NoError(t, testDB.Create(instance).Error)
	return instance
}

func seedCredit(t *testing.T, userID string, remaining *int) {
	t.Helper()
	require.NoError(t, testDB.Create(&models.CreditBalance{
		UserID:           userID,
		MembershipID:     "pack-10",
		ClassesRemaining: remaining,
	}).Error)
}

func seedUnlimited(t *testing.T, userID string) {
	t.Helper()
	seedCredit(t, userID, nil)
}

func newBookingService() service.BookingService {
	return service.NewBookingService(
		repository.NewBookingRepository(testDB),
		repository.NewInstanceRepository(testDB),
		repository.NewWaitlistRepository(testDB),
		repository.NewCreditRepository(testDB),
		nil,
	)
}

// 60 users rush a 50-seat class: exactly 50 confirmed, 10 waitlisted with
// dense positions, booked_count never exceeds capacity.
func TestConcurrentBooking_NoOverbooking(t *testing.T) {
	cleanTables()
	instance := createInstance(t, 50)
	svc := newBookingService()

	totalUsers := 60
	for i := 0; i < totalUsers; i++ {
		seedUnlimited(t, fmt.Sprintf("user-%03d", i))
	}

	var wg sync.WaitGroup
	results := make(chan *service.BookingResult, totalUsers)
	errs := make(chan error, totalUsers)

	wg.Add(totalUsers)
	for i := 0; i < totalUsers; i++ {
		go func(userIdx int) {
			defer wg.Done()
			result, err := svc.RequestBooking(t.Context(), fmt.Sprintf("user-%03d", userIdx), instance.ID)
			if err != nil {
				errs <- err
				return
			}
			results <- result
		}(i)
	}
	wg.Wait()
	close(results)
	close(errs)

	require.Empty(t, errs)

	var confirmed, waitlisted int
	for r := range results {
		switch r.Outcome {
		case service.OutcomeConfirmed:
			confirmed++
		case service.OutcomeWaitlisted:
			waitlisted++
		}
	}
	assert.Equal(t, 50, confirmed, "should have exactly 50 confirmed bookings")
	assert.Equal(t, 10, waitlisted, "everyone else joins the waitlist")

	var got models.ClassInstance
	require.NoError(t, testDB.First(&got, instance.ID).Error)
	assert.Equal(t, 50, got.BookedCount)

	// Waitlist positions are dense 1..10
	var entries []models.WaitlistEntry
	require.NoError(t, testDB.
		Where("instance_id = ? AND status = ?", instance.ID, models.WaitlistWaiting).
		Order("position ASC").
		Find(&entries).Error)
	require.Len(t, entries, 10)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Position)
	}
}

// One remaining credit, ten concurrent booking attempts on different classes:
// exactly one confirmation, the rest rejected for credit.
func TestConcurrentBooking_SingleCredit(t *testing.T) {
	cleanTables()
	svc := newBookingService()

	one := 1
	seedCredit(t, "user-single", &one)

	attempts := 10
	instances := make([]*models.ClassInstance, attempts)
	for i := range instances {
		instances[i] = createInstance(t, 10)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(idx int) {
			defer wg.Done()
			result, err := svc.RequestBooking(t.Context(), "user-single", instances[idx].ID)
			if err == nil && result.Outcome == service.OutcomeConfirmed {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successCount, "one credit pays for exactly one booking")

	var balance models.CreditBalance
	require.NoError(t, testDB.First(&balance, "user_id = ?", "user-single").Error)
	require.NotNil(t, balance.ClassesRemaining)
	assert.Equal(t, 0, *balance.ClassesRemaining)
}

// Re-requesting an already confirmed booking returns the same booking and
// moves nothing.
func TestRebooking_Idempotent(t *testing.T) {
	cleanTables()
	instance := createInstance(t, 10)
	svc := newBookingService()

	five := 5
	seedCredit(t, "user-1", &five)

	first, err := svc.RequestBooking(t.Context(), "user-1", instance.ID)
	require.NoError(t, err)
	require.Equal(t, service.OutcomeConfirmed, first.Outcome)

	second, err := svc.RequestBooking(t.Context(), "user-1", instance.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)

	var got models.ClassInstance
	require.NoError(t, testDB.First(&got, instance.ID).Error)
	assert.Equal(t, 1, got.BookedCount)

	var balance models.CreditBalance
	require.NoError(t, testDB.First(&balance, "user_id = ?", "user-1").Error)
	assert.Equal(t, 4, *balance.ClassesRemaining)
}

// Cancelling on a full class promotes the waitlist head, in FIFO order, one
// per freed seat.
func TestCancel_PromotionChain(t *testing.T) {
	cleanTables()
	instance := createInstance(t, 1)
	svc := newBookingService()

	for _, user := range []string{"user-a", "user-b", "user-c", "user-d"} {
		seedUnlimited(t, user)
	}

	resultA, err := svc.RequestBooking(t.Context(), "user-a", instance.ID)
	require.NoError(t, err)
	require.Equal(t, service.OutcomeConfirmed, resultA.Outcome)

	for i, user := range []string{"user-b", "user-c", "user-d"} {
		r, err := svc.RequestBooking(t.Context(), user, instance.ID)
		require.NoError(t, err)
		require.Equal(t, service.OutcomeWaitlisted, r.Outcome)
		assert.Equal(t, i+1, r.WaitlistEntry.Position)
	}

	// Cancel A: B takes the seat, C and D move up
	cancel, err := svc.CancelBooking(t.Context(), resultA.Booking.ID)
	require.NoError(t, err)
	assert.True(t, cancel.Released)

	var bBooking models.Booking
	require.NoError(t, testDB.
		Where("user_id = ? AND instance_id = ? AND status = ?", "user-b", instance.ID, models.BookingConfirmed).
		First(&bBooking).Error)

	var waiting []models.WaitlistEntry
	require.NoError(t, testDB.
		Where("instance_id = ? AND status = ?", instance.ID, models.WaitlistWaiting).
		Order("position ASC").
		Find(&waiting).Error)
	require.Len(t, waiting, 2)
	assert.Equal(t, "user-c", waiting[0].UserID)
	assert.Equal(t, 1, waiting[0].Position)
	assert.Equal(t, "user-d", waiting[1].UserID)
	assert.Equal(t, 2, waiting[1].Position)

	// Cancel B: C is next
	cancel, err = svc.CancelBooking(t.Context(), bBooking.ID)
	require.NoError(t, err)
	assert.True(t, cancel.Released)

	var cBooking models.Booking
	require.NoError(t, testDB.
		Where("user_id = ? AND instance_id = ? AND status = ?", "user-c", instance.ID, models.BookingConfirmed).
		First(&cBooking).Error)

	var got models.ClassInstance
	require.NoError(t, testDB.First(&got, instance.ID).Error)
	assert.Equal(t, 1, got.BookedCount, "the seat is always exactly reoccupied")
}

// A head whose credit ran out after joining is skipped without losing its
// place; the seat stays free for a later attempt.
func TestCancel_PromotionSkipsExhaustedHead(t *testing.T) {
	cleanTables()
	instance := createInstance(t, 1)
	svc := newBookingService()

	seedUnlimited(t, "user-a")
	one := 1
	seedCredit(t, "user-b", &one)

	resultA, err := svc.RequestBooking(t.Context(), "user-a", instance.ID)
	require.NoError(t, err)

	resultB, err := svc.RequestBooking(t.Context(), "user-b", instance.ID)
	require.NoError(t, err)
	require.Equal(t, service.OutcomeWaitlisted, resultB.Outcome)

	// B's credit disappears while waiting (e.g. spent elsewhere)
	require.NoError(t, testDB.Model(&models.CreditBalance{}).
		Where("user_id = ?", "user-b").
		Update("classes_remaining", 0).Error)

	cancel, err := svc.CancelBooking(t.Context(), resultA.Booking.ID)
	require.NoError(t, err)
	assert.True(t, cancel.Released)

	// B stays waiting at position 1, no booking was created
	var entry models.WaitlistEntry
	require.NoError(t, testDB.First(&entry, resultB.WaitlistEntry.ID).Error)
	assert.Equal(t, models.WaitlistWaiting, entry.Status)
	assert.Equal(t, 1, entry.Position)

	var count int64
	testDB.Model(&models.Booking{}).
		Where("user_id = ? AND status = ?", "user-b", models.BookingConfirmed).
		Count(&count)
	assert.Equal(t, int64(0), count)

	var got models.ClassInstance
	require.NoError(t, testDB.First(&got, instance.ID).Error)
	assert.Equal(t, 0, got.BookedCount, "the freed seat stays free")
}

// Book then cancel leaves the balance where it started.
func TestCancel_CreditConservation(t *testing.T) {
	cleanTables()
	instance := createInstance(t, 10)
	svc := newBookingService()

	three := 3
	seedCredit(t, "user-1", &three)

	result, err := svc.RequestBooking(t.Context(), "user-1", instance.ID)
	require.NoError(t, err)
	require.True(t, result.Booking.CreditDebited)

	var balance models.CreditBalance
	require.NoError(t, testDB.First(&balance, "user_id = ?", "user-1").Error)
	assert.Equal(t, 2, *balance.ClassesRemaining)

	_, err = svc.CancelBooking(t.Context(), result.Booking.ID)
	require.NoError(t, err)

	require.NoError(t, testDB.First(&balance, "user_id = ?", "user-1").Error)
	assert.Equal(t, 3, *balance.ClassesRemaining)

	// Cancelling again refunds nothing
	_, err = svc.CancelBooking(t.Context(), result.Booking.ID)
	require.NoError(t, err)
	require.NoError(t, testDB.First(&balance, "user_id = ?", "user-1").Error)
	assert.Equal(t, 3, *balance.ClassesRemaining)
}

// Concurrent cancellations on a full class promote each waiting user at most
// once and never push booked_count past capacity.
func TestConcurrentCancel_PromotionConsistency(t *testing.T) {
	cleanTables()
	instance := createInstance(t, 10)
	svc := newBookingService()

	var confirmedIDs []uint
	for i := 0; i < 10; i++ {
		user := fmt.Sprintf("holder-%02d", i)
		seedUnlimited(t, user)
		r, err := svc.RequestBooking(t.Context(), user, instance.ID)
		require.NoError(t, err)
		require.Equal(t, service.OutcomeConfirmed, r.Outcome)
		confirmedIDs = append(confirmedIDs, r.Booking.ID)
	}
	for i := 0; i < 5; i++ {
		user := fmt.Sprintf("waiter-%02d", i)
		seedUnlimited(t, user)
		r, err := svc.RequestBooking(t.Context(), user, instance.ID)
		require.NoError(t, err)
		require.Equal(t, service.OutcomeWaitlisted, r.Outcome)
	}

	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		go func(idx int) {
			defer wg.Done()
			_, err := svc.CancelBooking(t.Context(), confirmedIDs[idx])
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var got models.ClassInstance
	require.NoError(t, testDB.First(&got, instance.ID).Error)
	assert.Equal(t, 10, got.BookedCount, "five cancelled, five promoted")

	var confirmed, waiting int64
	testDB.Model(&models.Booking{}).
		Where("instance_id = ? AND status = ?", instance.ID, models.BookingConfirmed).
		Count(&confirmed)
	testDB.Model(&models.WaitlistEntry{}).
		Where("instance_id = ? AND status = ?", instance.ID, models.WaitlistWaiting).
		Count(&waiting)
	assert.Equal(t, int64(10), confirmed)
	assert.Equal(t, int64(0), waiting)
}

func TestBooking_InstanceNotFound(t *testing.T) {
	cleanTables()
	svc := newBookingService()
	seedUnlimited(t, "user-1")

	_, err := svc.RequestBooking(t.Context(), "user-1", 99999)
	assert.ErrorIs(t, err, service.ErrInstanceNotFound)
}
