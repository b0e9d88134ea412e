package service

import (
	"context"
	"errors"
	"time"

	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"github.com/thartark/yogastudoapp-sub000/internal/repository"
	"github.com/thartark/yogastudoapp-sub000/pkg/rabbitmq"
	"gorm.io/gorm"
)

var (
	ErrInstanceNotFound      = errors.New("class instance not found")
	ErrInstanceNotBookable   = errors.New("class instance is not open for booking")
	ErrInstanceInPast        = errors.New("class instance has already started")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrBookingNotCancellable = errors.New("booking is in a terminal state")
	ErrInsufficientCredit    = errors.New("membership has no usable class credit")
	ErrEntryNotFound         = errors.New("waitlist entry not found")
	ErrEntryAlreadyPromoted  = errors.New("waitlist entry was already promoted")
	ErrServiceUnavailable    = errors.New("temporarily unable to process request")
)

type BookingOutcome string

const (
	OutcomeConfirmed  BookingOutcome = "confirmed"
	OutcomeWaitlisted BookingOutcome = "waitlisted"
)

type BookingResult struct {
	Outcome       BookingOutcome
	Booking       *models.Booking
	WaitlistEntry *models.WaitlistEntry
}

type CancelResult struct {
	Released bool
}

type Availability struct {
	InstanceID     uint
	Capacity       int
	BookedCount    int
	WaitlistLength int64
}

type BookingService interface {
	RequestBooking(ctx context.Context, userID string, instanceID uint) (*BookingResult, error)
	CancelBooking(ctx context.Context, bookingID uint) (*CancelResult, error)
	LeaveWaitlist(ctx context.Context, entryID uint) error
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	ListBookings(ctx context.Context, instanceID uint, status *models.BookingStatus) ([]models.Booking, error)
	GetAvailability(ctx context.Context, instanceID uint) (*Availability, error)
}

type bookingService struct {
	bookingRepo  repository.BookingRepository
	instanceRepo repository.InstanceRepository
	waitlistRepo repository.WaitlistRepository
	creditRepo   repository.CreditRepository
	publisher    *rabbitmq.Publisher
	now          func() time.Time
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	instanceRepo repository.InstanceRepository,
	waitlistRepo repository.WaitlistRepository,
	creditRepo repository.CreditRepository,
	publisher *rabbitmq.Publisher,
) BookingService {
	return &bookingService{
		bookingRepo:  bookingRepo,
		instanceRepo: instanceRepo,
		waitlistRepo: waitlistRepo,
		creditRepo:   creditRepo,
		publisher:    publisher,
		now:          time.Now,
	}
}

// RequestBooking is the single atomic booking decision. The instance row lock
// is taken first and held for the whole transaction, so the seat check, the
// credit debit and the booking insert change together or not at all.
func (s *bookingService) RequestBooking(ctx context.Context, userID string, instanceID uint) (*BookingResult, error) {
	var result *BookingResult
	var events []pendingEvent

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		events = events[:0]

		// 1. Lock the instance row — serializes concurrent booking attempts
		instance, err := s.instanceRepo.FindByIDForUpdate(ctx, tx, instanceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInstanceNotFound
			}
			return err
		}
		if instance.Status != models.InstanceScheduled {
			return ErrInstanceNotBookable
		}
		if !instance.StartTime.After(s.now()) {
			return ErrInstanceInPast
		}

		// 2. Idempotent re-request: hand back the existing confirmation
		existing, err := s.bookingRepo.FindConfirmedByUserAndInstance(ctx, tx, userID, instanceID)
		if err == nil {
			result = &BookingResult{Outcome: OutcomeConfirmed, Booking: existing}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 3. Lock the user's balance and check it before touching the seat count
		balance, err := s.creditRepo.FindByUserForUpdate(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInsufficientCredit
			}
			return err
		}
		if !balance.Usable(s.now()) {
			return ErrInsufficientCredit
		}

		// 4. Claim a seat
		reserved, err := s.instanceRepo.TryReserve(ctx, tx, instanceID)
		if err != nil {
			return err
		}

		if !reserved {
			// Full: join the waitlist at the tail. No credit moves while waiting.
			if entry, err := s.waitlistRepo.FindWaitingByUserAndInstance(ctx, tx, userID, instanceID); err == nil {
				result = &BookingResult{Outcome: OutcomeWaitlisted, WaitlistEntry: entry}
				return nil
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			maxPos, err := s.waitlistRepo.MaxPosition(ctx, tx, instanceID)
			if err != nil {
				return err
			}
			entry := &models.WaitlistEntry{
				UserID:     userID,
				InstanceID: instanceID,
				Position:   maxPos + 1,
				Status:     models.WaitlistWaiting,
			}
			if err := s.waitlistRepo.Create(ctx, tx, entry); err != nil {
				return err
			}
			result = &BookingResult{Outcome: OutcomeWaitlisted, WaitlistEntry: entry}
			events = append(events, pendingEvent{"booking.waitlisted", WaitlistEvent{
				EntryID: entry.ID, UserID: userID, InstanceID: instanceID, Position: entry.Position,
			}})
			return nil
		}

		// 5. Seat claimed: debit one credit for finite plans
		debited := false
		if !balance.Unlimited() {
			ok, err := s.creditRepo.Debit(ctx, tx, userID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInsufficientCredit
			}
			debited = true
		}

		booking := &models.Booking{
			UserID:        userID,
			InstanceID:    instanceID,
			Status:        models.BookingConfirmed,
			CreditDebited: debited,
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return err
		}

		// A fresh confirmation supersedes any waiting entry the user still held
		// (possible after a promotion skipped them for lack of credit).
		if entry, err := s.waitlistRepo.FindWaitingByUserAndInstance(ctx, tx, userID, instanceID); err == nil {
			if err := s.waitlistRepo.UpdateStatus(ctx, tx, entry.ID, models.WaitlistLeft); err != nil {
				return err
			}
			if err := s.waitlistRepo.CompactAfter(ctx, tx, instanceID, entry.Position); err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		result = &BookingResult{Outcome: OutcomeConfirmed, Booking: booking}
		events = append(events, pendingEvent{"booking.confirmed", BookingEvent{
			BookingID: booking.ID, UserID: userID, InstanceID: instanceID, Status: booking.Status,
		}})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAll(events)
	return result, nil
}

// CancelBooking marks the booking cancelled, refunds the credit if one was
// debited, releases the seat and, when the release frees a previously full
// instance, promotes the head of the waitlist inside the same transaction.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID uint) (*CancelResult, error) {
	var result *CancelResult
	var events []pendingEvent

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		events = events[:0]

		booking, err := s.bookingRepo.FindByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if booking.Status == models.BookingCancelled {
			result = &CancelResult{Released: false}
			return nil
		}
		if booking.Status != models.BookingConfirmed {
			return ErrBookingNotCancellable
		}

		if _, err := s.instanceRepo.FindByIDForUpdate(ctx, tx, booking.InstanceID); err != nil {
			return err
		}

		// Re-read this booking under the lock. A concurrent cancel may have won
		// the race, and the user may even hold a fresh confirmed booking on the
		// same instance by now, so the decision must be made on this row's
		// committed state, never on the snapshot from before the lock.
		booking, err = s.bookingRepo.FindByIDForUpdate(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if booking.Status == models.BookingCancelled {
			result = &CancelResult{Released: false}
			return nil
		}
		if booking.Status != models.BookingConfirmed {
			return ErrBookingNotCancellable
		}

		if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, models.BookingCancelled); err != nil {
			return err
		}
		if booking.CreditDebited {
			if err := s.creditRepo.Refund(ctx, tx, booking.UserID); err != nil {
				return err
			}
		}

		freed, err := s.instanceRepo.Release(ctx, tx, booking.InstanceID)
		if err != nil {
			return err
		}
		result = &CancelResult{Released: freed}
		events = append(events, pendingEvent{"booking.cancelled", BookingEvent{
			BookingID: booking.ID, UserID: booking.UserID, InstanceID: booking.InstanceID, Status: models.BookingCancelled,
		}})

		if freed {
			return s.promoteNext(ctx, tx, booking.InstanceID, &events)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAll(events)
	return result, nil
}

// promoteNext converts the head waitlist entry into a confirmed booking.
// It runs while the instance row lock is held, so a concurrent direct booking
// cannot steal the freed seat before the promotion commits. A head whose
// credit ran out stays waiting at position 1 and is retried on the next
// release.
func (s *bookingService) promoteNext(ctx context.Context, tx *gorm.DB, instanceID uint, events *[]pendingEvent) error {
	head, err := s.waitlistRepo.FindHead(ctx, tx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	balance, err := s.creditRepo.FindByUserForUpdate(ctx, tx, head.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !balance.Usable(s.now()) {
		return nil
	}

	reserved, err := s.instanceRepo.TryReserve(ctx, tx, instanceID)
	if err != nil || !reserved {
		return err
	}

	debited := false
	if !balance.Unlimited() {
		ok, err := s.creditRepo.Debit(ctx, tx, head.UserID)
		if err != nil {
			return err
		}
		if !ok {
			// Balance flipped despite the row lock; give the seat back.
			_, err := s.instanceRepo.Release(ctx, tx, instanceID)
			return err
		}
		debited = true
	}

	booking := &models.Booking{
		UserID:        head.UserID,
		InstanceID:    instanceID,
		Status:        models.BookingConfirmed,
		CreditDebited: debited,
	}
	if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
		return err
	}
	if err := s.waitlistRepo.UpdateStatus(ctx, tx, head.ID, models.WaitlistPromoted); err != nil {
		return err
	}
	if err := s.waitlistRepo.CompactAfter(ctx, tx, instanceID, head.Position); err != nil {
		return err
	}

	*events = append(*events, pendingEvent{"waitlist.promoted", WaitlistEvent{
		EntryID: head.ID, UserID: head.UserID, InstanceID: instanceID, Position: head.Position,
	}})
	*events = append(*events, pendingEvent{"booking.confirmed", BookingEvent{
		BookingID: booking.ID, UserID: head.UserID, InstanceID: instanceID, Status: booking.Status,
	}})
	return nil
}

// LeaveWaitlist withdraws a waiting entry and compacts the positions behind
// it. Leaving an entry that already left is a no-op.
func (s *bookingService) LeaveWaitlist(ctx context.Context, entryID uint) error {
	var events []pendingEvent

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		events = events[:0]

		entry, err := s.waitlistRepo.FindByID(ctx, entryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}
		switch entry.Status {
		case models.WaitlistLeft:
			return nil
		case models.WaitlistPromoted:
			return ErrEntryAlreadyPromoted
		}

		// Compaction serializes with seat operations on the same instance.
		if _, err := s.instanceRepo.FindByIDForUpdate(ctx, tx, entry.InstanceID); err != nil {
			return err
		}
		current, err := s.waitlistRepo.FindWaitingByUserAndInstance(ctx, tx, entry.UserID, entry.InstanceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := s.waitlistRepo.UpdateStatus(ctx, tx, current.ID, models.WaitlistLeft); err != nil {
			return err
		}
		if err := s.waitlistRepo.CompactAfter(ctx, tx, entry.InstanceID, current.Position); err != nil {
			return err
		}
		events = append(events, pendingEvent{"waitlist.left", WaitlistEvent{
			EntryID: current.ID, UserID: current.UserID, InstanceID: current.InstanceID, Position: current.Position,
		}})
		return nil
	})
	if err != nil {
		return err
	}

	s.publishAll(events)
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	return s.bookingRepo.FindByID(ctx, id)
}

func (s *bookingService) ListBookings(ctx context.Context, instanceID uint, status *models.BookingStatus) ([]models.Booking, error) {
	return s.bookingRepo.FindByInstanceID(ctx, instanceID, status)
}

func (s *bookingService) GetAvailability(ctx context.Context, instanceID uint) (*Availability, error) {
	instance, err := s.instanceRepo.FindByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}
	waiting, err := s.waitlistRepo.CountWaiting(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return &Availability{
		InstanceID:     instance.ID,
		Capacity:       instance.Capacity,
		BookedCount:    instance.BookedCount,
		WaitlistLength: waiting,
	}, nil
}
