package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"clubmanager/internal/bookings/repository"
	"clubmanager/internal/bookings/validator"
	classeserrors "clubmanager/internal/classes/errors"
	classrepo "clubmanager/internal/classes/repository"
	classservice "clubmanager/internal/classes/service"
	"clubmanager/internal/notifications"
	"clubmanager/pkg/config"
	apperrors "clubmanager/pkg/errors"
	"clubmanager/pkg/model"
	"clubmanager/pkg/sanitizer"

	bookingerrors "clubmanager/internal/bookings/errors"
)

// Fixed caller-facing messages for the booking domain.
const (
	MsgClassFull       = "Class is full for this date"
	MsgBookingNotFound = "Booking not found"
)

type BookingService interface {
	// Book places the member into the session for the requested date.
	// The seat is taken with a conditional occupancy increment inside the
	// same transaction as the booking insert, so the class capacity is
	// never exceeded even under concurrent requests.
	Book(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error)
	// Search filters bookings by member name and participation date
	// range; with no active filters it returns all bookings.
	Search(ctx context.Context, query model.BookingSearch) ([]*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	sessions  classrepo.SessionRepository
	classes   classservice.ClassService
	validator *validator.BookingValidator
	events    notifications.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	sessions classrepo.SessionRepository,
	classes classservice.ClassService,
	validator *validator.BookingValidator,
	events notifications.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		sessions:  sessions,
		classes:   classes,
		validator: validator,
		events:    events,
		cfg:       cfg,
	}
}

func (s *bookingService) Book(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	req.ClassName = sanitizer.NormalizeName(req.ClassName)
	req.MemberName = sanitizer.NormalizeName(req.MemberName)

	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
	}

	date, err := model.ParseDate(req.ParticipationDate)
	if err != nil {
		return nil, apperrors.InvalidInput("participation_date must be a date in YYYY-MM-DD format")
	}

	class, session, err := s.classes.ResolveForBooking(ctx, req.ClassName, date)
	if err != nil {
		return nil, err
	}

	// Cheap rejection before opening a transaction. The read is stale
	// under concurrency; the conditional increment below is the
	// authoritative check.
	if session.BookedCount >= class.Capacity {
		return nil, apperrors.CapacityExceeded(MsgClassFull)
	}

	booking := &model.Booking{
		SessionID:         session.ID,
		ClassID:           class.ID,
		ClassName:         class.Name,
		MemberName:        req.MemberName,
		ParticipationDate: session.Date,
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.sessions.IncrementBookedCount(sessCtx, session.ID, class.Capacity); err != nil {
			return err
		}
		return s.repo.Create(sessCtx, booking)
	})
	if err != nil {
		if errors.Is(err, classeserrors.ErrSessionFull) {
			return nil, apperrors.CapacityExceeded(MsgClassFull)
		}
		if errors.Is(err, classeserrors.ErrSessionNotFound) {
			return nil, apperrors.NotFound(classservice.MsgSessionNotFound)
		}
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.cfg.Log.Error("Failed to create booking",
			"class", req.ClassName,
			"member", req.MemberName,
			"date", req.ParticipationDate,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.publishCreated(ctx, booking)

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"class", booking.ClassName,
		"member", booking.MemberName,
		"date", model.FormatDate(booking.ParticipationDate),
	)
	return booking, nil
}

func (s *bookingService) Search(ctx context.Context, query model.BookingSearch) ([]*model.Booking, error) {
	if query.HasMember() {
		query.MemberName = sanitizer.NormalizeName(query.MemberName)
	}

	bookings, err := s.repo.Search(ctx, query)
	if err != nil {
		s.cfg.Log.Error("Failed to search bookings", "error", err)
		return nil, apperrors.Internal("Failed to search bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFound(MsgBookingNotFound)
		}
		s.cfg.Log.Error("Failed to find booking", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to find booking", err)
	}
	return booking, nil
}

func (s *bookingService) publishCreated(ctx context.Context, booking *model.Booking) {
	if s.events == nil {
		return
	}
	msg := notifications.NewBookingCreatedMessage(booking)
	if err := s.events.Publish(ctx, msg); err != nil {
		// Event delivery is best effort; the write already committed.
		s.cfg.Log.Warn("Failed to publish booking created event", "booking_id", booking.ID, "error", err)
	}
}
