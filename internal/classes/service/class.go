package service

import (
	"context"
	"errors"
	"sync"
	"time"

	classeserrors "clubmanager/internal/classes/errors"
	"clubmanager/internal/classes/repository"
	"clubmanager/internal/classes/validator"
	"clubmanager/internal/notifications"
	"clubmanager/pkg/config"
	apperrors "clubmanager/pkg/errors"
	"clubmanager/pkg/model"
	"clubmanager/pkg/sanitizer"
)

// Fixed caller-facing messages for the class domain.
const (
	MsgInvalidDateRange  = "Start date must be before end date."
	MsgClassConflict     = "Class already exists for the given period"
	MsgClassNotFound     = "Class not found with the given name"
	MsgClassNotFoundDate = "Class not found for the given participation date"
	MsgSessionNotFound   = "Class session not found for this date"
)

type ClassService interface {
	// Create validates the request, expands one session per calendar day
	// of the validity window and persists class plus sessions atomically.
	Create(ctx context.Context, req *model.CreateClassRequest) (*model.ClubClass, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.ClubClass, int64, error)
	// ResolveForBooking finds the class covering date and its session for
	// that day. Class names are not unique, so resolution is two-step:
	// any match by name first, then window containment.
	ResolveForBooking(ctx context.Context, name string, date time.Time) (*model.ClubClass, *model.ClassSession, error)
}

type classService struct {
	repo      repository.ClassRepository
	sessions  repository.SessionRepository
	validator *validator.ClassValidator
	events    notifications.Publisher
	cfg       *config.Config
}

func NewClassService(
	repo repository.ClassRepository,
	sessions repository.SessionRepository,
	validator *validator.ClassValidator,
	events notifications.Publisher,
	cfg *config.Config,
) ClassService {
	return &classService{
		repo:      repo,
		sessions:  sessions,
		validator: validator,
		events:    events,
		cfg:       cfg,
	}
}

func (s *classService) Create(ctx context.Context, req *model.CreateClassRequest) (*model.ClubClass, error) {
	req.Name = sanitizer.NormalizeName(req.Name)

	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Class validation failed", "error", err)
		return nil, apperrors.Validation("Invalid class input", map[string]any{"error": err.Error()})
	}

	startDate, err := model.ParseDate(req.StartDate)
	if err != nil {
		return nil, apperrors.InvalidInput("start_date must be a date in YYYY-MM-DD format")
	}
	endDate, err := model.ParseDate(req.EndDate)
	if err != nil {
		return nil, apperrors.InvalidInput("end_date must be a date in YYYY-MM-DD format")
	}

	if !startDate.Before(endDate) {
		return nil, apperrors.InvalidInput(MsgInvalidDateRange)
	}

	existing, err := s.repo.FindByNameAndWindowOverlap(ctx, req.Name, startDate, endDate)
	if err != nil {
		s.cfg.Log.Error("Failed to check for overlapping classes", "name", req.Name, "error", err)
		return nil, apperrors.Internal("Failed to check for overlapping classes", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict(MsgClassConflict)
	}

	class := &model.ClubClass{
		Name:        req.Name,
		StartDate:   startDate,
		EndDate:     endDate,
		StartTime:   req.StartTime,
		DurationMin: req.DurationMin,
		Capacity:    req.Capacity,
	}

	dates := class.SessionDates()
	sessions := make([]*model.ClassSession, len(dates))
	for i, date := range dates {
		sessions[i] = &model.ClassSession{
			Date:      date,
			StartTime: class.StartTime,
			Capacity:  class.Capacity,
		}
	}

	if err := s.repo.CreateWithSessions(ctx, class, sessions); err != nil {
		s.cfg.Log.Error("Failed to create class", "name", req.Name, "error", err)
		return nil, apperrors.Internal("Failed to create class", err)
	}

	s.publishCreated(ctx, class, len(sessions))

	s.cfg.Log.Info("Class created successfully",
		"id", class.ID,
		"name", class.Name,
		"start_date", model.FormatDate(class.StartDate),
		"end_date", model.FormatDate(class.EndDate),
		"sessions", len(sessions),
	)
	return class, nil
}

func (s *classService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.ClubClass, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var count int64
	var classes []*model.ClubClass
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count classes", "error", errCount)
			errCount = apperrors.Internal("Failed to count classes", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		classes, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list classes", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve classes", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return classes, count, nil
}

func (s *classService) ResolveForBooking(ctx context.Context, name string, date time.Time) (*model.ClubClass, *model.ClassSession, error) {
	matches, err := s.repo.FindByName(ctx, name)
	if err != nil {
		s.cfg.Log.Error("Failed to find classes by name", "name", name, "error", err)
		return nil, nil, apperrors.Internal("Failed to find classes by name", err)
	}
	if len(matches) == 0 {
		return nil, nil, apperrors.NotFound(MsgClassNotFound)
	}

	class, err := s.repo.FindByNameAndWindowCovering(ctx, name, date)
	if err != nil {
		s.cfg.Log.Error("Failed to find class for date", "name", name, "date", model.FormatDate(date), "error", err)
		return nil, nil, apperrors.Internal("Failed to find class for date", err)
	}
	if class == nil {
		return nil, nil, apperrors.NotFound(MsgClassNotFoundDate)
	}

	session, err := s.sessions.FindByClassAndDate(ctx, class.ID, date)
	if err != nil {
		if errors.Is(err, classeserrors.ErrSessionNotFound) {
			// Sessions are created with the class, so a miss here means
			// damaged data rather than bad input.
			s.cfg.Log.Error("Session missing for class date",
				"class_id", class.ID,
				"date", model.FormatDate(date),
			)
			return nil, nil, apperrors.NotFound(MsgSessionNotFound)
		}
		s.cfg.Log.Error("Failed to find session", "class_id", class.ID, "error", err)
		return nil, nil, apperrors.Internal("Failed to find session", err)
	}

	return class, session, nil
}

func (s *classService) publishCreated(ctx context.Context, class *model.ClubClass, sessions int) {
	if s.events == nil {
		return
	}
	msg := notifications.NewClassCreatedMessage(class, sessions)
	if err := s.events.Publish(ctx, msg); err != nil {
		// Event delivery is best effort; the write already committed.
		s.cfg.Log.Warn("Failed to publish class created event", "class_id", class.ID, "error", err)
	}
}
