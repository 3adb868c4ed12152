package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "clubmanager/internal/bookings/errors"
	"clubmanager/internal/bookings/validator"
	classeserrors "clubmanager/internal/classes/errors"
	"clubmanager/pkg/config"
	mongotx "clubmanager/pkg/db/mongo"
	apperrors "clubmanager/pkg/errors"
	"clubmanager/pkg/logger"
	"clubmanager/pkg/model"
)

type mockBookingRepository struct {
	createFn   func(ctx context.Context, booking *model.Booking) error
	findByIDFn func(ctx context.Context, id string) (*model.Booking, error)
	searchFn   func(ctx context.Context, query model.BookingSearch) ([]*model.Booking, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return m.createFn(ctx, booking)
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockBookingRepository) Search(ctx context.Context, query model.BookingSearch) ([]*model.Booking, error) {
	return m.searchFn(ctx, query)
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockSessionRepository struct {
	findByClassAndDateFn func(ctx context.Context, classID string, date time.Time) (*model.ClassSession, error)
	incrementBookedFn    func(ctx context.Context, sessionID string, capacityLimit int) error
}

func (m *mockSessionRepository) FindByClassAndDate(ctx context.Context, classID string, date time.Time) (*model.ClassSession, error) {
	return m.findByClassAndDateFn(ctx, classID, date)
}

func (m *mockSessionRepository) IncrementBookedCount(ctx context.Context, sessionID string, capacityLimit int) error {
	return m.incrementBookedFn(ctx, sessionID, capacityLimit)
}

type mockClassService struct {
	resolveFn func(ctx context.Context, name string, date time.Time) (*model.ClubClass, *model.ClassSession, error)
}

func (m *mockClassService) Create(ctx context.Context, req *model.CreateClassRequest) (*model.ClubClass, error) {
	panic("not used in booking tests")
}

func (m *mockClassService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.ClubClass, int64, error) {
	panic("not used in booking tests")
}

func (m *mockClassService) ResolveForBooking(ctx context.Context, name string, date time.Time) (*model.ClubClass, *model.ClassSession, error) {
	return m.resolveFn(ctx, name, date)
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Output: io.Discard}),
	}
}

func newTestService(repo *mockBookingRepository, sessions *mockSessionRepository, classes *mockClassService) BookingService {
	cfg := testConfig()
	return NewBookingService(repo, sessions, classes, validator.NewBookingValidator(cfg.Log), nil, cfg)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func pilatesClass(t *testing.T) *model.ClubClass {
	return &model.ClubClass{
		ID:          "674d1f00000000000000020a",
		Name:        "Pilates",
		StartDate:   mustDate(t, "2025-02-01"),
		EndDate:     mustDate(t, "2025-02-20"),
		StartTime:   "14:00",
		DurationMin: 60,
		Capacity:    10,
	}
}

func sessionFor(class *model.ClubClass, date time.Time, booked int) *model.ClassSession {
	return &model.ClassSession{
		ID:          "674d1f00000000000000030b",
		ClassID:     class.ID,
		Date:        date,
		StartTime:   class.StartTime,
		Capacity:    class.Capacity,
		BookedCount: booked,
	}
}

func TestBookSuccess(t *testing.T) {
	class := pilatesClass(t)
	date := mustDate(t, "2025-02-10")
	session := sessionFor(class, date, 0)

	incremented := false
	sessions := &mockSessionRepository{
		incrementBookedFn: func(ctx context.Context, sessionID string, capacityLimit int) error {
			if sessionID != session.ID {
				t.Errorf("incremented session %q, want %q", sessionID, session.ID)
			}
			if capacityLimit != class.Capacity {
				t.Errorf("capacity limit %d, want the class capacity %d", capacityLimit, class.Capacity)
			}
			incremented = true
			return nil
		},
	}
	repo := &mockBookingRepository{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			booking.ID = "674d1f00000000000000040c"
			return nil
		},
	}
	classes := &mockClassService{
		resolveFn: func(ctx context.Context, name string, date time.Time) (*model.ClubClass, *model.ClassSession, error) {
			return class, session, nil
		},
	}
	svc := newTestService(repo, sessions, classes)

	booking, err := svc.Book(context.Background(), &model.CreateBookingRequest{
		ClassName:         "Pilates",
		MemberName:        "John Doe",
		ParticipationDate: "2025-02-10",
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !incremented {
		t.Error("occupancy was not incremented")
	}
	if booking.SessionID != session.ID {
		t.Errorf("booking session = %q, want %q", booking.SessionID, session.ID)
	}
	if booking.ClassName != "Pilates" {
		t.Errorf("booking class = %q, want Pilates", booking.ClassName)
	}
	if !booking.ParticipationDate.Equal(date) {
		t.Errorf("participation date = %v, want %v", booking.ParticipationDate, date)
	}
}

func TestBookSessionAtCapacity(t *testing.T) {
	class := pilatesClass(t)
	date := mustDate(t, "2025-02-10")
	session := sessionFor(class, date, class.Capacity)

	classes := &mockClassService{
		resolveFn: func(ctx context.Context, name string, date time.Time) (*model.ClubClass, *model.ClassSession, error) {
			return class, session, nil
		},
	}
	svc := newTestService(&mockBookingRepository{}, &mockSessionRepository{}, classes)

	_, err := svc.Book(context.Background(), &model.CreateBookingRequest{
		ClassName:         "Pilates",
		MemberName:        "John Doe",
		ParticipationDate: "2025-02-10",
	})
	if !apperrors.IsAppError(err) {
		t.Fatalf("expected AppError, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeCapacityExceeded {
		t.Errorf("code = %q, want %q", appErr.Code, apperrors.CodeCapacityExceeded)
	}
	if appErr.Message != MsgClassFull {
		t.Errorf("message = %q, want %q", appErr.Message, MsgClassFull)
	}
	if appErr.HTTPStatus != http.StatusConflict {
		t.Errorf("status = %d, want %d", appErr.HTTPStatus, http.StatusConflict)
	}
}

func TestBookLosesCapacityRace(t *testing.T) {
	class := pilatesClass(t)
	date := mustDate(t, "2025-02-10")
	// The stale read says one seat is left, but the conditional
	// increment finds the session full.
	session := sessionFor(class, date, class.Capacity-1)

	sessions := &mockSessionRepository{
		incrementBookedFn: func(ctx context.Context, sessionID string, capacityLimit int) error {
			return classeserrors.ErrSessionFull
		},
	}
	classes := &mockClassService{
		resolveFn: func(ctx context.Context, name string, date time.Time) (*model.ClubClass, *model.ClassSession, error) {
			return class, session, nil
		},
	}
	created := false
	repo := &mockBookingRepository{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			created = true
			return nil
		},
	}
	svc := newTestService(repo, sessions, classes)

	_, err := svc.Book(context.Background(), &model.CreateBookingRequest{
		ClassName:         "Pilates",
		MemberName:        "John Doe",
		ParticipationDate: "2025-02-10",
	})
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeCapacityExceeded {
		t.Errorf("code = %q, want %q", appErr.Code, apperrors.CodeCapacityExceeded)
	}
	if created {
		t.Error("booking must not be written when the seat was lost")
	}
}

func TestBookConcurrentNeverOverbooks(t *testing.T) {
	const capacity = 10
	const extra = 5

	class := pilatesClass(t)
	class.Capacity = capacity
	date := mustDate(t, "2025-02-10")

	var mu sync.Mutex
	occupancy := 0
	var stored []*model.Booking

	sessions := &mockSessionRepository{
		incrementBookedFn: func(ctx context.Context, sessionID string, capacityLimit int) error {
			mu.Lock()
			defer mu.Unlock()
			if occupancy >= capacityLimit {
				return classeserrors.ErrSessionFull
			}
			occupancy++
			return nil
		},
	}
	repo := &mockBookingRepository{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			mu.Lock()
			defer mu.Unlock()
			stored = append(stored, booking)
			return nil
		},
	}
	classes := &mockClassService{
		resolveFn: func(ctx context.Context, name string, _ time.Time) (*model.ClubClass, *model.ClassSession, error) {
			// Every caller sees the same stale zero-occupancy snapshot,
			// forcing the race onto the conditional increment.
			return class, sessionFor(class, date, 0), nil
		},
	}
	svc := newTestService(repo, sessions, classes)

	var wg sync.WaitGroup
	successes := make(chan error, capacity+extra)
	for i := 0; i < capacity+extra; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(context.Background(), &model.CreateBookingRequest{
				ClassName:         "Pilates",
				MemberName:        "John Doe",
				ParticipationDate: "2025-02-10",
			})
			successes <- err
		}()
	}
	wg.Wait()
	close(successes)

	succeeded, full := 0, 0
	for err := range successes {
		switch {
		case err == nil:
			succeeded++
		case apperrors.AsAppError(err).Code == apperrors.CodeCapacityExceeded:
			full++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if succeeded != capacity {
		t.Errorf("%d bookings succeeded, want exactly %d", succeeded, capacity)
	}
	if full != extra {
		t.Errorf("%d bookings rejected as full, want %d", full, extra)
	}
	if occupancy != capacity {
		t.Errorf("final occupancy %d, want %d", occupancy, capacity)
	}
	if len(stored) != capacity {
		t.Errorf("%d bookings stored, want %d", len(stored), capacity)
	}
}

func TestBookNormalizesMemberName(t *testing.T) {
	class := pilatesClass(t)
	date := mustDate(t, "2025-02-10")

	var stored *model.Booking
	repo := &mockBookingRepository{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			stored = booking
			return nil
		},
	}
	sessions := &mockSessionRepository{
		incrementBookedFn: func(ctx context.Context, sessionID string, capacityLimit int) error {
			return nil
		},
	}
	classes := &mockClassService{
		resolveFn: func(ctx context.Context, name string, _ time.Time) (*model.ClubClass, *model.ClassSession, error) {
			return class, sessionFor(class, date, 0), nil
		},
	}
	svc := newTestService(repo, sessions, classes)

	_, err := svc.Book(context.Background(), &model.CreateBookingRequest{
		ClassName:         "Pilates",
		MemberName:        "  John   Doe ",
		ParticipationDate: "2025-02-10",
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if stored.MemberName != "John Doe" {
		t.Errorf("member name = %q, want %q", stored.MemberName, "John Doe")
	}
	if !stored.ParticipationDate.Equal(date) {
		t.Errorf("participation date = %v, want %v", stored.ParticipationDate, date)
	}
}

func TestBookValidationFailure(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockSessionRepository{}, &mockClassService{})

	_, err := svc.Book(context.Background(), &model.CreateBookingRequest{
		ClassName:         "Pilates",
		MemberName:        "John Doe",
		ParticipationDate: "10/02/2025",
	})
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("code = %q, want %q", appErr.Code, apperrors.CodeValidation)
	}
}

func TestSearchNormalizesMemberFilter(t *testing.T) {
	var captured model.BookingSearch
	repo := &mockBookingRepository{
		searchFn: func(ctx context.Context, query model.BookingSearch) ([]*model.Booking, error) {
			captured = query
			return []*model.Booking{}, nil
		},
	}
	svc := newTestService(repo, &mockSessionRepository{}, &mockClassService{})

	results, err := svc.Search(context.Background(), model.BookingSearch{MemberName: "  john   doe "})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if captured.MemberName != "john doe" {
		t.Errorf("member filter = %q, want %q", captured.MemberName, "john doe")
	}
	if results == nil {
		t.Error("empty result must be an empty slice, not nil")
	}
}

// TestPilatesScenario walks the whole booking flow against an
// in-memory store: a February Pilates class, one booking inside the
// window, a member search, and a booking attempt outside the window.
func TestPilatesScenario(t *testing.T) {
	class := pilatesClass(t)

	sessionStore := make(map[string]*model.ClassSession)
	for _, d := range class.SessionDates() {
		s := sessionFor(class, d, 0)
		s.ID = model.FormatDate(d)
		sessionStore[s.ID] = s
	}
	if len(sessionStore) != 20 {
		t.Fatalf("expected 20 sessions for Feb 1-20, got %d", len(sessionStore))
	}

	var mu sync.Mutex
	var stored []*model.Booking

	classes := &mockClassService{
		resolveFn: func(ctx context.Context, name string, date time.Time) (*model.ClubClass, *model.ClassSession, error) {
			if !strings.EqualFold(name, class.Name) {
				return nil, nil, apperrors.NotFound("Class not found with the given name")
			}
			if !class.WindowCovers(date) {
				return nil, nil, apperrors.NotFound("Class not found for the given participation date")
			}
			return class, sessionStore[model.FormatDate(date)], nil
		},
	}
	sessions := &mockSessionRepository{
		incrementBookedFn: func(ctx context.Context, sessionID string, capacityLimit int) error {
			mu.Lock()
			defer mu.Unlock()
			s := sessionStore[sessionID]
			if s.BookedCount >= capacityLimit {
				return classeserrors.ErrSessionFull
			}
			s.BookedCount++
			return nil
		},
	}
	repo := &mockBookingRepository{
		createFn: func(ctx context.Context, booking *model.Booking) error {
			mu.Lock()
			defer mu.Unlock()
			stored = append(stored, booking)
			return nil
		},
		searchFn: func(ctx context.Context, query model.BookingSearch) ([]*model.Booking, error) {
			mu.Lock()
			defer mu.Unlock()
			var out []*model.Booking
			for _, b := range stored {
				if query.HasMember() && !strings.EqualFold(b.MemberName, query.MemberName) {
					continue
				}
				out = append(out, b)
			}
			return out, nil
		},
	}
	svc := newTestService(repo, sessions, classes)

	booking, err := svc.Book(context.Background(), &model.CreateBookingRequest{
		ClassName:         "Pilates",
		MemberName:        "John Doe",
		ParticipationDate: "2025-02-10",
	})
	if err != nil {
		t.Fatalf("booking inside the window failed: %v", err)
	}
	if got := sessionStore["2025-02-10"].BookedCount; got != 1 {
		t.Errorf("occupancy after booking = %d, want 1", got)
	}

	results, err := svc.Search(context.Background(), model.BookingSearch{MemberName: "JOHN DOE"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("search returned %d bookings, want 1", len(results))
	}
	if results[0].ClassName != "Pilates" {
		t.Errorf("class name = %q, want Pilates", results[0].ClassName)
	}
	if !results[0].ParticipationDate.Equal(booking.ParticipationDate) {
		t.Errorf("participation date = %v, want %v", results[0].ParticipationDate, booking.ParticipationDate)
	}

	_, err = svc.Book(context.Background(), &model.CreateBookingRequest{
		ClassName:         "Pilates",
		MemberName:        "John Doe",
		ParticipationDate: "2025-03-01",
	})
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("outside-window booking code = %q, want %q", appErr.Code, apperrors.CodeNotFound)
	}
}

func TestGetByIDTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{"invalid id", bookingerrors.ErrInvalidID, apperrors.CodeInvalidInput},
		{"not found", bookingerrors.ErrNotFound, apperrors.CodeNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockBookingRepository{
				findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
					return nil, tc.repoErr
				},
			}
			svc := newTestService(repo, &mockSessionRepository{}, &mockClassService{})

			_, err := svc.GetByID(context.Background(), "abc")
			appErr := apperrors.AsAppError(err)
			if appErr.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", appErr.Code, tc.wantCode)
			}
		})
	}
}
