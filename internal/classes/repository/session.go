package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	classeserrors "clubmanager/internal/classes/errors"
	"clubmanager/pkg/config"
	"clubmanager/pkg/model"
)

const (
	SessionCollectionName = "Class_sessions"
)

type mongoSessionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type SessionRepository interface {
	// FindByClassAndDate returns the session for (class, date) or
	// ErrSessionNotFound.
	FindByClassAndDate(ctx context.Context, classID string, date time.Time) (*model.ClassSession, error)
	// IncrementBookedCount bumps the session occupancy by one, but only
	// while booked_count < capacityLimit. Returns ErrSessionFull when the
	// guard fails. The conditional filter makes the check-and-increment a
	// single atomic storage operation, so concurrent bookings cannot
	// overshoot the limit.
	IncrementBookedCount(ctx context.Context, sessionID string, capacityLimit int) error
}

func NewMongoSessionRepository(cfg *config.Config) SessionRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoSessionRepository{
		cfg:        cfg,
		collection: db.Collection(SessionCollectionName),
	}
}

func (r *mongoSessionRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithTimeout(ctx, time.Until(deadline))
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoSessionRepository) FindByClassAndDate(ctx context.Context, classID string, date time.Time) (*model.ClassSession, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"class_id": classID, "date": date}

	var session model.ClassSession
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, classeserrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find class session: %w", err)
	}

	return &session, nil
}

func (r *mongoSessionRepository) IncrementBookedCount(ctx context.Context, sessionID string, capacityLimit int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return fmt.Errorf("%w: %s", classeserrors.ErrInvalidID, sessionID)
	}

	filter := bson.M{
		"_id":          objectID,
		"booked_count": bson.M{"$lt": capacityLimit},
	}
	update := bson.M{"$inc": bson.M{"booked_count": 1}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to increment session occupancy: %w", err)
	}

	if result.MatchedCount == 0 {
		// Either the session is gone or the guard rejected the update;
		// look once more to tell the two apart.
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to verify session existence: %w", err)
		}
		if count == 0 {
			return classeserrors.ErrSessionNotFound
		}
		return classeserrors.ErrSessionFull
	}

	return nil
}
