package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clubmanager/pkg/config"
	mongotx "clubmanager/pkg/db/mongo"
	"clubmanager/pkg/model"
)

const (
	ClassCollectionName = "Classes"
)

// caseInsensitive matches class and member names ignoring case, the
// same way the name index is built in the migrations.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type mongoClassRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	sessions   *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ClassRepository interface {
	// CreateWithSessions persists the class and all of its sessions as
	// one transaction; the generated IDs are written back to the inputs.
	CreateWithSessions(ctx context.Context, class *model.ClubClass, sessions []*model.ClassSession) error
	// FindByName returns every class whose name matches case-insensitively.
	FindByName(ctx context.Context, name string) ([]*model.ClubClass, error)
	// FindByNameAndWindowCovering returns the class whose validity window
	// contains date, or nil when there is none.
	FindByNameAndWindowCovering(ctx context.Context, name string, date time.Time) (*model.ClubClass, error)
	// FindByNameAndWindowOverlap returns a class whose validity window
	// overlaps [start, end], or nil when there is none.
	FindByNameAndWindowOverlap(ctx context.Context, name string, start, end time.Time) (*model.ClubClass, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.ClubClass, error)
	Count(ctx context.Context) (int64, error)
}

func NewMongoClassRepository(cfg *config.Config) ClassRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoClassRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(ClassCollectionName),
		sessions:   db.Collection(SessionCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

// withTimeout wraps the context with a timeout unless it already runs
// inside a transaction; a SessionContext must not be re-wrapped.
func (r *mongoClassRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithTimeout(ctx, time.Until(deadline))
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoClassRepository) CreateWithSessions(ctx context.Context, class *model.ClubClass, sessions []*model.ClassSession) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	return r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		class.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

		result, err := r.collection.InsertOne(sessCtx, class)
		if err != nil {
			return fmt.Errorf("failed to create class: %w", err)
		}
		if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
			class.ID = oid.Hex()
		}

		docs := make([]any, len(sessions))
		for i, s := range sessions {
			s.ClassID = class.ID
			s.CreatedAt = class.CreatedAt
			docs[i] = s
		}

		inserted, err := r.sessions.InsertMany(sessCtx, docs)
		if err != nil {
			return fmt.Errorf("failed to create class sessions: %w", err)
		}
		for i, id := range inserted.InsertedIDs {
			if oid, ok := id.(primitive.ObjectID); ok {
				sessions[i].ID = oid.Hex()
			}
		}

		return nil
	})
}

func (r *mongoClassRepository) FindByName(ctx context.Context, name string) ([]*model.ClubClass, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetCollation(caseInsensitive).
		SetSort(bson.D{{Key: "start_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"name": name}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find classes by name: %w", err)
	}
	defer cursor.Close(ctx)

	var classes []*model.ClubClass
	if err = cursor.All(ctx, &classes); err != nil {
		return nil, fmt.Errorf("failed to decode classes: %w", err)
	}
	return classes, nil
}

func (r *mongoClassRepository) FindByNameAndWindowCovering(ctx context.Context, name string, date time.Time) (*model.ClubClass, error) {
	return r.findOneByNameAndWindow(ctx, name, date, date)
}

func (r *mongoClassRepository) FindByNameAndWindowOverlap(ctx context.Context, name string, start, end time.Time) (*model.ClubClass, error) {
	return r.findOneByNameAndWindow(ctx, name, end, start)
}

// findOneByNameAndWindow runs the shared window predicate
// start_date <= latest AND end_date >= earliest. With latest = earliest
// = date this is window containment; with the requested range endpoints
// it is the overlap test.
func (r *mongoClassRepository) findOneByNameAndWindow(ctx context.Context, name string, latest, earliest time.Time) (*model.ClubClass, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"name":       name,
		"start_date": bson.M{"$lte": latest},
		"end_date":   bson.M{"$gte": earliest},
	}
	opts := options.FindOne().SetCollation(caseInsensitive)

	var class model.ClubClass
	err := r.collection.FindOne(ctx, filter, opts).Decode(&class)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find class by name and window: %w", err)
	}
	return &class, nil
}

func (r *mongoClassRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.ClubClass, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find classes: %w", err)
	}
	defer cursor.Close(ctx)

	var classes []*model.ClubClass
	if err = cursor.All(ctx, &classes); err != nil {
		return nil, fmt.Errorf("failed to decode classes: %w", err)
	}
	return classes, nil
}

func (r *mongoClassRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count classes: %w", err)
	}
	return count, nil
}
