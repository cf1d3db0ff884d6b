package attendees

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/mongox"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "attendees"

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection(collection)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("attendees_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("attendees indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, a *models.Attendee) (*models.Attendee, error) {
	if a.RegisteredSessions == nil {
		a.RegisteredSessions = []string{}
	}
	if _, err := r.col.InsertOne(ctx, a); err != nil {
		if mongox.IsDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert attendee: %w", err)
	}
	return a, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Attendee, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*models.Attendee, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.Attendee, error) {
	var a models.Attendee
	if err := r.col.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	if a.RegisteredSessions == nil {
		a.RegisteredSessions = []string{}
	}
	return &a, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]*models.Attendee, error) {
	cur, err := r.col.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "registration_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer cur.Close(ctx)

	result := []*models.Attendee{}
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decode attendees: %w", err)
	}
	for _, a := range result {
		if a.RegisteredSessions == nil {
			a.RegisteredSessions = []string{}
		}
	}
	return result, nil
}

func (r *MongoRepository) AddSession(ctx context.Context, id, sessionID string) error {
	return r.update(ctx, id, bson.M{"$addToSet": bson.M{"registered_sessions": sessionID}})
}

func (r *MongoRepository) RemoveSession(ctx context.Context, id, sessionID string) error {
	return r.update(ctx, id, bson.M{"$pull": bson.M{"registered_sessions": sessionID}})
}

func (r *MongoRepository) update(ctx context.Context, id string, change bson.M) error {
	change["$set"] = bson.M{"updated_at": time.Now().UTC()}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, change)
	if err != nil {
		return fmt.Errorf("update attendee: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}
