package conferences

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

const collection = "conferences"

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection(collection)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("conferences_name_unique"),
		},
		{
			Keys:    bson.D{{Key: "start_date", Value: 1}},
			Options: options.Index().SetName("conferences_start_date"),
		},
		{
			Keys:    bson.D{{Key: "organizer_id", Value: 1}},
			Options: options.Index().SetName("conferences_organizer"),
		},
	})
	if err != nil {
		return fmt.Errorf("conferences indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, c *models.Conference) (*models.Conference, error) {
	if c.Attendees == nil {
		c.Attendees = []string{}
	}
	if _, err := r.col.InsertOne(ctx, c); err != nil {
		if mongox.IsDuplicateKey(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("insert conference: %w", err)
	}
	return c, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Conference, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) GetByName(ctx context.Context, name string) (*models.Conference, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.Conference, error) {
	var c models.Conference
	if err := r.col.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get conference: %w", err)
	}
	if c.Attendees == nil {
		c.Attendees = []string{}
	}
	return &c, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]*models.Conference, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	cur, err := r.col.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list conferences: %w", err)
	}
	defer cur.Close(ctx)

	result := []*models.Conference{}
	for cur.Next(ctx) {
		var c models.Conference
		if err := cur.Decode(&c); err != nil {
			return nil, fmt.Errorf("decode conference: %w", err)
		}
		if c.Attendees == nil {
			c.Attendees = []string{}
		}
		result = append(result, &c)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list conferences cursor: %w", err)
	}
	return result, nil
}

func (r *MongoRepository) Update(ctx context.Context, c *models.Conference) error {
	update := bson.M{"$set": bson.M{
		"name":             c.Name,
		"description":      c.Description,
		"field":            c.Field,
		"location":         c.Location,
		"city":             c.City,
		"country":          c.Country,
		"start_date":       c.StartDate,
		"end_date":         c.EndDate,
		"max_attendees":    c.MaxAttendees,
		"registration_fee": c.RegistrationFee,
		"status":           c.Status,
		"logo":             c.Logo,
		"banner":           c.Banner,
		"website":          c.Website,
		"updated_at":       c.UpdatedAt,
	}}

	filter := bson.M{
		"_id":   c.ID,
		"$expr": bson.M{"$lte": bson.A{bson.M{"$size": "$attendees"}, c.MaxAttendees}},
	}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongox.IsDuplicateKey(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("update conference: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, c.ID); err != nil {
		return err
	}
	return common.ErrCapacityFull
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete conference: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) AddAttendee(ctx context.Context, id, userID string) error {
	filter := bson.M{
		"_id":       id,
		"attendees": bson.M{"$ne": userID},
		"$expr":     bson.M{"$lt": bson.A{bson.M{"$size": "$attendees"}, "$max_attendees"}},
	}
	update := bson.M{
		"$push": bson.M{"attendees": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	for range registerAttempts {
		res, err := r.col.UpdateOne(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("update conference for registration: %w", err)
		}
		if res.MatchedCount == 1 {
			return nil
		}

		c, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		switch {
		case c.HasAttendee(userID):
			return ErrAlreadyRegistered
		case len(c.Attendees) >= c.MaxAttendees:
			return common.ErrCapacityFull
		}
	}
	return common.ErrCapacityFull
}

func (r *MongoRepository) RemoveAttendee(ctx context.Context, id, userID string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "attendees": userID},
		bson.M{"$pull": bson.M{"attendees": userID}, "$set": bson.M{"updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("update conference for unregistration: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return common.ErrNotRegistered
}
