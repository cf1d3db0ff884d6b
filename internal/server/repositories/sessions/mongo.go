package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "sessions"

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection(collection)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "conference_id", Value: 1}, {Key: "start_time", Value: 1}},
		Options: options.Index().SetName("sessions_conference_start"),
	})
	if err != nil {
		return fmt.Errorf("sessions indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	if s.Attendees == nil {
		s.Attendees = []string{}
	}
	if _, err := r.col.InsertOne(ctx, s); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if s.Attendees == nil {
		s.Attendees = []string{}
	}
	return &s, nil
}

func (r *MongoRepository) ListByConference(ctx context.Context, conferenceID string) ([]*models.Session, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"conference_id": conferenceID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cur.Close(ctx)

	result := []*models.Session{}
	for cur.Next(ctx) {
		var s models.Session
		if err := cur.Decode(&s); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		if s.Attendees == nil {
			s.Attendees = []string{}
		}
		result = append(result, &s)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list sessions cursor: %w", err)
	}
	return result, nil
}

// Update refuses to shrink capacity below the current attendee count in the
// same write that applies the change.
func (r *MongoRepository) Update(ctx context.Context, s *models.Session) error {
	filter := bson.M{
		"_id":   s.ID,
		"$expr": bson.M{"$lte": bson.A{bson.M{"$size": "$attendees"}, s.Capacity}},
	}
	update := bson.M{"$set": bson.M{
		"title":       s.Title,
		"description": s.Description,
		"speaker":     s.Speaker,
		"start_time":  s.StartTime,
		"end_time":    s.EndTime,
		"location":    s.Location,
		"capacity":    s.Capacity,
		"updated_at":  s.UpdatedAt,
	}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, s.ID); err != nil {
		return err
	}
	return common.ErrCapacityFull
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) AddAttendee(ctx context.Context, id, attendeeID string) error {
	filter := bson.M{
		"_id":       id,
		"attendees": bson.M{"$ne": attendeeID},
		"$expr":     bson.M{"$lt": bson.A{bson.M{"$size": "$attendees"}, "$capacity"}},
	}
	update := bson.M{
		"$push": bson.M{"attendees": attendeeID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	for range registerAttempts {
		res, err := r.col.UpdateOne(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("update session for registration: %w", err)
		}
		if res.MatchedCount == 1 {
			return nil
		}

		s, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		switch {
		case s.HasAttendee(attendeeID):
			return ErrAlreadyRegistered
		case len(s.Attendees) >= s.Capacity:
			return common.ErrCapacityFull
		}
	}
	return common.ErrCapacityFull
}

func (r *MongoRepository) RemoveAttendee(ctx context.Context, id, attendeeID string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "attendees": attendeeID},
		bson.M{"$pull": bson.M{"attendees": attendeeID}, "$set": bson.M{"updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("update session for unregistration: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return common.ErrNotRegistered
}
