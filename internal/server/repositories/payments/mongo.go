package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "payments"

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection(collection)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("payments_user_created"),
	})
	if err != nil {
		return fmt.Errorf("payments indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, p *models.Payment) error {
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string) ([]*models.Payment, error) {
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer cur.Close(ctx)

	result := []*models.Payment{}
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decode payments: %w", err)
	}
	return result, nil
}

func (r *MongoRepository) Update(ctx context.Context, p *models.Payment, from string) error {
	set := bson.M{
		"status":         p.Status,
		"transaction_id": p.TransactionID,
		"refund_id":      p.RefundID,
		"refund_reason":  p.RefundReason,
	}
	if p.ProcessedAt != nil {
		set["processed_at"] = *p.ProcessedAt
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": p.ID, "status": from}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, p.ID); err != nil {
		return err
	}
	return common.ErrVersionConflict
}
