package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/pkg/errs"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDBOrderRepositoryImpl struct {
	db *mongo.Database
}

func CreateOrderRepository(db *mongo.Database) OrderRepository {
	return &MongoDBOrderRepositoryImpl{db: db}
}

func (r *MongoDBOrderRepositoryImpl) AddOrderRecords(ctx context.Context, records []domain.OrderRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, len(records))
	for i, record := range records {
		docs[i] = record
	}

	_, err = r.db.Collection(orderHistoryCollection).InsertMany(ctx, docs)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddOrderRecords").Msg("")
		return errs.Gateway(err)
	}

	return nil
}

func (r *MongoDBOrderRepositoryImpl) GetOrderHistory(ctx context.Context, userID string) (data []domain.OrderRecord, err error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := r.db.Collection(orderHistoryCollection).Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrderHistory").Msg("")
		return nil, errs.Gateway(err)
	}

	data = []domain.OrderRecord{}
	if err = cursor.All(ctx, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrderHistory").Msg("")
		return nil, errs.Gateway(err)
	}

	return data, nil
}

func (r *MongoDBOrderRepositoryImpl) WatchOrderHistory(ctx context.Context, userID string) (ChangeFeed, error) {
	// Order records are insert-only, so the full document is always present.
	match := bson.D{{Key: "fullDocument.userId", Value: userID}}

	feed, err := watchCollection(ctx, r.db.Collection(orderHistoryCollection), match)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "WatchOrderHistory").Msg("")
		return nil, errs.Gateway(err)
	}

	return feed, nil
}

type MongoDBCheckoutIntentRepositoryImpl struct {
	db *mongo.Database
}

func CreateCheckoutIntentRepository(db *mongo.Database) CheckoutIntentRepository {
	return &MongoDBCheckoutIntentRepositoryImpl{db: db}
}

func (r *MongoDBCheckoutIntentRepositoryImpl) AddCheckoutIntent(ctx context.Context, intent domain.CheckoutIntent) (err error) {
	_, err = r.db.Collection(checkoutIntentCollection).InsertOne(ctx, intent)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddCheckoutIntent").Msg("")
		if mongo.IsDuplicateKeyError(err) {
			return errs.ErrConflict
		}
		return errs.Gateway(err)
	}

	return nil
}

func (r *MongoDBCheckoutIntentRepositoryImpl) GetCheckoutIntent(ctx context.Context, orderNumber int64) (intent domain.CheckoutIntent, err error) {
	filter := bson.D{{Key: "_id", Value: orderNumber}}

	err = r.db.Collection(checkoutIntentCollection).FindOne(ctx, filter).Decode(&intent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return intent, errs.ErrNotFound
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "GetCheckoutIntent").Msg("")
		return intent, errs.Gateway(err)
	}

	return intent, nil
}

func (r *MongoDBCheckoutIntentRepositoryImpl) UpdateCheckoutIntentStatus(ctx context.Context, orderNumber int64, from []domain.CheckoutStatus, status domain.CheckoutStatus) (err error) {
	filter := bson.D{
		{Key: "_id", Value: orderNumber},
		{Key: "status", Value: bson.D{{Key: "$in", Value: from}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: status},
		{Key: "updatedAt", Value: time.Now()},
	}}}

	result, err := r.db.Collection(checkoutIntentCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "UpdateCheckoutIntentStatus").Msg("Failed to update checkout intent")
		return errs.Gateway(err)
	}

	if result.MatchedCount == 0 {
		return errs.ErrConflict
	}

	return nil
}

func (r *MongoDBCheckoutIntentRepositoryImpl) GetCheckoutIntentsByStatus(ctx context.Context, status domain.CheckoutStatus, createdBefore time.Time) (data []domain.CheckoutIntent, err error) {
	filter := bson.D{
		{Key: "status", Value: status},
		{Key: "createdAt", Value: bson.D{{Key: "$lt", Value: createdBefore}}},
	}

	cursor, err := r.db.Collection(checkoutIntentCollection).Find(ctx, filter)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetCheckoutIntentsByStatus").Msg("")
		return nil, errs.Gateway(err)
	}

	data = []domain.CheckoutIntent{}
	if err = cursor.All(ctx, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetCheckoutIntentsByStatus").Msg("")
		return nil, errs.Gateway(err)
	}

	return data, nil
}
