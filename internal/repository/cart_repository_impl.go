package repository

import (
	"context"
	"errors"

	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/pkg/errs"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDBCartRepositoryImpl struct {
	db *mongo.Database
}

func CreateCartRepository(db *mongo.Database) CartRepository {
	return &MongoDBCartRepositoryImpl{db: db}
}

func (r *MongoDBCartRepositoryImpl) GetCartItems(ctx context.Context, userID string) (items []domain.CartItem, err error) {
	opts := options.Find().SetSort(bson.D{{Key: "addedAt", Value: 1}})

	cursor, err := r.db.Collection(cartCollection).Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetCartItems").Msg("")
		return nil, errs.Gateway(err)
	}

	items = []domain.CartItem{}
	if err = cursor.All(ctx, &items); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetCartItems").Msg("")
		return nil, errs.Gateway(err)
	}

	return items, nil
}

func (r *MongoDBCartRepositoryImpl) GetCartItem(ctx context.Context, userID string, key string) (item domain.CartItem, err error) {
	filter := bson.D{{Key: "_id", Value: domain.UserScopedID(userID, key)}}

	err = r.db.Collection(cartCollection).FindOne(ctx, filter).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return item, errs.ErrNotFound
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "GetCartItem").Msg("")
		return item, errs.Gateway(err)
	}

	return item, nil
}

func (r *MongoDBCartRepositoryImpl) UpsertCartItem(ctx context.Context, item domain.CartItem) (err error) {
	item.ID = domain.UserScopedID(item.UserID, item.Key)
	filter := bson.D{{Key: "_id", Value: item.ID}}

	_, err = r.db.Collection(cartCollection).ReplaceOne(ctx, filter, item, options.Replace().SetUpsert(true))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "UpsertCartItem").Msg("")
		return errs.Gateway(err)
	}

	return nil
}

func (r *MongoDBCartRepositoryImpl) SetCartItemQuantity(ctx context.Context, userID string, key string, quantity int) (err error) {
	filter := bson.D{{Key: "_id", Value: domain.UserScopedID(userID, key)}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "quantity", Value: quantity}}}}

	result, err := r.db.Collection(cartCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "SetCartItemQuantity").Msg("Failed to update cart item")
		return errs.Gateway(err)
	}

	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (r *MongoDBCartRepositoryImpl) DeleteCartItem(ctx context.Context, userID string, key string) (err error) {
	filter := bson.D{{Key: "_id", Value: domain.UserScopedID(userID, key)}}

	result, err := r.db.Collection(cartCollection).DeleteOne(ctx, filter)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "DeleteCartItem").Msg("")
		return errs.Gateway(err)
	}

	if result.DeletedCount == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (r *MongoDBCartRepositoryImpl) DeleteCartItems(ctx context.Context, ids []string) (err error) {
	if len(ids) == 0 {
		return nil
	}

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}

	_, err = r.db.Collection(cartCollection).DeleteMany(ctx, filter)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "DeleteCartItems").Msg("")
		return errs.Gateway(err)
	}

	return nil
}

func (r *MongoDBCartRepositoryImpl) WatchCart(ctx context.Context, userID string) (ChangeFeed, error) {
	feed, err := watchCollection(ctx, r.db.Collection(cartCollection), matchUserScoped(userID))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "WatchCart").Msg("")
		return nil, errs.Gateway(err)
	}

	return feed, nil
}
