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

type MongoDBFavoriteRepositoryImpl struct {
	db *mongo.Database
}

func CreateFavoriteRepository(db *mongo.Database) FavoriteRepository {
	return &MongoDBFavoriteRepositoryImpl{db: db}
}

func (r *MongoDBFavoriteRepositoryImpl) GetFavorites(ctx context.Context, userID string) (data []domain.Favorite, err error) {
	opts := options.Find().SetSort(bson.D{{Key: "addedAt", Value: -1}})

	cursor, err := r.db.Collection(favoritesCollection).Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetFavorites").Msg("")
		return nil, errs.Gateway(err)
	}

	data = []domain.Favorite{}
	if err = cursor.All(ctx, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetFavorites").Msg("")
		return nil, errs.Gateway(err)
	}

	return data, nil
}

func (r *MongoDBFavoriteRepositoryImpl) GetFavorite(ctx context.Context, userID string, productUID string) (favorite domain.Favorite, err error) {
	filter := bson.D{{Key: "_id", Value: domain.UserScopedID(userID, productUID)}}

	err = r.db.Collection(favoritesCollection).FindOne(ctx, filter).Decode(&favorite)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return favorite, errs.ErrNotFound
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "GetFavorite").Msg("")
		return favorite, errs.Gateway(err)
	}

	return favorite, nil
}

func (r *MongoDBFavoriteRepositoryImpl) AddFavorite(ctx context.Context, favorite domain.Favorite) (err error) {
	favorite.ID = domain.UserScopedID(favorite.UserID, favorite.UID)
	filter := bson.D{{Key: "_id", Value: favorite.ID}}

	_, err = r.db.Collection(favoritesCollection).ReplaceOne(ctx, filter, favorite, options.Replace().SetUpsert(true))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddFavorite").Msg("")
		return errs.Gateway(err)
	}

	return nil
}

func (r *MongoDBFavoriteRepositoryImpl) DeleteFavorite(ctx context.Context, userID string, productUID string) (err error) {
	filter := bson.D{{Key: "_id", Value: domain.UserScopedID(userID, productUID)}}

	result, err := r.db.Collection(favoritesCollection).DeleteOne(ctx, filter)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "DeleteFavorite").Msg("")
		return errs.Gateway(err)
	}

	if result.DeletedCount == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (r *MongoDBFavoriteRepositoryImpl) WatchFavorites(ctx context.Context, userID string) (ChangeFeed, error) {
	feed, err := watchCollection(ctx, r.db.Collection(favoritesCollection), matchUserScoped(userID))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "WatchFavorites").Msg("")
		return nil, errs.Gateway(err)
	}

	return feed, nil
}
