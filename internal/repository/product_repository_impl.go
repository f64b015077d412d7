package repository

import (
	"context"
	"errors"

	"github.com/alimikegami/quicart/internal/domain"
	pkgdto "github.com/alimikegami/quicart/pkg/dto"
	"github.com/alimikegami/quicart/pkg/errs"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoDBProductRepositoryImpl struct {
	db *mongo.Database
}

func CreateProductRepository(db *mongo.Database) ProductRepository {
	return &MongoDBProductRepositoryImpl{db: db}
}

func (r *MongoDBProductRepositoryImpl) GetProducts(ctx context.Context, category domain.Category, filter pkgdto.Filter) (data []domain.Product, err error) {
	query := bson.D{}
	if filter.Gender != "" {
		query = append(query, bson.E{Key: "gender", Value: filter.Gender})
	}

	cursor, err := r.db.Collection(category.Collection()).Find(ctx, query)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetProducts").Msg("")
		return nil, errs.Gateway(err)
	}

	data = []domain.Product{}
	if err = cursor.All(ctx, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetProducts").Msg("")
		return nil, errs.Gateway(err)
	}

	for i := range data {
		data[i].Category = category
	}

	return data, nil
}

func (r *MongoDBProductRepositoryImpl) GetProductByID(ctx context.Context, category domain.Category, uid string) (product domain.Product, err error) {
	filter := bson.D{{Key: "_id", Value: uid}}

	err = r.db.Collection(category.Collection()).FindOne(ctx, filter).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return product, errs.ErrNotFound
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "GetProductByID").Msg("")
		return product, errs.Gateway(err)
	}

	product.Category = category
	return product, nil
}

func (r *MongoDBProductRepositoryImpl) AddProduct(ctx context.Context, product domain.Product) (err error) {
	_, err = r.db.Collection(product.Category.Collection()).InsertOne(ctx, product)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddProduct").Msg("")
		if mongo.IsDuplicateKeyError(err) {
			return errs.ErrConflict
		}
		return errs.Gateway(err)
	}

	return nil
}

func (r *MongoDBProductRepositoryImpl) DecrementStock(ctx context.Context, decrement domain.StockDecrement) (err error) {
	path := domain.StockFieldPath(decrement.Category.SizedStock(), decrement.Size)

	filter := bson.D{
		{Key: "_id", Value: decrement.UID},
		{Key: path, Value: bson.D{{Key: "$exists", Value: true}}},
	}

	// Server-side max(0, stock - qty) so concurrent decrements never go negative.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: path, Value: bson.D{{Key: "$max", Value: bson.A{
				0,
				bson.D{{Key: "$subtract", Value: bson.A{"$" + path, decrement.Quantity}}},
			}}}},
		}}},
	}

	result, err := r.db.Collection(decrement.Category.Collection()).UpdateOne(ctx, filter, update)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "DecrementStock").Msg("Failed to update product stock")
		return errs.Gateway(err)
	}

	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (r *MongoDBProductRepositoryImpl) WatchProduct(ctx context.Context, category domain.Category, uid string) (ChangeFeed, error) {
	feed, err := watchCollection(ctx, r.db.Collection(category.Collection()), matchDocumentID(uid))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "WatchProduct").Msg("")
		return nil, errs.Gateway(err)
	}

	return feed, nil
}
