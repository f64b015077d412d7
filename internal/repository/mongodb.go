package repository

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	profileCollection        = "userProfile"
	cartCollection           = "userProfile.cart"
	favoritesCollection      = "userProfile.favorites"
	orderHistoryCollection   = "userProfile.orderHistory"
	checkoutIntentCollection = "checkoutIntents"
	accountCollection        = "accounts"
)

type MongoDBTxManager struct {
	db *mongo.Database
}

func CreateTxManager(db *mongo.Database) TxManager {
	return &MongoDBTxManager{db: db}
}

func (m *MongoDBTxManager) HandleTrx(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := m.db.Client().StartSession()
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "HandleTrx").Msg("")
		return err
	}

	// Defers ending the session after the transaction is committed or ended
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx mongo.SessionContext) (interface{}, error) {
		err := fn(ctx)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "HandleTrx").Msg("")
		}
		return nil, err
	})

	return err
}

// EnsureIndexes creates the indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(accountCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating accounts email index: %w", err)
	}

	for _, coll := range []string{cartCollection, favoritesCollection, orderHistoryCollection} {
		_, err = db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "userId", Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("creating %s userId index: %w", coll, err)
		}
	}

	_, err = db.Collection(checkoutIntentCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating checkout intent status index: %w", err)
	}

	return nil
}

func watchCollection(ctx context.Context, coll *mongo.Collection, match bson.D) (ChangeFeed, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := coll.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}

	return stream, nil
}

func matchDocumentID(id interface{}) bson.D {
	return bson.D{{Key: "documentKey._id", Value: id}}
}

// matchUserScoped matches changes to documents whose id is "{userID}/...".
func matchUserScoped(userID string) bson.D {
	prefix := bson.D{{Key: "$regex", Value: "^" + regexp.QuoteMeta(userID) + "/"}}
	return bson.D{{Key: "documentKey._id", Value: prefix}}
}
