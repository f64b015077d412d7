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
)

type MongoDBProfileRepositoryImpl struct {
	db *mongo.Database
}

func CreateProfileRepository(db *mongo.Database) ProfileRepository {
	return &MongoDBProfileRepositoryImpl{db: db}
}

func (r *MongoDBProfileRepositoryImpl) AddProfile(ctx context.Context, profile domain.UserProfile) (err error) {
	_, err = r.db.Collection(profileCollection).InsertOne(ctx, profile)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddProfile").Msg("")
		if mongo.IsDuplicateKeyError(err) {
			return errs.ErrConflict
		}
		return errs.Gateway(err)
	}

	return nil
}

func (r *MongoDBProfileRepositoryImpl) GetProfile(ctx context.Context, userID string) (profile domain.UserProfile, err error) {
	filter := bson.D{{Key: "_id", Value: userID}}

	err = r.db.Collection(profileCollection).FindOne(ctx, filter).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return profile, errs.ErrNotFound
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "GetProfile").Msg("")
		return profile, errs.Gateway(err)
	}

	return profile, nil
}

func (r *MongoDBProfileRepositoryImpl) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (err error) {
	fields := bson.D{}
	if update.Name != nil {
		fields = append(fields, bson.E{Key: "name", Value: *update.Name})
	}
	if update.PhoneNumber != nil {
		fields = append(fields, bson.E{Key: "phoneNumber", Value: *update.PhoneNumber})
	}
	if update.Address != nil {
		fields = append(fields, bson.E{Key: "address", Value: *update.Address})
	}
	if len(fields) == 0 {
		return nil
	}

	return r.setFields(ctx, "UpdateProfile", userID, fields)
}

func (r *MongoDBProfileRepositoryImpl) SetProfilePhoto(ctx context.Context, userID string, url string) (err error) {
	return r.setFields(ctx, "SetProfilePhoto", userID, bson.D{{Key: "profilePhoto", Value: url}})
}

func (r *MongoDBProfileRepositoryImpl) setFields(ctx context.Context, component string, userID string, fields bson.D) error {
	filter := bson.D{{Key: "_id", Value: userID}}
	update := bson.D{{Key: "$set", Value: fields}}

	result, err := r.db.Collection(profileCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", component).Msg("Failed to update profile")
		return errs.Gateway(err)
	}

	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (r *MongoDBProfileRepositoryImpl) WatchProfile(ctx context.Context, userID string) (ChangeFeed, error) {
	feed, err := watchCollection(ctx, r.db.Collection(profileCollection), matchDocumentID(userID))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "WatchProfile").Msg("")
		return nil, errs.Gateway(err)
	}

	return feed, nil
}

type MongoDBAccountRepositoryImpl struct {
	db *mongo.Database
}

func CreateAccountRepository(db *mongo.Database) AccountRepository {
	return &MongoDBAccountRepositoryImpl{db: db}
}

func (r *MongoDBAccountRepositoryImpl) AddAccount(ctx context.Context, account domain.Account) (err error) {
	_, err = r.db.Collection(accountCollection).InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.ErrEmailAlreadyUsed
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "AddAccount").Msg("")
		return errs.Gateway(err)
	}

	return nil
}

func (r *MongoDBAccountRepositoryImpl) GetAccountByEmail(ctx context.Context, email string) (account domain.Account, err error) {
	filter := bson.D{{Key: "email", Value: email}}

	err = r.db.Collection(accountCollection).FindOne(ctx, filter).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return account, errs.ErrAccountNotFound
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "GetAccountByEmail").Msg("")
		return account, errs.Gateway(err)
	}

	return account, nil
}

func (r *MongoDBAccountRepositoryImpl) UpdatePassword(ctx context.Context, userID string, hashedPassword string) (err error) {
	filter := bson.D{{Key: "_id", Value: userID}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "hashedPassword", Value: hashedPassword},
		{Key: "updatedAt", Value: time.Now().UnixMilli()},
	}}}

	result, err := r.db.Collection(accountCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "UpdatePassword").Msg("")
		return errs.Gateway(err)
	}

	if result.MatchedCount == 0 {
		return errs.ErrAccountNotFound
	}

	return nil
}
