package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"nextlevel/api/internal/apperrors"
	"nextlevel/api/internal/models"
)

type OTPRepository struct {
	coll *mongo.Collection
}

func NewOTPRepository(db *mongo.Database) *OTPRepository {
	return &OTPRepository{coll: db.Collection("otps")}
}

// Upsert replaces the pending code for the email, resetting the
// attempt counter. One document per email.
func (r *OTPRepository) Upsert(ctx context.Context, email, codeHash string, expiresAt time.Time) (models.OTP, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"email":     email,
			"codeHash":  codeHash,
			"attempts":  0,
			"expiresAt": expiresAt,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var otp models.OTP
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&otp); err != nil {
		return models.OTP{}, err
	}
	return otp, nil
}

func (r *OTPRepository) FindByEmail(ctx context.Context, email string) (models.OTP, error) {
	var otp models.OTP
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&otp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.OTP{}, apperrors.ErrNotFound
		}
		return models.OTP{}, err
	}
	return otp, nil
}

func (r *OTPRepository) IncrementAttempts(ctx context.Context, email string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$inc": bson.M{"attempts": 1},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	return err
}

func (r *OTPRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"email": email})
	return err
}

// DeleteExpiredBefore purges stale codes; called by the cleanup job.
func (r *OTPRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
