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

// SessionRepository persists device login records. Revocation is a
// soft flag flip; each mutation is a single atomic document update, so
// concurrent refresh/logout races resolve last-write-wins without
// additional locking.
type SessionRepository struct {
	coll *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{coll: db.Collection("sessions")}
}

// Create always inserts a new document; one per login event. Multiple
// concurrent active sessions per user are expected.
func (r *SessionRepository) Create(ctx context.Context, session models.Session) (models.Session, error) {
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.IsActive = true
	if session.ID.IsZero() {
		session.ID = bson.NewObjectID()
	}

	if _, err := r.coll.InsertOne(ctx, session); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// FindActiveByToken matches only sessions that are still active. A
// revoked or never-created token yields apperrors.ErrInvalidSession.
func (r *SessionRepository) FindActiveByToken(ctx context.Context, refreshToken string) (models.Session, error) {
	var session models.Session
	err := r.coll.FindOne(ctx, bson.M{
		"refreshToken": refreshToken,
		"isActive":     true,
	}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Session{}, apperrors.ErrInvalidSession
		}
		return models.Session{}, err
	}
	return session, nil
}

// RevokeByToken deactivates every session holding the token. Matching
// nothing is success: logout is an idempotent intent.
func (r *SessionRepository) RevokeByToken(ctx context.Context, refreshToken string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"refreshToken": refreshToken},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}},
	)
	return err
}

// RevokeAllByUser deactivates every session the user owns, regardless
// of current state.
func (r *SessionRepository) RevokeAllByUser(ctx context.Context, userID bson.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}},
	)
	return err
}

func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID bson.ObjectID) ([]models.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID, "isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []models.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteRevokedBefore removes revoked sessions whose last update is
// older than cutoff. Only the retention job calls this; active
// sessions are never touched.
func (r *SessionRepository) DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{
		"isActive":  false,
		"updatedAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
