package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

const userEntity = "user"

// InsertUser stores a new account. Duplicate emails fail on the unique index.
func (r *MongoDBRepository) InsertUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	_, err := r.collection(userCollection).InsertOne(ctx, user)
	return translate(err, userEntity)
}

func (r *MongoDBRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, bson.M{"email": email})
}

func (r *MongoDBRepository) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.findUser(ctx, bson.M{"_id": id})
}

func (r *MongoDBRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	out, err := findAll[models.User](ctx, r.collection(userCollection), bson.M{}, opts)
	return out, translate(err, userEntity)
}

// SetUserVerified raises the verified flag and returns the account.
func (r *MongoDBRepository) SetUserVerified(ctx context.Context, id string) (*models.User, error) {
	update := bson.M{"$set": bson.M{"isVerified": true, "updatedAt": r.now()}}

	var user models.User
	err := r.collection(userCollection).FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter()).Decode(&user)
	if err != nil {
		return nil, translate(err, userEntity)
	}
	return &user, nil
}

func (r *MongoDBRepository) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.collection(userCollection).FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err, userEntity)
	}
	return &user, nil
}
