package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/store"
)

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = s.now().UTC()
	}
	doc := fromAccount(account)

	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		account.ID = oid.Hex()
	}
	if account.Favorites == nil {
		account.Favorites = []string{}
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return s.findAccount(ctx, bson.M{"_id": oid})
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findAccount(ctx, bson.M{"email": email})
}

func (s *Store) findAccount(ctx context.Context, filter bson.M) (*models.Account, error) {
	var doc accountDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return doc.toAccount(), nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	cursor, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	var docs []accountDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}

	accounts := make([]models.Account, 0, len(docs))
	for i := range docs {
		accounts = append(accounts, *docs[i].toAccount())
	}
	return accounts, nil
}

func (s *Store) UpdateAccount(ctx context.Context, id string, patch models.AccountPatch) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	set := bson.M{}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.PasswordHash != nil {
		set["password"] = *patch.PasswordHash
	}
	if patch.Age != nil {
		set["age"] = *patch.Age
	}
	if patch.Gender != nil {
		set["gender"] = string(*patch.Gender)
	}
	if patch.FavoriteGenres != nil {
		set["favoriteGenres"] = patch.FavoriteGenres
	}
	if patch.IsAdmin != nil {
		set["isAdmin"] = *patch.IsAdmin
	}
	if len(set) == 0 {
		return s.GetAccount(ctx, id)
	}

	var doc accountDoc
	err = s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, store.ErrDuplicate
	case err != nil:
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return doc.toAccount(), nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountAccounts(ctx context.Context) (int64, error) {
	return s.users.CountDocuments(ctx, bson.M{})
}

// AddFavorite uses a single conditional $addToSet so concurrent adds of
// different movies never overwrite each other.
func (s *Store) AddFavorite(ctx context.Context, accountID, ref string) error {
	oid, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return store.ErrNotFound
	}
	movieOID, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return fmt.Errorf("invalid movie reference %q: %w", ref, err)
	}

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid, "favorites": bson.M{"$ne": movieOID}},
		bson.M{"$addToSet": bson.M{"favorites": movieOID}},
	)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either the account is gone or the movie is already there
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to check account: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrAlreadyExists
}

func (s *Store) RemoveFavorite(ctx context.Context, accountID, ref string) error {
	oid, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return store.ErrNotFound
	}
	movieOID, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return fmt.Errorf("invalid movie reference %q: %w", ref, err)
	}

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$pull": bson.M{"favorites": movieOID}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
