package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/identity-api/internal/core/domain"
)

type TokenRepository struct {
	col *mongo.Collection
}

type mongoToken struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Name      string    `bson:"name"`
	Scopes    []string  `bson:"scopes"`
	Revoked   bool      `bson:"revoked"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func (r *TokenRepository) Create(ctx context.Context, t *domain.AccessToken) error {
	scopes := t.Scopes
	if scopes == nil {
		scopes = []string{}
	}
	_, err := r.col.InsertOne(ctx, mongoToken{
		ID:        t.ID,
		UserID:    t.UserID,
		Name:      t.Name,
		Scopes:    scopes,
		Revoked:   t.Revoked,
		CreatedAt: t.CreatedAt.UTC(),
		ExpiresAt: t.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindByID(ctx context.Context, id string) (*domain.AccessToken, error) {
	var mt mongoToken
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &domain.AccessToken{
		ID:        mt.ID,
		UserID:    mt.UserID,
		Name:      mt.Name,
		Scopes:    mt.Scopes,
		Revoked:   mt.Revoked,
		CreatedAt: mt.CreatedAt,
		ExpiresAt: mt.ExpiresAt,
	}, nil
}
