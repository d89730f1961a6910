package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/identity-api/internal/core/domain"
)

// RoleRepository stores roles in their own collection; assignments live on
// the user document so they keep their order.
type RoleRepository struct {
	col   *mongo.Collection
	users *mongo.Collection
}

type mongoRole struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Permissions []string           `bson:"permissions"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (m mongoRole) toDomain() domain.Role {
	perms := m.Permissions
	if perms == nil {
		perms = []string{}
	}
	return domain.Role{
		ID:          m.ID.Hex(),
		Name:        m.Name,
		Permissions: perms,
		CreatedAt:   m.CreatedAt,
	}
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	var mr mongoRole
	if err := r.col.FindOne(ctx, bson.M{"name": name}).Decode(&mr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	role := mr.toDomain()
	return &role, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoRole
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}

	roles := make([]domain.Role, len(docs))
	for i, d := range docs {
		roles[i] = d.toDomain()
	}
	return roles, nil
}

func (r *RoleRepository) Upsert(ctx context.Context, name string, permissions []string) (*domain.Role, error) {
	if permissions == nil {
		permissions = []string{}
	}

	update := bson.M{
		"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
		"$addToSet":    bson.M{"permissions": bson.M{"$each": permissions}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var mr mongoRole
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"name": name}, update, opts).Decode(&mr); err != nil {
		return nil, fmt.Errorf("upsert role: %w", err)
	}
	role := mr.toDomain()
	return &role, nil
}

func (r *RoleRepository) AssignToUser(ctx context.Context, userID, roleID string, at time.Time) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}
	rid, err := primitive.ObjectIDFromHex(roleID)
	if err != nil {
		return domain.ErrRoleNotFound
	}

	// Re-assigning a held role keeps its original position.
	filter := bson.M{"_id": uid, "roles.role_id": bson.M{"$ne": rid}}
	update := bson.M{"$push": bson.M{"roles": roleAssignment{RoleID: rid, AssignedAt: at.UTC()}}}
	if _, err := r.users.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (r *RoleRepository) ListForUser(ctx context.Context, userID string) ([]domain.Role, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	var holder struct {
		Roles []roleAssignment `bson:"roles"`
	}
	opts := options.FindOne().SetProjection(bson.M{"roles": 1})
	if err := r.users.FindOne(ctx, bson.M{"_id": uid}, opts).Decode(&holder); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user roles: %w", err)
	}
	if len(holder.Roles) == 0 {
		return []domain.Role{}, nil
	}

	ids := make([]primitive.ObjectID, len(holder.Roles))
	for i, a := range holder.Roles {
		ids[i] = a.RoleID
	}

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find roles: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoRole
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	byID := make(map[primitive.ObjectID]mongoRole, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	roles := make([]domain.Role, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			roles = append(roles, d.toDomain())
		}
	}
	return roles, nil
}
