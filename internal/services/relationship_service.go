package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/sample-app/internal/models"
)

// RelationshipServiceProvider defines the interface for follow relationships.
type RelationshipServiceProvider interface {
	Follow(ctx context.Context, followerID, followedID string) (models.Relationship, error)
	Unfollow(ctx context.Context, followerID, followedID string) error
	GetRelationship(ctx context.Context, id string) (models.Relationship, error)
	FindRelationship(ctx context.Context, followerID, followedID string) (models.Relationship, error)
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	Following(ctx context.Context, userID string, page int) (models.Page[models.User], error)
	Followers(ctx context.Context, userID string, page int) (models.Page[models.User], error)
	FollowerIDs(ctx context.Context, userID string) ([]string, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
}

// RelationshipService stores directed follow edges between users.
type RelationshipService struct {
	db *sql.DB
}

// NewRelationshipService creates a new RelationshipService.
func NewRelationshipService(db *sql.DB) *RelationshipService {
	return &RelationshipService{db: db}
}

// Follow makes followerID follow followedID. Following someone twice keeps the
// single existing edge.
func (s *RelationshipService) Follow(ctx context.Context, followerID, followedID string) (models.Relationship, error) {
	rel := models.Relationship{
		ID:         uuid.New().String(),
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  time.Now().UTC(),
	}
	if errs := rel.Validate(); errs.Any() {
		return models.Relationship{}, errs
	}
	if followerID == followedID {
		return models.Relationship{}, ErrSelfFollow
	}

	var known int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE id IN (?, ?)", followerID, followedID).Scan(&known)
	if err != nil {
		return models.Relationship{}, err
	}
	if known != 2 {
		return models.Relationship{}, fmt.Errorf("follow %s -> %s: %w", followerID, followedID, ErrNotFound)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO relationships (id, follower_id, followed_id, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (follower_id, followed_id) DO NOTHING`,
		rel.ID, rel.FollowerID, rel.FollowedID, rel.CreatedAt)
	if err != nil {
		return models.Relationship{}, fmt.Errorf("insert relationship: %w", err)
	}
	return s.FindRelationship(ctx, followerID, followedID)
}

// Unfollow removes the edge if it exists.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID, followedID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM relationships WHERE follower_id = ? AND followed_id = ?", followerID, followedID)
	return err
}

// GetRelationship retrieves a relationship by its ID.
func (s *RelationshipService) GetRelationship(ctx context.Context, id string) (models.Relationship, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, follower_id, followed_id, created_at FROM relationships WHERE id = ?", id)
	rel, err := scanRelationship(row)
	if err != nil {
		return models.Relationship{}, fmt.Errorf("relationship %s: %w", id, err)
	}
	return rel, nil
}

// FindRelationship retrieves the edge between two users.
func (s *RelationshipService) FindRelationship(ctx context.Context, followerID, followedID string) (models.Relationship, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, follower_id, followed_id, created_at FROM relationships WHERE follower_id = ? AND followed_id = ?",
		followerID, followedID)
	rel, err := scanRelationship(row)
	if err != nil {
		return models.Relationship{}, fmt.Errorf("relationship %s -> %s: %w", followerID, followedID, err)
	}
	return rel, nil
}

// IsFollowing reports whether followerID follows followedID.
func (s *RelationshipService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM relationships WHERE follower_id = ? AND followed_id = ?",
		followerID, followedID).Scan(&n)
	return n > 0, err
}

// Following returns the users userID follows.
func (s *RelationshipService) Following(ctx context.Context, userID string, page int) (models.Page[models.User], error) {
	return s.listUsers(ctx, "followed_id", "follower_id", userID, page)
}

// Followers returns the users following userID.
func (s *RelationshipService) Followers(ctx context.Context, userID string, page int) (models.Page[models.User], error) {
	return s.listUsers(ctx, "follower_id", "followed_id", userID, page)
}

// FollowerIDs returns the ids of every follower of userID.
func (s *RelationshipService) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT follower_id FROM relationships WHERE followed_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountFollowing returns how many users userID follows.
func (s *RelationshipService) CountFollowing(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM relationships WHERE follower_id = ?", userID).Scan(&n)
	return n, err
}

// CountFollowers returns how many users follow userID.
func (s *RelationshipService) CountFollowers(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM relationships WHERE followed_id = ?", userID).Scan(&n)
	return n, err
}

// listUsers joins the user on the "other" column of edges matching userID on
// the "self" column. Column names are constants, never user input.
func (s *RelationshipService) listUsers(ctx context.Context, other, self, userID string, page int) (models.Page[models.User], error) {
	result := models.Page[models.User]{Number: models.NormalizePage(page), PerPage: models.DefaultPerPage}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM relationships WHERE "+self+" = ?", userID).Scan(&result.Total)
	if err != nil {
		return result, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, u.password_hash, u.salt, u.admin, u.created_at, u.updated_at
		FROM relationships r JOIN users u ON u.id = r.`+other+`
		WHERE r.`+self+` = ?
		ORDER BY r.created_at, r.rowid LIMIT ? OFFSET ?`,
		userID, result.PerPage, result.Offset())
	if err != nil {
		return result, err
	}
	result.Items, err = scanUsers(rows)
	return result, err
}

func scanRelationship(scanner rowScanner) (models.Relationship, error) {
	var rel models.Relationship
	if err := scanner.Scan(&rel.ID, &rel.FollowerID, &rel.FollowedID, &rel.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Relationship{}, ErrNotFound
		}
		return models.Relationship{}, err
	}
	return rel, nil
}
