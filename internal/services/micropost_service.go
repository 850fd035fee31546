package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/sample-app/internal/models"
)

// MicropostServiceProvider defines the interface for micropost services.
type MicropostServiceProvider interface {
	CreateMicropost(ctx context.Context, userID, content string) (models.Micropost, error)
	GetMicropost(ctx context.Context, id string) (models.Micropost, error)
	DeleteMicropost(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID string, page int) (models.Page[models.Micropost], error)
	Feed(ctx context.Context, userID string, page int) (models.Page[models.Micropost], error)
	CountForUser(ctx context.Context, userID string) (int, error)
	CountMicroposts(ctx context.Context) (int, error)
}

// MicropostService provides business logic for microposts.
type MicropostService struct {
	db *sql.DB
}

// NewMicropostService creates a new MicropostService.
func NewMicropostService(db *sql.DB) *MicropostService {
	return &MicropostService{db: db}
}

// CreateMicropost validates and stores a new micropost for userID.
func (s *MicropostService) CreateMicropost(ctx context.Context, userID, content string) (models.Micropost, error) {
	now := time.Now().UTC()
	post := models.Micropost{
		ID:        uuid.New().String(),
		Content:   strings.TrimSpace(content),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errs := post.Validate(); errs.Any() {
		return models.Micropost{}, errs
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO microposts (id, content, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		post.ID, post.Content, post.UserID, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return models.Micropost{}, fmt.Errorf("insert micropost: %w", err)
	}
	return post, nil
}

// GetMicropost retrieves a single micropost by its ID.
func (s *MicropostService) GetMicropost(ctx context.Context, id string) (models.Micropost, error) {
	var post models.Micropost
	err := s.db.QueryRowContext(ctx,
		"SELECT id, content, user_id, created_at, updated_at FROM microposts WHERE id = ?", id,
	).Scan(&post.ID, &post.Content, &post.UserID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Micropost{}, fmt.Errorf("micropost %s: %w", id, ErrNotFound)
		}
		return models.Micropost{}, err
	}
	return post, nil
}

// DeleteMicropost removes a micropost.
func (s *MicropostService) DeleteMicropost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM microposts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("micropost %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListForUser returns a user's microposts, newest first.
func (s *MicropostService) ListForUser(ctx context.Context, userID string, page int) (models.Page[models.Micropost], error) {
	result := models.Page[models.Micropost]{Number: models.NormalizePage(page), PerPage: models.DefaultPerPage}

	total, err := s.CountForUser(ctx, userID)
	if err != nil {
		return result, err
	}
	result.Total = total

	rows, err := s.db.QueryContext(ctx, feedSelect+`
		WHERE m.user_id = ?
		ORDER BY m.created_at DESC, m.rowid DESC LIMIT ? OFFSET ?`,
		userID, result.PerPage, result.Offset())
	if err != nil {
		return result, err
	}
	result.Items, err = scanFeed(rows)
	return result, err
}

// Feed returns microposts by the user and everyone they follow, newest first.
func (s *MicropostService) Feed(ctx context.Context, userID string, page int) (models.Page[models.Micropost], error) {
	result := models.Page[models.Micropost]{Number: models.NormalizePage(page), PerPage: models.DefaultPerPage}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM microposts
		WHERE user_id = ? OR user_id IN (SELECT followed_id FROM relationships WHERE follower_id = ?)`,
		userID, userID).Scan(&result.Total)
	if err != nil {
		return result, err
	}

	rows, err := s.db.QueryContext(ctx, feedSelect+`
		WHERE m.user_id = ? OR m.user_id IN (SELECT followed_id FROM relationships WHERE follower_id = ?)
		ORDER BY m.created_at DESC, m.rowid DESC LIMIT ? OFFSET ?`,
		userID, userID, result.PerPage, result.Offset())
	if err != nil {
		return result, err
	}
	result.Items, err = scanFeed(rows)
	return result, err
}

// CountForUser returns how many microposts a user has written.
func (s *MicropostService) CountForUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM microposts WHERE user_id = ?", userID).Scan(&n)
	return n, err
}

// CountMicroposts returns the total number of microposts.
func (s *MicropostService) CountMicroposts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM microposts").Scan(&n)
	return n, err
}

const feedSelect = `
	SELECT m.id, m.content, m.user_id, m.created_at, m.updated_at,
		u.id, u.name, u.email, u.admin, u.created_at, u.updated_at
	FROM microposts m JOIN users u ON u.id = m.user_id`

func scanFeed(rows *sql.Rows) ([]models.Micropost, error) {
	defer rows.Close()

	var posts []models.Micropost
	for rows.Next() {
		var post models.Micropost
		var author models.User
		err := rows.Scan(&post.ID, &post.Content, &post.UserID, &post.CreatedAt, &post.UpdatedAt,
			&author.ID, &author.Name, &author.Email, &author.Admin, &author.CreatedAt, &author.UpdatedAt)
		if err != nil {
			return nil, err
		}
		post.User = &author
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
