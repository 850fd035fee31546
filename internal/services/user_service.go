package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/sample-app/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context, page int) (models.Page[models.User], error)
	CreateUser(ctx context.Context, form models.UserForm) (models.User, error)
	UpdateUser(ctx context.Context, id string, form models.UserForm) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	AuthenticateWithSalt(ctx context.Context, id, salt string) (models.User, error)
	SetAdmin(ctx context.Context, id string, admin bool) error
	CountUsers(ctx context.Context) (int, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db   *sql.DB
	cost int
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db, cost: bcrypt.DefaultCost}
}

// WithPasswordCost sets the bcrypt cost used for new digests.
func (s *UserService) WithPasswordCost(cost int) *UserService {
	s.cost = cost
	return s
}

const userColumns = "id, name, email, password_hash, salt, admin, created_at, updated_at"

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, fmt.Errorf("user %s: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email, case-insensitively.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, fmt.Errorf("user with email %s: %w", email, err)
	}
	return user, nil
}

// ListUsers returns one page of users in sign-up order.
func (s *UserService) ListUsers(ctx context.Context, page int) (models.Page[models.User], error) {
	result := models.Page[models.User]{Number: models.NormalizePage(page), PerPage: models.DefaultPerPage}

	total, err := s.CountUsers(ctx)
	if err != nil {
		return result, err
	}
	result.Total = total

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at, rowid LIMIT ? OFFSET ?",
		result.PerPage, result.Offset())
	if err != nil {
		return result, err
	}
	result.Items, err = scanUsers(rows)
	return result, err
}

// CreateUser validates the form, hashes the password and inserts the user.
func (s *UserService) CreateUser(ctx context.Context, form models.UserForm) (models.User, error) {
	form.Normalize()
	if err := s.validate(ctx, "", form); err != nil {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword(passwordDigest(form.Password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	salt, err := newSalt()
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.New().String(),
		Name:         form.Name,
		Email:        form.Email,
		PasswordHash: string(hashedPassword),
		Salt:         salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users("+userColumns+") VALUES(?, ?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.PasswordHash, user.Salt, user.Admin, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, emailTaken()
		}
		return models.User{}, err
	}
	return user, nil
}

// UpdateUser replaces a user's name, email and password. A new password also
// rotates the salt, which signs out every remembered browser.
func (s *UserService) UpdateUser(ctx context.Context, id string, form models.UserForm) (models.User, error) {
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return models.User{}, err
	}

	form.Normalize()
	if err := s.validate(ctx, id, form); err != nil {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword(passwordDigest(form.Password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	salt, err := newSalt()
	if err != nil {
		return models.User{}, err
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE users SET name = ?, email = ?, password_hash = ?, salt = ?, updated_at = ? WHERE id = ?",
		form.Name, form.Email, string(hashedPassword), salt, time.Now().UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, emailTaken()
		}
		return models.User{}, err
	}
	return s.GetUserByID(ctx, id)
}

// passwordDigest condenses a password to a fixed 44 bytes before bcrypt sees
// it. bcrypt refuses input over 72 bytes, which a 40 character password of
// multi-byte runes can exceed.
func passwordDigest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// DeleteUser removes a user; their microposts and relationships cascade.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// Authenticate verifies a user's credentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), passwordDigest(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// AuthenticateWithSalt returns the user only if the salt still matches, so
// tokens minted before a password change stop working.
func (s *UserService) AuthenticateWithSalt(ctx context.Context, id, salt string) (models.User, error) {
	if id == "" || salt == "" {
		return models.User{}, ErrInvalidCredentials
	}
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if user.Salt != salt {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// SetAdmin grants or revokes admin rights.
func (s *UserService) SetAdmin(ctx context.Context, id string, admin bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET admin = ?, updated_at = ? WHERE id = ?", admin, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountUsers returns the number of registered users.
func (s *UserService) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func (s *UserService) validate(ctx context.Context, id string, form models.UserForm) error {
	errs := form.Validate()

	if form.Email != "" {
		var taken int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?", form.Email, id).Scan(&taken)
		if err != nil {
			return err
		}
		if taken > 0 {
			errs.Add("Email", "has already been taken")
		}
	}

	if errs.Any() {
		return errs
	}
	return nil
}

func emailTaken() models.ValidationErrors {
	var errs models.ValidationErrors
	errs.Add("Email", "has already been taken")
	return errs
}

func newSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func scanUser(scanner rowScanner) (models.User, error) {
	var user models.User
	err := scanner.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Salt,
		&user.Admin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanUsers(rows *sql.Rows) ([]models.User, error) {
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
