package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/isdelr/sample-app/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser_Success(t *testing.T) {
	svc := newTestUserService(setupDB(t))
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, models.UserForm{
		Name: "Example User", Email: " User@Example.COM ",
		Password: "foobar", PasswordConfirmation: "foobar",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "user@example.com", user.Email)
	assert.NotEmpty(t, user.Salt)
	assert.NotEqual(t, "foobar", user.PasswordHash)
	assert.False(t, user.Admin)

	n, err := svc.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateUser_ValidationErrors(t *testing.T) {
	svc := newTestUserService(setupDB(t))

	_, err := svc.CreateUser(context.Background(), models.UserForm{})
	var verrs models.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.FullMessages(), "Name can't be blank")
	assert.Contains(t, verrs.FullMessages(), "Email can't be blank")
	assert.Contains(t, verrs.FullMessages(), "Password can't be blank")
}

func TestCreateUser_RejectsDuplicateEmailIgnoringCase(t *testing.T) {
	svc := newTestUserService(setupDB(t))
	ctx := context.Background()

	form := models.UserForm{Name: "A", Email: "dup@example.com", Password: "foobar", PasswordConfirmation: "foobar"}
	_, err := svc.CreateUser(ctx, form)
	require.NoError(t, err)

	form.Email = "DUP@example.com"
	_, err = svc.CreateUser(ctx, form)
	var verrs models.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"Email has already been taken"}, verrs.FullMessages())
}

func TestAuthenticate(t *testing.T) {
	svc := newTestUserService(setupDB(t))
	ctx := context.Background()
	user := createUser(t, svc, "Ann")

	got, err := svc.Authenticate(ctx, user.Email, "foobar")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, user.Email, "wrong!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "foobar")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateWithSalt(t *testing.T) {
	svc := newTestUserService(setupDB(t))
	ctx := context.Background()
	user := createUser(t, svc, "Ann")

	got, err := svc.AuthenticateWithSalt(ctx, user.ID, user.Salt)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.AuthenticateWithSalt(ctx, user.ID, "stale")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.AuthenticateWithSalt(ctx, "missing", user.Salt)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.AuthenticateWithSalt(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateUser_RotatesSalt(t *testing.T) {
	svc := newTestUserService(setupDB(t))
	ctx := context.Background()
	user := createUser(t, svc, "Ann")

	updated, err := svc.UpdateUser(ctx, user.ID, models.UserForm{
		Name: "New Name", Email: "user@example.org", Password: "barbaz", PasswordConfirmation: "barbaz",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "user@example.org", updated.Email)
	assert.NotEqual(t, user.Salt, updated.Salt)

	_, err = svc.Authenticate(ctx, "user@example.org", "barbaz")
	require.NoError(t, err)
}

func TestUpdateUser_KeepsOwnEmail(t *testing.T) {
	svc := newTestUserService(setupDB(t))
	ctx := context.Background()
	user := createUser(t, svc, "Ann")

	_, err := svc.UpdateUser(ctx, user.ID, models.UserForm{
		Name: "Ann B", Email: user.Email, Password: "foobar", PasswordConfirmation: "foobar",
	})
	require.NoError(t, err)
}

func TestUpdateUser_NotFound(t *testing.T) {
	svc := newTestUserService(setupDB(t))

	_, err := svc.UpdateUser(context.Background(), "missing", models.UserForm{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateUser_MultiBytePassword(t *testing.T) {
	svc := newTestUserService(setupDB(t))
	ctx := context.Background()

	// 40 runes, 80 bytes
	password := strings.Repeat("ü", 40)
	user, err := svc.CreateUser(ctx, models.UserForm{
		Name: "Umlaut", Email: "umlaut@example.com", Password: password, PasswordConfirmation: password,
	})
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, user.Email, password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// bcrypt alone would ignore everything past byte 72
	_, err = svc.Authenticate(ctx, user.Email, strings.Repeat("ü", 36)+"üüüx")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	updated := strings.Repeat("密", 30)
	_, err = svc.UpdateUser(ctx, user.ID, models.UserForm{
		Name: "Umlaut", Email: user.Email, Password: updated, PasswordConfirmation: updated,
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, user.Email, updated)
	require.NoError(t, err)
}

func TestListUsers_Paginates(t *testing.T) {
	svc := newTestUserService(setupDB(t))
	ctx := context.Background()
	for i := 0; i < 33; i++ {
		createUser(t, svc, fmt.Sprintf("User %02d", i))
	}

	first, err := svc.ListUsers(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, first.Items, 30)
	assert.Equal(t, 33, first.Total)
	assert.Equal(t, "User 00", first.Items[0].Name)
	assert.True(t, first.HasNext())

	second, err := svc.ListUsers(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, second.Items, 3)
	assert.Equal(t, "User 32", second.Items[2].Name)
}

func TestDeleteUser_CascadesToPostsAndRelationships(t *testing.T) {
	db := setupDB(t)
	users := newTestUserService(db)
	posts := NewMicropostService(db)
	rels := NewRelationshipService(db)
	ctx := context.Background()

	ann := createUser(t, users, "Ann")
	bob := createUser(t, users, "Bob")
	_, err := posts.CreateMicropost(ctx, ann.ID, "hello")
	require.NoError(t, err)
	_, err = rels.Follow(ctx, ann.ID, bob.ID)
	require.NoError(t, err)
	_, err = rels.Follow(ctx, bob.ID, ann.ID)
	require.NoError(t, err)

	require.NoError(t, users.DeleteUser(ctx, ann.ID))

	n, err := posts.CountMicroposts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = rels.CountFollowers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = rels.CountFollowing(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, users.DeleteUser(ctx, ann.ID), ErrNotFound)
}

func TestSetAdmin(t *testing.T) {
	svc := newTestUserService(setupDB(t))
	ctx := context.Background()
	user := createUser(t, svc, "Ann")

	require.NoError(t, svc.SetAdmin(ctx, user.ID, true))
	got, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Admin)

	assert.ErrorIs(t, svc.SetAdmin(ctx, "missing", true), ErrNotFound)
}

func TestGetUserByID_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs("u1").
		WillReturnError(errors.New("disk I/O error"))

	_, err = NewUserService(db).GetUserByID(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_InsertErrorPassesThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE email = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// Only a driver constraint code marks a duplicate, never the message text.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("UNIQUE constraint failed: users.email"))

	_, err = newTestUserService(db).CreateUser(context.Background(), models.UserForm{
		Name: "A", Email: "race@example.com", Password: "foobar", PasswordConfirmation: "foobar",
	})
	require.Error(t, err)
	var verrs models.ValidationErrors
	assert.False(t, errors.As(err, &verrs))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	user := createUser(t, newTestUserService(db), "Ann")

	_, err := db.ExecContext(ctx,
		"INSERT INTO users("+userColumns+") VALUES(?, ?, ?, ?, ?, ?, ?, ?)",
		"another-id", "Copy", user.Email, "x", "y", false, user.CreatedAt, user.UpdatedAt)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert user: %w", err)))

	_, err = db.ExecContext(ctx,
		"INSERT INTO microposts (id, content, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		"m1", "orphan", "no-such-user", user.CreatedAt, user.UpdatedAt)
	require.Error(t, err)
	assert.False(t, isUniqueViolation(err))

	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
}
