package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/isdelr/sample-app/internal/database"
	"github.com/isdelr/sample-app/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func newTestUserService(db *sql.DB) *UserService {
	return NewUserService(db).WithPasswordCost(bcrypt.MinCost)
}

var emailSeq atomic.Int64

func createUser(t *testing.T, svc *UserService, name string) models.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), models.UserForm{
		Name:                 name,
		Email:                fmt.Sprintf("person-%d@example.com", emailSeq.Add(1)),
		Password:             "foobar",
		PasswordConfirmation: "foobar",
	})
	require.NoError(t, err)
	return user
}
