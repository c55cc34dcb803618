package handlers

import (
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"bookreview-server/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersRouter(requesterID, role string) *gin.Engine {
	r := gin.New()
	auth := fakeAuth(requesterID, role)
	r.GET("/api/users/:id", auth, GetUser)
	r.PUT("/api/users/:id", auth, UpdateUser)
	r.GET("/api/users/:id/reviews", auth, GetUserReviews)
	return r
}

func TestGetUserForbiddenForOtherUser(t *testing.T) {
	mock := newMockDB(t)

	w := performRequest(usersRouter(uuid.NewString(), "user"), "GET",
		"/api/users/"+uuid.NewString(), nil)
	require.Equal(t, 403, w.Code)
	// No query must have been issued.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserSelf(t *testing.T) {
	mock := newMockDB(t)
	userID := uuid.New()

	row := sqlmock.NewRows([]string{"id", "name", "email", "role", "avatar", "created_at"}).
		AddRow(userID.String(), "Jane", "jane@example.com", "user", nil, time.Now())
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WillReturnRows(row)

	w := performRequest(usersRouter(userID.String(), "user"), "GET",
		"/api/users/"+userID.String(), nil)
	require.Equal(t, 200, w.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, userID, user.ID)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestGetUserAsAdmin(t *testing.T) {
	mock := newMockDB(t)
	targetID := uuid.New()

	row := sqlmock.NewRows([]string{"id", "name", "email", "role", "avatar", "created_at"}).
		AddRow(targetID.String(), "Jane", "jane@example.com", "user", nil, time.Now())
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WillReturnRows(row)

	w := performRequest(usersRouter(uuid.NewString(), "admin"), "GET",
		"/api/users/"+targetID.String(), nil)
	assert.Equal(t, 200, w.Code)
}

func TestGetUserNotFound(t *testing.T) {
	mock := newMockDB(t)
	userID := uuid.NewString()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WillReturnError(sql.ErrNoRows)

	w := performRequest(usersRouter(userID, "user"), "GET", "/api/users/"+userID, nil)
	assert.Equal(t, 404, w.Code)
}

func TestUpdateUserEmailTaken(t *testing.T) {
	mock := newMockDB(t)
	userID := uuid.NewString()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE email = \$1 AND id <> \$2\)`).
		WithArgs("taken@example.com", userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	w := performRequest(usersRouter(userID, "user"), "PUT", "/api/users/"+userID,
		strings.NewReader(`{"email":"Taken@Example.com"}`))
	require.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "Email already taken")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserName(t *testing.T) {
	mock := newMockDB(t)
	userID := uuid.New()

	updated := sqlmock.NewRows([]string{"id", "name", "email", "role", "avatar", "created_at"}).
		AddRow(userID.String(), "New Name", "jane@example.com", "user", nil, time.Now())
	mock.ExpectQuery(`UPDATE users SET name = \$1 WHERE id = \$2`).
		WithArgs("New Name", userID.String()).
		WillReturnRows(updated)

	w := performRequest(usersRouter(userID.String(), "user"), "PUT",
		"/api/users/"+userID.String(), strings.NewReader(`{"name":"New Name"}`))
	require.Equal(t, 200, w.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "New Name", user.Name)
}

func TestUpdateUserShortName(t *testing.T) {
	newMockDB(t)
	userID := uuid.NewString()

	w := performRequest(usersRouter(userID, "user"), "PUT", "/api/users/"+userID,
		strings.NewReader(`{"name":"J"}`))
	require.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "name")
}

func TestGetUserReviewsWithBooks(t *testing.T) {
	mock := newMockDB(t)
	userID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "book_id", "user_id", "rating", "comment", "created_at",
		"book_title", "book_author", "book_cover_image",
	}).AddRow(
		uuid.NewString(), uuid.NewString(), userID.String(), 4,
		"A comment that is long enough.", time.Now(),
		"The Great Gatsby", "F. Scott Fitzgerald", "https://x/cover.jpg",
	)
	mock.ExpectQuery(`FROM reviews_with_books`).
		WithArgs(userID.String(), 10, 0).
		WillReturnRows(rows)

	w := performRequest(usersRouter(userID.String(), "user"), "GET",
		"/api/users/"+userID.String()+"/reviews", nil)
	require.Equal(t, 200, w.Code)

	var reviews []models.ReviewWithBook
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reviews))
	require.Len(t, reviews, 1)
	assert.Equal(t, "The Great Gatsby", reviews[0].BookTitle)
}

func TestGetUserReviewsForbidden(t *testing.T) {
	newMockDB(t)

	w := performRequest(usersRouter(uuid.NewString(), "user"), "GET",
		"/api/users/"+uuid.NewString()+"/reviews", nil)
	assert.Equal(t, 403, w.Code)
}
