package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func authRouter() *gin.Engine {
	r := gin.New()
	r.POST("/api/auth/register", Register)
	r.POST("/api/auth/login", Login)
	r.POST("/api/auth/logout", Logout)
	r.GET("/api/auth/validate", AuthMiddleware(), ValidateToken)
	return r
}

// protectedProbe exposes what AuthMiddleware attached to the context.
func protectedProbe() *gin.Engine {
	r := gin.New()
	r.GET("/probe", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(200, gin.H{
			"userId": c.GetString("user_id"),
			"role":   c.GetString("user_role"),
		})
	})
	return r
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	w := performRequest(protectedProbe(), "GET", "/probe", nil)
	assert.Equal(t, 401, w.Code)
}

func TestAuthMiddlewareBadFormat(t *testing.T) {
	rec := performRequestWithHeader(protectedProbe(), "GET", "/probe", "Token abc123")
	assert.Equal(t, 401, rec.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	rec := performRequestWithHeader(protectedProbe(), "GET", "/probe", "Bearer not.a.jwt")
	assert.Equal(t, 401, rec.Code)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	userID := uuid.NewString()
	token, err := generateJWT(userID, "jane@example.com", "user")
	require.NoError(t, err)

	rec := performRequestWithHeader(protectedProbe(), "GET", "/probe", "Bearer "+token)
	require.Equal(t, 200, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, userID, resp["userId"])
	assert.Equal(t, "user", resp["role"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE email = \$1\)`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	body := `{"name":"Jane Doe","email":"jane@example.com","password":"secret123"}`
	w := performRequest(authRouter(), "POST", "/api/auth/register", strings.NewReader(body))
	require.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "already registered")
}

func TestRegisterLowercasesEmail(t *testing.T) {
	mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE email = \$1\)`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Jane Doe", "jane@example.com", sqlmock.AnyArg(), "user", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id.String(), time.Now()))

	body := `{"name":"Jane Doe","email":"Jane@Example.COM","password":"secret123"}`
	w := performRequest(authRouter(), "POST", "/api/auth/register", strings.NewReader(body))
	require.Equal(t, 201, w.Code)

	var resp struct {
		User struct {
			ID    uuid.UUID `json:"id"`
			Email string    `json:"email"`
		} `json:"user"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.User.ID)
	assert.Equal(t, "jane@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterShortPassword(t *testing.T) {
	newMockDB(t)

	body := `{"name":"Jane Doe","email":"jane@example.com","password":"abc"}`
	w := performRequest(authRouter(), "POST", "/api/auth/register", strings.NewReader(body))
	require.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "password")
}

func TestLoginWrongPassword(t *testing.T) {
	mock := newMockDB(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	row := sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "avatar", "created_at"}).
		AddRow(uuid.NewString(), "Jane", "jane@example.com", string(hash), "user", nil, time.Now())
	mock.ExpectQuery(`FROM users WHERE email = \$1`).WillReturnRows(row)

	body := `{"email":"jane@example.com","password":"wrong-password"}`
	w := performRequest(authRouter(), "POST", "/api/auth/login", strings.NewReader(body))
	assert.Equal(t, 401, w.Code)
}

func TestLoginSuccessOmitsPasswordHash(t *testing.T) {
	mock := newMockDB(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	row := sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "avatar", "created_at"}).
		AddRow(uuid.NewString(), "Jane", "jane@example.com", string(hash), "user", nil, time.Now())
	mock.ExpectQuery(`FROM users WHERE email = \$1`).WillReturnRows(row)

	body := `{"email":"jane@example.com","password":"correct-password"}`
	w := performRequest(authRouter(), "POST", "/api/auth/login", strings.NewReader(body))
	require.Equal(t, 200, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Body.String(), "token")
}

func TestLoginUnknownEmail(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "avatar", "created_at"}))

	body := `{"email":"nobody@example.com","password":"whatever1"}`
	w := performRequest(authRouter(), "POST", "/api/auth/login", strings.NewReader(body))
	assert.Equal(t, 401, w.Code)
}

func TestValidateToken(t *testing.T) {
	mock := newMockDB(t)
	userID := uuid.New()

	token, err := generateJWT(userID.String(), "jane@example.com", "user")
	require.NoError(t, err)

	row := sqlmock.NewRows([]string{"id", "name", "email", "role", "avatar", "created_at"}).
		AddRow(userID.String(), "Jane", "jane@example.com", "user", nil, time.Now())
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WillReturnRows(row)

	rec := performRequestWithHeader(authRouter(), "GET", "/api/auth/validate", "Bearer "+token)
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":true`)
}

func TestAdminMiddlewareForbiddenForUserRole(t *testing.T) {
	mock := newMockDB(t)
	userID := uuid.NewString()

	mock.ExpectQuery(`SELECT role FROM users WHERE id = \$1`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("user"))

	r := gin.New()
	r.GET("/admin-only", fakeAuth(userID, "user"), AdminMiddleware(), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	w := performRequest(r, "GET", "/admin-only", nil)
	assert.Equal(t, 403, w.Code)
}

func TestAdminMiddlewareAllowsAdmin(t *testing.T) {
	mock := newMockDB(t)
	userID := uuid.NewString()

	mock.ExpectQuery(`SELECT role FROM users WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))

	r := gin.New()
	r.GET("/admin-only", fakeAuth(userID, "admin"), AdminMiddleware(), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	w := performRequest(r, "GET", "/admin-only", nil)
	assert.Equal(t, 200, w.Code)
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := generateJWT("some-id", "jane@example.com", "admin")
	require.NoError(t, err)

	claims, err := parseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "some-id", claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.True(t, claims.ExpiresAt.After(time.Now().Add(6*24*time.Hour)))
}

func TestGetAdminStats(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{"books", "users", "reviews", "avg"}).
			AddRow(10, 4, 25, 4.12))

	r := gin.New()
	r.GET("/api/admin/stats", fakeAuth(uuid.NewString(), "admin"), GetAdminStats)
	w := performRequest(r, "GET", "/api/admin/stats", nil)
	require.Equal(t, 200, w.Code)

	var resp map[string]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(10), resp["totalBooks"])
	assert.Equal(t, 4.12, resp["averageRating"])
}

func performRequestWithHeader(r *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", authorization)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
