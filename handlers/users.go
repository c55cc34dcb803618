package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"

	"bookreview-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requireSelfOrAdmin enforces the profile access rule: users may only
// touch their own record unless they are an admin. Returns false after
// writing the response when access is denied.
func requireSelfOrAdmin(c *gin.Context, targetID string) bool {
	if c.GetString("user_id") != targetID && c.GetString("user_role") != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
		return false
	}
	return true
}

// GetUser returns a user profile without credential fields
func GetUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if !requireSelfOrAdmin(c, id) {
		return
	}

	var user models.User
	query := `SELECT id, name, email, role, avatar, created_at
	          FROM users WHERE id = $1`
	err := DB.QueryRow(query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.Role, &user.Avatar, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		log.Printf("Error fetching user %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser updates the provided profile fields
func UpdateUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if !requireSelfOrAdmin(c, id) {
		return
	}

	var req struct {
		Name   *string `json:"name" binding:"omitempty,min=2,max=50"`
		Email  *string `json:"email" binding:"omitempty,email"`
		Avatar *string `json:"avatar" binding:"omitempty,url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingErrorMessage(err)})
		return
	}

	var assignments []string
	var args []interface{}
	addAssignment := func(column string, value interface{}) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Name != nil {
		addAssignment("name", strings.TrimSpace(*req.Name))
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))

		var taken bool
		err := DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`,
			email, id).Scan(&taken)
		if err != nil {
			log.Printf("Error checking email availability: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update user"})
			return
		}
		if taken {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email already taken"})
			return
		}
		addAssignment("email", email)
	}
	if req.Avatar != nil {
		addAssignment("avatar", *req.Avatar)
	}

	if len(assignments) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No fields to update"})
		return
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d
	          RETURNING id, name, email, role, avatar, created_at`,
		strings.Join(assignments, ", "), len(args))

	var user models.User
	err := DB.QueryRow(query, args...).Scan(
		&user.ID, &user.Name, &user.Email, &user.Role, &user.Avatar, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		log.Printf("Error updating user %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUserReviews returns a user's reviews with book display fields,
// newest first
func GetUserReviews(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if !requireSelfOrAdmin(c, id) {
		return
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)
	offset := (page - 1) * limit

	query := `SELECT id, book_id, user_id, rating, comment, created_at,
	                 book_title, book_author, book_cover_image
	          FROM reviews_with_books
	          WHERE user_id = $1
	          ORDER BY created_at DESC
	          LIMIT $2 OFFSET $3`
	rows, err := DB.Query(query, id, limit, offset)
	if err != nil {
		log.Printf("Error fetching reviews for user %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch reviews"})
		return
	}
	defer rows.Close()

	reviews := []models.ReviewWithBook{}
	for rows.Next() {
		var review models.ReviewWithBook
		err := rows.Scan(
			&review.ID, &review.BookID, &review.UserID, &review.Rating,
			&review.Comment, &review.CreatedAt,
			&review.BookTitle, &review.BookAuthor, &review.BookCoverImage,
		)
		if err != nil {
			log.Printf("Error scanning user review: %v", err)
			continue
		}
		reviews = append(reviews, review)
	}

	c.JSON(http.StatusOK, reviews)
}
