package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strings"

	"bookreview-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const reviewWithUserColumns = `id, book_id, user_id, rating, comment, created_at,
	       user_name, user_avatar`

func scanReviewWithUser(row interface{ Scan(...interface{}) error }) (models.ReviewWithUser, error) {
	var review models.ReviewWithUser
	err := row.Scan(
		&review.ID, &review.BookID, &review.UserID, &review.Rating,
		&review.Comment, &review.CreatedAt, &review.UserName, &review.UserAvatar,
	)
	return review, err
}

// GetReviews returns reviews for a book, newest first
func GetReviews(c *gin.Context) {
	bookID := c.Query("bookId")
	if bookID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bookId is required"})
		return
	}
	if _, err := uuid.Parse(bookID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bookId must be a valid id"})
		return
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)
	offset := (page - 1) * limit

	query := `SELECT ` + reviewWithUserColumns + `
	          FROM reviews_with_users
	          WHERE book_id = $1
	          ORDER BY created_at DESC
	          LIMIT $2 OFFSET $3`
	rows, err := DB.Query(query, bookID, limit, offset)
	if err != nil {
		log.Printf("Error fetching reviews for book %s: %v", bookID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch reviews"})
		return
	}
	defer rows.Close()

	reviews := []models.ReviewWithUser{}
	for rows.Next() {
		review, err := scanReviewWithUser(rows)
		if err != nil {
			log.Printf("Error scanning review: %v", err)
			continue
		}
		reviews = append(reviews, review)
	}

	c.JSON(http.StatusOK, reviews)
}

// CreateReview adds a review for a book. A user may review a given
// book at most once.
func CreateReview(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		BookID  string `json:"bookId" binding:"required,uuid"`
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment" binding:"required,min=10,max=1000"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingErrorMessage(err)})
		return
	}

	var alreadyReviewed bool
	err := DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM reviews WHERE book_id = $1 AND user_id = $2)`,
		req.BookID, userID).Scan(&alreadyReviewed)
	if err != nil {
		log.Printf("Error checking existing review: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create review"})
		return
	}
	if alreadyReviewed {
		c.JSON(http.StatusBadRequest, gin.H{"message": "You have already reviewed this book"})
		return
	}

	var bookExists bool
	err = DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`, req.BookID).Scan(&bookExists)
	if err != nil {
		log.Printf("Error checking book existence: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create review"})
		return
	}
	if !bookExists {
		c.JSON(http.StatusNotFound, gin.H{"message": "Book not found"})
		return
	}

	var reviewID uuid.UUID
	query := `INSERT INTO reviews (book_id, user_id, rating, comment)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	err = DB.QueryRow(query, req.BookID, userID, req.Rating, strings.TrimSpace(req.Comment)).Scan(&reviewID)
	if err != nil {
		// Concurrent duplicates land here via the UNIQUE (user_id, book_id)
		// constraint rather than the pre-check above.
		log.Printf("Error creating review: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create review"})
		return
	}

	completeQuery := `SELECT ` + reviewWithUserColumns + `
	          FROM reviews_with_users WHERE id = $1`
	review, err := scanReviewWithUser(DB.QueryRow(completeQuery, reviewID))
	if err != nil {
		log.Printf("Error fetching complete review %s: %v", reviewID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Review created but failed to fetch complete data"})
		return
	}

	c.JSON(http.StatusCreated, review)
}

// UpdateReview changes the rating or comment of the caller's own review
func UpdateReview(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Review not found or unauthorized"})
		return
	}
	userID := c.GetString("user_id")

	var req struct {
		Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
		Comment *string `json:"comment" binding:"omitempty,min=10,max=1000"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingErrorMessage(err)})
		return
	}

	// Owner-scoped fetch: someone else's review looks like a missing one.
	var existing models.Review
	query := `SELECT id, book_id, user_id, rating, comment, created_at
	          FROM reviews WHERE id = $1 AND user_id = $2`
	err := DB.QueryRow(query, id, userID).Scan(
		&existing.ID, &existing.BookID, &existing.UserID,
		&existing.Rating, &existing.Comment, &existing.CreatedAt,
	)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"message": "Review not found or unauthorized"})
		return
	}
	if err != nil {
		log.Printf("Error fetching review %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update review"})
		return
	}

	rating := existing.Rating
	if req.Rating != nil {
		rating = *req.Rating
	}
	comment := existing.Comment
	if req.Comment != nil {
		comment = strings.TrimSpace(*req.Comment)
	}

	var review models.Review
	updateQuery := `UPDATE reviews SET rating = $1, comment = $2 WHERE id = $3
	          RETURNING id, book_id, user_id, rating, comment, created_at`
	err = DB.QueryRow(updateQuery, rating, comment, id).Scan(
		&review.ID, &review.BookID, &review.UserID,
		&review.Rating, &review.Comment, &review.CreatedAt,
	)
	if err != nil {
		log.Printf("Error updating review %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update review"})
		return
	}

	c.JSON(http.StatusOK, review)
}

// DeleteReview removes a review. Allowed for its author or an admin.
func DeleteReview(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Review not found"})
		return
	}
	userID := c.GetString("user_id")
	role := c.GetString("user_role")

	var ownerID uuid.UUID
	err := DB.QueryRow(`SELECT user_id FROM reviews WHERE id = $1`, id).Scan(&ownerID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"message": "Review not found"})
		return
	}
	if err != nil {
		log.Printf("Error fetching review %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete review"})
		return
	}

	if ownerID.String() != userID && role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized to delete this review"})
		return
	}

	if _, err := DB.Exec(`DELETE FROM reviews WHERE id = $1`, id); err != nil {
		log.Printf("Error deleting review %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete review"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}
