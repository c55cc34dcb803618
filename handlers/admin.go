package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware checks if the authenticated user is an admin. The
// role is re-read from the database so a revoked admin can't keep
// using an old token. Must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			c.Abort()
			return
		}

		var role string
		query := `SELECT role FROM users WHERE id = $1`
		err := DB.QueryRow(query, userID).Scan(&role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to check user role"})
			c.Abort()
			return
		}

		if role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetAdminStats returns catalog-wide totals for the admin dashboard
func GetAdminStats(c *gin.Context) {
	var totalBooks, totalUsers, totalReviews int
	var averageRating float64

	query := `SELECT
	          (SELECT COUNT(*) FROM books),
	          (SELECT COUNT(*) FROM users),
	          (SELECT COUNT(*) FROM reviews),
	          (SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) FROM reviews)`
	err := DB.QueryRow(query).Scan(&totalBooks, &totalUsers, &totalReviews, &averageRating)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalBooks":    totalBooks,
		"totalUsers":    totalUsers,
		"totalReviews":  totalReviews,
		"averageRating": averageRating,
	})
}
