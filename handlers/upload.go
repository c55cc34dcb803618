package handlers

import (
	"log"
	"net/http"

	"bookreview-server/services"

	"github.com/gin-gonic/gin"
)

// UploadCoverImage uploads a book cover image and returns its URL for
// use in a book's coverImage field (admin only)
func UploadCoverImage(c *gin.Context) {
	uploadImage(c, "book-covers", nil)
}

// UploadAvatar uploads an avatar for the authenticated user and stores
// its URL on the user's profile
func UploadAvatar(c *gin.Context) {
	userID := c.GetString("user_id")
	uploadImage(c, "avatars", func(url string) error {
		_, err := DB.Exec(`UPDATE users SET avatar = $1 WHERE id = $2`, url, userID)
		return err
	})
}

func uploadImage(c *gin.Context, folder string, onUploaded func(url string) error) {
	if services.Cloudinary == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Image uploads are not configured"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "image file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	result, err := services.Cloudinary.UploadImage(file, folder)
	if err != nil {
		log.Printf("Error uploading image to %s: %v", folder, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to upload image"})
		return
	}

	if onUploaded != nil {
		if err := onUploaded(result.SecureURL); err != nil {
			log.Printf("Error saving uploaded image URL: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save image"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"url": result.SecureURL})
}
