package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"bookreview-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const bookWithRatingColumns = `id, title, author, description, genre, isbn, published_date,
	       cover_image, pages, publisher, created_at, rating, review_count`

// Whitelisted sortBy values mapped to view columns. Anything else
// falls back to title ascending.
var bookSortFields = map[string]string{
	"title":         "title",
	"author":        "author",
	"rating":        "rating",
	"publishedDate": "published_date",
	"reviewCount":   "review_count",
}

func scanBookWithRating(row interface{ Scan(...interface{}) error }) (models.BookWithRating, error) {
	var book models.BookWithRating
	err := row.Scan(
		&book.ID, &book.Title, &book.Author, &book.Description, &book.Genre,
		&book.ISBN, &book.PublishedDate, &book.CoverImage, &book.Pages,
		&book.Publisher, &book.CreatedAt, &book.Rating, &book.ReviewCount,
	)
	return book, err
}

// parsePublishedDate accepts a full RFC 3339 timestamp or a plain
// YYYY-MM-DD date and normalizes to UTC.
func parsePublishedDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// GetBooks returns a page of the catalog with optional search, genre
// and featured filters
func GetBooks(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 12)
	search := c.Query("search")
	genre := c.Query("genre")
	featured := c.Query("featured") == "true"
	sortBy := c.DefaultQuery("sortBy", "title")
	sortOrder := c.DefaultQuery("sortOrder", "asc")

	var conditions []string
	var args []interface{}

	if search != "" {
		args = append(args, "%"+search+"%")
		p := fmt.Sprintf("$%d", len(args))
		conditions = append(conditions,
			fmt.Sprintf("(title ILIKE %s OR author ILIKE %s OR description ILIKE %s)", p, p, p))
	}
	if genre != "" {
		args = append(args, genre)
		conditions = append(conditions, fmt.Sprintf("genre = $%d", len(args)))
	}
	if featured {
		conditions = append(conditions, "rating >= 4.0")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	orderColumn, ok := bookSortFields[sortBy]
	if !ok {
		orderColumn = "title"
		sortOrder = "asc"
	}
	direction := "ASC"
	if sortOrder == "desc" {
		direction = "DESC"
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM books_with_ratings` + whereClause
	if err := DB.QueryRow(countQuery, args...).Scan(&total); err != nil {
		log.Printf("Error counting books: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch books"})
		return
	}

	offset := (page - 1) * limit
	listQuery := fmt.Sprintf(`SELECT %s FROM books_with_ratings%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		bookWithRatingColumns, whereClause, orderColumn, direction, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := DB.Query(listQuery, args...)
	if err != nil {
		log.Printf("Error fetching books: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch books"})
		return
	}
	defer rows.Close()

	books := []models.BookWithRating{}
	for rows.Next() {
		book, err := scanBookWithRating(rows)
		if err != nil {
			log.Printf("Error scanning book: %v", err)
			continue
		}
		books = append(books, book)
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": totalPages(total, limit),
		},
	})
}

// GetBook returns a single book with its aggregate rating
func GetBook(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Book not found"})
		return
	}

	query := fmt.Sprintf(`SELECT %s FROM books_with_ratings WHERE id = $1`, bookWithRatingColumns)
	book, err := scanBookWithRating(DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"message": "Book not found"})
		return
	}
	if err != nil {
		log.Printf("Error fetching book %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch book"})
		return
	}

	c.JSON(http.StatusOK, book)
}

type createBookRequest struct {
	Title         string  `json:"title" binding:"required,min=1,max=200"`
	Author        string  `json:"author" binding:"required,min=1,max=100"`
	Description   string  `json:"description" binding:"required,min=10,max=2000"`
	Genre         string  `json:"genre" binding:"required,min=1,max=50"`
	ISBN          *string `json:"isbn" binding:"omitempty,max=20"`
	PublishedDate string  `json:"publishedDate" binding:"required"`
	CoverImage    string  `json:"coverImage" binding:"required,url"`
	Pages         *int    `json:"pages" binding:"omitempty,min=1"`
	Publisher     *string `json:"publisher" binding:"omitempty,max=100"`
}

// CreateBook adds a book to the catalog (admin only)
func CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingErrorMessage(err)})
		return
	}

	publishedDate, err := parsePublishedDate(req.PublishedDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "publishedDate must be a valid date"})
		return
	}

	var book models.Book
	query := `INSERT INTO books (title, author, description, genre, isbn, published_date,
	                             cover_image, pages, publisher)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id, title, author, description, genre, isbn, published_date,
	                    cover_image, pages, publisher, created_at`
	err = DB.QueryRow(query,
		req.Title, req.Author, req.Description, req.Genre, req.ISBN,
		publishedDate, req.CoverImage, req.Pages, req.Publisher,
	).Scan(
		&book.ID, &book.Title, &book.Author, &book.Description, &book.Genre,
		&book.ISBN, &book.PublishedDate, &book.CoverImage, &book.Pages,
		&book.Publisher, &book.CreatedAt,
	)
	if err != nil {
		log.Printf("Error creating book: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create book"})
		return
	}

	c.JSON(http.StatusCreated, book)
}

type updateBookRequest struct {
	Title         *string `json:"title" binding:"omitempty,min=1,max=200"`
	Author        *string `json:"author" binding:"omitempty,min=1,max=100"`
	Description   *string `json:"description" binding:"omitempty,min=10,max=2000"`
	Genre         *string `json:"genre" binding:"omitempty,min=1,max=50"`
	ISBN          *string `json:"isbn" binding:"omitempty,max=20"`
	PublishedDate *string `json:"publishedDate" binding:"omitempty"`
	CoverImage    *string `json:"coverImage" binding:"omitempty,url"`
	Pages         *int    `json:"pages" binding:"omitempty,min=1"`
	Publisher     *string `json:"publisher" binding:"omitempty,max=100"`
}

// UpdateBook replaces the provided fields of a book (admin only)
func UpdateBook(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid book ID"})
		return
	}

	var req updateBookRequest
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

	if req.Title != nil {
		addAssignment("title", *req.Title)
	}
	if req.Author != nil {
		addAssignment("author", *req.Author)
	}
	if req.Description != nil {
		addAssignment("description", *req.Description)
	}
	if req.Genre != nil {
		addAssignment("genre", *req.Genre)
	}
	if req.ISBN != nil {
		addAssignment("isbn", *req.ISBN)
	}
	if req.PublishedDate != nil {
		publishedDate, err := parsePublishedDate(*req.PublishedDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "publishedDate must be a valid date"})
			return
		}
		addAssignment("published_date", publishedDate)
	}
	if req.CoverImage != nil {
		addAssignment("cover_image", *req.CoverImage)
	}
	if req.Pages != nil {
		addAssignment("pages", *req.Pages)
	}
	if req.Publisher != nil {
		addAssignment("publisher", *req.Publisher)
	}

	if len(assignments) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No fields to update"})
		return
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE books SET %s WHERE id = $%d
	          RETURNING id, title, author, description, genre, isbn, published_date,
	                    cover_image, pages, publisher, created_at`,
		strings.Join(assignments, ", "), len(args))

	var book models.Book
	err := DB.QueryRow(query, args...).Scan(
		&book.ID, &book.Title, &book.Author, &book.Description, &book.Genre,
		&book.ISBN, &book.PublishedDate, &book.CoverImage, &book.Pages,
		&book.Publisher, &book.CreatedAt,
	)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"message": "Book not found"})
		return
	}
	if err != nil {
		log.Printf("Error updating book %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update book"})
		return
	}

	c.JSON(http.StatusOK, book)
}

// DeleteBook removes a book and, via cascade, its reviews (admin only)
func DeleteBook(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid book ID"})
		return
	}

	result, err := DB.Exec(`DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		log.Printf("Error deleting book %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete book"})
		return
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Book not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}
