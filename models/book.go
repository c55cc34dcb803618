package models

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	Description   string    `json:"description" db:"description"`
	Genre         string    `json:"genre" db:"genre"`
	ISBN          *string   `json:"isbn,omitempty" db:"isbn"`
	PublishedDate time.Time `json:"publishedDate" db:"published_date"`
	CoverImage    string    `json:"coverImage" db:"cover_image"`
	Pages         *int      `json:"pages,omitempty" db:"pages"`
	Publisher     *string   `json:"publisher,omitempty" db:"publisher"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// BookWithRating is a row of the books_with_ratings view: a book plus
// the aggregate rating over its reviews.
type BookWithRating struct {
	Book
	Rating      float64 `json:"rating" db:"rating"`
	ReviewCount int     `json:"reviewCount" db:"review_count"`
}

func (Book) TableName() string {
	return "books"
}

func (Book) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS books (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		description TEXT NOT NULL,
		genre TEXT NOT NULL,
		isbn TEXT,
		published_date TIMESTAMP WITH TIME ZONE NOT NULL,
		cover_image TEXT NOT NULL,
		pages INTEGER,
		publisher TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}
