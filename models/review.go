package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookID    uuid.UUID `json:"bookId" db:"book_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ReviewWithUser is a row of the reviews_with_users view, joining in
// the reviewer's display fields.
type ReviewWithUser struct {
	Review
	UserName   string  `json:"userName" db:"user_name"`
	UserAvatar *string `json:"userAvatar,omitempty" db:"user_avatar"`
}

// ReviewWithBook is a row of the reviews_with_books view, joining in
// the reviewed book's display fields.
type ReviewWithBook struct {
	Review
	BookTitle      string `json:"bookTitle" db:"book_title"`
	BookAuthor     string `json:"bookAuthor" db:"book_author"`
	BookCoverImage string `json:"bookCoverImage" db:"book_cover_image"`
}

func (Review) TableName() string {
	return "reviews"
}

func (Review) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		book_id UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		rating SMALLINT NOT NULL CHECK (rating >= 1 AND rating <= 5),
		comment TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		UNIQUE (user_id, book_id)
	);`
}
