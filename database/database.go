package database

import (
	"database/sql"
	"fmt"
	"log"

	"bookreview-server/models"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

var Database *DB

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	Database = &DB{db}
	return Database, nil
}

// InitializeTables creates all tables and read views if they don't exist
func (db *DB) InitializeTables() error {
	// Enable pgcrypto extension for gen_random_uuid
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`); err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	// Order matters: reviews reference books and users
	tables := []interface{}{
		models.User{},
		models.Book{},
		models.Review{},
	}

	for _, model := range tables {
		if tableModel, ok := model.(interface {
			TableName() string
			CreateTableSQL() string
		}); ok {
			tableName := tableModel.TableName()

			log.Printf("Creating table: %s", tableName)
			if _, err := db.Exec(tableModel.CreateTableSQL()); err != nil {
				return fmt.Errorf("failed to create table %s: %w", tableName, err)
			}
		}
	}

	return db.initializeViews()
}

// initializeViews creates the denormalized read views the handlers
// query: books with their aggregate rating, and reviews enriched with
// reviewer or book display fields.
func (db *DB) initializeViews() error {
	views := []string{
		`CREATE OR REPLACE VIEW books_with_ratings AS
		SELECT b.*,
		       COALESCE(ROUND(AVG(r.rating)::numeric, 2), 0)::float8 AS rating,
		       COUNT(r.id)::int AS review_count
		FROM books b
		LEFT JOIN reviews r ON r.book_id = b.id
		GROUP BY b.id;`,

		`CREATE OR REPLACE VIEW reviews_with_users AS
		SELECT r.*, u.name AS user_name, u.avatar AS user_avatar
		FROM reviews r
		JOIN users u ON u.id = r.user_id;`,

		`CREATE OR REPLACE VIEW reviews_with_books AS
		SELECT r.*, b.title AS book_title, b.author AS book_author,
		       b.cover_image AS book_cover_image
		FROM reviews r
		JOIN books b ON b.id = r.book_id;`,
	}

	for _, view := range views {
		if _, err := db.Exec(view); err != nil {
			return fmt.Errorf("failed to create view: %w", err)
		}
	}

	return nil
}
