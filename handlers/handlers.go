package handlers

import (
	"bookreview-server/database"
)

// DB is the shared database handle used by all route handlers.
var DB *database.DB

// InitializeHandlers wires the database connection into the handlers package
func InitializeHandlers(db *database.DB) {
	DB = db
}
