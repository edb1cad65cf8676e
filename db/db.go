package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

// Store wraps the Postgres connection holding the profiles table.
type Store struct {
	db *sql.DB
}

// Init opens the database connection using DATABASE_URL.
func Init() (*Store, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	conn, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	log.Println("Successfully connected to profiles database")
	return &Store{db: conn}, nil
}

// Close closes the database connection
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
