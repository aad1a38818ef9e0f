package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres opens the credential store. PostgreSQL plays the "auth
// provider" role: it holds only sign-in credentials (uid, email, password
// hash); everything the chat UI reads lives in MongoDB.
func ConnectPostgres(postgresURI string) error {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	PostgresDB = db

	if err := ensureCredentialsTable(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")
	return nil
}

func ensureCredentialsTable() error {
	_, err := PostgresDB.Exec(`
		CREATE TABLE IF NOT EXISTS credentials (
			uid        UUID PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			password   TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
