package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/capsulevault/timecapsule/config"
	"github.com/capsulevault/timecapsule/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	username := "demo"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (username, password_hash, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET updated_at = now()
		RETURNING id
	`, username, hash, "").Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s username=%s password=%s\n", id, username, password)

	now := time.Now().UTC()
	rows := [][2]any{
		{"A message from the past.", now.Add(-time.Hour)},
		{"A message for the future.", now.Add(24 * time.Hour)},
	}
	for _, r := range rows {
		var capID int64
		if err := db.QueryRow(`
			INSERT INTO capsules (text, date_open, author_id)
			VALUES ($1, $2, $3)
			RETURNING id
		`, r[0], r[1], id).Scan(&capID); err != nil {
			log.Fatalf("failed to seed capsule: %v", err)
		}
		fmt.Printf("seeded capsule: id=%d date_open=%v\n", capID, r[1])
	}
}
