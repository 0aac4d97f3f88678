package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/career-compass/internal/config"
	"github.com/khoahotran/career-compass/pkg/auth"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	fmt.Println("adding demo profile into database...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	externalID := envOr("PROFILE_EXTERNAL_ID", "u1")
	name := envOr("PROFILE_NAME", "Alice")
	skills := envOr("PROFILE_SKILLS", "Python")
	education := os.Getenv("PROFILE_EDUCATION_LEVEL")
	preferences := os.Getenv("PROFILE_PREFERENCES")

	var age *int
	if raw := os.Getenv("PROFILE_AGE"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("PROFILE_AGE must be a number: %v", err)
		}
		age = &v
	}

	pool, err := pgxpool.New(context.Background(), cfg.DB.DSN)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	query := `
		INSERT INTO user_profiles (external_id, name, age, education_level, skills, preferences)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			education_level = EXCLUDED.education_level,
			skills = EXCLUDED.skills,
			preferences = EXCLUDED.preferences,
			updated_at = NOW()
		RETURNING id
	`
	var id int64
	err = pool.QueryRow(context.Background(), query, externalID, name, age, education, skills, preferences).Scan(&id)
	if err != nil {
		log.Fatalf("cannot add profile: %v", err)
	}
	fmt.Printf("added or updated profile '%s' (id %d) successfully!\n", externalID, id)

	if cfg.Auth.JWTSecret != "" {
		token, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).GenerateToken(externalID)
		if err != nil {
			log.Fatalf("cannot issue token: %v", err)
		}
		fmt.Printf("bearer token: %s\n", token)
	}
}
