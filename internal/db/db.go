package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/yourorg/gensanfare/internal/transit"
)

// Connect returns a MariaDB connection using env vars.
func Connect() (*sql.DB, error) {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASS")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3306"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4,utf8", user, pass, host, port, name)
	return sql.Open("mysql", dsn)
}

// EnsureSchema creates required tables if not exist.
func EnsureSchema(db *sql.DB) error {
	if skip := strings.TrimSpace(os.Getenv("DB_SKIP_SCHEMA")); strings.EqualFold(skip, "true") || skip == "1" {
		log.Printf("EnsureSchema: skipped (DB_SKIP_SCHEMA=%q)", skip)
		return nil
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS fixed_routes (
			route_key VARCHAR(64) PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			color VARCHAR(16) NOT NULL,
			position INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS fixed_route_stops (
			route_key VARCHAR(64) NOT NULL,
			seq INT NOT NULL,
			name VARCHAR(255) NOT NULL,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			PRIMARY KEY (route_key, seq),
			FOREIGN KEY (route_key) REFERENCES fixed_routes(route_key) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE INDEX idx_fixed_route_stops_latlon ON fixed_route_stops(latitude, longitude);
	`); err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") {
			// index already exists, nothing to do
		} else if strings.Contains(errMsg, "permission denied") {
			log.Printf("EnsureSchema: unable to create fixed_route_stops index (permission denied): %v", err)
		} else {
			return err
		}
	}

	return nil
}

// Seed inserts the built-in route catalog when the tables are empty, so a
// fresh database serves the surveyed lines without manual loading.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM fixed_routes`).Scan(&count); err != nil {
		return fmt.Errorf("counting fixed_routes: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for pos, route := range transit.BuiltIn().List() {
		if _, err := tx.Exec(`
			INSERT INTO fixed_routes (route_key, name, color, position)
			VALUES (?, ?, ?, ?)
		`, route.Key, route.Name, route.Color, pos); err != nil {
			return fmt.Errorf("seeding route %s: %w", route.Key, err)
		}

		for _, stop := range route.Stops {
			if _, err := tx.Exec(`
				INSERT INTO fixed_route_stops (route_key, seq, name, latitude, longitude)
				VALUES (?, ?, ?, ?, ?)
			`, route.Key, stop.Seq, stop.Label, stop.Coord.Lat, stop.Coord.Lon); err != nil {
				return fmt.Errorf("seeding stop %d of %s: %w", stop.Seq, route.Key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("✅ Seeded %d built-in routes", transit.BuiltIn().Len())
	return nil
}
