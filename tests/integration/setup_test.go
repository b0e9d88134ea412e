//go:build integration

package integration

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/thartark/yogastudoapp-sub000/pkg/database"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "scheduling_test_db"),
	)

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	// Drop and recreate tables for clean state
	dropTables()
	if err := database.Migrate(testDB); err != nil {
		log.Fatalf("failed to auto-migrate test database: %v", err)
	}

	code := m.Run()

	dropTables()
	os.Exit(code)
}

func dropTables() {
	testDB.Exec("DROP TABLE IF EXISTS bookings")
	testDB.Exec("DROP TABLE IF EXISTS waitlist_entries")
	testDB.Exec("DROP TABLE IF EXISTS credit_balances")
	testDB.Exec("DROP TABLE IF EXISTS class_instances")
	testDB.Exec("DROP TABLE IF EXISTS class_templates")
}

func cleanTables() {
	testDB.Exec("DELETE FROM bookings")
	testDB.Exec("DELETE FROM waitlist_entries")
	testDB.Exec("DELETE FROM credit_balances")
	testDB.Exec("DELETE FROM class_instances")
	testDB.Exec("DELETE FROM class_templates")
	testDB.Exec("ALTER SEQUENCE IF EXISTS class_instances_id_seq RESTART WITH 1")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
