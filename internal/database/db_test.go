package database

import (
	"strings"
	"testing"

	"github.com/addislearn/learning-platform/internal/config"
)

func TestDSNIncludesDriverOptions(t *testing.T) {
	cfg := config.Config{
		DBUser: "app", DBPass: "s3cret",
		DBHost: "db", DBPort: "3306", DBName: "learning",
	}
	got := dsn(cfg)

	if !strings.HasPrefix(got, "app:s3cret@tcp(db:3306)/learning?") {
		t.Fatalf("unexpected dsn prefix: %s", got)
	}
	for _, opt := range []string{"parseTime=true", "loc=UTC", "charset=utf8mb4", "collation=utf8mb4_unicode_ci"} {
		if !strings.Contains(got, opt) {
			t.Errorf("dsn missing %s: %s", opt, got)
		}
	}
}

func TestDSNOmitsEmptyPassword(t *testing.T) {
	cfg := config.Config{
		DBUser: "app",
		DBHost: "localhost", DBPort: "3306", DBName: "learning",
	}
	got := dsn(cfg)

	if !strings.HasPrefix(got, "app@tcp(localhost:3306)/learning?") {
		t.Fatalf("expected no credential separator for empty password: %s", got)
	}
}
