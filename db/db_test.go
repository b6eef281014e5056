package db

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/taskmanager-dev/taskmanager/internal/models"
	"gorm.io/gorm"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	got, err := normalizeMySQLDSN("user:pass@tcp(localhost:3306)/tasks")
	if err != nil {
		t.Fatalf("normalizeMySQLDSN() failed: %v", err)
	}

	if !strings.Contains(got, "parseTime=true") {
		t.Errorf("expected parseTime=true in %q", got)
	}

	if _, err := normalizeMySQLDSN("not a dsn"); err == nil {
		t.Error("expected an invalid DSN to fail")
	}
}

func TestDialectorForUnknownDriver(t *testing.T) {
	if _, err := dialectorFor("oracle", "x"); err == nil {
		t.Error("expected unsupported driver to fail")
	}
}

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm", fmt.Errorf("wrapped: %w", gorm.ErrDuplicatedKey), true},
		{"postgres unique", &pq.Error{Code: "23505"}, true},
		{"postgres other", &pq.Error{Code: "23503"}, false},
		{"mysql duplicate", &gomysql.MySQLError{Number: 1062}, true},
		{"mysql other", &gomysql.MySQLError{Number: 1045}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateKey(tt.err); got != tt.want {
				t.Errorf("IsDuplicateKey(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	conn, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := Migrate(conn); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	for _, table := range []string{"users", "credentials", "projects", "tasks", "tags", "project_members", "task_tags"} {
		if !conn.Migrator().HasTable(table) {
			t.Errorf("expected table %s to exist", table)
		}
	}

	user := models.User{Name: "Alice", Email: "alice@example.com"}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	first := models.Credentials{Username: "alice", PasswordHash: "x", UserID: user.ID}
	if err := conn.Omit("User").Create(&first).Error; err != nil {
		t.Fatalf("create credentials failed: %v", err)
	}

	second := models.Credentials{Username: "alice", PasswordHash: "y", UserID: user.ID + 1}
	err = conn.Omit("User").Create(&second).Error

	if !IsDuplicateKey(err) {
		t.Errorf("expected duplicate key error, got %v", err)
	}

	var missing models.User
	if err := conn.First(&missing, 999).Error; !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}
