package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
	if err := migrate.ValidateFS(migrate.Embedded, "migrations"); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"NoVersion.sql":                "-- +goose Up\n-- +goose Down\n",
		"20260101000000_missing.sql":   "-- +goose Up\nSELECT 1;\n",
		"20260101000000_Upper_Bad.sql": "-- +goose Up\n-- +goose Down\n",
	}
	for name, body := range cases {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := migrate.ValidateDir(dir); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestBusinessMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_business_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE RESTRICT",
		"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT",
		"CHECK (price > 0)",
		"CHECK (quantity_in_stock >= 0)",
		"CHECK (quantity > 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_order_id",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_email",
		"DROP TABLE IF EXISTS invoices",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestIdentityMigrationSeedsRoles(t *testing.T) {
	content := readMigration(t, "*_create_identity_tables.sql")
	for _, sub := range []string{
		"PRIMARY KEY (user_id, role_id)",
		"INSERT INTO roles (name) VALUES ('Admin'), ('User')",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEmbeddedMatchesDisk(t *testing.T) {
	entries, err := migrate.Embedded.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(entries) != len(onDisk) {
		t.Fatalf("embedded %d files, disk has %d", len(entries), len(onDisk))
	}
}

func TestAutoMigrateModelsSeedsRolesIdempotently(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := migrate.AutoMigrateModels(ctx, conn); err != nil {
			t.Fatalf("auto migrate run %d: %v", i, err)
		}
	}

	var count int64
	if err := conn.Model(&models.Role{}).Count(&count).Error; err != nil {
		t.Fatalf("count roles: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 seeded roles, got %d", count)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Client Notes!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_client_notes.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestParseVersion(t *testing.T) {
	v, err := migrate.ParseVersion("20260115093000")
	if err != nil || v != 20260115093000 {
		t.Fatalf("expected parsed version, got %d err=%v", v, err)
	}
	for _, raw := range []string{"", "abc", "-5"} {
		if _, err := migrate.ParseVersion(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestNewMigratorRequiresDB(t *testing.T) {
	if _, err := migrate.NewMigrator(nil, "", nil); err == nil {
		t.Fatal("expected error without db")
	}
}
