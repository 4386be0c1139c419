// Package dbtest opens isolated in-memory SQLite databases for package tests.
package dbtest

import (
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/novatech/management-backend/pkg/db"
	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
)

// Open returns a migrated database with the Admin and User roles seeded.
func Open(t *testing.T) *db.Client {
	t.Helper()

	dsn := "file:novatech_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	for _, name := range []enums.RoleName{enums.RoleAdmin, enums.RoleUser} {
		if err := conn.Create(&models.Role{Name: name.String()}).Error; err != nil {
			t.Fatalf("seed role %s: %v", name, err)
		}
	}

	client := db.NewFromGorm(conn)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// BeforeNextUpdate runs fn once, on the connection of the statement, right
// before the next UPDATE against table is sent. It lets a test interleave a
// competing write with a service call.
func BeforeNextUpdate(t *testing.T, client *db.Client, table string, fn func(conn *gorm.DB)) {
	t.Helper()
	name := "dbtest:before_update:" + table
	var fired atomic.Bool
	err := client.DB().Callback().Update().Before("gorm:update").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != table || !fired.CompareAndSwap(false, true) {
			return
		}
		fn(tx.Session(&gorm.Session{NewDB: true}))
	})
	if err != nil {
		t.Fatalf("register update callback: %v", err)
	}
	t.Cleanup(func() { _ = client.DB().Callback().Update().Remove(name) })
}
