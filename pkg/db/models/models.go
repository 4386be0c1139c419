package models

// All lists every persisted model in dependency order. Tests pass it to AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Role{},
		&UserRole{},
		&Client{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Invoice{},
	}
}
