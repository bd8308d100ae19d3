package models

// All lists every persisted model. Tests use it with AutoMigrate; production
// schema comes from the goose migrations.
func All() []any {
	return []any{
		&Category{},
		&Product{},
		&CartItem{},
		&WishlistItem{},
		&Review{},
		&Order{},
		&OrderItem{},
		&OutboxEvent{},
	}
}
