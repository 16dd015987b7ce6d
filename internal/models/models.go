package models

// Relational lists every model stored in PostgreSQL, in migration order.
func Relational() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&Category{},
		&Comment{},
		&Like{},
		&Notification{},
	}
}
