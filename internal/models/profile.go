package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile carries the authorization role for a user.
type Profile struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	Role   string `json:"role" gorm:"size:20;not null;default:user"`
}
