package models

const (
	RoleDefault = "DEFAULT"
	RoleAdmin   = "ADMIN"
)

type Credentials struct {
	BaseModel

	Username     string `gorm:"uniqueIndex;size:20;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null;default:DEFAULT"`
	UserID       uint   `gorm:"uniqueIndex;not null"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (c Credentials) IsAdmin() bool {
	return c.Role == RoleAdmin
}
