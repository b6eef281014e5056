package models

type User struct {
	BaseModel

	Name  string `gorm:"not null"`
	Email string `gorm:"not null"`

	// Relationships
	OwnedProjects []Project `gorm:"foreignKey:OwnerID"`
	TasksToDo     []Task    `gorm:"foreignKey:AssignedUserID"`
}

// Is reports whether u and other are the same persisted user.
func (u User) Is(other User) bool {
	return u.ID != 0 && u.ID == other.ID
}
