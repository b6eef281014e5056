package models

type Tag struct {
	BaseModel

	ProjectID   uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Color       string
	Description string

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
