package models

import "gorm.io/datatypes"

type Task struct {
	BaseModel

	ProjectID      uint   `gorm:"not null;index"`
	Name           string `gorm:"not null"`
	Description    string
	Completed      bool  `gorm:"not null;default:false"`
	AssignedUserID *uint `gorm:"index"`

	// Comments keeps insertion order.
	Comments datatypes.JSONSlice[string]

	// Relationships
	Project      Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	AssignedUser *User   `gorm:"foreignKey:AssignedUserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Tags         []Tag   `gorm:"many2many:task_tags;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (t Task) HasTag(tag Tag) bool {
	for _, existing := range t.Tags {
		if existing.ID == tag.ID {
			return true
		}
	}
	return false
}
