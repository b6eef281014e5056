package models

type Project struct {
	BaseModel

	Name           string `gorm:"not null"`
	Description    string
	OwnerID        uint `gorm:"not null;index"`
	SlackWebhook   string
	DiscordWebhook string

	// Relationships
	Owner   User   `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Members []User `gorm:"many2many:project_members;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tasks   []Task `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tags    []Tag  `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// HasMember reports whether user appears in the loaded Members slice.
func (p Project) HasMember(user User) bool {
	for _, member := range p.Members {
		if member.Is(user) {
			return true
		}
	}
	return false
}
