package services

import (
	"context"
	"fmt"

	"github.com/taskmanager-dev/taskmanager/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserService struct {
	db *gorm.DB
}

func (s *UserService) Get(ctx context.Context, id uint) (models.User, error) {
	var user models.User

	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, lookupErr("user", id, err)
	}

	return user, nil
}

func (s *UserService) Save(ctx context.Context, user *models.User) error {
	return saveUser(s.db.WithContext(ctx), user)
}

func saveUser(tx *gorm.DB, user *models.User) error {
	var err error

	if user.ID == 0 {
		err = tx.Omit(clause.Associations).Create(user).Error
	} else {
		err = tx.Model(&models.User{BaseModel: models.BaseModel{ID: user.ID}}).
			Select("name", "email").
			Updates(user).Error
	}

	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	return nil
}

// Delete removes the user together with everything hanging off it: owned
// projects (and their tasks and tags), memberships and credentials. Tasks
// assigned to the user in other projects become unassigned.
func (s *UserService) Delete(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteUser(tx, user.ID)
	})
}

// Members returns the users a project has been shared with.
func (s *UserService) Members(ctx context.Context, project models.Project) ([]models.User, error) {
	var members []models.User

	err := s.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.user_id = users.id").
		Where("project_members.project_id = ?", project.ID).
		Order("users.name").
		Find(&members).Error

	if err != nil {
		return nil, fmt.Errorf("list members of project %d: %w", project.ID, err)
	}

	return members, nil
}

func deleteUser(tx *gorm.DB, userID uint) error {
	var owned []uint

	if err := tx.Model(&models.Project{}).Where("owner_id = ?", userID).Pluck("id", &owned).Error; err != nil {
		return fmt.Errorf("list projects owned by user %d: %w", userID, err)
	}

	for _, projectID := range owned {
		if err := deleteProject(tx, projectID); err != nil {
			return err
		}
	}

	if err := tx.Model(&models.Task{}).Where("assigned_user_id = ?", userID).Update("assigned_user_id", nil).Error; err != nil {
		return fmt.Errorf("unassign tasks of user %d: %w", userID, err)
	}

	if err := tx.Exec("DELETE FROM project_members WHERE user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("remove memberships of user %d: %w", userID, err)
	}

	if err := tx.Where("user_id = ?", userID).Delete(&models.Credentials{}).Error; err != nil {
		return fmt.Errorf("delete credentials of user %d: %w", userID, err)
	}

	if err := tx.Delete(&models.User{}, userID).Error; err != nil {
		return fmt.Errorf("delete user %d: %w", userID, err)
	}

	return nil
}
