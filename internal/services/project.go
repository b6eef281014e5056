package services

import (
	"context"
	"fmt"

	"github.com/taskmanager-dev/taskmanager/db"
	"github.com/taskmanager-dev/taskmanager/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectService struct {
	db *gorm.DB
}

// projectColumns are the only columns an update may touch. Owner, members,
// tasks and tags live elsewhere and survive every update.
var projectColumns = []string{"name", "description", "slack_webhook", "discord_webhook"}

// Get loads a project with owner, members, tags and tasks (with their
// assignee and tags).
func (s *ProjectService) Get(ctx context.Context, id uint) (models.Project, error) {
	var project models.Project

	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members", func(tx *gorm.DB) *gorm.DB { return tx.Order("users.name") }).
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("tags.name") }).
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB { return tx.Order("tasks.id") }).
		Preload("Tasks.AssignedUser").
		Preload("Tasks.Tags").
		First(&project, id).Error

	if err != nil {
		return models.Project{}, lookupErr("project", id, err)
	}

	return project, nil
}

// Save creates the project when it has no id, otherwise overwrites its scalar
// fields only.
func (s *ProjectService) Save(ctx context.Context, project *models.Project) error {
	tx := s.db.WithContext(ctx)

	if project.ID == 0 {
		if project.OwnerID == 0 {
			project.OwnerID = project.Owner.ID
		}

		if project.OwnerID == 0 {
			return fmt.Errorf("save project %q: missing owner", project.Name)
		}

		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return fmt.Errorf("create project %q: %w", project.Name, err)
		}

		return nil
	}

	result := tx.Model(&models.Project{BaseModel: models.BaseModel{ID: project.ID}}).
		Select(projectColumns).
		Updates(project)

	if result.Error != nil {
		return fmt.Errorf("update project %d: %w", project.ID, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("update project %d: %w", project.ID, ErrNotFound)
	}

	return nil
}

// Delete removes the project and, in the same transaction, its tasks, tags
// and memberships. No task survives pointing at a deleted project.
func (s *ProjectService) Delete(ctx context.Context, project *models.Project) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteProject(tx, project.ID)
	})
}

func deleteProject(tx *gorm.DB, projectID uint) error {
	var taskIDs []uint

	if err := tx.Model(&models.Task{}).Where("project_id = ?", projectID).Pluck("id", &taskIDs).Error; err != nil {
		return fmt.Errorf("list tasks of project %d: %w", projectID, err)
	}

	if len(taskIDs) > 0 {
		if err := tx.Exec("DELETE FROM task_tags WHERE task_id IN ?", taskIDs).Error; err != nil {
			return fmt.Errorf("delete task tags of project %d: %w", projectID, err)
		}
	}

	if err := tx.Where("project_id = ?", projectID).Delete(&models.Task{}).Error; err != nil {
		return fmt.Errorf("delete tasks of project %d: %w", projectID, err)
	}

	if err := tx.Where("project_id = ?", projectID).Delete(&models.Tag{}).Error; err != nil {
		return fmt.Errorf("delete tags of project %d: %w", projectID, err)
	}

	if err := tx.Exec("DELETE FROM project_members WHERE project_id = ?", projectID).Error; err != nil {
		return fmt.Errorf("delete members of project %d: %w", projectID, err)
	}

	if err := tx.Delete(&models.Project{}, projectID).Error; err != nil {
		return fmt.Errorf("delete project %d: %w", projectID, err)
	}

	return nil
}

func (s *ProjectService) OwnedBy(ctx context.Context, user models.User) ([]models.Project, error) {
	var projects []models.Project

	if err := s.db.WithContext(ctx).Where("owner_id = ?", user.ID).Order("name").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects owned by user %d: %w", user.ID, err)
	}

	return projects, nil
}

func (s *ProjectService) SharedWith(ctx context.Context, user models.User) ([]models.Project, error) {
	var projects []models.Project

	err := s.db.WithContext(ctx).
		Preload("Owner").
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", user.ID).
		Order("projects.name").
		Find(&projects).Error

	if err != nil {
		return nil, fmt.Errorf("list projects shared with user %d: %w", user.ID, err)
	}

	return projects, nil
}

// Share adds user to the project's members. Sharing twice, or sharing with
// the owner, leaves the member set unchanged.
func (s *ProjectService) Share(ctx context.Context, project *models.Project, user models.User) error {
	if user.ID == project.OwnerID || project.HasMember(user) {
		return nil
	}

	err := s.db.WithContext(ctx).
		Exec("INSERT INTO project_members (project_id, user_id) VALUES (?, ?)", project.ID, user.ID).Error

	if err != nil && !db.IsDuplicateKey(err) {
		return fmt.Errorf("share project %d with user %d: %w", project.ID, user.ID, err)
	}

	project.Members = append(project.Members, user)

	return nil
}

// AddTask appends a new task to the project. The task always starts out
// not completed.
func (s *ProjectService) AddTask(ctx context.Context, project *models.Project, task *models.Task) error {
	task.ID = 0
	task.ProjectID = project.ID
	task.Completed = false
	task.AssignedUserID = nil

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return fmt.Errorf("add task to project %d: %w", project.ID, err)
	}

	project.Tasks = append(project.Tasks, *task)

	return nil
}

func (s *ProjectService) AddTag(ctx context.Context, project *models.Project, tag *models.Tag) error {
	tag.ID = 0
	tag.ProjectID = project.ID

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(tag).Error; err != nil {
		return fmt.Errorf("add tag to project %d: %w", project.ID, err)
	}

	project.Tags = append(project.Tags, *tag)

	return nil
}
