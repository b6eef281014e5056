package services

import (
	"context"
	"fmt"

	"github.com/taskmanager-dev/taskmanager/db"
	"github.com/taskmanager-dev/taskmanager/internal/models"
	"gorm.io/gorm"
)

type TaskService struct {
	db *gorm.DB
}

var taskColumns = []string{"name", "description", "completed"}

// Get loads a task with its project (owner and members included), assignee
// and tags.
func (s *TaskService) Get(ctx context.Context, id uint) (models.Task, error) {
	var task models.Task

	err := s.db.WithContext(ctx).
		Preload("Project").
		Preload("Project.Owner").
		Preload("Project.Members").
		Preload("Project.Tags").
		Preload("AssignedUser").
		Preload("Tags").
		First(&task, id).Error

	if err != nil {
		return models.Task{}, lookupErr("task", id, err)
	}

	return task, nil
}

// Save overwrites name, description and completion of an existing task. New
// tasks go through ProjectService.AddTask.
func (s *TaskService) Save(ctx context.Context, task *models.Task) error {
	if task.ID == 0 {
		return fmt.Errorf("save task %q: tasks are created through their project", task.Name)
	}

	result := s.db.WithContext(ctx).
		Model(&models.Task{BaseModel: models.BaseModel{ID: task.ID}}).
		Select(taskColumns).
		Updates(task)

	if result.Error != nil {
		return fmt.Errorf("update task %d: %w", task.ID, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("update task %d: %w", task.ID, ErrNotFound)
	}

	return nil
}

func (s *TaskService) Delete(ctx context.Context, task *models.Task) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_tags WHERE task_id = ?", task.ID).Error; err != nil {
			return fmt.Errorf("delete tags of task %d: %w", task.ID, err)
		}

		if err := tx.Delete(&models.Task{}, task.ID).Error; err != nil {
			return fmt.Errorf("delete task %d: %w", task.ID, err)
		}

		return nil
	})
}

// Assign makes user responsible for task. The user has to be the owner or a
// member of the task's project, which must be loaded.
func (s *TaskService) Assign(ctx context.Context, task *models.Task, user models.User) error {
	if !task.Project.Owner.Is(user) && !task.Project.HasMember(user) {
		return fmt.Errorf("assign task %d to user %d: %w", task.ID, user.ID, ErrNotMember)
	}

	err := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", task.ID).
		Update("assigned_user_id", user.ID).Error

	if err != nil {
		return fmt.Errorf("assign task %d to user %d: %w", task.ID, user.ID, err)
	}

	task.AssignedUserID = &user.ID
	task.AssignedUser = &user

	return nil
}

// AddTag attaches a tag of the same project to the task. Attaching a tag
// the task already carries is a no-op.
func (s *TaskService) AddTag(ctx context.Context, task *models.Task, tag models.Tag) error {
	if tag.ProjectID != task.ProjectID {
		return fmt.Errorf("tag %d on task %d: %w", tag.ID, task.ID, ErrForeignTag)
	}

	if task.HasTag(tag) {
		return nil
	}

	err := s.db.WithContext(ctx).
		Exec("INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?)", task.ID, tag.ID).Error

	if err != nil && !db.IsDuplicateKey(err) {
		return fmt.Errorf("tag task %d with tag %d: %w", task.ID, tag.ID, err)
	}

	task.Tags = append(task.Tags, tag)

	return nil
}

// AddComment appends comment to the end of the task's comment list.
func (s *TaskService) AddComment(ctx context.Context, task *models.Task, comment string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Task

		if err := tx.Select("id", "comments").First(&current, task.ID).Error; err != nil {
			return lookupErr("task", task.ID, err)
		}

		comments := append(current.Comments, comment)

		if err := tx.Model(&current).Update("comments", comments).Error; err != nil {
			return fmt.Errorf("comment on task %d: %w", task.ID, err)
		}

		task.Comments = comments

		return nil
	})
}

// AssignedTo lists the user's to-do list, most recent first.
func (s *TaskService) AssignedTo(ctx context.Context, user models.User) ([]models.Task, error) {
	var tasks []models.Task

	err := s.db.WithContext(ctx).
		Preload("Project").
		Where("assigned_user_id = ?", user.ID).
		Order("completed, id DESC").
		Find(&tasks).Error

	if err != nil {
		return nil, fmt.Errorf("list tasks assigned to user %d: %w", user.ID, err)
	}

	return tasks, nil
}
