package services

import (
	"context"
	"fmt"

	"github.com/taskmanager-dev/taskmanager/internal/models"
	"gorm.io/gorm"
)

type TagService struct {
	db *gorm.DB
}

func (s *TagService) Get(ctx context.Context, id uint) (models.Tag, error) {
	var tag models.Tag

	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return models.Tag{}, lookupErr("tag", id, err)
	}

	return tag, nil
}

func (s *TagService) Save(ctx context.Context, tag *models.Tag) error {
	var err error

	if tag.ID == 0 {
		err = s.db.WithContext(ctx).Omit("Project").Create(tag).Error
	} else {
		err = s.db.WithContext(ctx).
			Model(&models.Tag{BaseModel: models.BaseModel{ID: tag.ID}}).
			Select("name", "color", "description").
			Updates(tag).Error
	}

	if err != nil {
		return fmt.Errorf("save tag %q: %w", tag.Name, err)
	}

	return nil
}

func (s *TagService) Delete(ctx context.Context, tag *models.Tag) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			return fmt.Errorf("detach tag %d: %w", tag.ID, err)
		}

		if err := tx.Delete(&models.Tag{}, tag.ID).Error; err != nil {
			return fmt.Errorf("delete tag %d: %w", tag.ID, err)
		}

		return nil
	})
}
