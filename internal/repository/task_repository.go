package repository

import (
	"time"

	"github.com/taskify-dev/taskify-api/internal/database"
	"github.com/taskify-dev/taskify-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	// Apply filters
	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.CreatorID != nil {
		query = query.Where("tasks.creator_id = ?", *filter.CreatorID)
	}
	if filter.AssignedUserID != nil {
		assigneeSubQuery := r.db.Model(&models.TaskAssignee{}).
			Select("1").
			Where("task_assignees.task_id = tasks.id").
			Where("task_assignees.user_id = ?", *filter.AssignedUserID).
			Where("task_assignees.deleted_at IS NULL")
		query = query.Where("EXISTS (?)", assigneeSubQuery)
	}
	if filter.EndDateFrom != nil {
		query = query.Where("tasks.end_date >= ?", *filter.EndDateFrom)
	}
	if filter.EndDateTo != nil {
		query = query.Where("tasks.end_date < ?", *filter.EndDateTo)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("tasks.title LIKE ? OR tasks.description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortByEndDate {
		listQuery = listQuery.Order("CASE WHEN tasks.end_date IS NULL THEN 1 ELSE 0 END, tasks.end_date ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC")
	}

	if err := listQuery.
		Scopes(database.Paginate(filter.Page, filter.PageSize)).
		Preload("Creator").
		Preload("Assignees").
		Preload("Assignees.User").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// UpdateDates updates only the scheduling fields of a task
func (r *GormTaskRepository) UpdateDates(taskID uint64, startDate, endDate *time.Time, isAllDay *bool) error {
	updates := map[string]interface{}{}
	if startDate != nil {
		updates["start_date"] = *startDate
	}
	if endDate != nil {
		updates["end_date"] = *endDate
	}
	if isAllDay != nil {
		updates["is_all_day"] = *isAllDay
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.Model(&models.Task{}).Where("id = ?", taskID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft deletes a task and its assignments
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// SetAssignees replaces the assignee set of a task
func (r *GormTaskRepository) SetAssignees(taskID uint64, userIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(userIDs) == 0 {
			return tx.Where("task_id = ?", taskID).Delete(&models.TaskAssignee{}).Error
		}

		if err := tx.Where("task_id = ? AND user_id NOT IN ?", taskID, userIDs).
			Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}

		assignees := make([]models.TaskAssignee, len(userIDs))
		for i, userID := range userIDs {
			assignees[i] = models.TaskAssignee{
				TaskID: taskID,
				UserID: userID,
			}
		}

		return tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"deleted_at": gorm.Expr("NULL")}),
			}).
			Create(&assignees).Error
	})
}

// AddComment adds a comment to a task
func (r *GormTaskRepository) AddComment(comment *models.TaskComment) error {
	return r.db.Create(comment).Error
}

// FindComment finds a comment on a task
func (r *GormTaskRepository) FindComment(taskID, commentID uint64) (*models.TaskComment, error) {
	var comment models.TaskComment
	if err := r.db.Where("task_id = ? AND id = ?", taskID, commentID).
		First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment from a task
func (r *GormTaskRepository) DeleteComment(commentID uint64) error {
	return r.db.Delete(&models.TaskComment{}, commentID).Error
}

// CountUsersByIDs counts how many of the given user IDs exist
func (r *GormTaskRepository) CountUsersByIDs(userIDs []uint64) (int64, error) {
	var count int64

	err := r.db.Model(&models.User{}).
		Where("users.id IN ?", userIDs).
		Count(&count).Error

	return count, err
}
