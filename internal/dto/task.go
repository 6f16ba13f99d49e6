package dto

import (
	"time"

	"github.com/taskify-dev/taskify-api/internal/models"
)

// TaskCommentDTO represents a comment in API responses
type TaskCommentDTO struct {
	ID        uint64    `json:"id"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	By        *UserDTO  `json:"by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentDTO represents the stored file of a task
type AttachmentDTO struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Mimetype string `json:"mimetype"`
	Size     int64  `json:"size"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	ProjectID   *uint64             `json:"project_id"`
	Priority    models.TaskPriority `json:"priority"`
	Status      models.TaskStatus   `json:"status"`
	Type        string              `json:"type,omitempty"`
	StartDate   *time.Time          `json:"start_date"`
	EndDate     *time.Time          `json:"end_date"`
	IsAllDay    bool                `json:"is_all_day"`
	CreatorID   uint64              `json:"creator_id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Creator     *UserDTO            `json:"creator,omitempty"`
	Project     *ProjectDTO         `json:"project,omitempty"`
	Assigns     []UserDTO           `json:"assigns"`
	Comments    []TaskCommentDTO    `json:"comments,omitempty"`
	Attachment  *AttachmentDTO      `json:"attachment,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// ToTaskCommentDTO converts a comment to DTO
func ToTaskCommentDTO(comment models.TaskComment) TaskCommentDTO {
	commentDTO := TaskCommentDTO{
		ID:        comment.ID,
		Content:   comment.Content,
		Image:     comment.Image,
		CreatedAt: comment.CreatedAt,
	}
	if comment.Author.ID != 0 {
		author := ToUserDTO(comment.Author)
		commentDTO.By = &author
	}
	return commentDTO
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	taskDTO := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		ProjectID:   task.ProjectID,
		Priority:    task.Priority,
		Status:      task.Status,
		Type:        task.Type,
		StartDate:   task.StartDate,
		EndDate:     task.EndDate,
		IsAllDay:    task.IsAllDay,
		CreatorID:   task.CreatorID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		Assigns:     []UserDTO{},
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		taskDTO.Creator = &creator
	}

	// Include project if preloaded
	if task.Project != nil && task.Project.ID != 0 {
		project := ToProjectDTO(*task.Project)
		taskDTO.Project = &project
	}

	for _, assignee := range task.Assignees {
		if assignee.User.ID != 0 {
			taskDTO.Assigns = append(taskDTO.Assigns, ToUserDTO(assignee.User))
		} else {
			taskDTO.Assigns = append(taskDTO.Assigns, UserDTO{ID: assignee.UserID})
		}
	}

	if len(task.Comments) > 0 {
		taskDTO.Comments = make([]TaskCommentDTO, len(task.Comments))
		for i, comment := range task.Comments {
			taskDTO.Comments[i] = ToTaskCommentDTO(comment)
		}
	}

	if task.Attachment.Present() {
		taskDTO.Attachment = &AttachmentDTO{
			Filename: task.Attachment.Filename,
			Path:     task.Attachment.Path,
			Mimetype: task.Attachment.ContentType,
			Size:     task.Attachment.Size,
		}
	}

	return taskDTO
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
