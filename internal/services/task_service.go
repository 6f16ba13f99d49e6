package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/taskify-dev/taskify-api/internal/models"
	"github.com/taskify-dev/taskify-api/internal/repository"
	"github.com/taskify-dev/taskify-api/internal/storage"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrInvalidDateRange       = errors.New("end date cannot be before start date")
	ErrInvalidTaskAssignee    = errors.New("one or more assignees do not exist")
	ErrAttachmentNotFound     = errors.New("task has no attachment")
	ErrCommentNotFound        = errors.New("comment not found")
	ErrNotCommentAuthor       = errors.New("only the comment author can delete it")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
)

var taskPreloads = []string{
	"Creator", "Project",
	"Assignees", "Assignees.User",
	"Comments", "Comments.Author",
}

// TaskService handles task business logic
type TaskService struct {
	taskRepo      repository.TaskRepository
	projectRepo   repository.ProjectRepository
	store         storage.Store
	notifications *NotificationService
	aiService     *AIService
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, store storage.Store, notifications *NotificationService, aiService *AIService) *TaskService {
	return &TaskService{
		taskRepo:      taskRepo,
		projectRepo:   projectRepo,
		store:         store,
		notifications: notifications,
		aiService:     aiService,
	}
}

// AttachmentUpload carries an uploaded file into the service layer.
type AttachmentUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	ProjectID   *uint64
	Priority    string
	Status      string
	Type        string
	StartDate   *time.Time
	EndDate     *time.Time
	IsAllDay    bool
	CreatorID   uint64
	AssigneeIDs []uint64
	Attachment  *AttachmentUpload
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ProjectID      *uint64
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	CreatorID      *uint64
	AssignedUserID *uint64
	Search         string
	SortByEndDate  bool
	Page           int
	PageSize       int
}

// ListTasks returns tasks matching the provided filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		ProjectID:      input.ProjectID,
		Status:         input.Status,
		Priority:       input.Priority,
		CreatorID:      input.CreatorID,
		AssignedUserID: input.AssignedUserID,
		Search:         input.Search,
		SortByEndDate:  input.SortByEndDate,
		Page:           input.Page,
		PageSize:       input.PageSize,
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask creates a new task with validation
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if err := s.validateTaskInput(input.Title, input.Status, input.Priority, input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	if input.ProjectID != nil {
		if _, err := s.projectRepo.FindByID(*input.ProjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, fmt.Errorf("failed to verify project: %w", err)
		}
	}

	assigneeIDs := uniqueUint64(input.AssigneeIDs)
	if err := s.verifyAssignees(assigneeIDs); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		ProjectID:   input.ProjectID,
		Type:        input.Type,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		IsAllDay:    input.IsAllDay,
		CreatorID:   input.CreatorID,
	}
	if input.Status != "" {
		task.Status = models.TaskStatus(input.Status)
	}
	if input.Priority != "" {
		task.Priority = models.TaskPriority(input.Priority)
	}

	if input.Attachment != nil {
		attachment, err := s.saveAttachment(ctx, input.Attachment)
		if err != nil {
			return nil, err
		}
		task.Attachment = *attachment
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if len(assigneeIDs) > 0 {
		if err := s.taskRepo.SetAssignees(task.ID, assigneeIDs); err != nil {
			return nil, fmt.Errorf("failed to assign users to task: %w", err)
		}
		s.notifyAssignees(task, assigneeIDs, input.CreatorID)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	ProjectID      *uint64
	ClearProject   bool
	Priority       *string
	Status         *string
	Type           *string
	StartDate      *time.Time
	EndDate        *time.Time
	ClearDates     bool
	IsAllDay       *bool
	AssigneeIDs    []uint64
	SetAssignees   bool
	Attachment     *AttachmentUpload
	ActorID        uint64
}

// UpdateTask updates an existing task
func (s *TaskService) UpdateTask(ctx context.Context, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	fields := map[string]string{}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			fields["title"] = "title cannot be empty"
		} else {
			task.Title = strings.TrimSpace(*input.Title)
		}
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Type != nil {
		task.Type = *input.Type
	}
	if input.Status != nil {
		if !models.ValidTaskStatus(models.TaskStatus(*input.Status)) {
			fields["status"] = "unknown status: " + *input.Status
		} else {
			task.Status = models.TaskStatus(*input.Status)
		}
	}
	if input.Priority != nil {
		if !models.ValidTaskPriority(models.TaskPriority(*input.Priority)) {
			fields["priority"] = "unknown priority: " + *input.Priority
		} else {
			task.Priority = models.TaskPriority(*input.Priority)
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if input.ClearProject {
		task.ProjectID = nil
	} else if input.ProjectID != nil {
		if _, err := s.projectRepo.FindByID(*input.ProjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, fmt.Errorf("failed to verify project: %w", err)
		}
		task.ProjectID = input.ProjectID
	}

	if input.ClearDates {
		task.StartDate = nil
		task.EndDate = nil
	} else {
		if input.StartDate != nil {
			task.StartDate = input.StartDate
		}
		if input.EndDate != nil {
			task.EndDate = input.EndDate
		}
	}
	if input.IsAllDay != nil {
		task.IsAllDay = *input.IsAllDay
	}

	if task.StartDate != nil && task.EndDate != nil && task.EndDate.Before(*task.StartDate) {
		return nil, ErrInvalidDateRange
	}

	if input.Attachment != nil {
		previous := task.Attachment
		attachment, err := s.saveAttachment(ctx, input.Attachment)
		if err != nil {
			return nil, err
		}
		task.Attachment = *attachment

		if previous.Present() {
			if err := s.store.Remove(ctx, previous.Path); err != nil {
				slog.Warn("failed to remove replaced attachment", "path", previous.Path, "error", err)
			}
		}
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if input.SetAssignees {
		assigneeIDs := uniqueUint64(input.AssigneeIDs)
		if err := s.verifyAssignees(assigneeIDs); err != nil {
			return nil, err
		}
		if err := s.taskRepo.SetAssignees(task.ID, assigneeIDs); err != nil {
			return nil, fmt.Errorf("failed to update assignees: %w", err)
		}
		s.notifyAssignees(task, assigneeIDs, input.ActorID)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// RescheduleInput represents input for moving a task on the calendar
type RescheduleInput struct {
	StartDate *time.Time
	EndDate   *time.Time
	IsAllDay  *bool
}

// Reschedule updates only the scheduling fields of a task. Both dates
// are required; the stored task is left untouched when validation fails.
func (s *TaskService) Reschedule(taskID uint64, input RescheduleInput) (*models.Task, error) {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	fields := map[string]string{}
	if input.StartDate == nil {
		fields["start_date"] = "start_date is required"
	}
	if input.EndDate == nil {
		fields["end_date"] = "end_date is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if input.EndDate.Before(*input.StartDate) {
		return nil, ErrInvalidDateRange
	}

	if err := s.taskRepo.UpdateDates(taskID, input.StartDate, input.EndDate, input.IsAllDay); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to reschedule task: %w", err)
	}

	return s.taskRepo.FindByID(taskID, taskPreloads...)
}

// DeleteTask deletes a task and its stored attachment
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint64) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if task.Attachment.Present() {
		if err := s.store.Remove(ctx, task.Attachment.Path); err != nil {
			slog.Warn("failed to remove attachment of deleted task", "path", task.Attachment.Path, "error", err)
		}
	}

	return nil
}

// DeleteAttachment removes the attachment from a task. Deleting again
// once the attachment is gone reports that nothing is attached.
func (s *TaskService) DeleteAttachment(ctx context.Context, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !task.Attachment.Present() {
		return nil, ErrAttachmentNotFound
	}

	path := task.Attachment.Path
	task.Attachment = models.Attachment{}
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to detach file: %w", err)
	}

	if err := s.store.Remove(ctx, path); err != nil {
		slog.Warn("failed to remove detached file", "path", path, "error", err)
	}

	return s.taskRepo.FindByID(taskID, taskPreloads...)
}

// AddCommentInput represents input for commenting on a task
type AddCommentInput struct {
	TaskID   uint64
	AuthorID uint64
	Content  string
	Image    string
}

// AddComment adds a comment to a task and notifies the task creator
func (s *TaskService) AddComment(input AddCommentInput) (*models.TaskComment, error) {
	if strings.TrimSpace(input.Content) == "" && input.Image == "" {
		return nil, &ValidationError{Fields: map[string]string{"content": "comment cannot be empty"}}
	}

	task, err := s.taskRepo.FindByID(input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	comment := &models.TaskComment{
		TaskID:   input.TaskID,
		AuthorID: input.AuthorID,
		Content:  input.Content,
		Image:    input.Image,
	}

	if err := s.taskRepo.AddComment(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	if task.CreatorID != input.AuthorID {
		s.notifications.Notify([]uint64{task.CreatorID},
			fmt.Sprintf("/tasks/%d", task.ID),
			fmt.Sprintf("New comment on task %q", task.Title))
	}

	return s.taskRepo.FindComment(input.TaskID, comment.ID)
}

// DeleteComment removes a comment. Only its author may delete it.
func (s *TaskService) DeleteComment(taskID, commentID, actorID uint64) error {
	comment, err := s.taskRepo.FindComment(taskID, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.AuthorID != actorID {
		return ErrNotCommentAuthor
	}

	if err := s.taskRepo.DeleteComment(commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// SuggestTasksInput represents input for AI task suggestion
type SuggestTasksInput struct {
	Text      string
	CreatorID uint64
}

// SuggestTasks uses AI to extract task suggestions from free text
func (s *TaskService) SuggestTasks(ctx context.Context, input SuggestTasksInput) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, &ValidationError{Fields: map[string]string{"text": "text is required"}}
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}
		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}

	return validTasks, nil
}

func (s *TaskService) validateTaskInput(title, status, priority string, startDate, endDate *time.Time) error {
	fields := map[string]string{}

	if strings.TrimSpace(title) == "" {
		fields["title"] = "title is required"
	}
	if status != "" && !models.ValidTaskStatus(models.TaskStatus(status)) {
		fields["status"] = "unknown status: " + status
	}
	if priority != "" && !models.ValidTaskPriority(models.TaskPriority(priority)) {
		fields["priority"] = "unknown priority: " + priority
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return ErrInvalidDateRange
	}

	return nil
}

func (s *TaskService) verifyAssignees(assigneeIDs []uint64) error {
	if len(assigneeIDs) == 0 {
		return nil
	}

	count, err := s.taskRepo.CountUsersByIDs(assigneeIDs)
	if err != nil {
		return fmt.Errorf("failed to verify assignees: %w", err)
	}
	if int(count) != len(assigneeIDs) {
		return ErrInvalidTaskAssignee
	}
	return nil
}

func (s *TaskService) saveAttachment(ctx context.Context, upload *AttachmentUpload) (*models.Attachment, error) {
	objectName := storage.ObjectName(upload.Filename)
	path, err := s.store.Save(ctx, objectName, upload.Reader, upload.Size, upload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	return &models.Attachment{
		Filename:    upload.Filename,
		Path:        path,
		ContentType: upload.ContentType,
		Size:        upload.Size,
	}, nil
}

func (s *TaskService) notifyAssignees(task *models.Task, assigneeIDs []uint64, actorID uint64) {
	receivers := make([]uint64, 0, len(assigneeIDs))
	for _, id := range assigneeIDs {
		if id != actorID {
			receivers = append(receivers, id)
		}
	}
	s.notifications.Notify(receivers,
		fmt.Sprintf("/tasks/%d", task.ID),
		fmt.Sprintf("You were assigned to the task %q", task.Title))
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
