package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskify-dev/taskify-api/internal/constants"
	"github.com/taskify-dev/taskify-api/internal/dto"
	apierrors "github.com/taskify-dev/taskify-api/internal/errors"
	"github.com/taskify-dev/taskify-api/internal/middleware"
	"github.com/taskify-dev/taskify-api/internal/models"
	"github.com/taskify-dev/taskify-api/internal/services"
	"github.com/taskify-dev/taskify-api/internal/utils"
)

// TaskHandler coordinates task management HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// taskDateFormats are the accepted shapes for date fields, tried in order.
var taskDateFormats = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseTaskDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range taskDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("unrecognized date format")
}

// CreateTask creates a task from a JSON or multipart request.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var input services.CreateTaskInput
	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		input, err = h.bindMultipartCreate(c)
	} else {
		input, err = h.bindJSONCreate(c)
	}
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	input.CreatorID = userID

	task, err := h.taskService.CreateTask(c.Request.Context(), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

func (h *TaskHandler) bindJSONCreate(c *gin.Context) (services.CreateTaskInput, error) {
	type CreateTaskRequest struct {
		Title       string      `json:"title" binding:"required"`
		Description string      `json:"description"`
		Project     dto.Ref     `json:"project"`
		Priority    dto.Option  `json:"priority"`
		Status      dto.Option  `json:"status"`
		Type        dto.Option  `json:"type"`
		StartDate   string      `json:"start_date"`
		EndDate     string      `json:"end_date"`
		IsAllDay    bool        `json:"is_all_day"`
		Assigns     dto.RefList `json:"assigns"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return services.CreateTaskInput{}, errors.New("Invalid request body")
	}

	startDate, err := parseTaskDate(req.StartDate)
	if err != nil {
		return services.CreateTaskInput{}, errors.New("Invalid start_date")
	}
	endDate, err := parseTaskDate(req.EndDate)
	if err != nil {
		return services.CreateTaskInput{}, errors.New("Invalid end_date")
	}

	input := services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority.Value,
		Status:      req.Status.Value,
		Type:        req.Type.Value,
		StartDate:   startDate,
		EndDate:     endDate,
		IsAllDay:    req.IsAllDay,
		AssigneeIDs: req.Assigns.Dedupe(),
	}
	if req.Project.Valid {
		input.ProjectID = &req.Project.ID
	}
	return input, nil
}

func (h *TaskHandler) bindMultipartCreate(c *gin.Context) (services.CreateTaskInput, error) {
	title := c.PostForm("title")
	if strings.TrimSpace(title) == "" {
		return services.CreateTaskInput{}, errors.New("title is required")
	}

	project, err := dto.ParseRef(c.PostForm("project"))
	if err != nil {
		return services.CreateTaskInput{}, errors.New("Invalid project reference")
	}
	assigns, err := dto.ParseRefList(c.PostForm("assigns"))
	if err != nil {
		return services.CreateTaskInput{}, errors.New("Invalid assigns list")
	}
	priority, err := dto.ParseOption(c.PostForm("priority"))
	if err != nil {
		return services.CreateTaskInput{}, errors.New("Invalid priority")
	}
	status, err := dto.ParseOption(c.PostForm("status"))
	if err != nil {
		return services.CreateTaskInput{}, errors.New("Invalid status")
	}
	taskType, err := dto.ParseOption(c.PostForm("type"))
	if err != nil {
		return services.CreateTaskInput{}, errors.New("Invalid type")
	}
	startDate, err := parseTaskDate(c.PostForm("start_date"))
	if err != nil {
		return services.CreateTaskInput{}, errors.New("Invalid start_date")
	}
	endDate, err := parseTaskDate(c.PostForm("end_date"))
	if err != nil {
		return services.CreateTaskInput{}, errors.New("Invalid end_date")
	}

	input := services.CreateTaskInput{
		Title:       title,
		Description: c.PostForm("description"),
		Priority:    priority.Value,
		Status:      status.Value,
		Type:        taskType.Value,
		StartDate:   startDate,
		EndDate:     endDate,
		IsAllDay:    c.PostForm("is_all_day") == "true",
		AssigneeIDs: assigns.Dedupe(),
	}
	if project.Valid {
		input.ProjectID = &project.ID
	}

	if fileHeader, err := c.FormFile("attachment"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return services.CreateTaskInput{}, errors.New("Failed to read attachment")
		}
		input.Attachment = &services.AttachmentUpload{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Reader:      file,
		}
	}
	return input, nil
}

// ListTasks returns tasks matching the query filters.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		Search:        c.Query("search"),
		SortByEndDate: c.Query("sort") == "end_date",
		Page:          params.Page,
		PageSize:      params.Limit,
	}

	if projectStr := c.Query("project_id"); projectStr != "" {
		projectID, err := strconv.ParseUint(projectStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project_id")
			return
		}
		input.ProjectID = &projectID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TaskStatus(statusStr)
		if !models.ValidTaskStatus(status) {
			apierrors.BadRequest(c, "Unknown status: "+statusStr)
			return
		}
		input.Status = &status
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := models.TaskPriority(priorityStr)
		if !models.ValidTaskPriority(priority) {
			apierrors.BadRequest(c, "Unknown priority: "+priorityStr)
			return
		}
		input.Priority = &priority
	}
	if c.Query("created_by_me") == "true" {
		input.CreatorID = &userID
	}
	if c.Query("assigned_to_me") == "true" {
		input.AssignedUserID = &userID
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// GetTask returns a single task with its relations.
func (h *TaskHandler) GetTask(c *gin.Context) {
	// Task is loaded by RequireTaskAccess middleware
	taskInterface, _ := c.Get(constants.ContextKeyTask)
	task := taskInterface.(models.Task)

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// UpdateTask applies a partial update from a JSON or multipart request.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskInterface, _ := c.Get(constants.ContextKeyTask)
	task := taskInterface.(models.Task)

	var input services.UpdateTaskInput
	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		input, err = h.bindMultipartUpdate(c)
	} else {
		input, err = h.bindJSONUpdate(c)
	}
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	input.ActorID = userID

	updated, err := h.taskService.UpdateTask(c.Request.Context(), task.ID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

func (h *TaskHandler) bindJSONUpdate(c *gin.Context) (services.UpdateTaskInput, error) {
	type UpdateTaskRequest struct {
		Title       *string      `json:"title"`
		Description *string      `json:"description"`
		Project     *dto.Ref     `json:"project"`
		Priority    *dto.Option  `json:"priority"`
		Status      *dto.Option  `json:"status"`
		Type        *dto.Option  `json:"type"`
		StartDate   *string      `json:"start_date"`
		EndDate     *string      `json:"end_date"`
		IsAllDay    *bool        `json:"is_all_day"`
		Assigns     *dto.RefList `json:"assigns"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return services.UpdateTaskInput{}, errors.New("Invalid request body")
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		IsAllDay:    req.IsAllDay,
	}

	if req.Project != nil {
		if req.Project.Valid {
			input.ProjectID = &req.Project.ID
		} else {
			input.ClearProject = true
		}
	}
	if req.Priority != nil && req.Priority.Valid {
		input.Priority = &req.Priority.Value
	}
	if req.Status != nil && req.Status.Valid {
		input.Status = &req.Status.Value
	}
	if req.Type != nil && req.Type.Valid {
		input.Type = &req.Type.Value
	}
	if req.StartDate != nil {
		startDate, err := parseTaskDate(*req.StartDate)
		if err != nil {
			return services.UpdateTaskInput{}, errors.New("Invalid start_date")
		}
		input.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := parseTaskDate(*req.EndDate)
		if err != nil {
			return services.UpdateTaskInput{}, errors.New("Invalid end_date")
		}
		input.EndDate = endDate
	}
	if req.Assigns != nil {
		input.SetAssignees = true
		input.AssigneeIDs = req.Assigns.Dedupe()
	}
	return input, nil
}

func (h *TaskHandler) bindMultipartUpdate(c *gin.Context) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	setString := func(field string, dst **string) {
		if value, ok := c.GetPostForm(field); ok {
			v := value
			*dst = &v
		}
	}
	setString("title", &input.Title)
	setString("description", &input.Description)

	if value, ok := c.GetPostForm("project"); ok {
		project, err := dto.ParseRef(value)
		if err != nil {
			return services.UpdateTaskInput{}, errors.New("Invalid project reference")
		}
		if project.Valid {
			input.ProjectID = &project.ID
		} else {
			input.ClearProject = true
		}
	}
	for _, f := range []struct {
		field string
		dst   **string
	}{
		{"priority", &input.Priority},
		{"status", &input.Status},
		{"type", &input.Type},
	} {
		if value, ok := c.GetPostForm(f.field); ok {
			opt, err := dto.ParseOption(value)
			if err != nil {
				return services.UpdateTaskInput{}, errors.New("Invalid " + f.field)
			}
			if opt.Valid {
				v := opt.Value
				*f.dst = &v
			}
		}
	}
	if value, ok := c.GetPostForm("start_date"); ok {
		startDate, err := parseTaskDate(value)
		if err != nil {
			return services.UpdateTaskInput{}, errors.New("Invalid start_date")
		}
		input.StartDate = startDate
	}
	if value, ok := c.GetPostForm("end_date"); ok {
		endDate, err := parseTaskDate(value)
		if err != nil {
			return services.UpdateTaskInput{}, errors.New("Invalid end_date")
		}
		input.EndDate = endDate
	}
	if value, ok := c.GetPostForm("is_all_day"); ok {
		isAllDay := value == "true"
		input.IsAllDay = &isAllDay
	}
	if value, ok := c.GetPostForm("assigns"); ok {
		assigns, err := dto.ParseRefList(value)
		if err != nil {
			return services.UpdateTaskInput{}, errors.New("Invalid assigns list")
		}
		input.SetAssignees = true
		input.AssigneeIDs = assigns.Dedupe()
	}

	if fileHeader, err := c.FormFile("attachment"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return services.UpdateTaskInput{}, errors.New("Failed to read attachment")
		}
		input.Attachment = &services.AttachmentUpload{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Reader:      file,
		}
	}
	return input, nil
}

// Reschedule moves a task on the calendar.
func (h *TaskHandler) Reschedule(c *gin.Context) {
	taskInterface, _ := c.Get(constants.ContextKeyTask)
	task := taskInterface.(models.Task)

	type RescheduleRequest struct {
		StartDate *string `json:"start_date"`
		EndDate   *string `json:"end_date"`
		IsAllDay  *bool   `json:"is_all_day"`
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.RescheduleInput{IsAllDay: req.IsAllDay}
	if req.StartDate != nil {
		startDate, err := parseTaskDate(*req.StartDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid start_date")
			return
		}
		input.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := parseTaskDate(*req.EndDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid end_date")
			return
		}
		input.EndDate = endDate
	}

	updated, err := h.taskService.Reschedule(task.ID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask removes a task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskInterface, _ := c.Get(constants.ContextKeyTask)
	task := taskInterface.(models.Task)

	if err := h.taskService.DeleteTask(c.Request.Context(), task.ID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// DeleteAttachment removes the file attached to a task.
func (h *TaskHandler) DeleteAttachment(c *gin.Context) {
	taskInterface, _ := c.Get(constants.ContextKeyTask)
	task := taskInterface.(models.Task)

	updated, err := h.taskService.DeleteAttachment(c.Request.Context(), task.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// AddComment adds a comment to a task.
func (h *TaskHandler) AddComment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskInterface, _ := c.Get(constants.ContextKeyTask)
	task := taskInterface.(models.Task)

	type AddCommentRequest struct {
		Content string `json:"content"`
		Image   string `json:"image"`
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.taskService.AddComment(services.AddCommentInput{
		TaskID:   task.ID,
		AuthorID: userID,
		Content:  req.Content,
		Image:    req.Image,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskCommentDTO(*comment))
}

// DeleteComment removes a comment from a task.
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskInterface, _ := c.Get(constants.ContextKeyTask)
	task := taskInterface.(models.Task)

	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid comment ID")
		return
	}

	if err := h.taskService.DeleteComment(task.ID, commentID, userID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
	})
}

// GenerateTasks extracts task suggestions from free text using AI.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type GenerateRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tasks, err := h.taskService.SuggestTasks(c.Request.Context(), services.SuggestTasksInput{
		Text:      req.Text,
		CreatorID: userID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
	})
}

func respondTaskError(c *gin.Context, err error) {
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &validationErr):
		apierrors.ValidationFailed(c, validationErr.Fields)
	case errors.Is(err, services.ErrInvalidDateRange):
		apierrors.InvalidRange(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrAttachmentNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidTaskAssignee):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotCommentAuthor):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoTasksGenerated):
		apierrors.Upstream(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
