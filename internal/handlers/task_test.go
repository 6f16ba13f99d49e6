package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskify-dev/taskify-api/internal/constants"
	"github.com/taskify-dev/taskify-api/internal/database"
	"github.com/taskify-dev/taskify-api/internal/dto"
	"github.com/taskify-dev/taskify-api/internal/models"
	"github.com/taskify-dev/taskify-api/internal/repository"
	"github.com/taskify-dev/taskify-api/internal/services"
	"github.com/taskify-dev/taskify-api/internal/storage"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db          *gorm.DB
	handler     *TaskHandler
	taskService *services.TaskService
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	// Run migrations
	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Task{},
		&models.TaskAssignee{},
		&models.TaskComment{},
		&models.Notification{},
	)
	suite.Require().NoError(err)

	// Set the test DB as the default database
	database.SetDB(suite.db)

	store, err := storage.NewLocalStore(suite.T().TempDir())
	suite.Require().NoError(err)

	taskRepo := repository.NewTaskRepository(suite.db)
	projectRepo := repository.NewProjectRepository(suite.db)
	notificationRepo := repository.NewNotificationRepository(suite.db)
	notifications := services.NewNotificationService(notificationRepo, services.NoopDispatcher{})

	// No AI service in tests
	suite.taskService = services.NewTaskService(taskRepo, projectRepo, store, notifications, nil)
	suite.handler = NewTaskHandler(suite.taskService)

	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskHandlerTestSuite) createTestUser(email string) *models.User {
	user := &models.User{
		FullName:     "User " + email,
		Email:        email,
		PasswordHash: "hashedpassword",
	}
	suite.db.Create(user)
	return user
}

func (suite *TaskHandlerTestSuite) serveCreate(userID uint64, payload map[string]any) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	suite.Require().NoError(err)

	r := gin.New()
	r.POST("/api/tasks", func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
		suite.handler.CreateTask(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (suite *TaskHandlerTestSuite) TestCreateTaskWithMixedShapeAssigns() {
	creator := suite.createTestUser("creator@example.com")
	a := suite.createTestUser("a@example.com")
	b := suite.createTestUser("b@example.com")

	w := suite.serveCreate(creator.ID, map[string]any{
		"title":    "Ship the release",
		"priority": map[string]any{"value": "HIGH", "label": "High"},
		"assigns": []any{
			a.ID,
			map[string]any{"value": b.ID, "label": "Bob"},
			a.ID, // duplicate collapses
		},
	})

	suite.Equal(http.StatusCreated, w.Code)

	var task dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	suite.Equal("Ship the release", task.Title)
	suite.EqualValues("HIGH", task.Priority)
	suite.Len(task.Assigns, 2)
}

func (suite *TaskHandlerTestSuite) TestCreateTaskUnknownAssigneeRejected() {
	creator := suite.createTestUser("creator@example.com")

	w := suite.serveCreate(creator.ID, map[string]any{
		"title":   "Ship the release",
		"assigns": []any{99999},
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestRescheduleInvalidRangeLeavesTaskUnmodified() {
	creator := suite.createTestUser("creator@example.com")

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC)
	task, err := suite.taskService.CreateTask(nil, services.CreateTaskInput{
		Title:     "Planned work",
		CreatorID: creator.ID,
		StartDate: &start,
		EndDate:   &end,
	})
	suite.Require().NoError(err)

	badEnd := start.Add(-48 * time.Hour)
	_, err = suite.taskService.Reschedule(task.ID, services.RescheduleInput{
		StartDate: &start,
		EndDate:   &badEnd,
	})
	suite.Require().ErrorIs(err, services.ErrInvalidDateRange)

	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	suite.Require().NotNil(stored.EndDate)
	suite.True(stored.EndDate.Equal(end), "end date must be unchanged after a rejected reschedule")
}

func (suite *TaskHandlerTestSuite) TestRescheduleMovesDates() {
	creator := suite.createTestUser("creator@example.com")

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)
	task, err := suite.taskService.CreateTask(nil, services.CreateTaskInput{
		Title:     "Planned work",
		CreatorID: creator.ID,
		StartDate: &start,
		EndDate:   &end,
	})
	suite.Require().NoError(err)

	newStart := start.AddDate(0, 0, 7)
	newEnd := end.AddDate(0, 0, 7)
	updated, err := suite.taskService.Reschedule(task.ID, services.RescheduleInput{
		StartDate: &newStart,
		EndDate:   &newEnd,
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(updated.StartDate)
	suite.Require().NotNil(updated.EndDate)
	suite.True(updated.StartDate.Equal(newStart))
	suite.True(updated.EndDate.Equal(newEnd))
}

func (suite *TaskHandlerTestSuite) TestRescheduleRequiresBothDates() {
	creator := suite.createTestUser("creator@example.com")

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	task, err := suite.taskService.CreateTask(nil, services.CreateTaskInput{
		Title:     "Planned work",
		CreatorID: creator.ID,
		StartDate: &start,
	})
	suite.Require().NoError(err)

	newStart := start.AddDate(0, 0, 7)
	_, err = suite.taskService.Reschedule(task.ID, services.RescheduleInput{
		StartDate: &newStart,
	})

	var validationErr *services.ValidationError
	suite.Require().ErrorAs(err, &validationErr)
	suite.Contains(validationErr.Fields, "end_date")

	// The stored start date did not move.
	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	suite.Require().NotNil(stored.StartDate)
	suite.True(stored.StartDate.Equal(start))
}

func (suite *TaskHandlerTestSuite) TestDeleteAttachmentIsNotIdempotent() {
	creator := suite.createTestUser("creator@example.com")

	task, err := suite.taskService.CreateTask(nil, services.CreateTaskInput{
		Title:     "With file",
		CreatorID: creator.ID,
		Attachment: &services.AttachmentUpload{
			Filename:    "notes.txt",
			ContentType: "text/plain",
			Size:        5,
			Reader:      bytes.NewReader([]byte("hello")),
		},
	})
	suite.Require().NoError(err)
	suite.Require().True(task.Attachment.Present())

	updated, err := suite.taskService.DeleteAttachment(nil, task.ID)
	suite.Require().NoError(err)
	suite.False(updated.Attachment.Present())

	// The second delete finds nothing attached.
	_, err = suite.taskService.DeleteAttachment(nil, task.ID)
	suite.Require().ErrorIs(err, services.ErrAttachmentNotFound)
}

func (suite *TaskHandlerTestSuite) TestComments() {
	creator := suite.createTestUser("creator@example.com")
	commenter := suite.createTestUser("commenter@example.com")

	task, err := suite.taskService.CreateTask(nil, services.CreateTaskInput{
		Title:     "Discussed work",
		CreatorID: creator.ID,
	})
	suite.Require().NoError(err)

	comment, err := suite.taskService.AddComment(services.AddCommentInput{
		TaskID:   task.ID,
		AuthorID: commenter.ID,
		Content:  "Looks good to me",
	})
	suite.Require().NoError(err)
	suite.Equal("Looks good to me", comment.Content)

	// Only the author can delete the comment.
	err = suite.taskService.DeleteComment(task.ID, comment.ID, creator.ID)
	suite.Require().ErrorIs(err, services.ErrNotCommentAuthor)

	suite.Require().NoError(suite.taskService.DeleteComment(task.ID, comment.ID, commenter.ID))

	err = suite.taskService.DeleteComment(task.ID, comment.ID, commenter.ID)
	suite.Require().ErrorIs(err, services.ErrCommentNotFound)
}

func (suite *TaskHandlerTestSuite) TestEmptyCommentRejected() {
	creator := suite.createTestUser("creator@example.com")

	task, err := suite.taskService.CreateTask(nil, services.CreateTaskInput{
		Title:     "Quiet work",
		CreatorID: creator.ID,
	})
	suite.Require().NoError(err)

	_, err = suite.taskService.AddComment(services.AddCommentInput{
		TaskID:   task.ID,
		AuthorID: creator.ID,
		Content:  "   ",
	})

	var validationErr *services.ValidationError
	suite.Require().ErrorAs(err, &validationErr)
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
