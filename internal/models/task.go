package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusReview     TaskStatus = "REVIEW"
	TaskStatusDone       TaskStatus = "DONE"
)

// ValidTaskStatus reports whether s is a known status code. Transitions
// between statuses are deliberately unconstrained.
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

func ValidTaskPriority(p TaskPriority) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Attachment is the single optional file stored with a task.
type Attachment struct {
	Filename    string `gorm:"type:varchar(255)" json:"filename,omitempty"`
	Path        string `gorm:"type:varchar(512)" json:"path,omitempty"`
	ContentType string `gorm:"type:varchar(127)" json:"mimetype,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Present reports whether a file is currently stored.
func (a Attachment) Present() bool {
	return a.Path != ""
}

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	ProjectID   *uint64      `gorm:"index" json:"project_id"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'TODO'" json:"status"`
	Type        string       `gorm:"type:varchar(50)" json:"type"`
	StartDate   *time.Time   `json:"start_date"`
	EndDate     *time.Time   `json:"end_date"`
	IsAllDay    bool         `json:"is_all_day"`
	CreatorID   uint64       `gorm:"not null;index" json:"creator_id"`

	Attachment Attachment `gorm:"embedded;embeddedPrefix:attachment_" json:"attachment"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Creator   User           `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Project   *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignees []TaskAssignee `gorm:"foreignKey:TaskID" json:"assignees,omitempty"`
	Comments  []TaskComment  `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}
