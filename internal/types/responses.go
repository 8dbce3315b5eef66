package types

import (
	"time"

	"github.com/monocle-dev/devboard/internal/models"
)

// UserResponse is the only shape in which a user leaves the service.
// It never carries the password hash or any token.
type UserResponse struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Fullname        string    `json:"fullname"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Fullname:        u.Fullname,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
	}
}

type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type ProjectWithRole struct {
	Project models.Project `json:"project"`
	Role    Role           `json:"role"`
}

type MemberResponse struct {
	ID        string       `json:"id"`
	Role      Role         `json:"role"`
	User      UserResponse `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

type ProjectDetail struct {
	Project models.Project   `json:"project"`
	Creator *UserResponse    `json:"creator,omitempty"`
	Members []MemberResponse `json:"members"`
}

// TaskResponse is a task with its project name and sanitized assigner and
// assignee. A user that no longer exists is left nil.
type TaskResponse struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	ProjectID   string        `json:"project_id"`
	ProjectName string        `json:"project_name,omitempty"`
	AssignedTo  *UserResponse `json:"assigned_to"`
	AssignedBy  *UserResponse `json:"assigned_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type TaskDetail struct {
	Task     TaskResponse     `json:"task"`
	Subtasks []models.Subtask `json:"subtasks"`
}

type NoteResponse struct {
	ID          string        `json:"id"`
	Content     string        `json:"content"`
	ProjectID   string        `json:"project_id"`
	ProjectName string        `json:"project_name,omitempty"`
	CreatedBy   *UserResponse `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
