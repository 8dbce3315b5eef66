package models

type Task struct {
	BaseModel `bson:",inline"`

	Title        string `gorm:"not null" bson:"title" json:"title"`
	Description  string `bson:"description" json:"description"`
	ProjectID    string `gorm:"type:uuid;not null;index" bson:"project_id" json:"project_id"`
	AssignedByID string `gorm:"type:uuid;not null;index" bson:"assigned_by" json:"assigned_by"`
	AssignedToID string `gorm:"type:uuid;not null;index" bson:"assigned_to" json:"assigned_to"`
	Status       string `gorm:"not null" bson:"status" json:"status"`
}

type Subtask struct {
	BaseModel `bson:",inline"`

	Title       string `gorm:"not null" bson:"title" json:"title"`
	TaskID      string `gorm:"type:uuid;not null;index" bson:"task_id" json:"task_id"`
	CreatedBy   string `gorm:"type:uuid;not null" bson:"created_by" json:"created_by"`
	IsCompleted bool   `gorm:"not null;default:false" bson:"is_completed" json:"is_completed"`
}
