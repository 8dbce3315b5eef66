package models

type ProjectMembership struct {
	BaseModel `bson:",inline"`

	UserID    string `gorm:"type:uuid;not null;uniqueIndex:idx_user_project" bson:"user_id" json:"user_id"`
	ProjectID string `gorm:"type:uuid;not null;uniqueIndex:idx_user_project;index" bson:"project_id" json:"project_id"`
	Role      string `gorm:"not null" bson:"role" json:"role"`
}

func (ProjectMembership) TableName() string { return "project_members" }
