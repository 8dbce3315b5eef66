package models

type Note struct {
	BaseModel `bson:",inline"`

	Content   string `gorm:"not null" bson:"content" json:"content"`
	ProjectID string `gorm:"type:uuid;not null;index" bson:"project_id" json:"project_id"`
	CreatedBy string `gorm:"type:uuid;not null;index" bson:"created_by" json:"created_by"`
}
