package models

type Project struct {
	BaseModel `bson:",inline"`

	Name        string `gorm:"uniqueIndex;not null" bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
	CreatedBy   string `gorm:"type:uuid;not null;index" bson:"created_by" json:"created_by"`
}
