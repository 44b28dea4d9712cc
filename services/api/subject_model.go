package api

import (
	"time"

	"github.com/google/uuid"
)

type subjectModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                string    `gorm:"type:text;not null;index"`
	Description         string    `gorm:"type:text;not null;default:''"`
	TotalHoursGoal      int       `gorm:"not null;default:0"`
	TotalHoursCompleted int       `gorm:"not null;default:0"`
	PriorityLevel       string    `gorm:"type:text;not null;default:'medium'"`
	Status              string    `gorm:"type:text;not null;default:'active';index:idx_subjects_user_status,priority:2"`
	UserID              uuid.UUID `gorm:"type:uuid;not null;index:idx_subjects_user_status,priority:1"`
	CreatedAt           time.Time `gorm:"type:timestamptz;not null;autoCreateTime;index"`
	UpdatedAt           time.Time `gorm:"type:timestamptz;not null;autoUpdateTime"`

	Sessions []sessionModel `gorm:"foreignKey:SubjectID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (subjectModel) TableName() string { return "subjects" }

func (m subjectModel) toAPI() Subject {
	return Subject{
		ID:                  m.ID,
		Name:                m.Name,
		Description:         m.Description,
		TotalHoursGoal:      m.TotalHoursGoal,
		TotalHoursCompleted: m.TotalHoursCompleted,
		PriorityLevel:       Priority(m.PriorityLevel),
		Status:              SubjectStatus(m.Status),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}
