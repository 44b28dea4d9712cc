package api

import (
	"time"

	"github.com/google/uuid"
)

type sessionModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	StartTime       time.Time `gorm:"type:timestamptz;not null"`
	EndTime         time.Time `gorm:"type:timestamptz;not null;index"`
	DurationMinutes int       `gorm:"not null;default:0"`
	Notes           string    `gorm:"type:text;not null;default:''"`
	SubjectID       uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"type:timestamptz;not null;autoUpdateTime"`
}

func (sessionModel) TableName() string { return "study_sessions" }

// toAPI maps the row to its API shape. subjectName may be empty when the
// caller has not resolved the owning subject.
func (m sessionModel) toAPI(subjectName string) StudySession {
	return StudySession{
		ID:              m.ID,
		SubjectID:       m.SubjectID,
		SubjectName:     subjectName,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		DurationMinutes: m.DurationMinutes,
		Notes:           m.Notes,
	}
}
