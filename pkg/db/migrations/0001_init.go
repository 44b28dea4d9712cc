package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"type:text;uniqueIndex;not null"`
	Email        string    `gorm:"type:text;uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type Subject struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                string    `gorm:"type:text;not null;index"`
	Description         string    `gorm:"type:text;not null;default:''"`
	TotalHoursGoal      int       `gorm:"not null;default:0"`
	TotalHoursCompleted int       `gorm:"not null;default:0"`
	PriorityLevel       string    `gorm:"type:text;not null;default:'medium'"`
	Status              string    `gorm:"type:text;not null;default:'active';index:idx_subjects_user_status,priority:2"`
	UserID              uuid.UUID `gorm:"type:uuid;not null;index:idx_subjects_user_status,priority:1"`
	CreatedAt           time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime;index"`
	UpdatedAt           time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
	User                User      `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type StudySession struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	StartTime       time.Time `gorm:"type:timestamptz;not null"`
	EndTime         time.Time `gorm:"type:timestamptz;not null;index"`
	DurationMinutes int       `gorm:"not null;default:0"`
	Notes           string    `gorm:"type:text;not null;default:''"`
	SubjectID       uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt       time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
	Subject         Subject   `gorm:"foreignKey:SubjectID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&User{},
		&Subject{},
		&StudySession{},
	); err != nil {
		return err
	}

	m := gormDB.WithContext(ctx).Migrator()
	if err := m.CreateConstraint(&Subject{}, "User"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&StudySession{}, "Subject"); err != nil {
		return err
	}

	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Migrator().DropTable(
		&StudySession{},
		&Subject{},
		&User{},
	); err != nil {
		return err
	}

	return nil
}
