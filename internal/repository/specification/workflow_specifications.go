package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByKind filters workflow rows by kind.
type ByKind struct {
	Kind string
}

func (s ByKind) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("kind = ?", s.Kind)
}

// ByState filters workflow instances by current state.
type ByState struct {
	State string
}

func (s ByState) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("state = ?", s.State)
}

// BySubject filters by the owning entity id.
type BySubject struct {
	SubjectID uuid.UUID
}

func (s BySubject) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subject_id = ?", s.SubjectID)
}

// ByInstance filters transition records by instance id.
type ByInstance struct {
	InstanceID uuid.UUID
}

func (s ByInstance) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("instance_id = ?", s.InstanceID)
}

// WindowEndBefore selects instances whose active window elapsed at the
// given moment. Used by the expiry sweep.
type WindowEndBefore struct {
	Moment time.Time
}

func (s WindowEndBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("window_end IS NOT NULL AND window_end <= ?", s.Moment)
}
