package api

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// authorizeOwner confirms the resource owner matches the caller. Ownership
// mismatches surface as ErrForbidden, never as ErrNotFound.
func authorizeOwner(ownerID, callerID uuid.UUID) error {
	if ownerID != callerID {
		return ErrForbidden
	}
	return nil
}

// findOwnedSubject resolves a subject by id and applies the ownership guard.
func (a *API) findOwnedSubject(ctx context.Context, id, callerID uuid.UUID) (subjectModel, error) {
	var m subjectModel
	err := a.store.ORM.WithContext(ctx).First(&m, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return subjectModel{}, ErrNotFound
	case err != nil:
		return subjectModel{}, storeErr(err)
	}

	if err := authorizeOwner(m.UserID, callerID); err != nil {
		return subjectModel{}, err
	}
	return m, nil
}

// findOwnedSession resolves a session by id and applies the ownership guard
// through its subject: a session's effective owner is its subject's owner.
func (a *API) findOwnedSession(ctx context.Context, id, callerID uuid.UUID) (sessionModel, subjectModel, error) {
	var m sessionModel
	err := a.store.ORM.WithContext(ctx).First(&m, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return sessionModel{}, subjectModel{}, ErrNotFound
	case err != nil:
		return sessionModel{}, subjectModel{}, storeErr(err)
	}

	var subject subjectModel
	if err := a.store.ORM.WithContext(ctx).First(&subject, "id = ?", m.SubjectID).Error; err != nil {
		return sessionModel{}, subjectModel{}, storeErr(err)
	}

	if err := authorizeOwner(subject.UserID, callerID); err != nil {
		return sessionModel{}, subjectModel{}, err
	}
	return m, subject, nil
}
