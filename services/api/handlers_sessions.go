package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxNotesLen = 2048

type sessionRequest struct {
	SubjectID string `json:"subject_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Notes     string `json:"notes"`
}

func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, &AuthError{Reason: "missing identity"})
		return
	}

	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	fields := ValidationError{}
	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		fields["subject_id"] = "subject_id must be a valid id"
	}
	req.Notes = sanitizeText(req.Notes)
	if len(req.Notes) > maxNotesLen {
		fields["notes"] = "notes must be at most 2048 characters"
	}
	if len(fields) > 0 {
		writeError(w, fields)
		return
	}

	start, end, duration, err := validateTimeRange(req.StartTime, req.EndTime, a.now())
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()
	orm := a.store.ORM.WithContext(ctx)

	// The subject_id is caller-supplied input, so the referenced subject gets
	// its own ownership check before anything is persisted.
	var subject subjectModel
	err = orm.First(&subject, "id = ?", subjectID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		writeError(w, ErrNotFound)
		return
	case err != nil:
		writeError(w, storeErr(err))
		return
	}
	if err := authorizeOwner(subject.UserID, userID); err != nil {
		writeError(w, err)
		return
	}

	now := a.now().UTC()
	model := sessionModel{
		ID:              uuid.New(),
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: duration,
		Notes:           req.Notes,
		SubjectID:       subject.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := orm.Create(&model).Error; err != nil {
		writeError(w, storeErr(err))
		return
	}

	a.cache.invalidate(userID, cacheTypeSessions)
	a.publishEvent(sessionEventsTopic, "created", map[string]any{
		"session_id": model.ID,
		"subject_id": subject.ID,
		"user_id":    userID,
	})

	a.log.Info().Str("session_id", model.ID.String()).Msg("study session created")
	respondJSON(w, http.StatusCreated, map[string]any{"session": model.toAPI(subject.Name)})
}

func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, &AuthError{Reason: "missing identity"})
		return
	}

	page, perPage := clampPaging(queryInt(r, "page", defaultPage), queryInt(r, "per_page", defaultPerPage))

	if payload, ok := a.cache.get(userID, cacheTypeSessions, page, perPage); ok {
		a.log.Debug().Str("user_id", userID.String()).Int("page", page).Msg("sessions cache hit")
		respondRaw(w, http.StatusOK, payload)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()
	orm := a.store.ORM.WithContext(ctx)

	// Sessions have no direct owner column; the caller's subject-id set
	// bounds the query.
	var subjects []subjectModel
	if err := orm.Select("id", "name").Where("user_id = ?", userID).Find(&subjects).Error; err != nil {
		writeError(w, storeErr(err))
		return
	}
	subjectIDs := make([]uuid.UUID, 0, len(subjects))
	subjectNames := make(map[uuid.UUID]string, len(subjects))
	for _, s := range subjects {
		subjectIDs = append(subjectIDs, s.ID)
		subjectNames[s.ID] = s.Name
	}

	result := sessionPage{
		Sessions: []StudySession{},
		Page:     page,
	}

	if len(subjectIDs) > 0 {
		if err := orm.Model(&sessionModel{}).Where("subject_id IN ?", subjectIDs).Count(&result.Total).Error; err != nil {
			writeError(w, storeErr(err))
			return
		}

		var models []sessionModel
		err := orm.Where("subject_id IN ?", subjectIDs).
			Order("start_time ASC, id ASC").
			Offset((page - 1) * perPage).
			Limit(perPage).
			Find(&models).Error
		if err != nil {
			writeError(w, storeErr(err))
			return
		}

		for _, m := range models {
			result.Sessions = append(result.Sessions, m.toAPI(subjectNames[m.SubjectID]))
		}
	}
	result.Pages = pageCount(result.Total, perPage)

	payload, err := json.Marshal(result)
	if err != nil {
		writeError(w, storeErr(err))
		return
	}
	a.cache.set(userID, cacheTypeSessions, page, perPage, payload)

	respondRaw(w, http.StatusOK, payload)
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, &AuthError{Reason: "missing identity"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	model, subject, err := a.findOwnedSession(ctx, id, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"session": model.toAPI(subject.Name)})
}

func (a *API) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, &AuthError{Reason: "missing identity"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()
	orm := a.store.ORM.WithContext(ctx)

	model, subject, err := a.findOwnedSession(ctx, id, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	fields := ValidationError{}
	// The owning subject is immutable after creation.
	if req.SubjectID != "" && req.SubjectID != model.SubjectID.String() {
		fields["subject_id"] = "subject_id cannot be changed"
	}
	req.Notes = sanitizeText(req.Notes)
	if len(req.Notes) > maxNotesLen {
		fields["notes"] = "notes must be at most 2048 characters"
	}
	if len(fields) > 0 {
		writeError(w, fields)
		return
	}

	start, end, duration, err := validateTimeRange(req.StartTime, req.EndTime, a.now())
	if err != nil {
		writeError(w, err)
		return
	}

	updates := map[string]any{
		"start_time":       start,
		"end_time":         end,
		"duration_minutes": duration,
		"notes":            req.Notes,
		"updated_at":       a.now().UTC(),
	}
	if err := orm.Model(&model).Updates(updates).Error; err != nil {
		writeError(w, storeErr(err))
		return
	}
	if err := orm.First(&model, "id = ?", model.ID).Error; err != nil {
		writeError(w, storeErr(err))
		return
	}

	a.cache.invalidate(userID, cacheTypeSessions)
	a.publishEvent(sessionEventsTopic, "updated", map[string]any{
		"session_id": model.ID,
		"subject_id": model.SubjectID,
		"user_id":    userID,
	})

	a.log.Info().Str("session_id", model.ID.String()).Msg("study session updated")
	respondJSON(w, http.StatusOK, map[string]any{"session": model.toAPI(subject.Name)})
}

func (a *API) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, &AuthError{Reason: "missing identity"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	model, _, err := a.findOwnedSession(ctx, id, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := a.store.ORM.WithContext(ctx).Delete(&sessionModel{}, "id = ?", model.ID).Error; err != nil {
		writeError(w, storeErr(err))
		return
	}

	a.cache.invalidate(userID, cacheTypeSessions)
	a.publishEvent(sessionEventsTopic, "deleted", map[string]any{
		"session_id": model.ID,
		"subject_id": model.SubjectID,
		"user_id":    userID,
	})

	a.log.Info().Str("session_id", model.ID.String()).Msg("study session deleted")
	respondJSON(w, http.StatusOK, map[string]any{"message": "session deleted"})
}
