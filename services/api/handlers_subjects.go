package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxSubjectNameLen = 100
	maxDescriptionLen = 512
)

type subjectRequest struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	TotalHoursGoal      int    `json:"total_hours_goal"`
	TotalHoursCompleted int    `json:"total_hours_completed"`
	PriorityLevel       string `json:"priority_level"`
	Status              string `json:"status"`
}

func (req *subjectRequest) validate() (Priority, SubjectStatus, error) {
	req.Name = sanitizeText(req.Name)
	req.Description = sanitizeText(req.Description)

	fields := ValidationError{}
	if req.Name == "" {
		fields["name"] = "name is required"
	} else if len(req.Name) > maxSubjectNameLen {
		fields["name"] = "name must be at most 100 characters"
	}
	if len(req.Description) > maxDescriptionLen {
		fields["description"] = "description must be at most 512 characters"
	}
	if req.TotalHoursGoal < 0 {
		fields["total_hours_goal"] = "total hours goal must be non-negative"
	}
	if req.TotalHoursCompleted < 0 {
		fields["total_hours_completed"] = "total hours completed must be non-negative"
	}

	priority, err := ParsePriority(req.PriorityLevel)
	if err != nil {
		fields["priority_level"] = err.Error()
	}
	status, err := ParseSubjectStatus(req.Status)
	if err != nil {
		fields["status"] = err.Error()
	}

	if len(fields) > 0 {
		return "", "", fields
	}
	return priority, status, nil
}

func (a *API) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, &AuthError{Reason: "missing identity"})
		return
	}

	var req subjectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	priority, status, err := req.validate()
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	now := a.now().UTC()
	model := subjectModel{
		ID:                  uuid.New(),
		Name:                req.Name,
		Description:         req.Description,
		TotalHoursGoal:      req.TotalHoursGoal,
		TotalHoursCompleted: req.TotalHoursCompleted,
		PriorityLevel:       string(priority),
		Status:              string(status),
		UserID:              userID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := a.store.ORM.WithContext(ctx).Create(&model).Error; err != nil {
		writeError(w, storeErr(err))
		return
	}

	a.cache.invalidate(userID, cacheTypeSubjects)
	a.publishEvent(subjectEventsTopic, "created", map[string]any{
		"subject_id": model.ID,
		"user_id":    userID,
	})

	a.log.Info().Str("subject_id", model.ID.String()).Msg("subject created")
	respondJSON(w, http.StatusCreated, map[string]any{"subject": model.toAPI()})
}

func (a *API) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, &AuthError{Reason: "missing identity"})
		return
	}

	page, perPage := clampPaging(queryInt(r, "page", defaultPage), queryInt(r, "per_page", defaultPerPage))

	if payload, ok := a.cache.get(userID, cacheTypeSubjects, page, perPage); ok {
		a.log.Debug().Str("user_id", userID.String()).Int("page", page).Msg("subjects cache hit")
		respondRaw(w, http.StatusOK, payload)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()
	orm := a.store.ORM.WithContext(ctx)

	var total int64
	if err := orm.Model(&subjectModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		writeError(w, storeErr(err))
		return
	}

	var models []subjectModel
	err := orm.Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&models).Error
	if err != nil {
		writeError(w, storeErr(err))
		return
	}

	result := subjectPage{
		Subjects: make([]Subject, 0, len(models)),
		Total:    total,
		Page:     page,
		Pages:    pageCount(total, perPage),
	}
	for _, m := range models {
		result.Subjects = append(result.Subjects, m.toAPI())
	}

	payload, err := json.Marshal(result)
	if err != nil {
		writeError(w, storeErr(err))
		return
	}
	a.cache.set(userID, cacheTypeSubjects, page, perPage, payload)

	respondRaw(w, http.StatusOK, payload)
}

func (a *API) handleGetSubject(w http.ResponseWriter, r *http.Request) {
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

	model, err := a.findOwnedSubject(ctx, id, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"subject": model.toAPI()})
}

func (a *API) handleUpdateSubject(w http.ResponseWriter, r *http.Request) {
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

	var req subjectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	priority, status, err := req.validate()
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()
	orm := a.store.ORM.WithContext(ctx)

	model, err := a.findOwnedSubject(ctx, id, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	updates := map[string]any{
		"name":                  req.Name,
		"description":           req.Description,
		"total_hours_goal":      req.TotalHoursGoal,
		"total_hours_completed": req.TotalHoursCompleted,
		"priority_level":        string(priority),
		"status":                string(status),
		"updated_at":            a.now().UTC(),
	}
	if err := orm.Model(&model).Updates(updates).Error; err != nil {
		writeError(w, storeErr(err))
		return
	}
	if err := orm.First(&model, "id = ?", model.ID).Error; err != nil {
		writeError(w, storeErr(err))
		return
	}

	a.cache.invalidate(userID, cacheTypeSubjects)
	a.publishEvent(subjectEventsTopic, "updated", map[string]any{
		"subject_id": model.ID,
		"user_id":    userID,
	})

	a.log.Info().Str("subject_id", model.ID.String()).Msg("subject updated")
	respondJSON(w, http.StatusOK, map[string]any{"subject": model.toAPI()})
}

func (a *API) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
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

	model, err := a.findOwnedSubject(ctx, id, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	// Cascade to the subject's sessions in one transaction so no orphaned
	// session can survive a partial failure.
	err = a.store.ORM.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subject_id = ?", model.ID).Delete(&sessionModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&subjectModel{}, "id = ?", model.ID).Error
	})
	if err != nil {
		writeError(w, storeErr(err))
		return
	}

	// Session pages may have referenced the deleted subject, so both resource
	// types are invalidated for the owner.
	a.cache.invalidate(userID, cacheTypeSubjects)
	a.cache.invalidate(userID, cacheTypeSessions)
	a.publishEvent(subjectEventsTopic, "deleted", map[string]any{
		"subject_id": model.ID,
		"user_id":    userID,
	})

	a.log.Info().Str("subject_id", model.ID.String()).Msg("subject deleted")
	respondJSON(w, http.StatusOK, map[string]any{"message": "subject deleted"})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
