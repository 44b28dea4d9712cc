package api

import (
	"errors"
	"net/http"
	"net/mail"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxUsernameLen = 15
	minPasswordLen = 8
)

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req.Username = sanitizeText(req.Username)
	req.Email = sanitizeText(req.Email)

	fields := ValidationError{}
	if req.Username == "" {
		fields["username"] = "username is required"
	} else if len(req.Username) > maxUsernameLen {
		fields["username"] = "username must be at most 15 characters"
	} else if !isLettersOnly(req.Username) {
		fields["username"] = "username must contain letters only"
	}
	if req.Email == "" {
		fields["email"] = "email is required"
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = "email is not a valid address"
	}
	if len(req.Password) < minPasswordLen {
		fields["password"] = "password must be at least 8 characters"
	}
	if req.Password != req.ConfirmPassword {
		fields["confirm_password"] = "passwords do not match"
	}
	if len(fields) > 0 {
		writeError(w, fields)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()
	orm := a.store.ORM.WithContext(ctx)

	var taken int64
	if err := orm.Model(&userModel{}).Where("username = ?", req.Username).Count(&taken).Error; err != nil {
		writeError(w, storeErr(err))
		return
	}
	if taken > 0 {
		fields["username"] = "this username already exists"
	}
	if err := orm.Model(&userModel{}).Where("email = ?", req.Email).Count(&taken).Error; err != nil {
		writeError(w, storeErr(err))
		return
	}
	if taken > 0 {
		fields["email"] = "this email is already in use"
	}
	if len(fields) > 0 {
		writeError(w, fields)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		writeError(w, storeErr(err))
		return
	}

	now := a.now().UTC()
	user := userModel{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := orm.Create(&user).Error; err != nil {
		writeError(w, storeErr(err))
		return
	}

	a.log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	respondJSON(w, http.StatusCreated, map[string]any{"user": user.toAPI()})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var user userModel
	err := a.store.ORM.WithContext(ctx).Where("username = ?", sanitizeText(req.Username)).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		writeError(w, &AuthError{Reason: "invalid username or password"})
		return
	case err != nil:
		writeError(w, storeErr(err))
		return
	case !verifyPassword(user.PasswordHash, req.Password):
		writeError(w, &AuthError{Reason: "invalid username or password"})
		return
	}

	access, refresh, err := a.issueTokenPair(user.ID)
	if err != nil {
		writeError(w, storeErr(err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// handleRefresh exchanges a refresh credential for a new access credential.
// A refresh credential never authorizes resource access directly.
func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	credential, ok := bearerCredential(r)
	if !ok {
		writeError(w, &AuthError{Reason: "missing bearer credential"})
		return
	}

	userID, err := a.verifyRefresh(credential)
	if err != nil {
		writeError(w, err)
		return
	}

	access, err := a.issueToken(userID, tokenUseAccess, a.config.AccessTokenTTL, a.config.SigningKey)
	if err != nil {
		writeError(w, storeErr(err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"access_token": access,
		"expires_in":   int(a.config.AccessTokenTTL / time.Second),
	})
}

func isLettersOnly(value string) bool {
	for _, r := range value {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
