package rest

import (
	"net/http"
	"time"

	authdomain "github.com/linkedfishers/backend/internal/services/auth/domain"
)

type accountResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name"`
	Slug        string    `json:"slug"`
	Avatar      string    `json:"avatar,omitempty"`
	Role        string    `json:"role"`
	Locale      string    `json:"locale"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type sessionResponse struct {
	Token     string          `json:"token"`
	ExpiresIn int64           `json:"expires_in"`
	Account   accountResponse `json:"account"`
}

func toAccountResponse(account authdomain.Account) accountResponse {
	return accountResponse{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Slug:        account.Slug,
		Avatar:      account.Avatar,
		Role:        account.Role,
		Locale:      account.Locale,
		Active:      account.Active,
		CreatedAt:   account.CreatedAt,
		UpdatedAt:   account.UpdatedAt,
	}
}

func toSessionResponse(session authdomain.Session) sessionResponse {
	return sessionResponse{
		Token:     session.Token,
		ExpiresIn: session.ExpiresIn,
		Account:   toAccountResponse(session.Account),
	}
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
		Locale      string `json:"locale"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	account, err := h.auth.Signup(r.Context(), authdomain.SignupInput{
		Email:       body.Email,
		DisplayName: body.DisplayName,
		Password:    body.Password,
		Locale:      body.Locale,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	session, err := h.auth.VerifyActivationToken(r.Context(), body.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	session, err := h.auth.Login(r.Context(), authdomain.LoginInput{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	account, err := h.auth.Logout(r.Context(), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.auth.RequestPasswordReset(r.Context(), body.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, nil)
}

func (h *Handler) handleVerifyResetToken(w http.ResponseWriter, r *http.Request) {
	account, err := h.auth.VerifyResetToken(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	session, err := h.auth.ResetPassword(r.Context(), authdomain.ResetPasswordInput{
		ResetToken:  body.Token,
		NewPassword: body.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	session, err := h.auth.ChangePassword(r.Context(), authdomain.ChangePasswordInput{
		AccountID:   callerID(r),
		OldPassword: body.OldPassword,
		NewPassword: body.NewPassword,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) handleAccountLookup(w http.ResponseWriter, r *http.Request) {
	account, err := h.auth.FindBySlugOrID(r.Context(), r.PathValue("slugOrID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Avatar      string `json:"avatar"`
		Locale      string `json:"locale"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	session, err := h.auth.UpdateProfile(r.Context(), authdomain.UpdateProfileInput{
		CallerID:    callerID(r),
		AccountID:   r.PathValue("id"),
		Email:       body.Email,
		DisplayName: body.DisplayName,
		Avatar:      body.Avatar,
		Locale:      body.Locale,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}
