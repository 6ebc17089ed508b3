package rest

import (
	"net/http"

	socialdomain "github.com/linkedfishers/backend/internal/services/social/domain"
)

type followStateResponse struct {
	Following bool `json:"following"`
	Created   bool `json:"created"`
}

func (h *Handler) handleFollow(w http.ResponseWriter, r *http.Request) {
	h.setFollow(w, r, true)
}

func (h *Handler) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	h.setFollow(w, r, false)
}

func (h *Handler) setFollow(w http.ResponseWriter, r *http.Request, want bool) {
	state, err := h.social.SetFollow(r.Context(), socialdomain.SetFollowInput{
		CallerID: callerID(r),
		TargetID: r.PathValue("id"),
		Want:     want,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, followStateResponse{
		Following: state.Following,
		Created:   state.Created,
	})
}

func (h *Handler) handleFollowers(w http.ResponseWriter, r *http.Request) {
	followers, err := h.social.Followers(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"followers": followers})
}

func (h *Handler) handleFollowing(w http.ResponseWriter, r *http.Request) {
	following, err := h.social.Following(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"following": following})
}

func (h *Handler) handleFollowCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.social.FollowCounts(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"followers": counts.Followers,
		"following": counts.Following,
	})
}
