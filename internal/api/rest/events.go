package rest

import (
	"net/http"
	"time"

	eventdomain "github.com/linkedfishers/backend/internal/services/events/domain"
)

type eventResponse struct {
	ID           string    `json:"id"`
	HostID       string    `json:"host_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type eventCommentResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toEventResponse(event eventdomain.Event) eventResponse {
	return eventResponse(event)
}

func toEventResponses(events []eventdomain.Event) []eventResponse {
	responses := make([]eventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, toEventResponse(event))
	}
	return responses
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Location    string    `json:"location"`
		StartDate   time.Time `json:"start_date"`
		EndDate     time.Time `json:"end_date"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	event, err := h.events.CreateEvent(r.Context(), eventdomain.CreateEventInput{
		HostID:      callerID(r),
		Name:        body.Name,
		Description: body.Description,
		Location:    body.Location,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(event))
}

func (h *Handler) handleEventByID(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.EventByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

func (h *Handler) handleEventsByHost(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.EventsByHost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]eventResponse{"events": toEventResponses(events)})
}

func (h *Handler) handleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.UpcomingEvents(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]eventResponse{"events": toEventResponses(events)})
}

func (h *Handler) handleEventAttendance(w http.ResponseWriter, r *http.Request) {
	attendance, err := h.events.EventAttendance(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"going":      attendance.Going,
		"interested": attendance.Interested,
	})
}

func (h *Handler) handleSetGoing(member bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.events.SetGoing(r.Context(), eventdomain.SetAttendanceInput{
			EventID:   r.PathValue("id"),
			AccountID: callerID(r),
			Member:    member,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

func (h *Handler) handleSetInterested(member bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.events.SetInterested(r.Context(), eventdomain.SetAttendanceInput{
			EventID:   r.PathValue("id"),
			AccountID: callerID(r),
			Member:    member,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

func (h *Handler) handleAddEventComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	comment, err := h.events.AddComment(r.Context(), eventdomain.AddCommentInput{
		EventID:  r.PathValue("id"),
		AuthorID: callerID(r),
		Content:  body.Content,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, eventCommentResponse(comment))
}

func (h *Handler) handleEventComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.events.CommentsByEvent(r.Context(), r.PathValue("id"), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]eventCommentResponse, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, eventCommentResponse(comment))
	}
	writeJSON(w, http.StatusOK, map[string][]eventCommentResponse{"comments": responses})
}
