package handler

import (
	"net/http"

	meetingdomain "chronos-go/internal/domain/meeting"
	"chronos-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type joinMeetingRequest struct {
	Name  string `json:"name" validate:"max=100"`
	Email string `json:"email" validate:"omitempty,email"`
}

// JoinMeeting enrolls the signed in user, or a guest when the request is
// anonymous. Repeat joins by the same user answer 200 with the existing row.
func (h *Handlers) JoinMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "id")

	var req joinMeetingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var caller *meetingdomain.Identity
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		identity := identityOf(user)
		caller = &identity
	}

	participant, created, err := h.Meetings.JoinMeeting(r.Context(), meetingID, caller, meetingdomain.JoinInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.writeDomainError(w, r, "participants.join", err, "meeting_id", meetingID)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toParticipantResponse(participant))
}

func (h *Handlers) ListParticipants(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "id")

	participants, err := h.Meetings.ListParticipants(r.Context(), meetingID)
	if err != nil {
		h.writeDomainError(w, r, "participants.list", err, "meeting_id", meetingID)
		return
	}

	writeJSON(w, http.StatusOK, toParticipantResponses(participants))
}

// participantForWrite loads the participant addressed by the URL and checks
// the caller may change its availability or vote.
func (h *Handlers) participantForWrite(w http.ResponseWriter, r *http.Request, op string) (*meetingdomain.Participant, bool) {
	meetingID := chi.URLParam(r, "id")
	participantID := chi.URLParam(r, "participantId")

	participant, err := h.Meetings.GetParticipant(r.Context(), meetingID, participantID)
	if err != nil {
		h.writeDomainError(w, r, op, err, "meeting_id", meetingID, "participant_id", participantID)
		return nil, false
	}

	callerID, _ := middleware.UserIDFromContext(r.Context())
	if !participant.ModifiableBy(callerID) {
		h.log.WithContext(r.Context()).BusinessError(op+": participant belongs to someone else", errForeignParticipant,
			"meeting_id", meetingID, "participant_id", participantID, "user_id", callerID)
		forbidden(w, "you cannot change this participant")
		return nil, false
	}
	return participant, true
}
