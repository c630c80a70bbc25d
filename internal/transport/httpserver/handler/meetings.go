package handler

import (
	"errors"
	"net/http"

	meetingdomain "chronos-go/internal/domain/meeting"
	"chronos-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type createMeetingRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type updateStatusRequest struct {
	Status    string  `json:"status" validate:"required,oneof=PLANNING VOTING COMPLETED"`
	FinalDate *string `json:"finalDate"`
}

type participationResponse struct {
	IsParticipant bool                 `json:"isParticipant"`
	Participant   *participantResponse `json:"participant,omitempty"`
}

func identityOf(user middleware.User) meetingdomain.Identity {
	return meetingdomain.Identity{UserID: user.ID, Email: user.Email, Name: user.Name}
}

func (h *Handlers) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	var req createMeetingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	meeting, err := h.Meetings.CreateMeeting(r.Context(), identityOf(user), meetingdomain.CreateMeetingInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.writeDomainError(w, r, "meetings.create", err)
		return
	}

	writeJSON(w, http.StatusCreated, toMeetingResponse(meeting))
}

func (h *Handlers) ListMyMeetings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	meetings, err := h.Meetings.ListMeetingsForUser(r.Context(), user.ID)
	if err != nil {
		h.writeDomainError(w, r, "meetings.list_my", err)
		return
	}

	writeJSON(w, http.StatusOK, toMeetingResponses(meetings))
}

func (h *Handlers) GetMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "id")
	meeting, err := h.Meetings.GetMeeting(r.Context(), meetingID)
	if err != nil {
		h.writeDomainError(w, r, "meetings.get", err, "meeting_id", meetingID)
		return
	}
	h.writeMeetingDetail(w, r, "meetings.get", meeting)
}

func (h *Handlers) GetMeetingByShareToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	meeting, err := h.Meetings.GetMeetingByShareToken(r.Context(), token)
	if err != nil {
		h.writeDomainError(w, r, "meetings.get_by_token", err)
		return
	}
	h.writeMeetingDetail(w, r, "meetings.get_by_token", meeting)
}

func (h *Handlers) writeMeetingDetail(w http.ResponseWriter, r *http.Request, op string, meeting *meetingdomain.Meeting) {
	snapshot, err := h.Scheduling.Snapshot(r.Context(), meeting.ID)
	if err != nil {
		h.writeDomainError(w, r, op, err, "meeting_id", meeting.ID)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingDetailResponse(meeting, snapshot))
}

func (h *Handlers) UpdateMeetingStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	meetingID := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	finalDate, err := parseDateParam("finalDate", req.FinalDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	meeting, err := h.Meetings.UpdateStatus(r.Context(), identityOf(user), meetingID, meetingdomain.UpdateStatusInput{
		Status:    meetingdomain.Status(req.Status),
		FinalDate: finalDate,
	})
	if err != nil {
		h.writeDomainError(w, r, "meetings.update_status", err, "meeting_id", meetingID, "status", req.Status)
		return
	}

	h.log.WithContext(r.Context()).Info("meetings.update_status: status changed", "meeting_id", meetingID, "status", meeting.Status)
	writeJSON(w, http.StatusOK, toMeetingResponse(meeting))
}

func (h *Handlers) GetParticipation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	meetingID := chi.URLParam(r, "id")

	participant, err := h.Meetings.Participation(r.Context(), meetingID, user.ID)
	if err != nil {
		if errors.Is(err, meetingdomain.ErrParticipantNotFound) {
			writeJSON(w, http.StatusOK, participationResponse{IsParticipant: false})
			return
		}
		h.writeDomainError(w, r, "meetings.participation", err, "meeting_id", meetingID)
		return
	}

	response := toParticipantResponse(participant)
	writeJSON(w, http.StatusOK, participationResponse{IsParticipant: true, Participant: &response})
}

func (h *Handlers) LeaveMeeting(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	meetingID := chi.URLParam(r, "id")

	if err := h.Meetings.LeaveMeeting(r.Context(), meetingID, user.ID); err != nil {
		h.writeDomainError(w, r, "meetings.leave", err, "meeting_id", meetingID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
