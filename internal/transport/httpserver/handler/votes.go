package handler

import (
	"net/http"

	schedulingdomain "chronos-go/internal/domain/scheduling"
	"github.com/go-chi/chi/v5"
)

type voteRequest struct {
	Date string `json:"date" validate:"required"`
}

// CastVote replaces any earlier vote of the participant.
func (h *Handlers) CastVote(w http.ResponseWriter, r *http.Request) {
	participant, ok := h.participantForWrite(w, r, "votes.cast")
	if !ok {
		return
	}

	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	date, err := parseDateRequired("date", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	vote, err := h.Scheduling.CastVote(r.Context(), participant.ID, participant.MeetingID, date)
	if err != nil {
		h.writeDomainError(w, r, "votes.cast", err, "participant_id", participant.ID, "date", req.Date)
		return
	}

	writeJSON(w, http.StatusOK, toVoteResponse(vote))
}

func (h *Handlers) RemoveVote(w http.ResponseWriter, r *http.Request) {
	participant, ok := h.participantForWrite(w, r, "votes.remove")
	if !ok {
		return
	}

	removed, err := h.Scheduling.RemoveVote(r.Context(), participant.ID, participant.MeetingID)
	if err != nil {
		h.writeDomainError(w, r, "votes.remove", err, "participant_id", participant.ID)
		return
	}
	if !removed {
		h.writeDomainError(w, r, "votes.remove", schedulingdomain.ErrVoteNotFound, "participant_id", participant.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListVotes(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "id")
	if _, err := h.Meetings.GetMeeting(r.Context(), meetingID); err != nil {
		h.writeDomainError(w, r, "votes.list", err, "meeting_id", meetingID)
		return
	}

	votes, err := h.Scheduling.ListVotes(r.Context(), meetingID)
	if err != nil {
		h.writeDomainError(w, r, "votes.list", err, "meeting_id", meetingID)
		return
	}

	writeJSON(w, http.StatusOK, toVoteResponses(votes))
}
