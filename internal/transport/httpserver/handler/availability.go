package handler

import (
	"net/http"

	schedulingdomain "chronos-go/internal/domain/scheduling"
	"github.com/go-chi/chi/v5"
)

type availabilityRequest struct {
	Date     string  `json:"date" validate:"required"`
	TimeFrom *string `json:"timeFrom"`
	TimeTo   *string `json:"timeTo"`
}

type availabilitySeriesRequest struct {
	RRule    string  `json:"rrule" validate:"required,max=512"`
	From     string  `json:"from" validate:"required"`
	Until    string  `json:"until" validate:"required"`
	TimeFrom *string `json:"timeFrom"`
	TimeTo   *string `json:"timeTo"`
}

type commonDatesResponse struct {
	MeetingID string   `json:"meetingId"`
	Dates     []string `json:"dates"`
}

// AddAvailability is idempotent: a date already declared answers 200 with
// the stored row.
func (h *Handlers) AddAvailability(w http.ResponseWriter, r *http.Request) {
	participant, ok := h.participantForWrite(w, r, "availability.add")
	if !ok {
		return
	}

	var req availabilityRequest
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
	timeFrom, timeTo, err := parseTimeRange(req.TimeFrom, req.TimeTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	availability, err := h.Scheduling.AddAvailability(r.Context(), schedulingdomain.AvailabilityInput{
		ParticipantID: participant.ID,
		MeetingID:     participant.MeetingID,
		Date:          date,
		TimeFrom:      timeFrom,
		TimeTo:        timeTo,
	})
	if err != nil {
		h.writeDomainError(w, r, "availability.add", err, "participant_id", participant.ID, "date", req.Date)
		return
	}

	writeJSON(w, http.StatusOK, toAvailabilityResponse(availability))
}

func (h *Handlers) RemoveAvailability(w http.ResponseWriter, r *http.Request) {
	participant, ok := h.participantForWrite(w, r, "availability.remove")
	if !ok {
		return
	}

	date, err := parseDateRequired("date", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	removed, err := h.Scheduling.RemoveAvailability(r.Context(), participant.ID, participant.MeetingID, date)
	if err != nil {
		h.writeDomainError(w, r, "availability.remove", err, "participant_id", participant.ID)
		return
	}
	if !removed {
		h.writeDomainError(w, r, "availability.remove", schedulingdomain.ErrAvailabilityNotFound,
			"participant_id", participant.ID, "date", formatDate(date))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AddAvailabilitySeries(w http.ResponseWriter, r *http.Request) {
	participant, ok := h.participantForWrite(w, r, "availability.add_series")
	if !ok {
		return
	}

	var req availabilitySeriesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	from, err := parseDateRequired("from", req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	until, err := parseDateRequired("until", req.Until)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	timeFrom, timeTo, err := parseTimeRange(req.TimeFrom, req.TimeTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rows, err := h.Scheduling.AddAvailabilitySeries(r.Context(), schedulingdomain.SeriesInput{
		ParticipantID: participant.ID,
		MeetingID:     participant.MeetingID,
		Rule:          req.RRule,
		From:          from,
		Until:         until,
		TimeFrom:      timeFrom,
		TimeTo:        timeTo,
	})
	if err != nil {
		h.writeDomainError(w, r, "availability.add_series", err, "participant_id", participant.ID, "rrule", req.RRule)
		return
	}

	writeJSON(w, http.StatusOK, toAvailabilityResponses(rows))
}

func (h *Handlers) ListAvailability(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "id")
	if _, err := h.Meetings.GetMeeting(r.Context(), meetingID); err != nil {
		h.writeDomainError(w, r, "availability.list", err, "meeting_id", meetingID)
		return
	}

	rows, err := h.Scheduling.ListAvailability(r.Context(), meetingID)
	if err != nil {
		h.writeDomainError(w, r, "availability.list", err, "meeting_id", meetingID)
		return
	}

	writeJSON(w, http.StatusOK, toAvailabilityResponses(rows))
}

func (h *Handlers) CommonDates(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "id")
	if _, err := h.Meetings.GetMeeting(r.Context(), meetingID); err != nil {
		h.writeDomainError(w, r, "availability.common_dates", err, "meeting_id", meetingID)
		return
	}

	dates, err := h.Scheduling.CommonDates(r.Context(), meetingID)
	if err != nil {
		h.writeDomainError(w, r, "availability.common_dates", err, "meeting_id", meetingID)
		return
	}

	writeJSON(w, http.StatusOK, commonDatesResponse{MeetingID: meetingID, Dates: formatDates(dates)})
}
