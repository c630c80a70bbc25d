package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"chronos-go/internal/auth"
	meetingdomain "chronos-go/internal/domain/meeting"
	schedulingdomain "chronos-go/internal/domain/scheduling"
	userdomain "chronos-go/internal/domain/user"
	"chronos-go/internal/transport/httpserver/middleware"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
}

func forbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, "forbidden", message)
}

// writeDomainError maps service errors to responses. op is the log prefix,
// e.g. "availability.add".
func (h *Handlers) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error, args ...any) {
	log := h.log.WithContext(r.Context())
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		args = append(args, "user_id", userID)
	}

	switch {
	case errors.Is(err, schedulingdomain.ErrRecalculationFailed):
		log.InternalError(op+": recalculation failed", err, args...)
		writeError(w, http.StatusInternalServerError, "recalculation_failed", "participant statuses could not be refreshed")
	case errors.Is(err, meetingdomain.ErrMeetingNotFound):
		log.BusinessError(op+": meeting not found", err, args...)
		writeError(w, http.StatusNotFound, "meeting_not_found", "meeting not found")
	case errors.Is(err, meetingdomain.ErrParticipantNotFound):
		log.BusinessError(op+": participant not found", err, args...)
		writeError(w, http.StatusNotFound, "participant_not_found", "participant not found")
	case errors.Is(err, schedulingdomain.ErrVoteNotFound):
		log.BusinessError(op+": vote not found", err, args...)
		writeError(w, http.StatusNotFound, "vote_not_found", "vote not found")
	case errors.Is(err, schedulingdomain.ErrAvailabilityNotFound):
		log.BusinessError(op+": availability not found", err, args...)
		writeError(w, http.StatusNotFound, "availability_not_found", "availability not found")
	case errors.Is(err, userdomain.ErrUserNotFound):
		log.BusinessError(op+": user not found", err, args...)
		writeError(w, http.StatusNotFound, "user_not_found", "user not found")
	case errors.Is(err, meetingdomain.ErrNotCreator):
		log.BusinessError(op+": caller is not the creator", err, args...)
		forbidden(w, "only the meeting creator can do this")
	case errors.Is(err, meetingdomain.ErrEmailMismatch):
		log.BusinessError(op+": email mismatch", err, args...)
		forbidden(w, "email does not match the signed in user")
	case errors.Is(err, meetingdomain.ErrParticipantNameTaken):
		log.BusinessError(op+": name taken", err, args...)
		writeError(w, http.StatusConflict, "participant_name_taken", "a participant with this name already exists")
	case errors.Is(err, meetingdomain.ErrInvalidStatus):
		log.BusinessError(op+": invalid status", err, args...)
		writeError(w, http.StatusBadRequest, "invalid_status", "status must be PLANNING, VOTING or COMPLETED")
	case errors.Is(err, meetingdomain.ErrTitleRequired), errors.Is(err, meetingdomain.ErrNameRequired):
		log.BusinessError(op+": invalid request", err, args...)
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, schedulingdomain.ErrInvalidRule):
		log.BusinessError(op+": invalid rrule", err, args...)
		writeError(w, http.StatusBadRequest, "invalid_rrule", "rrule is not a valid recurrence rule")
	case errors.Is(err, schedulingdomain.ErrInvalidRange):
		log.BusinessError(op+": invalid range", err, args...)
		writeError(w, http.StatusBadRequest, "invalid_range", "until must not precede from and the range is limited to a year")
	case errors.Is(err, schedulingdomain.ErrTooManyDates):
		log.BusinessError(op+": too many dates", err, args...)
		writeError(w, http.StatusBadRequest, "too_many_dates", "recurrence produces too many dates")
	case errors.Is(err, auth.ErrProviderRejected), errors.Is(err, userdomain.ErrInvalidProfile):
		log.BusinessError(op+": provider rejected login", err, args...)
		writeError(w, http.StatusUnauthorized, "invalid_yandex_token", "yandex token was rejected")
	case errors.Is(err, auth.ErrProviderUnavailable):
		log.InternalError(op+": provider unavailable", err, args...)
		writeError(w, http.StatusBadGateway, "provider_unavailable", "identity provider unavailable")
	case errors.Is(err, auth.ErrOAuthNotConfigured):
		log.InternalError(op+": oauth not configured", err, args...)
		writeError(w, http.StatusServiceUnavailable, "oauth_not_configured", "oauth login is not configured")
	default:
		log.InternalError(op+": unexpected error", err, args...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

var errForeignParticipant = errors.New("participant owned by another identity")
