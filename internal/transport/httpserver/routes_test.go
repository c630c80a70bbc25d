package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chronos-go/internal/auth"
	"chronos-go/internal/config"
	meetingdomain "chronos-go/internal/domain/meeting"
	schedulingdomain "chronos-go/internal/domain/scheduling"
	userdomain "chronos-go/internal/domain/user"
	"chronos-go/internal/repository/inmemory"
	"chronos-go/internal/transport/httpserver/handler"
	authmw "chronos-go/internal/transport/httpserver/middleware"
	"chronos-go/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rejectingProfiles struct{}

func (rejectingProfiles) FetchProfile(ctx context.Context, accessToken string) (userdomain.Profile, error) {
	return userdomain.Profile{}, auth.ErrProviderRejected
}

type testServer struct {
	handler http.Handler
	issuer  *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()
	cfg := config.Config{
		ServiceName: "chronos",
		CORSOrigins: []string{"http://localhost:5173"},
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-test-secret-test-secret",
			Issuer:         "chronos",
			Audience:       "chronos-web",
			TokenTTL:       time.Hour,
			AllowTestToken: true,
		},
	}

	store := inmemory.NewStore()
	schedulingRepo := inmemory.NewSchedulingRepository(store)
	recalculator := schedulingdomain.NewRecalculator(schedulingRepo, nil, log)
	meetings := meetingdomain.NewService(inmemory.NewMeetingRepository(store), recalculator, inmemory.NewMeetingCache(), time.Minute)
	scheduling := schedulingdomain.NewService(schedulingRepo, recalculator)
	users := userdomain.NewService(inmemory.NewUserRepository(store))

	issuer := auth.NewTokenIssuer(cfg.Auth)
	validator, err := auth.NewTokenValidator(cfg.Auth)
	require.NoError(t, err)
	authService := auth.NewService(users, rejectingProfiles{}, issuer, cfg.Auth.AllowTestToken)
	oauth := auth.NewYandexProvider(config.YandexConfig{})

	handlers := handler.New(meetings, scheduling, users, authService, oauth, cfg.ServiceName, log)
	authenticator := authmw.NewAuthenticator(cfg.Auth, validator, users, log)

	return &testServer{handler: NewRouter(cfg, handlers, authenticator), issuer: issuer}
}

func (s *testServer) tokenFor(t *testing.T, id, email, name string) string {
	t.Helper()
	token, _, err := s.issuer.Issue(&userdomain.User{ID: id, Email: email, Name: name})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &value), rec.Body.String())
	return value
}

type meetingBody struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	ShareToken string  `json:"shareToken"`
	FinalDate  *string `json:"finalDate"`
}

type participantBody struct {
	ID     string  `json:"id"`
	UserID *string `json:"userId"`
	Name   string  `json:"name"`
	Status string  `json:"status"`
}

type detailBody struct {
	Meeting              meetingBody       `json:"meeting"`
	Participants         []participantBody `json:"participants"`
	Availabilities       []json.RawMessage `json:"availabilities"`
	Votes                []json.RawMessage `json:"votes"`
	CommonAvailableDates []string          `json:"commonAvailableDates"`
}

type participationBody struct {
	IsParticipant bool             `json:"isParticipant"`
	Participant   *participantBody `json:"participant"`
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody[map[string]map[string]string](t, rec)
	return body["error"]["code"]
}

func statusOf(detail detailBody, participantID string) string {
	for _, participant := range detail.Participants {
		if participant.ID == participantID {
			return participant.Status
		}
	}
	return ""
}

// createMeetingWithGuest returns the meeting, the creator's participant id
// and a guest participant id.
func createMeetingWithGuest(t *testing.T, s *testServer, creatorToken string) (meetingBody, string, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/meetings", creatorToken, map[string]string{"title": "Team dinner"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	meeting := decodeBody[meetingBody](t, rec)

	rec = s.do(t, http.MethodGet, "/api/meetings/"+meeting.ID+"/participation", creatorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	participation := decodeBody[participationBody](t, rec)
	require.True(t, participation.IsParticipant)

	rec = s.do(t, http.MethodPost, "/api/meetings/"+meeting.ID+"/participants", "", map[string]string{"name": "Guest Bob"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	guest := decodeBody[participantBody](t, rec)

	return meeting, participation.Participant.ID, guest.ID
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]interface{}](t, rec)
	assert.Equal(t, "UP", body["status"])
	assert.Equal(t, "chronos", body["service"])

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginWithTestTokenAndMe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"yandexToken": "test-token"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody[struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}](t, rec)
	assert.Equal(t, "test@yandex.ru", login.User.Email)

	rec = s.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[map[string]interface{}](t, rec)
	assert.Equal(t, "test@yandex.ru", me["email"])

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"yandexToken": "bogus"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_yandex_token", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/api/auth/logout", login.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthRequiredRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/meetings", "", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/meetings/my", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, "/api/auth/yandex", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSchedulingFlow(t *testing.T) {
	s := newTestServer(t)
	creatorToken := s.tokenFor(t, "11111111-1111-1111-1111-111111111111", "ann@example.com", "Ann")
	meeting, creatorID, guestID := createMeetingWithGuest(t, s, creatorToken)
	assert.Equal(t, "PLANNING", meeting.Status)
	assert.Len(t, meeting.ShareToken, 12)

	base := "/api/meetings/" + meeting.ID + "/participants/"

	rec := s.do(t, http.MethodPut, base+creatorID+"/availability", creatorToken, map[string]string{"date": "2025-06-01"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPut, base+creatorID+"/availability", creatorToken, map[string]string{"date": "2025-06-02", "timeFrom": "18:00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"timeFrom":"18:00:00"`)

	rec = s.do(t, http.MethodPut, base+guestID+"/availability", "", map[string]string{"date": "2025-06-02"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPut, base+guestID+"/availability", "", map[string]string{"date": "2025-06-03"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/meetings/"+meeting.ID+"/common-dates", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	common := decodeBody[struct {
		Dates []string `json:"dates"`
	}](t, rec)
	assert.Equal(t, []string{"2025-06-02"}, common.Dates)

	rec = s.do(t, http.MethodPut, base+creatorID+"/vote", creatorToken, map[string]string{"date": "2025-06-02"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/meetings/share/"+meeting.ShareToken, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeBody[detailBody](t, rec)
	assert.Equal(t, meeting.ID, detail.Meeting.ID)
	assert.Len(t, detail.Participants, 2)
	assert.Len(t, detail.Availabilities, 4)
	assert.Len(t, detail.Votes, 1)
	assert.Equal(t, []string{"2025-06-02"}, detail.CommonAvailableDates)
	assert.Equal(t, "VOTED", statusOf(detail, creatorID))
	assert.Equal(t, "CHOOSEN_DATE", statusOf(detail, guestID))

	rec = s.do(t, http.MethodDelete, base+guestID+"/availability?date=2025-06-02", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/meetings/"+meeting.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail = decodeBody[detailBody](t, rec)
	assert.Empty(t, detail.CommonAvailableDates)
	assert.Equal(t, "CHOOSEN_DATE", statusOf(detail, creatorID))

	rec = s.do(t, http.MethodDelete, base+creatorID+"/vote", creatorToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, base+creatorID+"/vote", creatorToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "vote_not_found", errorCode(t, rec))
}

func TestDuplicateAvailabilityIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	creatorToken := s.tokenFor(t, "11111111-1111-1111-1111-111111111111", "ann@example.com", "Ann")
	meeting, creatorID, _ := createMeetingWithGuest(t, s, creatorToken)
	path := "/api/meetings/" + meeting.ID + "/participants/" + creatorID + "/availability"

	first := s.do(t, http.MethodPut, path, creatorToken, map[string]string{"date": "2025-06-05"})
	require.Equal(t, http.StatusOK, first.Code)
	second := s.do(t, http.MethodPut, path, creatorToken, map[string]string{"date": "2025-06-05"})
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, decodeBody[map[string]interface{}](t, first)["id"], decodeBody[map[string]interface{}](t, second)["id"])

	rec := s.do(t, http.MethodGet, "/api/meetings/"+meeting.ID+"/availability", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]json.RawMessage](t, rec), 1)
}

func TestParticipantOwnershipIsEnforced(t *testing.T) {
	s := newTestServer(t)
	creatorToken := s.tokenFor(t, "11111111-1111-1111-1111-111111111111", "ann@example.com", "Ann")
	strangerToken := s.tokenFor(t, "22222222-2222-2222-2222-222222222222", "eve@example.com", "Eve")
	meeting, creatorID, guestID := createMeetingWithGuest(t, s, creatorToken)
	base := "/api/meetings/" + meeting.ID + "/participants/"

	tests := []struct {
		name  string
		path  string
		token string
	}{
		{name: "anonymous on a user participant", path: base + creatorID + "/availability", token: ""},
		{name: "another user on a user participant", path: base + creatorID + "/availability", token: strangerToken},
		{name: "signed in user on a guest", path: base + guestID + "/availability", token: creatorToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPut, tt.path, tt.token, map[string]string{"date": "2025-06-01"})
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "forbidden", errorCode(t, rec))
		})
	}

	rec := s.do(t, http.MethodPut, "/api/meetings/"+meeting.ID+"/participants/unknown/vote", "", map[string]string{"date": "2025-06-01"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "participant_not_found", errorCode(t, rec))
}

func TestJoinMeeting(t *testing.T) {
	s := newTestServer(t)
	creatorToken := s.tokenFor(t, "11111111-1111-1111-1111-111111111111", "ann@example.com", "Ann")
	memberToken := s.tokenFor(t, "33333333-3333-3333-3333-333333333333", "max@example.com", "Max")
	meeting, _, _ := createMeetingWithGuest(t, s, creatorToken)
	path := "/api/meetings/" + meeting.ID + "/participants"

	rec := s.do(t, http.MethodPost, path, "", map[string]string{"name": "Guest Bob"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, path, "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, path, memberToken, map[string]string{"email": "other@example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, path, memberToken, map[string]string{})
	require.Equal(t, http.StatusCreated, rec.Code)
	joined := decodeBody[participantBody](t, rec)
	assert.Equal(t, "Max", joined.Name)

	rec = s.do(t, http.MethodPost, path, memberToken, map[string]string{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, joined.ID, decodeBody[participantBody](t, rec).ID)

	rec = s.do(t, http.MethodGet, "/api/meetings/my", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]meetingBody](t, rec), 1)

	rec = s.do(t, http.MethodPost, "/api/meetings/missing/participants", "", map[string]string{"name": "Zed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeaveMeetingRestoresCommonDates(t *testing.T) {
	s := newTestServer(t)
	creatorToken := s.tokenFor(t, "11111111-1111-1111-1111-111111111111", "ann@example.com", "Ann")
	memberToken := s.tokenFor(t, "33333333-3333-3333-3333-333333333333", "max@example.com", "Max")
	meeting, creatorID, guestID := createMeetingWithGuest(t, s, creatorToken)
	base := "/api/meetings/" + meeting.ID + "/participants/"

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, base+creatorID+"/availability", creatorToken, map[string]string{"date": "2025-06-10"}).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, base+guestID+"/availability", "", map[string]string{"date": "2025-06-10"}).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/meetings/"+meeting.ID+"/participants", memberToken, map[string]string{}).Code)

	rec := s.do(t, http.MethodGet, "/api/meetings/"+meeting.ID, "", nil)
	assert.Empty(t, decodeBody[detailBody](t, rec).CommonAvailableDates)

	rec = s.do(t, http.MethodPost, "/api/meetings/"+meeting.ID+"/leave", memberToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/meetings/"+meeting.ID, "", nil)
	assert.Equal(t, []string{"2025-06-10"}, decodeBody[detailBody](t, rec).CommonAvailableDates)

	rec = s.do(t, http.MethodGet, "/api/meetings/"+meeting.ID+"/participation", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[participationBody](t, rec).IsParticipant)

	rec = s.do(t, http.MethodPost, "/api/meetings/"+meeting.ID+"/leave", memberToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMeetingStatus(t *testing.T) {
	s := newTestServer(t)
	creatorToken := s.tokenFor(t, "11111111-1111-1111-1111-111111111111", "ann@example.com", "Ann")
	strangerToken := s.tokenFor(t, "22222222-2222-2222-2222-222222222222", "eve@example.com", "Eve")
	meeting, _, _ := createMeetingWithGuest(t, s, creatorToken)
	path := "/api/meetings/" + meeting.ID + "/status"

	rec := s.do(t, http.MethodPatch, path, strangerToken, map[string]string{"status": "VOTING"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, path, creatorToken, map[string]string{"status": "DONE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, path, creatorToken, map[string]string{"status": "COMPLETED", "finalDate": "2025-06-02"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[meetingBody](t, rec)
	assert.Equal(t, "COMPLETED", updated.Status)
	require.NotNil(t, updated.FinalDate)
	assert.Equal(t, "2025-06-02", *updated.FinalDate)

	rec = s.do(t, http.MethodGet, "/api/meetings/share/"+meeting.ShareToken, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "COMPLETED", decodeBody[detailBody](t, rec).Meeting.Status)
}

func TestAvailabilitySeriesEndpoint(t *testing.T) {
	s := newTestServer(t)
	creatorToken := s.tokenFor(t, "11111111-1111-1111-1111-111111111111", "ann@example.com", "Ann")
	meeting, creatorID, _ := createMeetingWithGuest(t, s, creatorToken)
	path := "/api/meetings/" + meeting.ID + "/participants/" + creatorID + "/availability/series"

	rec := s.do(t, http.MethodPost, path, creatorToken, map[string]string{
		"rrule": "FREQ=WEEKLY;BYDAY=MO",
		"from":  "2025-06-01",
		"until": "2025-06-30",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decodeBody[[]json.RawMessage](t, rec), 5)

	rec = s.do(t, http.MethodPost, path, creatorToken, map[string]string{
		"rrule": "FREQ=NEVER",
		"from":  "2025-06-01",
		"until": "2025-06-30",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_rrule", errorCode(t, rec))
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)
	creatorToken := s.tokenFor(t, "11111111-1111-1111-1111-111111111111", "ann@example.com", "Ann")
	meeting, creatorID, _ := createMeetingWithGuest(t, s, creatorToken)
	path := "/api/meetings/" + meeting.ID + "/participants/" + creatorID + "/availability"

	tests := []struct {
		name string
		body interface{}
		code string
	}{
		{name: "malformed json", body: "{", code: "invalid_json"},
		{name: "unknown field", body: map[string]string{"date": "2025-06-01", "color": "red"}, code: "invalid_json"},
		{name: "missing date", body: map[string]string{}, code: "invalid_request"},
		{name: "bad date", body: map[string]string{"date": "06/01/2025"}, code: "invalid_request"},
		{name: "bad time", body: map[string]string{"date": "2025-06-01", "timeFrom": "25:00"}, code: "invalid_request"},
		{name: "reversed times", body: map[string]string{"date": "2025-06-01", "timeFrom": "18:00", "timeTo": "09:00"}, code: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPut, path, creatorToken, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}

	rec := s.do(t, http.MethodDelete, path, creatorToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, path+"?date=2025-01-01", creatorToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "availability_not_found", errorCode(t, rec))
}
