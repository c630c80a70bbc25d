package handler

import (
	"time"

	meetingdomain "chronos-go/internal/domain/meeting"
	schedulingdomain "chronos-go/internal/domain/scheduling"
	userdomain "chronos-go/internal/domain/user"
)

type meetingResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description"`
	Status          string    `json:"status"`
	FinalDate       *string   `json:"finalDate"`
	ShareToken      string    `json:"shareToken"`
	CreatedByUserID *string   `json:"createdByUserId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type participantResponse struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meetingId"`
	UserID    *string   `json:"userId"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Status    string    `json:"status"`
	JoinedAt  time.Time `json:"joinedAt"`
}

type availabilityResponse struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	MeetingID     string    `json:"meetingId"`
	Date          string    `json:"date"`
	TimeFrom      *string   `json:"timeFrom,omitempty"`
	TimeTo        *string   `json:"timeTo,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type voteResponse struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	MeetingID     string    `json:"meetingId"`
	VotedDate     string    `json:"votedDate"`
	CreatedAt     time.Time `json:"createdAt"`
}

type meetingDetailResponse struct {
	Meeting              meetingResponse        `json:"meeting"`
	Participants         []participantResponse  `json:"participants"`
	Availabilities       []availabilityResponse `json:"availabilities"`
	Votes                []voteResponse         `json:"votes"`
	CommonAvailableDates []string               `json:"commonAvailableDates"`
}

type userResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
}

func toMeetingResponse(meeting *meetingdomain.Meeting) meetingResponse {
	response := meetingResponse{
		ID:              meeting.ID,
		Title:           meeting.Title,
		Description:     meeting.Description,
		Status:          string(meeting.Status),
		ShareToken:      meeting.ShareToken,
		CreatedByUserID: meeting.CreatedByUserID,
		CreatedAt:       meeting.CreatedAt,
		UpdatedAt:       meeting.UpdatedAt,
	}
	if meeting.FinalDate != nil {
		finalDate := formatDate(*meeting.FinalDate)
		response.FinalDate = &finalDate
	}
	return response
}

func toMeetingResponses(meetings []meetingdomain.Meeting) []meetingResponse {
	result := make([]meetingResponse, 0, len(meetings))
	for i := range meetings {
		result = append(result, toMeetingResponse(&meetings[i]))
	}
	return result
}

func toParticipantResponse(participant *meetingdomain.Participant) participantResponse {
	return participantResponse{
		ID:        participant.ID,
		MeetingID: participant.MeetingID,
		UserID:    participant.UserID,
		Name:      participant.Name,
		Email:     participant.Email,
		Status:    string(participant.Status),
		JoinedAt:  participant.JoinedAt,
	}
}

func toParticipantResponses(participants []meetingdomain.Participant) []participantResponse {
	result := make([]participantResponse, 0, len(participants))
	for i := range participants {
		result = append(result, toParticipantResponse(&participants[i]))
	}
	return result
}

func toAvailabilityResponse(availability *schedulingdomain.Availability) availabilityResponse {
	return availabilityResponse{
		ID:            availability.ID,
		ParticipantID: availability.ParticipantID,
		MeetingID:     availability.MeetingID,
		Date:          formatDate(availability.Date),
		TimeFrom:      availability.TimeFrom,
		TimeTo:        availability.TimeTo,
		CreatedAt:     availability.CreatedAt,
	}
}

func toAvailabilityResponses(rows []schedulingdomain.Availability) []availabilityResponse {
	result := make([]availabilityResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toAvailabilityResponse(&rows[i]))
	}
	return result
}

func toVoteResponse(vote *schedulingdomain.Vote) voteResponse {
	return voteResponse{
		ID:            vote.ID,
		ParticipantID: vote.ParticipantID,
		MeetingID:     vote.MeetingID,
		VotedDate:     formatDate(vote.VotedDate),
		CreatedAt:     vote.CreatedAt,
	}
}

func toVoteResponses(votes []schedulingdomain.Vote) []voteResponse {
	result := make([]voteResponse, 0, len(votes))
	for i := range votes {
		result = append(result, toVoteResponse(&votes[i]))
	}
	return result
}

func toMeetingDetailResponse(meeting *meetingdomain.Meeting, snapshot *schedulingdomain.Snapshot) meetingDetailResponse {
	return meetingDetailResponse{
		Meeting:              toMeetingResponse(meeting),
		Participants:         toParticipantResponses(snapshot.Participants),
		Availabilities:       toAvailabilityResponses(snapshot.Availabilities),
		Votes:                toVoteResponses(snapshot.Votes),
		CommonAvailableDates: formatDates(snapshot.CommonDates),
	}
}

func toUserResponse(user *userdomain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}
}
