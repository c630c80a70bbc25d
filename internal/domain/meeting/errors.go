package meeting

import "errors"

var (
	ErrMeetingNotFound            = errors.New("meeting not found")
	ErrParticipantNotFound        = errors.New("participant not found")
	ErrParticipantNameTaken       = errors.New("participant name already taken")
	ErrParticipantExists          = errors.New("participant already exists")
	ErrEmailMismatch              = errors.New("email does not match authenticated user")
	ErrNotCreator                 = errors.New("not meeting creator")
	ErrInvalidStatus              = errors.New("invalid meeting status")
	ErrTitleRequired              = errors.New("title is required")
	ErrNameRequired               = errors.New("name is required")
	ErrShareTokenGenerationFailed = errors.New("share token generation failed")
)
