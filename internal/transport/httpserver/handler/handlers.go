package handler

import (
	"context"

	"chronos-go/internal/auth"
	meetingdomain "chronos-go/internal/domain/meeting"
	schedulingdomain "chronos-go/internal/domain/scheduling"
	userdomain "chronos-go/internal/domain/user"
	"chronos-go/pkg/logger"
)

// OAuthProvider drives the browser authorization-code flow.
type OAuthProvider interface {
	AuthCodeURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (string, error)
}

type Handlers struct {
	Meetings    *meetingdomain.Service
	Scheduling  *schedulingdomain.Service
	Users       *userdomain.Service
	Auth        *auth.Service
	OAuth       OAuthProvider
	serviceName string
	log         logger.Logger
}

func New(meetings *meetingdomain.Service, scheduling *schedulingdomain.Service, users *userdomain.Service, authService *auth.Service, oauth OAuthProvider, serviceName string, log logger.Logger) *Handlers {
	return &Handlers{
		Meetings:    meetings,
		Scheduling:  scheduling,
		Users:       users,
		Auth:        authService,
		OAuth:       oauth,
		serviceName: serviceName,
		log:         log,
	}
}
