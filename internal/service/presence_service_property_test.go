package service

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/mock"

	"presence-notify/internal/domain"
)

// Any sequence of login/logout events leaves the status of the last event
// applied, and every transition emits exactly one presence change.
func TestProperty_LastTransitionWins(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("status reflects the last applied event", prop.ForAll(
		func(logins []bool) bool {
			publisher := new(MockEventPublisher)
			publisher.On("PublishPresenceChanged", mock.Anything, mock.Anything).Return(nil)
			svc := newRedisBackedService(t, publisher)
			ctx := context.Background()

			if err := svc.HandleUserCreated(ctx, domain.UserCreated{UserID: "u1"}); err != nil {
				return false
			}

			want := domain.PresenceStatusOffline
			for _, login := range logins {
				var err error
				if login {
					err = svc.HandleUserLoggedIn(ctx, domain.UserLoggedIn{UserID: "u1"})
					want = domain.PresenceStatusOnline
				} else {
					err = svc.HandleUserLoggedOut(ctx, domain.UserLoggedOut{UserID: "u1"})
					want = domain.PresenceStatusOffline
				}
				if err != nil {
					return false
				}
			}

			presence, err := svc.GetUserStatus(ctx, "u1")
			if err != nil || presence.Status != want {
				return false
			}
			return len(publisher.Calls) == len(logins)
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
