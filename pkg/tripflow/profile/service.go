package profile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/randalmurphal/tripflow/pkg/tripflow/entity"
	"github.com/randalmurphal/tripflow/pkg/tripflow/eventlog"
	"github.com/randalmurphal/tripflow/pkg/tripflow/faults"
)

// Reply is the result of a profile command.
type Reply = entity.Reply[UserProfile]

// Service processes commands against user profile aggregates.
// Successful non-idempotent commands append exactly one event before
// replying; the reply is only returned after the append is durable.
type Service struct {
	exec   *entity.Executor[UserProfile]
	logger *slog.Logger
}

// NewService creates a profile service over the given event store.
// A nil logger defaults to slog.Default().
func NewService(store eventlog.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		exec:   entity.NewExecutor(store, Apply),
		logger: logger,
	}
}

// CreateProfile creates a user profile. Creating an existing profile is an
// idempotent no-op success.
func (s *Service) CreateProfile(ctx context.Context, userID, name, email string) (Reply, error) {
	if err := validateIdentity(name, email); err != nil {
		return Reply{}, err
	}

	return s.exec.Execute(ctx, userID, func(state *UserProfile) (entity.Decision, error) {
		if state != nil {
			s.logger.Info("user profile already exists", slog.String("user_id", userID))
			return entity.NoOp()
		}

		s.logger.Info("creating user profile", slog.String("user_id", userID))
		evt, err := eventlog.New(userID, KindProfileCreated, ProfileCreatedPayload{
			UserID: userID,
			Name:   name,
			Email:  email,
		})
		if err != nil {
			return entity.Decision{}, err
		}
		return entity.Persist(evt)
	})
}

// UpdateProfile replaces the profile's name and email.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, email string) (Reply, error) {
	if err := validateIdentity(name, email); err != nil {
		return Reply{}, err
	}

	return s.exec.Execute(ctx, userID, func(state *UserProfile) (entity.Decision, error) {
		if _, err := entity.Require(state, "user profile", userID); err != nil {
			return entity.Decision{}, err
		}

		s.logger.Info("updating user profile", slog.String("user_id", userID))
		evt, err := eventlog.New(userID, KindProfileUpdated, ProfileUpdatedPayload{
			UserID: state.UserID,
			Name:   name,
			Email:  email,
		})
		if err != nil {
			return entity.Decision{}, err
		}
		return entity.Persist(evt)
	})
}

// AddPreference appends a travel preference to the profile.
// The preference list is append-only; no dedup is attempted.
func (s *Service) AddPreference(ctx context.Context, userID string, pref Preference) (Reply, error) {
	return s.exec.Execute(ctx, userID, func(state *UserProfile) (entity.Decision, error) {
		if _, err := entity.Require(state, "user profile", userID); err != nil {
			return entity.Decision{}, err
		}

		s.logger.Info("adding travel preference",
			slog.String("user_id", userID),
			slog.String("type", string(pref.Type)),
			slog.String("value", pref.Value),
		)
		evt, err := eventlog.New(userID, KindPreferenceAdded, PreferenceAddedPayload{
			UserID:     state.UserID,
			Preference: pref,
		})
		if err != nil {
			return entity.Decision{}, err
		}
		return entity.Persist(evt)
	})
}

// AddCompletedTrip appends a trip id to the profile's history.
func (s *Service) AddCompletedTrip(ctx context.Context, userID, tripID string) (Reply, error) {
	return s.exec.Execute(ctx, userID, func(state *UserProfile) (entity.Decision, error) {
		if _, err := entity.Require(state, "user profile", userID); err != nil {
			return entity.Decision{}, err
		}

		s.logger.Info("adding completed trip",
			slog.String("user_id", userID),
			slog.String("trip_id", tripID),
		)
		evt, err := eventlog.New(userID, KindTripCompleted, TripCompletedPayload{
			UserID: state.UserID,
			TripID: tripID,
		})
		if err != nil {
			return entity.Decision{}, err
		}
		return entity.Persist(evt)
	})
}

// GetProfile returns the current profile state.
func (s *Service) GetProfile(ctx context.Context, userID string) (*UserProfile, error) {
	state, err := s.exec.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return entity.Require(state, "user profile", userID)
}

// validateIdentity rejects blank name or email.
func validateIdentity(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return &faults.ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if strings.TrimSpace(email) == "" {
		return &faults.ValidationError{Field: "email", Message: "cannot be empty"}
	}
	return nil
}
