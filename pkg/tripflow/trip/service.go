package trip

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/tripflow/pkg/tripflow/entity"
	"github.com/randalmurphal/tripflow/pkg/tripflow/eventlog"
)

// Reply is the result of a trip command.
type Reply = entity.Reply[Trip]

// CreateTrip carries the parameters for trip creation.
type CreateTrip struct {
	TripID        string
	UserID        string
	Destination   string
	StartDate     string
	EndDate       string
	Budget        float64
	GeneratedPlan TravelPlan
}

// Service processes commands against trip aggregates.
// Successful non-idempotent commands append exactly one event before
// replying; the reply is only returned after the append is durable.
type Service struct {
	exec   *entity.Executor[Trip]
	logger *slog.Logger
}

// NewService creates a trip service over the given event store.
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

// Create creates a trip with its generated plan. Creating an existing trip
// is an idempotent no-op success: the original plan wins, and a duplicate
// call's differing payload is silently ignored.
func (s *Service) Create(ctx context.Context, cmd CreateTrip) (Reply, error) {
	return s.exec.Execute(ctx, cmd.TripID, func(state *Trip) (entity.Decision, error) {
		if state != nil {
			s.logger.Info("trip already exists", slog.String("trip_id", cmd.TripID))
			return entity.NoOp()
		}

		s.logger.Info("creating trip", slog.String("trip_id", cmd.TripID))
		evt, err := eventlog.New(cmd.TripID, KindTripCreated, TripCreatedPayload{
			TripID:        cmd.TripID,
			UserID:        cmd.UserID,
			Destination:   cmd.Destination,
			StartDate:     cmd.StartDate,
			EndDate:       cmd.EndDate,
			Budget:        cmd.Budget,
			GeneratedPlan: cmd.GeneratedPlan,
		})
		if err != nil {
			return entity.Decision{}, err
		}
		return entity.Persist(evt)
	})
}

// UpdatePlan replaces the trip's generated plan. Status unchanged.
func (s *Service) UpdatePlan(ctx context.Context, tripID string, plan TravelPlan) (Reply, error) {
	return s.exec.Execute(ctx, tripID, func(state *Trip) (entity.Decision, error) {
		if _, err := entity.Require(state, "trip", tripID); err != nil {
			return entity.Decision{}, err
		}

		s.logger.Info("updating trip plan", slog.String("trip_id", tripID))
		evt, err := eventlog.New(tripID, KindTripPlanUpdated, TripPlanUpdatedPayload{
			TripID:        state.TripID,
			GeneratedPlan: plan,
		})
		if err != nil {
			return entity.Decision{}, err
		}
		return entity.Persist(evt)
	})
}

// MarkBooked transitions the trip to BOOKED. Booking an already-booked trip
// is an idempotent no-op success.
func (s *Service) MarkBooked(ctx context.Context, tripID string) (Reply, error) {
	return s.exec.Execute(ctx, tripID, func(state *Trip) (entity.Decision, error) {
		if _, err := entity.Require(state, "trip", tripID); err != nil {
			return entity.Decision{}, err
		}

		if state.Status == StatusBooked {
			s.logger.Info("trip already booked", slog.String("trip_id", tripID))
			return entity.NoOp()
		}

		s.logger.Info("marking trip as booked", slog.String("trip_id", tripID))
		evt, err := eventlog.New(tripID, KindTripBooked, TripBookedPayload{TripID: state.TripID})
		if err != nil {
			return entity.Decision{}, err
		}
		return entity.Persist(evt)
	})
}

// MarkCompleted transitions the trip to COMPLETED. Completing an
// already-completed trip is an idempotent no-op success.
func (s *Service) MarkCompleted(ctx context.Context, tripID string) (Reply, error) {
	return s.exec.Execute(ctx, tripID, func(state *Trip) (entity.Decision, error) {
		if _, err := entity.Require(state, "trip", tripID); err != nil {
			return entity.Decision{}, err
		}

		if state.Status == StatusCompleted {
			s.logger.Info("trip already completed", slog.String("trip_id", tripID))
			return entity.NoOp()
		}

		s.logger.Info("marking trip as completed", slog.String("trip_id", tripID))
		evt, err := eventlog.New(tripID, KindTripCompleted, TripCompletedPayload{TripID: state.TripID})
		if err != nil {
			return entity.Decision{}, err
		}
		return entity.Persist(evt)
	})
}

// Get returns the current trip state.
func (s *Service) Get(ctx context.Context, tripID string) (*Trip, error) {
	state, err := s.exec.Load(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return entity.Require(state, "trip", tripID)
}
