package planner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/tripflow/pkg/tripflow/config"
	"github.com/randalmurphal/tripflow/pkg/tripflow/eventlog"
	"github.com/randalmurphal/tripflow/pkg/tripflow/faults"
	"github.com/randalmurphal/tripflow/pkg/tripflow/profile"
	"github.com/randalmurphal/tripflow/pkg/tripflow/trip"
	"github.com/randalmurphal/tripflow/pkg/tripflow/workflow"
)

// stubGenerator returns a canned plan, optionally failing the first
// few calls.
type stubGenerator struct {
	failures atomic.Int32
	failWith error
	calls    atomic.Int32
	lastReq  Request
}

func (g *stubGenerator) GeneratePlan(ctx context.Context, req Request) (trip.TravelPlan, error) {
	g.calls.Add(1)
	g.lastReq = req
	if g.failures.Add(-1) >= 0 {
		return trip.TravelPlan{}, g.failWith
	}
	return trip.TravelPlan{
		Summary:            "Generated itinerary for " + req.Destination,
		TotalEstimatedCost: req.Budget * 0.8,
	}, nil
}

func testSettings() config.Settings {
	return config.Settings{
		StepTimeout:    time.Second,
		RetryBudget:    2,
		InitialBackoff: time.Millisecond,
	}
}

type fixture struct {
	planner   *Planner
	profiles  *profile.Service
	trips     *trip.Service
	generator *stubGenerator
}

func newFixture(t *testing.T, gen *stubGenerator) fixture {
	t.Helper()

	profiles := profile.NewService(eventlog.NewMemoryStore(), nil)
	trips := trip.NewService(eventlog.NewMemoryStore(), nil)

	p, err := New(profiles, trips, gen, workflow.NewMemoryStore(), testSettings())
	require.NoError(t, err)

	_, err = profiles.CreateProfile(context.Background(), "user-1", "Alice", "alice@example.com")
	require.NoError(t, err)
	_, err = profiles.AddPreference(context.Background(), "user-1", profile.Preference{
		Type: profile.PreferenceCuisine, Value: "seafood", Priority: 1,
	})
	require.NoError(t, err)

	return fixture{planner: p, profiles: profiles, trips: trips, generator: gen}
}

func planRequest() PlanRequest {
	return PlanRequest{
		TripID:      "trip-1",
		UserID:      "user-1",
		Destination: "Lisbon",
		StartDate:   "2026-09-01",
		EndDate:     "2026-09-05",
		Budget:      2000,
	}
}

func TestStartPlanningHappyPath(t *testing.T) {
	fx := newFixture(t, &stubGenerator{})
	ctx := context.Background()

	tripID, err := fx.planner.StartPlanning(ctx, planRequest())
	require.NoError(t, err)
	assert.Equal(t, "trip-1", tripID)
	fx.planner.Wait()

	inst, err := fx.planner.GetStatus(ctx, tripID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, inst.Status)

	// The trip aggregate holds the generated plan.
	stored, err := fx.trips.Get(ctx, tripID)
	require.NoError(t, err)
	assert.Equal(t, trip.StatusPlanned, stored.Status)
	require.NotNil(t, stored.GeneratedPlan)
	assert.Equal(t, "Generated itinerary for Lisbon", stored.GeneratedPlan.Summary)

	// The profile records the trip.
	prof, err := fx.profiles.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"trip-1"}, prof.PastTripIDs)

	// The generator saw the profile's preferences.
	assert.Contains(t, fx.generator.lastReq.FormattedPreferences, "seafood (priority: 1)")
	assert.Equal(t, "Alice", fx.generator.lastReq.UserName)
}

func TestStartPlanningGeneratesTripID(t *testing.T) {
	fx := newFixture(t, &stubGenerator{})

	req := planRequest()
	req.TripID = ""
	tripID, err := fx.planner.StartPlanning(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, tripID)
	fx.planner.Wait()

	inst, err := fx.planner.GetStatus(context.Background(), tripID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, inst.Status)
}

func TestStartPlanningRecoversFromTransientFailures(t *testing.T) {
	gen := &stubGenerator{failWith: &faults.ParseError{Message: "not json"}}
	gen.failures.Store(2)
	fx := newFixture(t, gen)

	tripID, err := fx.planner.StartPlanning(context.Background(), planRequest())
	require.NoError(t, err)
	fx.planner.Wait()

	inst, err := fx.planner.GetStatus(context.Background(), tripID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, inst.Status)
	assert.Equal(t, int32(3), gen.calls.Load())
}

func TestStartPlanningFailsOverAfterBudget(t *testing.T) {
	gen := &stubGenerator{failWith: &faults.TimeoutError{Operation: "generate-plan"}}
	gen.failures.Store(100)
	fx := newFixture(t, gen)
	ctx := context.Background()

	tripID, err := fx.planner.StartPlanning(ctx, planRequest())
	require.NoError(t, err)
	fx.planner.Wait()

	inst, err := fx.planner.GetStatus(ctx, tripID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusError, inst.Status)
	assert.Equal(t, int32(3), gen.calls.Load(), "initial attempt plus budget of 2")

	// No trip was stored and the profile is untouched.
	_, err = fx.trips.Get(ctx, tripID)
	var nf *faults.NotFoundError
	assert.True(t, errors.As(err, &nf))

	prof, err := fx.profiles.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, prof.PastTripIDs)
}

func TestStartPlanningUnknownUserFailsWithoutRetry(t *testing.T) {
	fx := newFixture(t, &stubGenerator{})
	ctx := context.Background()

	req := planRequest()
	req.UserID = "user-123"
	tripID, err := fx.planner.StartPlanning(ctx, req)
	require.NoError(t, err)
	fx.planner.Wait()

	inst, err := fx.planner.GetStatus(ctx, tripID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusError, inst.Status)
	assert.Equal(t, int32(0), fx.generator.calls.Load(), "generator must not run for a missing profile")
}

func TestStartPlanningDuplicateTrip(t *testing.T) {
	fx := newFixture(t, &stubGenerator{})
	ctx := context.Background()

	_, err := fx.planner.StartPlanning(ctx, planRequest())
	require.NoError(t, err)
	fx.planner.Wait()

	_, err = fx.planner.StartPlanning(ctx, planRequest())
	var started *faults.AlreadyStartedError
	require.True(t, errors.As(err, &started))
	assert.Equal(t, "trip-1", started.InstanceID)
}

func TestGetStatusUnknownTrip(t *testing.T) {
	fx := newFixture(t, &stubGenerator{})

	_, err := fx.planner.GetStatus(context.Background(), "trip-9")
	var nf *faults.NotFoundError
	require.True(t, errors.As(err, &nf))
}

func TestResumeDrivesInterruptedRun(t *testing.T) {
	// A run interrupted after TRIP_STORED resumes at update-user-profile.
	profiles := profile.NewService(eventlog.NewMemoryStore(), nil)
	trips := trip.NewService(eventlog.NewMemoryStore(), nil)
	instances := workflow.NewMemoryStore()
	gen := &stubGenerator{}
	ctx := context.Background()

	_, err := profiles.CreateProfile(ctx, "user-1", "Alice", "alice@example.com")
	require.NoError(t, err)
	_, err = trips.Create(ctx, trip.CreateTrip{
		TripID: "trip-1", UserID: "user-1", Destination: "Lisbon",
		GeneratedPlan: trip.TravelPlan{Summary: "stored before crash"},
	})
	require.NoError(t, err)

	require.NoError(t, instances.Create(ctx, workflow.Instance{
		ID:       "trip-1",
		Workflow: WorkflowName,
		Step:     StepUpdateUserProfile,
		Status:   StatusTripStored,
		State:    []byte(`{"tripId":"trip-1","userId":"user-1","destination":"Lisbon","plan":{"summary":"stored before crash"}}`),
	}))

	p, err := New(profiles, trips, gen, instances, testSettings())
	require.NoError(t, err)
	require.NoError(t, p.Resume(ctx))
	p.Wait()

	inst, err := p.GetStatus(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, inst.Status)
	assert.Equal(t, int32(0), gen.calls.Load(), "resume must not regenerate the plan")

	prof, err := profiles.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"trip-1"}, prof.PastTripIDs)
}
