package workflow

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverDeliveryWorkflow/internal/testutil"
	"driverDeliveryWorkflow/models"
	"driverDeliveryWorkflow/repository"
)

type fixture struct {
	orders        *repository.OrderRepository
	drivers       *repository.DriverRepository
	confirmations *repository.ConfirmationRepository
	engine        *Engine
}

func newFixture(t *testing.T, d *sql.DB) *fixture {
	t.Helper()
	orders := repository.NewOrderRepository(d)
	confirmations := repository.NewConfirmationRepository(d)
	return &fixture{
		orders:        orders,
		drivers:       repository.NewDriverRepository(d),
		confirmations: confirmations,
		engine:        NewEngine(orders, confirmations, nil, nil, nil, nil),
	}
}

func (f *fixture) newDriver(t *testing.T, name string) *models.Driver {
	t.Helper()
	dr, err := f.drivers.Create(context.Background(), &models.Driver{Name: name, Status: models.DriverStatusActive})
	require.NoError(t, err)
	return dr
}

func (f *fixture) newOrder(t *testing.T) *models.Order {
	t.Helper()
	ord, err := f.orders.Create(context.Background(), &models.Order{
		VendorID:   1,
		CustomerID: 2,
		DropoffLat: 37.8044,
		DropoffLng: -122.2712,
	})
	require.NoError(t, err)
	return ord
}

func completeChecklist() map[string]bool {
	m := make(map[string]bool, len(DefaultPickupChecklist))
	for _, item := range DefaultPickupChecklist {
		m[item] = true
	}
	return m
}

func deliveryEvidence() *Evidence {
	return &Evidence{
		PhotoRef: "uploads/drop-photo.jpg",
		GPS:      &models.GPSCoordinate{Lat: 37.8045, Lng: -122.2713, AccuracyM: 9.0},
	}
}

// advance walks the order to the given status through the public workflow.
func (f *fixture) advance(t *testing.T, orderID, driverID int64, target models.DeliveryStatus) {
	t.Helper()
	ctx := context.Background()
	steps := []struct {
		event TransitionEvent
		ev    *Evidence
		at    models.DeliveryStatus
	}{
		{EventDriverDeparts, nil, models.StatusOnRouteToVendor},
		{EventDriverArrivesAtVendor, nil, models.StatusArrivedAtVendor},
		{EventDriverConfirmsPickup, &Evidence{Checklist: completeChecklist()}, models.StatusPickedUp},
		{EventDriverDepartsToCustomer, nil, models.StatusOnRouteToCustomer},
		{EventDriverArrivesAtCustomer, nil, models.StatusArrivedAtCustomer},
		{EventDriverConfirmsDelivery, deliveryEvidence(), models.StatusDelivered},
	}
	for _, s := range steps {
		st, err := f.engine.RequestTransition(ctx, orderID, driverID, s.event, s.ev)
		require.NoError(t, err)
		require.Equal(t, s.at, st)
		if s.at == target {
			return
		}
	}
}

func TestAcceptOrder_ExactlyOneWinner(t *testing.T) {
	f := newFixture(t, testutil.OpenFileDB(t, "engine_race"))
	ctx := context.Background()

	const n = 8
	drivers := make([]*models.Driver, n)
	for i := 0; i < n; i++ {
		drivers[i] = f.newDriver(t, "racer-"+string(rune('a'+i)))
	}
	ord := f.newOrder(t)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.AcceptOrder(ctx, ord.ID, drivers[i].ID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrOrderNoLongerAvailable)
		}
	}
	assert.Equal(t, 1, winners, "exactly one accept must win")

	got, err := f.orders.GetByID(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, got.Status)
	require.NotNil(t, got.AssignedDriverID)
}

func TestAcceptOrder_RetryIsIdempotent(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_accept_retry"))
	ctx := context.Background()

	dr := f.newDriver(t, "retry-driver")
	ord := f.newOrder(t)

	asg, err := f.engine.AcceptOrder(ctx, ord.ID, dr.ID)
	require.NoError(t, err)
	assert.Equal(t, ord.ID, asg.OrderID)
	assert.Equal(t, dr.ID, asg.DriverID)

	// A retried accept after a client timeout succeeds for the holder.
	asg2, err := f.engine.AcceptOrder(ctx, ord.ID, dr.ID)
	require.NoError(t, err)
	assert.Equal(t, dr.ID, asg2.DriverID)
}

func TestAcceptOrder_UnknownOrder(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_accept_missing"))
	dr := f.newDriver(t, "lost-driver")

	_, err := f.engine.AcceptOrder(context.Background(), 99999, dr.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestHappyPath_AssignedToDelivered(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_happy"))
	ctx := context.Background()

	dr := f.newDriver(t, "happy-driver")
	ord := f.newOrder(t)

	_, err := f.engine.AcceptOrder(ctx, ord.ID, dr.ID)
	require.NoError(t, err)

	f.advance(t, ord.ID, dr.ID, models.StatusDelivered)

	got, err := f.orders.GetByID(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, got.Status)

	pickup, err := f.confirmations.GetPickup(ctx, ord.ID)
	require.NoError(t, err)
	require.NotNil(t, pickup, "pickup gate must leave an evidence record")
	assert.Equal(t, dr.ID, pickup.ConfirmedBy)
	for _, item := range DefaultPickupChecklist {
		assert.True(t, pickup.Checklist[item], "checklist item %s", item)
	}

	delivery, err := f.confirmations.GetDelivery(ctx, ord.ID)
	require.NoError(t, err)
	require.NotNil(t, delivery, "delivery gate must leave an evidence record")
	assert.Equal(t, "uploads/drop-photo.jpg", delivery.PhotoRef)
	assert.Equal(t, 9.0, delivery.GPS.AccuracyM)
	// Distance to the dropoff point is computed and recorded, never enforced.
	assert.Greater(t, delivery.DistanceToDropoffM, 0.0)
	assert.Less(t, delivery.DistanceToDropoffM, 100.0)
}

func TestPickupGate_IncompleteChecklist(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_gate_pickup"))
	ctx := context.Background()

	dr := f.newDriver(t, "gate-driver")
	ord := f.newOrder(t)
	_, err := f.engine.AcceptOrder(ctx, ord.ID, dr.ID)
	require.NoError(t, err)
	f.advance(t, ord.ID, dr.ID, models.StatusArrivedAtVendor)

	partial := completeChecklist()
	partial["temperature_ok"] = false
	delete(partial, "items_present")

	_, err = f.engine.RequestTransition(ctx, ord.ID, dr.ID, EventDriverConfirmsPickup, &Evidence{Checklist: partial})
	var incomplete *IncompleteChecklistError
	require.ErrorAs(t, err, &incomplete)
	assert.ElementsMatch(t, []string{"items_present", "temperature_ok"}, incomplete.Missing)

	// The order is untouched and no evidence was written.
	got, err := f.orders.GetByID(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArrivedAtVendor, got.Status)
	exists, err := f.confirmations.Exists(ctx, ord.ID, models.ConfirmationKindPickup)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeliveryGate_MissingEvidence(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_gate_delivery"))
	ctx := context.Background()

	dr := f.newDriver(t, "evidence-driver")
	ord := f.newOrder(t)
	_, err := f.engine.AcceptOrder(ctx, ord.ID, dr.ID)
	require.NoError(t, err)
	f.advance(t, ord.ID, dr.ID, models.StatusArrivedAtCustomer)

	_, err = f.engine.RequestTransition(ctx, ord.ID, dr.ID, EventDriverConfirmsDelivery, &Evidence{
		GPS: &models.GPSCoordinate{Lat: 1, Lng: 2},
	})
	assert.ErrorIs(t, err, ErrMissingPhotoEvidence)

	_, err = f.engine.RequestTransition(ctx, ord.ID, dr.ID, EventDriverConfirmsDelivery, &Evidence{
		PhotoRef: "uploads/p.jpg",
	})
	assert.ErrorIs(t, err, ErrMissingLocationEvidence)

	got, err := f.orders.GetByID(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArrivedAtCustomer, got.Status)
}

func TestRequestTransition_OwnershipCheckedFirst(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_ownership"))
	ctx := context.Background()

	owner := f.newDriver(t, "owner-driver")
	intruder := f.newDriver(t, "intruder-driver")
	ord := f.newOrder(t)
	_, err := f.engine.AcceptOrder(ctx, ord.ID, owner.ID)
	require.NoError(t, err)

	// A non-holder gets ErrNotOwner for every event, even ones that would
	// also be invalid transitions.
	for _, event := range []TransitionEvent{
		EventDriverDeparts,
		EventDriverConfirmsPickup,
		EventDriverConfirmsDelivery,
		EventCancel,
	} {
		_, err := f.engine.RequestTransition(ctx, ord.ID, intruder.ID, event, nil)
		assert.ErrorIs(t, err, ErrNotOwner, "event %s", event)
	}
}

func TestRequestTransition_Idempotent(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_idem"))
	ctx := context.Background()

	dr := f.newDriver(t, "idem-driver")
	ord := f.newOrder(t)
	_, err := f.engine.AcceptOrder(ctx, ord.ID, dr.ID)
	require.NoError(t, err)

	st, err := f.engine.RequestTransition(ctx, ord.ID, dr.ID, EventDriverDeparts, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnRouteToVendor, st)

	// The duplicate of a delivered request reports success and changes nothing.
	st, err = f.engine.RequestTransition(ctx, ord.ID, dr.ID, EventDriverDeparts, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnRouteToVendor, st)
}

func TestRequestTransition_SkippingStatesRejected(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_skip"))
	ctx := context.Background()

	dr := f.newDriver(t, "skip-driver")
	ord := f.newOrder(t)
	_, err := f.engine.AcceptOrder(ctx, ord.ID, dr.ID)
	require.NoError(t, err)

	// Straight from assigned to on_route_to_customer is not a legal step.
	_, err = f.engine.RequestTransition(ctx, ord.ID, dr.ID, EventDriverDepartsToCustomer, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := f.orders.GetByID(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, got.Status)
}

func TestConfirmPickup_RetryAfterCommitLeavesOneRecord(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_pickup_retry"))
	ctx := context.Background()

	dr := f.newDriver(t, "pickup-retry-driver")
	ord := f.newOrder(t)
	_, err := f.engine.AcceptOrder(ctx, ord.ID, dr.ID)
	require.NoError(t, err)
	f.advance(t, ord.ID, dr.ID, models.StatusPickedUp)

	// Retrying the confirm after the commit is an idempotent success and does
	// not write a second evidence record.
	st, err := f.engine.RequestTransition(ctx, ord.ID, dr.ID, EventDriverConfirmsPickup, &Evidence{Checklist: completeChecklist()})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPickedUp, st)

	pickup, err := f.confirmations.GetPickup(ctx, ord.ID)
	require.NoError(t, err)
	require.NotNil(t, pickup)
}

func TestConfirmPickup_ExistingEvidenceWithoutCommit(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_pickup_orphan"))
	ctx := context.Background()

	dr := f.newDriver(t, "orphan-driver")
	ord := f.newOrder(t)
	_, err := f.engine.AcceptOrder(ctx, ord.ID, dr.ID)
	require.NoError(t, err)
	f.advance(t, ord.ID, dr.ID, models.StatusArrivedAtVendor)

	// Evidence written but the status commit never happened (e.g. a crash in
	// between). A new confirm surfaces the existing record.
	require.NoError(t, f.confirmations.CreatePickup(ctx, &models.PickupConfirmation{
		OrderID:     ord.ID,
		ConfirmedBy: dr.ID,
		Checklist:   completeChecklist(),
	}))

	_, err = f.engine.RequestTransition(ctx, ord.ID, dr.ID, EventDriverConfirmsPickup, &Evidence{Checklist: completeChecklist()})
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
}

func TestCancel_Driver(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_cancel"))
	ctx := context.Background()

	dr := f.newDriver(t, "cancel-driver")
	ord := f.newOrder(t)
	_, err := f.engine.AcceptOrder(ctx, ord.ID, dr.ID)
	require.NoError(t, err)
	f.advance(t, ord.ID, dr.ID, models.StatusOnRouteToVendor)

	st, err := f.engine.RequestTransition(ctx, ord.ID, dr.ID, EventCancel, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, st)

	// Cancelling again is an idempotent success.
	st, err = f.engine.RequestTransition(ctx, ord.ID, dr.ID, EventCancel, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, st)
}

func TestCancel_DeliveredIsFinal(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_cancel_final"))
	ctx := context.Background()

	dr := f.newDriver(t, "final-driver")
	ord := f.newOrder(t)
	_, err := f.engine.AcceptOrder(ctx, ord.ID, dr.ID)
	require.NoError(t, err)
	f.advance(t, ord.ID, dr.ID, models.StatusDelivered)

	_, err = f.engine.RequestTransition(ctx, ord.ID, dr.ID, EventCancel, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.engine.CancelByOperator(ctx, ord.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelByOperator(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_cancel_op"))
	ctx := context.Background()

	// Unassigned ready order: operators can cancel without a holder.
	ord := f.newOrder(t)
	st, err := f.engine.CancelByOperator(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, st)

	_, err = f.engine.CancelByOperator(ctx, 99999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestReleaseOrder(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_release"))
	ctx := context.Background()

	dr := f.newDriver(t, "release-driver")
	other := f.newDriver(t, "release-other")
	ord := f.newOrder(t)
	_, err := f.engine.AcceptOrder(ctx, ord.ID, dr.ID)
	require.NoError(t, err)

	err = f.engine.ReleaseOrder(ctx, ord.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, f.engine.ReleaseOrder(ctx, ord.ID, dr.ID))

	got, err := f.orders.GetByID(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, got.Status)
	assert.Nil(t, got.AssignedDriverID)

	// The released order can be claimed by another driver.
	_, err = f.engine.AcceptOrder(ctx, ord.ID, other.ID)
	require.NoError(t, err)
}

func TestCurrentStatus(t *testing.T) {
	f := newFixture(t, testutil.OpenInMemoryDB(t, "engine_status"))
	ctx := context.Background()

	ord := f.newOrder(t)
	st, err := f.engine.CurrentStatus(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, st)

	_, err = f.engine.CurrentStatus(ctx, 99999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
