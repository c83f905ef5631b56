package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"driverDeliveryWorkflow/internal/cache"
	"driverDeliveryWorkflow/internal/events"
	"driverDeliveryWorkflow/internal/geo"
	"driverDeliveryWorkflow/models"
	"driverDeliveryWorkflow/repository"
)

// Engine is the single authority over order assignment and delivery status.
// All writers of orders.assigned_driver_id and orders.status go through it;
// UI layers only ever read.
//
// Concurrency is distributed, not in-process: many driver clients race on the
// same rows, so every write is a conditional UPDATE against the store and
// retried requests are made safe by idempotence, never by locking.
type Engine struct {
	orders        *repository.OrderRepository
	confirmations *repository.ConfirmationRepository
	publisher     events.Publisher
	views         cache.Cache
	checklist     []string
	log           *zap.Logger
}

// NewEngine wires the workflow engine. publisher, views, and log may be nil;
// checklist defaults to DefaultPickupChecklist when empty.
func NewEngine(orders *repository.OrderRepository, confirmations *repository.ConfirmationRepository,
	publisher events.Publisher, views cache.Cache, checklist []string, log *zap.Logger) *Engine {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if views == nil {
		views = cache.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if len(checklist) == 0 {
		checklist = DefaultPickupChecklist
	}
	return &Engine{
		orders:        orders,
		confirmations: confirmations,
		publisher:     publisher,
		views:         views,
		checklist:     checklist,
		log:           log,
	}
}

// AcceptOrder converts a driver's accept intent into an exclusive assignment.
// The claim is a single conditional write; of N concurrent attempts exactly
// one succeeds and the rest fail with ErrOrderNoLongerAvailable. A retried
// accept from the driver who already holds the order succeeds.
func (e *Engine) AcceptOrder(ctx context.Context, orderID, driverID int64) (*models.Assignment, error) {
	ord, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}

	won, err := e.orders.AssignDriver(ctx, orderID, driverID)
	if err != nil {
		return nil, err
	}
	if !won {
		// Retried accept after a timeout: the driver may already be the holder.
		cur, err := e.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if cur != nil && cur.Status == models.StatusAssigned &&
			cur.AssignedDriverID != nil && *cur.AssignedDriverID == driverID {
			return &models.Assignment{OrderID: orderID, DriverID: driverID, AssignedAt: time.Now().UTC()}, nil
		}
		return nil, ErrOrderNoLongerAvailable
	}

	asg := &models.Assignment{OrderID: orderID, DriverID: driverID, AssignedAt: time.Now().UTC()}
	e.log.Info("order assigned",
		zap.Int64("order_id", orderID),
		zap.Int64("driver_id", driverID))
	_ = e.publisher.PublishDriverAssigned(ctx, events.DriverAssigned{
		EventID:     uuid.NewString(),
		OrderID:     ord.ID,
		OrderNumber: ord.OrderNumber,
		DriverID:    driverID,
		AssignedAt:  asg.AssignedAt,
	})
	e.invalidateViews(ctx, driverID)
	return asg, nil
}

// ReleaseOrder clears the assignment for operator-initiated reassignment.
// Only the current holder can be released; the order returns to the ready pool.
func (e *Engine) ReleaseOrder(ctx context.Context, orderID, driverID int64) error {
	ord, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if ord == nil {
		return ErrOrderNotFound
	}
	if ord.AssignedDriverID == nil || *ord.AssignedDriverID != driverID {
		return ErrNotOwner
	}
	released, err := e.orders.ClearAssignment(ctx, orderID, driverID)
	if err != nil {
		return err
	}
	if !released {
		// Lost a race with a terminal transition or another release.
		cur, err := e.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if cur != nil && cur.AssignedDriverID == nil && cur.Status == models.StatusReady {
			return nil
		}
		return ErrNotOwner
	}
	e.log.Info("order released",
		zap.Int64("order_id", orderID),
		zap.Int64("driver_id", driverID))
	e.publishStatusChanged(ctx, ord, driverID, ord.Status, models.StatusReady)
	e.invalidateViews(ctx, driverID)
	return nil
}

// RequestTransition applies a workflow event for the given (order, driver)
// pair. Ownership is checked first: a non-holder always gets ErrNotOwner
// regardless of status. Requesting a transition whose target status already
// holds is an idempotent success with no duplicate side effects.
func (e *Engine) RequestTransition(ctx context.Context, orderID, driverID int64, event TransitionEvent, ev *Evidence) (models.DeliveryStatus, error) {
	ord, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if ord == nil {
		return "", ErrOrderNotFound
	}
	if ord.AssignedDriverID == nil || *ord.AssignedDriverID != driverID {
		return "", ErrNotOwner
	}

	if event == EventCancel {
		return e.cancel(ctx, ord, driverID)
	}

	tr, known := transitions[event]
	if !known {
		return "", ErrInvalidTransition
	}
	if ord.Status == tr.to {
		// Retried request after a timeout; already applied.
		return tr.to, nil
	}
	if ord.Status != tr.from {
		return "", ErrInvalidTransition
	}

	if tr.gated {
		if err := e.recordEvidence(ctx, ord, driverID, event, ev); err != nil {
			return "", err
		}
	}

	committed, err := e.orders.UpdateStatusFrom(ctx, orderID, tr.from, tr.to)
	if err != nil {
		return "", err
	}
	if !committed {
		// A concurrent duplicate of this request may have advanced the order.
		cur, err := e.orders.GetByID(ctx, orderID)
		if err != nil {
			return "", err
		}
		if cur != nil && cur.Status == tr.to {
			return tr.to, nil
		}
		return "", ErrInvalidTransition
	}

	e.log.Info("status transition",
		zap.Int64("order_id", orderID),
		zap.Int64("driver_id", driverID),
		zap.String("from", ord.Status.String()),
		zap.String("to", tr.to.String()))
	e.publishStatusChanged(ctx, ord, driverID, tr.from, tr.to)
	if tr.to.Terminal() {
		e.invalidateViews(ctx, driverID)
	}
	return tr.to, nil
}

// CancelByOperator cancels any non-terminal order without an ownership check.
func (e *Engine) CancelByOperator(ctx context.Context, orderID int64) (models.DeliveryStatus, error) {
	ord, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if ord == nil {
		return "", ErrOrderNotFound
	}
	var driverID int64
	if ord.AssignedDriverID != nil {
		driverID = *ord.AssignedDriverID
	}
	return e.cancel(ctx, ord, driverID)
}

func (e *Engine) cancel(ctx context.Context, ord *models.Order, driverID int64) (models.DeliveryStatus, error) {
	if ord.Status == models.StatusCancelled {
		return models.StatusCancelled, nil
	}
	if ord.Status == models.StatusDelivered {
		return "", ErrInvalidTransition
	}
	committed, err := e.orders.UpdateStatusFrom(ctx, ord.ID, ord.Status, models.StatusCancelled)
	if err != nil {
		return "", err
	}
	if !committed {
		cur, err := e.orders.GetByID(ctx, ord.ID)
		if err != nil {
			return "", err
		}
		if cur != nil && cur.Status == models.StatusCancelled {
			return models.StatusCancelled, nil
		}
		return "", ErrInvalidTransition
	}
	e.log.Info("order cancelled",
		zap.Int64("order_id", ord.ID),
		zap.String("from", ord.Status.String()))
	e.publishStatusChanged(ctx, ord, driverID, ord.Status, models.StatusCancelled)
	e.invalidateViews(ctx, driverID)
	return models.StatusCancelled, nil
}

// CurrentStatus is the read-only projection consumed by UI for display.
func (e *Engine) CurrentStatus(ctx context.Context, orderID int64) (models.DeliveryStatus, error) {
	ord, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if ord == nil {
		return "", ErrOrderNotFound
	}
	return ord.Status, nil
}

// recordEvidence validates and persists the evidence record for a gated
// transition. Evidence is written before the status commit so the audit
// trail exists even if the commit is interrupted; the record is append-only
// and a duplicate surfaces as ErrAlreadyConfirmed.
func (e *Engine) recordEvidence(ctx context.Context, ord *models.Order, driverID int64, event TransitionEvent, ev *Evidence) error {
	switch event {
	case EventDriverConfirmsPickup:
		if err := validatePickupEvidence(e.checklist, ev); err != nil {
			return err
		}
		pc := &models.PickupConfirmation{
			OrderID:     ord.ID,
			ConfirmedBy: driverID,
			Checklist:   ev.Checklist,
			Notes:       ev.Notes,
		}
		if err := e.confirmations.CreatePickup(ctx, pc); err != nil {
			if errors.Is(err, repository.ErrDuplicateConfirmation) {
				return ErrAlreadyConfirmed
			}
			return err
		}
	case EventDriverConfirmsDelivery:
		if err := validateDeliveryEvidence(ev); err != nil {
			return err
		}
		dc := &models.DeliveryConfirmation{
			OrderID:            ord.ID,
			ConfirmedBy:        driverID,
			PhotoRef:           ev.PhotoRef,
			GPS:                *ev.GPS,
			RecipientNote:      ev.RecipientNote,
			DistanceToDropoffM: geo.HaversineMeters(ev.GPS.Lat, ev.GPS.Lng, ord.DropoffLat, ord.DropoffLng),
		}
		if err := e.confirmations.CreateDelivery(ctx, dc); err != nil {
			if errors.Is(err, repository.ErrDuplicateConfirmation) {
				return ErrAlreadyConfirmed
			}
			return err
		}
	}
	return nil
}

func (e *Engine) publishStatusChanged(ctx context.Context, ord *models.Order, driverID int64, from, to models.DeliveryStatus) {
	// Best effort: a committed transition is never rolled back over a
	// publish failure. The publisher logs its own errors.
	_ = e.publisher.PublishStatusChanged(ctx, events.StatusChanged{
		EventID:     uuid.NewString(),
		OrderID:     ord.ID,
		OrderNumber: ord.OrderNumber,
		DriverID:    driverID,
		From:        from.String(),
		To:          to.String(),
		OccurredAt:  time.Now().UTC(),
	})
}

// invalidateViews drops the shared available-orders view and the driver's
// current-order view. Refresh is eventual, not guaranteed-ordered.
func (e *Engine) invalidateViews(ctx context.Context, driverID int64) {
	keys := []string{cache.AvailableOrdersKey(e.views)}
	if driverID != 0 {
		keys = append(keys, cache.DriverCurrentOrderKey(e.views, driverID))
	}
	if err := e.views.Delete(ctx, keys...); err != nil {
		e.log.Warn("invalidate order views", zap.Error(err))
	}
}
