// Package engine is the request fulfillment and eligibility core: it
// matches emergency blood requests to inventory batches and volunteer
// donors, enforces the eligibility wait period at the moment a donor is
// confirmed, and keeps request, batch and donor state consistent across
// partial fulfillment steps.
//
// The engine talks to storage through small interfaces so the state machine
// is testable without MongoDB; internal/store carries the real
// implementations.
package engine

import (
	"context"
	"errors"
	"time"

	"bloodlink-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Storage sentinels. The mongo stores translate driver results into these;
// the engine turns them into typed Errors with user-facing messages.
var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicate    = errors.New("duplicate document")
	ErrNotAvailable = errors.New("batch is not available")
	ErrInsufficient = errors.New("insufficient units in batch")
)

// Actor identifies the authenticated caller of an engine operation.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

// RequestStore owns request documents and their embedded sub-lists. The
// mutators are single-document updates that enforce the list invariants
// (no duplicate volunteer, append-only assignments) at the database.
type RequestStore interface {
	Insert(ctx context.Context, r *models.Request) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	ListActive(ctx context.Context) ([]models.Request, error)

	// AddVolunteer appends a pending application unless the donor is
	// already listed; it returns false in that case.
	AddVolunteer(ctx context.Context, requestID, donorID primitive.ObjectID) (bool, error)

	// AssignVolunteer flips the donor's entry to "assigned" and the request
	// to "arranging"; false when the donor never applied.
	AssignVolunteer(ctx context.Context, requestID, donorID primitive.ObjectID) (bool, error)

	// AppendStockAssignment records a deduction against the request, moves
	// it to "arranging" and sets fulfilledBy. The holder org is only set if
	// none is recorded yet (first assignment wins).
	AppendStockAssignment(ctx context.Context, requestID primitive.ObjectID, sa models.StockAssignment, holderID, actorID primitive.ObjectID) error

	SetStatus(ctx context.Context, requestID primitive.ObjectID, status string) error
	AddAttachment(ctx context.Context, requestID primitive.ObjectID, url string) error
}

// InventoryStore owns batches and their audit log.
type InventoryStore interface {
	Insert(ctx context.Context, batch *models.Inventory) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Inventory, error)

	// ListAvailable returns the holder's batches with units > 0 and status
	// "available", soonest expiry first (FIFO).
	ListAvailable(ctx context.Context, holderID primitive.ObjectID) ([]models.Inventory, error)

	// FindCompatible is the cross-org variant: non-expired available
	// batches of the group, soonest expiry first.
	FindCompatible(ctx context.Context, bloodGroup string, now time.Time) ([]models.Inventory, error)

	// Deduct atomically removes amount units from an available batch,
	// flipping it to "used" when the balance hits zero. ErrNotAvailable and
	// ErrInsufficient classify the failed guard.
	Deduct(ctx context.Context, id primitive.ObjectID, amount int, usageDetails string) (*models.Inventory, error)

	// Discard zeroes the remaining balance in a single action and returns
	// the batch and the amount removed.
	Discard(ctx context.Context, id primitive.ObjectID) (*models.Inventory, int, error)

	ListByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.Inventory, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	AppendLog(ctx context.Context, entry *models.InventoryLog) error
	History(ctx context.Context, holderID primitive.ObjectID) ([]models.InventoryLog, error)
}

// UserStore is the slice of the user collection the engine needs.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// FindByIdentifier resolves a donor by BloodLink ID or phone number.
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	// SearchDonors matches non-admin users on name or phone substring, or
	// an exact BloodLink ID.
	SearchDonors(ctx context.Context, query string) ([]models.User, error)
	StampLastDonation(ctx context.Context, id primitive.ObjectID, t time.Time) error
}

// CollectionStore owns blood-collection event records.
type CollectionStore interface {
	Insert(ctx context.Context, c *models.BloodCollection) error
	ListByCollector(ctx context.Context, collectorID primitive.ObjectID) ([]models.BloodCollection, error)
	ListByDonor(ctx context.Context, donorID primitive.ObjectID) ([]models.BloodCollection, error)
}

// Notifier is the one-way notification sink. Implementations must not
// block; the engine never awaits delivery.
type Notifier interface {
	Notify(n models.Notification)
}

// Engine orchestrates the fulfillment workflow.
type Engine struct {
	requests    RequestStore
	inventory   InventoryStore
	users       UserStore
	collections CollectionStore
	notifier    Notifier
	log         *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

func New(requests RequestStore, inventory InventoryStore, users UserStore, collections CollectionStore, notifier Notifier, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		requests:    requests,
		inventory:   inventory,
		users:       users,
		collections: collections,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

// WithClock overrides the engine clock. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) notify(n models.Notification) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(n)
}
