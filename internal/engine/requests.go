package engine

import (
	"context"
	"errors"
	"fmt"

	"bloodlink-api-server/internal/eligibility"
	"bloodlink-api-server/internal/models"
	"bloodlink-api-server/internal/policy"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateRequestInput carries the fields a requester submits.
type CreateRequestInput struct {
	PatientName string
	BloodGroup  string
	Units       int
	Location    string
	Urgency     string
}

// CreateRequest opens a new emergency request in status "pending". There is
// no eligibility check here: this is a request for blood, not a donation.
func (e *Engine) CreateRequest(ctx context.Context, actor Actor, in CreateRequestInput) (*models.Request, error) {
	if !policy.Allows(actor.Role, policy.ActionCreateRequest) {
		return nil, errf(KindForbidden, "role %q may not create requests", actor.Role)
	}
	if in.PatientName == "" || in.Location == "" {
		return nil, errf(KindValidation, "patient name and location are required")
	}
	if !models.IsValidBloodGroup(in.BloodGroup) {
		return nil, errf(KindValidation, "invalid blood group %q", in.BloodGroup)
	}
	if in.Units < 1 {
		return nil, errf(KindValidation, "at least one unit must be requested")
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = models.UrgencyStandard
	}
	if urgency != models.UrgencyStandard && urgency != models.UrgencyCritical {
		return nil, errf(KindValidation, "invalid urgency %q", in.Urgency)
	}

	req := &models.Request{
		RequesterID:      actor.ID,
		PatientName:      in.PatientName,
		BloodGroup:       in.BloodGroup,
		Units:            in.Units,
		Location:         in.Location,
		Urgency:          urgency,
		Status:           models.RequestPending,
		Volunteers:       []models.Volunteer{},
		StockAssignments: []models.StockAssignment{},
	}
	if err := e.requests.Insert(ctx, req); err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}

	e.log.Info("emergency request created",
		zap.String("requestId", req.ID.Hex()),
		zap.String("bloodGroup", req.BloodGroup),
		zap.String("urgency", req.Urgency),
		zap.Int("units", req.Units))
	return req, nil
}

// ActiveRequests is the emergency feed: everything not cancelled, most
// critical first, newest first within the same urgency.
func (e *Engine) ActiveRequests(ctx context.Context) ([]models.Request, error) {
	return e.requests.ListActive(ctx)
}

// Volunteer records a donor's application on a request. Blood-group
// compatibility is enforced here, not only in the UI, and a donor can apply
// at most once per request.
func (e *Engine) Volunteer(ctx context.Context, actor Actor, requestID primitive.ObjectID) error {
	if !policy.Allows(actor.Role, policy.ActionVolunteer) {
		return errf(KindForbidden, "role %q may not volunteer", actor.Role)
	}

	req, err := e.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status == models.RequestCompleted || req.Status == models.RequestCancelled {
		return errf(KindConflict, "request is %s and no longer accepts volunteers", req.Status)
	}

	donor, err := e.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errf(KindNotFound, "user not found")
		}
		return fmt.Errorf("load donor: %w", err)
	}
	if donor.BloodGroup != "" && !eligibility.CanDonateTo(donor.BloodGroup, req.BloodGroup) {
		return errf(KindConflict, "blood group %s cannot donate to %s", donor.BloodGroup, req.BloodGroup)
	}

	added, err := e.requests.AddVolunteer(ctx, requestID, actor.ID)
	if err != nil {
		return fmt.Errorf("add volunteer: %w", err)
	}
	if !added {
		return errf(KindConflict, "you have already volunteered for this request")
	}

	e.log.Info("volunteer applied",
		zap.String("requestId", requestID.Hex()),
		zap.String("donorId", actor.ID.Hex()))
	return nil
}

// MatchStock lists compatible, non-expired, available batches across all
// holders for the request's blood group, soonest expiry first. Read-only.
func (e *Engine) MatchStock(ctx context.Context, actor Actor, requestID primitive.ObjectID) ([]models.Inventory, error) {
	if !policy.Allows(actor.Role, policy.ActionMatchStock) {
		return nil, errf(KindForbidden, "only admins may match stock")
	}
	req, err := e.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	matches, err := e.inventory.FindCompatible(ctx, req.BloodGroup, e.now())
	if err != nil {
		return nil, fmt.Errorf("find compatible stock: %w", err)
	}
	return matches, nil
}

// FulfillWithStock deducts unitsUsed from a batch and records the
// assignment on the request. unitsUsed == 0 means "the full requested
// amount"; smaller explicit amounts are legal and the call may be repeated
// against other batches until the admin judges the request covered.
func (e *Engine) FulfillWithStock(ctx context.Context, actor Actor, requestID, inventoryID primitive.ObjectID, unitsUsed int) (*models.Inventory, error) {
	if !policy.Allows(actor.Role, policy.ActionFulfillStock) {
		return nil, errf(KindForbidden, "only admins may fulfill requests from stock")
	}
	if unitsUsed < 0 {
		return nil, errf(KindValidation, "unitsUsed must not be negative")
	}

	req, err := e.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status == models.RequestCompleted || req.Status == models.RequestCancelled {
		return nil, errf(KindConflict, "request is already %s", req.Status)
	}

	batch, err := e.inventory.FindByID(ctx, inventoryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errf(KindNotFound, "inventory batch not found")
		}
		return nil, fmt.Errorf("load batch: %w", err)
	}

	amount := unitsUsed
	if amount == 0 {
		amount = req.Units
	}
	if batch.Status != models.BatchAvailable {
		return nil, errf(KindConflict, "this batch is no longer available")
	}
	if batch.Units < amount {
		return nil, errf(KindInsufficientStock,
			"insufficient stock in this batch: has %d, tried to use %d", batch.Units, amount)
	}

	details := fmt.Sprintf("Fully used for request %s", requestID.Hex())
	updated, err := e.inventory.Deduct(ctx, inventoryID, amount, details)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAvailable):
			return nil, errf(KindConflict, "this batch is no longer available")
		case errors.Is(err, ErrInsufficient):
			return nil, errf(KindInsufficientStock, "insufficient stock in this batch")
		case errors.Is(err, ErrNotFound):
			return nil, errf(KindNotFound, "inventory batch not found")
		}
		return nil, fmt.Errorf("deduct stock: %w", err)
	}

	e.appendLog(ctx, &models.InventoryLog{
		InventoryID: updated.ID,
		HospitalID:  updated.HospitalID,
		Action:      models.LogActionUsed,
		Units:       amount,
		BloodGroup:  updated.BloodGroup,
		BatchNumber: updated.BatchNumber,
		Details: fmt.Sprintf("Admin allocation: used %d units for request %s (patient: %s)",
			amount, requestID.Hex(), req.PatientName),
	})

	sa := models.StockAssignment{
		InventoryID:   updated.ID,
		UnitsAssigned: amount,
		AssignedAt:    e.now(),
	}
	if err := e.requests.AppendStockAssignment(ctx, requestID, sa, updated.HospitalID, actor.ID); err != nil {
		return nil, fmt.Errorf("record stock assignment: %w", err)
	}

	e.notify(models.Notification{
		Recipient: req.RequesterID,
		Type:      "request_fulfilled",
		Message:   fmt.Sprintf("Good news! %d unit(s) of %s blood have been arranged.", amount, req.BloodGroup),
		RelatedID: &req.ID,
	})

	e.log.Info("stock allocated to request",
		zap.String("requestId", requestID.Hex()),
		zap.String("batchNumber", updated.BatchNumber),
		zap.Int("units", amount),
		zap.Int("remaining", updated.Units))
	return updated, nil
}

// AssignVolunteer confirms one applicant as the donor. Eligibility is
// checked here, against a freshly loaded user record, and this is the
// single authoritative enforcement point: an ineligible donor is rejected
// outright. On success the donor's lastDonationDate is stamped immediately,
// so the same donor cannot be confirmed for a second concurrent request.
func (e *Engine) AssignVolunteer(ctx context.Context, actor Actor, requestID, volunteerID primitive.ObjectID) error {
	if !policy.Allows(actor.Role, policy.ActionAssignVolunteer) {
		return errf(KindForbidden, "only admins may assign volunteers")
	}

	req, err := e.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status == models.RequestCompleted || req.Status == models.RequestCancelled {
		return errf(KindConflict, "request is already %s", req.Status)
	}

	listed := false
	for _, v := range req.Volunteers {
		if v.User == volunteerID {
			listed = true
			break
		}
	}
	if !listed {
		return errf(KindNotFound, "volunteer not found in this request")
	}

	donor, err := e.users.FindByID(ctx, volunteerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errf(KindNotFound, "volunteer user not found")
		}
		return fmt.Errorf("load volunteer: %w", err)
	}

	now := e.now()
	res := eligibility.Evaluate(donor.LastDonationDate, now)
	if !res.Eligible {
		return errf(KindConflict, "donor is not eligible yet: %d day(s) remaining", res.DaysRemaining)
	}

	assigned, err := e.requests.AssignVolunteer(ctx, requestID, volunteerID)
	if err != nil {
		return fmt.Errorf("assign volunteer: %w", err)
	}
	if !assigned {
		return errf(KindNotFound, "volunteer not found in this request")
	}

	// Lock eligibility at selection time, not completion time.
	if err := e.users.StampLastDonation(ctx, volunteerID, now); err != nil {
		return fmt.Errorf("stamp donation date: %w", err)
	}

	e.notify(models.Notification{
		Recipient: volunteerID,
		Type:      "volunteer_selected",
		Message:   fmt.Sprintf("Confirmed: you have been selected to donate for %s. Please proceed to %s.", req.PatientName, req.Location),
		RelatedID: &req.ID,
	})

	e.log.Info("volunteer assigned",
		zap.String("requestId", requestID.Hex()),
		zap.String("donorId", volunteerID.Hex()))
	return nil
}

// Complete closes a request. Only the original requester or an admin may do
// it. Every assigned volunteer is re-stamped; that is idempotent with the
// stamp taken at assignment time.
func (e *Engine) Complete(ctx context.Context, actor Actor, requestID primitive.ObjectID) error {
	if !policy.Allows(actor.Role, policy.ActionCompleteRequest) {
		return errf(KindForbidden, "role %q may not complete requests", actor.Role)
	}
	req, err := e.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.RequesterID != actor.ID && actor.Role != models.RoleAdmin {
		return errf(KindForbidden, "not authorized to complete this request")
	}
	if req.Status == models.RequestCancelled {
		return errf(KindConflict, "a cancelled request cannot be completed")
	}

	if err := e.requests.SetStatus(ctx, requestID, models.RequestCompleted); err != nil {
		return fmt.Errorf("complete request: %w", err)
	}

	now := e.now()
	stamped := 0
	for _, v := range req.Volunteers {
		if v.Status != models.VolunteerAssigned {
			continue
		}
		if err := e.users.StampLastDonation(ctx, v.User, now); err != nil {
			e.log.Error("failed to stamp donor on completion",
				zap.String("donorId", v.User.Hex()), zap.Error(err))
			continue
		}
		stamped++
	}
	if stamped == 0 {
		e.log.Warn("request completed with no assigned volunteers to stamp",
			zap.String("requestId", requestID.Hex()))
	}

	e.log.Info("request completed",
		zap.String("requestId", requestID.Hex()),
		zap.Int("donorsStamped", stamped))
	return nil
}

// Cancel aborts a request that has not finished yet.
func (e *Engine) Cancel(ctx context.Context, actor Actor, requestID primitive.ObjectID) error {
	if !policy.Allows(actor.Role, policy.ActionCancelRequest) {
		return errf(KindForbidden, "role %q may not cancel requests", actor.Role)
	}
	req, err := e.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.RequesterID != actor.ID && actor.Role != models.RoleAdmin {
		return errf(KindForbidden, "not authorized to cancel this request")
	}
	if req.Status != models.RequestPending && req.Status != models.RequestArranging {
		return errf(KindConflict, "request is %s and cannot be cancelled", req.Status)
	}
	if err := e.requests.SetStatus(ctx, requestID, models.RequestCancelled); err != nil {
		return fmt.Errorf("cancel request: %w", err)
	}
	return nil
}

// AttachDocument stores an uploaded supporting-document URL on the request.
func (e *Engine) AttachDocument(ctx context.Context, actor Actor, requestID primitive.ObjectID, url string) error {
	if !policy.Allows(actor.Role, policy.ActionAttachDocument) {
		return errf(KindForbidden, "role %q may not attach documents", actor.Role)
	}
	if url == "" {
		return errf(KindValidation, "attachment URL is required")
	}
	req, err := e.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.RequesterID != actor.ID && actor.Role != models.RoleAdmin {
		return errf(KindForbidden, "not authorized to attach documents to this request")
	}
	if err := e.requests.AddAttachment(ctx, requestID, url); err != nil {
		return fmt.Errorf("add attachment: %w", err)
	}
	return nil
}

func (e *Engine) loadRequest(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	req, err := e.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errf(KindNotFound, "request not found")
		}
		return nil, fmt.Errorf("load request: %w", err)
	}
	return req, nil
}
