package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bloodlink-api-server/internal/models"
	"bloodlink-api-server/internal/policy"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AddBatch registers a new batch for the caller's organization with status
// "available". Batch numbers are uppercased and globally unique.
func (e *Engine) AddBatch(ctx context.Context, actor Actor, batch *models.Inventory) (*models.Inventory, error) {
	if !policy.Allows(actor.Role, policy.ActionAddBatch) {
		return nil, errf(KindForbidden, "role %q may not add stock", actor.Role)
	}
	if !models.IsValidBloodGroup(batch.BloodGroup) {
		return nil, errf(KindValidation, "invalid blood group %q", batch.BloodGroup)
	}
	if strings.TrimSpace(batch.BatchNumber) == "" {
		return nil, errf(KindValidation, "batch number is required")
	}
	if batch.ExpiryDate.IsZero() {
		return nil, errf(KindValidation, "expiry date is required")
	}
	if batch.Units < 0 {
		return nil, errf(KindValidation, "units must not be negative")
	}
	if batch.Units == 0 {
		batch.Units = 1
	}

	batch.BatchNumber = strings.ToUpper(batch.BatchNumber)
	batch.HospitalID = actor.ID
	batch.ProcessedBy = actor.ID
	batch.Status = models.BatchAvailable

	if err := e.inventory.Insert(ctx, batch); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, errf(KindConflict, "batch number must be unique")
		}
		return nil, fmt.Errorf("insert batch: %w", err)
	}

	e.appendLog(ctx, &models.InventoryLog{
		InventoryID: batch.ID,
		HospitalID:  batch.HospitalID,
		Action:      models.LogActionAdded,
		Units:       batch.Units,
		BloodGroup:  batch.BloodGroup,
		BatchNumber: batch.BatchNumber,
		Details:     "Direct stock entry",
	})

	e.log.Info("batch added",
		zap.String("batchNumber", batch.BatchNumber),
		zap.String("bloodGroup", batch.BloodGroup),
		zap.Int("units", batch.Units))
	return batch, nil
}

// ListStock returns the caller's available batches, soonest expiry first,
// so consumption always prefers the stock closest to wastage.
func (e *Engine) ListStock(ctx context.Context, actor Actor) ([]models.Inventory, error) {
	if !policy.Allows(actor.Role, policy.ActionViewStock) {
		return nil, errf(KindForbidden, "role %q may not view stock", actor.Role)
	}
	return e.inventory.ListAvailable(ctx, actor.ID)
}

// UpdateBatchStatus applies a manual "used" deduction or a full discard to
// one of the caller's batches, writing exactly one audit entry either way.
func (e *Engine) UpdateBatchStatus(ctx context.Context, actor Actor, batchID primitive.ObjectID, status string, unitsUsed int, usageDetails string) (*models.Inventory, error) {
	if !policy.Allows(actor.Role, policy.ActionUpdateBatch) {
		return nil, errf(KindForbidden, "role %q may not update stock", actor.Role)
	}
	if status != models.BatchUsed && status != models.BatchDiscarded {
		return nil, errf(KindValidation, "status must be %q or %q", models.BatchUsed, models.BatchDiscarded)
	}

	batch, err := e.inventory.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errf(KindNotFound, "inventory item not found")
		}
		return nil, fmt.Errorf("load batch: %w", err)
	}
	if batch.HospitalID != actor.ID && actor.Role != models.RoleAdmin {
		return nil, errf(KindForbidden, "this batch belongs to another organization")
	}

	switch status {
	case models.BatchUsed:
		if unitsUsed <= 0 {
			return nil, errf(KindValidation, "invalid quantity entered")
		}
		if unitsUsed > batch.Units {
			return nil, errf(KindInsufficientStock, "not enough stock: only %d units available", batch.Units)
		}
		updated, err := e.inventory.Deduct(ctx, batchID, unitsUsed, usageDetails)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotAvailable):
				return nil, errf(KindConflict, "batch is not available")
			case errors.Is(err, ErrInsufficient):
				return nil, errf(KindInsufficientStock, "not enough stock in batch")
			case errors.Is(err, ErrNotFound):
				return nil, errf(KindNotFound, "inventory item not found")
			}
			return nil, fmt.Errorf("deduct: %w", err)
		}
		details := usageDetails
		if details == "" {
			details = "Used for patient"
		}
		e.appendLog(ctx, &models.InventoryLog{
			InventoryID: updated.ID,
			HospitalID:  updated.HospitalID,
			Action:      models.LogActionUsed,
			Units:       unitsUsed,
			BloodGroup:  updated.BloodGroup,
			BatchNumber: updated.BatchNumber,
			Details:     details,
		})
		return updated, nil

	default: // discarded
		updated, removed, err := e.inventory.Discard(ctx, batchID)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotAvailable):
				return nil, errf(KindConflict, "batch is not available")
			case errors.Is(err, ErrNotFound):
				return nil, errf(KindNotFound, "inventory item not found")
			}
			return nil, fmt.Errorf("discard: %w", err)
		}
		details := usageDetails
		if details == "" {
			details = "Stock discarded"
		}
		e.appendLog(ctx, &models.InventoryLog{
			InventoryID: updated.ID,
			HospitalID:  updated.HospitalID,
			Action:      models.LogActionDiscarded,
			Units:       removed,
			BloodGroup:  updated.BloodGroup,
			BatchNumber: updated.BatchNumber,
			Details:     details,
		})
		return updated, nil
	}
}

// StockHistory returns the caller's audit log, newest first.
func (e *Engine) StockHistory(ctx context.Context, actor Actor) ([]models.InventoryLog, error) {
	if !policy.Allows(actor.Role, policy.ActionViewHistory) {
		return nil, errf(KindForbidden, "role %q may not view stock history", actor.Role)
	}
	return e.inventory.History(ctx, actor.ID)
}

// DonationHistory lists the batches traced back to the donor.
func (e *Engine) DonationHistory(ctx context.Context, actor Actor) ([]models.Inventory, error) {
	return e.inventory.ListByDonor(ctx, actor.ID)
}

// ExpireOverdueBatches flips every available batch past its expiry date to
// "expired". Driven by the background sweeper.
func (e *Engine) ExpireOverdueBatches(ctx context.Context) (int64, error) {
	n, err := e.inventory.ExpireOverdue(ctx, e.now())
	if err != nil {
		return 0, fmt.Errorf("expire overdue batches: %w", err)
	}
	if n > 0 {
		e.log.Info("expired overdue batches", zap.Int64("count", n))
	}
	return n, nil
}

// appendLog writes an audit entry. The log is diagnostic, not authoritative
// state, so a failed write is reported and swallowed rather than undoing
// the mutation it describes.
func (e *Engine) appendLog(ctx context.Context, entry *models.InventoryLog) {
	if err := e.inventory.AppendLog(ctx, entry); err != nil {
		e.log.Error("failed to write inventory log",
			zap.String("batchNumber", entry.BatchNumber),
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}
