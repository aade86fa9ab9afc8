package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bloodlink-api-server/internal/eligibility"
	"bloodlink-api-server/internal/models"
	"bloodlink-api-server/internal/policy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Collected blood is held for at most 35 days before it expires.
const collectionShelfLife = 35 * 24 * time.Hour

// RecordCollectionInput is one collection event taken by a collector.
type RecordCollectionInput struct {
	Identifier    string // BloodLink ID or phone of the donor; may not resolve (walk-in)
	BloodGroup    string
	QuantityUnits int
	Location      string
	Notes         string

	// Snapshot fields for walk-in donors without a profile.
	DonorName   string
	DonorSex    string
	DonorAge    int
	DonorWeight float64
}

// RecordCollection stores the collection event, creates the matching
// available inventory batch owned by the collector's affiliated hospital
// (or the collector itself), and stamps the donor's lastDonationDate when
// the donor resolves to a registered user.
func (e *Engine) RecordCollection(ctx context.Context, actor Actor, in RecordCollectionInput) (*models.BloodCollection, error) {
	if !policy.Allows(actor.Role, policy.ActionRecordIntake) {
		return nil, errf(KindForbidden, "role %q may not record collections", actor.Role)
	}
	if in.Identifier == "" || in.Location == "" {
		return nil, errf(KindValidation, "identifier and location are required")
	}
	if !models.IsValidBloodGroup(in.BloodGroup) {
		return nil, errf(KindValidation, "invalid blood group %q", in.BloodGroup)
	}
	if in.QuantityUnits < 1 {
		return nil, errf(KindValidation, "at least one unit must be collected")
	}

	collector, err := e.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("load collector: %w", err)
	}

	donor, err := e.users.FindByIdentifier(ctx, in.Identifier)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("resolve donor: %w", err)
	}

	now := e.now()
	batchNumber := fmt.Sprintf("BN-%s-%s",
		now.Format("20060102"),
		strings.ToUpper(uuid.New().String()[:4]))

	record := &models.BloodCollection{
		CollectorID:   actor.ID,
		Identifier:    in.Identifier,
		DonorName:     in.DonorName,
		DonorSex:      in.DonorSex,
		DonorAge:      in.DonorAge,
		DonorWeight:   in.DonorWeight,
		BloodGroup:    in.BloodGroup,
		QuantityUnits: in.QuantityUnits,
		BatchNumber:   batchNumber,
		Location:      in.Location,
		Notes:         in.Notes,
	}
	if record.DonorName == "" {
		record.DonorName = "Walk-in Donor"
	}
	if donor != nil {
		record.DonorID = &donor.ID
		record.DonorName = donor.Name
		if donor.DateOfBirth != nil {
			record.DonorAge = int(now.Sub(*donor.DateOfBirth).Hours() / 24 / 365.25)
		}
		if donor.Weight > 0 {
			record.DonorWeight = donor.Weight
		}
	}

	if err := e.collections.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("insert collection: %w", err)
	}

	// The stock lands with the hospital the collector works for.
	holderID := actor.ID
	if collector.AffiliatedHospital != nil {
		holderID = *collector.AffiliatedHospital
	}

	batch := &models.Inventory{
		HospitalID:  holderID,
		DonorID:     record.DonorID,
		BloodGroup:  in.BloodGroup,
		Units:       in.QuantityUnits,
		BatchNumber: batchNumber,
		ExpiryDate:  now.Add(collectionShelfLife),
		Status:      models.BatchAvailable,
		Source:      "collection_drive",
		ProcessedBy: actor.ID,
	}
	if err := e.inventory.Insert(ctx, batch); err != nil {
		return nil, fmt.Errorf("insert collected batch: %w", err)
	}

	e.appendLog(ctx, &models.InventoryLog{
		InventoryID: batch.ID,
		HospitalID:  holderID,
		Action:      models.LogActionAdded,
		Units:       in.QuantityUnits,
		BloodGroup:  in.BloodGroup,
		BatchNumber: batchNumber,
		Details:     "Collection drive intake at " + in.Location,
	})

	if donor != nil {
		if err := e.users.StampLastDonation(ctx, donor.ID, now); err != nil {
			return nil, fmt.Errorf("stamp donor: %w", err)
		}
	}

	e.log.Info("collection recorded",
		zap.String("batchNumber", batchNumber),
		zap.String("bloodGroup", in.BloodGroup),
		zap.Int("units", in.QuantityUnits),
		zap.Bool("registeredDonor", donor != nil))
	return record, nil
}

// SearchDonors is the field lookup a collector runs before recording a
// collection: name or phone fragment, or an exact BloodLink ID.
func (e *Engine) SearchDonors(ctx context.Context, actor Actor, query string) ([]models.User, error) {
	if !policy.Allows(actor.Role, policy.ActionRecordIntake) {
		return nil, errf(KindForbidden, "role %q may not search donors", actor.Role)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errf(KindValidation, "search query is required")
	}
	return e.users.SearchDonors(ctx, query)
}

// MyCollections lists the collection events recorded by the caller.
func (e *Engine) MyCollections(ctx context.Context, actor Actor) ([]models.BloodCollection, error) {
	if !policy.Allows(actor.Role, policy.ActionRecordIntake) {
		return nil, errf(KindForbidden, "role %q may not list collections", actor.Role)
	}
	return e.collections.ListByCollector(ctx, actor.ID)
}

// MyDonationRecords lists the caller's own recorded donations.
func (e *Engine) MyDonationRecords(ctx context.Context, actor Actor) ([]models.BloodCollection, error) {
	return e.collections.ListByDonor(ctx, actor.ID)
}

// SelfEligibility evaluates the caller's current eligibility from a fresh
// user record.
func (e *Engine) SelfEligibility(ctx context.Context, actor Actor) (eligibility.Result, error) {
	user, err := e.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return eligibility.Result{}, errf(KindNotFound, "user not found")
		}
		return eligibility.Result{}, fmt.Errorf("load user: %w", err)
	}
	return eligibility.Evaluate(user.LastDonationDate, e.now()), nil
}
