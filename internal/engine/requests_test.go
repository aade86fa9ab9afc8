package engine

import (
	"context"
	"testing"
	"time"

	"bloodlink-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateRequestValidation(t *testing.T) {
	rig := newTestRig()
	requester := rig.addUser(models.RoleDonor, "O+", nil)
	ctx := context.Background()

	_, err := rig.engine.CreateRequest(ctx, requester, CreateRequestInput{
		PatientName: "P", BloodGroup: "Q+", Units: 1, Location: "L",
	})
	assert.True(t, IsKind(err, KindValidation), "bad blood group: %v", err)

	_, err = rig.engine.CreateRequest(ctx, requester, CreateRequestInput{
		PatientName: "P", BloodGroup: "O+", Units: 0, Location: "L",
	})
	assert.True(t, IsKind(err, KindValidation), "zero units: %v", err)

	_, err = rig.engine.CreateRequest(ctx, requester, CreateRequestInput{
		BloodGroup: "O+", Units: 1,
	})
	assert.True(t, IsKind(err, KindValidation), "missing fields: %v", err)

	req, err := rig.engine.CreateRequest(ctx, requester, CreateRequestInput{
		PatientName: "P", BloodGroup: "O+", Units: 2, Location: "L",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, models.UrgencyStandard, req.Urgency, "urgency defaults to standard")
	assert.Nil(t, req.HospitalID)
}

func TestVolunteerIdempotent(t *testing.T) {
	rig := newTestRig()
	requester := rig.addUser(models.RoleDonor, "A+", nil)
	donor := rig.addUser(models.RoleDonor, "O-", nil)
	reqID := rig.addRequest(requester, "A+", 2)
	ctx := context.Background()

	require.NoError(t, rig.engine.Volunteer(ctx, donor, reqID))

	err := rig.engine.Volunteer(ctx, donor, reqID)
	assert.True(t, IsKind(err, KindConflict), "second apply must conflict: %v", err)

	req, _ := rig.requests.FindByID(ctx, reqID)
	require.Len(t, req.Volunteers, 1)
	assert.Equal(t, donor.ID, req.Volunteers[0].User)
	assert.Equal(t, models.VolunteerPending, req.Volunteers[0].Status)
}

func TestVolunteerIncompatibleBloodGroup(t *testing.T) {
	rig := newTestRig()
	requester := rig.addUser(models.RoleDonor, "A+", nil)
	donor := rig.addUser(models.RoleDonor, "A+", nil)
	reqID := rig.addRequest(requester, "O-", 1)

	err := rig.engine.Volunteer(context.Background(), donor, reqID)
	assert.True(t, IsKind(err, KindConflict), "A+ cannot donate to O-: %v", err)

	req, _ := rig.requests.FindByID(context.Background(), reqID)
	assert.Empty(t, req.Volunteers)
}

func TestVolunteerWithoutRecordedGroupIsAccepted(t *testing.T) {
	// Donors who never filled in their blood group are screened at the
	// collection point instead of being turned away online.
	rig := newTestRig()
	requester := rig.addUser(models.RoleDonor, "A+", nil)
	donor := rig.addUser(models.RoleDonor, "", nil)
	reqID := rig.addRequest(requester, "O-", 1)

	assert.NoError(t, rig.engine.Volunteer(context.Background(), donor, reqID))
}

func TestVolunteerOnFinishedRequest(t *testing.T) {
	rig := newTestRig()
	requester := rig.addUser(models.RoleDonor, "A+", nil)
	donor := rig.addUser(models.RoleDonor, "O-", nil)
	reqID := rig.addRequest(requester, "A+", 1)
	ctx := context.Background()

	require.NoError(t, rig.requests.SetStatus(ctx, reqID, models.RequestCompleted))
	err := rig.engine.Volunteer(ctx, donor, reqID)
	assert.True(t, IsKind(err, KindConflict), "%v", err)
}

func TestMatchStockFIFOOrder(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	holder := rig.addUser(models.RoleHospital, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	reqID := rig.addRequest(requester, "O-", 2)

	e3 := rig.now.AddDate(0, 0, 30)
	e1 := rig.now.AddDate(0, 0, 5)
	e2 := rig.now.AddDate(0, 0, 10)
	rig.addBatch(holder, "O-", 5, e3)
	rig.addBatch(holder, "O-", 5, e1)
	rig.addBatch(holder, "O-", 5, e2)
	// Wrong group and expired stock never match.
	rig.addBatch(holder, "A+", 5, e1)
	rig.addBatch(holder, "O-", 5, rig.now.AddDate(0, 0, -1))

	matches, err := rig.engine.MatchStock(context.Background(), admin, reqID)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, e1, matches[0].ExpiryDate, "soonest expiry first")
	assert.Equal(t, e2, matches[1].ExpiryDate)
	assert.Equal(t, e3, matches[2].ExpiryDate)
}

func TestMatchStockAdminOnly(t *testing.T) {
	rig := newTestRig()
	requester := rig.addUser(models.RoleDonor, "", nil)
	reqID := rig.addRequest(requester, "O-", 2)

	_, err := rig.engine.MatchStock(context.Background(), requester, reqID)
	assert.True(t, IsKind(err, KindForbidden), "%v", err)
}

func TestFulfillWithStockPartial(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	holder := rig.addUser(models.RoleHospital, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	reqID := rig.addRequest(requester, "O-", 2)
	batchID := rig.addBatch(holder, "O-", 5, rig.now.AddDate(0, 0, 10))
	ctx := context.Background()

	updated, err := rig.engine.FulfillWithStock(ctx, admin, reqID, batchID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Units)
	assert.Equal(t, models.BatchAvailable, updated.Status)

	req, _ := rig.requests.FindByID(ctx, reqID)
	assert.Equal(t, models.RequestArranging, req.Status)
	require.Len(t, req.StockAssignments, 1)
	assert.Equal(t, batchID, req.StockAssignments[0].InventoryID)
	assert.Equal(t, 2, req.StockAssignments[0].UnitsAssigned)
	require.NotNil(t, req.HospitalID)
	assert.Equal(t, holder.ID, *req.HospitalID)
	require.NotNil(t, req.FulfilledBy)
	assert.Equal(t, admin.ID, *req.FulfilledBy)

	require.Len(t, rig.notifier.sent, 1)
	assert.Equal(t, requester.ID, rig.notifier.sent[0].Recipient)
	assert.Equal(t, "request_fulfilled", rig.notifier.sent[0].Type)
}

func TestFulfillWithStockDepletesBatch(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	holder := rig.addUser(models.RoleHospital, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	reqID := rig.addRequest(requester, "B+", 1)
	batchID := rig.addBatch(holder, "B+", 1, rig.now.AddDate(0, 0, 10))

	updated, err := rig.engine.FulfillWithStock(context.Background(), admin, reqID, batchID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Units)
	assert.Equal(t, models.BatchUsed, updated.Status)
}

func TestFulfillDefaultsToRequestedUnits(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	holder := rig.addUser(models.RoleHospital, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	reqID := rig.addRequest(requester, "A-", 3)
	batchID := rig.addBatch(holder, "A-", 10, rig.now.AddDate(0, 0, 10))

	updated, err := rig.engine.FulfillWithStock(context.Background(), admin, reqID, batchID, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Units, "omitted amount falls back to the request's units")
}

func TestFulfillInsufficientStock(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	holder := rig.addUser(models.RoleHospital, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	reqID := rig.addRequest(requester, "A+", 4)
	batchID := rig.addBatch(holder, "A+", 2, rig.now.AddDate(0, 0, 10))
	ctx := context.Background()

	_, err := rig.engine.FulfillWithStock(ctx, admin, reqID, batchID, 4)
	assert.True(t, IsKind(err, KindInsufficientStock), "%v", err)

	// Guard failure leaves no partial state.
	batch, _ := rig.inventory.FindByID(ctx, batchID)
	assert.Equal(t, 2, batch.Units)
	req, _ := rig.requests.FindByID(ctx, reqID)
	assert.Empty(t, req.StockAssignments)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Empty(t, rig.notifier.sent)
}

func TestFulfillUnavailableBatch(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	holder := rig.addUser(models.RoleHospital, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	reqID := rig.addRequest(requester, "A+", 1)
	batchID := rig.addBatch(holder, "A+", 5, rig.now.AddDate(0, 0, 10))

	rig.inventory.docs[batchID].Status = models.BatchDiscarded
	_, err := rig.engine.FulfillWithStock(context.Background(), admin, reqID, batchID, 1)
	assert.True(t, IsKind(err, KindConflict), "%v", err)
}

func TestDeductionsFullyAccounted(t *testing.T) {
	// After any sequence of deductions the used-log units sum to
	// initialUnits - remaining.
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	holder := rig.addUser(models.RoleHospital, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	reqID := rig.addRequest(requester, "O+", 10)
	batchID := rig.addBatch(holder, "O+", 10, rig.now.AddDate(0, 0, 10))
	ctx := context.Background()

	for _, amount := range []int{2, 3, 1} {
		_, err := rig.engine.FulfillWithStock(ctx, admin, reqID, batchID, amount)
		require.NoError(t, err)
	}

	batch, _ := rig.inventory.FindByID(ctx, batchID)
	sum := 0
	for _, entry := range rig.inventory.logs {
		if entry.Action == models.LogActionUsed && entry.InventoryID == batchID {
			sum += entry.Units
		}
	}
	assert.Equal(t, 10-batch.Units, sum)
	assert.Equal(t, 4, batch.Units)
}

func TestHolderOrgFirstAssignmentWins(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	holderA := rig.addUser(models.RoleHospital, "", nil)
	holderB := rig.addUser(models.RoleBloodBank, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	reqID := rig.addRequest(requester, "AB-", 4)
	batchA := rig.addBatch(holderA, "AB-", 5, rig.now.AddDate(0, 0, 5))
	batchB := rig.addBatch(holderB, "AB-", 5, rig.now.AddDate(0, 0, 9))
	ctx := context.Background()

	_, err := rig.engine.FulfillWithStock(ctx, admin, reqID, batchA, 2)
	require.NoError(t, err)
	_, err = rig.engine.FulfillWithStock(ctx, admin, reqID, batchB, 2)
	require.NoError(t, err)

	req, _ := rig.requests.FindByID(ctx, reqID)
	require.Len(t, req.StockAssignments, 2)
	require.NotNil(t, req.HospitalID)
	assert.Equal(t, holderA.ID, *req.HospitalID, "first assignment's holder sticks")
}

func TestAssignVolunteerRejectsIneligibleDonor(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	donor := rig.addUser(models.RoleDonor, "O-", rig.daysAgo(45))
	reqID := rig.addRequest(requester, "O-", 1)
	ctx := context.Background()

	require.NoError(t, rig.engine.Volunteer(ctx, donor, reqID))

	err := rig.engine.AssignVolunteer(ctx, admin, reqID, donor.ID)
	require.True(t, IsKind(err, KindConflict), "%v", err)
	assert.Contains(t, err.Error(), "45 day(s) remaining")

	req, _ := rig.requests.FindByID(ctx, reqID)
	assert.Equal(t, models.VolunteerPending, req.Volunteers[0].Status)
	u, _ := rig.users.FindByID(ctx, donor.ID)
	assert.Equal(t, *rig.daysAgo(45), *u.LastDonationDate, "stamp untouched on rejection")
}

func TestAssignVolunteerStampsEligibleDonor(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	donor := rig.addUser(models.RoleDonor, "O-", rig.daysAgo(120))
	reqID := rig.addRequest(requester, "O-", 1)
	ctx := context.Background()

	require.NoError(t, rig.engine.Volunteer(ctx, donor, reqID))
	require.NoError(t, rig.engine.AssignVolunteer(ctx, admin, reqID, donor.ID))

	req, _ := rig.requests.FindByID(ctx, reqID)
	assert.Equal(t, models.RequestArranging, req.Status)
	assert.Equal(t, models.VolunteerAssigned, req.Volunteers[0].Status)

	// Eligibility is locked at selection time.
	u, _ := rig.users.FindByID(ctx, donor.ID)
	require.NotNil(t, u.LastDonationDate)
	assert.Equal(t, rig.now, *u.LastDonationDate)

	require.Len(t, rig.notifier.sent, 1)
	assert.Equal(t, donor.ID, rig.notifier.sent[0].Recipient)
	assert.Equal(t, "volunteer_selected", rig.notifier.sent[0].Type)
}

func TestAssignVolunteerNotListed(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	stranger := rig.addUser(models.RoleDonor, "O-", nil)
	reqID := rig.addRequest(requester, "O-", 1)

	err := rig.engine.AssignVolunteer(context.Background(), admin, reqID, stranger.ID)
	assert.True(t, IsKind(err, KindNotFound), "%v", err)
}

func TestCompleteStampsOnlyAssignedVolunteers(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	assigned := rig.addUser(models.RoleDonor, "O-", rig.daysAgo(200))
	pending := rig.addUser(models.RoleDonor, "O-", rig.daysAgo(200))
	reqID := rig.addRequest(requester, "O-", 1)
	ctx := context.Background()

	require.NoError(t, rig.engine.Volunteer(ctx, assigned, reqID))
	require.NoError(t, rig.engine.Volunteer(ctx, pending, reqID))
	require.NoError(t, rig.engine.AssignVolunteer(ctx, admin, reqID, assigned.ID))

	// Move the clock so the completion stamp is distinguishable.
	rig.now = rig.now.Add(48 * time.Hour)
	require.NoError(t, rig.engine.Complete(ctx, requester, reqID))

	req, _ := rig.requests.FindByID(ctx, reqID)
	assert.Equal(t, models.RequestCompleted, req.Status)

	a, _ := rig.users.FindByID(ctx, assigned.ID)
	assert.Equal(t, rig.now, *a.LastDonationDate, "assigned donor re-stamped at completion")
	p, _ := rig.users.FindByID(ctx, pending.ID)
	assert.Equal(t, *rig.daysAgo(202), *p.LastDonationDate, "pending volunteer untouched")
}

func TestCompleteAuthorization(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	requester := rig.addUser(models.RoleDonor, "", nil)
	stranger := rig.addUser(models.RoleDonor, "", nil)
	ctx := context.Background()

	reqID := rig.addRequest(requester, "A+", 1)
	err := rig.engine.Complete(ctx, stranger, reqID)
	assert.True(t, IsKind(err, KindForbidden), "%v", err)

	require.NoError(t, rig.engine.Complete(ctx, requester, reqID))

	reqID2 := rig.addRequest(requester, "A+", 1)
	require.NoError(t, rig.engine.Complete(ctx, admin, reqID2))
}

func TestCancelGuards(t *testing.T) {
	rig := newTestRig()
	requester := rig.addUser(models.RoleDonor, "", nil)
	ctx := context.Background()

	reqID := rig.addRequest(requester, "A+", 1)
	require.NoError(t, rig.engine.Cancel(ctx, requester, reqID))
	req, _ := rig.requests.FindByID(ctx, reqID)
	assert.Equal(t, models.RequestCancelled, req.Status)

	reqID2 := rig.addRequest(requester, "A+", 1)
	require.NoError(t, rig.engine.Complete(ctx, requester, reqID2))
	err := rig.engine.Cancel(ctx, requester, reqID2)
	assert.True(t, IsKind(err, KindConflict), "completed request cannot be cancelled: %v", err)
}

func TestAttachDocument(t *testing.T) {
	rig := newTestRig()
	requester := rig.addUser(models.RoleDonor, "", nil)
	stranger := rig.addUser(models.RoleDonor, "", nil)
	reqID := rig.addRequest(requester, "A+", 1)
	ctx := context.Background()

	err := rig.engine.AttachDocument(ctx, stranger, reqID, "https://cdn.example.com/note.jpg")
	assert.True(t, IsKind(err, KindForbidden), "%v", err)

	require.NoError(t, rig.engine.AttachDocument(ctx, requester, reqID, "https://cdn.example.com/note.jpg"))
	req, _ := rig.requests.FindByID(ctx, reqID)
	assert.Equal(t, []string{"https://cdn.example.com/note.jpg"}, req.Attachments)
}

func TestUnknownRequestID(t *testing.T) {
	rig := newTestRig()
	admin := rig.addUser(models.RoleAdmin, "", nil)
	err := rig.engine.AssignVolunteer(context.Background(), admin, primitive.NewObjectID(), primitive.NewObjectID())
	assert.True(t, IsKind(err, KindNotFound), "%v", err)
}
