package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"bloodlink-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stand-ins for the mongo stores. They reproduce the same
// single-document semantics (duplicate guards, CAS deduction, FIFO order)
// so the state machine can be exercised without a database.

type fakeRequestStore struct {
	docs map[primitive.ObjectID]*models.Request
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{docs: make(map[primitive.ObjectID]*models.Request)}
}

func (s *fakeRequestStore) Insert(_ context.Context, r *models.Request) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	cp := *r
	s.docs[r.ID] = &cp
	return nil
}

func (s *fakeRequestStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Request, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *doc
	cp.Volunteers = append([]models.Volunteer(nil), doc.Volunteers...)
	cp.StockAssignments = append([]models.StockAssignment(nil), doc.StockAssignments...)
	return &cp, nil
}

func (s *fakeRequestStore) ListActive(_ context.Context) ([]models.Request, error) {
	var out []models.Request
	for _, doc := range s.docs {
		switch doc.Status {
		case models.RequestPending, models.RequestArranging, models.RequestFulfilled, models.RequestCompleted:
			out = append(out, *doc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Urgency != out[j].Urgency {
			return out[i].Urgency < out[j].Urgency
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *fakeRequestStore) AddVolunteer(_ context.Context, requestID, donorID primitive.ObjectID) (bool, error) {
	doc, ok := s.docs[requestID]
	if !ok {
		return false, ErrNotFound
	}
	for _, v := range doc.Volunteers {
		if v.User == donorID {
			return false, nil
		}
	}
	doc.Volunteers = append(doc.Volunteers, models.Volunteer{User: donorID, Status: models.VolunteerPending})
	return true, nil
}

func (s *fakeRequestStore) AssignVolunteer(_ context.Context, requestID, donorID primitive.ObjectID) (bool, error) {
	doc, ok := s.docs[requestID]
	if !ok {
		return false, ErrNotFound
	}
	for i := range doc.Volunteers {
		if doc.Volunteers[i].User == donorID {
			doc.Volunteers[i].Status = models.VolunteerAssigned
			doc.Status = models.RequestArranging
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeRequestStore) AppendStockAssignment(_ context.Context, requestID primitive.ObjectID, sa models.StockAssignment, holderID, actorID primitive.ObjectID) error {
	doc, ok := s.docs[requestID]
	if !ok {
		return ErrNotFound
	}
	doc.StockAssignments = append(doc.StockAssignments, sa)
	doc.Status = models.RequestArranging
	doc.FulfilledBy = &actorID
	if doc.HospitalID == nil {
		h := holderID
		doc.HospitalID = &h
	}
	return nil
}

func (s *fakeRequestStore) SetStatus(_ context.Context, requestID primitive.ObjectID, status string) error {
	doc, ok := s.docs[requestID]
	if !ok {
		return ErrNotFound
	}
	doc.Status = status
	return nil
}

func (s *fakeRequestStore) AddAttachment(_ context.Context, requestID primitive.ObjectID, url string) error {
	doc, ok := s.docs[requestID]
	if !ok {
		return ErrNotFound
	}
	doc.Attachments = append(doc.Attachments, url)
	return nil
}

type fakeInventoryStore struct {
	docs   map[primitive.ObjectID]*models.Inventory
	order  []primitive.ObjectID // insertion order, for stable FIFO ties
	logs   []models.InventoryLog
	logErr error // when set, AppendLog fails (best-effort path)
}

func newFakeInventoryStore() *fakeInventoryStore {
	return &fakeInventoryStore{docs: make(map[primitive.ObjectID]*models.Inventory)}
}

func (s *fakeInventoryStore) Insert(_ context.Context, batch *models.Inventory) error {
	for _, doc := range s.docs {
		if doc.BatchNumber == batch.BatchNumber {
			return ErrDuplicate
		}
	}
	if batch.ID.IsZero() {
		batch.ID = primitive.NewObjectID()
	}
	cp := *batch
	s.docs[batch.ID] = &cp
	s.order = append(s.order, batch.ID)
	return nil
}

func (s *fakeInventoryStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Inventory, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *fakeInventoryStore) sorted(keep func(*models.Inventory) bool) []models.Inventory {
	var out []models.Inventory
	for _, id := range s.order {
		if doc := s.docs[id]; keep(doc) {
			out = append(out, *doc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpiryDate.Before(out[j].ExpiryDate)
	})
	return out
}

func (s *fakeInventoryStore) ListAvailable(_ context.Context, holderID primitive.ObjectID) ([]models.Inventory, error) {
	return s.sorted(func(b *models.Inventory) bool {
		return b.HospitalID == holderID && b.Status == models.BatchAvailable && b.Units > 0
	}), nil
}

func (s *fakeInventoryStore) FindCompatible(_ context.Context, bloodGroup string, now time.Time) ([]models.Inventory, error) {
	return s.sorted(func(b *models.Inventory) bool {
		return b.BloodGroup == bloodGroup && b.Status == models.BatchAvailable &&
			b.Units > 0 && b.ExpiryDate.After(now)
	}), nil
}

func (s *fakeInventoryStore) Deduct(_ context.Context, id primitive.ObjectID, amount int, usageDetails string) (*models.Inventory, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if doc.Status != models.BatchAvailable {
		return nil, ErrNotAvailable
	}
	if doc.Units < amount {
		return nil, ErrInsufficient
	}
	doc.Units -= amount
	if doc.Units == 0 {
		doc.Status = models.BatchUsed
		doc.UsageDetails = usageDetails
	}
	cp := *doc
	return &cp, nil
}

func (s *fakeInventoryStore) Discard(_ context.Context, id primitive.ObjectID) (*models.Inventory, int, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, 0, ErrNotFound
	}
	if doc.Status != models.BatchAvailable {
		return nil, 0, ErrNotAvailable
	}
	removed := doc.Units
	doc.Units = 0
	doc.Status = models.BatchDiscarded
	cp := *doc
	return &cp, removed, nil
}

func (s *fakeInventoryStore) ListByDonor(_ context.Context, donorID primitive.ObjectID) ([]models.Inventory, error) {
	var out []models.Inventory
	for _, id := range s.order {
		doc := s.docs[id]
		if doc.DonorID != nil && *doc.DonorID == donorID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (s *fakeInventoryStore) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, doc := range s.docs {
		if doc.Status == models.BatchAvailable && !doc.ExpiryDate.After(now) {
			doc.Status = models.BatchExpired
			n++
		}
	}
	return n, nil
}

func (s *fakeInventoryStore) AppendLog(_ context.Context, entry *models.InventoryLog) error {
	if s.logErr != nil {
		return s.logErr
	}
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *fakeInventoryStore) History(_ context.Context, holderID primitive.ObjectID) ([]models.InventoryLog, error) {
	var out []models.InventoryLog
	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].HospitalID == holderID {
			out = append(out, s.logs[i])
		}
	}
	return out, nil
}

type fakeUserStore struct {
	docs map[primitive.ObjectID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{docs: make(map[primitive.ObjectID]*models.User)}
}

func (s *fakeUserStore) add(u models.User) primitive.ObjectID {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.docs[u.ID] = &u
	return u.ID
}

func (s *fakeUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *fakeUserStore) FindByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	for _, doc := range s.docs {
		if doc.BloodLinkID == identifier || doc.Phone == identifier {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeUserStore) SearchDonors(_ context.Context, query string) ([]models.User, error) {
	lowered := strings.ToLower(query)
	var out []models.User
	for _, doc := range s.docs {
		if doc.Role == models.RoleAdmin {
			continue
		}
		if strings.Contains(strings.ToLower(doc.Name), lowered) ||
			strings.Contains(strings.ToLower(doc.Phone), lowered) ||
			doc.BloodLinkID == query {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeUserStore) StampLastDonation(_ context.Context, id primitive.ObjectID, t time.Time) error {
	doc, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	stamp := t
	doc.LastDonationDate = &stamp
	return nil
}

type fakeCollectionStore struct {
	docs []models.BloodCollection
}

func (s *fakeCollectionStore) Insert(_ context.Context, c *models.BloodCollection) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.docs = append(s.docs, *c)
	return nil
}

func (s *fakeCollectionStore) ListByCollector(_ context.Context, collectorID primitive.ObjectID) ([]models.BloodCollection, error) {
	var out []models.BloodCollection
	for _, c := range s.docs {
		if c.CollectorID == collectorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCollectionStore) ListByDonor(_ context.Context, donorID primitive.ObjectID) ([]models.BloodCollection, error) {
	var out []models.BloodCollection
	for _, c := range s.docs {
		if c.DonorID != nil && *c.DonorID == donorID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	sent []models.Notification
}

func (n *fakeNotifier) Notify(msg models.Notification) {
	n.sent = append(n.sent, msg)
}

// testRig wires an engine against fakes with a frozen clock.
type testRig struct {
	engine      *Engine
	requests    *fakeRequestStore
	inventory   *fakeInventoryStore
	users       *fakeUserStore
	collections *fakeCollectionStore
	notifier    *fakeNotifier
	now         time.Time
}

func newTestRig() *testRig {
	rig := &testRig{
		requests:    newFakeRequestStore(),
		inventory:   newFakeInventoryStore(),
		users:       newFakeUserStore(),
		collections: &fakeCollectionStore{},
		notifier:    &fakeNotifier{},
		now:         time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	rig.engine = New(rig.requests, rig.inventory, rig.users, rig.collections, rig.notifier, nil).
		WithClock(func() time.Time { return rig.now })
	return rig
}

func (r *testRig) daysAgo(d int) *time.Time {
	t := r.now.AddDate(0, 0, -d)
	return &t
}

func (r *testRig) addUser(role, bloodGroup string, lastDonation *time.Time) Actor {
	id := r.users.add(models.User{
		Name:             "user-" + role,
		Role:             role,
		BloodGroup:       bloodGroup,
		LastDonationDate: lastDonation,
	})
	return Actor{ID: id, Role: role}
}

func (r *testRig) addRequest(requester Actor, bloodGroup string, units int) primitive.ObjectID {
	req, err := r.engine.CreateRequest(context.Background(), requester, CreateRequestInput{
		PatientName: "Patient",
		BloodGroup:  bloodGroup,
		Units:       units,
		Location:    "City Hospital",
		Urgency:     models.UrgencyCritical,
	})
	if err != nil {
		panic(err)
	}
	return req.ID
}

func (r *testRig) addBatch(holder Actor, bloodGroup string, units int, expiry time.Time) primitive.ObjectID {
	batch := &models.Inventory{
		HospitalID:  holder.ID,
		BloodGroup:  bloodGroup,
		Units:       units,
		BatchNumber: "BN-" + primitive.NewObjectID().Hex(),
		ExpiryDate:  expiry,
		Status:      models.BatchAvailable,
	}
	if err := r.inventory.Insert(context.Background(), batch); err != nil {
		panic(err)
	}
	return batch.ID
}
