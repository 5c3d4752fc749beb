package service

import (
	"context"
	"sort"
	"time"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
)

// Fake in-memory cho các interface repository, dùng chung cho test của
// package này.

type fakeUserRepo struct {
	users map[int]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]*domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	user.ID = len(r.users) + 1
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByUSN(ctx context.Context, usn string) (*domain.User, error) {
	for _, u := range r.users {
		if u.USN == usn {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdatePreferences(ctx context.Context, id int, preferences string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Preferences = preferences
	return nil
}

type fakeVehicleRepo struct {
	vehicles []domain.Vehicle
}

func (r *fakeVehicleRepo) Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	for _, v := range r.vehicles {
		if v.LicensePlate == vehicle.LicensePlate {
			return nil, repository.ErrDuplicateEntry
		}
	}
	vehicle.ID = len(r.vehicles) + 1
	r.vehicles = append(r.vehicles, *vehicle)
	return vehicle, nil
}

func (r *fakeVehicleRepo) FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	for i := range r.vehicles {
		if r.vehicles[i].LicensePlate == plate {
			return &r.vehicles[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeVehicleRepo) FindByUserID(ctx context.Context, userID int) ([]domain.Vehicle, error) {
	var result []domain.Vehicle
	for _, v := range r.vehicles {
		if v.UserID == userID {
			result = append(result, v)
		}
	}
	return result, nil
}

func (r *fakeVehicleRepo) FindAll(ctx context.Context) ([]domain.Vehicle, error) {
	return append([]domain.Vehicle(nil), r.vehicles...), nil
}

func (r *fakeVehicleRepo) Delete(ctx context.Context, plate string, userID int) error {
	for i, v := range r.vehicles {
		if v.LicensePlate == plate && v.UserID == userID {
			r.vehicles = append(r.vehicles[:i], r.vehicles[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeLotRepo struct {
	lots []domain.ParkingLot
}

func (r *fakeLotRepo) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	lot.ID = len(r.lots) + 1
	r.lots = append(r.lots, *lot)
	return lot, nil
}

func (r *fakeLotRepo) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	for i := range r.lots {
		if r.lots[i].ID == id {
			return &r.lots[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeLotRepo) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	return append([]domain.ParkingLot(nil), r.lots...), nil
}

func (r *fakeLotRepo) UpdateCapacity(ctx context.Context, id int, capacity int) error {
	for i := range r.lots {
		if r.lots[i].ID == id {
			r.lots[i].NumberOfSpots = capacity
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeLotRepo) Delete(ctx context.Context, id int) error {
	for i := range r.lots {
		if r.lots[i].ID == id {
			r.lots = append(r.lots[:i], r.lots[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeSpotRepo struct {
	spots  []domain.ParkingSpot
	nextID int
}

func (r *fakeSpotRepo) add(spot domain.ParkingSpot) {
	r.nextID++
	spot.ID = r.nextID
	r.spots = append(r.spots, spot)
}

func (r *fakeSpotRepo) CreateBatch(ctx context.Context, spots []domain.ParkingSpot) error {
	for _, s := range spots {
		r.add(s)
	}
	return nil
}

func (r *fakeSpotRepo) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	var result []domain.ParkingSpot
	for _, s := range r.spots {
		if s.LotID == lotID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *fakeSpotRepo) FindByLotAndNumber(ctx context.Context, lotID int, spotNumber int) (*domain.ParkingSpot, error) {
	for i := range r.spots {
		if r.spots[i].LotID == lotID && r.spots[i].SpotNumber == spotNumber {
			return &r.spots[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSpotRepo) FindFirstAvailable(ctx context.Context, lotID int, excludeFacultyReserved bool) (*domain.ParkingSpot, error) {
	var candidates []*domain.ParkingSpot
	for i := range r.spots {
		s := &r.spots[i]
		if s.LotID != lotID || s.Status != domain.SpotAvailable {
			continue
		}
		if excludeFacultyReserved && s.ReservedForFaculty {
			continue
		}
		candidates = append(candidates, s)
	}
	if len(candidates) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].SpotNumber < candidates[j].SpotNumber })
	return candidates[0], nil
}

func (r *fakeSpotRepo) UpdateStatus(ctx context.Context, id int, status domain.SpotStatus) error {
	for i := range r.spots {
		if r.spots[i].ID == id {
			r.spots[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeSpotRepo) SetFacultyReserved(ctx context.Context, id int, reserved bool) error {
	for i := range r.spots {
		if r.spots[i].ID == id {
			r.spots[i].ReservedForFaculty = reserved
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeSpotRepo) CountOccupiedByLot(ctx context.Context, lotID int) (int, error) {
	count := 0
	for _, s := range r.spots {
		if s.LotID == lotID && s.Status == domain.SpotOccupied {
			count++
		}
	}
	return count, nil
}

func (r *fakeSpotRepo) DeleteAboveNumber(ctx context.Context, lotID int, spotNumber int) error {
	var kept []domain.ParkingSpot
	for _, s := range r.spots {
		if s.LotID == lotID && s.SpotNumber > spotNumber {
			continue
		}
		kept = append(kept, s)
	}
	r.spots = kept
	return nil
}

func (r *fakeSpotRepo) FindOccupiedAboveNumber(ctx context.Context, lotID int, spotNumber int) ([]domain.ParkingSpot, error) {
	var result []domain.ParkingSpot
	for _, s := range r.spots {
		if s.LotID == lotID && s.SpotNumber > spotNumber && s.Status == domain.SpotOccupied {
			result = append(result, s)
		}
	}
	return result, nil
}

type fakeTxnRepo struct {
	txns   []domain.ParkingTransaction
	nextID int

	// Tiêm lỗi ghi để test các nhánh hoàn tác
	createErr error
	closeErr  error
}

func (r *fakeTxnRepo) Create(ctx context.Context, txn *domain.ParkingTransaction) (*domain.ParkingTransaction, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	txn.ID = r.nextID
	r.txns = append(r.txns, *txn)
	return txn, nil
}

func (r *fakeTxnRepo) FindOpenByPlate(ctx context.Context, plate string) (*domain.ParkingTransaction, error) {
	for i := range r.txns {
		if r.txns[i].LicensePlate == plate && !r.txns[i].ExitTime.Valid {
			return &r.txns[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTxnRepo) FindOpenByPlates(ctx context.Context, plates []string) (*domain.ParkingTransaction, error) {
	for _, plate := range plates {
		if txn, err := r.FindOpenByPlate(ctx, plate); err == nil {
			return txn, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTxnRepo) FindOpenBySpot(ctx context.Context, lotID int, spotNumber int) (*domain.ParkingTransaction, error) {
	for i := range r.txns {
		if r.txns[i].LotID == lotID && r.txns[i].SpotNumber == spotNumber && !r.txns[i].ExitTime.Valid {
			return &r.txns[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTxnRepo) Close(ctx context.Context, id int, exitTime time.Time) error {
	if r.closeErr != nil {
		return r.closeErr
	}
	for i := range r.txns {
		if r.txns[i].ID == id && !r.txns[i].ExitTime.Valid {
			r.txns[i].ExitTime.SetValid(exitTime)
			return nil
		}
	}
	return repository.ErrNoOpenTransaction
}

func (r *fakeTxnRepo) FindCompletedByPlates(ctx context.Context, plates []string, limit int) ([]domain.ParkingTransaction, error) {
	inPlates := make(map[string]bool, len(plates))
	for _, p := range plates {
		inPlates[p] = true
	}
	var result []domain.ParkingTransaction
	for _, txn := range r.txns {
		if inPlates[txn.LicensePlate] && txn.ExitTime.Valid {
			result = append(result, txn)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EntryTime.After(result[j].EntryTime) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeTxnRepo) CountByPlates(ctx context.Context, plates []string) (int, error) {
	inPlates := make(map[string]bool, len(plates))
	for _, p := range plates {
		inPlates[p] = true
	}
	count := 0
	for _, txn := range r.txns {
		if inPlates[txn.LicensePlate] {
			count++
		}
	}
	return count, nil
}

func (r *fakeTxnRepo) FavoriteLotID(ctx context.Context, plates []string) (int, error) {
	inPlates := make(map[string]bool, len(plates))
	for _, p := range plates {
		inPlates[p] = true
	}
	counts := make(map[int]int)
	for _, txn := range r.txns {
		if inPlates[txn.LicensePlate] {
			counts[txn.LotID]++
		}
	}
	best, bestCount := 0, 0
	for lotID, c := range counts {
		if c > bestCount {
			best, bestCount = lotID, c
		}
	}
	if bestCount == 0 {
		return 0, repository.ErrNotFound
	}
	return best, nil
}

// stubEngine trả soup cố định bất kể ảnh đầu vào.
type stubEngine struct {
	soup string
	err  error
}

func (e *stubEngine) ReadSoup(ctx context.Context, imageBytes []byte) (string, error) {
	return e.soup, e.err
}

type stubCamera struct {
	frame []byte
	err   error
}

func (c *stubCamera) Fetch(ctx context.Context) ([]byte, error) {
	return c.frame, c.err
}

type fakeMailer struct {
	entryEmails   []string // email người nhận
	receiptEmails []string
	replyEmails   []string
	sendErr       error
}

func (m *fakeMailer) SendEntryApproved(toEmail, toName, lot string, spot int) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.entryEmails = append(m.entryEmails, toEmail)
	return nil
}

func (m *fakeMailer) SendExitReceipt(toEmail, toName, plate, lot string, entry, exit time.Time) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.receiptEmails = append(m.receiptEmails, toEmail)
	return nil
}

func (m *fakeMailer) SendSupportReply(toEmail string, ticketID int, originalMessage, reply string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.replyEmails = append(m.replyEmails, toEmail)
	return nil
}

type fakeBroadcaster struct {
	events []domain.GateConsoleEvent
}

func (b *fakeBroadcaster) BroadcastGateEvent(event domain.GateConsoleEvent) {
	b.events = append(b.events, event)
}
