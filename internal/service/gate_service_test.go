package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
)

// gateFixture dựng một GateService với toàn bộ phụ thuộc fake. Mặc định:
// một sinh viên (xe KA01AB1234), một giảng viên (xe KA09ZZ7777) và hai bãi
// mỗi bãi 3 chỗ, chỗ #1 dành riêng giảng viên.
type gateFixture struct {
	svc      *GateService
	users    *fakeUserRepo
	vehicles *fakeVehicleRepo
	lots     *fakeLotRepo
	spots    *fakeSpotRepo
	txns     *fakeTxnRepo
	engine   *stubEngine
	cam      *stubCamera
	mail     *fakeMailer
	console  *fakeBroadcaster
}

func newGateFixture() *gateFixture {
	student := &domain.User{ID: 1, Name: "Rahul Kumar", Email: "rahul@rvce.edu.in", USN: "RVCE22CS001", Role: domain.RoleStudent, Preferences: "1,2"}
	faculty := &domain.User{ID: 2, Name: "Dr Meena", Email: "meena@rvce.edu.in", Role: domain.RoleFaculty, Preferences: "1,2"}

	f := &gateFixture{
		users:    newFakeUserRepo(student, faculty),
		vehicles: &fakeVehicleRepo{vehicles: []domain.Vehicle{{ID: 1, LicensePlate: "KA01AB1234", UserID: 1}, {ID: 2, LicensePlate: "KA09ZZ7777", UserID: 2}}},
		lots:     &fakeLotRepo{lots: []domain.ParkingLot{{ID: 1, Location: "CSE Ground", NumberOfSpots: 3}, {ID: 2, Location: "Near Kotak", NumberOfSpots: 3}}},
		spots:    &fakeSpotRepo{},
		txns:     &fakeTxnRepo{},
		engine:   &stubEngine{},
		cam:      &stubCamera{frame: []byte("jpeg")},
		mail:     &fakeMailer{},
		console:  &fakeBroadcaster{},
	}
	for lotID := 1; lotID <= 2; lotID++ {
		for n := 1; n <= 3; n++ {
			f.spots.add(domain.ParkingSpot{LotID: lotID, SpotNumber: n, Status: domain.SpotAvailable, ReservedForFaculty: n == 1})
		}
	}

	f.svc = NewGateService(f.vehicles, f.users, f.lots, f.spots, f.txns, f.engine, f.cam, f.cam, f.cam, f.mail, f.console)
	return f
}

func TestScanPlateEntryStep1Success(t *testing.T) {
	f := newGateFixture()

	result := f.svc.ScanPlateEntry(context.Background(), "ka01ab1234")

	assert.Equal(t, domain.GateStep1Success, result.Status)
	assert.Equal(t, "KA01AB1234", result.Plate)
	assert.Equal(t, "Rahul Kumar", result.OwnerName)
	assert.Equal(t, "RVCE22CS001", result.ExpectedUSN)
	require.Len(t, f.console.events, 1)
	assert.Equal(t, "entry_plate", f.console.events[0].Action)
}

func TestScanPlateEntryNoMatch(t *testing.T) {
	f := newGateFixture()
	f.engine.soup = "XXXXXXXXXXXX"

	result := f.svc.ScanPlateEntry(context.Background(), "")

	assert.Equal(t, domain.GateDenied, result.Status)
	assert.Equal(t, "No Plate Found", result.Msg)
	assert.Equal(t, "XXXXXXXXXXXX", result.DebugOCR, "soup thô phải trả lại cho operator")
	assert.Equal(t, domain.ReasonNoPlateFound, result.Reason)
}

func TestScanPlateEntryNoisySoupStillMatches(t *testing.T) {
	f := newGateFixture()
	// Biển số nằm nguyên văn giữa nhiễu OCR
	f.engine.soup = "INDKA01AB1234KARNATAKA"

	result := f.svc.ScanPlateEntry(context.Background(), "")

	assert.Equal(t, domain.GateStep1Success, result.Status)
	assert.Equal(t, "KA01AB1234", result.Plate)
}

func TestScanPlateEntryAlreadyInside(t *testing.T) {
	f := newGateFixture()
	_, err := f.txns.Create(context.Background(), &domain.ParkingTransaction{
		LicensePlate: "KA01AB1234", LotID: 1, SpotNumber: 2, EntryTime: time.Now().UTC(),
	})
	require.NoError(t, err)

	result := f.svc.ScanPlateEntry(context.Background(), "KA01AB1234")

	assert.Equal(t, domain.GateDenied, result.Status)
	assert.Equal(t, "Vehicle Already Inside!", result.Msg)
	assert.Equal(t, domain.ReasonAlreadyInside, result.Reason)
}

func TestScanPlateEntryFacultyBypass(t *testing.T) {
	f := newGateFixture()

	result := f.svc.ScanPlateEntry(context.Background(), "KA09ZZ7777")

	assert.Equal(t, domain.GateAllowed, result.Status)
	assert.Equal(t, "Welcome Faculty Dr Meena!", result.Msg)
	assert.Equal(t, "CSE Ground", result.Lot)
	// Giảng viên được lấy cả chỗ dành riêng — chỗ #1
	assert.Equal(t, 1, result.Spot)

	openTxn, err := f.txns.FindOpenByPlate(context.Background(), "KA09ZZ7777")
	require.NoError(t, err)
	assert.Equal(t, 1, openTxn.SpotNumber)
	assert.Equal(t, []string{"meena@rvce.edu.in"}, f.mail.entryEmails)
}

func TestScanPlateEntryCameraUnreachable(t *testing.T) {
	f := newGateFixture()
	f.cam.err = errors.New("dial timeout")

	result := f.svc.ScanPlateEntry(context.Background(), "")

	assert.Equal(t, domain.GateError, result.Status)
	assert.Equal(t, "Camera Unreachable", result.Msg)
	assert.Equal(t, domain.ReasonCamera, result.Reason)
}

func TestVerifyIDAndGrantHappyPath(t *testing.T) {
	f := newGateFixture()

	result := f.svc.VerifyIDAndGrant(context.Background(), "KA01AB1234", "RVCE22CS001", "RVCE22CS001")

	assert.Equal(t, domain.GateAllowed, result.Status)
	assert.Equal(t, "CSE Ground", result.Lot)
	// Sinh viên bị bỏ qua chỗ #1 dành riêng, nhận chỗ #2
	assert.Equal(t, 2, result.Spot)

	openTxn, err := f.txns.FindOpenByPlate(context.Background(), "KA01AB1234")
	require.NoError(t, err)
	assert.Equal(t, 1, openTxn.LotID)
	assert.Equal(t, 2, openTxn.SpotNumber)
	assert.Equal(t, []string{"rahul@rvce.edu.in"}, f.mail.entryEmails)
}

func TestVerifyIDAndGrantFuzzyIdentity(t *testing.T) {
	f := newGateFixture()
	// Soup nhiễu nhưng chứa nguyên văn mã thẻ
	result := f.svc.VerifyIDAndGrant(context.Background(), "KA01AB1234", "RVCE22CS001", "NAMERVCE22CS001DEPT")
	assert.Equal(t, domain.GateAllowed, result.Status)
}

func TestVerifyIDAndGrantMismatch(t *testing.T) {
	f := newGateFixture()

	result := f.svc.VerifyIDAndGrant(context.Background(), "KA01AB1234", "RVCE22CS001", "ZZZZZZZZZZZZZZZZZZZZZZZZ")

	assert.Equal(t, domain.GateDenied, result.Status)
	assert.Equal(t, "ID Mismatch (Expected RVCE22CS001)", result.Msg)
	assert.Equal(t, "ZZZZZZZZZZZZZZZZZZZZZZZZ", result.DebugOCR)
	assert.Equal(t, domain.ReasonIDMismatch, result.Reason)
	assert.Empty(t, f.mail.entryEmails)
}

func TestVerifyIDAndGrantPreferenceOrder(t *testing.T) {
	f := newGateFixture()
	// Bãi 2 đứng đầu thứ tự ưu tiên thì phải được cấp trước dù bãi 1 còn chỗ
	student, err := f.users.FindByID(context.Background(), 1)
	require.NoError(t, err)
	student.Preferences = "2,1"

	result := f.svc.VerifyIDAndGrant(context.Background(), "KA01AB1234", "RVCE22CS001", "RVCE22CS001")

	assert.Equal(t, domain.GateAllowed, result.Status)
	assert.Equal(t, "Near Kotak", result.Lot)
}

func TestVerifyIDAndGrantFallsBackToNextLot(t *testing.T) {
	f := newGateFixture()
	// Lấp kín các chỗ không dành riêng của bãi 1
	for i := range f.spots.spots {
		if f.spots.spots[i].LotID == 1 && !f.spots.spots[i].ReservedForFaculty {
			f.spots.spots[i].Status = domain.SpotOccupied
		}
	}

	result := f.svc.VerifyIDAndGrant(context.Background(), "KA01AB1234", "RVCE22CS001", "RVCE22CS001")

	assert.Equal(t, domain.GateAllowed, result.Status)
	assert.Equal(t, "Near Kotak", result.Lot, "bãi 1 hết chỗ thường thì phải rơi xuống bãi 2")
}

func TestVerifyIDAndGrantCampusFull(t *testing.T) {
	f := newGateFixture()
	// Chỉ còn chỗ dành riêng giảng viên trong toàn trường
	for i := range f.spots.spots {
		if !f.spots.spots[i].ReservedForFaculty {
			f.spots.spots[i].Status = domain.SpotOccupied
		}
	}

	result := f.svc.VerifyIDAndGrant(context.Background(), "KA01AB1234", "RVCE22CS001", "RVCE22CS001")

	assert.Equal(t, domain.GateDenied, result.Status)
	assert.Equal(t, "Campus Full", result.Msg)
	assert.Equal(t, domain.ReasonCampusFull, result.Reason)

	// Cùng cảnh đó giảng viên vẫn vào được
	facultyResult := f.svc.ScanPlateEntry(context.Background(), "KA09ZZ7777")
	assert.Equal(t, domain.GateAllowed, facultyResult.Status)
}

func TestScanExitHappyPath(t *testing.T) {
	f := newGateFixture()
	entry := f.svc.VerifyIDAndGrant(context.Background(), "KA01AB1234", "RVCE22CS001", "RVCE22CS001")
	require.Equal(t, domain.GateAllowed, entry.Status)

	result := f.svc.ScanExitID(context.Background(), "KA01AB1234")

	assert.Equal(t, domain.GateAllowed, result.Status)
	assert.Equal(t, "Goodbye Rahul Kumar!", result.Msg)
	assert.Equal(t, "KA01AB1234", result.Plate)

	// Phiên đã đóng, chỗ đã trả
	_, err := f.txns.FindOpenByPlate(context.Background(), "KA01AB1234")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	spot, err := f.spots.FindByLotAndNumber(context.Background(), entryLotID(t, f), entry.Spot)
	require.NoError(t, err)
	assert.Equal(t, domain.SpotAvailable, spot.Status)
	assert.Equal(t, []string{"rahul@rvce.edu.in"}, f.mail.receiptEmails)
}

func TestScanExitNotInside(t *testing.T) {
	f := newGateFixture()

	result := f.svc.ScanExitID(context.Background(), "KA01AB1234")

	assert.Equal(t, domain.GateDenied, result.Status)
	assert.Equal(t, "Vehicle KA01AB1234 not inside.", result.Msg)
	assert.Equal(t, domain.ReasonNotInside, result.Reason)
}

func TestScanExitThenReentry(t *testing.T) {
	f := newGateFixture()
	require.Equal(t, domain.GateAllowed, f.svc.VerifyIDAndGrant(context.Background(), "KA01AB1234", "RVCE22CS001", "RVCE22CS001").Status)
	require.Equal(t, domain.GateAllowed, f.svc.ScanExitID(context.Background(), "KA01AB1234").Status)

	// Ra rồi thì vào lại được
	result := f.svc.ScanPlateEntry(context.Background(), "KA01AB1234")
	assert.Equal(t, domain.GateStep1Success, result.Status)
}

func TestEntryTxnWriteFailureReleasesSpot(t *testing.T) {
	f := newGateFixture()
	f.txns.createErr = errors.New("db down")

	result := f.svc.VerifyIDAndGrant(context.Background(), "KA01AB1234", "RVCE22CS001", "RVCE22CS001")

	assert.Equal(t, domain.GateError, result.Status)
	// Chỗ vừa chiếm phải được hoàn lại: không có phiên thì không giữ chỗ
	_, err := f.txns.FindOpenByPlate(context.Background(), "KA01AB1234")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	spot, err := f.spots.FindByLotAndNumber(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.SpotAvailable, spot.Status)

	// DB phục hồi thì xe vào lại bình thường, vẫn chỗ #2
	f.txns.createErr = nil
	retry := f.svc.VerifyIDAndGrant(context.Background(), "KA01AB1234", "RVCE22CS001", "RVCE22CS001")
	assert.Equal(t, domain.GateAllowed, retry.Status)
	assert.Equal(t, 2, retry.Spot)
}

func TestExitCloseFailureKeepsSpotOccupied(t *testing.T) {
	f := newGateFixture()
	entry := f.svc.VerifyIDAndGrant(context.Background(), "KA01AB1234", "RVCE22CS001", "RVCE22CS001")
	require.Equal(t, domain.GateAllowed, entry.Status)
	f.txns.closeErr = errors.New("db down")

	result := f.svc.ScanExitID(context.Background(), "KA01AB1234")

	assert.Equal(t, domain.GateError, result.Status)
	// Phiên vẫn mở thì chỗ phải vẫn occupied — không mở cửa cho xe khác
	_, err := f.txns.FindOpenByPlate(context.Background(), "KA01AB1234")
	require.NoError(t, err)
	spot, err := f.spots.FindByLotAndNumber(context.Background(), 1, entry.Spot)
	require.NoError(t, err)
	assert.Equal(t, domain.SpotOccupied, spot.Status)
	assert.Empty(t, f.mail.receiptEmails)

	// DB phục hồi thì lần quét ra sau thành công
	f.txns.closeErr = nil
	retry := f.svc.ScanExitID(context.Background(), "KA01AB1234")
	assert.Equal(t, domain.GateAllowed, retry.Status)
}

func TestGateEmailFailureDoesNotBlock(t *testing.T) {
	f := newGateFixture()
	f.mail.sendErr = errors.New("smtp down")

	result := f.svc.VerifyIDAndGrant(context.Background(), "KA01AB1234", "RVCE22CS001", "RVCE22CS001")

	assert.Equal(t, domain.GateAllowed, result.Status)
	_, err := f.txns.FindOpenByPlate(context.Background(), "KA01AB1234")
	assert.NoError(t, err, "lỗi gửi mail không được hủy phiên đã ghi")
}

// entryLotID tra lot id từ tên bãi trong kết quả vào cổng gần nhất.
func entryLotID(t *testing.T, f *gateFixture) int {
	t.Helper()
	for _, lot := range f.lots.lots {
		// Toàn bộ fixture chỉ cho vào bãi 1 trong kịch bản này
		if lot.Location == "CSE Ground" {
			return lot.ID
		}
	}
	t.Fatal("không tìm thấy bãi")
	return 0
}
