package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"campus_parking/internal/camera"
	"campus_parking/internal/domain"
	"campus_parking/internal/mailer"
	"campus_parking/internal/match"
	"campus_parking/internal/monitoring"
	"campus_parking/internal/ocr"
	"campus_parking/internal/repository"
)

// GateBroadcaster đẩy quyết định tại cổng tới màn hình console trực cổng.
type GateBroadcaster interface {
	BroadcastGateEvent(event domain.GateConsoleEvent)
}

// GateService điều phối quy trình vào/ra cổng: chụp ảnh, đọc soup OCR,
// so khớp mờ với danh bạ, cấp chỗ theo thứ tự ưu tiên và ghi phiên đỗ xe.
// Mọi nhánh đều trả GateResult — operator luôn quét lại hoặc nhập tay được.
type GateService struct {
	vehicleRepo repository.VehicleRepository
	userRepo    repository.UserRepository
	lotRepo     repository.ParkingLotRepository
	spotRepo    repository.ParkingSpotRepository
	txnRepo     repository.TransactionRepository

	engine        ocr.Engine
	entryPlateCam camera.Client
	entryIDCam    camera.Client
	exitCam       camera.Client

	mail        mailer.Sender
	broadcaster GateBroadcaster

	// allocMu tuần tự hóa toàn bộ khâu tìm-chỗ-rồi-chiếm trong process.
	// Không có lock này, hai xe vào cùng lúc có thể được cấp cùng một chỗ
	// (đọc xong rồi mới ghi).
	allocMu sync.Mutex
}

func NewGateService(
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
	lotRepo repository.ParkingLotRepository,
	spotRepo repository.ParkingSpotRepository,
	txnRepo repository.TransactionRepository,
	engine ocr.Engine,
	entryPlateCam, entryIDCam, exitCam camera.Client,
	mail mailer.Sender,
	broadcaster GateBroadcaster,
) *GateService {
	return &GateService{
		vehicleRepo:   vehicleRepo,
		userRepo:      userRepo,
		lotRepo:       lotRepo,
		spotRepo:      spotRepo,
		txnRepo:       txnRepo,
		engine:        engine,
		entryPlateCam: entryPlateCam,
		entryIDCam:    entryIDCam,
		exitCam:       exitCam,
		mail:          mail,
		broadcaster:   broadcaster,
	}
}

// ScanPlateEntry là bước 1 của quy trình vào cổng: nhận diện biển số.
// Giảng viên được bỏ qua bước quét thẻ và cấp chỗ ngay; sinh viên nhận
// step1_success kèm mã thẻ cần xác minh ở bước 2.
func (s *GateService) ScanPlateEntry(ctx context.Context, manualPlate string) *domain.GateResult {
	result := s.scanPlateEntry(ctx, manualPlate)
	s.emit("entry_plate", result)
	return result
}

func (s *GateService) scanPlateEntry(ctx context.Context, manualPlate string) *domain.GateResult {
	soup, errResult := s.acquireSoup(ctx, s.entryPlateCam, manualPlate)
	if errResult != nil {
		return errResult
	}

	vehicle, score, errResult := s.matchVehicle(ctx, soup)
	if errResult != nil {
		return errResult
	}
	monitoring.PlateMatchScore.Observe(score)
	if vehicle == nil || score < match.PlateAcceptThreshold {
		return &domain.GateResult{
			Status:   domain.GateDenied,
			Msg:      "No Plate Found",
			DebugOCR: soup,
			Reason:   domain.ReasonNoPlateFound,
		}
	}

	openTxn, err := s.txnRepo.FindOpenByPlate(ctx, vehicle.LicensePlate)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return s.systemError("lỗi kiểm tra phiên đang mở", err)
	}
	if openTxn != nil {
		return &domain.GateResult{
			Status: domain.GateDenied,
			Msg:    "Vehicle Already Inside!",
			Plate:  vehicle.LicensePlate,
			Reason: domain.ReasonAlreadyInside,
		}
	}

	owner, err := s.userRepo.FindByID(ctx, vehicle.UserID)
	if err != nil {
		return s.systemError("lỗi tìm chủ xe", err)
	}

	if owner.Role == domain.RoleFaculty {
		log.Printf("Giảng viên %s: bỏ qua bước quét thẻ", owner.Name)
		lot, spot, err := s.allocateSpot(ctx, owner)
		if err != nil {
			return s.systemError("lỗi cấp chỗ đỗ", err)
		}
		if spot == nil {
			return &domain.GateResult{Status: domain.GateDenied, Msg: "Campus Full", Reason: domain.ReasonCampusFull}
		}
		if err := s.openTransaction(ctx, vehicle.LicensePlate, lot, spot); err != nil {
			return s.systemError("lỗi ghi phiên đỗ xe", err)
		}
		s.sendEntryEmail(owner, lot, spot.SpotNumber)
		return &domain.GateResult{
			Status:    domain.GateAllowed,
			Msg:       fmt.Sprintf("Welcome Faculty %s!", owner.Name),
			Plate:     vehicle.LicensePlate,
			OwnerName: owner.Name,
			Lot:       lot.Location,
			Spot:      spot.SpotNumber,
		}
	}

	return &domain.GateResult{
		Status:      domain.GateStep1Success,
		Msg:         "Verified. Scan ID.",
		Plate:       vehicle.LicensePlate,
		OwnerName:   owner.Name,
		ExpectedUSN: owner.USN,
	}
}

// VerifyIDAndGrant là bước 2: xác minh thẻ sinh viên rồi cấp chỗ.
func (s *GateService) VerifyIDAndGrant(ctx context.Context, plate, expectedUSN, manualID string) *domain.GateResult {
	result := s.verifyIDAndGrant(ctx, plate, expectedUSN, manualID)
	s.emit("entry_id", result)
	return result
}

func (s *GateService) verifyIDAndGrant(ctx context.Context, plate, expectedUSN, manualID string) *domain.GateResult {
	soup, errResult := s.acquireSoup(ctx, s.entryIDCam, manualID)
	if errResult != nil {
		return errResult
	}

	if !match.ConfirmIdentity(expectedUSN, soup) {
		return &domain.GateResult{
			Status:      domain.GateDenied,
			Msg:         fmt.Sprintf("ID Mismatch (Expected %s)", expectedUSN),
			ExpectedUSN: expectedUSN,
			DebugOCR:    soup,
			Reason:      domain.ReasonIDMismatch,
		}
	}

	vehicle, err := s.vehicleRepo.FindByPlate(ctx, plate)
	if err != nil {
		return s.systemError("lỗi tìm xe theo biển số", err)
	}
	owner, err := s.userRepo.FindByID(ctx, vehicle.UserID)
	if err != nil {
		return s.systemError("lỗi tìm chủ xe", err)
	}

	lot, spot, err := s.allocateSpot(ctx, owner)
	if err != nil {
		return s.systemError("lỗi cấp chỗ đỗ", err)
	}
	if spot == nil {
		return &domain.GateResult{Status: domain.GateDenied, Msg: "Campus Full", Reason: domain.ReasonCampusFull}
	}
	if err := s.openTransaction(ctx, vehicle.LicensePlate, lot, spot); err != nil {
		return s.systemError("lỗi ghi phiên đỗ xe", err)
	}
	s.sendEntryEmail(owner, lot, spot.SpotNumber)

	return &domain.GateResult{
		Status:    domain.GateAllowed,
		Plate:     vehicle.LicensePlate,
		OwnerName: owner.Name,
		Lot:       lot.Location,
		Spot:      spot.SpotNumber,
	}
}

// ScanExitID xử lý xe ra cổng: nhận diện biển số, đóng phiên, trả chỗ,
// gửi biên nhận.
func (s *GateService) ScanExitID(ctx context.Context, manualID string) *domain.GateResult {
	result := s.scanExitID(ctx, manualID)
	s.emit("exit", result)
	return result
}

func (s *GateService) scanExitID(ctx context.Context, manualID string) *domain.GateResult {
	soup, errResult := s.acquireSoup(ctx, s.exitCam, manualID)
	if errResult != nil {
		return errResult
	}

	vehicle, score, errResult := s.matchVehicle(ctx, soup)
	if errResult != nil {
		return errResult
	}
	monitoring.PlateMatchScore.Observe(score)
	if vehicle == nil || score < match.PlateAcceptThreshold {
		return &domain.GateResult{
			Status:   domain.GateDenied,
			Msg:      "No Plate Found",
			DebugOCR: soup,
			Reason:   domain.ReasonNoPlateFound,
		}
	}

	openTxn, err := s.txnRepo.FindOpenByPlate(ctx, vehicle.LicensePlate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.GateResult{
				Status: domain.GateDenied,
				Msg:    fmt.Sprintf("Vehicle %s not inside.", vehicle.LicensePlate),
				Plate:  vehicle.LicensePlate,
				Reason: domain.ReasonNotInside,
			}
		}
		return s.systemError("lỗi tìm phiên đang mở", err)
	}

	owner, err := s.userRepo.FindByID(ctx, vehicle.UserID)
	if err != nil {
		return s.systemError("lỗi tìm chủ xe", err)
	}

	// Trả chỗ trước rồi mới đóng phiên; đóng phiên thất bại thì chiếm lại
	// chỗ — không bao giờ để lại chỗ occupied mà không có phiên đang mở.
	exitTime := time.Now().UTC()
	spotFreed := false
	spot, err := s.spotRepo.FindByLotAndNumber(ctx, openTxn.LotID, openTxn.SpotNumber)
	if err != nil {
		log.Printf("Không tìm thấy chỗ %d của bãi %d khi xe ra: %v", openTxn.SpotNumber, openTxn.LotID, err)
	} else if err := s.spotRepo.UpdateStatus(ctx, spot.ID, domain.SpotAvailable); err != nil {
		log.Printf("Lỗi trả chỗ %d của bãi %d: %v", openTxn.SpotNumber, openTxn.LotID, err)
	} else {
		spotFreed = true
		monitoring.OccupiedSpots.WithLabelValues(fmt.Sprintf("%d", openTxn.LotID)).Dec()
	}

	if err := s.txnRepo.Close(ctx, openTxn.ID, exitTime); err != nil {
		if spotFreed {
			if revertErr := s.spotRepo.UpdateStatus(ctx, spot.ID, domain.SpotOccupied); revertErr != nil {
				log.Printf("Không chiếm lại được chỗ %d sau lỗi đóng phiên: %v", spot.ID, revertErr)
			} else {
				monitoring.OccupiedSpots.WithLabelValues(fmt.Sprintf("%d", openTxn.LotID)).Inc()
			}
		}
		return s.systemError("lỗi đóng phiên đỗ xe", err)
	}

	s.sendExitEmail(owner, openTxn, exitTime)

	return &domain.GateResult{
		Status: domain.GateAllowed,
		Msg:    fmt.Sprintf("Goodbye %s!", owner.Name),
		Plate:  openTxn.LicensePlate,
	}
}

// acquireSoup lấy soup từ chuỗi nhập tay (chỉ viết hoa) hoặc từ camera+OCR.
func (s *GateService) acquireSoup(ctx context.Context, cam camera.Client, manual string) (string, *domain.GateResult) {
	if manual != "" {
		return normalizeManual(manual), nil
	}

	frame, err := cam.Fetch(ctx)
	if err != nil {
		monitoring.OCRScans.WithLabelValues("camera_error").Inc()
		log.Printf("Lỗi lấy ảnh từ camera: %v", err)
		return "", &domain.GateResult{Status: domain.GateError, Msg: "Camera Unreachable", Reason: domain.ReasonCamera}
	}

	soup, err := s.engine.ReadSoup(ctx, frame)
	if err != nil {
		monitoring.OCRScans.WithLabelValues("camera_error").Inc()
		log.Printf("Lỗi đọc OCR: %v", err)
		return "", &domain.GateResult{Status: domain.GateError, Msg: "OCR Failed", Reason: domain.ReasonCamera}
	}
	if soup == "" {
		monitoring.OCRScans.WithLabelValues("empty").Inc()
	} else {
		monitoring.OCRScans.WithLabelValues("text_found").Inc()
	}
	return soup, nil
}

// matchVehicle quét soup trên toàn bộ danh bạ xe đã đăng ký.
func (s *GateService) matchVehicle(ctx context.Context, soup string) (*domain.Vehicle, float64, *domain.GateResult) {
	vehicles, err := s.vehicleRepo.FindAll(ctx)
	if err != nil {
		return nil, 0, s.systemError("lỗi tải danh bạ xe", err)
	}

	plates := make([]string, len(vehicles))
	byPlate := make(map[string]*domain.Vehicle, len(vehicles))
	for i := range vehicles {
		plates[i] = vehicles[i].LicensePlate
		byPlate[vehicles[i].LicensePlate] = &vehicles[i]
	}

	plate, score := match.BestPlate(soup, plates)
	return byPlate[plate], score, nil
}

// allocateSpot duyệt các bãi theo thứ tự ưu tiên của chủ xe và lấy chỗ
// trống đầu tiên; không phải giảng viên thì bỏ qua chỗ dành riêng.
// (nil, nil, nil) nghĩa là hết chỗ toàn trường.
func (s *GateService) allocateSpot(ctx context.Context, owner *domain.User) (*domain.ParkingLot, *domain.ParkingSpot, error) {
	s.allocMu.Lock()
	defer s.allocMu.Unlock()

	lots, err := preferenceSortedLots(ctx, s.lotRepo, owner.Preferences)
	if err != nil {
		return nil, nil, err
	}

	excludeReserved := owner.Role != domain.RoleFaculty
	for i := range lots {
		spot, err := s.spotRepo.FindFirstAvailable(ctx, lots[i].ID, excludeReserved)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, nil, err
		}
		return &lots[i], spot, nil
	}
	return nil, nil, nil
}

// openTransaction chiếm chỗ rồi ghi phiên. Hai bước ghi không chung một
// transaction SQL, nên bước sau hỏng phải hoàn lại bước trước: một chỗ
// occupied chỉ được tồn tại khi có phiên đang mở tương ứng.
func (s *GateService) openTransaction(ctx context.Context, plate string, lot *domain.ParkingLot, spot *domain.ParkingSpot) error {
	if err := s.spotRepo.UpdateStatus(ctx, spot.ID, domain.SpotOccupied); err != nil {
		return err
	}
	_, err := s.txnRepo.Create(ctx, &domain.ParkingTransaction{
		LicensePlate: plate,
		LotID:        lot.ID,
		SpotNumber:   spot.SpotNumber,
		EntryTime:    time.Now().UTC(),
	})
	if err != nil {
		if revertErr := s.spotRepo.UpdateStatus(ctx, spot.ID, domain.SpotAvailable); revertErr != nil {
			log.Printf("Không hoàn lại được trạng thái chỗ %d sau lỗi ghi phiên: %v", spot.ID, revertErr)
		}
		return err
	}
	monitoring.OccupiedSpots.WithLabelValues(fmt.Sprintf("%d", lot.ID)).Inc()
	return nil
}

func (s *GateService) sendEntryEmail(owner *domain.User, lot *domain.ParkingLot, spotNumber int) {
	if err := s.mail.SendEntryApproved(owner.Email, owner.Name, lot.Location, spotNumber); err != nil {
		monitoring.EmailsSent.WithLabelValues("entry", "error").Inc()
		log.Printf("Lỗi gửi email vào cổng tới %s: %v", owner.Email, err)
		return
	}
	monitoring.EmailsSent.WithLabelValues("entry", "ok").Inc()
}

func (s *GateService) sendExitEmail(owner *domain.User, txn *domain.ParkingTransaction, exitTime time.Time) {
	lotName := fmt.Sprintf("Lot %d", txn.LotID)
	if lot, err := s.lotRepo.FindByID(context.Background(), txn.LotID); err == nil {
		lotName = lot.Location
	}
	if err := s.mail.SendExitReceipt(owner.Email, owner.Name, txn.LicensePlate, lotName, txn.EntryTime, exitTime); err != nil {
		monitoring.EmailsSent.WithLabelValues("receipt", "error").Inc()
		log.Printf("Lỗi gửi biên nhận tới %s: %v", owner.Email, err)
		return
	}
	monitoring.EmailsSent.WithLabelValues("receipt", "ok").Inc()
}

// emit ghi metric và đẩy sự kiện lên console trực cổng cho mọi quyết định.
func (s *GateService) emit(action string, result *domain.GateResult) {
	monitoring.GateDecisions.WithLabelValues(action, string(result.Status)).Inc()
	if s.broadcaster != nil {
		s.broadcaster.BroadcastGateEvent(domain.GateConsoleEvent{
			Action:    action,
			Status:    result.Status,
			Plate:     result.Plate,
			Lot:       result.Lot,
			Spot:      result.Spot,
			Msg:       result.Msg,
			Timestamp: time.Now().UTC(),
		})
	}
}

func (s *GateService) systemError(msg string, err error) *domain.GateResult {
	log.Printf("GateService: %s: %v", msg, err)
	return &domain.GateResult{Status: domain.GateError, Msg: "System Error", Reason: domain.ReasonNone}
}
