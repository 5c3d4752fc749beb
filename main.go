package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsgo_config "github.com/aws/aws-sdk-go-v2/config" // Alias để tránh trùng tên
	"github.com/aws/aws-sdk-go-v2/service/rekognition"

	"campus_parking/internal/api"
	"campus_parking/internal/api/handler"
	"campus_parking/internal/api/middleware"
	"campus_parking/internal/camera"
	"campus_parking/internal/config"
	"campus_parking/internal/mailer"
	"campus_parking/internal/ocr"
	"campus_parking/internal/pendingqueue"
	"campus_parking/internal/repository/postgresql"
	"campus_parking/internal/roster"
	"campus_parking/internal/service"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Cấu hình đã được tải.")

	// 2. Setup Database Connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("Không thể kết nối database: %v", err)
	}
	defer db.Close()
	log.Println("Đã kết nối database thành công!")

	// 3. Khởi tạo AWS SDK Config + Rekognition client cho OCR
	awsSDKCfg, err := awsgo_config.LoadDefaultConfig(context.TODO(), awsgo_config.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Không thể tải AWS SDK config: %v", err)
	}
	log.Println("Đã tải AWS SDK config thành công cho region:", cfg.AWSRegion)

	rekognitionClient := rekognition.NewFromConfig(awsSDKCfg)
	ocrEngine := ocr.NewRekognitionEngine(rekognitionClient)

	// 4. Camera của ba trạm: biển số vào, thẻ sinh viên, cổng ra
	entryPlateCam := camera.NewHTTPClient("entry_plate", cfg.CameraEntryPlateURL)
	entryIDCam := camera.NewHTTPClient("entry_id", cfg.CameraEntryIDURL)
	exitCam := camera.NewHTTPClient("exit", cfg.CameraExitURL)

	// 5. Danh sách chính thức của trường + hàng đợi xe chờ duyệt + SMTP
	campusRoster := roster.Load(cfg.StudentListFile, cfg.FacultyListFile)
	pendingQueue := pendingqueue.NewFileStore(cfg.PendingQueueFile)
	mailSender := mailer.NewSMTPSender(cfg)

	// 6. Initialize Repositories
	userRepo := postgresql.NewPgUserRepository(db)
	vehicleRepo := postgresql.NewPgVehicleRepository(db)
	parkingLotRepo := postgresql.NewPgParkingLotRepository(db)
	parkingSpotRepo := postgresql.NewPgParkingSpotRepository(db)
	transactionRepo := postgresql.NewPgTransactionRepository(db)
	supportMessageRepo := postgresql.NewPgSupportMessageRepository(db)

	// init websocket manager cho console trực cổng
	webSocketManager := handler.NewWebSocketManager()
	go webSocketManager.Start()
	log.Println("WebSocket Manager đã được khởi động.")

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, campusRoster, cfg.JWTSecret, cfg.JWTExpirationHours)
	gateService := service.NewGateService(vehicleRepo, userRepo, parkingLotRepo, parkingSpotRepo,
		transactionRepo, ocrEngine, entryPlateCam, entryIDCam, exitCam, mailSender, webSocketManager)
	parkingService := service.NewParkingService(parkingLotRepo, parkingSpotRepo, transactionRepo,
		vehicleRepo, userRepo)
	vehicleService := service.NewVehicleService(vehicleRepo, userRepo, pendingQueue)
	userService := service.NewUserService(userRepo, vehicleRepo, parkingLotRepo, transactionRepo, pendingQueue)
	supportService := service.NewSupportService(supportMessageRepo, mailSender)

	// 8. Initialize Auth Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// 9. Setup HTTP Router
	router := api.SetupRouter(authService, gateService, parkingService, vehicleService,
		userService, supportService, authMiddleware, webSocketManager)

	// 10. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server đang chạy trên port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Lỗi ListenAndServe(): %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Đang tắt server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server buộc phải tắt: %v", err)
	}

	log.Println("Server đã tắt.")
}
