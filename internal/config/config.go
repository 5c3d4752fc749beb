package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	AWSRegion string

	// URL gốc của các camera (ảnh lấy tại {base}/shot.jpg).
	// Khi demo có thể trỏ cả 3 về cùng một điện thoại.
	CameraEntryPlateURL string
	CameraEntryIDURL    string
	CameraExitURL       string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	StudentListFile  string // Danh sách sinh viên chính thức (CSV)
	FacultyListFile  string // Danh sách giảng viên chính thức (CSV)
	PendingQueueFile string // Hàng đợi xe chờ duyệt (JSON)

	JWTSecret          string
	JWTExpirationHours time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Cảnh báo: Không thể tải file .env: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "youruser"),
		DBPassword: getEnv("DB_PASSWORD", "yourpassword"),
		DBName:     getEnv("DB_NAME", "campus_parking_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		AWSRegion: getEnv("AWS_REGION", "ap-southeast-1"),

		CameraEntryPlateURL: getEnv("CAMERA_ENTRY_PLATE_URL", "http://192.168.29.88:8080"),
		CameraEntryIDURL:    getEnv("CAMERA_ENTRY_ID_URL", "http://192.168.29.88:8080"),
		CameraExitURL:       getEnv("CAMERA_EXIT_URL", "http://192.168.29.88:8080"),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     smtpPort,
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", "parking@rvce.edu.in"),

		StudentListFile:  getEnv("STUDENT_LIST_FILE", "STUDENT LIST.CSV"),
		FacultyListFile:  getEnv("FACULTY_LIST_FILE", "FACULTY LIST.CSV"),
		PendingQueueFile: getEnv("PENDING_QUEUE_FILE", "pending_vehicles.json"),

		JWTSecret:          getEnv("JWT_SECRET", "your-very-secret-key-for-jwt-!@#$"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Biến môi trường '%s' không được đặt, sử dụng giá trị mặc định: '%s'", key, fallback)
	return fallback
}
