package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
	"campus_parking/internal/roster"
)

var ErrInvalidCredentials = errors.New("email hoặc mật khẩu không đúng")
var ErrTokenInvalid = errors.New("token không hợp lệ hoặc đã hết hạn")

const campusEmailSuffix = "@rvce.edu.in"

var (
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	usnPattern   = regexp.MustCompile(`^RVCE\d{2}[A-Z]{2,3}\d{3}$`)
)

// AuthService xử lý đăng ký (đối chiếu hồ sơ chính thức), đăng nhập và
// phát hành JWT.
type AuthService struct {
	userRepo           repository.UserRepository
	roster             *roster.Roster
	jwtSecret          string
	jwtExpirationHours time.Duration
}

func NewAuthService(userRepo repository.UserRepository, r *roster.Roster, jwtSecret string, jwtExpHours time.Duration) *AuthService {
	return &AuthService{
		userRepo:           userRepo,
		roster:             r,
		jwtSecret:          jwtSecret,
		jwtExpirationHours: jwtExpHours,
	}
}

// Register kiểm tra định dạng, đối chiếu danh sách chính thức, gán thứ tự
// ưu tiên mặc định theo khoa rồi tạo tài khoản và trả về token luôn.
func (s *AuthService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.AuthResponseDTO, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	dto.Phone = strings.TrimSpace(dto.Phone)
	dto.USN = strings.ToUpper(strings.TrimSpace(dto.USN))
	if dto.Role == "" {
		dto.Role = string(domain.RoleStudent)
	}

	if err := validateRegistration(dto); err != nil {
		return nil, err
	}

	if dto.Role == string(domain.RoleStudent) || dto.Role == string(domain.RoleFaculty) {
		if err := s.roster.VerifyIdentity(dto.Name, dto.Email, dto.Department, dto.Role); err != nil {
			return nil, err
		}
	}

	existing, err := s.userRepo.FindByEmail(ctx, dto.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lỗi kiểm tra email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email đã được đăng ký")
	}
	if dto.Role == string(domain.RoleStudent) {
		existing, err := s.userRepo.FindByUSN(ctx, dto.USN)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lỗi kiểm tra mã thẻ: %w", err)
		}
		if existing != nil {
			return nil, fmt.Errorf("mã thẻ đã được đăng ký")
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("lỗi hash mật khẩu: %w", err)
	}

	usn := dto.USN
	if dto.Role != string(domain.RoleStudent) {
		usn = ""
	}
	user := &domain.User{
		Name:         dto.Name,
		Email:        dto.Email,
		Phone:        dto.Phone,
		USN:          usn,
		PasswordHash: string(hashed),
		Role:         domain.UserRole(dto.Role),
		Department:   dto.Department,
		Preferences:  roster.DefaultPreferences(dto.Department),
	}
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(created)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponseDTO{Token: token, UserID: created.ID, Name: created.Name, Role: created.Role}, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.AuthResponseDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(dto.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lỗi tìm người dùng: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponseDTO{Token: token, UserID: user.ID, Name: user.Name, Role: user.Role}, nil
}

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"exp":  now.Add(s.jwtExpirationHours).Unix(),
		"iat":  now.Unix(),
		"role": string(user.Role),
		"name": user.Name,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("lỗi tạo token: %w", err)
	}
	return signed, nil
}

// ValidateToken dùng cho middleware.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("phương thức ký không mong muốn: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token đã hết hạn", ErrTokenInvalid)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func validateRegistration(dto domain.RegisterUserDTO) error {
	if dto.Name == "" || dto.Email == "" || dto.Phone == "" || dto.Password == "" || dto.Department == "" {
		return fmt.Errorf("thiếu thông tin bắt buộc")
	}
	if !strings.HasSuffix(dto.Email, campusEmailSuffix) {
		return fmt.Errorf("email phải là địa chỉ chính thức (%s)", campusEmailSuffix)
	}
	if !phonePattern.MatchString(dto.Phone) {
		return fmt.Errorf("số điện thoại không hợp lệ")
	}
	if dto.Role == string(domain.RoleStudent) {
		if dto.USN == "" {
			return fmt.Errorf("sinh viên bắt buộc phải có mã thẻ (USN)")
		}
		if !usnPattern.MatchString(dto.USN) {
			return fmt.Errorf("mã thẻ không đúng định dạng")
		}
	}
	if err := validatePassword(dto.Password); err != nil {
		return err
	}
	return nil
}

// validatePassword: tối thiểu 8 ký tự trong bộ cho phép, có ít nhất một
// chữ số và một ký tự đặc biệt.
func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("mật khẩu phải từ 8 ký tự, có số và ký tự đặc biệt")
	}
	hasDigit := false
	hasSpecial := false
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune("!@#$%^&*", r):
			hasSpecial = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		default:
			return fmt.Errorf("mật khẩu chứa ký tự không được phép")
		}
	}
	if !hasDigit || !hasSpecial {
		return fmt.Errorf("mật khẩu phải từ 8 ký tự, có số và ký tự đặc biệt")
	}
	return nil
}
