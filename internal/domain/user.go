package domain

import "time"

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleFaculty UserRole = "faculty"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	USN          string    `json:"usn,omitempty"` // Mã thẻ sinh viên, rỗng với giảng viên/admin
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Department   string    `json:"department"`
	// Thứ tự ưu tiên bãi đỗ, chuỗi CSV các lot id, ví dụ "3,1,2".
	// ID trùng lặp hoặc không tồn tại sẽ bị bỏ qua khi sắp xếp.
	Preferences string    `json:"preferences"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RegisterUserDTO struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	USN        string `json:"usn"`
	Password   string `json:"password" binding:"required"`
	Role       string `json:"role"`
	Department string `json:"department" binding:"required"`
}

type LoginUserDTO struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponseDTO struct {
	Token  string   `json:"token"`
	UserID int      `json:"user_id"`
	Name   string   `json:"name"`
	Role   UserRole `json:"role"`
}

type UpdatePreferencesDTO struct {
	Order []int `json:"order" binding:"required"`
}
