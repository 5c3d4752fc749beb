package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_parking/internal/domain"
	"campus_parking/internal/roster"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	dir := t.TempDir()
	studentPath := filepath.Join(dir, "students.csv")
	facultyPath := filepath.Join(dir, "faculty.csv")
	require.NoError(t, os.WriteFile(studentPath, []byte("NAME,EMAIL,BRANCH\nRahul Kumar,rahul@rvce.edu.in,IS\n"), 0644))
	require.NoError(t, os.WriteFile(facultyPath, []byte("FACULTY NAME,EMAIL ID,DEPT\nDr Meena,meena@rvce.edu.in,EC\n"), 0644))

	users := newFakeUserRepo()
	svc := NewAuthService(users, roster.Load(studentPath, facultyPath), "test-secret", 24*time.Hour)
	return svc, users
}

func validStudentDTO() domain.RegisterUserDTO {
	return domain.RegisterUserDTO{
		Name:       "Rahul Kumar",
		Email:      "rahul@rvce.edu.in",
		Phone:      "9876543210",
		USN:        "RVCE22CS001",
		Password:   "Parking@123",
		Role:       "student",
		Department: "ISE",
	}
}

func TestRegisterStudent(t *testing.T) {
	svc, users := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), validStudentDTO())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, domain.RoleStudent, resp.Role)

	created, err := users.FindByEmail(context.Background(), "rahul@rvce.edu.in")
	require.NoError(t, err)
	assert.NotEqual(t, "Parking@123", created.PasswordHash, "mật khẩu phải được hash")
	// Khoa ISE nhận thứ tự ưu tiên mặc định của nhóm CS
	assert.Equal(t, "1,2,3,5,4", created.Preferences)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthFixture(t)

	cases := []struct {
		name   string
		mutate func(*domain.RegisterUserDTO)
	}{
		{"email ngoài trường", func(d *domain.RegisterUserDTO) { d.Email = "rahul@gmail.com" }},
		{"số điện thoại sai", func(d *domain.RegisterUserDTO) { d.Phone = "12345" }},
		{"mã thẻ sai định dạng", func(d *domain.RegisterUserDTO) { d.USN = "ABC123" }},
		{"mật khẩu yếu", func(d *domain.RegisterUserDTO) { d.Password = "password" }},
		{"không có trong danh sách", func(d *domain.RegisterUserDTO) {
			d.Email = "stranger@rvce.edu.in"
		}},
		{"khoa không khớp hồ sơ", func(d *domain.RegisterUserDTO) { d.Department = "MECH" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dto := validStudentDTO()
			tc.mutate(&dto)
			_, err := svc.Register(context.Background(), dto)
			assert.Error(t, err)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)
	_, err := svc.Register(context.Background(), validStudentDTO())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validStudentDTO())
	assert.Error(t, err)
}

func TestRegisterFacultyHasNoUSN(t *testing.T) {
	svc, users := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), domain.RegisterUserDTO{
		Name:       "Dr Meena",
		Email:      "meena@rvce.edu.in",
		Phone:      "9123456780",
		USN:        "RVCE22CS999", // bị bỏ qua với giảng viên
		Password:   "Parking@123",
		Role:       "faculty",
		Department: "EC",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFaculty, resp.Role)

	created, err := users.FindByEmail(context.Background(), "meena@rvce.edu.in")
	require.NoError(t, err)
	assert.Empty(t, created.USN)
}

func TestLoginAndValidateToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	_, err := svc.Register(context.Background(), validStudentDTO())
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), domain.LoginUserDTO{Email: "rahul@rvce.edu.in", Password: "Parking@123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "student", claims["role"])
	assert.Equal(t, "1", claims["sub"])

	_, err = svc.Login(context.Background(), domain.LoginUserDTO{Email: "rahul@rvce.edu.in", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
