// Package roster nạp danh sách sinh viên / giảng viên chính thức từ file CSV
// do phòng đào tạo xuất ra. File xuất tay nên tên cột không ổn định
// ("EMAIL" / "MAIL" / "EMAIL ID"...), loader phải chịu được các biến thể đó.
package roster

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strings"
)

type Record struct {
	Name   string
	Phone  string
	Branch string
	Role   string // "student" hoặc "faculty"
}

// deptMapping: mã khoa trên form so với mã viết tắt trong CSV.
var deptMapping = map[string]string{
	"ISE": "IS", "CSE": "CS", "ECE": "EC", "EEE": "EE",
	"MECH": "ME", "CIVIL": "CV", "AERO": "AS", "CHEM": "CH",
	"IEM": "IM", "EIE": "EI", "ETE": "ET",
}

type Roster struct {
	students map[string]Record
	faculty  map[string]Record
}

// Load đọc cả hai danh sách một lần lúc startup. File thiếu chỉ cảnh báo —
// đăng ký với vai trò tương ứng sẽ bị từ chối vì không tra được hồ sơ.
func Load(studentFile, facultyFile string) *Roster {
	return &Roster{
		students: loadCSV(studentFile, "student"),
		faculty:  loadCSV(facultyFile, "faculty"),
	}
}

func loadCSV(filename, role string) map[string]Record {
	data := make(map[string]Record)

	f, err := os.Open(filename)
	if err != nil {
		log.Printf("Cảnh báo: không mở được '%s': %v", filename, err)
		return data
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		log.Printf("Lỗi đọc header của '%s': %v", filename, err)
		return data
	}
	for i := range header {
		// Viết hoa + bỏ BOM để "mail" và "MAIL" như nhau
		header[i] = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF")))
	}
	log.Printf("Đang nạp %s... Các cột: %v", filename, header)

	for {
		row, err := reader.Read()
		if err != nil {
			break
		}
		record := rowMap(header, row)

		email := strings.ToLower(pickValue(record, "EMAIL", "MAIL", "EMAIL ID", "EMAIL_ID"))
		if email == "" {
			continue
		}
		branch := pickValue(record, "BRANCH", "DEPARTMENT", "DEPT")
		if branch == "" {
			branch = "UNKNOWN"
		}
		data[email] = Record{
			Name:   pickValue(record, "NAME", "FULL NAME", "STUDENT NAME", "FACULTY NAME"),
			Phone:  pickValue(record, "PHONE", "MOBILE", "CONTACT NO", "PHONE NUMBER"),
			Branch: branch,
			Role:   role,
		}
	}

	log.Printf("Đã nạp %d bản ghi từ %s", len(data), filename)
	return data
}

func rowMap(header, row []string) map[string]string {
	m := make(map[string]string, len(header))
	for i, key := range header {
		if i < len(row) {
			m[key] = strings.TrimSpace(row[i])
		}
	}
	return m
}

// pickValue thử lần lượt các tên cột có thể có, trả về giá trị đầu tiên
// khác rỗng.
func pickValue(record map[string]string, keys ...string) string {
	for _, key := range keys {
		if value, ok := record[key]; ok && value != "" {
			return value
		}
	}
	return ""
}

func (r *Roster) lookup(email, role string) (Record, bool) {
	list := r.students
	if role == "faculty" {
		list = r.faculty
	}
	record, ok := list[strings.ToLower(email)]
	return record, ok
}

// VerifyIdentity đối chiếu thông tin đăng ký với hồ sơ chính thức: email
// phải có trong danh sách, tên chứa nhau (một trong hai chiều), khoa khớp
// trực tiếp hoặc qua bảng mã viết tắt.
func (r *Roster) VerifyIdentity(name, email, dept, role string) error {
	record, ok := r.lookup(email, role)
	if !ok {
		log.Printf("Xác minh thất bại: %s không có trong danh sách %s", email, role)
		return fmt.Errorf("email không có trong hồ sơ %s chính thức", role)
	}

	nameLower := strings.ToLower(name)
	recordNameLower := strings.ToLower(record.Name)
	nameMatch := strings.Contains(recordNameLower, nameLower) || strings.Contains(nameLower, recordNameLower)

	deptMatch := dept == record.Branch
	if !deptMatch {
		// Form ghi "ISE" nhưng CSV ghi "IS"
		if code, ok := deptMapping[dept]; ok && code == record.Branch {
			deptMatch = true
		}
	}

	if !nameMatch || !deptMatch {
		log.Printf("Hồ sơ không khớp cho %s: form[%s, %s] vs CSV[%s, %s]", email, name, dept, record.Name, record.Branch)
		return fmt.Errorf("thông tin không khớp với hồ sơ chính thức")
	}
	return nil
}

// DefaultPreferences gán thứ tự ưu tiên bãi đỗ mặc định theo khoa — khoa
// nào gần bãi nào thì bãi đó đứng đầu.
func DefaultPreferences(dept string) string {
	switch strings.ToUpper(dept) {
	case "CSE", "ISE", "AIML", "CS", "IS":
		return "1,2,3,5,4"
	case "ECE", "EEE", "ETE", "EC", "EE", "ET":
		return "1,3,4,5,2"
	case "MECH", "CIVIL", "AERO", "IEM", "ME", "CV", "AS", "IM":
		return "5,4,1,3,2"
	default:
		return "4,5,1,2,3"
	}
}
