// Package match chứa logic so khớp mờ giữa soup OCR và danh bạ biển số /
// mã thẻ. Các ngưỡng 0.65 và 0.45 được tinh chỉnh theo bảng chuẩn hóa bên
// dưới — thay đổi một trong hai phải cân chỉnh lại cả hai.
package match

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	// PlateAcceptThreshold: điểm tối thiểu để chấp nhận một biển số khớp mờ.
	PlateAcceptThreshold = 0.65
	// IdentityAcceptThreshold: điểm phải VƯỢT QUA (>) khi xác nhận mã thẻ.
	IdentityAcceptThreshold = 0.45
)

// confusionPairs ánh xạ các ký tự OCR hay nhầm lẫn về dạng chuẩn.
// Ánh xạ nhiều-về-một, có mất mát, áp dụng theo đúng thứ tự này cho cả soup
// lẫn biển số trước khi so sánh.
var confusionPairs = [][2]string{
	{"S", "5"}, {"Z", "2"}, {"I", "1"},
	{"O", "0"}, {"B", "8"}, {"D", "0"},
	{"G", "6"}, {"Q", "0"}, {"U", "0"},
}

func NormalizeConfusions(text string) string {
	for _, pair := range confusionPairs {
		text = strings.ReplaceAll(text, pair[0], pair[1])
	}
	return text
}

// Ratio tính độ tương đồng [0,1] giữa hai chuỗi theo thuật toán
// longest-matching-blocks (SequenceMatcher), so sánh từng ký tự.
func Ratio(a, b string) float64 {
	matcher := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return matcher.Ratio()
}

// BestPlate quét soup trên toàn bộ danh bạ biển số và trả về biển số khớp
// nhất cùng điểm của nó:
//  1. Biển số xuất hiện nguyên văn trong soup => trả về ngay với điểm 1.0.
//  2. Ngược lại chuẩn hóa cả hai phía rồi trượt cửa sổ dài n và n-1 trên
//     soup đã chuẩn hóa; chỉ chấm các cửa sổ dài hơn 60% độ dài biển số,
//     giữ điểm cao nhất cho mỗi ứng viên.
//
// Hòa điểm: ứng viên đứng trước trong danh sách thắng (argmax ổn định).
// Người gọi tự áp ngưỡng PlateAcceptThreshold.
func BestPlate(soup string, plates []string) (string, float64) {
	// Cửa sổ trượt đếm theo ký tự, không theo byte — soup có thể lẫn ký tự
	// đa byte từ OCR và không được cắt giữa chừng một ký tự.
	soupRunes := []rune(NormalizeConfusions(soup))

	bestPlate := ""
	bestScore := 0.0

	for _, plate := range plates {
		plate = strings.ToUpper(plate)
		if plate == "" {
			continue
		}

		if strings.Contains(soup, plate) {
			return plate, 1.0
		}

		normPlate := NormalizeConfusions(plate)
		n := len([]rune(normPlate))

		maxPlateScore := 0.0
		for i := 0; i < len(soupRunes); i++ {
			chunk := runeWindow(soupRunes, i, n)
			if float64(len(chunk)) > float64(n)*0.6 {
				if score := Ratio(normPlate, string(chunk)); score > maxPlateScore {
					maxPlateScore = score
				}
			}
			if i+n-1 <= len(soupRunes) {
				chunkShort := runeWindow(soupRunes, i, n-1)
				if float64(len(chunkShort)) > float64(n)*0.6 {
					if score := Ratio(normPlate, string(chunkShort)); score > maxPlateScore {
						maxPlateScore = score
					}
				}
			}
		}

		if maxPlateScore > bestScore {
			bestScore = maxPlateScore
			bestPlate = plate
		}
	}

	return bestPlate, bestScore
}

// ConfirmIdentity xác nhận mã thẻ: chứa nguyên văn, hoặc độ tương đồng
// toàn chuỗi vượt ngưỡng (không trượt cửa sổ).
func ConfirmIdentity(expected, soup string) bool {
	if expected == "" {
		return false
	}
	if strings.Contains(soup, expected) {
		return true
	}
	return Ratio(expected, soup) > IdentityAcceptThreshold
}

func runeWindow(s []rune, start, length int) []rune {
	if start >= len(s) || length <= 0 {
		return nil
	}
	end := start + length
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}
