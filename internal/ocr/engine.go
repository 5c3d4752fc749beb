package ocr

import "context"

// Engine trích xuất "soup" văn bản từ một khung ảnh: toàn bộ mảnh văn bản
// nhận dạng được, nối lại, viết hoa, bỏ ký tự phân cách. Nhận dạng là
// best-effort — không mảnh nào cũng trả soup rỗng, không phải lỗi.
//
// Engine được khởi tạo một lần ở startup và inject vào GateService,
// không dùng trạng thái global, để test thay bằng fake được.
type Engine interface {
	ReadSoup(ctx context.Context, imageBytes []byte) (string, error)
}
