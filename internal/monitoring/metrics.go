// Package monitoring khai báo các metric Prometheus của hệ thống,
// expose tại /metrics.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GateDecisions đếm kết quả từng bước tại cổng.
	// action: entry_plate | entry_id | exit; status: allowed | denied |
	// step1_success | error.
	GateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_gate_decisions_total",
		Help: "Số quyết định tại cổng, phân theo bước và kết quả.",
	}, []string{"action", "status"})

	// OCRScans đếm các lượt đọc camera, phân theo kết quả có soup hay không.
	OCRScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_ocr_scans_total",
		Help: "Số lượt quét OCR, phân theo kết quả.",
	}, []string{"result"}) // "text_found" | "empty" | "camera_error"

	// PlateMatchScore ghi phân phối điểm so khớp biển số.
	PlateMatchScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parking_plate_match_score",
		Help:    "Điểm so khớp biển số tốt nhất của mỗi lượt quét.",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})

	// OccupiedSpots: số chỗ đang bị chiếm theo bãi, cập nhật mỗi lần vào/ra.
	OccupiedSpots = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "parking_occupied_spots",
		Help: "Số chỗ đang bị chiếm trong từng bãi.",
	}, []string{"lot"})

	// EmailsSent đếm email đã gửi, phân theo loại và kết quả.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_emails_sent_total",
		Help: "Số email thông báo đã gửi.",
	}, []string{"kind", "result"}) // kind: entry | receipt | support_reply
)
