package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// Ngưỡng nhị phân hóa cố định — cùng giá trị cho mọi camera, đừng chỉnh
// theo từng cổng vì điểm so khớp phía sau đã cân theo soup sinh ra từ đây.
const binaryThreshold = 80

// TextDetector là phần API Rekognition mà engine cần, tách interface để
// test không cần AWS.
type TextDetector interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

type RekognitionEngine struct {
	client TextDetector
}

func NewRekognitionEngine(client TextDetector) *RekognitionEngine {
	return &RekognitionEngine{client: client}
}

// ReadSoup chạy nhận dạng độc lập trên hai bản dẫn xuất của khung ảnh
// (grayscale và nhị phân ngưỡng cố định) rồi nối toàn bộ mảnh văn bản của
// cả hai lượt. Không đảm bảo thứ tự giữa hai lượt.
func (e *RekognitionEngine) ReadSoup(ctx context.Context, imageBytes []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return "", fmt.Errorf("lỗi giải mã ảnh: %w", err)
	}

	gray := toGrayscale(img)
	binary := toBinary(gray)

	var fragments []string
	fragments = append(fragments, e.detectFragments(ctx, binary)...)
	fragments = append(fragments, e.detectFragments(ctx, gray)...)

	soup := normalizeSoup(strings.Join(fragments, ""))
	log.Printf("OCR: soup = %q (%d mảnh)", soup, len(fragments))
	return soup, nil
}

// detectFragments gọi DetectText trên một bản ảnh. Lỗi nhận dạng chỉ log —
// lượt còn lại vẫn có thể đóng góp mảnh văn bản.
func (e *RekognitionEngine) detectFragments(ctx context.Context, img *image.Gray) []string {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		log.Printf("OCR: lỗi encode ảnh dẫn xuất: %v", err)
		return nil
	}

	result, err := e.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: buf.Bytes()},
	})
	if err != nil {
		log.Printf("OCR: lỗi Rekognition DetectText: %v", err)
		return nil
	}

	var fragments []string
	for _, detection := range result.TextDetections {
		// Chỉ lấy LINE để không đếm trùng các WORD con của nó
		if detection.Type != types.TextTypesLine {
			continue
		}
		if detection.DetectedText != nil && *detection.DetectedText != "" {
			fragments = append(fragments, *detection.DetectedText)
		}
	}
	return fragments
}

func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

func toBinary(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	binary := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y > binaryThreshold {
				binary.SetGray(x, y, color.Gray{Y: 255})
			} else {
				binary.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return binary
}

var soupReplacer = strings.NewReplacer(" ", "", "-", "", ".", "", "_", "", ";", "", ":", "")

func normalizeSoup(raw string) string {
	return soupReplacer.Replace(strings.ToUpper(raw))
}
