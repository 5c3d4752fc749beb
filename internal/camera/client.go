// Package camera lấy khung ảnh tĩnh từ camera IP (app IP Webcam trên điện
// thoại hoặc camera cổng thật) qua endpoint {base}/shot.jpg.
package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCameraUnreachable: camera không phản hồi trong thời gian chờ. Trả về
// cho operator — không tự retry, operator quét lại hoặc nhập tay.
var ErrCameraUnreachable = errors.New("Camera Unreachable")

const fetchTimeout = 3 * time.Second

// Client là năng lực "chụp một khung ảnh" mà GateService cần.
type Client interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewHTTPClient tạo client cho một camera. Circuit breaker cắt nhanh các
// request khi camera chết hẳn, thay vì bắt mỗi lần quét chờ đủ 3 giây.
func NewHTTPClient(name, baseURL string) *HTTPClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "camera_" + name,
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Camera breaker '%s': %s -> %s", name, from, to)
		},
	})
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: fetchTimeout},
		breaker:    breaker,
	}
}

func (c *HTTPClient) Fetch(ctx context.Context) ([]byte, error) {
	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/shot.jpg", nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("camera trả về status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnreachable, err)
	}
	return body.([]byte), nil
}
