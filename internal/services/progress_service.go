// internal/services/progress_service.go
package services

import (
	"sync"
	"time"
)

// ProgressEvent 操作进度事件，通过WebSocket推送给页面
type ProgressEvent struct {
	Stage     string    `json:"stage"` // generate / export / portrait
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressService 进度事件的发布/订阅中心
type ProgressService struct {
	mu          sync.RWMutex
	subscribers map[chan ProgressEvent]struct{}
}

// NewProgressService 创建进度服务
func NewProgressService() *ProgressService {
	return &ProgressService{
		subscribers: make(map[chan ProgressEvent]struct{}),
	}
}

// Subscribe 订阅进度事件，调用方负责Unsubscribe
func (s *ProgressService) Subscribe() chan ProgressEvent {
	ch := make(chan ProgressEvent, 16)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[ch] = struct{}{}

	return ch
}

// Unsubscribe 取消订阅并关闭通道
func (s *ProgressService) Unsubscribe(ch chan ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscribers[ch]; exists {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Publish 广播进度事件，订阅者阻塞时直接丢弃
func (s *ProgressService) Publish(stage, message string) {
	event := ProgressEvent{
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
