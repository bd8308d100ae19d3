package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Level grades how prominently a notice should be surfaced.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const (
	KindCartChanged       = "cart.changed"
	KindWishlistAdded     = "wishlist.added"
	KindWishlistDuplicate = "wishlist.duplicate"
	KindOrderPlaced       = "order.placed"
	KindOrderCancelled    = "order.cancelled"
	KindOrderStatus       = "order.status_changed"
	KindReviewSaved       = "review.saved"
)

// Notice is a short user-facing message produced by a domain operation.
type Notice struct {
	Kind    string         `json:"kind"`
	Level   Level          `json:"level"`
	Message string         `json:"message"`
	UserID  uuid.UUID      `json:"user_id"`
	Data    map[string]any `json:"data,omitempty"`
	At      time.Time      `json:"at"`
}

// Sink receives notices. Implementations must not block the caller for long
// and must be safe for concurrent use.
type Sink interface {
	Notify(ctx context.Context, notice Notice)
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(context.Context, Notice) {}

// LogSink writes notices as structured log lines.
type LogSink struct {
	logg *logger.Logger
}

func NewLogSink(logg *logger.Logger) *LogSink {
	return &LogSink{logg: logg}
}

func (s *LogSink) Notify(ctx context.Context, notice Notice) {
	if s == nil || s.logg == nil {
		return
	}
	fields := map[string]any{
		"notice_kind":  notice.Kind,
		"notice_level": string(notice.Level),
		"user_id":      notice.UserID.String(),
	}
	for k, v := range notice.Data {
		fields[k] = v
	}
	logCtx := s.logg.WithFields(ctx, fields)
	if notice.Level == LevelWarning || notice.Level == LevelError {
		s.logg.Warn(logCtx, notice.Message)
		return
	}
	s.logg.Info(logCtx, notice.Message)
}

// Recorder keeps notices in memory in arrival order.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(_ context.Context, notice Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Kinds lists recorded notice kinds.
func (r *Recorder) Kinds() []string {
	notices := r.Notices()
	kinds := make([]string, 0, len(notices))
	for _, n := range notices {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

// Reset drops recorded notices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.notices = nil
	r.mu.Unlock()
}

// Multi fans a notice out to every sink.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, notice Notice) {
	for _, sink := range m {
		if sink != nil {
			sink.Notify(ctx, notice)
		}
	}
}

// Emit stamps the notice and hands it to sink. A nil sink is a no-op.
func Emit(ctx context.Context, sink Sink, notice Notice) {
	if sink == nil {
		return
	}
	if notice.At.IsZero() {
		notice.At = time.Now().UTC()
	}
	if notice.Level == "" {
		notice.Level = LevelInfo
	}
	sink.Notify(ctx, notice)
}
