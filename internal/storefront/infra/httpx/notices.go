package httpx

import (
	"context"
	"net/http"
	"sync"

	"github.com/phonehub/storefront/internal/storefront/core/ports"
)

// Notice is one transient notification produced while handling a request —
// the toast equivalent. The UI shows these briefly and dismisses them.
type Notice struct {
	Level   string `json:"level"` // "success" or "error"
	Message string `json:"message"`
}

// noticeBoard collects the notices emitted during one request.
type noticeBoard struct {
	mu      sync.Mutex
	notices []Notice
}

func (b *noticeBoard) add(level, message string) {
	if message == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, Notice{Level: level, Message: message})
}

func (b *noticeBoard) list() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

type noticesCtxKey struct{}

// CollectNotices attaches a fresh notice board to every request context.
func CollectNotices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), noticesCtxKey{}, &noticeBoard{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func boardFrom(ctx context.Context) *noticeBoard {
	b, _ := ctx.Value(noticesCtxKey{}).(*noticeBoard)
	return b
}

// Ensure ContextNotifier implements the port at compile time.
var _ ports.Notifier = ContextNotifier{}

// ContextNotifier routes controller/flow notifications onto the request's
// notice board. Without a board in the context the notification is dropped,
// never failed.
type ContextNotifier struct{}

func (ContextNotifier) Success(ctx context.Context, message string) {
	if b := boardFrom(ctx); b != nil {
		b.add("success", message)
	}
}

func (ContextNotifier) Error(ctx context.Context, message string) {
	if b := boardFrom(ctx); b != nil {
		b.add("error", message)
	}
}
