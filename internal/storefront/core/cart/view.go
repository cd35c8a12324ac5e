package cart

import (
	"sync"

	"github.com/phonehub/storefront/internal/storefront/core/domain/entity"
)

// viewCache remembers the last server-returned cart per user. It backs the
// decrease-at-quantity-1 guard, which must be evaluated against what the user
// currently sees. It is not a cart cache: reads always go to the remote store
// and every successful mutation overwrites the entry with the server record.
type viewCache struct {
	mu    sync.RWMutex
	carts map[string]*entity.Cart
}

func newViewCache() *viewCache {
	return &viewCache{carts: make(map[string]*entity.Cart)}
}

func (v *viewCache) put(email string, c *entity.Cart) {
	if c == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.carts[email] = c
}

func (v *viewCache) get(email string) (*entity.Cart, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c, ok := v.carts[email]
	return c, ok
}

// drop invalidates the view after a failed fetch, so guards do not run
// against a cart that may no longer match server state.
func (v *viewCache) drop(email string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.carts, email)
}
