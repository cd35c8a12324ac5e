package cart

import (
	"errors"
	"sync"
)

// Operation names a cart mutation kind for busy-indicator purposes.
type Operation string

const (
	OpAdd      Operation = "add"
	OpIncrease Operation = "increase"
	OpDecrease Operation = "decrease"
	OpRemove   Operation = "remove"
	OpClear    Operation = "clear"
)

// ErrOperationInFlight is returned when a mutation is attempted for an item
// that already has one outstanding. Rejecting the second request avoids the
// lost-update race of two mutations for the same product resolving in
// arbitrary order.
var ErrOperationInFlight = errors.New("an operation for this item is already in progress")

// opKey identifies an in-flight operation by owner and product, never by list
// index, so it survives server-side reordering of the cart.
// Whole-cart operations (clear) use an empty product ID.
type opKey struct {
	email     string
	productID string
}

// pendingOps tracks in-flight operation keys: (email, product) → operation.
// Distinct items can mutate concurrently without interference; the same item
// admits one operation at a time.
type pendingOps struct {
	mu  sync.Mutex
	ops map[opKey]Operation
}

func newPendingOps() *pendingOps {
	return &pendingOps{ops: make(map[opKey]Operation)}
}

// begin registers an operation for (email, productID). It fails with
// ErrOperationInFlight when one is already registered.
func (p *pendingOps) begin(email, productID string, op Operation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := opKey{email: email, productID: productID}
	if _, busy := p.ops[key]; busy {
		return ErrOperationInFlight
	}
	p.ops[key] = op
	return nil
}

// end releases the operation slot. Safe to call for a key that is not
// registered.
func (p *pendingOps) end(email, productID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.ops, opKey{email: email, productID: productID})
}

// snapshot returns the in-flight operations for one user, keyed by product
// ID. The whole-cart slot appears under the empty key.
func (p *pendingOps) snapshot(email string) map[string]Operation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]Operation)
	for key, op := range p.ops {
		if key.email == email {
			out[key.productID] = op
		}
	}
	return out
}
