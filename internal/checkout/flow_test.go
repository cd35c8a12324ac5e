package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonehub/storefront/internal/checkout/attemptlog"
	"github.com/phonehub/storefront/internal/pkg/cache"
	"github.com/phonehub/storefront/internal/pkg/requestmeta"
	"github.com/phonehub/storefront/internal/storefront/core/domain/entity"
	"github.com/phonehub/storefront/internal/storefront/core/ports"
)

const buyer = "buyer@example.com"

// recorder captures the order in which the flow touches its collaborators,
// so ordering guarantees can be asserted.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

type stubGateway struct {
	rec *recorder

	receipt *ports.OrderReceipt
	err     error

	// onPlace, when set, runs inside PlaceOrder before it returns.
	onPlace func()

	placed    [][]entity.OrderItem
	verified  []string
	verifyOut *entity.Order
}

func (g *stubGateway) PlaceOrder(ctx context.Context, items []entity.OrderItem) (*ports.OrderReceipt, error) {
	if g.rec != nil {
		g.rec.add("place_order")
	}
	g.placed = append(g.placed, items)
	if g.onPlace != nil {
		g.onPlace()
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.receipt, nil
}

func (g *stubGateway) VerifyOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	g.verified = append(g.verified, orderID)
	if g.verifyOut == nil {
		return nil, errors.New("not found")
	}
	return g.verifyOut, nil
}

func (g *stubGateway) ListOrdersByEmail(ctx context.Context, email string) ([]entity.Order, error) {
	return nil, nil
}

type stubClearer struct {
	rec *recorder

	mu           sync.Mutex
	calls        int
	err          error
	delay        time.Duration
	ctxErrAtCall error
}

func (c *stubClearer) ClearCart(ctx context.Context, email string) (*entity.Cart, error) {
	if c.rec != nil {
		c.rec.add("clear_cart")
	}
	c.mu.Lock()
	c.calls++
	c.ctxErrAtCall = ctx.Err()
	c.mu.Unlock()
	if c.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.delay):
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return &entity.Cart{OwnerEmail: email}, nil
}

func (c *stubClearer) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type notifierSpy struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *notifierSpy) Success(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *notifierSpy) Error(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func twoLineCart() *entity.Cart {
	return &entity.Cart{
		OwnerEmail: buyer,
		Items: []entity.CartItem{
			{Product: entity.Product{ID: "p-1", Price: 100}, Quantity: 2},
			{Product: entity.Product{ID: "p-2", Price: 50}, Quantity: 1},
		},
	}
}

func TestCheckoutEmptyCartNeverHitsNetwork(t *testing.T) {
	gw := &stubGateway{}
	notifier := &notifierSpy{}
	flow := NewFlow(gw, &stubClearer{}, notifier)

	res, err := flow.Checkout(context.Background(), buyer, &entity.Cart{OwnerEmail: buyer})

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, res)
	assert.Empty(t, gw.placed, "no order request may leave the process")
	require.Len(t, notifier.errors, 1)
	assert.Equal(t, "Your cart is empty.", notifier.errors[0])
}

func TestCheckoutNilSnapshotTreatedAsEmpty(t *testing.T) {
	gw := &stubGateway{}
	flow := NewFlow(gw, &stubClearer{}, ports.NopNotifier{})

	_, err := flow.Checkout(context.Background(), buyer, nil)

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, gw.placed)
}

func TestCheckoutSubmitsStrippedItemPayload(t *testing.T) {
	gw := &stubGateway{receipt: &ports.OrderReceipt{
		Order:   &entity.Order{ID: "ord-1"},
		Message: "Order placed successfully",
	}}
	flow := NewFlow(gw, &stubClearer{}, ports.NopNotifier{})

	_, err := flow.Checkout(context.Background(), buyer, twoLineCart())
	require.NoError(t, err)

	require.Len(t, gw.placed, 1)
	assert.Equal(t, []entity.OrderItem{
		{ProductID: "p-1", Quantity: 2},
		{ProductID: "p-2", Quantity: 1},
	}, gw.placed[0], "only product references and quantities are submitted")
}

func TestCheckoutClearIssuedBeforeReturnWhenRedirecting(t *testing.T) {
	rec := &recorder{}
	gw := &stubGateway{rec: rec, receipt: &ports.OrderReceipt{
		Order:       &entity.Order{ID: "ord-1"},
		Message:     "Order placed successfully",
		RedirectURL: "https://pay.example.com/session/abc",
	}}
	clearer := &stubClearer{rec: rec}
	notifier := &notifierSpy{}
	flow := NewFlow(gw, clearer, notifier)

	res, err := flow.Checkout(context.Background(), buyer, twoLineCart())
	require.NoError(t, err)

	// By the time the redirect target is handed back the clear request has
	// already been issued.
	assert.Equal(t, []string{"place_order", "clear_cart"}, rec.list())
	assert.Equal(t, "https://pay.example.com/session/abc", res.RedirectURL)
	require.Len(t, notifier.successes, 1)
	assert.Equal(t, "Order placed successfully", notifier.successes[0])
}

func TestCheckoutNoRedirectSkipsClear(t *testing.T) {
	gw := &stubGateway{receipt: &ports.OrderReceipt{
		Order:   &entity.Order{ID: "ord-1"},
		Message: "Order placed successfully",
	}}
	clearer := &stubClearer{}
	flow := NewFlow(gw, clearer, ports.NopNotifier{})

	_, err := flow.Checkout(context.Background(), buyer, twoLineCart())
	require.NoError(t, err)
	assert.Zero(t, clearer.callCount())
}

func TestCheckoutFailureLeavesCartAndUsesGenericMessage(t *testing.T) {
	gw := &stubGateway{err: &ports.RemoteError{StatusCode: 500, Message: "insufficient funds"}}
	clearer := &stubClearer{}
	notifier := &notifierSpy{}
	log := attemptlog.NewMemoryRepository()
	flow := NewFlow(gw, clearer, notifier, WithAttemptLog(log))

	res, err := flow.Checkout(context.Background(), buyer, twoLineCart())

	require.Error(t, err)
	assert.Nil(t, res)
	assert.Zero(t, clearer.callCount(), "a failed attempt must not touch the cart")
	require.Len(t, notifier.errors, 1)
	assert.Equal(t, "Failed to place order. Please try again.", notifier.errors[0],
		"raw server detail stays out of the notification")

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, attemptlog.StatusSubmitting, entries[0].Status)
	assert.Equal(t, attemptlog.StatusFailed, entries[1].Status)
	assert.Contains(t, entries[1].ErrorMessage, "insufficient funds")
}

func TestCheckoutClearFailureDoesNotFailAttempt(t *testing.T) {
	gw := &stubGateway{receipt: &ports.OrderReceipt{
		Order:       &entity.Order{ID: "ord-1"},
		Message:     "Order placed successfully",
		RedirectURL: "https://pay.example.com/x",
	}}
	clearer := &stubClearer{err: errors.New("store down")}
	notifier := &notifierSpy{}
	log := attemptlog.NewMemoryRepository()
	flow := NewFlow(gw, clearer, notifier, WithAttemptLog(log))

	res, err := flow.Checkout(context.Background(), buyer, twoLineCart())

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/x", res.RedirectURL)
	assert.Empty(t, notifier.errors, "clear failure is silent toward the user")

	entries := log.Entries()
	last := entries[len(entries)-1]
	assert.Equal(t, attemptlog.StatusSucceeded, last.Status)

	var clearRow *attemptlog.Attempt
	for i := range entries {
		if entries[i].CurrentStep == "clear_cart" {
			clearRow = &entries[i]
		}
	}
	require.NotNil(t, clearRow)
	assert.Equal(t, "store down", clearRow.ErrorMessage)
}

func TestCheckoutClearIsBoundedByBudget(t *testing.T) {
	gw := &stubGateway{receipt: &ports.OrderReceipt{
		Order:       &entity.Order{ID: "ord-1"},
		Message:     "Order placed successfully",
		RedirectURL: "https://pay.example.com/x",
	}}
	clearer := &stubClearer{delay: time.Second}
	flow := NewFlow(gw, clearer, ports.NopNotifier{}, WithClearBudget(20*time.Millisecond))

	start := time.Now()
	_, err := flow.Checkout(context.Background(), buyer, twoLineCart())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond,
		"a slow clear must not hold the redirect hostage")
}

func TestCheckoutClearOutlivesCallerCancellation(t *testing.T) {
	gw := &stubGateway{receipt: &ports.OrderReceipt{
		Order:       &entity.Order{ID: "ord-1"},
		Message:     "Order placed successfully",
		RedirectURL: "https://pay.example.com/x",
	}}
	clearer := &stubClearer{}
	flow := NewFlow(gw, clearer, ports.NopNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// PlaceOrder ignores ctx in the stub; the point is that the clear still
	// runs on a detached context even when the inbound request is gone.
	_, err := flow.Checkout(ctx, buyer, twoLineCart())
	require.NoError(t, err)
	require.Equal(t, 1, clearer.callCount())

	clearer.mu.Lock()
	ctxErr := clearer.ctxErrAtCall
	clearer.mu.Unlock()
	assert.NoError(t, ctxErr, "clear context must not inherit the caller's cancellation")
}

func TestCheckoutIdempotentReplay(t *testing.T) {
	placed := &entity.Order{ID: "ord-1", OwnerEmail: buyer, Status: entity.StatusPending}
	gw := &stubGateway{
		receipt:   &ports.OrderReceipt{Order: placed, Message: "Order placed successfully"},
		verifyOut: placed,
	}
	notifier := &notifierSpy{}
	flow := NewFlow(gw, &stubClearer{}, notifier,
		WithIdempotency(cache.NewMemoryCache("storefront"), time.Hour))

	ctx := requestmeta.WithIdempotencyKey(context.Background(), "key-123")

	first, err := flow.Checkout(ctx, buyer, twoLineCart())
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := flow.Checkout(ctx, buyer, twoLineCart())
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, "ord-1", second.Order.ID)
	assert.Equal(t, "Order already placed", second.Message)

	assert.Len(t, gw.placed, 1, "the duplicate key must not place a second order")
	assert.Equal(t, []string{"ord-1"}, gw.verified)
}

func TestCheckoutIdempotencyFirstWriterWins(t *testing.T) {
	idem := cache.NewMemoryCache("storefront")
	key := idem.GenerateKey("checkout", "key-123")

	gw := &stubGateway{receipt: &ports.OrderReceipt{
		Order:   &entity.Order{ID: "ord-late"},
		Message: "Order placed successfully",
	}}
	// A concurrent attempt with the same key finishes first, while this
	// attempt is still waiting on the store.
	gw.onPlace = func() {
		_, err := idem.SetIfAbsent(context.Background(), key, "ord-early", time.Hour)
		require.NoError(t, err)
	}

	flow := NewFlow(gw, &stubClearer{}, ports.NopNotifier{}, WithIdempotency(idem, time.Hour))

	ctx := requestmeta.WithIdempotencyKey(context.Background(), "key-123")
	_, err := flow.Checkout(ctx, buyer, twoLineCart())
	require.NoError(t, err)

	// The key must keep pointing at the attempt that claimed it first.
	got, err := idem.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "ord-early", got)
}

func TestCheckoutWithoutKeyIsNeverDeduplicated(t *testing.T) {
	gw := &stubGateway{receipt: &ports.OrderReceipt{
		Order:   &entity.Order{ID: "ord-1"},
		Message: "Order placed successfully",
	}}
	flow := NewFlow(gw, &stubClearer{}, ports.NopNotifier{},
		WithIdempotency(cache.NewMemoryCache("storefront"), time.Hour))

	for i := 0; i < 2; i++ {
		_, err := flow.Checkout(context.Background(), buyer, twoLineCart())
		require.NoError(t, err)
	}
	assert.Len(t, gw.placed, 2)
}

func TestCheckoutAttemptLogRecordsSubmittedPayload(t *testing.T) {
	gw := &stubGateway{receipt: &ports.OrderReceipt{
		Order:   &entity.Order{ID: "ord-1"},
		Message: "Order placed successfully",
	}}
	log := attemptlog.NewMemoryRepository()
	flow := NewFlow(gw, &stubClearer{}, ports.NopNotifier{}, WithAttemptLog(log))

	_, err := flow.Checkout(context.Background(), buyer, twoLineCart())
	require.NoError(t, err)

	entries := log.Entries()
	require.NotEmpty(t, entries)
	first := entries[0]
	assert.Equal(t, attemptlog.StatusSubmitting, first.Status)
	assert.Equal(t, buyer, first.OwnerEmail)

	var items []entity.OrderItem
	require.NoError(t, json.Unmarshal([]byte(first.Payload), &items))
	assert.Len(t, items, 2)

	last := entries[len(entries)-1]
	assert.Equal(t, attemptlog.StatusSucceeded, last.Status)
	assert.Equal(t, "ord-1", last.OrderID)
	assert.Equal(t, first.AttemptID, last.AttemptID, "every row of one attempt shares the attempt id")
}

func TestCheckoutRedirectOnlyReceipt(t *testing.T) {
	gw := &stubGateway{receipt: &ports.OrderReceipt{
		Message:     "Order placed successfully",
		RedirectURL: "https://pay.example.com/x",
	}}
	clearer := &stubClearer{}
	flow := NewFlow(gw, clearer, ports.NopNotifier{})

	res, err := flow.Checkout(context.Background(), buyer, twoLineCart())
	require.NoError(t, err)
	assert.Nil(t, res.Order)
	assert.Equal(t, "https://pay.example.com/x", res.RedirectURL)
	assert.Equal(t, 1, clearer.callCount())
}
