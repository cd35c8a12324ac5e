package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonehub/storefront/internal/pkg/requestmeta"
	"github.com/phonehub/storefront/internal/storefront/core/ports"
)

// capture records the last request the test server saw.
type capture struct {
	method string
	path   string
	header http.Header
	body   []byte
}

func newTestStore(t *testing.T, status int, responseBody string) (*CartStore, *capture) {
	t.Helper()
	cap := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.method = r.Method
		cap.path = r.URL.RequestURI()
		cap.header = r.Header.Clone()
		cap.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(srv.Close)
	return NewCartStore(NewClient(srv.URL, 0)), cap
}

const cartEnvelope = `{
	"success": true,
	"message": "Product added to cart",
	"data": {
		"userEmail": "buyer@example.com",
		"items": [
			{"product": {"_id": "p-1", "brand": "Apple", "model": "iPhone 15", "price": 999, "discount": 10, "quantity": 7, "inStock": true}, "quantity": 2}
		]
	}
}`

func TestFetchCartPathAndMapping(t *testing.T) {
	store, cap := newTestStore(t, http.StatusOK, cartEnvelope)

	upd, err := store.FetchCart(context.Background(), "buyer@example.com")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, cap.method)
	assert.Equal(t, "/cart/by-email/buyer@example.com", cap.path)

	require.Len(t, upd.Cart.Items, 1)
	it := upd.Cart.Items[0]
	assert.Equal(t, "p-1", it.Product.ID)
	assert.Equal(t, "Apple", it.Product.Brand)
	assert.Equal(t, 7, it.Product.Stock, "remote quantity field is the stock count")
	assert.Equal(t, 2, it.Quantity)
	assert.Equal(t, "Product added to cart", upd.Message)
}

func TestAddItemPostsEmailAndProduct(t *testing.T) {
	store, cap := newTestStore(t, http.StatusOK, cartEnvelope)

	_, err := store.AddItem(context.Background(), "buyer@example.com", "p-1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, cap.method)
	assert.Equal(t, "/cart/add", cap.path)
	assert.Equal(t, "application/json", cap.header.Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(cap.body, &body))
	assert.Equal(t, map[string]string{"email": "buyer@example.com", "productId": "p-1"}, body)
}

func TestQuantityAndRemovePaths(t *testing.T) {
	cases := []struct {
		name   string
		call   func(s *CartStore) error
		method string
		path   string
	}{
		{
			name: "increase",
			call: func(s *CartStore) error {
				_, err := s.IncreaseQuantity(context.Background(), "buyer@example.com", "p-1")
				return err
			},
			method: http.MethodPatch,
			path:   "/cart/increase-quantity/buyer@example.com/p-1",
		},
		{
			name: "decrease",
			call: func(s *CartStore) error {
				_, err := s.DecreaseQuantity(context.Background(), "buyer@example.com", "p-1")
				return err
			},
			method: http.MethodPatch,
			path:   "/cart/decrease-quantity/buyer@example.com/p-1",
		},
		{
			name: "remove",
			call: func(s *CartStore) error {
				_, err := s.RemoveItem(context.Background(), "buyer@example.com", "p-1")
				return err
			},
			method: http.MethodDelete,
			path:   "/cart/remove/buyer@example.com/p-1",
		},
		{
			name: "clear",
			call: func(s *CartStore) error {
				_, err := s.ClearCart(context.Background(), "buyer@example.com")
				return err
			},
			method: http.MethodDelete,
			path:   "/cart/clear/buyer@example.com",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, cap := newTestStore(t, http.StatusOK, cartEnvelope)
			require.NoError(t, tc.call(store))
			assert.Equal(t, tc.method, cap.method)
			assert.Equal(t, tc.path, cap.path)
		})
	}
}

func TestNullDataDecodesAsEmptyCart(t *testing.T) {
	store, _ := newTestStore(t, http.StatusOK, `{"success": true, "message": "ok", "data": null}`)

	upd, err := store.FetchCart(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	assert.True(t, upd.Cart.IsEmpty())
	assert.Equal(t, "buyer@example.com", upd.Cart.OwnerEmail)
}

func TestMetadataForwardedOnOutboundRequest(t *testing.T) {
	store, cap := newTestStore(t, http.StatusOK, cartEnvelope)

	ctx := context.Background()
	ctx = requestmeta.WithRequestID(ctx, "req-42")
	ctx = requestmeta.WithIdempotencyKey(ctx, "idem-7")
	ctx = requestmeta.WithBearerToken(ctx, "tok-abc")

	_, err := store.FetchCart(ctx, "buyer@example.com")
	require.NoError(t, err)

	assert.Equal(t, "req-42", cap.header.Get("X-Request-Id"))
	assert.Equal(t, "idem-7", cap.header.Get("X-Idempotency-Key"))
	assert.Equal(t, "Bearer tok-abc", cap.header.Get("Authorization"))
}

func TestErrorMessageExtraction(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "top level message",
			body: `{"success": false, "message": "Product does not exist"}`,
			want: "Product does not exist",
		},
		{
			name: "nested data message",
			body: `{"success": false, "data": {"message": "Not enough stock"}}`,
			want: "Not enough stock",
		},
		{
			name: "error sources",
			body: `{"success": false, "errorSources": [{"path": "productId", "message": "Invalid product id"}]}`,
			want: "Invalid product id",
		},
		{
			name: "unparseable body",
			body: `<html>Bad Gateway</html>`,
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, _ := newTestStore(t, http.StatusNotFound, tc.body)

			_, err := store.AddItem(context.Background(), "buyer@example.com", "missing")
			require.Error(t, err)

			var re *ports.RemoteError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, http.StatusNotFound, re.StatusCode)
			assert.Equal(t, tc.want, re.Message)
		})
	}
}

func TestSuccessFalseWith200IsAnError(t *testing.T) {
	store, _ := newTestStore(t, http.StatusOK, `{"success": false, "message": "Cart not found"}`)

	_, err := store.FetchCart(context.Background(), "buyer@example.com")
	require.Error(t, err)

	var re *ports.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Cart not found", re.Message)
}
