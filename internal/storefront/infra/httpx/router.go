package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phonehub/storefront/internal/storefront/infra/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(CollectNotices)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/cart/{email}", func(r chi.Router) {
		r.Get("/", handler.GetCart)
		r.Delete("/", handler.ClearCart)
		r.Post("/items", handler.AddItem)
		r.Patch("/items/{productID}/increase", handler.IncreaseQuantity)
		r.Patch("/items/{productID}/decrease", handler.DecreaseQuantity)
		r.Delete("/items/{productID}", handler.RemoveItem)
	})

	r.Post("/checkout/{email}", handler.Checkout)
	r.Get("/orders/verify", handler.VerifyOrder)
	r.Get("/orders/{email}", handler.ListOrders)

	return r
}
