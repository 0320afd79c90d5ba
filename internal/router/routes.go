package router

import (
	"github.com/gokhancode/PokemonNFT/internal/handler"
	"github.com/go-chi/chi/v5"
)

// SetupMarketRoutes wires the engine's HTTP surface onto a chi mux.
func SetupMarketRoutes(mux *chi.Mux, h *handler.MarketHandler) {
	mux.Get("/api/market", h.HandleGetMarket)
	mux.Post("/api/market/refresh", h.HandleRefreshMarket)

	mux.Get("/api/inventory/{address}", h.HandleGetInventory)
	mux.Get("/api/trades", h.HandleGetTrades)

	mux.Post("/api/listings", h.HandleCreateListing)
	mux.Delete("/api/listings/{tokenID}", h.HandleCancelListing)
	mux.Post("/api/listings/{tokenID}/purchase", h.HandlePurchase)

	mux.Post("/api/auctions", h.HandleStartAuction)
	mux.Post("/api/auctions/{tokenID}/bids", h.HandlePlaceBid)
	mux.Post("/api/auctions/{tokenID}/end", h.HandleEndAuction)

	mux.Get("/api/returns/{address}", h.HandleGetPendingReturns)
	mux.Post("/api/returns/withdraw", h.HandleWithdraw)
}
