package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gokhancode/PokemonNFT/internal/entity"
	"github.com/gokhancode/PokemonNFT/internal/port/ledger"
	"github.com/gokhancode/PokemonNFT/internal/usecase"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MarketHandler is the thin HTTP glue over the projection engine. It decodes
// requests, calls the usecases and maps engine errors onto status codes; no
// market logic lives here.
type MarketHandler struct {
	view       *usecase.MarketView
	dispatcher *usecase.TradeDispatcher
	inventory  *usecase.Inventory
	history    *usecase.History
	logger     *zap.Logger
}

func NewMarketHandler(
	view *usecase.MarketView,
	dispatcher *usecase.TradeDispatcher,
	inventory *usecase.Inventory,
	history *usecase.History,
	logger *zap.Logger,
) *MarketHandler {
	return &MarketHandler{
		view:       view,
		dispatcher: dispatcher,
		inventory:  inventory,
		history:    history,
		logger:     logger,
	}
}

type marketResponse struct {
	Entries     []entity.MarketEntry `json:"entries"`
	RefreshedAt time.Time            `json:"refreshed_at"`
}

func (h *MarketHandler) HandleGetMarket(w http.ResponseWriter, r *http.Request) {
	snapshot, refreshedAt := h.view.Snapshot()
	entries := make([]entity.MarketEntry, 0, len(snapshot))
	for _, entry := range snapshot {
		entries = append(entries, entry)
	}
	h.writeJSON(w, http.StatusOK, marketResponse{
		Entries:     entries,
		RefreshedAt: refreshedAt,
	})
}

func (h *MarketHandler) HandleRefreshMarket(w http.ResponseWriter, r *http.Request) {
	if err := h.view.Refresh(r.Context()); err != nil {
		h.writeError(w, "refresh market", err)
		return
	}
	snapshot, refreshedAt := h.view.Snapshot()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries":      len(snapshot),
		"refreshed_at": refreshedAt,
	})
}

func (h *MarketHandler) HandleGetInventory(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	owned, err := h.inventory.OwnedBy(r.Context(), address)
	if err != nil {
		h.writeError(w, "inventory", err)
		return
	}
	if owned == nil {
		owned = []entity.OwnedPokemon{}
	}
	h.writeJSON(w, http.StatusOK, owned)
}

func (h *MarketHandler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	actor := r.URL.Query().Get("actor")
	if actor == "" {
		http.Error(w, "actor query parameter is required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	records, err := h.history.ByActor(r.Context(), actor, limit)
	if err != nil {
		h.writeError(w, "trade history", err)
		return
	}
	if records == nil {
		records = []*entity.TradeRecord{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

type createListingRequest struct {
	Actor   string  `json:"actor"`
	TokenID uint64  `json:"token_id"`
	Price   float64 `json:"price"`
}

func (h *MarketHandler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.dispatcher.List(r.Context(), req.Actor, req.TokenID, req.Price); err != nil {
		h.writeError(w, "create listing", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]uint64{"token_id": req.TokenID})
}

type actorRequest struct {
	Actor string `json:"actor"`
}

// actorFrom resolves the acting wallet for requests whose verb discourages a
// body: the actor query parameter wins, then the X-Actor header, then a JSON
// body when the client sent one anyway.
func actorFrom(r *http.Request) string {
	if actor := r.URL.Query().Get("actor"); actor != "" {
		return actor
	}
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	var req actorRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	return req.Actor
}

func (h *MarketHandler) HandleCancelListing(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}
	actor := actorFrom(r)
	if actor == "" {
		http.Error(w, "actor is required", http.StatusBadRequest)
		return
	}
	if err := h.dispatcher.Cancel(r.Context(), actor, tokenID); err != nil {
		h.writeError(w, "cancel listing", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.dispatcher.Buy(r.Context(), req.Actor, tokenID); err != nil {
		h.writeError(w, "purchase", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]uint64{"token_id": tokenID})
}

type startAuctionRequest struct {
	Actor         string  `json:"actor"`
	TokenID       uint64  `json:"token_id"`
	StartingBid   float64 `json:"starting_bid"`
	DurationHours float64 `json:"duration_hours"`
}

func (h *MarketHandler) HandleStartAuction(w http.ResponseWriter, r *http.Request) {
	var req startAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	duration := time.Duration(req.DurationHours * float64(time.Hour))
	if err := h.dispatcher.StartAuction(r.Context(), req.Actor, req.TokenID, req.StartingBid, duration); err != nil {
		h.writeError(w, "start auction", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]uint64{"token_id": req.TokenID})
}

type placeBidRequest struct {
	Actor  string  `json:"actor"`
	Amount float64 `json:"amount"`
}

func (h *MarketHandler) HandlePlaceBid(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}
	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.dispatcher.PlaceBid(r.Context(), req.Actor, tokenID, req.Amount); err != nil {
		h.writeError(w, "place bid", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]uint64{"token_id": tokenID})
}

func (h *MarketHandler) HandleEndAuction(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := h.tokenIDParam(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.dispatcher.EndAuction(r.Context(), req.Actor, tokenID); err != nil {
		h.writeError(w, "end auction", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]uint64{"token_id": tokenID})
}

func (h *MarketHandler) HandleGetPendingReturns(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	amount, err := h.dispatcher.PendingReturns(r.Context(), address)
	if err != nil {
		h.writeError(w, "pending returns", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]float64{"amount": amount})
}

func (h *MarketHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req actorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.dispatcher.Withdraw(r.Context(), req.Actor); err != nil {
		h.writeError(w, "withdraw", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketHandler) tokenIDParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	tokenID, err := strconv.ParseUint(chi.URLParam(r, "tokenID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid token ID", http.StatusBadRequest)
		return 0, false
	}
	return tokenID, true
}

func (h *MarketHandler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps engine errors onto HTTP status codes. Ledger rejection
// reasons pass through verbatim; everything else keeps the wrapped message.
func (h *MarketHandler) writeError(w http.ResponseWriter, op string, err error) {
	var rejected *ledger.RejectedError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrInvalidPrice),
		errors.Is(err, usecase.ErrInvalidDuration),
		errors.Is(err, usecase.ErrInvalidBid),
		errors.Is(err, usecase.ErrOwnAuctionBid),
		errors.Is(err, usecase.ErrAlreadyOnMarket),
		errors.Is(err, usecase.ErrListingNotActive),
		errors.Is(err, usecase.ErrInsufficientPayment):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &rejected):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrTxTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, ledger.ErrLedgerUnavailable):
		status = http.StatusBadGateway
	}

	h.logger.Error("Request failed", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); encErr != nil {
		h.logger.Error("Failed to encode error response", zap.Error(encErr))
	}
}
