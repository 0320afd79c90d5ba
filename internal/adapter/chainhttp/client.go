// Package chainhttp talks to the chain gateway, a JSON-over-HTTP sidecar
// that fronts the Pokemon NFT and trading contracts. It implements the
// ledger and pokedex ports; all amounts cross the wire as wei strings and
// are converted at this boundary.
package chainhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gokhancode/PokemonNFT/internal/config"
	"github.com/gokhancode/PokemonNFT/internal/entity"
	"github.com/gokhancode/PokemonNFT/internal/port/ledger"
	"go.uber.org/zap"
)

type Client struct {
	baseURL      string
	httpClient   *http.Client
	confirmWait  time.Duration
	confirmEvery time.Duration
	logger       *zap.Logger
}

func NewClient(cfg *config.ChainConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.GatewayURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		confirmWait:  cfg.ConfirmTimeout,
		confirmEvery: cfg.ConfirmPollInterval,
		logger:       logger.Named("chainhttp"),
	}
}

type eventDTO struct {
	TokenID     uint64 `json:"token_id"`
	Seller      string `json:"seller"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
}

type eventsResponse struct {
	Events []eventDTO `json:"events"`
}

func (c *Client) Events(ctx context.Context, topic ledger.EventTopic) ([]ledger.Event, error) {
	var resp eventsResponse
	path := "/events?topic=" + url.QueryEscape(string(topic))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("chainhttp.Events: topic %s: %w", topic, err)
	}

	events := make([]ledger.Event, 0, len(resp.Events))
	for _, dto := range resp.Events {
		events = append(events, ledger.Event{
			TokenID:     dto.TokenID,
			Seller:      dto.Seller,
			BlockNumber: dto.BlockNumber,
			TxHash:      dto.TxHash,
		})
	}
	return events, nil
}

type listingDTO struct {
	Seller   string `json:"seller"`
	PriceWei string `json:"price_wei"`
	Active   bool   `json:"active"`
}

func (c *Client) Listing(ctx context.Context, tokenID uint64) (ledger.ListingState, error) {
	var dto listingDTO
	if err := c.get(ctx, fmt.Sprintf("/listings/%d", tokenID), &dto); err != nil {
		return ledger.ListingState{}, fmt.Errorf("chainhttp.Listing: token %d: %w", tokenID, err)
	}
	price, err := weiToEther(dto.PriceWei)
	if err != nil {
		return ledger.ListingState{}, fmt.Errorf("chainhttp.Listing: token %d: %w", tokenID, err)
	}
	return ledger.ListingState{
		Seller: dto.Seller,
		Price:  price,
		Active: dto.Active,
	}, nil
}

type auctionDTO struct {
	Seller           string `json:"seller"`
	StartingPriceWei string `json:"starting_price_wei"`
	HighestBidWei    string `json:"highest_bid_wei"`
	HighestBidder    string `json:"highest_bidder"`
	EndTimeUnix      int64  `json:"end_time"`
	Active           bool   `json:"active"`
}

func (c *Client) Auction(ctx context.Context, tokenID uint64) (ledger.AuctionState, error) {
	var dto auctionDTO
	if err := c.get(ctx, fmt.Sprintf("/auctions/%d", tokenID), &dto); err != nil {
		return ledger.AuctionState{}, fmt.Errorf("chainhttp.Auction: token %d: %w", tokenID, err)
	}
	startingPrice, err := weiToEther(dto.StartingPriceWei)
	if err != nil {
		return ledger.AuctionState{}, fmt.Errorf("chainhttp.Auction: token %d: %w", tokenID, err)
	}
	highestBid, err := weiToEther(dto.HighestBidWei)
	if err != nil {
		return ledger.AuctionState{}, fmt.Errorf("chainhttp.Auction: token %d: %w", tokenID, err)
	}
	return ledger.AuctionState{
		Seller:        dto.Seller,
		StartingPrice: startingPrice,
		HighestBid:    highestBid,
		HighestBidder: dto.HighestBidder,
		EndTime:       time.Unix(dto.EndTimeUnix, 0),
		Active:        dto.Active,
	}, nil
}

func (c *Client) IsApprovedForAll(ctx context.Context, owner string) (bool, error) {
	var dto struct {
		Approved bool `json:"approved"`
	}
	if err := c.get(ctx, "/accounts/"+url.PathEscape(owner)+"/approval", &dto); err != nil {
		return false, fmt.Errorf("chainhttp.IsApprovedForAll: %w", err)
	}
	return dto.Approved, nil
}

func (c *Client) BalanceOf(ctx context.Context, owner string) (int, error) {
	var dto struct {
		Balance int `json:"balance"`
	}
	if err := c.get(ctx, "/accounts/"+url.PathEscape(owner)+"/balance", &dto); err != nil {
		return 0, fmt.Errorf("chainhttp.BalanceOf: %w", err)
	}
	return dto.Balance, nil
}

func (c *Client) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	var dto struct {
		Owner string `json:"owner"`
	}
	if err := c.get(ctx, fmt.Sprintf("/nft/%d/owner", tokenID), &dto); err != nil {
		return "", fmt.Errorf("chainhttp.OwnerOf: token %d: %w", tokenID, err)
	}
	return dto.Owner, nil
}

func (c *Client) PendingReturns(ctx context.Context, addr string) (float64, error) {
	var dto struct {
		AmountWei string `json:"amount_wei"`
	}
	if err := c.get(ctx, "/accounts/"+url.PathEscape(addr)+"/pending-returns", &dto); err != nil {
		return 0, fmt.Errorf("chainhttp.PendingReturns: %w", err)
	}
	amount, err := weiToEther(dto.AmountWei)
	if err != nil {
		return 0, fmt.Errorf("chainhttp.PendingReturns: %w", err)
	}
	return amount, nil
}

type pokemonDTO struct {
	TokenID     uint64 `json:"token_id"`
	Name        string `json:"name"`
	Type1       string `json:"type1"`
	Type2       string `json:"type2"`
	HP          int    `json:"hp"`
	Attack      int    `json:"attack"`
	Defense     int    `json:"defense"`
	Speed       int    `json:"speed"`
	Special     int    `json:"special"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
}

func (c *Client) Pokemon(ctx context.Context, tokenID uint64) (entity.Pokemon, error) {
	var dto pokemonDTO
	if err := c.get(ctx, fmt.Sprintf("/nft/%d", tokenID), &dto); err != nil {
		return entity.Pokemon{}, fmt.Errorf("chainhttp.Pokemon: token %d: %w", tokenID, err)
	}
	return entity.Pokemon{
		TokenID:     tokenID,
		Name:        dto.Name,
		Type1:       dto.Type1,
		Type2:       dto.Type2,
		HP:          dto.HP,
		Attack:      dto.Attack,
		Defense:     dto.Defense,
		Speed:       dto.Speed,
		Special:     dto.Special,
		ImageURL:    dto.ImageURL,
		Description: dto.Description,
	}, nil
}

type submitRequest struct {
	Method          string `json:"method"`
	From            string `json:"from"`
	TokenID         uint64 `json:"token_id,omitempty"`
	PriceWei        string `json:"price_wei,omitempty"`
	ValueWei        string `json:"value_wei,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
}

type submitResponse struct {
	Hash string `json:"hash"`
}

func (c *Client) Submit(ctx context.Context, call ledger.Call) (ledger.PendingTx, error) {
	req := submitRequest{
		Method:  string(call.Method),
		From:    call.From,
		TokenID: call.TokenID,
	}
	if call.Price > 0 {
		req.PriceWei = etherToWei(call.Price)
	}
	if call.Value > 0 {
		req.ValueWei = etherToWei(call.Value)
	}
	if call.Duration > 0 {
		req.DurationSeconds = int64(call.Duration / time.Second)
	}

	var resp submitResponse
	if err := c.post(ctx, "/transactions", req, &resp); err != nil {
		return ledger.PendingTx{}, fmt.Errorf("chainhttp.Submit: %s: %w", call.Method, err)
	}
	c.logger.Debug("transaction submitted",
		zap.String("method", string(call.Method)),
		zap.String("hash", resp.Hash),
	)
	return ledger.PendingTx{Hash: resp.Hash}, nil
}

type txStatusResponse struct {
	Status string `json:"status"` // pending | confirmed | failed
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Await polls the gateway for the transaction receipt until it confirms,
// fails, or the confirmation window elapses.
func (c *Client) Await(ctx context.Context, tx ledger.PendingTx) error {
	deadline := time.Now().Add(c.confirmWait)
	ticker := time.NewTicker(c.confirmEvery)
	defer ticker.Stop()

	for {
		var status txStatusResponse
		if err := c.get(ctx, "/transactions/"+url.PathEscape(tx.Hash), &status); err != nil {
			return fmt.Errorf("chainhttp.Await: %s: %w", tx.Hash, err)
		}
		switch status.Status {
		case "confirmed":
			return nil
		case "failed":
			return fmt.Errorf("chainhttp.Await: %s: %w", tx.Hash,
				&ledger.RejectedError{Code: status.Code, Reason: status.Reason})
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("chainhttp.Await: %s: %w", tx.Hash, ledger.ErrTxTimeout)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("chainhttp.Await: %s: %w", tx.Hash, ledger.ErrTxTimeout)
		case <-ticker.C:
		}
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request and maps transport and gateway failures onto the
// ledger error taxonomy.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Join(ledger.ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ledger.ErrRecordNotFound
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusConflict:
		var gwErr struct {
			Code  string `json:"code"`
			Error string `json:"error"`
		}
		if decErr := json.NewDecoder(resp.Body).Decode(&gwErr); decErr == nil && gwErr.Error != "" {
			return &ledger.RejectedError{Code: gwErr.Code, Reason: gwErr.Error}
		}
		return &ledger.RejectedError{}
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: gateway returned %d: %s", ledger.ErrLedgerUnavailable, resp.StatusCode, bytes.TrimSpace(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
