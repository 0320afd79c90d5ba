package usecase

import "errors"

var (
	ErrInvalidPrice        = errors.New("price must be positive")
	ErrInvalidDuration     = errors.New("auction duration must be positive")
	ErrInvalidBid          = errors.New("bid must exceed the current highest bid")
	ErrOwnAuctionBid       = errors.New("seller cannot bid on their own auction")
	ErrInsufficientPayment = errors.New("payment does not match the listing price")
	ErrAlreadyOnMarket     = errors.New("token is already listed or under auction")
	ErrListingNotActive    = errors.New("listing is not active")
)
