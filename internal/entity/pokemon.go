package entity

// Pokemon is the immutable attribute record minted on-chain for a token.
// The contract assigns token IDs monotonically and never reuses them.
type Pokemon struct {
	TokenID     uint64 `json:"token_id"`
	Name        string `json:"name"`
	Type1       string `json:"type1"`
	Type2       string `json:"type2,omitempty"`
	HP          int    `json:"hp"`
	Attack      int    `json:"attack"`
	Defense     int    `json:"defense"`
	Speed       int    `json:"speed"`
	Special     int    `json:"special"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
}

// OwnedPokemon is a Pokemon held by a wallet, annotated with its market status.
type OwnedPokemon struct {
	Pokemon
	Listed bool    `json:"listed"`
	Price  float64 `json:"price,omitempty"`
}
