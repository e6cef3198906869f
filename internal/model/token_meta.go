package model

// DefaultTokenDecimals is assumed when a token does not expose decimals.
const DefaultTokenDecimals = 18

// TokenMeta captures ERC20 metadata. Fields resolve independently; an unset
// Symbol or Name stays empty and Decimals falls back to the default.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
}
