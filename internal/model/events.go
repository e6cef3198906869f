package model

import "math/big"

// MintAmounts carries the deposited amounts of a liquidity mint event in
// token base units. Transient; formatting happens at the output boundary.
type MintAmounts struct {
	Amount0 *big.Int
	Amount1 *big.Int
}

// IsZero reports whether both deposited amounts are zero.
func (m MintAmounts) IsZero() bool {
	zero := (m.Amount0 == nil || m.Amount0.Sign() == 0) &&
		(m.Amount1 == nil || m.Amount1.Sign() == 0)
	return zero
}
