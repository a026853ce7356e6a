// Package oracle implements the price oracle core: configuration, the
// append-only price ledger and the query engine answering point, series,
// cross and time-weighted average price queries.
//
// All state lives behind the Storage interface supplied by the caller; the
// package itself holds none.
package oracle

import "github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"

// Address identifies a principal or an asset. It is opaque to the core and
// compared by value only.
type Address string

// PriceData is a price observation at a quantized timestamp.
type PriceData struct {
	Price     fixedpoint.Int128 `json:"price"`
	Timestamp uint64            `json:"timestamp"`
}

// ConfigData is the full oracle configuration written by Configure.
type ConfigData struct {
	// Admin is the only principal allowed to write prices or reconfigure
	Admin Address `json:"admin"`

	// Period is the retention window in seconds
	Period uint64 `json:"period"`

	// Assets is the ordered set of priced assets
	Assets []Address `json:"assets"`

	// BaseFee is the per-unit query price charged by the metered oracle
	BaseFee fixedpoint.Int128 `json:"base_fee"`

	// BaseAsset is the asset prices are denominated in
	BaseAsset Address `json:"base_asset"`

	// Decimals is the fixed-point precision of every price
	Decimals uint32 `json:"decimals"`

	// Resolution is the grid step in seconds
	Resolution uint32 `json:"resolution"`
}
