package oracle

import (
	"errors"

	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
)

// PriceOracle runs oracle operations against one Storage. It is cheap to
// construct and is normally created once per host call.
type PriceOracle struct {
	env *Env
}

// New returns a PriceOracle over store.
func New(store Storage) *PriceOracle {
	return &PriceOracle{env: NewEnv(store)}
}

// Env exposes the typed storage accessors.
func (o *PriceOracle) Env() *Env {
	return o.env
}

// Configure replaces the whole configuration. The first call bootstraps the
// oracle and may come from anyone; later calls must come from the admin.
// The new admin must be set. Decimals cannot change once set.
func (o *PriceOracle) Configure(caller Address, cfg ConfigData) error {
	if caller == "" {
		return ErrUnauthorized
	}
	initialized, err := o.env.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		isAdmin, err := o.env.IsAdmin(caller)
		if err != nil {
			return err
		}
		if !isAdmin {
			return ErrUnauthorized
		}
	}
	// an empty admin would lock every later write out
	if cfg.Admin == "" {
		return ErrUnauthorized
	}
	if cfg.Resolution == 0 {
		return ErrInvalidResolution
	}
	if hasDuplicates(cfg.Assets) {
		return ErrAssetAlreadyPresented
	}
	if cfg.BaseFee.Sign() < 0 {
		return ErrInvalidPriceValue
	}
	decimals, ok, err := o.env.Decimals()
	if err != nil {
		return err
	}
	if ok && decimals != cfg.Decimals {
		return ErrAlreadyInitialized
	}

	assets := cfg.Assets
	if assets == nil {
		assets = []Address{}
	}
	return firstErr(
		o.env.SetAdmin(cfg.Admin),
		o.env.SetPeriod(cfg.Period),
		o.env.SetBase(cfg.BaseAsset),
		o.env.SetBaseFee(cfg.BaseFee),
		o.env.SetDecimals(cfg.Decimals),
		o.env.SetResolution(cfg.Resolution),
		o.env.SetAssets(assets),
	)
}

// AddAssets appends assets to the registered set, keeping their order.
func (o *PriceOracle) AddAssets(caller Address, assets []Address) error {
	if err := o.requireAdmin(caller); err != nil {
		return err
	}
	current, err := o.env.Assets()
	if err != nil {
		return err
	}
	seen := make(map[Address]struct{}, len(current)+len(assets))
	for _, a := range current {
		seen[a] = struct{}{}
	}
	for _, a := range assets {
		if _, dup := seen[a]; dup {
			return ErrAssetAlreadyPresented
		}
		seen[a] = struct{}{}
	}
	next := make([]Address, 0, len(current)+len(assets))
	next = append(next, current...)
	next = append(next, assets...)
	return o.env.SetAssets(next)
}

// SetPrice records one price per registered asset, in registration order, at
// the quantized timestamp and moves the last-timestamp marker there.
//
// The marker is moved even when timestamp is older than the current marker;
// series queries then anchor on the older slot.
func (o *PriceOracle) SetPrice(caller Address, updates []fixedpoint.Int128, timestamp uint64) error {
	if err := o.requireAdmin(caller); err != nil {
		return err
	}
	assets, err := o.env.Assets()
	if err != nil {
		return err
	}
	if len(updates) != len(assets) {
		return ErrInvalidUpdatesLength
	}
	for _, u := range updates {
		if u.Sign() <= 0 {
			return ErrInvalidPriceValue
		}
	}
	resolution, ok, err := o.env.Resolution()
	if err != nil {
		return err
	}
	if !ok || resolution == 0 {
		return ErrInvalidResolution
	}

	ts := Quantize(timestamp, resolution)
	for i, asset := range assets {
		if err := o.env.SetPrice(asset, updates[i], ts); err != nil {
			return err
		}
	}
	return o.env.SetLastTimestamp(ts)
}

// Admin returns the configured admin.
func (o *PriceOracle) Admin() (Address, bool, error) { return o.env.Admin() }

// Base returns the base asset.
func (o *PriceOracle) Base() (Address, bool, error) { return o.env.Base() }

// Decimals returns the price precision.
func (o *PriceOracle) Decimals() (uint32, bool, error) { return o.env.Decimals() }

// Resolution returns the grid step in seconds.
func (o *PriceOracle) Resolution() (uint32, bool, error) { return o.env.Resolution() }

// Period returns the retention period in seconds.
func (o *PriceOracle) Period() (uint64, bool, error) { return o.env.Period() }

// Assets returns the registered assets, or nil before configuration.
func (o *PriceOracle) Assets() ([]Address, error) {
	ok, err := o.env.Storage().Has(AssetsKey)
	if err != nil || !ok {
		return nil, err
	}
	return o.env.Assets()
}

// LastTimestamp returns the last-timestamp marker.
func (o *PriceOracle) LastTimestamp() (uint64, bool, error) { return o.env.LastTimestamp() }

// Price returns the price of asset in the slot containing timestamp, or nil.
func (o *PriceOracle) Price(asset Address, timestamp uint64) (*PriceData, error) {
	p, err := o.params()
	if err != nil || p == nil {
		return nil, err
	}
	ts := Quantize(timestamp, p.resolution)
	price, ok, err := o.env.Price(asset, ts)
	if err != nil || !ok {
		return nil, err
	}
	return &PriceData{Price: price, Timestamp: ts}, nil
}

// LastPrice returns the price of asset at the last-timestamp marker.
func (o *PriceOracle) LastPrice(asset Address) (*PriceData, error) {
	ts, ok, err := o.env.LastTimestamp()
	if err != nil || !ok {
		return nil, err
	}
	return o.Price(asset, ts)
}

// Prices returns up to records prices of asset, newest first, walking back
// from the last-timestamp marker. Missing slots are skipped.
func (o *PriceOracle) Prices(asset Address, records uint32) ([]PriceData, error) {
	p, err := o.params()
	if err != nil || p == nil {
		return nil, err
	}
	return o.scan(p, func(ts uint64) (fixedpoint.Int128, bool, error) {
		return o.env.Price(asset, ts)
	}, records)
}

// XPrice returns the price of base denominated in quote at the slot
// containing timestamp, or nil if either leg is missing.
func (o *PriceOracle) XPrice(base, quote Address, timestamp uint64) (*PriceData, error) {
	if base == quote {
		return nil, ErrInvalidAssetPair
	}
	p, err := o.params()
	if err != nil || p == nil {
		return nil, err
	}
	ts := Quantize(timestamp, p.resolution)
	price, ok, err := o.crossPrice(base, quote, ts, p.decimals)
	if err != nil || !ok {
		return nil, err
	}
	return &PriceData{Price: price, Timestamp: ts}, nil
}

// XLastPrice returns the cross price at the last-timestamp marker.
func (o *PriceOracle) XLastPrice(base, quote Address) (*PriceData, error) {
	if base == quote {
		return nil, ErrInvalidAssetPair
	}
	ts, ok, err := o.env.LastTimestamp()
	if err != nil || !ok {
		return nil, err
	}
	return o.XPrice(base, quote, ts)
}

// XPrices is Prices for the cross price of base in quote. A slot is skipped
// when either leg is missing.
func (o *PriceOracle) XPrices(base, quote Address, records uint32) ([]PriceData, error) {
	if base == quote {
		return nil, ErrInvalidAssetPair
	}
	p, err := o.params()
	if err != nil || p == nil {
		return nil, err
	}
	return o.scan(p, func(ts uint64) (fixedpoint.Int128, bool, error) {
		return o.crossPrice(base, quote, ts, p.decimals)
	}, records)
}

// TWAP returns the floor mean of the prices found by Prices.
func (o *PriceOracle) TWAP(asset Address, records uint32) (*fixedpoint.Int128, error) {
	prices, err := o.Prices(asset, records)
	if err != nil {
		return nil, err
	}
	return average(prices)
}

// XTWAP returns the floor mean of the prices found by XPrices.
func (o *PriceOracle) XTWAP(base, quote Address, records uint32) (*fixedpoint.Int128, error) {
	prices, err := o.XPrices(base, quote, records)
	if err != nil {
		return nil, err
	}
	return average(prices)
}

type queryParams struct {
	decimals   uint32
	resolution uint32
}

// params loads decimals and resolution. It returns nil while either is unset.
func (o *PriceOracle) params() (*queryParams, error) {
	decimals, ok, err := o.env.Decimals()
	if err != nil || !ok {
		return nil, err
	}
	resolution, ok, err := o.env.Resolution()
	if err != nil || !ok || resolution == 0 {
		return nil, err
	}
	return &queryParams{decimals: decimals, resolution: resolution}, nil
}

func (o *PriceOracle) scan(p *queryParams, lookup LookupFunc, records uint32) ([]PriceData, error) {
	start, ok, err := o.env.LastTimestamp()
	if err != nil || !ok {
		return nil, err
	}
	return Scan(start, uint64(p.resolution), records, lookup)
}

func (o *PriceOracle) crossPrice(base, quote Address, ts uint64, decimals uint32) (fixedpoint.Int128, bool, error) {
	bp, ok, err := o.env.Price(base, ts)
	if err != nil || !ok {
		return fixedpoint.Int128{}, false, err
	}
	qp, ok, err := o.env.Price(quote, ts)
	if err != nil || !ok {
		return fixedpoint.Int128{}, false, err
	}
	x, err := fixedpoint.FixedDivFloor(bp, qp, decimals)
	if err != nil {
		return fixedpoint.Int128{}, false, ErrInvalidPriceValue
	}
	return x, true, nil
}

func (o *PriceOracle) requireAdmin(caller Address) error {
	ok, err := o.env.IsAdmin(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func average(prices []PriceData) (*fixedpoint.Int128, error) {
	if len(prices) == 0 {
		return nil, nil
	}
	values := make([]fixedpoint.Int128, len(prices))
	for i, p := range prices {
		values[i] = p.Price
	}
	mean, err := fixedpoint.Mean(values)
	if err != nil {
		if errors.Is(err, fixedpoint.ErrOverflow) {
			return nil, ErrInvalidPriceValue
		}
		return nil, err
	}
	return &mean, nil
}

func hasDuplicates(assets []Address) bool {
	seen := make(map[Address]struct{}, len(assets))
	for _, a := range assets {
		if _, ok := seen[a]; ok {
			return true
		}
		seen[a] = struct{}{}
	}
	return false
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
