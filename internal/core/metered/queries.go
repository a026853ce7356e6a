package metered

import (
	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
)

// Price charges one unit and returns the price of asset at timestamp.
func (m *Oracle) Price(caller, asset oracle.Address, timestamp uint64) (*oracle.PriceData, error) {
	if err := m.Charge(caller, UnitsSingle); err != nil {
		return nil, err
	}
	return m.core.Price(asset, timestamp)
}

// LastPrice charges one unit and returns the latest price of asset.
func (m *Oracle) LastPrice(caller, asset oracle.Address) (*oracle.PriceData, error) {
	if err := m.Charge(caller, UnitsSingle); err != nil {
		return nil, err
	}
	return m.core.LastPrice(asset)
}

// XPrice charges two units and returns the cross price at timestamp.
func (m *Oracle) XPrice(caller, base, quote oracle.Address, timestamp uint64) (*oracle.PriceData, error) {
	if err := m.Charge(caller, UnitsCross); err != nil {
		return nil, err
	}
	return m.core.XPrice(base, quote, timestamp)
}

// XLastPrice charges two units and returns the latest cross price.
func (m *Oracle) XLastPrice(caller, base, quote oracle.Address) (*oracle.PriceData, error) {
	if err := m.Charge(caller, UnitsCross); err != nil {
		return nil, err
	}
	return m.core.XLastPrice(base, quote)
}

// Prices charges one unit per requested record.
func (m *Oracle) Prices(caller, asset oracle.Address, records uint32) ([]oracle.PriceData, error) {
	if err := m.Charge(caller, uint64(records)); err != nil {
		return nil, err
	}
	return m.core.Prices(asset, records)
}

// XPrices charges two units per requested record.
func (m *Oracle) XPrices(caller, base, quote oracle.Address, records uint32) ([]oracle.PriceData, error) {
	if err := m.Charge(caller, 2*uint64(records)); err != nil {
		return nil, err
	}
	return m.core.XPrices(base, quote, records)
}

// TWAP charges one unit per requested record.
func (m *Oracle) TWAP(caller, asset oracle.Address, records uint32) (*fixedpoint.Int128, error) {
	if err := m.Charge(caller, uint64(records)); err != nil {
		return nil, err
	}
	return m.core.TWAP(asset, records)
}

// XTWAP charges two units per requested record.
func (m *Oracle) XTWAP(caller, base, quote oracle.Address, records uint32) (*fixedpoint.Int128, error) {
	if err := m.Charge(caller, 2*uint64(records)); err != nil {
		return nil, err
	}
	return m.core.XTWAP(base, quote, records)
}
