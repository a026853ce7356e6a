package oracle

import "github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"

// Env gives typed access to the configuration and price ledger kept in a
// Storage.
type Env struct {
	store Storage
}

// NewEnv wraps store.
func NewEnv(store Storage) *Env {
	return &Env{store: store}
}

// Storage returns the underlying store.
func (e *Env) Storage() Storage {
	return e.store
}

// IsInitialized reports whether an admin has been configured.
func (e *Env) IsInitialized() (bool, error) {
	return e.store.Has(AdminKey)
}

// IsAdmin reports whether caller is the configured admin. It is false when no
// admin is stored.
func (e *Env) IsAdmin(caller Address) (bool, error) {
	admin, ok, err := e.Admin()
	if err != nil || !ok {
		return false, err
	}
	return caller != "" && caller == admin, nil
}

func (e *Env) Admin() (Address, bool, error) {
	return get[Address](e.store, AdminKey)
}

func (e *Env) SetAdmin(admin Address) error {
	return e.store.Set(AdminKey, admin)
}

func (e *Env) Base() (Address, bool, error) {
	return get[Address](e.store, BaseKey)
}

func (e *Env) SetBase(base Address) error {
	return e.store.Set(BaseKey, base)
}

func (e *Env) Decimals() (uint32, bool, error) {
	return get[uint32](e.store, DecimalsKey)
}

func (e *Env) SetDecimals(decimals uint32) error {
	return e.store.Set(DecimalsKey, decimals)
}

func (e *Env) Resolution() (uint32, bool, error) {
	return get[uint32](e.store, ResolutionKey)
}

func (e *Env) SetResolution(resolution uint32) error {
	return e.store.Set(ResolutionKey, resolution)
}

func (e *Env) Period() (uint64, bool, error) {
	return get[uint64](e.store, RdmPeriodKey)
}

func (e *Env) SetPeriod(period uint64) error {
	return e.store.Set(RdmPeriodKey, period)
}

// Assets returns the registered assets, or an empty list before the first
// configuration.
func (e *Env) Assets() ([]Address, error) {
	assets, _, err := get[[]Address](e.store, AssetsKey)
	return assets, err
}

func (e *Env) SetAssets(assets []Address) error {
	return e.store.Set(AssetsKey, assets)
}

func (e *Env) BaseFee() (fixedpoint.Int128, bool, error) {
	return get[fixedpoint.Int128](e.store, BaseFeeKey)
}

func (e *Env) SetBaseFee(fee fixedpoint.Int128) error {
	return e.store.Set(BaseFeeKey, fee)
}

// Price returns the price of asset stored at exactly timestamp.
func (e *Env) Price(asset Address, timestamp uint64) (fixedpoint.Int128, bool, error) {
	return get[fixedpoint.Int128](e.store, PriceKey(asset, timestamp))
}

func (e *Env) SetPrice(asset Address, price fixedpoint.Int128, timestamp uint64) error {
	return e.store.Set(PriceKey(asset, timestamp), price)
}

// LastTimestamp returns the marker of the most recent price write.
func (e *Env) LastTimestamp() (uint64, bool, error) {
	return get[uint64](e.store, TimestampKey)
}

func (e *Env) SetLastTimestamp(timestamp uint64) error {
	return e.store.Set(TimestampKey, timestamp)
}

// Balance returns the prepaid balance of account. A missing balance is zero.
func (e *Env) Balance(account Address) (fixedpoint.Int128, bool, error) {
	return get[fixedpoint.Int128](e.store, BalanceKey(account))
}

func (e *Env) SetBalance(account Address, balance fixedpoint.Int128) error {
	return e.store.Set(BalanceKey(account), balance)
}
