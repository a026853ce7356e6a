// Package metered wraps the oracle core with prepaid, pay-per-query access.
// Every billable query debits the caller's balance by the base fee times the
// number of price lookups it implies before the query runs.
package metered

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/logging"
)

// Lookup units charged per query.
const (
	UnitsSingle = 1 // price, lastprice
	UnitsCross  = 2 // x_price, x_lt_price
)

//go:generate mockgen -destination=mocks/transferer.go -package=mocks . Transferer

// Transferer moves tokens between accounts. Deposits use it to pull the fee
// asset from the caller into the oracle's custody account.
type Transferer interface {
	Transfer(ctx context.Context, asset, from, to oracle.Address, amount fixedpoint.Int128) error
}

// Options configures the metered oracle.
type Options struct {
	// FeeAsset is the only asset accepted by Deposit
	FeeAsset oracle.Address

	// Custody is the account deposits are transferred to
	Custody oracle.Address

	// Transferer performs deposit transfers. Deposits are disabled when nil.
	Transferer Transferer

	Logger *logrus.Entry
}

// Oracle is the metered oracle over one Storage.
type Oracle struct {
	core *oracle.PriceOracle
	env  *oracle.Env
	opts Options
	log  *logrus.Entry
}

// New returns a metered oracle over store.
func New(store oracle.Storage, opts Options) *Oracle {
	log := opts.Logger
	if log == nil {
		log = logging.New("metered")
	}
	core := oracle.New(store)
	return &Oracle{core: core, env: core.Env(), opts: opts, log: log}
}

// Core returns the unmetered oracle sharing the same storage.
func (m *Oracle) Core() *oracle.PriceOracle {
	return m.core
}

// Configure writes the configuration, including the base fee.
func (m *Oracle) Configure(caller oracle.Address, cfg oracle.ConfigData) error {
	return m.core.Configure(caller, cfg)
}

// AddAssets registers more assets.
func (m *Oracle) AddAssets(caller oracle.Address, assets []oracle.Address) error {
	return m.core.AddAssets(caller, assets)
}

// SetPrice records prices for every registered asset.
func (m *Oracle) SetPrice(caller oracle.Address, updates []fixedpoint.Int128, timestamp uint64) error {
	return m.core.SetPrice(caller, updates, timestamp)
}

// SetFee sets the per-unit query fee. Admin only.
func (m *Oracle) SetFee(caller oracle.Address, fee fixedpoint.Int128) error {
	ok, err := m.env.IsAdmin(caller)
	if err != nil {
		return err
	}
	if !ok {
		return oracle.ErrUnauthorized
	}
	if fee.Sign() < 0 {
		return oracle.ErrInvalidPriceValue
	}
	return m.env.SetBaseFee(fee)
}

// FeeAsset returns the asset accepted by Deposit.
func (m *Oracle) FeeAsset() oracle.Address {
	return m.opts.FeeAsset
}

// BaseFee returns the per-unit query fee.
func (m *Oracle) BaseFee() (fixedpoint.Int128, bool, error) {
	return m.env.BaseFee()
}

// Balance returns the prepaid balance of account.
func (m *Oracle) Balance(account oracle.Address) (fixedpoint.Int128, bool, error) {
	return m.env.Balance(account)
}

// Deposit transfers amount of the fee asset from caller into custody and
// credits account. Nothing is credited if the transfer fails.
func (m *Oracle) Deposit(ctx context.Context, caller, account, asset oracle.Address, amount fixedpoint.Int128) error {
	if caller == "" {
		return oracle.ErrUnauthorized
	}
	if m.opts.Transferer == nil || m.opts.FeeAsset == "" {
		return oracle.ErrDepositNotEnabled
	}
	if amount.Sign() <= 0 {
		return oracle.ErrInvalidDepositAmount
	}
	if asset != m.opts.FeeAsset {
		return oracle.ErrInvalidFeeAsset
	}
	if account == "" {
		account = caller
	}

	balance, _, err := m.env.Balance(account)
	if err != nil {
		return err
	}
	next, err := balance.Add(amount)
	if err != nil {
		return oracle.ErrInvalidDepositAmount
	}

	if err := m.opts.Transferer.Transfer(ctx, asset, caller, m.opts.Custody, amount); err != nil {
		return err
	}
	if err := m.env.SetBalance(account, next); err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{
		"caller":  caller,
		"account": account,
		"amount":  amount.String(),
		"balance": next.String(),
	}).Info("Deposit credited")
	return nil
}

// Charge debits base fee times units from account, failing with
// ErrInsufficientBalance if the balance would go negative.
func (m *Oracle) Charge(account oracle.Address, units uint64) error {
	if account == "" {
		return oracle.ErrUnauthorized
	}
	fee, _, err := m.env.BaseFee()
	if err != nil {
		return err
	}
	debit, err := fee.Mul(fixedpoint.FromUint64(units))
	if err != nil {
		return oracle.ErrInsufficientBalance
	}
	if debit.IsZero() {
		return nil
	}

	balance, _, err := m.env.Balance(account)
	if err != nil {
		return err
	}
	next, err := balance.Sub(debit)
	if err != nil || next.Sign() < 0 {
		return oracle.ErrInsufficientBalance
	}
	if err := m.env.SetBalance(account, next); err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{
		"account": account,
		"units":   units,
		"debit":   debit.String(),
	}).Debug("Query charged")
	return nil
}
