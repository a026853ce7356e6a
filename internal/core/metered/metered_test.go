package metered_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
	"github.com/LeJamon/goPriceOracle/internal/core/metered"
	"github.com/LeJamon/goPriceOracle/internal/core/metered/mocks"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/host"
	"github.com/LeJamon/goPriceOracle/internal/storage/database/memory"
)

const (
	admin    oracle.Address = "admin"
	reader   oracle.Address = "reader"
	feeToken oracle.Address = "FEE"
	custody  oracle.Address = "custody"
	btc      oracle.Address = "BTC"
	eth      oracle.Address = "ETH"
)

type fixture struct {
	host *host.Host
	opts metered.Options
}

func newFixture(t *testing.T, transfer metered.Transferer) *fixture {
	t.Helper()
	h, err := host.New(memory.New())
	require.NoError(t, err)

	f := &fixture{
		host: h,
		opts: metered.Options{FeeAsset: feeToken, Custody: custody, Transferer: transfer},
	}
	f.exec(t, func(m *metered.Oracle) error {
		return m.Configure(admin, oracle.ConfigData{
			Admin:      admin,
			Assets:     []oracle.Address{btc, eth},
			BaseFee:    fixedpoint.FromInt64(100),
			BaseAsset:  "USD",
			Decimals:   14,
			Resolution: 300000,
		})
	})
	f.exec(t, func(m *metered.Oracle) error {
		return m.SetPrice(admin, []fixedpoint.Int128{norm(t, 100), norm(t, 4)}, 600000)
	})
	f.exec(t, func(m *metered.Oracle) error {
		return m.SetPrice(admin, []fixedpoint.Int128{norm(t, 200), norm(t, 8)}, 900000)
	})
	return f
}

func (f *fixture) call(fn func(m *metered.Oracle) error) error {
	return f.host.Execute(context.Background(), "test", func(st oracle.Storage) error {
		return fn(metered.New(st, f.opts))
	})
}

func (f *fixture) exec(t *testing.T, fn func(m *metered.Oracle) error) {
	t.Helper()
	require.NoError(t, f.call(fn))
}

func (f *fixture) balance(t *testing.T, account oracle.Address) fixedpoint.Int128 {
	t.Helper()
	var b fixedpoint.Int128
	f.exec(t, func(m *metered.Oracle) error {
		var err error
		b, _, err = m.Balance(account)
		return err
	})
	return b
}

func norm(t *testing.T, v int64) fixedpoint.Int128 {
	t.Helper()
	x, err := fixedpoint.Normalize(v, 14)
	require.NoError(t, err)
	return x
}

func TestDepositAndCharge(t *testing.T) {
	ctrl := gomock.NewController(t)
	transfer := mocks.NewMockTransferer(ctrl)
	transfer.EXPECT().
		Transfer(gomock.Any(), feeToken, reader, custody, fixedpoint.FromInt64(500)).
		Return(nil)

	f := newFixture(t, transfer)
	f.exec(t, func(m *metered.Oracle) error {
		return m.Deposit(context.Background(), reader, reader, feeToken, fixedpoint.FromInt64(500))
	})
	assert.Equal(t, fixedpoint.FromInt64(500), f.balance(t, reader))

	f.exec(t, func(m *metered.Oracle) error {
		_, err := m.Price(reader, btc, 900000)
		return err
	})
	f.exec(t, func(m *metered.Oracle) error {
		_, err := m.LastPrice(reader, btc)
		return err
	})
	f.exec(t, func(m *metered.Oracle) error {
		p, err := m.LastPrice(reader, eth)
		assert.Equal(t, norm(t, 8), p.Price)
		return err
	})
	assert.Equal(t, fixedpoint.FromInt64(200), f.balance(t, reader))

	err := f.call(func(m *metered.Oracle) error {
		_, err := m.Prices(reader, btc, 3)
		return err
	})
	assert.ErrorIs(t, err, oracle.ErrInsufficientBalance)
	assert.Equal(t, fixedpoint.FromInt64(200), f.balance(t, reader))
}

func TestChargeUnits(t *testing.T) {
	tests := []struct {
		name  string
		query func(m *metered.Oracle) error
		units int64
	}{
		{"price", func(m *metered.Oracle) error { _, err := m.Price(reader, btc, 900000); return err }, 1},
		{"lastprice", func(m *metered.Oracle) error { _, err := m.LastPrice(reader, btc); return err }, 1},
		{"x_price", func(m *metered.Oracle) error { _, err := m.XPrice(reader, btc, eth, 900000); return err }, 2},
		{"x_lt_price", func(m *metered.Oracle) error { _, err := m.XLastPrice(reader, btc, eth); return err }, 2},
		{"prices", func(m *metered.Oracle) error { _, err := m.Prices(reader, btc, 3); return err }, 3},
		{"x_prices", func(m *metered.Oracle) error { _, err := m.XPrices(reader, btc, eth, 3); return err }, 6},
		{"twap", func(m *metered.Oracle) error { _, err := m.TWAP(reader, btc, 2); return err }, 2},
		{"x_twap", func(m *metered.Oracle) error { _, err := m.XTWAP(reader, btc, eth, 2); return err }, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			transfer := mocks.NewMockTransferer(ctrl)
			transfer.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

			f := newFixture(t, transfer)
			f.exec(t, func(m *metered.Oracle) error {
				return m.Deposit(context.Background(), reader, reader, feeToken, fixedpoint.FromInt64(1000))
			})
			f.exec(t, tt.query)
			assert.Equal(t, fixedpoint.FromInt64(1000-100*tt.units), f.balance(t, reader))
		})
	}
}

func TestFailedQueryRollsBackCharge(t *testing.T) {
	ctrl := gomock.NewController(t)
	transfer := mocks.NewMockTransferer(ctrl)
	transfer.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	f := newFixture(t, transfer)
	f.exec(t, func(m *metered.Oracle) error {
		return m.Deposit(context.Background(), reader, reader, feeToken, fixedpoint.FromInt64(500))
	})

	err := f.call(func(m *metered.Oracle) error {
		_, err := m.XPrice(reader, btc, btc, 900000)
		return err
	})
	assert.ErrorIs(t, err, oracle.ErrInvalidAssetPair)
	assert.Equal(t, fixedpoint.FromInt64(500), f.balance(t, reader))
}

func TestQueryWithoutBalance(t *testing.T) {
	f := newFixture(t, nil)
	err := f.call(func(m *metered.Oracle) error {
		_, err := m.Price(reader, btc, 900000)
		return err
	})
	assert.ErrorIs(t, err, oracle.ErrInsufficientBalance)

	err = f.call(func(m *metered.Oracle) error {
		_, err := m.Price("", btc, 900000)
		return err
	})
	assert.ErrorIs(t, err, oracle.ErrUnauthorized)
}

func TestZeroFeeIsFree(t *testing.T) {
	f := newFixture(t, nil)
	f.exec(t, func(m *metered.Oracle) error {
		return m.SetFee(admin, fixedpoint.Zero)
	})
	f.exec(t, func(m *metered.Oracle) error {
		avg, err := m.TWAP(reader, btc, 2)
		require.NotNil(t, avg)
		assert.Equal(t, norm(t, 150), *avg)
		return err
	})
}

func TestDepositValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without transferer", func(t *testing.T) {
		f := newFixture(t, nil)
		err := f.call(func(m *metered.Oracle) error {
			return m.Deposit(ctx, reader, reader, feeToken, fixedpoint.FromInt64(1))
		})
		assert.ErrorIs(t, err, oracle.ErrDepositNotEnabled)
	})

	ctrl := gomock.NewController(t)
	transfer := mocks.NewMockTransferer(ctrl)
	f := newFixture(t, transfer)

	tests := []struct {
		name   string
		caller oracle.Address
		asset  oracle.Address
		amount int64
		want   error
	}{
		{"anonymous", "", feeToken, 10, oracle.ErrUnauthorized},
		{"zero amount", reader, feeToken, 0, oracle.ErrInvalidDepositAmount},
		{"negative amount", reader, feeToken, -10, oracle.ErrInvalidDepositAmount},
		{"wrong asset", reader, btc, 10, oracle.ErrInvalidFeeAsset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.call(func(m *metered.Oracle) error {
				return m.Deposit(ctx, tt.caller, reader, tt.asset, fixedpoint.FromInt64(tt.amount))
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("failed transfer credits nothing", func(t *testing.T) {
		failure := errors.New("insufficient funds")
		transfer.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(failure)

		err := f.call(func(m *metered.Oracle) error {
			return m.Deposit(ctx, reader, reader, feeToken, fixedpoint.FromInt64(10))
		})
		assert.ErrorIs(t, err, failure)
		assert.True(t, f.balance(t, reader).IsZero())
	})

	t.Run("credits another account", func(t *testing.T) {
		transfer.EXPECT().Transfer(gomock.Any(), feeToken, reader, custody, fixedpoint.FromInt64(10)).Return(nil)

		f.exec(t, func(m *metered.Oracle) error {
			return m.Deposit(ctx, reader, "beneficiary", feeToken, fixedpoint.FromInt64(10))
		})
		assert.Equal(t, fixedpoint.FromInt64(10), f.balance(t, "beneficiary"))
		assert.True(t, f.balance(t, reader).IsZero())
	})
}

func TestSetFee(t *testing.T) {
	f := newFixture(t, nil)

	err := f.call(func(m *metered.Oracle) error { return m.SetFee(reader, fixedpoint.FromInt64(1)) })
	assert.ErrorIs(t, err, oracle.ErrUnauthorized)

	err = f.call(func(m *metered.Oracle) error { return m.SetFee(admin, fixedpoint.FromInt64(-1)) })
	assert.ErrorIs(t, err, oracle.ErrInvalidPriceValue)

	f.exec(t, func(m *metered.Oracle) error { return m.SetFee(admin, fixedpoint.FromInt64(7)) })
	f.exec(t, func(m *metered.Oracle) error {
		fee, ok, err := m.BaseFee()
		assert.True(t, ok)
		assert.Equal(t, fixedpoint.FromInt64(7), fee)
		assert.Equal(t, feeToken, m.FeeAsset())
		return err
	})
}
