package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPriceOracle/internal/auth"
	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
	"github.com/LeJamon/goPriceOracle/internal/core/metered"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/host"
	"github.com/LeJamon/goPriceOracle/internal/metrics"
	"github.com/LeJamon/goPriceOracle/internal/rpc/rpc_types"
	"github.com/LeJamon/goPriceOracle/internal/storage/custody"
	"github.com/LeJamon/goPriceOracle/internal/storage/database/memory"
)

const feeAsset oracle.Address = "FEE"

type testEnv struct {
	clock   *host.FixedClock
	ledger  *custody.Ledger
	metrics *metrics.Collector
	http    *httptest.Server

	adminKey *auth.KeyPair
	userKey  *auth.KeyPair

	admin *Client
	user  *Client
	guest *Client
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	clock := host.NewFixedClock(time.Unix(1_700_000_000, 0))
	h, err := host.New(memory.New(), host.WithClock(clock))
	require.NoError(t, err)

	ledger, err := custody.Open(context.Background(), custody.SQLiteConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	collector := metrics.NewCollector(false)
	services := &rpc_types.ServiceContainer{
		Host: h,
		Oracle: metered.Options{
			FeeAsset:   feeAsset,
			Custody:    "custody",
			Transferer: ledger,
		},
		Charges: collector,
	}
	verifier := auth.NewVerifier(time.Minute, clock.Now)

	server := NewServer(services, verifier, append([]Option{WithMetrics(collector)}, opts...)...)
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	adminKey, err := auth.GenerateKey()
	require.NoError(t, err)
	userKey, err := auth.GenerateKey()
	require.NoError(t, err)

	// signatures are deterministic, so every request needs its own timestamp
	var calls atomic.Int64
	tick := func() time.Time {
		return clock.Now().Add(time.Duration(calls.Add(1)) * time.Millisecond)
	}

	return &testEnv{
		clock:    clock,
		ledger:   ledger,
		metrics:  collector,
		http:     ts,
		adminKey: adminKey,
		userKey:  userKey,
		admin:    NewClient(ts.URL, WithKey(adminKey), WithClientClock(tick)),
		user:     NewClient(ts.URL, WithKey(userKey), WithClientClock(tick)),
		guest:    NewClient(ts.URL),
	}
}

func (e *testEnv) configure(t *testing.T) {
	t.Helper()
	err := e.admin.Call(context.Background(), "config", map[string]interface{}{
		"admin":      e.adminKey.Principal(),
		"period":     86400,
		"assets":     []string{"BTC", "ETH"},
		"base_fee":   "0",
		"base_asset": "USD",
		"decimals":   14,
		"resolution": 300,
	}, nil)
	require.NoError(t, err)
}

// publish writes BTC and ETH prices given in whole units
func (e *testEnv) publish(t *testing.T, timestamp uint64, btc, eth int64) {
	t.Helper()
	updates := []string{whole(t, btc).String(), whole(t, eth).String()}
	err := e.admin.Call(context.Background(), "set_price", map[string]interface{}{
		"updates":   updates,
		"timestamp": timestamp,
	}, nil)
	require.NoError(t, err)
}

func whole(t *testing.T, v int64) fixedpoint.Int128 {
	t.Helper()
	n, err := fixedpoint.Normalize(v, 14)
	require.NoError(t, err)
	return n
}

func rpcError(t *testing.T, err error) *rpc_types.RpcError {
	t.Helper()
	var rpcErr *rpc_types.RpcError
	require.True(t, errors.As(err, &rpcErr), "expected an RPC error, got %v", err)
	return rpcErr
}

type priceResponse struct {
	Price *rpc_types.PriceResult `json:"price"`
}

type pricesResponse struct {
	Prices []rpc_types.PriceResult `json:"prices"`
}

type averageResponse struct {
	Price *string `json:"price"`
	Value *string `json:"value"`
}

func TestMethodsRegistered(t *testing.T) {
	server := NewServer(&rpc_types.ServiceContainer{}, nil)
	assert.ElementsMatch(t, []string{
		"config", "add_assets", "set_fee", "set_price",
		"deposit", "balance", "fee_asset", "base_fee",
		"admin", "base", "decimals", "resolution", "period", "assets", "last_timestamp",
		"price", "lastprice", "x_price", "x_lt_price", "prices", "x_prices", "twap", "x_twap",
	}, server.Methods())
}

func TestConfigurationReads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var unset struct {
		Decimals *uint32 `json:"decimals"`
	}
	require.NoError(t, env.guest.Call(ctx, "decimals", nil, &unset))
	assert.Nil(t, unset.Decimals)

	env.configure(t)

	var admin struct {
		Admin string `json:"admin"`
	}
	require.NoError(t, env.guest.Call(ctx, "admin", nil, &admin))
	assert.Equal(t, string(env.adminKey.Principal()), admin.Admin)

	var assets struct {
		Assets []string `json:"assets"`
	}
	require.NoError(t, env.guest.Call(ctx, "assets", nil, &assets))
	assert.Equal(t, []string{"BTC", "ETH"}, assets.Assets)

	var decimals struct {
		Decimals uint32 `json:"decimals"`
	}
	require.NoError(t, env.guest.Call(ctx, "decimals", nil, &decimals))
	assert.Equal(t, uint32(14), decimals.Decimals)

	var base struct {
		Base string `json:"base"`
	}
	require.NoError(t, env.guest.Call(ctx, "base", nil, &base))
	assert.Equal(t, "USD", base.Base)

	var fee struct {
		FeeAsset string `json:"fee_asset"`
	}
	require.NoError(t, env.guest.Call(ctx, "fee_asset", nil, &fee))
	assert.Equal(t, "FEE", fee.FeeAsset)

	// decimals cannot change once set
	err := env.admin.Call(ctx, "config", map[string]interface{}{
		"admin": env.adminKey.Principal(), "base_asset": "USD", "decimals": 8, "resolution": 300,
	}, nil)
	assert.Equal(t, oracle.ErrAlreadyInitialized, rpcError(t, err).AsOracleError())
}

func TestAdminWritesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t)
	ctx := context.Background()

	err := env.user.Call(ctx, "set_price", map[string]interface{}{
		"updates": []string{"1", "2"}, "timestamp": 600,
	}, nil)
	rpcErr := rpcError(t, err)
	assert.Equal(t, 2, rpcErr.Code)
	assert.Equal(t, "Unauthorized", rpcErr.ErrorString)

	err = env.guest.Call(ctx, "set_price", map[string]interface{}{"updates": []string{"1", "2"}}, nil)
	assert.Equal(t, rpc_types.RpcUNAUTHENTICATED, rpcError(t, err).Code)

	err = env.admin.Call(ctx, "add_assets", map[string]interface{}{"assets": []string{"BTC"}}, nil)
	assert.Equal(t, oracle.ErrAssetAlreadyPresented, rpcError(t, err).AsOracleError())

	var added struct {
		Assets []string `json:"assets"`
	}
	require.NoError(t, env.admin.Call(ctx, "add_assets", map[string]interface{}{"assets": []string{"SOL"}}, &added))
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, added.Assets)
}

func TestSetPriceUsesClock(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t)
	ctx := context.Background()

	var stored struct {
		Timestamp uint64 `json:"timestamp"`
	}
	err := env.admin.Call(ctx, "set_price", map[string]interface{}{
		"updates": []string{whole(t, 1).String(), whole(t, 2).String()},
	}, &stored)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_699_999_800), stored.Timestamp)

	var last struct {
		LastTimestamp uint64 `json:"last_timestamp"`
	}
	require.NoError(t, env.guest.Call(ctx, "last_timestamp", nil, &last))
	assert.Equal(t, uint64(1_699_999_800), last.LastTimestamp)
}

func TestPriceQueries(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t)
	env.publish(t, 600, 100, 4)
	env.publish(t, 900, 200, 8)
	ctx := context.Background()

	var p priceResponse
	require.NoError(t, env.user.Call(ctx, "price", map[string]interface{}{"asset": "BTC", "timestamp": 650}, &p))
	require.NotNil(t, p.Price)
	assert.Equal(t, rpc_types.PriceResult{Price: "10000000000000000", Value: "100", Timestamp: 600}, *p.Price)

	require.NoError(t, env.user.Call(ctx, "lastprice", map[string]interface{}{"asset": "ETH"}, &p))
	require.NotNil(t, p.Price)
	assert.Equal(t, "8", p.Price.Value)

	require.NoError(t, env.user.Call(ctx, "x_price", map[string]interface{}{
		"base_asset": "BTC", "quote_asset": "ETH", "timestamp": 900,
	}, &p))
	require.NotNil(t, p.Price)
	assert.Equal(t, "25", p.Price.Value)

	require.NoError(t, env.user.Call(ctx, "x_lt_price", map[string]interface{}{
		"base_asset": "ETH", "quote_asset": "BTC",
	}, &p))
	require.NotNil(t, p.Price)
	assert.Equal(t, "0.04", p.Price.Value)

	var missing priceResponse
	require.NoError(t, env.user.Call(ctx, "price", map[string]interface{}{"asset": "BTC", "timestamp": 300}, &missing))
	assert.Nil(t, missing.Price)

	var series pricesResponse
	require.NoError(t, env.user.Call(ctx, "prices", map[string]interface{}{"asset": "BTC", "records": 3}, &series))
	require.Len(t, series.Prices, 2)
	assert.Equal(t, uint64(900), series.Prices[0].Timestamp)
	assert.Equal(t, uint64(600), series.Prices[1].Timestamp)

	require.NoError(t, env.user.Call(ctx, "x_prices", map[string]interface{}{
		"base_asset": "BTC", "quote_asset": "ETH", "records": 2,
	}, &series))
	require.Len(t, series.Prices, 2)
	assert.Equal(t, "25", series.Prices[0].Value)
	assert.Equal(t, "25", series.Prices[1].Value)

	var avg averageResponse
	require.NoError(t, env.user.Call(ctx, "twap", map[string]interface{}{"asset": "BTC", "records": 2}, &avg))
	require.NotNil(t, avg.Price)
	assert.Equal(t, "15000000000000000", *avg.Price)
	assert.Equal(t, "150", *avg.Value)

	require.NoError(t, env.user.Call(ctx, "x_twap", map[string]interface{}{
		"base_asset": "BTC", "quote_asset": "ETH", "records": 2,
	}, &avg))
	require.NotNil(t, avg.Value)
	assert.Equal(t, "25", *avg.Value)

	err := env.user.Call(ctx, "x_price", map[string]interface{}{
		"base_asset": "BTC", "quote_asset": "BTC", "timestamp": 900,
	}, &p)
	assert.Equal(t, oracle.ErrInvalidAssetPair, rpcError(t, err).AsOracleError())
}

func TestQueriesRequireSignature(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t)

	err := env.guest.Call(context.Background(), "lastprice", map[string]interface{}{"asset": "BTC"}, nil)
	rpcErr := rpcError(t, err)
	assert.Equal(t, rpc_types.RpcUNAUTHENTICATED, rpcErr.Code)
	assert.Nil(t, rpcErr.AsOracleError())
}

func TestStaleSignatureRejected(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t)

	stale := NewClient(env.http.URL, WithKey(env.userKey), WithClientClock(func() time.Time {
		return env.clock.Now().Add(-time.Hour)
	}))
	err := stale.Call(context.Background(), "lastprice", map[string]interface{}{"asset": "BTC"}, nil)
	assert.Equal(t, rpc_types.RpcUNAUTHENTICATED, rpcError(t, err).Code)
}

func TestDepositAndCharges(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t)
	env.publish(t, 600, 100, 4)
	ctx := context.Background()

	require.NoError(t, env.admin.Call(ctx, "set_fee", map[string]interface{}{"fee": "100"}, nil))

	err := env.user.Call(ctx, "lastprice", map[string]interface{}{"asset": "BTC"}, nil)
	assert.Equal(t, oracle.ErrInsufficientBalance, rpcError(t, err).AsOracleError())

	user := env.userKey.Principal()
	require.NoError(t, env.ledger.Mint(ctx, feeAsset, user, fixedpoint.FromInt64(1000)))

	err = env.user.Call(ctx, "deposit", map[string]interface{}{"asset": "XYZ", "amount": "500"}, nil)
	assert.Equal(t, oracle.ErrInvalidFeeAsset, rpcError(t, err).AsOracleError())

	var deposited struct {
		Account string `json:"account"`
		Balance string `json:"balance"`
	}
	require.NoError(t, env.user.Call(ctx, "deposit", map[string]interface{}{"asset": "FEE", "amount": "500"}, &deposited))
	assert.Equal(t, string(user), deposited.Account)
	assert.Equal(t, "500", deposited.Balance)

	held, err := env.ledger.BalanceOf(ctx, feeAsset, user)
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.FromInt64(500), held)

	// a shortfall on the ledger is a client error and credits nothing
	err = env.user.Call(ctx, "deposit", map[string]interface{}{"asset": "FEE", "amount": "501"}, nil)
	rpcErr := rpcError(t, err)
	assert.Equal(t, int(oracle.ErrInsufficientBalance.Code), rpcErr.Code)
	assert.Equal(t, oracle.ErrInsufficientBalance, rpcErr.AsOracleError())
	held, err = env.ledger.BalanceOf(ctx, feeAsset, user)
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.FromInt64(500), held)

	require.NoError(t, env.user.Call(ctx, "lastprice", map[string]interface{}{"asset": "BTC"}, nil))
	require.NoError(t, env.user.Call(ctx, "x_lt_price", map[string]interface{}{"base_asset": "BTC", "quote_asset": "ETH"}, nil))

	var balance struct {
		Balance *string `json:"balance"`
	}
	require.NoError(t, env.guest.Call(ctx, "balance", map[string]interface{}{"account": user}, &balance))
	require.NotNil(t, balance.Balance)
	assert.Equal(t, "200", *balance.Balance)

	// a failed charge leaves the balance untouched
	err = env.user.Call(ctx, "prices", map[string]interface{}{"asset": "BTC", "records": 3}, nil)
	assert.Equal(t, oracle.ErrInsufficientBalance, rpcError(t, err).AsOracleError())
	require.NoError(t, env.user.Call(ctx, "balance", nil, &balance))
	assert.Equal(t, "200", *balance.Balance)

	var fee struct {
		BaseFee string `json:"base_fee"`
	}
	require.NoError(t, env.guest.Call(ctx, "base_fee", nil, &fee))
	assert.Equal(t, "100", fee.BaseFee)
}

func TestProtocolErrors(t *testing.T) {
	env := newTestEnv(t)

	post := func(body string) map[string]interface{} {
		resp, err := http.Post(env.http.URL+"/rpc", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

		var envelope struct {
			Result map[string]interface{} `json:"result"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
		return envelope.Result
	}

	result := post(`{not json`)
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, "jsonInvalid", result["error"])

	result = post(`{"params": [{}]}`)
	assert.Equal(t, "missingCommand", result["error"])

	result = post(`{"method": "nope"}`)
	assert.Equal(t, "unknownCmd", result["error"])

	result = post(`{"method": "price", "params": [{"asset": 5}], "auth": {"public_key": "zz", "signature": "00", "timestamp": 0}}`)
	assert.Equal(t, "unauthenticated", result["error"])
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, WithRateLimit(0.001, 1))

	first, err := http.Post(env.http.URL+"/rpc", "application/json", bytes.NewBufferString(`{"method":"decimals"}`))
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, err := http.Post(env.http.URL+"/rpc", "application/json", bytes.NewBufferString(`{"method":"decimals"}`))
	require.NoError(t, err)
	second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t)

	resp, err := http.Get(env.http.URL + "/health")
	require.NoError(t, err)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health["status"])

	rec := httptest.NewRecorder()
	env.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `oracled_rpc_requests_total{method="config",status="success"} 1`)
}
