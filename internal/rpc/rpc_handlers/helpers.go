package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
	"github.com/LeJamon/goPriceOracle/internal/core/metered"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/rpc/rpc_types"
)

// parseParams decodes params into out. Empty params leave out untouched.
func parseParams(params json.RawMessage, out interface{}) *rpc_types.RpcError {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	return nil
}

// execute runs fn as a committing host call. Writes made by fn are kept only
// when it succeeds.
func execute(ctx *rpc_types.RpcContext, fn func(m *metered.Oracle) error) *rpc_types.RpcError {
	return run(ctx, true, fn)
}

// view runs fn as a read-only host call.
func view(ctx *rpc_types.RpcContext, fn func(m *metered.Oracle) error) *rpc_types.RpcError {
	return run(ctx, false, fn)
}

func run(ctx *rpc_types.RpcContext, commit bool, fn func(m *metered.Oracle) error) *rpc_types.RpcError {
	s := ctx.Services
	if s == nil || s.Host == nil {
		return rpc_types.RpcErrorInternal("Oracle host not available")
	}
	call := func(store oracle.Storage) error {
		return fn(metered.New(store, s.Oracle))
	}

	var err error
	if commit {
		err = s.Host.Execute(ctx.Context, ctx.Method, call)
	} else {
		err = s.Host.View(ctx.Context, ctx.Method, call)
	}
	if err != nil {
		return rpc_types.FromError(err)
	}
	return nil
}

// observeCharge reports units charged by a successful query.
func observeCharge(ctx *rpc_types.RpcContext, units uint64) {
	if ctx.Services != nil && ctx.Services.Charges != nil {
		ctx.Services.Charges.ObserveCharge(ctx.Method, units)
	}
}

func renderPrice(p oracle.PriceData, decimals uint32) rpc_types.PriceResult {
	return rpc_types.PriceResult{
		Price:     p.Price.String(),
		Value:     p.Price.Decimal(decimals).String(),
		Timestamp: p.Timestamp,
	}
}

func renderPrices(prices []oracle.PriceData, decimals uint32) []rpc_types.PriceResult {
	if prices == nil {
		return nil
	}
	out := make([]rpc_types.PriceResult, len(prices))
	for i, p := range prices {
		out[i] = renderPrice(p, decimals)
	}
	return out
}

// renderAmount returns the raw and scaled renderings of an optional amount.
func renderAmount(v *fixedpoint.Int128, decimals uint32) (interface{}, interface{}) {
	if v == nil {
		return nil, nil
	}
	return v.String(), v.Decimal(decimals).String()
}

// decimalsOf reads the configured precision. An unconfigured oracle renders
// with zero decimals.
func decimalsOf(m *metered.Oracle) (uint32, error) {
	d, _, err := m.Core().Decimals()
	return d, err
}

// requireCaller rejects requests without an authenticated caller
func requireCaller(ctx *rpc_types.RpcContext) *rpc_types.RpcError {
	if ctx.Role < rpc_types.RoleIdentified || ctx.Caller == "" {
		return rpc_types.RpcErrorUnauthenticated("Method requires a signed request")
	}
	return nil
}
