package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
	"github.com/LeJamon/goPriceOracle/internal/core/metered"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/rpc/rpc_types"
)

// Every query below is billed to the caller before it runs. A query that
// fails rolls its charge back with the rest of the call.

type assetParams struct {
	Asset     oracle.Address `json:"asset"`
	Timestamp *uint64        `json:"timestamp,omitempty"`
	Records   uint32         `json:"records,omitempty"`
}

func (p *assetParams) validate(needTimestamp bool) *rpc_types.RpcError {
	if p.Asset == "" {
		return rpc_types.RpcErrorMissingField("asset")
	}
	if needTimestamp && p.Timestamp == nil {
		return rpc_types.RpcErrorMissingField("timestamp")
	}
	return nil
}

type pairParams struct {
	BaseAsset  oracle.Address `json:"base_asset"`
	QuoteAsset oracle.Address `json:"quote_asset"`
	Timestamp  *uint64        `json:"timestamp,omitempty"`
	Records    uint32         `json:"records,omitempty"`
}

func (p *pairParams) validate(needTimestamp bool) *rpc_types.RpcError {
	if p.BaseAsset == "" {
		return rpc_types.RpcErrorMissingField("base_asset")
	}
	if p.QuoteAsset == "" {
		return rpc_types.RpcErrorMissingField("quote_asset")
	}
	if needTimestamp && p.Timestamp == nil {
		return rpc_types.RpcErrorMissingField("timestamp")
	}
	return nil
}

// singlePrice runs a query returning at most one observation.
func singlePrice(ctx *rpc_types.RpcContext, units uint64, query func(o *metered.Oracle) (*oracle.PriceData, error)) (interface{}, *rpc_types.RpcError) {
	if rpcErr := requireCaller(ctx); rpcErr != nil {
		return nil, rpcErr
	}

	var (
		price    *oracle.PriceData
		decimals uint32
	)
	rpcErr := execute(ctx, func(o *metered.Oracle) error {
		var err error
		if price, err = query(o); err != nil {
			return err
		}
		decimals, err = decimalsOf(o)
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	observeCharge(ctx, units)

	response := map[string]interface{}{"price": nil}
	if price != nil {
		response["price"] = renderPrice(*price, decimals)
	}
	return response, nil
}

// priceSeries runs a query returning a list of observations.
func priceSeries(ctx *rpc_types.RpcContext, units uint64, query func(o *metered.Oracle) ([]oracle.PriceData, error)) (interface{}, *rpc_types.RpcError) {
	if rpcErr := requireCaller(ctx); rpcErr != nil {
		return nil, rpcErr
	}

	var (
		prices   []oracle.PriceData
		decimals uint32
	)
	rpcErr := execute(ctx, func(o *metered.Oracle) error {
		var err error
		if prices, err = query(o); err != nil {
			return err
		}
		decimals, err = decimalsOf(o)
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	observeCharge(ctx, units)

	return map[string]interface{}{
		"prices": renderPrices(prices, decimals),
	}, nil
}

// average runs a query returning an optional mean price.
func average(ctx *rpc_types.RpcContext, units uint64, query func(o *metered.Oracle) (*fixedpoint.Int128, error)) (interface{}, *rpc_types.RpcError) {
	if rpcErr := requireCaller(ctx); rpcErr != nil {
		return nil, rpcErr
	}

	var (
		mean     *fixedpoint.Int128
		decimals uint32
	)
	rpcErr := execute(ctx, func(o *metered.Oracle) error {
		var err error
		if mean, err = query(o); err != nil {
			return err
		}
		decimals, err = decimalsOf(o)
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	observeCharge(ctx, units)

	raw, value := renderAmount(mean, decimals)
	return map[string]interface{}{
		"price": raw,
		"value": value,
	}, nil
}

// PriceMethod handles the price RPC method
type PriceMethod struct{}

func (m *PriceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request assetParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if rpcErr := request.validate(true); rpcErr != nil {
		return nil, rpcErr
	}
	return singlePrice(ctx, metered.UnitsSingle, func(o *metered.Oracle) (*oracle.PriceData, error) {
		return o.Price(ctx.Caller, request.Asset, *request.Timestamp)
	})
}

func (m *PriceMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}

// LastPriceMethod handles the lastprice RPC method
type LastPriceMethod struct{}

func (m *LastPriceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request assetParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if rpcErr := request.validate(false); rpcErr != nil {
		return nil, rpcErr
	}
	return singlePrice(ctx, metered.UnitsSingle, func(o *metered.Oracle) (*oracle.PriceData, error) {
		return o.LastPrice(ctx.Caller, request.Asset)
	})
}

func (m *LastPriceMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}

// XPriceMethod handles the x_price RPC method
type XPriceMethod struct{}

func (m *XPriceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request pairParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if rpcErr := request.validate(true); rpcErr != nil {
		return nil, rpcErr
	}
	return singlePrice(ctx, metered.UnitsCross, func(o *metered.Oracle) (*oracle.PriceData, error) {
		return o.XPrice(ctx.Caller, request.BaseAsset, request.QuoteAsset, *request.Timestamp)
	})
}

func (m *XPriceMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}

// XLastPriceMethod handles the x_lt_price RPC method
type XLastPriceMethod struct{}

func (m *XLastPriceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request pairParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if rpcErr := request.validate(false); rpcErr != nil {
		return nil, rpcErr
	}
	return singlePrice(ctx, metered.UnitsCross, func(o *metered.Oracle) (*oracle.PriceData, error) {
		return o.XLastPrice(ctx.Caller, request.BaseAsset, request.QuoteAsset)
	})
}

func (m *XLastPriceMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}

// PricesMethod handles the prices RPC method
type PricesMethod struct{}

func (m *PricesMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request assetParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if rpcErr := request.validate(false); rpcErr != nil {
		return nil, rpcErr
	}
	return priceSeries(ctx, uint64(request.Records), func(o *metered.Oracle) ([]oracle.PriceData, error) {
		return o.Prices(ctx.Caller, request.Asset, request.Records)
	})
}

func (m *PricesMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}

// XPricesMethod handles the x_prices RPC method
type XPricesMethod struct{}

func (m *XPricesMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request pairParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if rpcErr := request.validate(false); rpcErr != nil {
		return nil, rpcErr
	}
	return priceSeries(ctx, metered.UnitsCross*uint64(request.Records), func(o *metered.Oracle) ([]oracle.PriceData, error) {
		return o.XPrices(ctx.Caller, request.BaseAsset, request.QuoteAsset, request.Records)
	})
}

func (m *XPricesMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}

// TWAPMethod handles the twap RPC method
type TWAPMethod struct{}

func (m *TWAPMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request assetParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if rpcErr := request.validate(false); rpcErr != nil {
		return nil, rpcErr
	}
	return average(ctx, uint64(request.Records), func(o *metered.Oracle) (*fixedpoint.Int128, error) {
		return o.TWAP(ctx.Caller, request.Asset, request.Records)
	})
}

func (m *TWAPMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}

// XTWAPMethod handles the x_twap RPC method
type XTWAPMethod struct{}

func (m *XTWAPMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request pairParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if rpcErr := request.validate(false); rpcErr != nil {
		return nil, rpcErr
	}
	return average(ctx, metered.UnitsCross*uint64(request.Records), func(o *metered.Oracle) (*fixedpoint.Int128, error) {
		return o.XTWAP(ctx.Caller, request.BaseAsset, request.QuoteAsset, request.Records)
	})
}

func (m *XTWAPMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}
