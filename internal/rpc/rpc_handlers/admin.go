package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
	"github.com/LeJamon/goPriceOracle/internal/core/metered"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/rpc/rpc_types"
)

// ConfigMethod handles the config RPC method. The signed caller becomes the
// invoker; the admin named in the params is the one stored.
type ConfigMethod struct{}

func (m *ConfigMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request oracle.ConfigData
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if request.Admin == "" {
		return nil, rpc_types.RpcErrorMissingField("admin")
	}
	if request.BaseAsset == "" {
		return nil, rpc_types.RpcErrorMissingField("base_asset")
	}

	rpcErr := execute(ctx, func(o *metered.Oracle) error {
		return o.Configure(ctx.Caller, request)
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]interface{}{}, nil
}

func (m *ConfigMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}

// AddAssetsMethod handles the add_assets RPC method
type AddAssetsMethod struct{}

func (m *AddAssetsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Assets []oracle.Address `json:"assets"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}

	var assets []oracle.Address
	rpcErr := execute(ctx, func(o *metered.Oracle) error {
		if err := o.AddAssets(ctx.Caller, request.Assets); err != nil {
			return err
		}
		var err error
		assets, err = o.Core().Assets()
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]interface{}{
		"assets": assets,
	}, nil
}

func (m *AddAssetsMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}

// SetFeeMethod handles the set_fee RPC method
type SetFeeMethod struct{}

func (m *SetFeeMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Fee *fixedpoint.Int128 `json:"fee"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if request.Fee == nil {
		return nil, rpc_types.RpcErrorMissingField("fee")
	}

	rpcErr := execute(ctx, func(o *metered.Oracle) error {
		return o.SetFee(ctx.Caller, *request.Fee)
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]interface{}{
		"base_fee": request.Fee.String(),
	}, nil
}

func (m *SetFeeMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}

// SetPriceMethod handles the set_price RPC method. Updates are raw
// fixed-point integers in registered asset order. Without a timestamp the
// host clock is used.
type SetPriceMethod struct{}

func (m *SetPriceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Updates   []fixedpoint.Int128 `json:"updates"`
		Timestamp *uint64             `json:"timestamp,omitempty"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if request.Updates == nil {
		return nil, rpc_types.RpcErrorMissingField("updates")
	}
	if ctx.Services == nil || ctx.Services.Host == nil {
		return nil, rpc_types.RpcErrorInternal("Oracle host not available")
	}

	timestamp := ctx.Services.Host.Now()
	if request.Timestamp != nil {
		timestamp = *request.Timestamp
	}

	var stored uint64
	rpcErr := execute(ctx, func(o *metered.Oracle) error {
		if err := o.SetPrice(ctx.Caller, request.Updates, timestamp); err != nil {
			return err
		}
		var err error
		stored, _, err = o.Core().LastTimestamp()
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]interface{}{
		"timestamp": stored,
	}, nil
}

func (m *SetPriceMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}
