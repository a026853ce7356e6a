package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goPriceOracle/internal/core/metered"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/rpc/rpc_types"
)

// settingReader reads one configuration value. ok is false when the value
// has never been written.
type settingReader func(o *oracle.PriceOracle) (value interface{}, ok bool, err error)

// readSetting renders {field: value}, with null for an unset value.
func readSetting(ctx *rpc_types.RpcContext, field string, read settingReader) (interface{}, *rpc_types.RpcError) {
	var value interface{}
	rpcErr := view(ctx, func(o *metered.Oracle) error {
		v, ok, err := read(o.Core())
		if ok {
			value = v
		}
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]interface{}{field: value}, nil
}

// AdminMethod handles the admin RPC method
type AdminMethod struct{}

func (m *AdminMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return readSetting(ctx, "admin", func(o *oracle.PriceOracle) (interface{}, bool, error) {
		return o.Admin()
	})
}

func (m *AdminMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

// BaseMethod handles the base RPC method
type BaseMethod struct{}

func (m *BaseMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return readSetting(ctx, "base", func(o *oracle.PriceOracle) (interface{}, bool, error) {
		return o.Base()
	})
}

func (m *BaseMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

// DecimalsMethod handles the decimals RPC method
type DecimalsMethod struct{}

func (m *DecimalsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return readSetting(ctx, "decimals", func(o *oracle.PriceOracle) (interface{}, bool, error) {
		return o.Decimals()
	})
}

func (m *DecimalsMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

// ResolutionMethod handles the resolution RPC method
type ResolutionMethod struct{}

func (m *ResolutionMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return readSetting(ctx, "resolution", func(o *oracle.PriceOracle) (interface{}, bool, error) {
		return o.Resolution()
	})
}

func (m *ResolutionMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

// PeriodMethod handles the period RPC method
type PeriodMethod struct{}

func (m *PeriodMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return readSetting(ctx, "period", func(o *oracle.PriceOracle) (interface{}, bool, error) {
		return o.Period()
	})
}

func (m *PeriodMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

// AssetsMethod handles the assets RPC method
type AssetsMethod struct{}

func (m *AssetsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return readSetting(ctx, "assets", func(o *oracle.PriceOracle) (interface{}, bool, error) {
		ok, err := o.Env().Storage().Has(oracle.AssetsKey)
		if err != nil || !ok {
			return nil, false, err
		}
		assets, err := o.Assets()
		if assets == nil {
			assets = []oracle.Address{}
		}
		return assets, true, err
	})
}

func (m *AssetsMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

// LastTimestampMethod handles the last_timestamp RPC method
type LastTimestampMethod struct{}

func (m *LastTimestampMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return readSetting(ctx, "last_timestamp", func(o *oracle.PriceOracle) (interface{}, bool, error) {
		return o.LastTimestamp()
	})
}

func (m *LastTimestampMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
