package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
	"github.com/LeJamon/goPriceOracle/internal/core/metered"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/rpc/rpc_types"
)

// DepositMethod handles the deposit RPC method. The account defaults to the
// caller.
type DepositMethod struct{}

func (m *DepositMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account oracle.Address     `json:"account,omitempty"`
		Asset   oracle.Address     `json:"asset"`
		Amount  *fixedpoint.Int128 `json:"amount"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if request.Amount == nil {
		return nil, rpc_types.RpcErrorMissingField("amount")
	}
	account := request.Account
	if account == "" {
		account = ctx.Caller
	}

	var balance fixedpoint.Int128
	rpcErr := execute(ctx, func(o *metered.Oracle) error {
		if err := o.Deposit(ctx.Context, ctx.Caller, account, request.Asset, *request.Amount); err != nil {
			return err
		}
		var err error
		balance, _, err = o.Balance(account)
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]interface{}{
		"account": account,
		"balance": balance.String(),
	}, nil
}

func (m *DepositMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleIdentified
}

// BalanceMethod handles the balance RPC method. Without an account the
// caller's balance is returned.
type BalanceMethod struct{}

func (m *BalanceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account oracle.Address `json:"account,omitempty"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	account := request.Account
	if account == "" {
		account = ctx.Caller
	}
	if account == "" {
		return nil, rpc_types.RpcErrorMissingField("account")
	}

	var balance *fixedpoint.Int128
	rpcErr := view(ctx, func(o *metered.Oracle) error {
		b, ok, err := o.Balance(account)
		if ok {
			balance = &b
		}
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}

	response := map[string]interface{}{
		"account": account,
		"balance": nil,
	}
	if balance != nil {
		response["balance"] = balance.String()
	}
	return response, nil
}

func (m *BalanceMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

// FeeAssetMethod handles the fee_asset RPC method
type FeeAssetMethod struct{}

func (m *FeeAssetMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var asset oracle.Address
	rpcErr := view(ctx, func(o *metered.Oracle) error {
		asset = o.FeeAsset()
		return nil
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]interface{}{
		"fee_asset": asset,
	}, nil
}

func (m *FeeAssetMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

// BaseFeeMethod handles the base_fee RPC method
type BaseFeeMethod struct{}

func (m *BaseFeeMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var fee *fixedpoint.Int128
	rpcErr := view(ctx, func(o *metered.Oracle) error {
		f, ok, err := o.BaseFee()
		if ok {
			fee = &f
		}
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}

	response := map[string]interface{}{"base_fee": nil}
	if fee != nil {
		response["base_fee"] = fee.String()
	}
	return response, nil
}

func (m *BaseFeeMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
