package rpc

import (
	"github.com/LeJamon/goPriceOracle/internal/rpc/rpc_handlers"
)

// registerAllMethods registers every oracle RPC method.
// This function is called by NewServer to set up the complete method registry
func (s *Server) registerAllMethods() {
	// Administration
	s.registry.Register("config", &rpc_handlers.ConfigMethod{})
	s.registry.Register("add_assets", &rpc_handlers.AddAssetsMethod{})
	s.registry.Register("set_fee", &rpc_handlers.SetFeeMethod{})
	s.registry.Register("set_price", &rpc_handlers.SetPriceMethod{})

	// Billing
	s.registry.Register("deposit", &rpc_handlers.DepositMethod{})
	s.registry.Register("balance", &rpc_handlers.BalanceMethod{})
	s.registry.Register("fee_asset", &rpc_handlers.FeeAssetMethod{})
	s.registry.Register("base_fee", &rpc_handlers.BaseFeeMethod{})

	// Configuration reads
	s.registry.Register("admin", &rpc_handlers.AdminMethod{})
	s.registry.Register("base", &rpc_handlers.BaseMethod{})
	s.registry.Register("decimals", &rpc_handlers.DecimalsMethod{})
	s.registry.Register("resolution", &rpc_handlers.ResolutionMethod{})
	s.registry.Register("period", &rpc_handlers.PeriodMethod{})
	s.registry.Register("assets", &rpc_handlers.AssetsMethod{})
	s.registry.Register("last_timestamp", &rpc_handlers.LastTimestampMethod{})

	// Metered queries
	s.registry.Register("price", &rpc_handlers.PriceMethod{})
	s.registry.Register("lastprice", &rpc_handlers.LastPriceMethod{})
	s.registry.Register("x_price", &rpc_handlers.XPriceMethod{})
	s.registry.Register("x_lt_price", &rpc_handlers.XLastPriceMethod{})
	s.registry.Register("prices", &rpc_handlers.PricesMethod{})
	s.registry.Register("x_prices", &rpc_handlers.XPricesMethod{})
	s.registry.Register("twap", &rpc_handlers.TWAPMethod{})
	s.registry.Register("x_twap", &rpc_handlers.XTWAPMethod{})
}
