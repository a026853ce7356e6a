package rpc_types

import (
	"github.com/LeJamon/goPriceOracle/internal/core/metered"
	"github.com/LeJamon/goPriceOracle/internal/host"
)

// ChargeObserver is notified of units charged by metered queries
type ChargeObserver interface {
	ObserveCharge(method string, units uint64)
}

// ServiceContainer holds references to the services RPC handlers run
// against
type ServiceContainer struct {
	// Host runs every oracle call
	Host *host.Host

	// Oracle configures the metered oracle built for each call
	Oracle metered.Options

	// Charges is optional
	Charges ChargeObserver
}
