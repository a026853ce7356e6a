package di

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/LeJamon/goPriceOracle/internal/auth"
	"github.com/LeJamon/goPriceOracle/internal/config"
	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
	"github.com/LeJamon/goPriceOracle/internal/core/metered"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/feeder"
	"github.com/LeJamon/goPriceOracle/internal/host"
	"github.com/LeJamon/goPriceOracle/internal/logging"
	"github.com/LeJamon/goPriceOracle/internal/metrics"
	"github.com/LeJamon/goPriceOracle/internal/rpc"
	"github.com/LeJamon/goPriceOracle/internal/rpc/rpc_types"
	"github.com/LeJamon/goPriceOracle/internal/storage/custody"
	"github.com/LeJamon/goPriceOracle/internal/storage/database"
)

// Provider configures and registers services in the container.
type Provider struct {
	container *Container
	config    *config.Config
	ctx       context.Context
	log       *logrus.Entry
}

// NewProvider creates a new service provider. ctx bounds the connections
// opened while building services.
func NewProvider(ctx context.Context, container *Container, cfg *config.Config) *Provider {
	return &Provider{
		container: container,
		config:    cfg,
		ctx:       ctx,
		log:       logging.New("di"),
	}
}

// RegisterAll registers all services. A clock registered under
// ServiceClock beforehand replaces the system clock.
func (p *Provider) RegisterAll() error {
	p.container.Register(ServiceConfig, p.config)
	if !p.container.Has(ServiceClock) {
		p.container.Register(ServiceClock, host.Clock(host.SystemClock{}))
	}

	p.registerStorageBuilders()
	p.registerOracleBuilders()
	p.registerRPCBuilders()
	return nil
}

// registerStorageBuilders registers storage service builders.
func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceDatabase, func(c *Container) (interface{}, error) {
		db, err := database.Open(p.config.Database.Backend, p.config.Database.Path)
		if err != nil {
			return nil, err
		}
		p.log.WithFields(logrus.Fields{
			"backend": p.config.Database.Backend,
			"path":    p.config.Database.Path,
		}).Info("Database opened")
		return db, nil
	})

	p.container.RegisterBuilder(ServiceCustody, func(c *Container) (interface{}, error) {
		if !p.config.Custody.Enabled {
			return nil, nil // deposits disabled
		}
		ledger, err := custody.Open(p.ctx, p.config.Custody.Config)
		if err != nil {
			return nil, err
		}
		p.log.WithField("driver", p.config.Custody.Driver).Info("Custody ledger opened")
		return ledger, nil
	})

	p.container.RegisterBuilder(ServiceMetrics, func(c *Container) (interface{}, error) {
		if !p.config.Server.Metrics {
			return nil, nil
		}
		return metrics.NewCollector(true), nil
	})
}

// registerOracleBuilders registers the host and the feeder.
func (p *Provider) registerOracleBuilders() {
	p.container.RegisterBuilder(ServiceHost, func(c *Container) (interface{}, error) {
		db, err := p.Database()
		if err != nil {
			return nil, err
		}
		clock, err := p.Clock()
		if err != nil {
			return nil, err
		}
		opts := []host.Option{
			host.WithClock(clock),
			host.WithCacheSize(p.config.Cache.Size),
		}
		collector, err := p.Metrics()
		if err != nil {
			return nil, err
		}
		if collector != nil {
			opts = append(opts, host.WithObserver(collector))
		}
		return host.New(db, opts...)
	})

	p.container.RegisterBuilder(ServiceFeeder, func(c *Container) (interface{}, error) {
		fc := p.config.Feeder
		if !fc.Enabled {
			return nil, nil
		}
		h, err := p.Host()
		if err != nil {
			return nil, err
		}
		key, err := auth.ParsePrivateKey(fc.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("feeder private key: %w", err)
		}
		source, err := newSource(fc)
		if err != nil {
			return nil, err
		}

		opts := []feeder.Option{
			feeder.WithSchedule(fc.Schedule),
			feeder.WithTimeout(fc.Timeout),
		}
		collector, err := p.Metrics()
		if err != nil {
			return nil, err
		}
		if collector != nil {
			opts = append(opts, feeder.WithObserver(collector))
		}
		return feeder.New(h, key.Principal(), source, opts...), nil
	})
}

func newSource(fc config.FeederConfig) (feeder.Source, error) {
	switch fc.Source {
	case "http":
		paths := make(map[string]string, len(fc.Assets))
		for _, a := range fc.Assets {
			paths[a.Asset] = a.Path
		}
		return feeder.NewHTTPSource(fc.URL, paths, fc.Timeout), nil
	case "static":
		prices := make(map[string]string, len(fc.Assets))
		for _, a := range fc.Assets {
			prices[a.Asset] = a.Price
		}
		return feeder.NewStaticSource(prices)
	default:
		return nil, fmt.Errorf("unsupported feeder source: %s", fc.Source)
	}
}

// registerRPCBuilders registers RPC service builders.
func (p *Provider) registerRPCBuilders() {
	p.container.RegisterBuilder(ServiceVerifier, func(c *Container) (interface{}, error) {
		clock, err := p.Clock()
		if err != nil {
			return nil, err
		}
		return auth.NewVerifier(p.config.Auth.MaxSkew, clock.Now), nil
	})

	p.container.RegisterBuilder(ServiceRPCServer, func(c *Container) (interface{}, error) {
		h, err := p.Host()
		if err != nil {
			return nil, err
		}
		ledger, err := p.Custody()
		if err != nil {
			return nil, err
		}
		collector, err := p.Metrics()
		if err != nil {
			return nil, err
		}
		verifier, err := c.Get(ServiceVerifier)
		if err != nil {
			return nil, err
		}

		services := &rpc_types.ServiceContainer{
			Host: h,
			Oracle: metered.Options{
				FeeAsset: oracle.Address(p.config.Oracle.FeeAsset),
				Custody:  oracle.Address(p.config.Oracle.CustodyAccount),
			},
		}
		if ledger != nil {
			services.Oracle.Transferer = ledger
		}

		sc := p.config.Server
		proxies, err := rpc.ParseTrustedProxies(sc.TrustedProxies)
		if err != nil {
			return nil, err
		}
		opts := []rpc.Option{
			rpc.WithRateLimit(sc.RateLimit, sc.RateBurst),
			rpc.WithCORSOrigins(sc.CORSOrigins),
			rpc.WithTrustedProxies(proxies),
		}
		if collector != nil {
			services.Charges = collector
			opts = append(opts, rpc.WithMetrics(collector))
		}
		return rpc.NewServer(services, verifier.(*auth.Verifier), opts...), nil
	})
}

// Bootstrap writes the [oracle.bootstrap] configuration when it is enabled
// and the oracle has never been configured. It reports whether it wrote.
func (p *Provider) Bootstrap(ctx context.Context) (bool, error) {
	bc := p.config.Oracle.Bootstrap
	if !bc.Enabled {
		return false, nil
	}
	h, err := p.Host()
	if err != nil {
		return false, err
	}

	var initialized bool
	err = h.View(ctx, "bootstrap", func(s oracle.Storage) error {
		var err error
		initialized, err = oracle.NewEnv(s).IsInitialized()
		return err
	})
	if err != nil || initialized {
		return false, err
	}

	data, err := bootstrapData(bc)
	if err != nil {
		return false, err
	}
	err = h.Execute(ctx, "config", func(s oracle.Storage) error {
		return oracle.New(s).Configure(data.Admin, data)
	})
	if err != nil {
		return false, fmt.Errorf("bootstrap oracle: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"admin":  data.Admin,
		"base":   data.BaseAsset,
		"assets": len(data.Assets),
	}).Info("Oracle bootstrapped")
	return true, nil
}

func bootstrapData(bc config.BootstrapConfig) (oracle.ConfigData, error) {
	data := oracle.ConfigData{
		Admin:      oracle.Address(bc.Admin),
		Period:     bc.Period,
		BaseAsset:  oracle.Address(bc.BaseAsset),
		Decimals:   bc.Decimals,
		Resolution: bc.Resolution,
		Assets:     make([]oracle.Address, len(bc.Assets)),
	}
	for i, a := range bc.Assets {
		data.Assets[i] = oracle.Address(a)
	}
	if bc.BaseFee != "" {
		fee, err := fixedpoint.Parse(bc.BaseFee)
		if err != nil {
			return oracle.ConfigData{}, fmt.Errorf("bootstrap base fee: %w", err)
		}
		data.BaseFee = fee
	}
	return data, nil
}

// Clock returns the clock shared by the host and the verifier.
func (p *Provider) Clock() (host.Clock, error) {
	c, err := p.container.Get(ServiceClock)
	if err != nil {
		return nil, err
	}
	return c.(host.Clock), nil
}

// Database returns the oracle state database.
func (p *Provider) Database() (database.DB, error) {
	db, err := p.container.Get(ServiceDatabase)
	if err != nil {
		return nil, err
	}
	return db.(database.DB), nil
}

// Custody returns the custody ledger, or nil when custody is disabled.
func (p *Provider) Custody() (*custody.Ledger, error) {
	svc, err := p.container.Get(ServiceCustody)
	if err != nil || svc == nil {
		return nil, err
	}
	return svc.(*custody.Ledger), nil
}

// Metrics returns the collector, or nil when metrics are disabled.
func (p *Provider) Metrics() (*metrics.Collector, error) {
	svc, err := p.container.Get(ServiceMetrics)
	if err != nil || svc == nil {
		return nil, err
	}
	return svc.(*metrics.Collector), nil
}

// Host returns the host over the state database.
func (p *Provider) Host() (*host.Host, error) {
	h, err := p.container.Get(ServiceHost)
	if err != nil {
		return nil, err
	}
	return h.(*host.Host), nil
}

// RPCServer returns the JSON-RPC server.
func (p *Provider) RPCServer() (*rpc.Server, error) {
	s, err := p.container.Get(ServiceRPCServer)
	if err != nil {
		return nil, err
	}
	return s.(*rpc.Server), nil
}

// Feeder returns the price feeder, or nil when it is disabled.
func (p *Provider) Feeder() (*feeder.Feeder, error) {
	svc, err := p.container.Get(ServiceFeeder)
	if err != nil || svc == nil {
		return nil, err
	}
	return svc.(*feeder.Feeder), nil
}

// GetConfig returns the configuration from the container.
func (p *Provider) GetConfig() *config.Config {
	return p.config
}
