// Package rpc serves the oracle over JSON-RPC on HTTP.
package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/LeJamon/goPriceOracle/internal/auth"
	"github.com/LeJamon/goPriceOracle/internal/logging"
	"github.com/LeJamon/goPriceOracle/internal/metrics"
	"github.com/LeJamon/goPriceOracle/internal/rpc/rpc_types"
)

// MaxBodyBytes bounds the size of a request body
const MaxBodyBytes = 1 << 20

// RequestIDHeader carries the id assigned to every RPC request
const RequestIDHeader = "X-Request-ID"

// Server handles HTTP JSON-RPC requests
type Server struct {
	registry *rpc_types.MethodRegistry
	services *rpc_types.ServiceContainer
	verifier *auth.Verifier
	limiter  *RateLimiter
	metrics  *metrics.Collector
	origins  []string
	proxies  []*net.IPNet
	log      *logrus.Entry

	handler http.Handler
}

// Option configures a Server
type Option func(*Server)

// WithRateLimit limits every client address to rps requests per second
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = NewRateLimiter(rps, burst)
		}
	}
}

// WithCORSOrigins allows browser requests from origins
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithTrustedProxies lets peers inside proxies name the client through
// X-Forwarded-For or X-Real-IP
func WithTrustedProxies(proxies []*net.IPNet) Option {
	return func(s *Server) {
		s.proxies = proxies
	}
}

// WithMetrics records request metrics and serves GET /metrics
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// WithLogger replaces the default logger
func WithLogger(l *logrus.Entry) Option {
	return func(s *Server) {
		s.log = l
	}
}

// NewServer creates a new RPC server over services. Signed requests are
// checked by verifier.
func NewServer(services *rpc_types.ServiceContainer, verifier *auth.Verifier, opts ...Option) *Server {
	server := &Server{
		registry: rpc_types.NewMethodRegistry(),
		services: services,
		verifier: verifier,
		log:      logging.New("rpc"),
	}
	for _, opt := range opts {
		opt(server)
	}

	// Register all RPC methods
	server.registerAllMethods()

	router := mux.NewRouter()
	router.HandleFunc("/rpc", server.handleRPC).Methods(http.MethodPost)
	router.HandleFunc("/health", server.handleHealth).Methods(http.MethodGet)
	if server.metrics != nil {
		router.Handle("/metrics", server.metrics.Handler()).Methods(http.MethodGet)
	}

	server.handler = cors.New(cors.Options{
		AllowedOrigins: server.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{RequestIDHeader},
	}).Handler(router)

	return server
}

// Methods returns the registered method names
func (s *Server) Methods() []string {
	return s.registry.List()
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"methods": len(s.registry.List()),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRPC processes POST requests with a JSON-RPC payload
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set(RequestIDHeader, requestID)
	clientIP := getClientIP(r, s.proxies)

	log := s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"client":     clientIP,
	})

	if s.limiter != nil && !s.limiter.Allow(clientIP) {
		log.Warn("Rate limit exceeded")
		writeResponse(w, http.StatusTooManyRequests, nil, rpc_types.RpcErrorSlowDown())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeResponse(w, http.StatusRequestEntityTooLarge, nil, rpc_types.RpcErrorInvalidParams("Request body too large"))
			return
		}
		writeResponse(w, http.StatusOK, nil, rpc_types.RpcErrorInternal("Failed to read request body"))
		return
	}
	defer r.Body.Close()

	var request rpc_types.Request
	if err := json.Unmarshal(body, &request); err != nil {
		writeResponse(w, http.StatusOK, nil, rpc_types.RpcErrorParse("Invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		writeResponse(w, http.StatusOK, nil, rpc_types.RpcErrorMissingCommand())
		return
	}

	// Params is an array holding at most one object
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	var finish func(status string)
	if s.metrics != nil {
		finish = s.metrics.RequestStarted(request.Method)
	}

	ctx := &rpc_types.RpcContext{
		Context:   r.Context(),
		Role:      rpc_types.RoleGuest,
		ClientIP:  clientIP,
		RequestID: requestID,
		Method:    request.Method,
		Services:  s.services,
	}

	start := time.Now()
	var result interface{}
	rpcErr := s.authenticate(ctx, params, request.Auth)
	if rpcErr == nil {
		result, rpcErr = s.executeMethod(ctx, params)
	}

	log = log.WithFields(logrus.Fields{
		"method":   request.Method,
		"caller":   ctx.Caller,
		"duration": time.Since(start),
	})
	status := "success"
	if rpcErr != nil {
		status = "error"
		log.WithField("error", rpcErr.ErrorString).Info("RPC request failed")
	} else {
		log.Debug("RPC request served")
	}
	if finish != nil {
		finish(status)
	}

	writeResponse(w, http.StatusOK, result, rpcErr)
}

// authenticate resolves the caller from the request credentials. Requests
// without credentials stay guests.
func (s *Server) authenticate(ctx *rpc_types.RpcContext, params json.RawMessage, cred *auth.Credentials) *rpc_types.RpcError {
	if cred == nil {
		return nil
	}
	if s.verifier == nil {
		return rpc_types.RpcErrorUnauthenticated("Signed requests are not accepted")
	}
	caller, err := s.verifier.Verify(ctx.Method, params, cred)
	if err != nil {
		return rpc_types.RpcErrorUnauthenticated(err.Error())
	}
	ctx.Caller = caller
	ctx.Role = rpc_types.RoleIdentified
	return nil
}

// executeMethod executes an RPC method with the given parameters
func (s *Server) executeMethod(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	handler, exists := s.registry.Get(ctx.Method)
	if !exists {
		return nil, rpc_types.RpcErrorMethodNotFound(ctx.Method)
	}

	if ctx.Role < handler.RequiredRole() {
		return nil, rpc_types.RpcErrorUnauthenticated("Method '" + ctx.Method + "' requires a signed request")
	}

	return handler.Handle(ctx, params)
}

// writeResponse writes {"result": {...}} with status "success" or "error".
// Error details sit inside the result object.
func writeResponse(w http.ResponseWriter, code int, result interface{}, rpcErr *rpc_types.RpcError) {
	var resultObj map[string]interface{}
	if rpcErr != nil {
		resultObj = map[string]interface{}{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
	} else if resultMap, ok := result.(map[string]interface{}); ok {
		resultMap["status"] = "success"
		resultObj = resultMap
	} else {
		// Wrap non-map results
		resultObj = map[string]interface{}{
			"status": "success",
			"data":   result,
		}
	}
	writeJSON(w, code, map[string]interface{}{"result": resultObj})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.New("rpc").WithError(err).Error("Failed to marshal response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}
