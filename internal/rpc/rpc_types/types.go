package rpc_types

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/LeJamon/goPriceOracle/internal/auth"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
)

// Request is the body of POST /rpc.
// Format: {"method": "price", "params": [{...}], "auth": {...}}
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
	Auth   *auth.Credentials `json:"auth,omitempty"`
}

// Role is the access level a request was authenticated with
type Role int

const (
	// RoleGuest requests carry no credentials
	RoleGuest Role = iota
	// RoleIdentified requests are signed by a known principal
	RoleIdentified
)

// RpcContext contains request-specific information
type RpcContext struct {
	Context   context.Context
	Role      Role
	Caller    oracle.Address
	ClientIP  string
	RequestID string
	Method    string
	Services  *ServiceContainer
}

// MethodHandler is implemented by every RPC method
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
	RequiredRole() Role
}

// MethodRegistry maps method names to handlers
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

// List returns the registered method names in sorted order
func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// PriceResult renders one price observation. Price holds the raw
// fixed-point integer, Value the same amount scaled by the configured
// decimals.
type PriceResult struct {
	Price     string `json:"price"`
	Value     string `json:"value"`
	Timestamp uint64 `json:"timestamp"`
}
