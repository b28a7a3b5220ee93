package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nftmarket/core"
	"nftmarket/native/common"
	"nftmarket/native/settlement"
	"nftmarket/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	rateLimitWindow = time.Minute
	maxTxPerWindow  = 30
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

type rateLimiter struct {
	count       int
	windowStart time.Time
}

type Server struct {
	node      *core.Node
	authToken string

	mu           sync.Mutex
	rateLimiters map[string]*rateLimiter
	callerNonces map[string]callerNonceState
	metrics      *metrics.MarketplaceMetrics
}

// NewServer builds an RPC front end over the node. An empty authToken leaves
// mutating methods open, which is only acceptable for local development.
func NewServer(node *core.Node, authToken string) *Server {
	return &Server{
		node:         node,
		authToken:    strings.TrimSpace(authToken),
		rateLimiters: make(map[string]*rateLimiter),
		callerNonces: make(map[string]callerNonceState),
		metrics:      metrics.Marketplace(),
	}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

// Handler exposes the RPC endpoint for tests and embedding.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return mux
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps the native error taxonomy onto HTTP statuses and RPC
// error codes so clients can branch without string matching.
func (s *Server) writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	status := http.StatusInternalServerError
	code := codeServerError
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		status, code = http.StatusBadRequest, codeInvalidParams
	case errors.Is(err, common.ErrNotFound):
		status, code = http.StatusNotFound, codeServerError
	case errors.Is(err, common.ErrAccessDenied), errors.Is(err, common.ErrUnauthorized):
		status, code = http.StatusForbidden, codeUnauthorized
	case errors.Is(err, common.ErrModulePaused),
		errors.Is(err, common.ErrTimeWindow),
		errors.Is(err, common.ErrInsufficientFunds),
		errors.Is(err, settlement.ErrNoPendingRevenue):
		status, code = http.StatusConflict, codeServerError
	}
	writeError(w, status, id, code, err.Error(), nil)
}

type authError struct {
	Code    int
	Message string
	Data    interface{}
}

func (s *Server) requireAuth(r *http.Request) *authError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &authError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
		return &authError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) allowMutation(r *http.Request) bool {
	key := clientKey(r)
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.rateLimiters[key]
	if !ok || now.Sub(limiter.windowStart) >= rateLimitWindow {
		s.rateLimiters[key] = &rateLimiter{count: 1, windowStart: now}
		return true
	}
	if limiter.count >= maxTxPerWindow {
		return false
	}
	limiter.count++
	return true
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, req *RPCRequest)

func (s *Server) mutating(next handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
		if authErr := s.requireAuth(r); authErr != nil {
			s.metrics.RPCRequest(req.Method, "unauthorized")
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		if !s.allowMutation(r) {
			s.metrics.RPCRequest(req.Method, "rate_limited")
			writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "rate limit exceeded", nil)
			return
		}
		next(w, r, req)
	}
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	handler, ok := s.route(req.Method)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
		return
	}
	s.metrics.RPCRequest(req.Method, "received")
	handler(w, r, req)
}

func (s *Server) route(method string) (handlerFunc, bool) {
	switch method {
	case "market_getItem":
		return s.handleMarketGetItem, true
	case "market_listItems":
		return s.handleMarketListItems, true
	case "market_createItem":
		return s.mutating(s.handleMarketCreateItem), true
	case "market_updateItem":
		return s.mutating(s.handleMarketUpdateItem), true
	case "market_cancelItem":
		return s.mutating(s.handleMarketCancelItem), true
	case "market_buy":
		return s.mutating(s.handleMarketBuy), true
	case "auction_getItem":
		return s.handleAuctionGetItem, true
	case "auction_listItems":
		return s.handleAuctionListItems, true
	case "auction_createItem":
		return s.mutating(s.handleAuctionCreateItem), true
	case "auction_bid":
		return s.mutating(s.handleAuctionBid), true
	case "auction_finish":
		return s.mutating(s.handleAuctionFinish), true
	case "offers_getOffer":
		return s.handleOffersGetOffer, true
	case "offers_listForItem":
		return s.handleOffersListForItem, true
	case "offers_listForOfferor":
		return s.handleOffersListForOfferor, true
	case "offers_create":
		return s.mutating(s.handleOffersCreate), true
	case "offers_cancel":
		return s.mutating(s.handleOffersCancel), true
	case "offers_accept":
		return s.mutating(s.handleOffersAccept), true
	case "settlement_pendingRevenue":
		return s.handleSettlementPendingRevenue, true
	case "settlement_retrieveRevenue":
		return s.mutating(s.handleSettlementRetrieveRevenue), true
	case "settlement_approvedCurrencies":
		return s.handleSettlementApprovedCurrencies, true
	case "admin_setWhitelisted":
		return s.mutating(s.handleAdminSetWhitelisted), true
	case "admin_setFeeBps":
		return s.mutating(s.handleAdminSetFeeBps), true
	case "admin_setFloorPrice":
		return s.mutating(s.handleAdminSetFloorPrice), true
	case "admin_setPaused":
		return s.mutating(s.handleAdminSetPaused), true
	case "admin_addApprovedCurrency":
		return s.mutating(s.handleAdminAddApprovedCurrency), true
	case "admin_removeApprovedCurrency":
		return s.mutating(s.handleAdminRemoveApprovedCurrency), true
	case "admin_setTreasury":
		return s.mutating(s.handleAdminSetTreasury), true
	case "collections_getPolicy":
		return s.handleCollectionsGetPolicy, true
	default:
		return nil, false
	}
}
