// Package transport exposes pkg/cert's parse operation and pkg/trust's
// coverage validator to out-of-process callers over HTTP/3: hand-rolled
// JSON handlers registered on a plain http.ServeMux, not generated RPC
// stubs (no .proto schema exists for this domain to generate real
// Connect/protobuf code from).
package transport

import (
	"crypto/tls"
	"encoding/json"
	"net/http"

	"github.com/quic-go/quic-go/http3"
	"go.uber.org/zap"

	"github.com/fancl20/rpki-core/pkg/cert"
	"github.com/fancl20/rpki-core/pkg/ipc"
	"github.com/fancl20/rpki-core/pkg/trust"
)

const (
	parseProcedure    = "/api/v1/parse"
	validateProcedure = "/api/v1/validate"
	healthProcedure   = "/api/v1/health"
)

// Server is the core's HTTP/3 front end.
type Server struct {
	server *http3.Server
	addr   string

	tree  trust.Tree
	cache *cert.ParseCache
	log   *zap.Logger
}

// NewServer creates an HTTP/3 server exposing parse and coverage-check
// as a service. tree supplies the authority lookup tree ValidateChain
// walks; cache may be nil to disable parse memoization.
func NewServer(addr string, tlsConfig *tls.Config, tree trust.Tree, cache *cert.ParseCache, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{addr: addr, tree: tree, cache: cache, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc(healthProcedure, s.handleHealth)
	mux.HandleFunc(parseProcedure, s.handleParse)
	mux.HandleFunc(validateProcedure, s.handleValidate)

	s.server = &http3.Server{
		Addr:      addr,
		Handler:   mux,
		TLSConfig: tlsConfig,
	}
	return s
}

// ListenAndServe starts the server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Close stops the server.
func (s *Server) Close() error {
	return s.server.Close()
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type parseRequest struct {
	File string `json:"file"`
	DER  []byte `json:"der"` // encoded as base64 by encoding/json
	TAL  string `json:"tal"`
}

// handleParse implements the parse operation: decode a DER blob per
// RFC 6487/3779/8209 and return its wire record, without checking
// resource coverage.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	c, err := cert.ParseCached(s.cache, req.File, req.DER, req.TAL)
	if err != nil {
		s.log.Warn("parse failed", zap.String("file", req.File), zap.Error(err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, ipc.FromCertificate(c))
}

type validateRequest struct {
	parseRequest
}

type validateResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// handleValidate implements parse-then-coverage-check: decode the DER
// blob and validate its resources against the configured authority
// tree.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	c, err := cert.ParseCached(s.cache, req.File, req.DER, req.TAL)
	if err != nil {
		s.log.Warn("parse failed", zap.String("file", req.File), zap.Error(err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	v, err := trust.ValidateChain(c, s.tree)
	if err != nil {
		s.log.Warn("coverage validation failed", zap.String("file", req.File), zap.Error(err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: v.Valid, Reason: v.Reason})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
