package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tliron/commonlog"

	"github.com/odvcencio/tree-sitter-gritql/gotreesitter"
	"github.com/odvcencio/tree-sitter-gritql/grammars"
)

var log = commonlog.GetLogger("gritscan.web")

// LanguageLookup resolves a registered language by name.
type LanguageLookup func(name string) *grammars.LangEntry

// Server exposes the scan runtime over a WebSocket JSON-RPC endpoint at /ws.
// Every request builds its own scanner payload, so requests never share
// scanner state.
type Server struct {
	lookup   LanguageLookup
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  []*wsClient
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

type rpcRequest struct {
	ID     any             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     any       `json:"id"`
	Result any       `json:"result,omitempty"`
	Error  *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServiceError   = -32000
)

// NewServer creates a scan server. A nil lookup uses the grammars registry.
func NewServer(lookup LanguageLookup) *Server {
	if lookup == nil {
		lookup = grammars.LookupLanguage
	}
	return &Server{
		lookup: lookup,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/ws" {
		s.handleWebSocket(w, r)
		return
	}
	http.NotFound(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Noticef("listening on %s", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve %s: %w", addr, err)
		}
		return nil
	}
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade: %v", err)
		return
	}
	client := &wsClient{conn: conn}
	s.mu.Lock()
	s.clients = append(s.clients, client)
	s.mu.Unlock()
	log.Debugf("client connected from %s", r.RemoteAddr)

	defer func() {
		conn.Close()
		s.mu.Lock()
		for i, c := range s.clients {
			if c == client {
				s.clients = append(s.clients[:i], s.clients[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req rpcRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			log.Debugf("dropping malformed request: %v", err)
			continue
		}
		resp := s.handleRPC(req)
		data, _ := json.Marshal(resp)
		client.mu.Lock()
		_ = conn.WriteMessage(websocket.TextMessage, data)
		client.mu.Unlock()
	}
}

func (s *Server) handleRPC(req rpcRequest) rpcResponse {
	switch req.Method {
	case "languages":
		return s.rpcLanguages(req)
	case "tokenize":
		return s.rpcTokenize(req)
	case "scan":
		return s.rpcScan(req)
	case "resume":
		return s.rpcResume(req)
	default:
		return rpcResponse{
			ID:    req.ID,
			Error: &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", req.Method)},
		}
	}
}

func invalidParams(req rpcRequest, err error) rpcResponse {
	return rpcResponse{ID: req.ID, Error: &rpcError{Code: codeInvalidParams, Message: err.Error()}}
}

func serviceError(req rpcRequest, err error) rpcResponse {
	return rpcResponse{ID: req.ID, Error: &rpcError{Code: codeServiceError, Message: err.Error()}}
}

func (s *Server) language(name string) (*grammars.LangEntry, error) {
	entry := s.lookup(name)
	if entry == nil {
		return nil, fmt.Errorf("unknown language: %q", name)
	}
	return entry, nil
}

func (s *Server) rpcLanguages(req rpcRequest) rpcResponse {
	langs := make([]languageInfo, 0)
	for _, report := range grammars.AuditScanSupport() {
		if s.lookup(report.Name) == nil {
			continue
		}
		langs = append(langs, languageInfo{
			Name:           report.Name,
			Extensions:     report.Extensions,
			Backend:        string(report.Backend),
			ExternalTokens: report.ExternalTokens,
		})
	}
	return rpcResponse{ID: req.ID, Result: map[string]any{"languages": langs}}
}

func (s *Server) rpcTokenize(req rpcRequest) rpcResponse {
	var p struct {
		Language string `json:"language"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return invalidParams(req, err)
	}
	entry, err := s.language(p.Language)
	if err != nil {
		return serviceError(req, err)
	}

	d := entry.NewScanDriver([]byte(p.Text))
	defer d.Close()
	lang := entry.Language()
	toks := d.All()
	return rpcResponse{ID: req.ID, Result: tokenizeResult{
		Tokens:      wireTokens(lang, toks),
		Checkpoints: wireCheckpoints(d.Checkpoints()),
	}}
}

// rpcScan runs one external scanner step: restore state, scan at offset with
// the given valid set, report the token and the resulting state.
func (s *Server) rpcScan(req rpcRequest) rpcResponse {
	var p struct {
		Language string `json:"language"`
		Text     string `json:"text"`
		Offset   uint32 `json:"offset"`
		State    []byte `json:"state"`
		Valid    []bool `json:"valid"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return invalidParams(req, err)
	}
	entry, err := s.language(p.Language)
	if err != nil {
		return serviceError(req, err)
	}
	lang := entry.Language()
	if lang.ExternalScanner == nil {
		return serviceError(req, fmt.Errorf("%s has no external scanner", entry.Name))
	}
	if len(p.Valid) != int(lang.ExternalTokenCount) {
		return invalidParams(req, fmt.Errorf("valid: got %d entries, want %d", len(p.Valid), lang.ExternalTokenCount))
	}
	src := []byte(p.Text)
	if int(p.Offset) > len(src) {
		return invalidParams(req, fmt.Errorf("offset %d past end of text (%d bytes)", p.Offset, len(src)))
	}

	scanner := lang.ExternalScanner
	payload := scanner.Create()
	defer scanner.Destroy(payload)
	gotreesitter.RestoreExternalScannerState(scanner, payload, gotreesitter.ExternalScannerState{Data: p.State})

	lexer := gotreesitter.NewExternalLexer(src, gotreesitter.PositionAt(src, p.Offset))
	tok, ok := gotreesitter.RunExternalScanner(lang, payload, lexer, p.Valid)
	result := scanResult{
		Matched: ok,
		State:   gotreesitter.SaveExternalScannerState(scanner, payload).Data,
	}
	if ok {
		index := int(tok.Symbol)
		if sym, known := lang.ExternalSymbol(tok.Symbol); known {
			tok.Symbol = sym
		}
		wt := wireToken(lang, tok)
		result.Index = &index
		result.Token = &wt
	}
	return rpcResponse{ID: req.ID, Result: result}
}

func (s *Server) rpcResume(req rpcRequest) rpcResponse {
	var p struct {
		Language   string         `json:"language"`
		Text       string         `json:"text"`
		Checkpoint wireCheckpoint `json:"checkpoint"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return invalidParams(req, err)
	}
	entry, err := s.language(p.Language)
	if err != nil {
		return serviceError(req, err)
	}

	d := entry.NewScanDriver([]byte(p.Text))
	defer d.Close()
	d.Resume(p.Checkpoint.checkpoint())
	toks := d.All()
	return rpcResponse{ID: req.ID, Result: tokenizeResult{
		Tokens:      wireTokens(entry.Language(), toks),
		Checkpoints: wireCheckpoints(d.Checkpoints()),
	}}
}
