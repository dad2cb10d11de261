package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/odvcencio/tree-sitter-gritql/grammars"
)

const lsName = "gritscan"

var log = commonlog.GetLogger("gritscan.lsp")

// Server is a language server publishing semantic tokens and lexical
// diagnostics for registered languages.
type Server struct {
	version string
	detect  Detector
	handler protocol.Handler
	server  *server.Server

	mu   sync.Mutex
	docs map[string]string
}

// Detector resolves the language of a document path, or returns nil.
type Detector func(path string) *grammars.LangEntry

// NewServer creates a language server reporting version in its server info.
// A nil detect resolves languages by registered extension.
func NewServer(version string, detect Detector) *Server {
	if detect == nil {
		detect = grammars.DetectLanguage
	}
	ls := &Server{
		version: version,
		detect:  detect,
		docs:    make(map[string]string),
	}

	ls.handler = protocol.Handler{
		Initialize:                     ls.initialize,
		Initialized:                    ls.initialized,
		Shutdown:                       ls.shutdown,
		SetTrace:                       ls.setTrace,
		TextDocumentDidOpen:            ls.textDocumentDidOpen,
		TextDocumentDidChange:          ls.textDocumentDidChange,
		TextDocumentDidClose:           ls.textDocumentDidClose,
		TextDocumentSemanticTokensFull: ls.textDocumentSemanticTokensFull,
	}
	ls.server = server.NewServer(&ls.handler, lsName, false)
	return ls
}

// RunStdio serves the protocol over stdin/stdout.
func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
	}
	capabilities.SemanticTokensProvider = protocol.SemanticTokensOptions{
		Legend: Legend(),
		Full:   true,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
		ls.update(ctx, params.TextDocument.URI, whole.Text)
	}
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.mu.Lock()
	delete(ls.docs, params.TextDocument.URI)
	ls.mu.Unlock()
	return nil
}

func (ls *Server) textDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	ls.mu.Lock()
	text, ok := ls.docs[params.TextDocument.URI]
	ls.mu.Unlock()
	if !ok {
		return nil, nil
	}
	a := AnalyzeWith(ls.detect, params.TextDocument.URI, text)
	if a == nil {
		return nil, nil
	}
	return &protocol.SemanticTokens{Data: a.SemanticTokens}, nil
}

func (ls *Server) update(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	ls.mu.Lock()
	ls.docs[uri] = text
	ls.mu.Unlock()

	a := AnalyzeWith(ls.detect, uri, text)
	if a == nil {
		return
	}
	log.Debugf("%s: %d diagnostics", uri, len(a.Diagnostics))
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: a.Diagnostics,
	})
}

// Analysis is the scan result for one document.
type Analysis struct {
	Language       string
	SemanticTokens []protocol.UInteger
	Diagnostics    []protocol.Diagnostic
}

// Analyze scans text with the language registered for uri's extension. It
// returns nil for documents of unknown languages.
func Analyze(uri string, text string) *Analysis {
	return AnalyzeWith(grammars.DetectLanguage, uri, text)
}

// AnalyzeWith is Analyze with the language resolved by detect.
func AnalyzeWith(detect Detector, uri string, text string) *Analysis {
	entry := detect(uriToPath(uri))
	if entry == nil {
		return nil
	}
	lang := entry.Language()
	src := []byte(text)
	d := entry.NewScanDriver(src)
	defer d.Close()
	toks := d.All()
	return &Analysis{
		Language:       entry.Name,
		SemanticTokens: EncodeSemanticTokens(lang, src, toks),
		Diagnostics:    Diagnostics(lang, src, toks, d.Checkpoints()),
	}
}

func uriToPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return uri
		}
		return filepath.Clean(parsed.Path)
	}
	return uri
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
