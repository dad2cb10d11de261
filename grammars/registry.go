package grammars

import (
	"strings"

	"github.com/odvcencio/tree-sitter-gritql/gotreesitter"
)

// LangEntry holds a registered language with its lexical tables, extensions
// and the host-side pieces the scan driver needs.
type LangEntry struct {
	Name               string
	Extensions         []string                      // e.g. [".grit"]
	Language           func() *gotreesitter.Language // lazy loader
	StaticLexerFactory func(src []byte, lang *gotreesitter.Language) gotreesitter.StaticLexer
	Tracker            func(lang *gotreesitter.Language) gotreesitter.StateTracker // nil = stay in state 0
}

var registry []LangEntry

// Register adds a language to the registry.
func Register(entry LangEntry) {
	if entry.StaticLexerFactory == nil {
		entry.StaticLexerFactory = defaultStaticLexerFactory(entry.Name)
	}
	registry = append(registry, entry)
}

// DetectLanguage returns the LangEntry for a filename, or nil if unknown.
func DetectLanguage(filename string) *LangEntry {
	for i := range registry {
		for _, ext := range registry[i].Extensions {
			if strings.HasSuffix(filename, ext) {
				return &registry[i]
			}
		}
	}
	return nil
}

// LookupLanguage returns the entry registered under name, or nil.
func LookupLanguage(name string) *LangEntry {
	for i := range registry {
		if registry[i].Name == name {
			return &registry[i]
		}
	}
	return nil
}

// AllLanguages returns all registered languages.
func AllLanguages() []LangEntry {
	return registry
}

// NewScanDriver builds a scan driver for src. Static lexing falls back to the
// language's DFA tables when no static lexer factory is registered.
func (e *LangEntry) NewScanDriver(src []byte) *gotreesitter.ScanDriver {
	lang := e.Language()
	var static gotreesitter.StaticLexer
	if e.StaticLexerFactory != nil {
		static = e.StaticLexerFactory(src, lang)
	} else {
		static = gotreesitter.NewLexer(lang.LexStates, src)
	}
	var tracker gotreesitter.StateTracker
	if e.Tracker != nil {
		tracker = e.Tracker(lang)
	}
	return gotreesitter.NewScanDriver(lang, static, src, tracker)
}

func defaultStaticLexerFactory(name string) func(src []byte, lang *gotreesitter.Language) gotreesitter.StaticLexer {
	switch name {
	case "gritql":
		return func(src []byte, lang *gotreesitter.Language) gotreesitter.StaticLexer {
			return NewGritQLLexerOrEOF(src, lang)
		}
	default:
		return nil
	}
}

func init() {
	Register(LangEntry{
		Name:       "gritql",
		Extensions: []string{".grit"},
		Language:   GritQLLanguage,
		Tracker:    GritQLTracker,
	})
}
