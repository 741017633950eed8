package mcp

import (
	"context"
	"fmt"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"worldgraph/internal/kb"
	"worldgraph/internal/state"
	"worldgraph/internal/store"
)

// Server exposes one evolving world over MCP. Successful invocations replace
// the current state; the derived views are rebuilt lazily for the state
// they were last built from.
type Server struct {
	logger *zap.Logger
	rules  string
	index  store.Index
	mcp    *sdk.Server

	mu          sync.Mutex
	current     *state.State
	engine      *kb.Engine
	engineToken string
	indexToken  string
}

// NewServer serves st. index may be nil, in which case the SQL and search
// tools report an error. rules is Mangle source applied to every KB query.
func NewServer(st *state.State, index store.Index, rules, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		logger:  logger,
		rules:   rules,
		index:   index,
		current: st,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "worldgraph",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

// State returns the current state.
func (s *Server) State() *state.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// replace makes st current if the current state is still the one with the
// given token.
func (s *Server) replace(from string, st *state.State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Token() != from {
		return false
	}
	s.current = st
	s.engine = nil
	s.engineToken = ""
	return true
}

// kbEngine returns the rule engine for the current state, building it on
// first use.
func (s *Server) kbEngine() (*kb.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil && s.engineToken == s.current.Token() {
		return s.engine, nil
	}
	g, err := kb.Extract(s.current)
	if err != nil {
		return nil, err
	}
	engine, err := kb.NewEngine(g, s.rules)
	if err != nil {
		return nil, err
	}
	s.engine = engine
	s.engineToken = s.current.Token()
	return engine, nil
}

// sqlIndex returns the index loaded with the current state's triples.
func (s *Server) sqlIndex(ctx context.Context) (store.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil, fmt.Errorf("no sql index configured")
	}
	if s.indexToken == s.current.Token() {
		return s.index, nil
	}
	g, err := kb.Extract(s.current)
	if err != nil {
		return nil, err
	}
	stats, err := s.index.Load(ctx, g)
	if err != nil {
		return nil, err
	}
	s.indexToken = s.current.Token()
	s.logger.Debug("loaded triples into index",
		zap.String("state", s.indexToken),
		zap.Int("entities", stats.Entities),
		zap.Int("triples", stats.Triples),
	)
	return s.index, nil
}
