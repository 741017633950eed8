package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"worldgraph/internal/config"
	"worldgraph/internal/domain/lists"
	"worldgraph/internal/entity"
	"worldgraph/internal/state"
)

// project is a loaded worldgraph.yaml with its domain and initial world.
type project struct {
	cfg        *config.ProjectConfig
	descriptor *config.DomainDescriptor
	logger     *zap.Logger
	state      *state.State
}

func loadProject() (*project, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	descriptor, err := config.LoadDomain(cfg.Path(cfg.DomainFile))
	if err != nil {
		return nil, err
	}
	if descriptor.Name != cfg.World.Domain {
		return nil, fmt.Errorf("%s describes domain %q, world uses %q", cfg.DomainFile, descriptor.Name, cfg.World.Domain)
	}

	u, err := newUniverse(cfg.World.Domain)
	if err != nil {
		return nil, err
	}
	d, err := entity.NewDomain(descriptor.Name, u, descriptor.IDs())
	if err != nil {
		return nil, err
	}
	root, err := newWorld(cfg.World)
	if err != nil {
		return nil, err
	}
	st, err := state.FromRoot(root, d)
	if err != nil {
		return nil, err
	}

	logger.Debug("loaded project",
		zap.String("project", cfg.Project),
		zap.String("domain", d.Name),
		zap.String("state", st.Token()),
		zap.Int("entities", st.Len()),
	)
	return &project{cfg: cfg, descriptor: descriptor, logger: logger, state: st}, nil
}

func (p *project) close() {
	_ = p.logger.Sync()
}

// rules returns the Mangle source configured under kb.rules, if any.
func (p *project) rules() (string, error) {
	if p.cfg.KB.Rules == "" {
		return "", nil
	}
	data, err := os.ReadFile(p.cfg.Path(p.cfg.KB.Rules))
	if err != nil {
		return "", fmt.Errorf("reading rules: %w", err)
	}
	return string(data), nil
}

func newUniverse(domain string) (*entity.Universe, error) {
	switch domain {
	case lists.Name:
		return lists.NewUniverse(), nil
	default:
		return nil, fmt.Errorf("unknown domain %q", domain)
	}
}

func newWorld(world config.WorldConfig) (entity.Root, error) {
	switch world.Domain {
	case lists.Name:
		board := lists.NewWorld(world.Values...)
		if world.Title != "" {
			board.Title = world.Title
		}
		return board, nil
	default:
		return nil, fmt.Errorf("unknown domain %q", world.Domain)
	}
}
