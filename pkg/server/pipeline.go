package server

import (
	"log/slog"
	"time"

	"github.com/mikeboe/osint-investigator/pkg/clients"
	"github.com/mikeboe/osint-investigator/pkg/config"
	"github.com/mikeboe/osint-investigator/pkg/osint"
	"github.com/mikeboe/osint-investigator/pkg/osint/tools"
)

// Pipeline holds the collaborators shared by every search.
type Pipeline struct {
	Searcher   osint.Searcher
	Annotator  osint.Annotator // nil when NER is not configured
	Completer  osint.Completer
	AIKeys     []string
	AITimeout  time.Duration
	SearchKeys int
}

// NewPipeline builds the provider adapters described by cfg.
func NewPipeline(cfg *config.Config) (*Pipeline, error) {
	completer, err := clients.NewCompleter(cfg.AIBackend, clients.ModelType(cfg.GeminiModel))
	if err != nil {
		return nil, err
	}

	creds := cfg.SearchCredentials()
	p := &Pipeline{
		Searcher:   tools.NewCustomSearch(creds, cfg.SearchCountry, cfg.SearchLang, time.Duration(cfg.SearchTimeoutSeconds)*time.Second),
		Completer:  completer,
		AIKeys:     nonEmpty(cfg.GeminiAPIKeys),
		AITimeout:  time.Duration(cfg.AITimeoutSeconds) * time.Second,
		SearchKeys: len(creds),
	}
	if cfg.NERURL != "" {
		p.Annotator = tools.NewNERClient(cfg.NERURL, cfg.NERAPIKey, 15*time.Second)
	}
	return p, nil
}

// Engine returns a fresh engine for one search, logging to logger.
func (p *Pipeline) Engine(logger *slog.Logger) *osint.Engine {
	synth := &osint.Synthesizer{
		Completer: p.Completer,
		Keys:      p.AIKeys,
		Timeout:   p.AITimeout,
		Logger:    logger,
	}
	e := osint.NewEngine(p.Searcher, p.Annotator, synth)
	e.Logger = logger
	if cs, ok := p.Searcher.(*tools.CustomSearch); ok {
		scoped := *cs
		scoped.Logger = logger
		e.Searcher = &scoped
	}
	return e
}

// NERAvailable reports whether entity extraction is configured.
func (p *Pipeline) NERAvailable() bool {
	return p.Annotator != nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
