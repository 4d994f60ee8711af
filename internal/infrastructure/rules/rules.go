// Package rules loads classifier keyword overrides from YAML and keeps the
// classifier in effect current when the file changes.
package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/iho/periodledger/internal/domain"
)

// File is the on-disk shape of a keyword override file:
//
//	keywords:
//	  bill: [bill, utility, rent]
//	  savings: [savings, goal]
//
// Classes left out keep their built-in keywords.
type File struct {
	Keywords map[string][]string `yaml:"keywords"`
}

// Parse decodes a keyword file and builds a classifier from it.
func Parse(data []byte) (*domain.Classifier, error) {
	var f File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	known := make(map[domain.TransactionClass]bool, len(domain.ClassPriority))
	for _, c := range domain.ClassPriority {
		known[c] = true
	}

	keywords := make(map[domain.TransactionClass][]string, len(f.Keywords))
	for name, kws := range f.Keywords {
		class := domain.TransactionClass(name)
		if !known[class] {
			return nil, fmt.Errorf("unknown class %q in rules", name)
		}
		if len(kws) == 0 {
			return nil, fmt.Errorf("class %q has no keywords", name)
		}
		keywords[class] = kws
	}

	return domain.NewClassifier(keywords), nil
}

// Load reads and parses the keyword file at path.
func Load(path string) (*domain.Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(data)
}

// Provider hands out the classifier currently in effect. It implements
// usecase.ClassifierSource and is safe for concurrent use.
type Provider struct {
	current atomic.Pointer[domain.Classifier]
	path    string
	logger  zerolog.Logger
}

// NewProvider returns a provider serving the built-in keyword sets.
func NewProvider(logger zerolog.Logger) *Provider {
	p := &Provider{logger: logger.With().Str("component", "rules").Logger()}
	p.current.Store(domain.DefaultClassifier())
	return p
}

// NewFileProvider returns a provider loaded from path. It fails if the file
// cannot be read or parsed.
func NewFileProvider(path string, logger zerolog.Logger) (*Provider, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	p := NewProvider(logger)
	p.path = path
	p.current.Store(c)
	return p, nil
}

// Classifier returns the classifier in effect.
func (p *Provider) Classifier() *domain.Classifier {
	return p.current.Load()
}

// Reload re-reads the provider's file. On failure the previous classifier
// stays in effect.
func (p *Provider) Reload() error {
	if p.path == "" {
		return errors.New("rules provider has no file")
	}

	c, err := Load(p.path)
	if err != nil {
		return err
	}

	p.current.Store(c)
	p.logger.Info().Str("path", p.path).Msg("classifier rules reloaded")
	return nil
}
