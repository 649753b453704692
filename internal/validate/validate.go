// Package validate checks generated test code for syntactic plausibility.
// It prefers the language's native toolchain when one is installed and falls
// back to structural heuristics when it is not.
package validate

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/testsmith/testsmith/internal/model"
)

// DefaultTimeout bounds a single native toolchain invocation.
const DefaultTimeout = 10 * time.Second

// Validator runs two-tier syntax validation. Toolchain detection happens at
// most once per language per Validator, so repeated files in one run share
// the same capability view.
type Validator struct {
	timeout time.Duration
	logger  *slog.Logger
	detect  func(model.Language) Toolchain

	mu         sync.Mutex
	toolchains map[model.Language]Toolchain
}

// Option configures a Validator.
type Option func(*Validator)

// WithTimeout overrides the native toolchain timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) { v.timeout = d }
}

// WithLogger overrides the validator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// WithToolchain pins the toolchain for one language, bypassing detection.
func WithToolchain(lang model.Language, tc Toolchain) Option {
	return func(v *Validator) { v.toolchains[lang] = tc }
}

// NewValidator builds a Validator with host toolchain detection.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
		detect:     DetectToolchain,
		toolchains: make(map[model.Language]Toolchain),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks text for syntactic validity. A toolchain that reports a
// compile error yields an invalid result; a toolchain that cannot be launched
// or times out is treated as unavailable and the heuristic tier decides.
func (v *Validator) Validate(ctx context.Context, text string, lang model.Language, frameworkID string) model.ValidationResult {
	tc := v.toolchainFor(lang)
	if tc.Available {
		res, launched := v.runToolchain(ctx, tc, text, lang)
		if launched {
			return res
		}
		v.logger.Info("native toolchain did not run, using heuristic validation",
			"language", string(lang), "binary", tc.Binary)
	}
	return heuristicValidate(text, lang, frameworkID)
}

func (v *Validator) toolchainFor(lang model.Language) Toolchain {
	v.mu.Lock()
	defer v.mu.Unlock()
	tc, ok := v.toolchains[lang]
	if !ok {
		tc = v.detect(lang)
		v.toolchains[lang] = tc
	}
	return tc
}

// runToolchain invokes the toolchain against text in a temporary compilation
// unit. The second return is false when the toolchain never produced a
// verdict: launch failure or timeout, as opposed to a reported compile error.
func (v *Validator) runToolchain(ctx context.Context, tc Toolchain, text string, lang model.Language) (model.ValidationResult, bool) {
	dir, path, err := writeTempUnit(text, lang)
	if err != nil {
		return model.ValidationResult{}, false
	}
	defer os.RemoveAll(dir)

	cctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, tc.Binary, tc.Args(path)...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err == nil {
		return model.ValidationResult{SyntaxValid: true, MethodUsed: model.NativeToolchain}, true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && cctx.Err() == nil {
		return model.ValidationResult{
			SyntaxValid: false,
			Diagnostic:  strings.TrimSpace(string(out)),
			MethodUsed:  model.NativeToolchain,
		}, true
	}
	return model.ValidationResult{}, false
}
