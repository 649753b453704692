// Package pipeline wires extraction, resolution, style profiling, request
// building, generation, and validation into per-file and per-directory runs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/testsmith/testsmith/internal/discover"
	"github.com/testsmith/testsmith/internal/extract"
	"github.com/testsmith/testsmith/internal/generate"
	"github.com/testsmith/testsmith/internal/model"
	"github.com/testsmith/testsmith/internal/request"
	"github.com/testsmith/testsmith/internal/resolve"
	"github.com/testsmith/testsmith/internal/style"
	"github.com/testsmith/testsmith/internal/validate"
)

// Options configures one run. TargetMember and ExampleText are only
// meaningful for single-file runs.
type Options struct {
	TargetMember string
	ExampleText  string
	Hint         string
	Framework    string
	TestDir      string
	Excludes     []string
	DryRun       bool
}

// FileResult is the outcome for one source file. Err is set when any stage
// failed; the other fields hold whatever was produced before the failure.
type FileResult struct {
	SourcePath string
	TestPath   string
	Model      *model.SourceModel
	Request    *model.GenerationRequest
	Generated  string
	Validation model.ValidationResult
	Err        error
}

// Summary aggregates a directory run.
type Summary struct {
	Processed int
	Generated int
	Valid     int
	Failed    int
}

// Pipeline executes the generation pipeline. The Generator may be nil for
// dry runs, where no external capability is contacted.
type Pipeline struct {
	gen       generate.Generator
	validator *validate.Validator
	logger    *slog.Logger
	opts      Options
}

// New builds a Pipeline.
func New(gen generate.Generator, validator *validate.Validator, logger *slog.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = validate.NewValidator(validate.WithLogger(logger))
	}
	return &Pipeline{gen: gen, validator: validator, logger: logger, opts: opts}
}

// RunFile processes a single source file end to end. The returned result is
// non-nil whenever the file could be read and its language recognized.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*FileResult, error) {
	lang := model.ForExtension(filepath.Ext(path))
	if lang == "" {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	res := &FileResult{SourcePath: path}

	m, err := extract.Extract(string(source), lang)
	if err != nil {
		res.Err = fmt.Errorf("extract %s: %w", path, err)
		return res, res.Err
	}
	res.Model = m
	p.logger.Debug("extracted source model", "path", path,
		"language", string(lang), "members", m.MemberCount())

	var target *model.MemberDescriptor
	if p.opts.TargetMember != "" {
		target, err = resolve.Resolve(m, p.opts.TargetMember)
		if err != nil {
			res.Err = err
			return res, res.Err
		}
		p.logger.Debug("resolved target member", "path", path, "member", target.Name)
	}

	sp := model.DefaultStyleProfile()
	if p.opts.ExampleText != "" {
		sp = style.Profile(p.opts.ExampleText)
		p.logger.Debug("derived style profile", "path", path,
			"verbosity", string(sp.CommentVerbosity), "assertions", string(sp.AssertionsPerTest))
	}

	req, err := request.Build(m, target, &sp, p.opts.Hint, p.opts.Framework)
	if err != nil {
		res.Err = err
		return res, res.Err
	}
	res.Request = req
	res.TestPath = TestFilePath(path, p.opts.TestDir)

	if p.opts.DryRun {
		return res, nil
	}
	if p.gen == nil {
		res.Err = &generate.CapabilityError{Reason: "no generator configured"}
		return res, res.Err
	}

	text, err := p.gen.Generate(ctx, req)
	if err != nil {
		res.Err = fmt.Errorf("generate tests for %s: %w", path, err)
		return res, res.Err
	}
	res.Generated = text
	p.logger.Debug("generated test code", "path", path, "bytes", len(text))

	res.Validation = p.validator.Validate(ctx, text, lang, req.FrameworkID)
	if !res.Validation.SyntaxValid {
		p.logger.Warn("generated tests failed syntax validation",
			"path", path, "method", string(res.Validation.MethodUsed),
			"diagnostic", res.Validation.Diagnostic)
	}

	if err := p.persist(res); err != nil {
		res.Err = err
		return res, res.Err
	}
	return res, nil
}

// RunDir discovers source files under root and processes them concurrently.
// One failing file never aborts the others; ctx is only checked between
// dispatches, so in-flight files finish.
func (p *Pipeline) RunDir(ctx context.Context, root string) ([]FileResult, Summary, error) {
	files, err := discover.Files(root, p.opts.Excludes)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("discover files under %s: %w", root, err)
	}
	if len(files) == 0 {
		return nil, Summary{}, nil
	}

	type indexed struct {
		index int
		res   FileResult
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make(chan indexed, len(files))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				path := filepath.Join(root, files[idx].Path)
				res, err := p.RunFile(ctx, path)
				if res == nil {
					res = &FileResult{SourcePath: path, Err: err}
				}
				if res.Err != nil {
					p.logger.Error("file failed", "path", path, "error", res.Err)
				}
				results <- indexed{index: idx, res: *res}
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := range files {
		select {
		case <-ctx.Done():
			break dispatch
		case work <- i:
			dispatched++
		}
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*FileResult, len(files))
	for r := range results {
		res := r.res
		ordered[r.index] = &res
	}

	var out []FileResult
	var sum Summary
	for _, res := range ordered {
		if res == nil {
			continue
		}
		out = append(out, *res)
		sum.Processed++
		switch {
		case res.Err != nil:
			sum.Failed++
		case res.Generated != "":
			sum.Generated++
			if res.Validation.SyntaxValid {
				sum.Valid++
			}
		}
	}
	if ctx.Err() != nil && dispatched < len(files) {
		return out, sum, ctx.Err()
	}
	return out, sum, nil
}

// persist writes the generated test next to the source, or under the
// configured test directory.
func (p *Pipeline) persist(res *FileResult) error {
	text := res.Generated
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := os.MkdirAll(filepath.Dir(res.TestPath), 0o755); err != nil {
		return fmt.Errorf("create test directory: %w", err)
	}
	if err := os.WriteFile(res.TestPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", res.TestPath, err)
	}
	p.logger.Info("wrote generated tests", "path", res.TestPath,
		"valid", res.Validation.SyntaxValid)
	return nil
}

// TestFilePath derives the test file path for a source file: test_<name>.py
// for Python, <Name>Test.<ext> for Java and Kotlin. When testDir is set the
// file goes there, otherwise next to the source.
func TestFilePath(sourcePath, testDir string) string {
	dir := filepath.Dir(sourcePath)
	if testDir != "" {
		dir = testDir
	}
	ext := filepath.Ext(sourcePath)
	base := strings.TrimSuffix(filepath.Base(sourcePath), ext)
	var name string
	if model.ForExtension(ext) == model.Python {
		name = "test_" + base + ext
	} else {
		name = base + "Test" + ext
	}
	return filepath.Join(dir, name)
}
