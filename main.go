// Command testsmith generates unit tests for Java, Kotlin, and Python source
// files using an OpenAI-compatible endpoint, then syntax-checks the output.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/testsmith/testsmith/internal/config"
	"github.com/testsmith/testsmith/internal/generate"
	"github.com/testsmith/testsmith/internal/pipeline"
	"github.com/testsmith/testsmith/internal/validate"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err != flag.ErrHelp {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("testsmith", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		function    string
		examplePath string
		hint        string
		framework   string
		testDir     string
		excludes    string
		dryRun      bool
		verbose     bool
		showVersion bool
	)

	fs.StringVar(&function, "f", "", "generate tests for this member only")
	fs.StringVar(&function, "function", "", "generate tests for this member only")
	fs.StringVar(&examplePath, "example", "", "example test file whose style generated tests should follow")
	fs.StringVar(&hint, "hint", "", "free-text guidance passed to the generator")
	fs.StringVar(&framework, "framework", "", "test framework: junit, pytest, or unittest")
	fs.StringVar(&testDir, "test-dir", "", "directory to write generated tests into")
	fs.StringVar(&excludes, "exclude", "", "comma-separated directories to skip")
	fs.BoolVar(&dryRun, "dry-run", false, "build the generation request without calling the model")
	fs.BoolVar(&verbose, "v", false, "verbose logging")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "testsmith %s\n", version)
		return nil
	}

	if fs.NArg() != 1 {
		_, _ = fmt.Fprintln(stderr, "Usage: testsmith [flags] <file-or-directory>")
		fs.PrintDefaults()
		return fmt.Errorf("expected exactly one file or directory argument")
	}
	target := fs.Arg(0)

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}

	cfgDir := target
	if !info.IsDir() {
		cfgDir = filepath.Dir(target)
	}
	cfg, err := config.Load(cfgDir)
	if err != nil {
		return err
	}
	if framework == "" {
		framework = cfg.Framework
	}
	if testDir == "" {
		testDir = cfg.TestDir
	}
	excludeList := cfg.Excludes
	for _, e := range strings.Split(excludes, ",") {
		if e = strings.TrimSpace(e); e != "" {
			excludeList = append(excludeList, e)
		}
	}

	var exampleText string
	if examplePath != "" {
		b, err := os.ReadFile(examplePath)
		if err != nil {
			logger.Warn("example file unreadable, using default style", "path", examplePath, "error", err)
		} else {
			exampleText = string(b)
		}
	}

	opts := pipeline.Options{
		TargetMember: function,
		ExampleText:  exampleText,
		Hint:         hint,
		Framework:    framework,
		TestDir:      testDir,
		Excludes:     excludeList,
		DryRun:       dryRun,
	}

	var gen generate.Generator
	if !dryRun {
		g, err := generate.NewOpenAIGenerator(cfg, logger)
		if err != nil {
			return err
		}
		gen = g
	}
	validator := validate.NewValidator(
		validate.WithTimeout(cfg.ValidationTimeout()),
		validate.WithLogger(logger),
	)
	p := pipeline.New(gen, validator, logger, opts)
	ctx := context.Background()

	if info.IsDir() {
		if function != "" {
			return fmt.Errorf("-function applies to a single file, not a directory")
		}
		return runDir(ctx, p, target, dryRun, stdout, stderr)
	}
	return runFile(ctx, p, target, dryRun, stdout)
}

func runFile(ctx context.Context, p *pipeline.Pipeline, path string, dryRun bool, stdout io.Writer) error {
	res, err := p.RunFile(ctx, path)
	if err != nil {
		return err
	}
	if dryRun {
		out, err := json.MarshalIndent(res.Request, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, string(out))
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "%s -> %s [%s]\n", path, res.TestPath, verdict(res))
	return nil
}

func runDir(ctx context.Context, p *pipeline.Pipeline, root string, dryRun bool, stdout, stderr io.Writer) error {
	results, sum, err := p.RunDir(ctx, root)
	if err != nil {
		return err
	}
	for _, r := range results {
		switch {
		case r.Err != nil:
			_, _ = fmt.Fprintf(stderr, "Warning: %s: %v\n", r.SourcePath, r.Err)
		case dryRun:
			_, _ = fmt.Fprintf(stdout, "%s -> %s (dry run)\n", r.SourcePath, r.TestPath)
		default:
			_, _ = fmt.Fprintf(stdout, "%s -> %s [%s]\n", r.SourcePath, r.TestPath, verdict(&r))
		}
	}
	_, _ = fmt.Fprintf(stdout, "%d file(s) processed, %d generated, %d valid, %d failed\n",
		sum.Processed, sum.Generated, sum.Valid, sum.Failed)
	return nil
}

func verdict(res *pipeline.FileResult) string {
	if res.Validation.SyntaxValid {
		return "valid " + string(res.Validation.MethodUsed)
	}
	return "invalid: " + res.Validation.Diagnostic
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-f": true, "--f": true,
	"-function": true, "--function": true,
	"-example": true, "--example": true,
	"-hint": true, "--hint": true,
	"-framework": true, "--framework": true,
	"-test-dir": true, "--test-dir": true,
	"-exclude": true, "--exclude": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
