package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testsmith/testsmith/internal/model"
	"github.com/testsmith/testsmith/internal/resolve"
	"github.com/testsmith/testsmith/internal/validate"
)

const calculatorJava = `package com.example;

public class Calculator {
    public int add(int a, int b) {
        return a + b;
    }

    public int divide(int a, int b) {
        return a / b;
    }
}
`

const generatedJUnit = `import org.junit.Test;
import static org.junit.Assert.*;

public class CalculatorTest {
    @Test
    public void testAdd() {
        assertEquals(5, new Calculator().add(2, 3));
    }
}
`

// fakeGenerator returns canned text and records how often it was called.
type fakeGenerator struct {
	text  string
	err   error
	calls atomic.Int64
	last  atomic.Pointer[model.GenerationRequest]
}

func (f *fakeGenerator) Generate(_ context.Context, req *model.GenerationRequest) (string, error) {
	f.calls.Add(1)
	f.last.Store(req)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func heuristicValidator() *validate.Validator {
	return validate.NewValidator(
		validate.WithToolchain(model.Java, validate.Toolchain{}),
		validate.WithToolchain(model.Kotlin, validate.Toolchain{}),
		validate.WithToolchain(model.Python, validate.Toolchain{}),
	)
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunFileEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "Calculator.java", calculatorJava)

	gen := &fakeGenerator{text: generatedJUnit}
	p := New(gen, heuristicValidator(), nil, Options{Framework: "junit"})

	res, err := p.RunFile(context.Background(), src)
	require.NoError(t, err)

	// Whole-file request: no target, default style profile.
	req := gen.last.Load()
	require.NotNil(t, req)
	assert.Nil(t, req.TargetMember)
	require.NotNil(t, req.StyleProfile)
	assert.Equal(t, model.DefaultStyleProfile(), *req.StyleProfile)
	assert.Equal(t, "com.example", req.Model.Package)
	assert.Equal(t, 2, req.Model.MemberCount())

	assert.True(t, res.Validation.SyntaxValid)
	assert.Equal(t, model.Heuristic, res.Validation.MethodUsed)

	written, err := os.ReadFile(filepath.Join(dir, "CalculatorTest.java"))
	require.NoError(t, err)
	assert.Equal(t, generatedJUnit, string(written))
}

func TestRunFileTargetedMember(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "Calculator.java", calculatorJava)

	gen := &fakeGenerator{text: generatedJUnit}
	p := New(gen, heuristicValidator(), nil, Options{Framework: "junit", TargetMember: "add"})

	_, err := p.RunFile(context.Background(), src)
	require.NoError(t, err)

	req := gen.last.Load()
	require.NotNil(t, req)
	require.NotNil(t, req.TargetMember)
	assert.Equal(t, "add", req.TargetMember.Name)
}

func TestRunFileUnknownMemberSuggests(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "Calculator.java", calculatorJava)

	gen := &fakeGenerator{text: generatedJUnit}
	p := New(gen, heuristicValidator(), nil, Options{Framework: "junit", TargetMember: "multiply"})

	_, err := p.RunFile(context.Background(), src)
	require.Error(t, err)

	var nf *resolve.MemberNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "multiply", nf.Target)
	for _, s := range nf.Suggestions {
		assert.Contains(t, []string{"add", "divide"}, s.Name)
	}
	assert.Equal(t, int64(0), gen.calls.Load())
}

func TestRunFileDryRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "Calculator.java", calculatorJava)

	p := New(nil, heuristicValidator(), nil, Options{Framework: "junit", DryRun: true})
	res, err := p.RunFile(context.Background(), src)
	require.NoError(t, err)

	require.NotNil(t, res.Request)
	assert.Empty(t, res.Generated)
	assert.NoFileExists(t, filepath.Join(dir, "CalculatorTest.java"))
}

func TestRunFileExampleDrivesStyle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "Calculator.java", calculatorJava)

	example := `@Test
public void testAdd() {
    assertEquals(4, calc.add(2, 2));
}
`
	gen := &fakeGenerator{text: generatedJUnit}
	p := New(gen, heuristicValidator(), nil, Options{Framework: "junit", ExampleText: example})

	_, err := p.RunFile(context.Background(), src)
	require.NoError(t, err)

	req := gen.last.Load()
	require.NotNil(t, req.StyleProfile)
	assert.Equal(t, model.SingleAssertion, req.StyleProfile.AssertionsPerTest)
	assert.Contains(t, req.StyleProfile.AssertionKeywords, "assertEquals")
}

func TestRunFileGenerationFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "Calculator.java", calculatorJava)

	gen := &fakeGenerator{err: errors.New("endpoint down")}
	p := New(gen, heuristicValidator(), nil, Options{Framework: "junit"})

	res, err := p.RunFile(context.Background(), src)
	require.Error(t, err)
	assert.NotNil(t, res.Model)
	assert.NoFileExists(t, filepath.Join(dir, "CalculatorTest.java"))
}

func TestRunDirProcessesAllFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSource(t, dir, "Calculator.java", calculatorJava)
	writeSource(t, dir, "lib/slug.py", "def slugify(text):\n    return text.lower()\n")
	// A file no extractor can model: failure must stay isolated.
	writeSource(t, dir, "empty.py", "# nothing here\n")

	gen := &fakeGenerator{text: generatedJUnit}
	p := New(gen, heuristicValidator(), nil, Options{Framework: "junit"})

	results, sum, err := p.RunDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Processed)
	assert.Equal(t, 2, sum.Generated)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, results, 3)

	// Results come back in discovery order.
	assert.Equal(t, filepath.Join(dir, "Calculator.java"), results[0].SourcePath)
	assert.Equal(t, filepath.Join(dir, "empty.py"), results[1].SourcePath)
	assert.Error(t, results[1].Err)
	assert.Equal(t, filepath.Join(dir, "lib", "slug.py"), results[2].SourcePath)
}

func TestRunDirEmpty(t *testing.T) {
	t.Parallel()

	results, sum, err := New(nil, heuristicValidator(), nil, Options{Framework: "junit", DryRun: true}).
		RunDir(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, Summary{}, sum)
}

func TestTestFilePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("src", "test_calc.py"), TestFilePath(filepath.Join("src", "calc.py"), ""))
	assert.Equal(t, filepath.Join("src", "CalculatorTest.java"), TestFilePath(filepath.Join("src", "Calculator.java"), ""))
	assert.Equal(t, filepath.Join("tests", "HandlerTest.kt"), TestFilePath(filepath.Join("src", "Handler.kt"), "tests"))
}
