package validate

import (
	"context"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/testsmith/testsmith/internal/model"
)

const validJUnitText = `import org.junit.Test;
import static org.junit.Assert.*;

public class CalculatorTest {
    @Test
    public void testAdd() {
        Calculator calc = new Calculator();
        assertEquals(10, calc.add(4, 6));
    }
}
`

const validPytestText = `import pytest

def test_slugify():
    assert slugify("Hello World") == "hello-world"
`

// noToolchain returns a Validator that never finds a native toolchain, so
// every verdict comes from the heuristic tier.
func noToolchain(t *testing.T) *Validator {
	t.Helper()
	return NewValidator(
		WithToolchain(model.Java, Toolchain{}),
		WithToolchain(model.Kotlin, Toolchain{}),
		WithToolchain(model.Python, Toolchain{}),
	)
}

func TestValidateHeuristicValid(t *testing.T) {
	t.Parallel()
	v := noToolchain(t)

	res := v.Validate(context.Background(), validJUnitText, model.Java, "junit")
	assert.True(t, res.SyntaxValid)
	assert.Equal(t, model.Heuristic, res.MethodUsed)
	assert.Empty(t, res.Diagnostic)

	res = v.Validate(context.Background(), validPytestText, model.Python, "pytest")
	assert.True(t, res.SyntaxValid)
	assert.Equal(t, model.Heuristic, res.MethodUsed)
}

func TestValidateHeuristicFailures(t *testing.T) {
	t.Parallel()
	v := noToolchain(t)

	cases := []struct {
		name       string
		text       string
		lang       model.Language
		framework  string
		diagnostic string
	}{
		{
			name:       "unbalanced braces",
			text:       "import org.junit.Test;\npublic class T {\n@Test\npublic void testA() {\nassertTrue(true);\n}\n",
			lang:       model.Java,
			framework:  "junit",
			diagnostic: "balanced delimiters",
		},
		{
			name:       "missing framework markers",
			text:       "def test_x():\n    assert f(1) == 2\n",
			lang:       model.Python,
			framework:  "unittest",
			diagnostic: "framework markers",
		},
		{
			name:       "no test declaration",
			text:       "import unittest\n\nclass Helper(unittest.TestCase):\n    pass\n",
			lang:       model.Python,
			framework:  "unittest",
			diagnostic: "test declaration",
		},
		{
			name:       "unterminated string",
			text:       "import pytest\n\ndef test_x():\n    assert f(1) == \"abc\n",
			lang:       model.Python,
			framework:  "pytest",
			diagnostic: "unterminated string literal",
		},
		{
			name:       "missing semicolon",
			text:       "import org.junit.Test;\npublic class T {\n@Test\npublic void testA() {\nint total = 5\n}\n}\n",
			lang:       model.Java,
			framework:  "junit",
			diagnostic: "statement termination",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := v.Validate(context.Background(), tc.text, tc.lang, tc.framework)
			assert.False(t, res.SyntaxValid)
			assert.Equal(t, model.Heuristic, res.MethodUsed)
			assert.Equal(t, tc.diagnostic, res.Diagnostic)
		})
	}
}

func TestValidateToolchainVerdicts(t *testing.T) {
	t.Parallel()

	passBin, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no true binary on host")
	}
	failBin, err := exec.LookPath("false")
	if err != nil {
		t.Skip("no false binary on host")
	}

	passArgs := func(string) []string { return nil }

	v := NewValidator(WithToolchain(model.Java, Toolchain{Available: true, Binary: passBin, Args: passArgs}))
	res := v.Validate(context.Background(), validJUnitText, model.Java, "junit")
	assert.True(t, res.SyntaxValid)
	assert.Equal(t, model.NativeToolchain, res.MethodUsed)

	v = NewValidator(WithToolchain(model.Java, Toolchain{Available: true, Binary: failBin, Args: passArgs}))
	res = v.Validate(context.Background(), validJUnitText, model.Java, "junit")
	assert.False(t, res.SyntaxValid)
	assert.Equal(t, model.NativeToolchain, res.MethodUsed)
}

func TestValidateLaunchFailureFallsBack(t *testing.T) {
	t.Parallel()

	broken := Toolchain{
		Available: true,
		Binary:    "/nonexistent/testsmith-compiler",
		Args:      func(string) []string { return nil },
	}
	v := NewValidator(WithToolchain(model.Java, broken))

	res := v.Validate(context.Background(), validJUnitText, model.Java, "junit")
	assert.True(t, res.SyntaxValid)
	assert.Equal(t, model.Heuristic, res.MethodUsed)
}

func TestWriteTempUnitJavaNaming(t *testing.T) {
	t.Parallel()

	dir, path, err := writeTempUnit(validJUnitText, model.Java)
	assert.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	assert.Contains(t, path, "CalculatorTest.java")

	dir2, path2, err := writeTempUnit("x = 1\n", model.Python)
	assert.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir2) })
	assert.Contains(t, path2, "generated_test.py")
}
