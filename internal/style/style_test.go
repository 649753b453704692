package style

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/testsmith/testsmith/internal/model"
)

func TestProfileEmptyReturnsDefault(t *testing.T) {
	t.Parallel()

	got := Profile("")
	assert.Equal(t, model.DefaultStyleProfile(), got)
}

func TestProfileNoTestConstructs(t *testing.T) {
	t.Parallel()

	got := Profile("some prose\nthat is not a test\n")
	assert.Equal(t, model.MultipleAssertions, got.AssertionsPerTest)
	assert.False(t, got.IncludesBoundaryCases)
	assert.Empty(t, got.AssertionKeywords)
}

func TestProfileJUnitSingleAssertion(t *testing.T) {
	t.Parallel()

	example := `import org.junit.Test;
import static org.junit.Assert.*;

public class CalculatorTest {
    @Test
    public void testAdd() {
        Calculator calc = new Calculator();
        assertEquals(10, calc.add(4, 6));
    }

    @Test
    public void testSubtract() {
        Calculator calc = new Calculator();
        assertEquals(2, calc.subtract(6, 4));
    }
}
`
	got := Profile(example)
	assert.Equal(t, model.SingleAssertion, got.AssertionsPerTest)
	assert.Equal(t, model.VerbosityMinimal, got.CommentVerbosity)
	assert.Equal(t, []string{"assertEquals"}, got.AssertionKeywords)
	assert.False(t, got.IncludesBoundaryCases)
}

func TestProfileMultipleAssertionsAndBoundaries(t *testing.T) {
	t.Parallel()

	example := `import unittest

class TestRepository(unittest.TestCase):
    def test_save(self):
        repo = Repository("/tmp")
        self.assertTrue(repo.save("a"))
        self.assertEqual(1, repo.count())

    def test_empty(self):
        repo = Repository("/tmp")
        self.assertEqual(0, repo.count())
        self.assertFalse(repo.save(""))
`
	got := Profile(example)
	assert.Equal(t, model.MultipleAssertions, got.AssertionsPerTest)
	assert.True(t, got.IncludesBoundaryCases)
	assert.Equal(t, []string{"assertEqual", "assertFalse", "assertTrue"}, got.AssertionKeywords)
}

func TestProfileCommentVerbosity(t *testing.T) {
	t.Parallel()

	detailed := `# Arrange: build the calculator under test.
# Act: add two representative values.
# Assert: the sum matches the expected total.
def test_add():
    calc = Calculator()
    assert calc.add(2, 3) == 5
`
	got := Profile(detailed)
	assert.Equal(t, model.VerbosityDetailed, got.CommentVerbosity)

	standard := `def test_add():
    calc = Calculator()
    # one comment among several code lines
    value = calc.add(2, 3)
    assert_result(value)
    check(value)
    done(value)
`
	got = Profile(standard)
	assert.Equal(t, model.VerbosityStandard, got.CommentVerbosity)
}

func TestProfileDerivedNotMutated(t *testing.T) {
	t.Parallel()

	example := "@Test\nvoid testX() { assertTrue(f(0)); }\n"
	first := Profile(example)
	second := Profile(example)
	assert.Equal(t, first, second)
}
