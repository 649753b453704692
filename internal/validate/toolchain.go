package validate

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/testsmith/testsmith/internal/model"
)

// Toolchain is the native compiler/interpreter capability for one language.
// It is detected once per run and injected into the Validator, so validation
// control flow is a pure function of its inputs plus this capability.
type Toolchain struct {
	Available bool
	Binary    string
	// Args builds the argument list for checking the file at path.
	Args func(path string) []string
}

// DetectToolchain probes the execution host for lang's native toolchain.
func DetectToolchain(lang model.Language) Toolchain {
	switch lang {
	case model.Java:
		if bin, err := exec.LookPath("javac"); err == nil {
			return Toolchain{
				Available: true,
				Binary:    bin,
				Args:      func(p string) []string { return []string{"-proc:none", "-nowarn", p} },
			}
		}
	case model.Kotlin:
		if bin, err := exec.LookPath("kotlinc"); err == nil {
			return Toolchain{
				Available: true,
				Binary:    bin,
				Args:      func(p string) []string { return []string{p} },
			}
		}
	case model.Python:
		for _, name := range []string{"python3", "python"} {
			if bin, err := exec.LookPath(name); err == nil {
				return Toolchain{
					Available: true,
					Binary:    bin,
					Args:      func(p string) []string { return []string{"-m", "py_compile", p} },
				}
			}
		}
	}
	return Toolchain{}
}

var javaPublicTypeRe = regexp.MustCompile(`public\s+(?:final\s+|abstract\s+)?(?:class|interface|enum)\s+([A-Za-z_]\w*)`)

// writeTempUnit writes text into a disposable temporary compilation unit.
// javac requires the file name to match the public class, so the Java unit
// is named after the first public type found in the text.
func writeTempUnit(text string, lang model.Language) (dir, path string, err error) {
	dir, err = os.MkdirTemp("", "testsmith-validate-")
	if err != nil {
		return "", "", err
	}
	var name string
	switch lang {
	case model.Java:
		name = "GeneratedTest.java"
		if mt := javaPublicTypeRe.FindStringSubmatch(text); mt != nil {
			name = mt[1] + ".java"
		}
	case model.Kotlin:
		name = "GeneratedTest.kt"
	default:
		name = "generated_test.py"
	}
	path = filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		os.RemoveAll(dir)
		return "", "", err
	}
	return dir, path, nil
}
