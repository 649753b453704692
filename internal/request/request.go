// Package request assembles the self-contained generation request handed to
// the external test-generation capability.
package request

import (
	"fmt"

	"github.com/testsmith/testsmith/internal/model"
)

// ErrUnsupportedFramework reports a framework identifier outside the
// recognized set.
var ErrUnsupportedFramework = fmt.Errorf("unsupported test framework")

// Frameworks is the recognized set of test-framework identifiers.
var Frameworks = map[string]struct{}{
	"junit":    {},
	"pytest":   {},
	"unittest": {},
}

// Build assembles a GenerationRequest. It is pure assembly: the only check is
// that frameworkID belongs to the recognized set.
func Build(m *model.SourceModel, target *model.MemberDescriptor, profile *model.StyleProfile, hint, frameworkID string) (*model.GenerationRequest, error) {
	if _, ok := Frameworks[frameworkID]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFramework, frameworkID)
	}
	return &model.GenerationRequest{
		Model:        *m,
		TargetMember: target,
		StyleProfile: profile,
		FreeTextHint: hint,
		FrameworkID:  frameworkID,
	}, nil
}
