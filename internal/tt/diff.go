package tt

import (
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"
)

// RequireTextEqual fails the test with a unified diff when got differs from
// want. Use for multi-line text (prompts, listings, reports) where
// assert.Equal's single-line dump is unreadable.
func RequireTextEqual(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	require.NoError(t, err)
	t.Fatalf("text mismatch:\n%s", diff)
}
