package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetGroundTruth_BasicFilesystem(t *testing.T) {
	gt := GetGroundTruth(BasicFilesystem)

	assert.Equal(t, 71831, gt.ExpectedAnswer)
	assert.Equal(t, 14, gt.NumTestFiles)

	assert.Equal(t, []string{
		"framework",
		"framework/eval",
		"framework/eval/scenarios",
		"framework/integration",
		"framework/tests",
		"framework/tests/fixtures",
	}, gt.RequiredPaths)

	// Test file sizes are in; decoys are not.
	assert.True(t, gt.TestFileSizes[6220])
	assert.True(t, gt.TestFileSizes[10777])
	assert.False(t, gt.TestFileSizes[22000], "pyc decoy must not count")
	assert.False(t, gt.TestFileSizes[4100], "non-test fixture must not count")
	assert.False(t, gt.TestFileSizes[18104], "source file must not count")

	assert.Equal(t, 18104, gt.AllFiles["framework/agents.py"])
	assert.Equal(t, 6220, gt.TestFiles["framework/tests/test_agents.py"])
}

func TestGetGroundTruth_SumMatchesTestFiles(t *testing.T) {
	gt := GetGroundTruth(BasicFilesystem)

	sum := 0
	for _, size := range gt.TestFiles {
		sum += size
	}
	assert.Equal(t, gt.ExpectedAnswer, sum)
}

func TestIsTestFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"framework/tests/test_agents.py", true},
		{"test_top.py", true},
		{"framework/tests/conftest.py", false},
		{"framework/__pycache__/test_agents.cpython-311.pyc", false},
		{"framework/latest_results.py", false},
		{"framework/tests/test_", false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, isTestFile(tc.path), tc.path)
	}
}

func TestComputeRequiredPaths(t *testing.T) {
	paths := computeRequiredPaths([]string{
		"a/b/c/test_x.py",
		"a/test_y.py",
	})
	assert.Equal(t, []string{"a", "a/b", "a/b/c"}, paths)
}

func TestGetGroundTruth_NestedMapTypes(t *testing.T) {
	// YAML loading yields map[string]any, literals yield Filesystem; both
	// must flatten the same way.
	fs := Filesystem{
		"root": map[string]any{
			"test_a.py": 100,
			"sub": map[string]any{
				"test_b.py": float64(200),
			},
		},
	}
	gt := GetGroundTruth(fs)
	require.Equal(t, 300, gt.ExpectedAnswer)
	assert.Equal(t, []string{"root", "root/sub"}, gt.RequiredPaths)
}

func TestInitialPath(t *testing.T) {
	assert.Equal(t, "framework", InitialPath(BasicFilesystem))

	assert.Equal(t, "alpha", InitialPath(Filesystem{
		"zeta":      Filesystem{"test_z.py": 1},
		"alpha":     map[string]any{"test_a.py": 2},
		"readme.md": 10,
	}))

	assert.Equal(t, "", InitialPath(Filesystem{"only_file.py": 5}))
}
