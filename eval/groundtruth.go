package eval

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Filesystem is a mock directory tree. A string key maps either to a nested
// Filesystem (directory) or an int (file size in bytes).
type Filesystem map[string]any

// GroundTruth is everything the validators need, derived mechanically from
// a Filesystem so fixtures can't drift from their expected results.
type GroundTruth struct {
	// AllFiles maps every file path to its size.
	AllFiles map[string]int

	// TestFiles maps test_*.py file paths to their sizes.
	TestFiles map[string]int

	// TestFileSizes is the set of sizes the final sum must be built from.
	TestFileSizes map[int]bool

	// RequiredPaths lists every directory that contains a test file,
	// directly or transitively. All must be explored.
	RequiredPaths []string

	// ExpectedAnswer is the sum of all test file sizes.
	ExpectedAnswer int

	NumTestFiles int
}

// GetGroundTruth extracts ground truth data from a filesystem.
func GetGroundTruth(fs Filesystem) GroundTruth {
	allFiles := extractAllFileSizes(fs, "")
	testFiles := lo.PickBy(allFiles, func(path string, size int) bool {
		return isTestFile(path)
	})

	return GroundTruth{
		AllFiles:  allFiles,
		TestFiles: testFiles,
		TestFileSizes: lo.SliceToMap(lo.Values(testFiles), func(size int) (int, bool) {
			return size, true
		}),
		RequiredPaths:  computeRequiredPaths(lo.Keys(testFiles)),
		ExpectedAnswer: lo.Sum(lo.Values(testFiles)),
		NumTestFiles:   len(testFiles),
	}
}

// InitialPath returns the directory exploration should start from: the
// lexically first top-level directory of the tree.
func InitialPath(fs Filesystem) string {
	var dirs []string
	for name, value := range fs {
		switch value.(type) {
		case Filesystem, map[string]any:
			dirs = append(dirs, name)
		}
	}
	sort.Strings(dirs)
	if len(dirs) == 0 {
		return ""
	}
	return dirs[0]
}

// extractAllFileSizes recursively flattens the tree into path -> size.
func extractAllFileSizes(fs Filesystem, prefix string) map[string]int {
	files := map[string]int{}
	for name, value := range fs {
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}
		switch v := value.(type) {
		case Filesystem:
			for p, size := range extractAllFileSizes(v, path) {
				files[p] = size
			}
		case map[string]any:
			for p, size := range extractAllFileSizes(Filesystem(v), path) {
				files[p] = size
			}
		case int:
			files[path] = v
		case float64:
			files[path] = int(v)
		}
	}
	return files
}

func isTestFile(path string) bool {
	base := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		base = path[i+1:]
	}
	return strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py")
}

// computeRequiredPaths returns every ancestor directory of the given file
// paths, sorted.
func computeRequiredPaths(filePaths []string) []string {
	dirs := map[string]bool{}
	for _, filePath := range filePaths {
		parts := strings.Split(filePath, "/")
		for i := 1; i < len(parts); i++ {
			dirs[strings.Join(parts[:i], "/")] = true
		}
	}
	paths := lo.Keys(dirs)
	sort.Strings(paths)
	return paths
}
