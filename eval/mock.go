package eval

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"agentic"
	"agentic/schema"
	"agentic/tools"
)

// LoadFilesystem reads a filesystem scenario from a YAML (or JSON, which
// YAML subsumes) file.
func LoadFilesystem(path string) (Filesystem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return Filesystem(raw), nil
}

// navigate resolves a slash-separated path inside the mock tree. The second
// return is false when the path does not exist.
func navigate(fs Filesystem, path string) (any, bool) {
	var current any = fs
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		dir, ok := asDir(current)
		if !ok {
			return nil, false
		}
		child, ok := dir[part]
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, true
}

func asDir(v any) (Filesystem, bool) {
	switch d := v.(type) {
	case Filesystem:
		return d, true
	case map[string]any:
		return Filesystem(d), true
	}
	return nil, false
}

// NewMockListDirectory creates a list_directory tool backed by a mock
// filesystem for deterministic evaluation runs. Output matches the real
// tool's listing format so traces validate identically.
func NewMockListDirectory(fs Filesystem) *agentic.Tool {
	return agentic.NewTool(
		"list_directory",
		"List contents of a directory with metadata",
		schema.MustCompile(schema.Object(map[string]*schema.Property{
			"path":        schema.String("Path to list (relative to root)"),
			"show_hidden": schema.Boolean("Show hidden files").Default(false),
		}, "path")),
		func(ctx context.Context, args map[string]any, deps map[string]any) (any, error) {
			path, _ := args["path"].(string)
			showHidden, _ := args["show_hidden"].(bool)

			node, found := navigate(fs, path)
			if !found {
				return fmt.Sprintf("Error: Path '%s' not found", path), nil
			}
			dir, ok := asDir(node)
			if !ok {
				return fmt.Sprintf("Error: '%s' is not a directory", path), nil
			}

			names := make([]string, 0, len(dir))
			for name := range dir {
				if !showHidden && strings.HasPrefix(name, ".") {
					continue
				}
				names = append(names, name)
			}
			sort.Strings(names)

			lines := []string{fmt.Sprintf("Contents of '%s':", path)}
			for _, name := range names {
				if child, isDir := asDir(dir[name]); isDir {
					lines = append(lines,
						fmt.Sprintf(" %s/ (directory, %d items)", name, len(child)))
					continue
				}
				size := fileSize(dir[name])
				lines = append(lines,
					fmt.Sprintf(" %s (file, %s bytes)", name, tools.GroupDigits(int64(size))))
			}
			return strings.Join(lines, "\n"), nil
		},
	)
}

func fileSize(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
