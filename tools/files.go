package tools

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"agentic"
	"agentic/schema"
)

// sandboxResolve resolves path against the sandbox root from deps. When no
// root is configured the path is used as-is. Paths escaping the root are
// rejected.
func sandboxResolve(deps map[string]any, path string) (target, display string, err error) {
	root, _ := deps["root_directory"].(string)
	if root == "" {
		abs, aerr := filepath.Abs(path)
		if aerr != nil {
			return "", "", aerr
		}
		return abs, path, nil
	}

	rootAbs, aerr := filepath.Abs(root)
	if aerr != nil {
		return "", "", aerr
	}
	target = filepath.Clean(filepath.Join(rootAbs, path))
	rel, rerr := filepath.Rel(rootAbs, target)
	if rerr != nil || strings.HasPrefix(rel, "..") {
		return "", "", fmt.Errorf("access denied - path outside allowed directory")
	}
	display = rel
	if display == "." {
		display = "/"
	}
	return target, display, nil
}

// NewListDirectory creates the list_directory tool. The sandbox root, when
// given, confines every lookup beneath it.
//
// Output format, one entry per line:
//
//	Contents of '/':
//	  report.txt (file, 1,024 bytes)
//	  data/ (directory, 3 items)
func NewListDirectory(rootDirectory string) *agentic.Tool {
	return agentic.NewTool(
		"list_directory",
		"List contents of a directory with metadata",
		schema.MustCompile(schema.Object(map[string]*schema.Property{
			"path": schema.String("Directory path to list (relative or absolute)"),
			"show_hidden": schema.Boolean("Whether to show hidden files (starting with .)").
				Default(false),
		}, "path")),
		func(ctx context.Context, args map[string]any, deps map[string]any) (any, error) {
			path := argString(args, "path", ".")
			showHidden := argBool(args, "show_hidden", false)

			target, display, err := sandboxResolve(deps, path)
			if err != nil {
				return fmt.Sprintf("Error: %v", err), nil
			}

			info, err := os.Stat(target)
			if os.IsNotExist(err) {
				return fmt.Sprintf("Error: Path '%s' does not exist", display), nil
			}
			if err != nil {
				return fmt.Sprintf("Error listing directory: %v", err), nil
			}
			if !info.IsDir() {
				return fmt.Sprintf("Error: Path '%s' is not a directory", display), nil
			}

			entries, err := os.ReadDir(target)
			if err != nil {
				return fmt.Sprintf("Error: Permission denied accessing '%s'", display), nil
			}
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Name() < entries[j].Name()
			})

			var items []string
			for _, entry := range entries {
				if !showHidden && strings.HasPrefix(entry.Name(), ".") {
					continue
				}
				if entry.IsDir() {
					children, cerr := os.ReadDir(filepath.Join(target, entry.Name()))
					if cerr != nil {
						items = append(items,
							fmt.Sprintf("  %s/ (directory, permission denied)", entry.Name()))
						continue
					}
					items = append(items,
						fmt.Sprintf("  %s/ (directory, %d items)", entry.Name(), len(children)))
				} else {
					fi, ferr := entry.Info()
					if ferr != nil {
						continue
					}
					items = append(items,
						fmt.Sprintf("  %s (file, %s bytes)", entry.Name(), GroupDigits(fi.Size())))
				}
			}

			if len(items) == 0 {
				return fmt.Sprintf("Directory '%s' is empty", display), nil
			}
			return fmt.Sprintf("Contents of '%s':\n%s", display, strings.Join(items, "\n")), nil
		},
	).WithDependencies(map[string]any{"root_directory": rootDirectory})
}

// NewReadFile creates the read_file tool: file contents with line numbers,
// optionally limited to a line range.
func NewReadFile(rootDirectory string) *agentic.Tool {
	return agentic.NewTool(
		"read_file",
		"Read file contents, optionally with line range for large files",
		schema.MustCompile(schema.Object(map[string]*schema.Property{
			"path":       schema.String("File path to read (relative or absolute)"),
			"start_line": schema.Integer("Starting line number (1-indexed). Omit to read from beginning"),
			"end_line":   schema.Integer("Ending line number (inclusive). Omit to read to end"),
		}, "path")),
		func(ctx context.Context, args map[string]any, deps map[string]any) (any, error) {
			path := argString(args, "path", "")
			startLine := argInt(args, "start_line", 0)
			endLine := argInt(args, "end_line", 0)

			target, display, err := sandboxResolve(deps, path)
			if err != nil {
				return fmt.Sprintf("Error: %v", err), nil
			}

			info, err := os.Stat(target)
			if os.IsNotExist(err) {
				return fmt.Sprintf("Error: File '%s' does not exist", display), nil
			}
			if err != nil {
				return fmt.Sprintf("Error reading file: %v", err), nil
			}
			if info.IsDir() {
				return fmt.Sprintf("Error: Path '%s' is not a file", display), nil
			}

			data, err := os.ReadFile(target)
			if err != nil {
				return fmt.Sprintf("Error: Permission denied reading '%s'", display), nil
			}
			if bytes.IndexByte(data[:min(len(data), 1024)], 0) != -1 {
				return fmt.Sprintf("Error: File '%s' appears to be binary", display), nil
			}

			var lines []string
			scanner := bufio.NewScanner(bytes.NewReader(data))
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			totalLines := len(lines)

			start := 0
			if startLine > 0 {
				start = startLine - 1
			}
			end := totalLines
			if endLine > 0 && endLine < totalLines {
				end = endLine
			}
			if totalLines == 0 && startLine == 0 {
				return fmt.Sprintf("File: %s [0 lines total]\n", display), nil
			}
			if start < 0 || start >= totalLines {
				return fmt.Sprintf("Error: start_line %d out of range (file has %d lines)",
					startLine, totalLines), nil
			}

			var out []string
			for i := start; i < end; i++ {
				out = append(out, fmt.Sprintf("%4d | %s", i+1, strings.TrimRight(lines[i], " \t")))
			}

			rangeInfo := fmt.Sprintf("[%d lines total]", totalLines)
			if startLine > 0 || endLine > 0 {
				rangeInfo = fmt.Sprintf("[Lines %d-%d of %d]", start+1, end, totalLines)
			}
			return fmt.Sprintf("File: %s %s\n%s", display, rangeInfo, strings.Join(out, "\n")), nil
		},
	).WithDependencies(map[string]any{"root_directory": rootDirectory})
}

// NewFileInfo creates the get_file_info tool: metadata for a file or
// directory.
func NewFileInfo(rootDirectory string) *agentic.Tool {
	return agentic.NewTool(
		"get_file_info",
		"Get metadata about a file or directory",
		schema.MustCompile(schema.Object(map[string]*schema.Property{
			"path": schema.String("Path to file or directory"),
		}, "path")),
		func(ctx context.Context, args map[string]any, deps map[string]any) (any, error) {
			path := argString(args, "path", "")

			target, display, err := sandboxResolve(deps, path)
			if err != nil {
				return fmt.Sprintf("Error: %v", err), nil
			}

			info, err := os.Stat(target)
			if os.IsNotExist(err) {
				return fmt.Sprintf("Error: Path '%s' does not exist", display), nil
			}
			if err != nil {
				return fmt.Sprintf("Error getting file info: %v", err), nil
			}

			lines := []string{
				fmt.Sprintf("Path: %s", display),
				fmt.Sprintf("Absolute: %s", target),
			}
			if info.IsDir() {
				lines = append(lines, "Type: directory")
				if entries, rerr := os.ReadDir(target); rerr == nil {
					lines = append(lines, fmt.Sprintf("Items: %d", len(entries)))
				} else {
					lines = append(lines, "Items: (permission denied)")
				}
			} else {
				lines = append(lines, "Type: file",
					fmt.Sprintf("Size: %s bytes", GroupDigits(info.Size())))
				if ext := filepath.Ext(target); ext != "" {
					lines = append(lines, fmt.Sprintf("Extension: %s", ext))
				}
			}
			lines = append(lines,
				fmt.Sprintf("Modified: %s", info.ModTime().Format("2006-01-02 15:04:05")))

			return strings.Join(lines, "\n"), nil
		},
	).WithDependencies(map[string]any{"root_directory": rootDirectory})
}

// NewSearchInDirectory creates the search_in_directory tool: a recursive
// text search over files matching a name pattern.
func NewSearchInDirectory(rootDirectory string) *agentic.Tool {
	return agentic.NewTool(
		"search_in_directory",
		"Search for text pattern in files within a directory (recursive grep)",
		schema.MustCompile(schema.Object(map[string]*schema.Property{
			"pattern": schema.String("Text pattern to search for (case-sensitive)"),
			"path":    schema.String("Directory path to search in"),
			"file_pattern": schema.String("File name pattern to match (e.g. '*.go', '*.md', '*')").
				Default("*"),
			"max_results": schema.Integer("Maximum number of matches to return").Default(50),
		}, "pattern", "path")),
		func(ctx context.Context, args map[string]any, deps map[string]any) (any, error) {
			pattern := argString(args, "pattern", "")
			path := argString(args, "path", ".")
			filePattern := argString(args, "file_pattern", "*")
			maxResults := argInt(args, "max_results", 50)

			target, display, err := sandboxResolve(deps, path)
			if err != nil {
				return fmt.Sprintf("Error: %v", err), nil
			}

			info, err := os.Stat(target)
			if os.IsNotExist(err) {
				return fmt.Sprintf("Error: Path '%s' does not exist", display), nil
			}
			if err != nil || !info.IsDir() {
				return fmt.Sprintf("Error: Path '%s' is not a directory", display), nil
			}

			var matches []string
			filesSearched := 0

			walkErr := filepath.WalkDir(target, func(p string, d os.DirEntry, werr error) error {
				if werr != nil {
					return nil
				}
				if strings.HasPrefix(d.Name(), ".") && p != target {
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
				if d.IsDir() {
					return nil
				}
				if ok, _ := filepath.Match(filePattern, d.Name()); !ok {
					return nil
				}

				data, rerr := os.ReadFile(p)
				if rerr != nil {
					return nil
				}
				if bytes.IndexByte(data[:min(len(data), 1024)], 0) != -1 {
					return nil
				}
				filesSearched++

				rel, _ := filepath.Rel(target, p)
				for i, line := range strings.Split(string(data), "\n") {
					if strings.Contains(line, pattern) {
						trimmed := strings.TrimSpace(line)
						if len(trimmed) > 100 {
							trimmed = trimmed[:100]
						}
						matches = append(matches, fmt.Sprintf("%s:%d: %s", rel, i+1, trimmed))
						if len(matches) >= maxResults {
							return filepath.SkipAll
						}
					}
				}
				return nil
			})
			if walkErr != nil {
				return fmt.Sprintf("Error searching directory: %v", walkErr), nil
			}

			if len(matches) == 0 {
				return fmt.Sprintf("No matches found for '%s' in %d files",
					pattern, filesSearched), nil
			}
			return fmt.Sprintf("Found %d matches for '%s' (searched %d files):\n%s",
				len(matches), pattern, filesSearched, strings.Join(matches, "\n")), nil
		},
	).WithDependencies(map[string]any{"root_directory": rootDirectory})
}
