package tool

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FileOption configures the file tools.
type FileOption func(*fileConfig)

type fileConfig struct {
	allowedExtensions []string
	maxFileSize       int64
}

// WithAllowedExtensions restricts reads to files with the given extensions.
func WithAllowedExtensions(exts ...string) FileOption {
	return func(c *fileConfig) {
		c.allowedExtensions = exts
	}
}

// WithMaxFileSize caps the bytes returned by read_file. Default 1MB.
func WithMaxFileSize(n int64) FileOption {
	return func(c *fileConfig) {
		c.maxFileSize = n
	}
}

func (c *fileConfig) checkExtension(path string) error {
	if len(c.allowedExtensions) == 0 {
		return nil
	}
	ext := filepath.Ext(path)
	for _, allowed := range c.allowedExtensions {
		if ext == allowed || ext == "."+allowed {
			return nil
		}
	}
	return fmt.Errorf("extension %q not allowed", ext)
}

// ReadFileArgs are the arguments of read_file.
type ReadFileArgs struct {
	Path      string `json:"path" jsonschema:"description=Path relative to the workspace root"`
	StartLine int    `json:"start_line,omitempty" jsonschema:"description=1-based first line to return"`
	EndLine   int    `json:"end_line,omitempty" jsonschema:"description=1-based last line to return (inclusive)"`
}

// ListDirArgs are the arguments of list_directory.
type ListDirArgs struct {
	Path string `json:"path,omitempty" jsonschema:"description=Directory relative to the workspace root"`
}

// DirEntry is one entry returned by list_directory.
type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size,omitempty"`
}

// FileTools returns read-only read_file and list_directory tools confined
// to dir. Paths escaping dir, symlinks included, are rejected. The returned
// close function releases the directory handle.
func FileTools(dir string, opts ...FileOption) ([]Tool, func() error, error) {
	cfg := &fileConfig{maxFileSize: 1 << 20}
	for _, opt := range opts {
		opt(cfg)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, nil, err
	}

	read := Func("read_file", "Read a text file, optionally a range of lines",
		func(ctx context.Context, args ReadFileArgs) (string, error) {
			return readFile(root, cfg, args)
		})
	list := Func("list_directory", "List the entries of a directory",
		func(ctx context.Context, args ListDirArgs) ([]DirEntry, error) {
			return listDir(root, args.Path)
		})
	return []Tool{read, list}, root.Close, nil
}

func rootPath(p string) string {
	p = filepath.Clean(strings.TrimPrefix(p, "/"))
	if p == "" {
		return "."
	}
	return p
}

func readFile(root *os.Root, cfg *fileConfig, args ReadFileArgs) (string, error) {
	if args.Path == "" {
		return "", fmt.Errorf("path is required")
	}
	if err := cfg.checkExtension(args.Path); err != nil {
		return "", err
	}
	if args.StartLine < 0 || args.EndLine < 0 || (args.EndLine > 0 && args.EndLine < args.StartLine) {
		return "", fmt.Errorf("invalid line range %d-%d", args.StartLine, args.EndLine)
	}

	f, err := root.Open(rootPath(args.Path))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if args.StartLine == 0 && args.EndLine == 0 {
		data, err := io.ReadAll(io.LimitReader(f, cfg.maxFileSize))
		return string(data), err
	}

	start := max(args.StartLine, 1)
	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), int(cfg.maxFileSize))
	for line := 1; scanner.Scan(); line++ {
		if line < start {
			continue
		}
		if args.EndLine > 0 && line > args.EndLine {
			break
		}
		if int64(sb.Len()+len(scanner.Text())+1) > cfg.maxFileSize {
			break
		}
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func listDir(root *os.Root, path string) ([]DirEntry, error) {
	f, err := root.Open(rootPath(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	des, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	entries := make([]DirEntry, 0, len(des))
	for _, de := range des {
		e := DirEntry{Name: de.Name(), IsDir: de.IsDir()}
		if info, err := de.Info(); err == nil && !de.IsDir() {
			e.Size = info.Size()
		}
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b DirEntry) int { return strings.Compare(a.Name, b.Name) })
	return entries, nil
}
