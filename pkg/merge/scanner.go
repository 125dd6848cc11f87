package merge

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/recommend-games/board-game-merger/pkg/schema"
)

var json = jsoniter.ConfigFastest

const (
	scanBufSize    = 64 * 1024
	scanMaxLineLen = 16 * 1024 * 1024 // some game records carry long description fields
)

// expandPaths resolves each input path to the regular files it contains.
// Directories are walked recursively; hidden files are skipped. Missing or
// unreadable paths are fatal for the job.
func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("input path %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.Walk(p, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			name := fi.Name()
			if strings.HasPrefix(name, ".") {
				if fi.IsDir() && path != p {
					return filepath.SkipDir
				}
				return nil
			}
			if !fi.IsDir() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	return files, nil
}

// scanFiles streams records from files into out, one coerced record at a
// time. Lines that fail to parse or coerce are dropped without surfacing an
// error; only I/O failures abort the scan. The full input set is never
// memory-resident.
func scanFiles(ctx context.Context, files []string, s schema.Schema, out chan<- map[string]any) error {
	for _, path := range files {
		if err := scanFile(ctx, path, s, out); err != nil {
			return err
		}
	}
	return nil
}

func scanFile(ctx context.Context, path string, s schema.Schema, out chan<- map[string]any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, scanBufSize), scanMaxLineLen)

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil {
			continue // malformed line, drop it
		}
		rec, err := s.Coerce(raw)
		if err != nil {
			continue // type mismatch, drop the record
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
