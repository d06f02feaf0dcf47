package runner

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/zerr"
)

// commandFiles are the files a run: step may append to.
type commandFiles struct {
	// Env receives KEY=VALUE lines exported to later steps ($MATRIX_ENV).
	Env string
	// Path receives directories prepended to PATH of later steps ($MATRIX_PATH).
	Path string
	// Output receives KEY=VALUE step outputs ($MATRIX_OUTPUT).
	Output string
}

func newCommandFiles(dir string, step int) (*commandFiles, error) {
	prefix := filepath.Join(dir, "step-"+strconv.Itoa(step))
	files := &commandFiles{
		Env:    prefix + ".env",
		Path:   prefix + ".path",
		Output: prefix + ".output",
	}
	for _, f := range []string{files.Env, files.Path, files.Output} {
		if err := os.WriteFile(f, nil, domain.FilePerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to create command file"), "path", f)
		}
	}
	return files, nil
}

func (f *commandFiles) vars() map[string]string {
	return map[string]string{
		"MATRIX_ENV":    f.Env,
		"MATRIX_PATH":   f.Path,
		"MATRIX_OUTPUT": f.Output,
	}
}

// readPath returns the non-empty lines of the path file.
func readPath(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	var dirs []string
	for line := range strings.Lines(string(data)) {
		if dir := strings.TrimSpace(line); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

// readKeyValues parses a file of KEY=VALUE lines. A KEY<<DELIM line starts a
// multi-line value that ends at a line holding only DELIM.
func readKeyValues(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}

	values := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if key, delim, ok := strings.Cut(line, "<<"); ok && !strings.Contains(key, "=") {
			var lines []string
			closed := false
			for scanner.Scan() {
				if scanner.Text() == delim {
					closed = true
					break
				}
				lines = append(lines, scanner.Text())
			}
			if !closed {
				return nil, zerr.With(zerr.New("unterminated multi-line value"), "key", key)
			}
			values[key] = strings.Join(lines, "\n")
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			return nil, zerr.With(zerr.New("invalid line, expected KEY=VALUE"), "line", line)
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read command file"), "path", path)
	}
	return values, nil
}
