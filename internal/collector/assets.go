package collector

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadAssets reads one asset per line, skipping blank lines.
func ReadAssets(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open asset list: %w", err)
	}
	defer f.Close()

	var assets []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if a := strings.TrimSpace(sc.Text()); a != "" {
			assets = append(assets, a)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read asset list: %w", err)
	}
	return assets, nil
}

// WriteAssets replaces the asset list at path.
func WriteAssets(path string, assets []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	var b strings.Builder
	for _, a := range assets {
		b.WriteString(a)
		b.WriteByte('\n')
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write asset list: %w", err)
	}
	return os.Rename(tmp, path)
}
