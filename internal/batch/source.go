package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// imageExtensions are the file types ListImages picks up.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// ListImages returns the image files directly inside dir, sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// FileSource reads paths in order and sends one Job per file. The channel is
// closed after the last file or when ctx is cancelled. Unreadable files
// become jobs carrying the read error.
func FileSource(ctx context.Context, paths []string) <-chan Job {
	jobs := make(chan Job)
	go func() {
		defer close(jobs)
		for _, path := range paths {
			job := Job{Name: filepath.Base(path)}
			data, err := os.ReadFile(path)
			if err != nil {
				job.Err = fmt.Errorf("failed to read %s: %w", path, err)
			} else {
				job.Data = data
			}

			select {
			case jobs <- job:
			case <-ctx.Done():
				return
			}
		}
	}()
	return jobs
}
