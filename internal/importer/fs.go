// Package importer implements the authoring import pipeline of spec.md
// §4.4: filesystem-hardened discovery, YAML parsing into RoomYaml,
// semantic and script validation, and a transactional upsert into the
// Store. Grounded on the caps-and-checks shape of the pack's YAML-driven
// authoring tools (wingedpig-trellis, ehrlich-b-wingthing) layered over
// the teacher's validation style.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/port4k/port4k/internal/domain"
)

const (
	maxFileBytes  = 512 * 1024
	maxTotalBytes = 32 * 1024 * 1024
	maxFileCount  = 500
)

// DiscoverFiles validates subdir as a single, non-escaping path component
// under base and returns the sorted list of regular YAML files within it,
// enforcing the filesystem-hardening rules of spec.md §4.4.
func DiscoverFiles(base, subdir string) ([]string, error) {
	if subdir == "" || subdir == "." || subdir == ".." || strings.ContainsAny(subdir, `/\`) {
		return nil, fmt.Errorf("%w: subdirectory must be a single path component", domain.ErrImportPathEscape)
	}

	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	baseCanon, err := filepath.EvalSymlinks(baseAbs)
	if err != nil {
		return nil, err
	}

	target := filepath.Join(baseAbs, subdir)
	info, err := os.Lstat(target)
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, domain.ErrImportSymlink
	}

	targetCanon, err := filepath.EvalSymlinks(target)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(baseCanon, targetCanon)
	if err != nil || strings.HasPrefix(rel, "..") || rel == ".." {
		return nil, domain.ErrImportPathEscape
	}

	var files []string
	var total int64
	err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if entryInfo, lErr := os.Lstat(path); lErr == nil && entryInfo.Mode()&os.ModeSymlink != 0 {
			return domain.ErrImportSymlink
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		fi, statErr := os.Stat(path)
		if statErr != nil {
			return statErr
		}
		if fi.Size() > maxFileBytes {
			return fmt.Errorf("%s: %w", path, domain.ErrImportFileTooLarge)
		}
		total += fi.Size()
		if total > maxTotalBytes {
			return domain.ErrImportTotalTooLarge
		}
		files = append(files, path)
		if len(files) > maxFileCount {
			return domain.ErrImportTooManyFiles
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
