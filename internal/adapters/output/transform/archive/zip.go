package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"file-utility-bot/internal/domain"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
)

// Transformer struct - Zip archive creation and extraction
type Transformer struct{}

// NewTransformer func - Creates new zip transformer
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Create writes files into a deflated archive at dst under their display names
func (t *Transformer) Create(ctx context.Context, files []domain.FileRef, dst string) (err error) {
	if len(files) == 0 {
		return fmt.Errorf("no files to archive")
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	zw := zip.NewWriter(out)
	names := newNameSet()
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := names.unique(entryName(file))
		if err := addFile(zw, file.Path, name); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, src, name string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to build header for %s: %w", name, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Extract unpacks the first limit file entries of src into dstDir.
// Directory entries are skipped, paths are flattened to base names and
// unsafe names are rejected.
func (t *Transformer) Extract(ctx context.Context, src, dstDir string, limit int) ([]domain.Artifact, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	artifacts := make([]domain.Artifact, 0)
	names := newNameSet()
	for _, entry := range zr.File {
		if limit > 0 && len(artifacts) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.FileInfo().IsDir() || strings.HasSuffix(entry.Name, "/") {
			continue
		}

		base, ok := safeBase(entry.Name)
		if !ok {
			logrus.Warnf("Skipping unsafe archive entry %q", entry.Name)
			continue
		}
		name := names.unique(base)
		target := filepath.Join(dstDir, name)
		if err := extractEntry(entry, target); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, domain.Artifact{Path: target, Name: name})
	}
	return artifacts, nil
}

func extractEntry(entry *zip.File, target string) error {
	in, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", entry.Name, err)
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
	}
	return out.Close()
}

func entryName(file domain.FileRef) string {
	if base, ok := safeBase(file.DisplayName); ok {
		return base
	}
	return filepath.Base(file.Path)
}

// safeBase flattens an entry name to its last element. Names that are
// empty, dot-only or carry a NUL byte are refused.
func safeBase(name string) (string, bool) {
	if strings.ContainsRune(name, 0) {
		return "", false
	}
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(path.Clean("/" + name))
	if base == "/" || base == "." || base == ".." || strings.Trim(base, ".") == "" {
		return "", false
	}
	return base, true
}

type nameSet map[string]struct{}

func newNameSet() nameSet {
	return make(nameSet)
}

// unique returns name, or "stem (n).ext" for the first n not yet taken
func (s nameSet) unique(name string) string {
	candidate := name
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		if _, taken := s[strings.ToLower(candidate)]; !taken {
			break
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
	s[strings.ToLower(candidate)] = struct{}{}
	return candidate
}
