package module

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/errors"
)

// archiveExtensions are matched case-insensitively
var archiveExtensions = []string{".zip", ".jar"}

// IsArchive reports whether path has a module archive extension
func IsArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range archiveExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ScopeResolver supplies the factories private to an archive. Returning a
// nil registry means the archive only refers to exported host units.
type ScopeResolver func(archive string, manifest *Manifest) (*component.Registry, error)

// ScannerOption configures a Scanner
type ScannerOption func(*Scanner)

// WithScannerLogger sets the logger
func WithScannerLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScopeResolver sets the archive scope resolver
func WithScopeResolver(resolver ScopeResolver) ScannerOption {
	return func(s *Scanner) { s.resolver = resolver }
}

// Scanner finds module archives and describes the units they carry
type Scanner struct {
	loader   *Loader
	logger   *slog.Logger
	resolver ScopeResolver
}

// NewScanner creates a scanner that instantiates units through loader
func NewScanner(loader *Loader, opts ...ScannerOption) *Scanner {
	s := &Scanner{loader: loader, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "module-scanner")
	return s
}

// Scan inspects every root concurrently. A root is a directory, scanned
// without recursion, or a single archive file. Descriptors come back in
// root order and, within a directory, in file name order. A missing root
// fails the whole scan; a broken archive or unit is logged and skipped.
func (s *Scanner) Scan(ctx context.Context, roots []string) ([]Descriptor, error) {
	results := make([][]Descriptor, len(roots))
	g, ctx := errgroup.WithContext(ctx)

	for i, root := range roots {
		g.Go(func() error {
			archives, err := archivesIn(root)
			if err != nil {
				return err
			}
			for _, archive := range archives {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = append(results[i], s.scanArchive(archive)...)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Descriptor
	for _, descs := range results {
		out = append(out, descs...)
	}
	return out, nil
}

func archivesIn(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%s: %w: %w", root, errors.ErrArchiveNotFound, err), "Scanner", "Scan", "root lookup")
	}

	if !info.IsDir() {
		if IsArchive(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.WrapTransient(err, "Scanner", "Scan", "read root "+root)
	}

	var archives []string
	for _, entry := range entries {
		if entry.IsDir() || !IsArchive(entry.Name()) {
			continue
		}
		archives = append(archives, filepath.Join(root, entry.Name()))
	}
	sort.Strings(archives)
	return archives, nil
}

func (s *Scanner) scanArchive(archive string) []Descriptor {
	manifest, err := readManifest(archive)
	if err != nil {
		s.logger.Warn("skipping module archive", "archive", archive, "error", err)
		return nil
	}

	if s.resolver != nil {
		scope, err := s.resolver(archive, manifest)
		if err != nil {
			s.logger.Warn("skipping module archive", "archive", archive, "error", err)
			return nil
		}
		s.loader.SetScope(archive, scope)
	}

	descs := make([]Descriptor, 0, len(manifest.Units))
	for _, entry := range manifest.Units {
		desc, err := s.describe(archive, entry)
		if err != nil {
			s.logger.Warn("skipping module unit", "archive", archive, "identifier", entry.Identifier, "error", err)
			continue
		}
		descs = append(descs, desc)
	}
	s.logger.Debug("scanned module archive", "archive", archive, "units", len(descs))
	return descs
}

// describe loads the unit once to read its About, then applies the manifest
// overrides
func (s *Scanner) describe(archive string, entry ManifestUnit) (Descriptor, error) {
	probe := Descriptor{Identifier: entry.Identifier, Archive: archive, Kind: component.AnyKind}
	if err := entry.apply(&probe); err != nil {
		return Descriptor{}, err
	}

	unit, err := s.loader.Load(probe)
	if err != nil {
		return Descriptor{}, err
	}

	about := unit.About()
	desc := Descriptor{
		Name:       about.Name,
		Version:    about.Version,
		Kind:       unit.Kind(),
		Identifier: entry.Identifier,
		Archive:    archive,
	}
	if desc.Name == "" {
		desc.Name = entry.Identifier
	}
	if err := entry.apply(&desc); err != nil {
		return Descriptor{}, err
	}
	return desc, nil
}

func readManifest(archive string) (*Manifest, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrInvalidManifest, err), "Scanner", "readManifest", "open archive")
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != ManifestName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %w", errors.ErrInvalidManifest, err), "Scanner", "readManifest", "open manifest")
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %w", errors.ErrInvalidManifest, err), "Scanner", "readManifest", "read manifest")
		}
		return ParseManifest(data)
	}

	return nil, errors.WrapInvalid(
		fmt.Errorf("no %s: %w", ManifestName, errors.ErrInvalidManifest), "Scanner", "readManifest", "manifest lookup")
}
