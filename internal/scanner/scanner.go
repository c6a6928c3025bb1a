package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docsync/internal/document"
	docerrors "github.com/Aman-CERP/docsync/internal/errors"
	"github.com/Aman-CERP/docsync/internal/hasher"
)

// defaultRacyWindow is how recent a file change may be and still have its
// fingerprint cached. Timestamps inside it may not yet tell two writes apart.
const defaultRacyWindow = 2 * time.Second

// cacheKey identifies a file version without reading it. A rewrite changes
// ctime even when size and mtime are restored; a replacement changes the
// inode.
type cacheKey struct {
	path    string
	size    int64
	modTime int64
	ctime   int64
	ino     uint64
}

// Scanner discovers the documents under one root directory.
type Scanner struct {
	root       string
	opts       Options
	extensions map[string]struct{}

	// fingerprints caches hashes across scans of an unchanged file.
	fingerprints *lru.Cache[cacheKey, string]
	racyWindow   time.Duration
	now          func() time.Time
}

// candidate is a file found by the walk, not yet hashed.
type candidate struct {
	identity string
	absPath  string
	size     int64
	modTime  time.Time
	ctime    int64
	ino      uint64
}

// New creates a scanner for root.
func New(root string, opts Options) (*Scanner, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	s := &Scanner{
		root:       absRoot,
		opts:       opts,
		extensions: normalizeExtensions(opts.Extensions),
		racyWindow: defaultRacyWindow,
		now:        time.Now,
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[cacheKey, string](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create fingerprint cache: %w", err)
		}
		s.fingerprints = cache
	}

	return s, nil
}

// Root returns the absolute root directory.
func (s *Scanner) Root() string {
	return s.root
}

// Scan enumerates qualifying files and fingerprints them.
// Files that vanish or become unreadable before they are hashed are logged
// and left out of the snapshot. A missing root is an error: it must not be
// read as "every document was deleted".
func (s *Scanner) Scan(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	info, err := os.Stat(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, docerrors.New(docerrors.ErrCodeDirNotFound,
				fmt.Sprintf("data directory %s does not exist", s.root), err).
				WithDetail("path", s.root)
		}
		return nil, docerrors.IOError(s.root, err)
	}
	if !info.IsDir() {
		return nil, docerrors.New(docerrors.ErrCodeInvalidPath,
			fmt.Sprintf("data path is not a directory: %s", s.root), nil)
	}

	candidates, err := s.walk(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Root:    s.root,
		Entries: make(map[string]Entry, len(candidates)),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for _, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fp, ok := s.fingerprint(c)
			mu.Lock()
			defer mu.Unlock()
			if !ok {
				snap.Skipped++
				return nil
			}
			snap.Entries[c.identity] = Entry{
				Identity:    c.identity,
				AbsPath:     c.absPath,
				Size:        c.size,
				ModTime:     c.modTime,
				Fingerprint: fp,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	slog.Debug("scan_complete",
		slog.String("root", s.root),
		slog.Int("documents", len(snap.Entries)),
		slog.Int("skipped", snap.Skipped),
		slog.Duration("duration", time.Since(start)))

	return snap, nil
}

// walk collects the files that pass the filter.
func (s *Scanner) walk(ctx context.Context) ([]candidate, error) {
	var out []candidate

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if p == s.root {
				return err
			}
			// Entries that vanish or deny access mid-walk are skipped.
			slog.Warn("scan_entry_skipped",
				slog.String("path", p),
				slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if p == s.root {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return nil
		}
		identity := filepath.ToSlash(rel)

		if d.IsDir() {
			if !s.opts.Recursive || excludedDir(identity, s.opts.ExcludePatterns) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.accepts(identity) {
			return nil
		}

		var info fs.FileInfo
		if d.Type()&fs.ModeSymlink != 0 {
			if !s.opts.FollowSymlinks {
				return nil
			}
			info, err = os.Stat(p)
		} else {
			info, err = d.Info()
		}
		if err != nil {
			slog.Warn("scan_file_skipped",
				slog.String("path", identity),
				slog.String("error", err.Error()))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if info.Size() > s.opts.MaxFileSize {
			slog.Debug("scan_file_too_large",
				slog.String("path", identity),
				slog.Int64("size", info.Size()))
			return nil
		}

		ino, ctime := changeStamp(info)
		out = append(out, candidate{
			identity: identity,
			absPath:  p,
			size:     info.Size(),
			modTime:  info.ModTime(),
			ctime:    ctime,
			ino:      ino,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("scan interrupted: %w", err)
		}
		return nil, docerrors.IOError(s.root, err)
	}

	return out, nil
}

// accepts applies the extension allow-list and file exclusions to an identity.
func (s *Scanner) accepts(identity string) bool {
	if _, ok := s.extensions[strings.ToLower(path.Ext(identity))]; !ok {
		return false
	}
	return !excludedFile(identity, s.opts.ExcludePatterns)
}

// Matches reports whether an absolute path under the root would be
// scanned as a document. Used to filter filesystem events.
func (s *Scanner) Matches(absPath string) bool {
	rel, err := filepath.Rel(s.root, absPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	identity := filepath.ToSlash(rel)

	dir := path.Dir(identity)
	if dir != "." {
		if !s.opts.Recursive || excludedDir(dir, s.opts.ExcludePatterns) {
			return false
		}
	}
	return s.accepts(identity)
}

// fingerprint hashes one candidate, consulting the cache first.
// ok is false when the file must be left out of the snapshot.
func (s *Scanner) fingerprint(c candidate) (string, bool) {
	key := cacheKey{
		path:    c.absPath,
		size:    c.size,
		modTime: c.modTime.UnixNano(),
		ctime:   c.ctime,
		ino:     c.ino,
	}
	if s.fingerprints != nil {
		if fp, hit := s.fingerprints.Get(key); hit {
			return fp, true
		}
	}

	fp, err := hasher.HashFile(c.absPath)
	if errors.Is(err, hasher.ErrBinary) {
		slog.Debug("scan_binary_skipped", slog.String("path", c.identity))
		return "", false
	}
	if err != nil {
		slog.Warn("scan_file_skipped",
			slog.String("path", c.identity),
			slog.String("error", err.Error()))
		return "", false
	}

	if s.fingerprints != nil && s.cacheable(c) {
		s.fingerprints.Add(key, fp)
	}
	return fp, true
}

// cacheable reports whether c last changed long enough ago that a later
// write must move its mtime or ctime.
func (s *Scanner) cacheable(c candidate) bool {
	cutoff := s.now().Add(-s.racyWindow).UnixNano()
	return c.modTime.UnixNano() < cutoff && c.ctime < cutoff
}

// Load reads a document by identity for insertion into the index.
// The fingerprint is computed from the bytes actually read, which may differ
// from the scan if the file changed in between.
func (s *Scanner) Load(ctx context.Context, identity string) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absPath, err := s.resolve(identity)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, docerrors.IOError(identity, err)
	}
	if info.Size() > s.opts.MaxFileSize {
		return nil, docerrors.New(docerrors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s exceeds the maximum document size", identity), nil).
			WithDetail("path", identity)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, docerrors.IOError(identity, err)
	}

	return &document.Document{
		Identity:    identity,
		Path:        absPath,
		Content:     content,
		Fingerprint: hasher.Sum(content),
		Metadata: document.Metadata{
			FilePath: absPath,
			FileName: path.Base(identity),
			FileType: DetectFileType(identity),
			Size:     int64(len(content)),
			ModTime:  info.ModTime(),
		},
	}, nil
}

// resolve maps an identity back to an absolute path under the root.
func (s *Scanner) resolve(identity string) (string, error) {
	clean := path.Clean(identity)
	if identity == "" || clean != identity || path.IsAbs(clean) ||
		clean == ".." || strings.HasPrefix(clean, "../") {
		return "", docerrors.New(docerrors.ErrCodeInvalidPath,
			fmt.Sprintf("invalid document identity %q", identity), nil)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
