// Package fetch makes remote inputs available on the local disk.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	get "github.com/hashicorp/go-getter"
)

// IsRemote reports whether src names something go-getter has to download,
// either through a forced getter ("s3::", "git::") or a URL scheme.
func IsRemote(src string) bool {
	return strings.Contains(src, "::") || strings.Contains(src, "://")
}

// Join resolves ref against the location of src, for both remote and local
// sources.
func Join(src, ref string) string {
	if !IsRemote(src) {
		ref = filepath.FromSlash(ref)
		if filepath.IsAbs(ref) {
			return ref
		}
		return filepath.Join(filepath.Dir(src), ref)
	}
	if IsRemote(ref) {
		return ref
	}
	prefix, rest := splitForced(src)
	rest, query := splitQuery(rest)
	scheme := ""
	if i := strings.Index(rest, "://"); i >= 0 {
		scheme, rest = rest[:i+3], rest[i+3:]
	}
	return prefix + scheme + path.Join(path.Dir(rest), ref) + query
}

// WithExt swaps the extension of src, leaving any forced getter and query
// string in place.
func WithExt(src, ext string) string {
	prefix, rest := splitForced(src)
	rest, query := splitQuery(rest)
	return prefix + strings.TrimSuffix(rest, path.Ext(rest)) + ext + query
}

func splitForced(src string) (string, string) {
	if i := strings.Index(src, "::"); i >= 0 {
		return src[:i+2], src[i+2:]
	}
	return "", src
}

func splitQuery(src string) (string, string) {
	if i := strings.IndexByte(src, '?'); i >= 0 {
		return src[:i], src[i:]
	}
	return src, ""
}

// Resolver downloads remote inputs into a cache directory. Local paths are
// passed through untouched.
type Resolver struct {
	CacheDir string
	log      *slog.Logger
}

func NewResolver(cacheDir string, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{CacheDir: cacheDir, log: log}
}

// Resolve returns a local path for src. Remote files land in a directory
// derived from the source's location, so siblings fetched with the same
// location share it.
func (r *Resolver) Resolve(ctx context.Context, src string) (string, error) {
	if !IsRemote(src) {
		return src, nil
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}

	_, rest := splitForced(src)
	rest, _ = splitQuery(rest)
	dir := filepath.Join(r.CacheDir, locationKey(Join(src, ".")))
	dst := filepath.Join(dir, path.Base(rest))

	r.log.Info("fetching input", "src", src, "dst", dst)
	client := &get.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: get.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("fetch %s: %w", src, err)
	}
	return dst, nil
}

// ResolveWith fetches src and the files next to it that share its name
// with each of exts, e.g. the .dbf and .shx of a shapefile.
func (r *Resolver) ResolveWith(ctx context.Context, src string, exts ...string) (string, error) {
	local, err := r.Resolve(ctx, src)
	if err != nil {
		return "", err
	}
	if !IsRemote(src) {
		return local, nil
	}
	for _, ext := range exts {
		if _, err := r.Resolve(ctx, WithExt(src, ext)); err != nil {
			return "", err
		}
	}
	return local, nil
}

func locationKey(loc string) string {
	sum := sha256.Sum256([]byte(loc))
	return hex.EncodeToString(sum[:8])
}
