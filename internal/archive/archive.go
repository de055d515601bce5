// Package archive is the shared 7z-archive abstraction used by both
// analyzer pipelines (spec §1: "7z archive decoding" is an out-of-scope
// collaborator, specified only through an interface). Both the latency
// aggregator and the tree-graph analyzer read host logs that may live
// inside a .7z archive instead of a plain file, so the interface and its
// default github.com/bodgit/sevenzip-backed implementation live here
// once rather than being duplicated per pipeline.
package archive

import (
	"io"
	"sort"

	"github.com/bodgit/sevenzip"
	"github.com/pkg/errors"
)

// Source opens a .7z archive and exposes its members.
type Source interface {
	Open(path string) (Handle, error)
}

// Handle is one opened archive.
type Handle interface {
	// Members lists every member path inside the archive.
	Members() []string
	// Open returns a reader for the named member.
	Open(member string) (io.ReadCloser, error)
	Close() error
}

// sevenZipSource is the default Source, backed by the real
// github.com/bodgit/sevenzip reader. It is not present anywhere else in
// the retrieval pack (no example repo ships a 7z reader), so it is named
// directly rather than grounded on a pack usage site; see DESIGN.md.
type sevenZipSource struct{}

// Default is the production Source used by both CLIs.
var Default Source = sevenZipSource{}

func (sevenZipSource) Open(path string) (Handle, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open 7z archive %s", path)
	}
	return &sevenZipHandle{r: r}, nil
}

type sevenZipHandle struct {
	r *sevenzip.ReadCloser
}

func (h *sevenZipHandle) Members() []string {
	names := make([]string, 0, len(h.r.File))
	for _, f := range h.r.File {
		names = append(names, f.Name)
	}
	return names
}

func (h *sevenZipHandle) Open(member string) (io.ReadCloser, error) {
	for _, f := range h.r.File {
		if f.Name == member {
			return f.Open()
		}
	}
	return nil, errors.Errorf("member %s not found in archive", member)
}

func (h *sevenZipHandle) Close() error { return h.r.Close() }

// PreferredMember returns the member whose path equals exact, and false
// when no member matches; it does no fallback search of its own (callers
// that want one follow up with ShortestSuffixMatch). Used by the latency
// pipeline's "output0/blocks.log" preference (spec §6).
func PreferredMember(members []string, exact string) (string, bool) {
	for _, m := range members {
		if m == exact {
			return m, true
		}
	}
	return "", false
}

// ShortestSuffixMatch returns the shortest member path ending in suffix,
// tie-broken lexicographically, per spec §6's blocks.log archive-member
// selection rule.
func ShortestSuffixMatch(members []string, suffix string) (string, bool) {
	var candidates []string
	for _, m := range members {
		if hasSuffixPath(m, suffix) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) < len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0], true
}

func hasSuffixPath(path, suffix string) bool {
	if len(path) < len(suffix) {
		return false
	}
	return path[len(path)-len(suffix):] == suffix
}
