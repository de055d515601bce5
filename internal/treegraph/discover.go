package treegraph

import (
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blockbench/ledgerstat/internal/archive"
	"github.com/pkg/errors"
)

// ArchiveSource and ArchiveHandle re-export the shared archive interface
// (spec §1's "7z archive decoding" out-of-scope collaborator) under the
// tree-graph pipeline's own names, mirroring latencystat's archive.go
// alias pattern.
type ArchiveSource = archive.Source
type ArchiveHandle = archive.Handle

// DefaultArchiveSource is the production 7z-backed ArchiveSource.
var DefaultArchiveSource = archive.Default

// newBlocksFilename and rawLogFilename are the two filenames a per-node
// log directory may contain (spec §6): a log already filtered to
// "new block inserted into graph" lines, or the raw conflux.log that
// ParseLog filters on its own (it only acts on lines containing
// insertedMarker, so handing it an unfiltered file is equivalent to
// pre-filtering).
const (
	newBlocksFilename = "conflux.log.new_blocks"
	rawLogFilename    = "conflux.log"
)

// NodeSourceKind distinguishes a plain per-node log file from a 7z
// archive member.
type NodeSourceKind int

const (
	NodePlainFile NodeSourceKind = iota
	NodeArchiveMember
)

// NodeSource identifies one discovered per-node log (spec §6): either a
// plain file on disk or a member inside a single shared .7z archive.
type NodeSource struct {
	Kind          NodeSourceKind
	Path          string // file path (plain) or archive path (archive)
	ArchiveMember string // only set when Kind == NodeArchiveMember
}

func (s NodeSource) String() string {
	if s.Kind == NodeArchiveMember {
		return s.Path + "!" + s.ArchiveMember
	}
	return s.Path
}

// DiscoverNodeSources returns every per-node log source found under
// root, in deterministic lexicographic order (spec §6): if root is a
// directory, one source per descendant directory containing either
// conflux.log.new_blocks or conflux.log (the former masks the latter,
// mirroring the latency pipeline's blocks.log/.7z masking rule); if
// root is a single .7z archive, one source per member whose base name
// is exactly conflux.log.new_blocks.
func DiscoverNodeSources(root string, archives ArchiveSource) ([]NodeSource, error) {
	if strings.HasSuffix(strings.ToLower(root), ".7z") {
		return discoverArchiveNodeSources(root, archives)
	}
	return discoverPlainNodeSources(root)
}

func discoverPlainNodeSources(root string) ([]NodeSource, error) {
	type dirEntryInfo struct {
		hasNewBlocks bool
		hasRawLog    bool
	}
	perDir := make(map[string]*dirEntryInfo)
	var dirOrder []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %s", path)
		}
		if d.IsDir() {
			return nil
		}
		dir := filepath.Dir(path)
		info, ok := perDir[dir]
		if !ok {
			info = &dirEntryInfo{}
			perDir[dir] = info
			dirOrder = append(dirOrder, dir)
		}
		switch d.Name() {
		case newBlocksFilename:
			info.hasNewBlocks = true
		case rawLogFilename:
			info.hasRawLog = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var sources []NodeSource
	for _, dir := range dirOrder {
		info := perDir[dir]
		switch {
		case info.hasNewBlocks:
			sources = append(sources, NodeSource{Kind: NodePlainFile, Path: filepath.Join(dir, newBlocksFilename)})
		case info.hasRawLog:
			sources = append(sources, NodeSource{Kind: NodePlainFile, Path: filepath.Join(dir, rawLogFilename)})
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })
	return sources, nil
}

func discoverArchiveNodeSources(archivePath string, archives ArchiveSource) ([]NodeSource, error) {
	handle, err := archives.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	var members []string
	for _, m := range handle.Members() {
		if path.Base(m) == newBlocksFilename {
			members = append(members, m)
		}
	}
	if len(members) == 0 {
		return nil, errors.Errorf("archive %s has no %s members", archivePath, newBlocksFilename)
	}
	sort.Strings(members)

	sources := make([]NodeSource, len(members))
	for i, m := range members {
		sources[i] = NodeSource{Kind: NodeArchiveMember, Path: archivePath, ArchiveMember: m}
	}
	return sources, nil
}

// Open returns a reader for the node source's content, opening the
// shared archive handle when the source lives inside one.
func (s NodeSource) Open(archives ArchiveSource) (io.ReadCloser, error) {
	if s.Kind == NodePlainFile {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", s.Path)
		}
		return f, nil
	}
	handle, err := archives.Open(s.Path)
	if err != nil {
		return nil, err
	}
	r, err := handle.Open(s.ArchiveMember)
	if err != nil {
		handle.Close()
		return nil, err
	}
	return &closeBoth{ReadCloser: r, other: handle}, nil
}

// closeBoth closes both the member reader and its owning archive
// handle, since sevenzip's per-member readers do not close the archive
// themselves.
type closeBoth struct {
	io.ReadCloser
	other ArchiveHandle
}

func (c *closeBoth) Close() error {
	err := c.ReadCloser.Close()
	if cerr := c.other.Close(); err == nil {
		err = cerr
	}
	return err
}
