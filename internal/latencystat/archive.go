package latencystat

import "github.com/blockbench/ledgerstat/internal/archive"

// ArchiveSource and ArchiveHandle alias the shared archive abstraction
// (internal/archive) so existing callers of this package keep their
// names; the 7z-backed implementation itself lives in internal/archive,
// shared with the tree-graph pipeline.
type ArchiveSource = archive.Source
type ArchiveHandle = archive.Handle

// DefaultArchiveSource is the production ArchiveSource used by the
// stat-latency CLI.
var DefaultArchiveSource = archive.Default

// preferredBlocksLogMember picks the member to decode from an archive's
// member list, per spec §6: prefer "output0/blocks.log"; on miss, take
// the shortest path ending in "blocks.log", tie-broken lexicographically.
func preferredBlocksLogMember(members []string) (string, bool) {
	if m, ok := archive.PreferredMember(members, "output0/blocks.log"); ok {
		return m, true
	}
	return archive.ShortestSuffixMatch(members, "blocks.log")
}
