package badger

import (
	"encoding/binary"

	"github.com/codemem/codemem/core"
)

// Key prefixes. "snip:" holds primary records keyed by document id;
// "snipidx:proj:" is the project membership index used for scoped scans.
const (
	snippetPrefix      = "snip:"
	projectIndexPrefix = "snipidx:proj:"
)

// makeSnippetKey generates the primary key for a document id.
func makeSnippetKey(id core.ID) []byte {
	prefix := []byte(snippetPrefix)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// BigEndian so lexicographic iteration order follows id order
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeProjectIndexKey generates a composite key for the project index.
// Format: prefix + projectID + ":" + id
func makeProjectIndexKey(projectID string, id core.ID) []byte {
	prefix := []byte(projectIndexPrefix + projectID + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeProjectIndexPrefix generates the scan prefix for one project.
func makeProjectIndexPrefix(projectID string) []byte {
	return []byte(projectIndexPrefix + projectID + ":")
}
