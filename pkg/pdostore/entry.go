package pdostore

import "github.com/mindburn-labs/governor/core/pkg/pdo"

// Entry is a committed store record: the PDO plus the indexing metadata
// the store's secondary indexes key on.
type Entry struct {
	PDO         *pdo.PDO
	ContentHash string
	AgentGID    string
	Date        string // yyyy-mm-dd
}
