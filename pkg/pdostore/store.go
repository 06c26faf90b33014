// Package pdostore implements the sharded, thread-safe PDO store (C9):
// horizontally sharded storage with a primary index and four secondary
// indexes, immutability enforcement, and post-burst integrity validation.
// It is grounded on the lease/memory-store concurrency shape used
// elsewhere in this module's ancestry: a mutex-guarded map per shard,
// generalized from one shard to N.
package pdostore

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/mindburn-labs/governor/core/pkg/pdo"
	"github.com/mindburn-labs/governor/core/pkg/telemetry"
	"go.opentelemetry.io/otel/metric"
)

const defaultShardCount = 16

type shard struct {
	mu       sync.Mutex
	entries  map[string]Entry
	capacity int // 0 means unbounded
}

// Store is the sharded PDO store. Lock order is always shard lock first,
// then the index lock — never the reverse — matching the core's documented
// lock hierarchy.
type Store struct {
	shards []*shard

	indexMu sync.Mutex
	primary map[string]int // pdo_id -> shard id
	byHash  map[string]map[string]struct{}
	byPac   map[string]map[string]struct{}
	byAgent map[string]map[string]struct{}
	byDate  map[string]map[string]struct{}

	writes  metric.Int64Counter
	reads   metric.Int64Counter
	readLat metric.Float64Histogram
}

// New builds a Store with shardCount shards (default 16 if shardCount <=
// 0), each capped at shardCapacity entries (0 means unbounded).
func New(shardCount, shardCapacity int, provider *telemetry.Provider) *Store {
	if shardCount <= 0 {
		shardCount = defaultShardCount
	}

	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]Entry), capacity: shardCapacity}
	}

	s := &Store{
		shards:  shards,
		primary: make(map[string]int),
		byHash:  make(map[string]map[string]struct{}),
		byPac:   make(map[string]map[string]struct{}),
		byAgent: make(map[string]map[string]struct{}),
		byDate:  make(map[string]map[string]struct{}),
	}

	if provider != nil {
		s.writes, _ = provider.Meter.Int64Counter("pdostore_shard_writes_total")
		s.reads, _ = provider.Meter.Int64Counter("pdostore_shard_reads_total")
		s.readLat, _ = provider.Meter.Float64Histogram("pdostore_shard_read_latency_seconds")
	}

	return s
}

// ShardCount returns the number of shards the store was created with.
func (s *Store) ShardCount() int { return len(s.shards) }

// ShardFor computes the stable, non-cryptographic shard assignment for
// pdoID, fixed at store creation time.
func (s *Store) ShardFor(pdoID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(pdoID))
	return int(h.Sum32()) % len(s.shards)
}

// Store commits p under pdoID with the given content hash and indexing
// metadata. A shard at capacity rejects new ids with ShardOverflow; an id
// already present with the same content hash is a no-op DuplicateEntry; an
// id present with a different content hash is ImmutabilityViolation.
func (s *Store) Store(pdoID string, p *pdo.PDO, contentHash, agentGID, date string) error {
	shardID := s.ShardFor(pdoID)
	sh := s.shards[shardID]

	sh.mu.Lock()
	existing, exists := sh.entries[pdoID]
	if exists {
		sh.mu.Unlock()
		if existing.ContentHash == contentHash {
			return &DuplicateEntry{PdoID: pdoID}
		}
		return &ImmutabilityViolation{PdoID: pdoID}
	}

	if sh.capacity > 0 && len(sh.entries) >= sh.capacity {
		sh.mu.Unlock()
		return &ShardOverflow{ShardID: shardID, PdoID: pdoID}
	}

	entry := Entry{PDO: p, ContentHash: contentHash, AgentGID: agentGID, Date: date}
	sh.entries[pdoID] = entry
	sh.mu.Unlock()

	s.indexMu.Lock()
	s.primary[pdoID] = shardID
	addToIndex(s.byHash, contentHash, pdoID)
	addToIndex(s.byPac, p.PacID, pdoID)
	addToIndex(s.byAgent, agentGID, pdoID)
	addToIndex(s.byDate, date, pdoID)
	s.indexMu.Unlock()

	if s.writes != nil {
		s.writes.Add(context.Background(), 1)
	}

	return nil
}

func addToIndex(index map[string]map[string]struct{}, key, pdoID string) {
	if key == "" {
		return
	}
	set, ok := index[key]
	if !ok {
		set = make(map[string]struct{})
		index[key] = set
	}
	set[pdoID] = struct{}{}
}

// Get returns the entry for pdoID, or ok=false if absent — a lookup miss,
// not an error.
func (s *Store) Get(pdoID string) (Entry, bool) {
	if s.reads != nil {
		s.reads.Add(context.Background(), 1)
	}
	if s.readLat != nil {
		start := time.Now()
		defer func() {
			s.readLat.Record(context.Background(), time.Since(start).Seconds())
		}()
	}

	s.indexMu.Lock()
	shardID, ok := s.primary[pdoID]
	s.indexMu.Unlock()
	if !ok {
		return Entry{}, false
	}

	sh := s.shards[shardID]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	entry, ok := sh.entries[pdoID]
	return entry, ok
}

func (s *Store) find(index map[string]map[string]struct{}, key string) []Entry {
	s.indexMu.Lock()
	ids := index[key]
	idList := make([]string, 0, len(ids))
	for id := range ids {
		idList = append(idList, id)
	}
	s.indexMu.Unlock()
	sort.Strings(idList)

	out := make([]Entry, 0, len(idList))
	for _, id := range idList {
		if entry, ok := s.Get(id); ok {
			out = append(out, entry)
		}
	}
	return out
}

// FindByPac returns every entry whose PDO references pacID.
func (s *Store) FindByPac(pacID string) []Entry { return s.find(s.byPac, pacID) }

// FindByAgent returns every entry recorded against agentGID.
func (s *Store) FindByAgent(agentGID string) []Entry { return s.find(s.byAgent, agentGID) }

// FindByHash returns every entry with the given content hash.
func (s *Store) FindByHash(hash string) []Entry { return s.find(s.byHash, hash) }

// FindByDate returns every entry recorded on the given yyyy-mm-dd date.
func (s *Store) FindByDate(date string) []Entry { return s.find(s.byDate, date) }

// ValidateIntegrity walks every shard and checks that the primary index
// covers exactly the union of shard keys, with no orphan or missing index
// entries across the four secondary indexes.
func (s *Store) ValidateIntegrity() (bool, []string) {
	var errs []string

	allShardKeys := make(map[string]struct{})
	for shardID, sh := range s.shards {
		sh.mu.Lock()
		for id := range sh.entries {
			allShardKeys[id] = struct{}{}
			s.indexMu.Lock()
			if primaryShard, ok := s.primary[id]; !ok {
				errs = append(errs, (&IndexCorruption{Detail: "missing primary index entry for " + id}).Error())
			} else if primaryShard != shardID {
				errs = append(errs, (&IndexCorruption{Detail: "primary index shard mismatch for " + id}).Error())
			}
			s.indexMu.Unlock()
		}
		sh.mu.Unlock()
	}

	s.indexMu.Lock()
	for id := range s.primary {
		if _, ok := allShardKeys[id]; !ok {
			errs = append(errs, (&IndexCorruption{Detail: "orphan primary index entry for " + id}).Error())
		}
	}
	for _, idx := range []map[string]map[string]struct{}{s.byHash, s.byPac, s.byAgent, s.byDate} {
		for _, ids := range idx {
			for id := range ids {
				if _, ok := allShardKeys[id]; !ok {
					errs = append(errs, (&IndexCorruption{Detail: "orphan secondary index entry for " + id}).Error())
				}
			}
		}
	}
	s.indexMu.Unlock()

	return len(errs) == 0, errs
}

// Size returns the total number of committed entries across all shards.
func (s *Store) Size() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += len(sh.entries)
		sh.mu.Unlock()
	}
	return total
}
