package overdns

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/miekg/dns"

	"github.com/overdns/overdns/lib-overdns/logger"
)

const sweepInterval = 10 * time.Second

type cacheEntry struct {
	Record  Record
	Created time.Time
	Expire  time.Time
}

// live is true until the expire time. An entry that expires exactly now
// is already dead.
func (e cacheEntry) live(now time.Time) bool {
	return now.Before(e.Expire)
}

type snapshotRecord struct {
	Domain    Domain    `json:"domain"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	TTL       uint32    `json:"ttl"`
	ExpiresAt time.Time `json:"expires_at"`
}

type snapshot struct {
	Records []snapshotRecord `json:"records"`
}

// SnapshotCache is a resolve result cache that is persisted to a file.
//
// Answers of the wrapped upstream resolver are kept in memory, one entry
// per (domain, query type) pair, and written to the snapshot file by a
// background task. The snapshot is read back on construction so that the
// proxy starts warm.
type SnapshotCache struct {
	mutex    sync.RWMutex
	entries  map[uint16]map[Domain]cacheEntry
	path     string
	upstream Resolver
	invoke   chan struct{}
	closer   chan struct{}
	done     chan struct{}
}

// NewSnapshotCache is constructor of SnapshotCache.
//
// A missing or broken snapshot file only makes an empty cache; it is
// never a fatal error.
func NewSnapshotCache(path string, upstream Resolver) *SnapshotCache {
	sc := &SnapshotCache{
		entries:  make(map[uint16]map[Domain]cacheEntry),
		path:     path,
		upstream: upstream,
		invoke:   make(chan struct{}, 100),
		closer:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, t := range []uint16{dns.TypeA, dns.TypeCNAME} {
		sc.entries[t] = make(map[Domain]cacheEntry)
	}

	if err := sc.load(); err != nil {
		logger.Warn("failed to load cache snapshot", logger.Fields{"path": path, "error": err})
	}

	go sc.manage()

	return sc
}

func (sc *SnapshotCache) String() string {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	domains := make(map[Domain]struct{})
	records := 0
	for _, xs := range sc.entries {
		for name := range xs {
			domains[name] = struct{}{}
			records++
		}
	}

	return fmt.Sprintf("SnapshotCache[%d domains %d records]", len(domains), records)
}

// Close stops the background task and writes the final snapshot.
func (sc *SnapshotCache) Close() error {
	close(sc.closer)
	<-sc.done
	return sc.flush()
}

func (sc *SnapshotCache) load() error {
	raw, err := ioutil.ReadFile(sc.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return NewError(TypePersistenceFailure, err, "failed to read cache snapshot")
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return NewError(TypePersistenceFailure, err, "broken cache snapshot")
	}

	for _, s := range snap.Records {
		record, err := NewRecord(s.Domain, QtypeFromString(s.Type), s.TTL, s.Value)
		if err != nil {
			logger.Debug("skipped snapshot record", logger.Fields{"domain": s.Domain, "type": s.Type, "error": err})
			continue
		}

		sc.entries[record.GetQtype()][record.GetName()] = cacheEntry{
			Record:  record,
			Created: s.ExpiresAt.Add(-time.Duration(s.TTL) * time.Second),
			Expire:  s.ExpiresAt,
		}
	}

	return nil
}

// Snapshot is serializer of all entries, expired ones included.
func (sc *SnapshotCache) Snapshot() ([]byte, error) {
	sc.mutex.RLock()

	snap := snapshot{Records: []snapshotRecord{}}
	for qtype, domains := range sc.entries {
		for name, entry := range domains {
			snap.Records = append(snap.Records, snapshotRecord{
				Domain:    name,
				Type:      QtypeToString(qtype),
				Value:     entry.Record.GetValue(),
				TTL:       entry.Record.GetTTL(),
				ExpiresAt: entry.Expire,
			})
		}
	}

	sc.mutex.RUnlock()

	return json.MarshalIndent(snap, "", "  ")
}

func (sc *SnapshotCache) flush() error {
	raw, err := sc.Snapshot()
	if err == nil {
		err = ioutil.WriteFile(sc.path, raw, 0644)
	}
	if err != nil {
		logger.Warn("failed to write cache snapshot", logger.Fields{"path": sc.path, "error": err})
		return NewError(TypePersistenceFailure, err, "failed to write cache snapshot")
	}
	return nil
}

func (sc *SnapshotCache) sweep() bool {
	now := time.Now()
	swept := false

	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	for _, domains := range sc.entries {
		for name, entry := range domains {
			if !entry.live(now) {
				delete(domains, name)
				swept = true
			}
		}
	}

	return swept
}

func (sc *SnapshotCache) manage() {
	defer close(sc.done)

	for {
		select {
		case <-time.After(sweepInterval):
			if sc.sweep() {
				sc.flush()
			}
		case <-sc.invoke:
			sc.flush()
		case <-sc.closer:
			return
		}
	}
}

func (sc *SnapshotCache) put(r Record, now time.Time) {
	if r.GetTTL() == 0 {
		return
	}

	qtype := r.GetQtype()
	name := r.GetName().Normalized()

	sc.mutex.Lock()
	if _, ok := sc.entries[qtype]; !ok {
		sc.mutex.Unlock()
		return
	}
	sc.entries[qtype][name] = cacheEntry{
		Record:  r,
		Created: now,
		Expire:  now.Add(time.Duration(r.GetTTL()) * time.Second),
	}
	sc.mutex.Unlock()

	select {
	case sc.invoke <- struct{}{}:
	default:
	}
}

func (sc *SnapshotCache) resolveFromCache(w ResponseWriter, entry cacheEntry, now time.Time) error {
	w.SetNoAuthoritative()

	remain := uint32(entry.Expire.Sub(now).Seconds())
	if remain == 0 {
		// a live entry in its last second; TTL 0 would read as uncacheable
		remain = 1
	}

	return w.Add(entry.Record.WithTTL(remain))
}

func (sc *SnapshotCache) resolveFromUpstream(w ResponseWriter, r Request) error {
	now := time.Now()

	wh := ResponseWriterHook{
		Writer: w,
		OnAdd: func(record Record) {
			sc.put(record, now)
		},
	}

	return sc.upstream.Resolve(wh, r)
}

// Resolve answers from the cache when it holds a live entry, and delegates
// to the wrapped resolver otherwise. The upstream call runs without any
// cache lock held; only the fill afterwards takes the write lock.
func (sc *SnapshotCache) Resolve(w ResponseWriter, r Request) error {
	now := time.Now()

	sc.mutex.RLock()
	entry, ok := sc.entries[r.Qtype][Domain(r.Name).Normalized()]
	sc.mutex.RUnlock()

	if ok && entry.live(now) {
		return sc.resolveFromCache(w, entry, now)
	}

	return sc.resolveFromUpstream(w, r)
}

func (sc *SnapshotCache) RecursionAvailable() bool {
	return sc.upstream.RecursionAvailable()
}
