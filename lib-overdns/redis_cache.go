package overdns

import (
	"fmt"
	"net"
	"time"

	"github.com/go-redis/redis"
	"github.com/miekg/dns"

	"github.com/overdns/overdns/lib-overdns/logger"
)

// RedisCache is the alternative cache backend on Redis.
//
// It keeps the same single-entry-per-key model as SnapshotCache, but the
// entries are shared between proxy instances and expiry is delegated to
// Redis. A failing Redis degrades to plain pass-through resolution.
type RedisCache struct {
	client   *redis.Client
	upstream Resolver
}

// NewRedisCache is constructor of RedisCache.
func NewRedisCache(addr *net.TCPAddr, database int, password string, upstream Resolver) (RedisCache, error) {
	rc := RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr.String(),
			Password: password,
			DB:       database,
		}),
		upstream: upstream,
	}
	return rc, rc.client.Ping().Err()
}

func (rc RedisCache) String() string {
	return fmt.Sprintf("RedisCache[%s]", rc.client.Options().Addr)
}

func (rc RedisCache) Close() error {
	return rc.client.Close()
}

func key(r Request) string {
	return fmt.Sprintf("%s:%s", r.QtypeString(), Domain(r.Name).Normalized())
}

func (rc RedisCache) resolveFromUpstream(w ResponseWriter, r Request) error {
	wh := ResponseWriterHook{
		Writer: w,
		OnAdd: func(record Record) {
			if record.GetTTL() == 0 {
				return
			}
			err := rc.client.Set(
				key(r),
				record.String(),
				time.Duration(record.GetTTL())*time.Second,
			).Err()
			if err != nil {
				logger.Warn("failed to write redis cache", logger.Fields{"key": key(r), "error": err})
			}
		},
	}

	return rc.upstream.Resolve(wh, r)
}

func (rc RedisCache) resolveFromCache(w ResponseWriter, cache string, ttl time.Duration) error {
	rr, err := dns.NewRR(cache)
	if err != nil {
		return err
	}

	rr.Header().Ttl = uint32(ttl.Seconds())

	record, err := NewRecordFromRR(rr)
	if err != nil {
		return err
	}

	w.SetNoAuthoritative()
	return w.Add(record)
}

func (rc RedisCache) Resolve(w ResponseWriter, r Request) error {
	cache, err := rc.client.Get(key(r)).Result()
	if err == redis.Nil {
		return rc.resolveFromUpstream(w, r)
	}
	if err != nil {
		logger.Warn("failed to read redis cache", logger.Fields{"key": key(r), "error": err})
		return rc.upstream.Resolve(w, r)
	}

	ttl, err := rc.client.TTL(key(r)).Result()
	if err != nil || ttl <= 0 {
		return rc.resolveFromUpstream(w, r)
	}

	return rc.resolveFromCache(w, cache, ttl)
}

func (rc RedisCache) RecursionAvailable() bool {
	return rc.upstream.RecursionAvailable()
}
