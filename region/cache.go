package region

import (
	"bytes"
	"container/list"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MayaFlux/MayaFlux-sub001/internal/reentrant"
	"github.com/MayaFlux/MayaFlux-sub001/variant"
)

// RegionCache is a cached copy of a region's data (spec §3).
type RegionCache struct {
	Data         []variant.DataVariant
	SourceRegion Region
	LoadTime     time.Time
	AccessCount  int64
	IsDirty      bool
}

// cacheKey builds an exact, coordinate-wise equality key from a region's
// concatenated start and end coordinates (spec §4.B: "Hashing: over
// concatenated start and end coordinates. Equality is coord-wise.").
func cacheKey(r Region) string {
	var b bytes.Buffer
	for _, c := range r.Start {
		b.WriteString(strconv.Itoa(c))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, c := range r.End {
		b.WriteString(strconv.Itoa(c))
		b.WriteByte(',')
	}
	return b.String()
}

type cacheEntry struct {
	key   string
	cache RegionCache
}

// CacheManager owns cached region copies with strict LRU eviction (spec
// §4.B). All accesses are guarded by a reentrant lock; a try-lock style
// get is exposed so a processor inside its own critical section can
// decline rather than deadlock.
type CacheManager struct {
	mu       reentrant.Mutex
	maxSize  int
	order    *list.List // front = most recently used
	items    map[string]*list.Element
	loadOnce singleflight.Group
}

// NewCacheManager builds a cache manager with the given entry-count
// ceiling (spec §6: "default cache-size ceiling per processor, configurable
// at construction").
func NewCacheManager(maxSize int) *CacheManager {
	return &CacheManager{
		maxSize: maxSize,
		order:   list.New(),
		items:   make(map[string]*list.Element),
	}
}

// CacheRegion inserts or refreshes a cached copy, evicting the
// least-recently-used entries until strictly below capacity.
func (m *CacheManager) CacheRegion(c RegionCache) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := cacheKey(c.SourceRegion)
	if el, ok := m.items[key]; ok {
		el.Value.(*cacheEntry).cache = c
		m.order.MoveToFront(el)
		return
	}

	for m.order.Len() >= m.maxSize {
		back := m.order.Back()
		if back == nil {
			break
		}
		evicted := back.Value.(*cacheEntry)
		delete(m.items, evicted.key)
		m.order.Remove(back)
	}

	el := m.order.PushFront(&cacheEntry{key: key, cache: c})
	m.items[key] = el
}

// GetCachedRegion returns the cached copy for r, if any, updating recency
// and incrementing the access count on a hit.
func (m *CacheManager) GetCachedRegion(r Region) (RegionCache, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(cacheKey(r))
}

// GetCachedSegment returns the cached copy backing a RegionSegment, if any.
func (m *CacheManager) GetCachedSegment(s RegionSegment) (RegionCache, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(cacheKey(s.SourceRegion))
}

// GetCachedSegmentTry is a non-blocking variant: if the lock cannot be
// acquired immediately (another goroutine holds it), it returns as though
// the cache were empty rather than waiting, per spec §4.B / §5.
func (m *CacheManager) GetCachedSegmentTry(s RegionSegment) (RegionCache, bool) {
	if !m.mu.TryLock() {
		return RegionCache{}, false
	}
	defer m.mu.Unlock()
	return m.getLocked(cacheKey(s.SourceRegion))
}

func (m *CacheManager) getLocked(key string) (rc RegionCache, ok bool) {
	defer func() {
		// A miss or a corrupt entry must never surface as an error: the
		// cache degrades to "miss" and the caller falls back to direct
		// extraction (spec §7's CacheMiss policy).
		if r := recover(); r != nil {
			rc, ok = RegionCache{}, false
		}
	}()
	el, found := m.items[key]
	if !found {
		return RegionCache{}, false
	}
	entry := el.Value.(*cacheEntry)
	entry.cache.AccessCount++
	m.order.MoveToFront(el)
	return entry.cache, true
}

// LoadOrInsert coalesces concurrent population of the same key: if two
// callers race to populate a region miss, only one invokes load; both
// receive its result. This backs the LOADING segment state without a
// second goroutine duplicating work already in flight.
func (m *CacheManager) LoadOrInsert(r Region, load func() (RegionCache, error)) (RegionCache, error) {
	key := cacheKey(r)
	if c, ok := m.GetCachedRegion(r); ok {
		return c, nil
	}
	v, err, _ := m.loadOnce.Do(key, func() (any, error) {
		c, err := load()
		if err != nil {
			return RegionCache{}, err
		}
		m.CacheRegion(c)
		return c, nil
	})
	if err != nil {
		return RegionCache{}, err
	}
	return v.(RegionCache), nil
}

// Clear empties the cache.
func (m *CacheManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order.Init()
	m.items = make(map[string]*list.Element)
}

func (m *CacheManager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *CacheManager) MaxSize() int { return m.maxSize }
