package apoc

import (
	"container/list"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/apoc/codec"
	"github.com/bodgit/apoc/loftemps"
	"github.com/bodgit/apoc/pck"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Root is the directory request paths are relative to.
	Root string
	// Decode is passed to the sprite decoders.
	Decode pck.Options
	// MaxEntries bounds the number of unpinned results kept. Zero keeps
	// everything.
	MaxEntries int
	// Logger receives cache activity. Nil discards it.
	Logger *log.Logger
}

type entry struct {
	key   string
	value interface{}
	pins  int
	elem  *list.Element // nil while pinned
}

// Loader decodes resource requests and memoizes the results by request.
// Concurrent requests for the same resource share one decode. Pinned
// results are never evicted; the rest are evicted least recently used
// first once there are more than MaxEntries of them.
type Loader struct {
	root   string
	opts   pck.Options
	max    int
	logger *log.Logger

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	lru     *list.List
}

// NewLoader returns a Loader configured by o.
func NewLoader(o LoaderOptions) *Loader {
	logger := o.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Loader{
		root:    o.Root,
		opts:    o.Decode,
		max:     o.MaxEntries,
		logger:  logger,
		entries: make(map[string]*entry),
		lru:     list.New(),
	}
}

func (l *Loader) open(name string) (*os.File, error) {
	return os.Open(filepath.Join(l.root, filepath.FromSlash(name)))
}

func (l *Loader) lookup(key string) (interface{}, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	if e.elem != nil {
		l.lru.MoveToFront(e.elem)
	}
	return e.value, true
}

func (l *Loader) store(key string, value interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[key]; ok {
		return
	}
	e := &entry{key: key, value: value}
	e.elem = l.lru.PushFront(e)
	l.entries[key] = e
	l.evict()
}

// evict must be called with mu held.
func (l *Loader) evict() {
	for l.max > 0 && l.lru.Len() > l.max {
		e := l.lru.Remove(l.lru.Back()).(*entry)
		delete(l.entries, e.key)
		l.logger.Printf("Evicted %q\n", e.key)
	}
}

func (l *Loader) get(req Request) (interface{}, error) {
	key := req.String()
	if v, ok := l.lookup(key); ok {
		return v, nil
	}

	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		if v, ok := l.lookup(key); ok {
			return v, nil
		}
		v, err := l.decode(req)
		if err != nil {
			return nil, err
		}
		l.logger.Printf("Loaded %q\n", key)
		l.store(key, v)
		return v, nil
	})
	return v, err
}

func (l *Loader) decode(req Request) (interface{}, error) {
	data, err := l.open(req.Data)
	if err != nil {
		return nil, err
	}
	defer data.Close()

	if req.Kind == Raw {
		return pck.DecodeRaw(data, req.Width, req.Height)
	}

	// A member of a set that is already loaded is served from the set.
	if req.Record != All {
		if v, ok := l.lookup(req.Whole().String()); ok {
			switch s := v.(type) {
			case *pck.ImageSet:
				if err := s.Err(req.Record); err != nil {
					return nil, err
				}
				if req.Record >= s.Len() {
					return nil, errors.Wrapf(codec.ErrOutOfBounds, "%s: record %d of %d", req.Data, req.Record, s.Len())
				}
				return s.Image(req.Record), nil
			case *loftemps.LOFTemps:
				if sl := s.Slice(req.Record); sl != nil {
					return sl, nil
				}
				return nil, errors.Wrapf(codec.ErrOutOfBounds, "%s: slice %d of %d", req.Data, req.Record, s.Len())
			}
		}
	}

	index, err := l.open(req.Index)
	if err != nil {
		return nil, err
	}
	defer index.Close()

	switch {
	case req.Kind == LOFTemps && req.Record == All:
		return loftemps.Decode(data, index)
	case req.Kind == LOFTemps:
		return loftemps.DecodeOne(data, index, req.Record)
	case req.Record == All:
		return pck.DecodeAll(data, index, req.Kind.Format(), &l.opts)
	}
	return pck.DecodeOne(data, index, req.Kind.Format(), req.Record, &l.opts)
}

// Load decodes the resource named by s. The result is a *pck.ImageSet,
// *pck.Image, *loftemps.LOFTemps or *loftemps.Slice depending on the
// request.
func (l *Loader) Load(s string) (interface{}, error) {
	req, err := ParseRequest(s)
	if err != nil {
		return nil, err
	}
	return l.get(req)
}

// ImageSet loads a whole sprite sheet.
func (l *Loader) ImageSet(s string) (*pck.ImageSet, error) {
	req, err := ParseRequest(s)
	if err != nil {
		return nil, err
	}
	if !req.Kind.Sprites() || req.Kind == Raw || req.Record != All {
		return nil, errors.Wrapf(ErrBadRequest, "%q is not a sprite sheet request", s)
	}
	v, err := l.get(req)
	if err != nil {
		return nil, err
	}
	return v.(*pck.ImageSet), nil
}

// Image loads a single sprite. A blank sprite is returned as nil with no
// error.
func (l *Loader) Image(s string) (*pck.Image, error) {
	req, err := ParseRequest(s)
	if err != nil {
		return nil, err
	}
	if !req.Kind.Sprites() || (req.Kind != Raw && req.Record == All) {
		return nil, errors.Wrapf(ErrBadRequest, "%q is not a single sprite request", s)
	}
	v, err := l.get(req)
	if err != nil {
		return nil, err
	}
	return v.(*pck.Image), nil
}

// LOFTemps loads a whole set of voxel slices.
func (l *Loader) LOFTemps(s string) (*loftemps.LOFTemps, error) {
	req, err := ParseRequest(s)
	if err != nil {
		return nil, err
	}
	if req.Kind != LOFTemps || req.Record != All {
		return nil, errors.Wrapf(ErrBadRequest, "%q is not a LOFTEMPS set request", s)
	}
	v, err := l.get(req)
	if err != nil {
		return nil, err
	}
	return v.(*loftemps.LOFTemps), nil
}

// Slice loads a single voxel slice.
func (l *Loader) Slice(s string) (*loftemps.Slice, error) {
	req, err := ParseRequest(s)
	if err != nil {
		return nil, err
	}
	if req.Kind != LOFTemps || req.Record == All {
		return nil, errors.Wrapf(ErrBadRequest, "%q is not a LOFTEMPS slice request", s)
	}
	v, err := l.get(req)
	if err != nil {
		return nil, err
	}
	return v.(*loftemps.Slice), nil
}

// Pin loads s if necessary and keeps it cached until a matching Unpin.
func (l *Loader) Pin(s string) error {
	req, err := ParseRequest(s)
	if err != nil {
		return err
	}
	v, err := l.get(req)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := req.String()
	e, ok := l.entries[key]
	if !ok {
		// Evicted between loading and locking.
		e = &entry{key: key, value: v}
		l.entries[key] = e
	}
	if e.elem != nil {
		l.lru.Remove(e.elem)
		e.elem = nil
	}
	e.pins++
	return nil
}

// Unpin releases one Pin of s.
func (l *Loader) Unpin(s string) {
	req, err := ParseRequest(s)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[req.String()]
	if !ok || e.pins == 0 {
		return
	}
	e.pins--
	if e.pins == 0 {
		e.elem = l.lru.PushFront(e)
		l.evict()
	}
}

// Len returns the number of cached results, pinned or not.
func (l *Loader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Purge drops every unpinned result.
func (l *Loader) Purge() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for el := l.lru.Front(); el != nil; el = l.lru.Front() {
		delete(l.entries, l.lru.Remove(el).(*entry).key)
	}
}
