package cache

import (
	"context"
	"time"

	"github.com/karlseguin/ccache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/xeptore/tgsd/spotify"
)

var (
	DefaultTrackTTL       = 1 * time.Hour
	DefaultAlbumTTL       = 1 * time.Hour
	DefaultAlbumTracksTTL = 1 * time.Hour
)

type Cache struct {
	Tracks      *Store[spotify.Track]
	Albums      *Store[spotify.Album]
	AlbumTracks *Store[[]spotify.Track]
}

func New() *Cache {
	return &Cache{
		Tracks:      NewStore[spotify.Track](1000, DefaultTrackTTL),
		Albums:      NewStore[spotify.Album](500, DefaultAlbumTTL),
		AlbumTracks: NewStore[[]spotify.Track](500, DefaultAlbumTracksTTL),
	}
}

// Store is a bounded TTL cache whose misses for the same key are coalesced into a
// single fetch.
type Store[T any] struct {
	c   *ccache.Cache[T]
	ttl time.Duration
	sf  singleflight.Group
}

func NewStore[T any](maxSize int64, ttl time.Duration) *Store[T] {
	return &Store[T]{
		c: ccache.New(
			ccache.Configure[T]().
				MaxSize(maxSize).
				GetsPerPromote(3).
				ItemsToPrune(1),
		),
		ttl: ttl,
		sf:  singleflight.Group{},
	}
}

// Fetch returns the cached value of k, calling fetch on a miss or expiry. Failed
// fetches are not cached. A shared fetch runs detached from the requester that started
// it, and every requester stops waiting only when its own ctx is done.
func (s *Store[T]) Fetch(ctx context.Context, k string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if item := s.c.Get(k); nil != item && !item.Expired() {
		return item.Value(), nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(k, func() (any, error) {
		item, err := s.c.Fetch(k, s.ttl, func() (T, error) { return fetch(fetchCtx) })
		if nil != err {
			return nil, err
		}
		return item.Value(), nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if nil != res.Err {
			return zero, res.Err
		}
		return res.Val.(T), nil //nolint:forcetypeassert
	}
}

func (s *Store[T]) Delete(k string) {
	s.c.Delete(k)
}

func (s *Store[T]) Stop() {
	s.c.Stop()
}

func (c *Cache) Stop() {
	c.Tracks.Stop()
	c.Albums.Stop()
	c.AlbumTracks.Stop()
}
