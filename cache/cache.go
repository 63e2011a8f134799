package cache

import (
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/odklm/spotfetch/spotify"
)

var (
	DefaultDownloadedCoverTTL = 1 * time.Hour
	DefaultPlaylistMetaTTL    = 1 * time.Hour
)

type Cache struct {
	PlaylistsMeta    PlaylistsMetaCache
	DownloadedCovers DownloadedCoversCache
}

func New() *Cache {
	playlistsMetaCache := ccache.New(
		ccache.Configure[*spotify.Playlist]().
			MaxSize(1000).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	downloadedCoversCache := ccache.New(
		ccache.Configure[[]byte]().
			MaxSize(100).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	return &Cache{
		PlaylistsMeta: PlaylistsMetaCache{
			c:   playlistsMetaCache,
			mux: sync.Mutex{},
		},
		DownloadedCovers: DownloadedCoversCache{
			c:   downloadedCoversCache,
			mux: sync.Mutex{},
		},
	}
}

type PlaylistsMetaCache struct {
	c   *ccache.Cache[*spotify.Playlist]
	mux sync.Mutex
}

func (c *PlaylistsMetaCache) Fetch(k string, ttl time.Duration, fetch func() (*spotify.Playlist, error)) (*ccache.Item[*spotify.Playlist], error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.c.Fetch(k, ttl, fetch)
}

type DownloadedCoversCache struct {
	c   *ccache.Cache[[]byte]
	mux sync.Mutex
}

func (c *DownloadedCoversCache) Fetch(k string, ttl time.Duration, fetch func() ([]byte, error)) (*ccache.Item[[]byte], error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.c.Fetch(k, ttl, fetch)
}
