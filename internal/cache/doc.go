// Package cache provides a generic LRU cache with an eviction callback.
//
//	c := cache.New[string, overlay.Texture](8,
//	    cache.WithOnEvict(func(url string, tex overlay.Texture) {
//	        backend.ReleaseTexture(tex)
//	    }))
//	tex, ok := c.Get(url)
//	if !ok {
//	    tex, err = backend.UploadTexture(path)
//	    ...
//	    c.Set(url, tex) // may evict and release the oldest texture
//	}
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
