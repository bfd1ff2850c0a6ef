package fetcher

import "sync"

// Cache memoises resolved local paths by source key for the process.
type Cache struct {
	data sync.Map
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get(key string) (string, bool) {
	v, ok := c.data.Load(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (c *Cache) Set(key, localPath string) {
	c.data.Store(key, localPath)
}
