package fetcher

import (
	"golang.org/x/sync/singleflight"
)

// Group collapses concurrent downloads of the same key into one.
type Group struct {
	g singleflight.Group
}

func (g *Group) Do(key string, fn func() (string, error)) (string, error, bool) {
	v, err, shared := g.g.Do(key, func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return "", err, shared
	}
	return v.(string), nil, shared
}
