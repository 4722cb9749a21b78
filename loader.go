package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

type origin int

const (
	originCache origin = iota
	originRemote
)

func (o origin) String() string {
	if o == originRemote {
		return "remote"
	}

	return "cache"
}

type snapshot struct {
	Entries []entry
	Origin  origin
}

// loader picks between the persisted slot and the remote source. A
// non-empty slot always wins.
type loader struct {
	cache  cache
	source source
	limit  int
	log    *log.Logger
}

func (l *loader) load(ctx context.Context) (snapshot, error) {
	data, ok, err := l.cache.Read(ctx)
	if err != nil {
		return snapshot{}, err
	}

	if ok {
		var cached []entry
		if err := json.Unmarshal(data, &cached); err != nil {
			l.log.Printf("discarding unreadable cache: %v", err)
		} else if err := checkUnique(cached); err != nil {
			l.log.Printf("discarding cache: %v", err)
		} else if len(cached) > 0 {
			l.log.Printf("loaded %d posts from cache", len(cached))
			return snapshot{Entries: cached, Origin: originCache}, nil
		}
	}

	fetched, err := l.source.Fetch(ctx, l.limit)
	if err != nil {
		return snapshot{}, err
	}

	if err := checkUnique(fetched); err != nil {
		return snapshot{}, fmt.Errorf("fetch posts: %w", err)
	}

	l.log.Printf("fetched %d posts", len(fetched))
	return snapshot{Entries: fetched, Origin: originRemote}, nil
}
