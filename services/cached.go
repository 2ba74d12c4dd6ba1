// services/cached.go - Chapter Cache in front of the Content Service
package services

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"biblereader/copytext"

	"golang.org/x/sync/singleflight"
)

const defaultFetchTimeout = 30 * time.Second

// CachedSource serves chapters from the local store while they are fresh and
// refills the store from the remote source otherwise. Remote fetches are
// always whole chapters so later requests for other verses hit the cache.
type CachedSource struct {
	store  *VerseStore
	remote VerseSource
	ttl    time.Duration

	// FetchTimeout bounds one shared remote chapter fetch. Callers that give
	// up earlier leave the fetch running for the others.
	FetchTimeout time.Duration

	group singleflight.Group
}

func NewCachedSource(store *VerseStore, remote VerseSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		store:        store,
		remote:       remote,
		ttl:          ttl,
		FetchTimeout: defaultFetchTimeout,
	}
}

// FetchVerseRange implements VerseSource.
func (s *CachedSource) FetchVerseRange(ctx context.Context, translation, book string, chapter, start, end int) ([]copytext.VerseText, error) {
	fresh, err := s.store.ChapterFresh(ctx, translation, book, chapter, s.ttl)
	if err != nil {
		log.Printf("⚠️  Cache lookup failed for %s %d (%s): %v", book, chapter, translation, err)
	}
	if fresh {
		verses, err := s.store.FetchVerseRange(ctx, translation, book, chapter, start, end)
		if err == nil {
			return verses, nil
		}
		// a cached chapter without the verse asked for is a miss, not a refetch
		if !errors.Is(err, ErrNotFound) || start != 0 {
			return nil, err
		}
	}

	verses, err := s.fetchChapter(ctx, translation, book, chapter)
	if err != nil {
		if errors.Is(err, ErrContentUnavailable) {
			// serve stale text rather than nothing
			if stale, staleErr := s.store.FetchVerseRange(ctx, translation, book, chapter, start, end); staleErr == nil {
				log.Printf("⚠️  Serving stale %s %d (%s): %v", book, chapter, translation, err)
				return stale, nil
			}
		}
		return nil, err
	}

	out := sliceVerses(verses, start, end)
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// fetchChapter fetches and stores one chapter, sharing the call between
// concurrent requests for the same chapter. Each caller waits on its own ctx.
func (s *CachedSource) fetchChapter(ctx context.Context, translation, book string, chapter int) ([]copytext.VerseText, error) {
	key := translation + "|" + book + "|" + strconv.Itoa(chapter)

	timeout := s.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		verses, err := s.remote.FetchVerseRange(fetchCtx, translation, book, chapter, 0, 0)
		if err != nil {
			return nil, err
		}

		if err := s.store.SaveChapter(fetchCtx, translation, book, chapter, verses, SourceRemote); err != nil {
			log.Printf("⚠️  Failed to cache %s %d (%s): %v", book, chapter, translation, err)
		} else {
			log.Printf("💾 Cached %s %d (%s): %d verses", book, chapter, translation, len(verses))
		}
		return verses, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]copytext.VerseText), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
