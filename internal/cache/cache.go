package cache

import "github.com/ppiankov/varsig/internal/model"

// Store maps a query string to a previously fetched search result.
// Keys are used verbatim: no hashing, trimming or case folding.
type Store interface {
	Get(query string) (model.SearchResult, bool)
	Put(query string, result model.SearchResult)
	Len() int
}
