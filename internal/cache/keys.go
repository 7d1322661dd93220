package cache

import "fmt"

// Key derivation is part of each service's contract. Distinct
// (entity-kind, id | query-params) tuples never collide because every kind
// owns its own prefix.
const (
	PostListPrefix = "posts:"
	SearchPrefix   = "search:"
)

// PostKey caches a single content item. Long TTL, invalidated on delete.
func PostKey(id string) string {
	return fmt.Sprintf("post:%s", id)
}

// PostListKey caches one page of the content listing. Short TTL, purged as a
// whole on every create and delete since ordering shifts every page.
func PostListKey(page, pageSize int) string {
	return fmt.Sprintf("%s%d:%d", PostListPrefix, page, pageSize)
}

// SearchKey caches one page of ranked search results for a query.
func SearchKey(query string, page, pageSize int) string {
	return fmt.Sprintf("%s%s:%d:%d", SearchPrefix, query, page, pageSize)
}
