// Package cache caches fixed-size chunks of page images.
//
// LRUBlockCache is the in-process cache used in front of every page store.
// Its memory is charged to the shared resource controller, so cached chunks
// and materialized frames draw from one budget.
//
// RedisBlockCache shares chunks between processes, which lets several CLI
// invocations against a remote page store reuse each other's reads.
package cache
