package models

import "errors"

// ErrCollectionNotFound is returned by vector store operations when a
// repository has no collection, i.e. it was never ingested. Callers
// use it to distinguish "not yet indexed" from a store outage.
var ErrCollectionNotFound = errors.New("collection not found")
