package searchindex

import "errors"

// ErrNoVectorStore is returned by NopIndex.Upsert.
var ErrNoVectorStore = errors.New("no vector store configured")

// ErrDimensionMismatch is returned when a vector does not match the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")
