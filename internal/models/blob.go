package models

import "time"

// LoadStatus describes what the persistence gateway found under the key.
type LoadStatus string

const (
	LoadStatusOK        LoadStatus = "ok"
	LoadStatusAbsent    LoadStatus = "absent"
	LoadStatusCorrupted LoadStatus = "corrupted"
)

// LoadResult accompanies every load so a corrupted blob is distinguishable from a first run.
type LoadResult struct {
	Status   LoadStatus
	Err      error
	Seeded   bool
	LoadedAt time.Time
}

// BlobChange is a notification that another context wrote the key. Value is nil
// when the transport cannot carry the payload and the store must be re-read.
// An empty Key asks for an unconditional resync.
type BlobChange struct {
	Key    string
	Origin string
	Value  []byte
}
