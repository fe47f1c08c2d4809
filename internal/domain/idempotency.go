package domain

import "time"

// IdempotencyRecord stores the outcome of a completed import keyed by the
// client-supplied idempotency key. Replays with the same request hash get
// the stored response; a different hash under the same key is a conflict.
type IdempotencyRecord struct {
	Key         string    `json:"key"`
	RequestHash string    `json:"request_hash"`
	Response    []byte    `json:"response"`
	CreatedAt   time.Time `json:"created_at"`
}
