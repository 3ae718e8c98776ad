package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer derives cache keys.
type Keyer interface {
	// PlanKey keys a finished plan by database fingerprint and request.
	PlanKey(fingerprint string, opts PlanKeyOpts) string

	// ArtifactKey keys a rendered artifact by the hash of its plan.
	ArtifactKey(planHash string, opts ArtifactKeyOpts) string
}

// PlanKeyOpts is the request part of a plan key. Targets and Owned are
// canonical "amount,item" tokens in request order; order is significant
// because expansion is order dependent.
type PlanKeyOpts struct {
	Targets  []string `json:"targets"`
	Owned    []string `json:"owned,omitempty"`
	Tree     bool     `json:"tree,omitempty"`
	MaxDepth int      `json:"max_depth,omitempty"`
}

// ArtifactKeyOpts selects an artifact rendering of a plan.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PlanKey implements [Keyer].
func (DefaultKeyer) PlanKey(fingerprint string, opts PlanKeyOpts) string {
	return hashKey("plan", fingerprint, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", planHash, opts)
}

// ScopedKeyer prefixes every key of an inner keyer. The server uses it to
// namespace entries in a Redis instance shared with other applications.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PlanKey implements [Keyer].
func (k *ScopedKeyer) PlanKey(fingerprint string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(fingerprint, opts)
}

// ArtifactKey implements [Keyer].
func (k *ScopedKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(planHash, opts)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns kind:Hash(json(parts)). parts are plain values and
// structs, so marshalling cannot fail.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}
