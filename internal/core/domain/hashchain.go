package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"strings"
	"time"
)

// GenesisHash is the previous hash of the first record in every chain.
var GenesisHash = strings.Repeat("0", 64)

// ChainName identifies an independent hash chain.
type ChainName string

const (
	ChainLedger   ChainName = "ledger"
	ChainAudit    ChainName = "audit"
	ChainSecurity ChainName = "security"
)

// ChainHead is the tail of a chain: the last appended sequence and its hash.
type ChainHead struct {
	Chain    ChainName `json:"chain"`
	Sequence int64     `json:"sequence"`
	Hash     string    `json:"hash"`
}

// GenesisHead returns the head of an empty chain.
func GenesisHead(chain ChainName) ChainHead {
	return ChainHead{Chain: chain, Sequence: 0, Hash: GenesisHash}
}

// Next returns the head after appending a record with the given hash.
func (h ChainHead) Next(hash string) ChainHead {
	return ChainHead{Chain: h.Chain, Sequence: h.Sequence + 1, Hash: hash}
}

// chainHasher writes length-prefixed fields so that no two field lists
// produce the same byte stream.
type chainHasher struct {
	h hash.Hash
}

func newChainHasher() *chainHasher {
	return &chainHasher{h: sha256.New()}
}

func (c *chainHasher) str(s string) *chainHasher {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	c.h.Write(n[:])
	c.h.Write([]byte(s))
	return c
}

func (c *chainHasher) bytes(b []byte) *chainHasher {
	return c.str(string(b))
}

func (c *chainHasher) int(i int64) *chainHasher {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(i))
	c.h.Write(n[:])
	return c
}

func (c *chainHasher) time(t time.Time) *chainHasher {
	return c.str(NormalizeTime(t).Format(time.RFC3339Nano))
}

func (c *chainHasher) sum(previousHash string) string {
	c.str(previousHash)
	return hex.EncodeToString(c.h.Sum(nil))
}
