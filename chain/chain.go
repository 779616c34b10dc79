// chain.go
// Simulated traceability ledger: an append-only feed of sha256-linked
// blocks, one per batch lifecycle event. It is a demonstration surface,
// not a distributed ledger. There is no consensus and no verification
// beyond the hash links. Recording is fail-soft so the main flow keeps
// working even when the ledger misbehaves.

package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Event names mirror the on-chain contract calls of the original system.
const (
	EventBatchCreated  = "BATCH_CREATED"
	EventAIQuality     = "AI_QUALITY"
	EventPickup        = "PICKUP"
	EventDelivery      = "DELIVERY"
	EventRetailerPrice = "RETAILER_PRICE"
)

// Block is one entry in the simulated ledger.
type Block struct {
	Index     int64             `json:"index"`
	Timestamp time.Time         `json:"timestamp"`
	Event     string            `json:"event"`
	BatchCode string            `json:"batch_code"`
	Payload   map[string]string `json:"payload,omitempty"`
	PrevHash  string            `json:"prev_hash"`
	Hash      string            `json:"hash"`
}

// Ledger holds the in-memory chain, starting from a genesis block.
type Ledger struct {
	mu        sync.RWMutex
	blocks    []Block
	publicURL string
}

// New creates a ledger with a genesis block. publicURL is the base for
// derived verification URLs.
func New(publicURL string) *Ledger {
	l := &Ledger{publicURL: strings.TrimRight(publicURL, "/")}
	genesis := Block{
		Index:     0,
		Timestamp: time.Now(),
		Event:     "GENESIS",
		PrevHash:  "",
	}
	genesis.Hash = hashBlock(genesis)
	l.blocks = []Block{genesis}
	return l
}

// Record appends a block for the given event. It never fails: the hash
// of the new block is returned, and problems only surface in the feed.
func (l *Ledger) Record(event, batchCode string, payload map[string]string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.blocks[len(l.blocks)-1]
	b := Block{
		Index:     prev.Index + 1,
		Timestamp: time.Now(),
		Event:     event,
		BatchCode: batchCode,
		Payload:   payload,
		PrevHash:  prev.Hash,
	}
	b.Hash = hashBlock(b)
	l.blocks = append(l.blocks, b)
	return b.Hash
}

// Blocks returns the full feed, newest first.
func (l *Ledger) Blocks() []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Block, len(l.blocks))
	for i, b := range l.blocks {
		out[len(l.blocks)-1-i] = b
	}
	return out
}

// BlocksForBatch returns the feed entries for one batch, oldest first.
func (l *Ledger) BlocksForBatch(batchCode string) []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Block
	for _, b := range l.blocks {
		if b.BatchCode == batchCode {
			out = append(out, b)
		}
	}
	return out
}

// Verify walks the chain and reports whether every hash link holds.
func (l *Ledger) Verify() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i, b := range l.blocks {
		if b.Hash != hashBlock(b) {
			return false
		}
		if i > 0 && b.PrevHash != l.blocks[i-1].Hash {
			return false
		}
	}
	return true
}

// VerificationURL derives the public trace URL encoded into QR codes.
func (l *Ledger) VerificationURL(batchCode string) string {
	return fmt.Sprintf("%s/verify/%s", l.publicURL, batchCode)
}

func hashBlock(b Block) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%s|%s|%s|", b.Index, b.Timestamp.UnixNano(), b.Event, b.BatchCode, b.PrevHash)
	keys := make([]string, 0, len(b.Payload))
	for k := range b.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s|", k, b.Payload[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
