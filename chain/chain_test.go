package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLinksBlocks(t *testing.T) {
	l := New("http://localhost:8080")

	h1 := l.Record(EventBatchCreated, "BT001", map[string]string{"crop": "Tomato"})
	h2 := l.Record(EventPickup, "BT001", nil)
	require.NotEmpty(t, h1)
	require.NotEmpty(t, h2)
	assert.NotEqual(t, h1, h2)

	blocks := l.Blocks()
	require.Len(t, blocks, 3) // genesis + 2 events

	// Newest first
	assert.Equal(t, EventPickup, blocks[0].Event)
	assert.Equal(t, EventBatchCreated, blocks[1].Event)
	assert.Equal(t, "GENESIS", blocks[2].Event)

	// Hash links hold
	assert.Equal(t, blocks[1].Hash, blocks[0].PrevHash)
	assert.Equal(t, blocks[2].Hash, blocks[1].PrevHash)
	assert.True(t, l.Verify())
}

func TestBlocksForBatch(t *testing.T) {
	l := New("http://localhost:8080")

	l.Record(EventBatchCreated, "BT001", nil)
	l.Record(EventBatchCreated, "BT002", nil)
	l.Record(EventPickup, "BT001", nil)

	blocks := l.BlocksForBatch("BT001")
	require.Len(t, blocks, 2)

	// Oldest first for a single batch's trace
	assert.Equal(t, EventBatchCreated, blocks[0].Event)
	assert.Equal(t, EventPickup, blocks[1].Event)

	assert.Empty(t, l.BlocksForBatch("BT999"))
}

func TestVerifyDetectsTampering(t *testing.T) {
	l := New("http://localhost:8080")
	l.Record(EventBatchCreated, "BT001", map[string]string{"crop": "Tomato"})
	require.True(t, l.Verify())

	l.blocks[1].Payload["crop"] = "Mango"
	assert.False(t, l.Verify())
}

func TestVerificationURL(t *testing.T) {
	l := New("http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080/verify/BT001", l.VerificationURL("BT001"))
}
