package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkRunes(t *testing.T) {
	chunks := chunkRunes(strings.Repeat("a", 450), 200)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 200)
	assert.Len(t, chunks[2], 50)
}

func TestChunkRunesMultibyte(t *testing.T) {
	// Splitting must never land mid-rune.
	text := strings.Repeat("ñ", 201)
	chunks := chunkRunes(text, 200)
	assert.Len(t, chunks, 2)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestChunkRunesEmpty(t *testing.T) {
	assert.Equal(t, []string{""}, chunkRunes("", 200))
}
