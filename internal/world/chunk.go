// Package world provides chunk positions and the key format used for
// territory claims. A chunk key is "world:x:z" and covers a 16×16 block cell.
package world

import (
	"fmt"
	"strconv"
	"strings"
)

// ChunkSize is the edge length of a chunk in blocks.
const ChunkSize = 16

// ChunkPos identifies a single territory cell inside a named world.
type ChunkPos struct {
	World string `json:"world"`
	X     int    `json:"x"`
	Z     int    `json:"z"`
}

// Key returns the canonical string form used in claim sets and on disk.
func (c ChunkPos) Key() string {
	return fmt.Sprintf("%s:%d:%d", c.World, c.X, c.Z)
}

// ParseKey parses a "world:x:z" key. World names may not contain colons.
func ParseKey(key string) (ChunkPos, bool) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		return ChunkPos{}, false
	}
	x, err := strconv.Atoi(parts[1])
	if err != nil {
		return ChunkPos{}, false
	}
	z, err := strconv.Atoi(parts[2])
	if err != nil {
		return ChunkPos{}, false
	}
	return ChunkPos{World: parts[0], X: x, Z: z}, true
}

// Neighbors8 returns the eight surrounding chunks in the same world,
// row by row, the center excluded.
func (c ChunkPos) Neighbors8() []ChunkPos {
	out := make([]ChunkPos, 0, 8)
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			if dx == 0 && dz == 0 {
				continue
			}
			out = append(out, ChunkPos{World: c.World, X: c.X + dx, Z: c.Z + dz})
		}
	}
	return out
}

// EdgeBlock returns the block coordinate on this chunk's boundary facing the
// given neighbor offset. Positive offsets face the far edge of the chunk.
func (c ChunkPos) EdgeBlock(dx, dz int) (x, z int) {
	x = c.X * ChunkSize
	if dx > 0 {
		x += ChunkSize - 1
	}
	z = c.Z * ChunkSize
	if dz > 0 {
		z += ChunkSize - 1
	}
	return x, z
}
