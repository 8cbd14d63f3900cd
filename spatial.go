package main

import "math"

const (
	// SpatialCellSize trades query fan-out against cell occupancy. Cells are
	// square on the ground plane; height is ignored.
	SpatialCellSize = 10.0

	// SpatialExtent is the half-size of the bounded world. Positions outside
	// are clamped into the edge cells rather than dropped.
	SpatialExtent = 250.0
)

type cellKey struct {
	X, Z int
}

// SpatialIndex is a uniform grid mapping entity ids to ground-plane cells.
// Update and Remove are O(1) amortized; Nearby scans only the cell
// neighborhood covering the requested range. Queries can return entities
// slightly beyond the range at cell boundaries — callers that care do an
// exact distance check on the results.
type SpatialIndex struct {
	cellSize float64
	extent   float64
	cells    map[cellKey]map[string]struct{}
	loc      map[string]cellKey
}

// NewSpatialIndex creates an empty index with default world bounds
func NewSpatialIndex() *SpatialIndex {
	return &SpatialIndex{
		cellSize: SpatialCellSize,
		extent:   SpatialExtent,
		cells:    make(map[cellKey]map[string]struct{}),
		loc:      make(map[string]cellKey),
	}
}

func (s *SpatialIndex) keyFor(pos Vec3) cellKey {
	x := Clamp(pos[0], -s.extent, s.extent)
	z := Clamp(pos[2], -s.extent, s.extent)
	return cellKey{
		X: int(math.Floor((x + s.extent) / s.cellSize)),
		Z: int(math.Floor((z + s.extent) / s.cellSize)),
	}
}

// Update moves an entity to the cell for pos, inserting it if unknown
func (s *SpatialIndex) Update(id string, pos Vec3) {
	key := s.keyFor(pos)
	if old, ok := s.loc[id]; ok {
		if old == key {
			return
		}
		s.evict(id, old)
	}
	cell, ok := s.cells[key]
	if !ok {
		cell = make(map[string]struct{})
		s.cells[key] = cell
	}
	cell[id] = struct{}{}
	s.loc[id] = key
}

// Remove drops an entity from the index; unknown ids are a no-op
func (s *SpatialIndex) Remove(id string) {
	key, ok := s.loc[id]
	if !ok {
		return
	}
	s.evict(id, key)
	delete(s.loc, id)
}

func (s *SpatialIndex) evict(id string, key cellKey) {
	if cell, ok := s.cells[key]; ok {
		delete(cell, id)
		if len(cell) == 0 {
			delete(s.cells, key)
		}
	}
}

// Contains reports whether the entity is currently indexed
func (s *SpatialIndex) Contains(id string) bool {
	_, ok := s.loc[id]
	return ok
}

// Nearby returns the ids of all other entities within rangeDist of id,
// by cell coverage. The cell radius rounds up, so true neighbors are never
// missed; boundary-distance false positives are possible.
func (s *SpatialIndex) Nearby(id string, rangeDist float64) []string {
	center, ok := s.loc[id]
	if !ok {
		return nil
	}
	r := int(math.Ceil(rangeDist / s.cellSize))
	var out []string
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			cell, ok := s.cells[cellKey{X: center.X + dx, Z: center.Z + dz}]
			if !ok {
				continue
			}
			for other := range cell {
				if other != id {
					out = append(out, other)
				}
			}
		}
	}
	return out
}
