package main

import "testing"

func TestSpatialIndexUpdateAndNearby(t *testing.T) {
	idx := NewSpatialIndex()
	idx.Update("a", Vec3{0, 0, 0})
	idx.Update("b", Vec3{3, 0, 4})
	idx.Update("far", Vec3{200, 0, 200})

	near := idx.Nearby("a", 10)
	if !containsID(near, "b") {
		t.Error("expected to find b near a")
	}
	if containsID(near, "far") {
		t.Error("should not find far entity near a")
	}
	if containsID(near, "a") {
		t.Error("nearby must not return the queried id itself")
	}
}

func TestSpatialIndexNoFalseNegatives(t *testing.T) {
	// Entities at exactly the query range must always be returned; the cell
	// radius rounds up.
	idx := NewSpatialIndex()
	idx.Update("a", Vec3{0, 0, 0})
	idx.Update("b", Vec3{15, 0, 0})

	if !containsID(idx.Nearby("a", 15), "b") {
		t.Error("entity at exact range distance was missed")
	}
}

func TestSpatialIndexHeightIgnored(t *testing.T) {
	idx := NewSpatialIndex()
	idx.Update("a", Vec3{0, 0, 0})
	idx.Update("b", Vec3{1, 50, 1})

	if !containsID(idx.Nearby("a", 5), "b") {
		t.Error("vertical axis should not affect cell placement")
	}
}

func TestSpatialIndexMoveBetweenCells(t *testing.T) {
	idx := NewSpatialIndex()
	idx.Update("a", Vec3{0, 0, 0})
	idx.Update("b", Vec3{1, 0, 1})

	idx.Update("b", Vec3{100, 0, 100})
	if containsID(idx.Nearby("a", 5), "b") {
		t.Error("moved entity still found in old cell")
	}

	idx.Update("a", Vec3{99, 0, 99})
	if !containsID(idx.Nearby("a", 5), "b") {
		t.Error("moved entity not found in new cell")
	}
}

func TestSpatialIndexRemove(t *testing.T) {
	idx := NewSpatialIndex()
	idx.Update("a", Vec3{0, 0, 0})
	idx.Update("b", Vec3{1, 0, 1})

	idx.Remove("b")
	if containsID(idx.Nearby("a", 5), "b") {
		t.Error("removed entity still returned")
	}
	if idx.Contains("b") {
		t.Error("removed entity still indexed")
	}

	// Removing an unknown id must be a no-op
	idx.Remove("ghost")
}

func TestSpatialIndexBoundaryClamp(t *testing.T) {
	idx := NewSpatialIndex()
	idx.Update("a", Vec3{-9999, 0, -9999})
	idx.Update("b", Vec3{-SpatialExtent, 0, -SpatialExtent})

	if !containsID(idx.Nearby("b", 5), "a") {
		t.Error("out-of-bounds entity should clamp into the edge cell")
	}
}

func containsID(ids []string, want string) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
