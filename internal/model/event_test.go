package model

import "testing"

func TestCategoryValid(t *testing.T) {
	for _, c := range []Category{CategoryMusic, CategoryTheatre, CategorySports, CategoryArts, CategoryFamily, CategoryOther} {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
	}
	if Category("concerts").Valid() {
		t.Error("unknown category accepted")
	}
	if Category("").Valid() {
		t.Error("empty category accepted")
	}
}

func TestEventKey(t *testing.T) {
	e := CanonicalEvent{Source: "whatson", SourceID: "jazz-night"}
	if e.Key() != "whatson:jazz-night" {
		t.Errorf("Key = %q", e.Key())
	}
}
