package registry

import (
	"sort"
	"sync"
)

// Table maps one version's ids to canonical ids and back.
type Table struct {
	toCanonical   map[uint32]uint32
	fromCanonical []int64 // -1 where the version has no such entry
	known         []uint32
}

func newTable(column []int64) *Table {
	t := &Table{
		toCanonical:   make(map[uint32]uint32, len(column)),
		fromCanonical: column,
	}
	for canonical, id := range column {
		if id < 0 {
			continue
		}
		// First canonical entry wins for ids that several canonical
		// states collapse onto.
		if _, dup := t.toCanonical[uint32(id)]; !dup {
			t.toCanonical[uint32(id)] = uint32(canonical)
		}
		t.known = append(t.known, uint32(canonical))
	}
	return t
}

// ToCanonical maps a version id to its canonical id.
func (t *Table) ToCanonical(id uint32) (uint32, bool) {
	c, ok := t.toCanonical[id]
	return c, ok
}

// FromCanonical maps a canonical id to the version id. ok is false when
// the version has no equivalent.
func (t *Table) FromCanonical(canonical uint32) (uint32, bool) {
	if int(canonical) >= len(t.fromCanonical) {
		return 0, false
	}
	id := t.fromCanonical[canonical]
	if id < 0 {
		return 0, false
	}
	return uint32(id), true
}

// NearestKnown returns the closest canonical id at or below canonical
// that the version knows. Canonical 0 is always known.
func (t *Table) NearestKnown(canonical uint32) uint32 {
	i := sort.Search(len(t.known), func(i int) bool { return t.known[i] > canonical })
	if i == 0 {
		return 0
	}
	return t.known[i-1]
}

// Len returns the number of entries the version knows.
func (t *Table) Len() int { return len(t.known) }

// Registry is the process-wide set of id tables.
type Registry struct {
	blocks   map[BlockVersion]*Table
	items    map[BlockVersion]*Table
	entities map[BlockVersion]*Table

	blockNames  []string
	itemNames   []string
	entityNames []string

	byName map[string][3]int64 // canonical block, item, entity id; -1 if none
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the registry built from the generated tables.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = build(blockStates, items, entityTypes) })
	return defaultReg
}

func build(blocks, its, ents []mapping) *Registry {
	r := &Registry{
		blocks:   make(map[BlockVersion]*Table),
		items:    make(map[BlockVersion]*Table),
		entities: make(map[BlockVersion]*Table),
	}
	r.blockNames = names(blocks)
	r.itemNames = names(its)
	r.entityNames = names(ents)
	r.byName = make(map[string][3]int64)
	for i, list := range [][]string{r.blockNames, r.itemNames, r.entityNames} {
		for c, name := range list {
			ids, ok := r.byName[name]
			if !ok {
				ids = [3]int64{-1, -1, -1}
			}
			ids[i] = int64(c)
			r.byName[name] = ids
		}
	}
	for _, bv := range []BlockVersion{Blocks1_8, Blocks1_12, Blocks1_14} {
		r.blocks[bv] = newTable(column(blocks, bv))
		r.items[bv] = newTable(column(its, bv))
		r.entities[bv] = newTable(column(ents, bv))
	}
	return r
}

// Blocks returns the block-state table for bv.
func (r *Registry) Blocks(bv BlockVersion) *Table { return r.blocks[bv] }

// Items returns the item table for bv.
func (r *Registry) Items(bv BlockVersion) *Table { return r.items[bv] }

// Entities returns the entity type table for bv.
func (r *Registry) Entities(bv BlockVersion) *Table { return r.entities[bv] }

// BlockName returns the canonical name of a block state.
func (r *Registry) BlockName(canonical uint32) string { return nameAt(r.blockNames, canonical) }

// ItemName returns the canonical name of an item.
func (r *Registry) ItemName(canonical uint32) string { return nameAt(r.itemNames, canonical) }

// EntityName returns the canonical name of an entity type.
func (r *Registry) EntityName(canonical uint32) string { return nameAt(r.entityNames, canonical) }

// BlockByName returns the canonical id of a block state name.
func (r *Registry) BlockByName(name string) (uint32, bool) { return r.lookupName(name, 0) }

// ItemByName returns the canonical id of an item name.
func (r *Registry) ItemByName(name string) (uint32, bool) { return r.lookupName(name, 1) }

// EntityByName returns the canonical id of an entity type name.
func (r *Registry) EntityByName(name string) (uint32, bool) { return r.lookupName(name, 2) }

func (r *Registry) lookupName(name string, kind int) (uint32, bool) {
	ids, ok := r.byName[name]
	if !ok || ids[kind] < 0 {
		return 0, false
	}
	return uint32(ids[kind]), true
}

func nameAt(list []string, i uint32) string {
	if int(i) >= len(list) {
		return "unknown"
	}
	return list[i]
}

func names(m []mapping) []string {
	out := make([]string, len(m))
	for i, e := range m {
		out[i] = e.name
	}
	return out
}

func column(m []mapping, bv BlockVersion) []int64 {
	out := make([]int64, len(m))
	for i, e := range m {
		switch bv {
		case Blocks1_8:
			out[i] = e.v1_8
		case Blocks1_12:
			out[i] = e.v1_12
		case Blocks1_14:
			out[i] = e.v1_14
		}
	}
	return out
}
