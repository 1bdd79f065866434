package tree

import "math"

const (
	arenaChunkShift = 8
	arenaChunkSize  = 1 << arenaChunkShift
	arenaChunkMask  = arenaChunkSize - 1
)

// nodeRef is the arena index of a node. The zero value means absent.
type nodeRef uint32

const nilRef nodeRef = 0

type arenaSlot[T any] struct {
	obj  T
	gen  uint32
	used bool
}

// nodeArena stores objects in fixed size chunks, so a slot never
// moves after allocation. Freed slots are recycled LIFO and each free
// bumps the slot generation to invalidate the outstanding handles.
// Index 0 is reserved as the absent reference.
type nodeArena[T any] struct {
	chunks   []*[arenaChunkSize]arenaSlot[T]
	next     nodeRef
	recycled []nodeRef
	inUse    int
}

func (arena *nodeArena[T]) chunkLen() int {
	return len(arena.chunks)
}

func (arena *nodeArena[T]) recLen() int {
	return len(arena.recycled)
}

func (arena *nodeArena[T]) objLen() int {
	return arena.inUse
}

func (arena *nodeArena[T]) slot(ref nodeRef) *arenaSlot[T] {
	return &arena.chunks[ref>>arenaChunkShift][ref&arenaChunkMask]
}

func (arena *nodeArena[T]) get(ref nodeRef) *T {
	if ref == nilRef || ref >= arena.next {
		// impossible run to here
		panic( /* debug assertion */ "[tree] arena access out of range")
	}
	return &arena.slot(ref).obj
}

func (arena *nodeArena[T]) allocate() (nodeRef, *T) {
	var ref nodeRef
	if l := len(arena.recycled); l > 0 {
		ref = arena.recycled[l-1]
		arena.recycled = arena.recycled[:l-1]
	} else {
		if arena.next == math.MaxUint32 {
			panic("[tree] arena exhausted")
		}
		ref = arena.next
		if int(ref>>arenaChunkShift) >= len(arena.chunks) {
			arena.chunks = append(arena.chunks, new([arenaChunkSize]arenaSlot[T]))
		}
		arena.next++
	}
	s := arena.slot(ref)
	s.used = true
	arena.inUse++
	return ref, &s.obj
}

func (arena *nodeArena[T]) free(ref nodeRef) {
	s := arena.slot(ref)
	if !s.used {
		// impossible run to here
		panic( /* debug assertion */ "[tree] arena double free")
	}
	var zero T
	s.obj = zero
	s.used = false
	s.gen++
	arena.recycled = append(arena.recycled, ref)
	arena.inUse--
}

func (arena *nodeArena[T]) generation(ref nodeRef) uint32 {
	return arena.slot(ref).gen
}

func (arena *nodeArena[T]) alive(ref nodeRef, gen uint32) bool {
	if ref == nilRef || ref >= arena.next {
		return false
	}
	s := arena.slot(ref)
	return s.used && s.gen == gen
}

// reset frees every slot but keeps the chunks for reuse.
// Generations survive the reset.
func (arena *nodeArena[T]) reset() {
	var zero T
	for ref := nodeRef(1); ref < arena.next; ref++ {
		if s := arena.slot(ref); s.used {
			s.obj = zero
			s.used = false
			s.gen++
		}
	}
	arena.recycled = arena.recycled[:0]
	for ref := arena.next - 1; ref >= 1; ref-- {
		arena.recycled = append(arena.recycled, ref)
	}
	arena.inUse = 0
}

func newNodeArena[T any](initRecycleCap uint32) *nodeArena[T] {
	return &nodeArena[T]{
		chunks:   make([]*[arenaChunkSize]arenaSlot[T], 0, 8),
		next:     1,
		recycled: make([]nodeRef, 0, initRecycleCap),
	}
}
