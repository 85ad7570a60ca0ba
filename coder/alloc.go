package coder

import "sync"

// Alloc is a reusable stack allocation for CoderState. Coding a deeply
// nested message grows the frame stack; passing the allocation from a
// finished state into the next one via WithAlloc avoids regrowing it for
// every message.
type Alloc struct {
	stack []frame
}

// NewAlloc returns an empty allocation.
func NewAlloc() *Alloc {
	return &Alloc{}
}

// maxPooledFrames caps the stack capacity the pool will retain. A message
// nested deeper than this is unusual; holding its allocation would pin
// the high-water mark for the life of the process.
const maxPooledFrames = 4096

var allocPool = sync.Pool{
	New: func() any {
		return &Alloc{stack: make([]frame, 0, 16)}
	},
}

// GetAlloc returns a pooled allocation.
func GetAlloc() *Alloc {
	return allocPool.Get().(*Alloc)
}

// PutAlloc returns an allocation to the pool. Oversized allocations are
// dropped.
func PutAlloc(a *Alloc) {
	if a == nil || cap(a.stack) > maxPooledFrames {
		return
	}
	// drop schema pointers so the pool does not pin them
	full := a.stack[:cap(a.stack)]
	for i := range full {
		full[i] = frame{}
	}
	a.stack = a.stack[:0]
	allocPool.Put(a)
}
