package scene

import "container/heap"

// freeList is a min-heap of vacated slot indices so the lowest one is reused first.
type freeList []uint32

func (f freeList) Len() int           { return len(f) }
func (f freeList) Less(i, j int) bool { return f[i] < f[j] }
func (f freeList) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func (f *freeList) Push(x any) {
	*f = append(*f, x.(uint32))
}

func (f *freeList) Pop() any {
	old := *f
	n := len(old)
	x := old[n-1]
	*f = old[:n-1]
	return x
}

func (f *freeList) put(index uint32) {
	heap.Push(f, index)
}

func (f *freeList) take() (uint32, bool) {
	if f.Len() == 0 {
		return 0, false
	}
	return heap.Pop(f).(uint32), true
}
