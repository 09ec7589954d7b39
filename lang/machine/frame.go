package machine

// frame is a call-stack entry: where to resume on return, and how many
// heap slots the frame has allocated (so they can be freed on the way
// out). The thread's frame stack always starts with one sentinel entry
// standing in for the top level, so fp == len(frames)-1 never underflows.
type frame struct {
	returnPC        int
	localsAllocated int
}
