package compiler

// RegisterFrame allocates the registers of one function's window.
//
// Every register in [0, Total()) is in exactly one of three states: locked,
// free, or in use. The tracked list holds the locked registers followed by
// the free ones; registers in use are not tracked.
//
//	tracked: [ locked ... | free ... ]
//	                      ^ lockIndex
type RegisterFrame struct {
	total     int
	tracked   []uint16
	lockIndex int
	position  map[uint16]int
}

// NewRegisterFrame returns an empty frame.
func NewRegisterFrame() *RegisterFrame {
	return &RegisterFrame{position: map[uint16]int{}}
}

// Total returns the number of registers the frame has ever used. This is the
// window size of the function.
func (f *RegisterFrame) Total() int {
	return f.total
}

// Locked reports whether reg is locked.
func (f *RegisterFrame) Locked(reg uint16) bool {
	i, ok := f.position[reg]
	return ok && i < f.lockIndex
}

// IsFree reports whether reg is available for allocation.
func (f *RegisterFrame) IsFree(reg uint16) bool {
	i, ok := f.position[reg]
	return ok && i >= f.lockIndex
}

// Allocate returns a register that is neither locked nor in use. Free
// registers are reused, most recently freed first; otherwise the frame grows.
func (f *RegisterFrame) Allocate() uint16 {
	if len(f.tracked) == f.lockIndex {
		reg := uint16(f.total)
		f.total++
		return reg
	}
	last := len(f.tracked) - 1
	reg := f.tracked[last]
	f.tracked = f.tracked[:last]
	delete(f.position, reg)
	return reg
}

// Free returns reg to the free pool. Locked registers, free registers and
// registers outside the frame are left alone.
func (f *RegisterFrame) Free(reg uint16) {
	if int(reg) >= f.total {
		return
	}
	if _, tracked := f.position[reg]; tracked {
		return
	}
	f.position[reg] = len(f.tracked)
	f.tracked = append(f.tracked, reg)
}

// Lock pins reg so that Free ignores it and Allocate never returns it.
func (f *RegisterFrame) Lock(reg uint16) {
	if int(reg) >= f.total || f.Locked(reg) {
		return
	}
	if _, tracked := f.position[reg]; !tracked {
		f.position[reg] = len(f.tracked)
		f.tracked = append(f.tracked, reg)
	}
	f.swap(f.position[reg], f.lockIndex)
	f.lockIndex++
}

// Unlock moves a locked register back to the in-use state. It must be freed
// separately to make it available again.
func (f *RegisterFrame) Unlock(reg uint16) {
	if !f.Locked(reg) {
		return
	}
	f.lockIndex--
	f.swap(f.position[reg], f.lockIndex)
	// reg now sits at the start of the free section; take it out entirely.
	last := len(f.tracked) - 1
	f.swap(f.lockIndex, last)
	f.tracked = f.tracked[:last]
	delete(f.position, reg)
}

// Reserve grows the frame by count registers and locks them. Called on an
// empty frame it returns registers 0 through count-1.
func (f *RegisterFrame) Reserve(count int) []uint16 {
	regs := make([]uint16, count)
	for i := range regs {
		regs[i] = uint16(f.total)
		f.total++
		f.Lock(regs[i])
	}
	return regs
}

func (f *RegisterFrame) swap(i, j int) {
	if i == j {
		return
	}
	a, b := f.tracked[i], f.tracked[j]
	f.tracked[i], f.tracked[j] = b, a
	f.position[a], f.position[b] = j, i
}
