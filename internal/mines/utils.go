package mines

// celltodo is a LIFO worklist of cell indices for the flood fill.
type celltodo struct {
	stack []int
}

func (std *celltodo) add(i int) {
	std.stack = append(std.stack, i)
}

func (std *celltodo) next() (int, bool) {
	n := len(std.stack)
	if n == 0 {
		return 0, false
	}
	i := std.stack[n-1]
	std.stack = std.stack[:n-1]
	return i, true
}
