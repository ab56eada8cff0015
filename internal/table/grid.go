package table

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

var (
	ErrInvalidShape  = errors.New("invalid table shape")
	ErrShapeMismatch = errors.New("table shape mismatch")
)

// Number is the element type of a dense table
type Number interface {
	constraints.Integer | constraints.Float
}

// Grid3 is a dense n x n x n table addressed by (i, j, k).
// Coordinates are not bounds checked beyond what slice indexing does.
type Grid3[T Number] struct {
	n    int
	data []T
}

// NewGrid3 creates a zeroed n x n x n grid
func NewGrid3[T Number](n int) (*Grid3[T], error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: side %d", ErrInvalidShape, n)
	}
	return &Grid3[T]{n: n, data: make([]T, n*n*n)}, nil
}

// Grid3FromData wraps data as an n x n x n grid. The slice is not copied.
func Grid3FromData[T Number](n int, data []T) (*Grid3[T], error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: side %d", ErrInvalidShape, n)
	}
	if len(data) != n*n*n {
		return nil, fmt.Errorf("%w: %d elements for side %d", ErrShapeMismatch, len(data), n)
	}
	return &Grid3[T]{n: n, data: data}, nil
}

// Side returns the length of each axis
func (g *Grid3[T]) Side() int { return g.n }

func (g *Grid3[T]) index(i, j, k int) int {
	return (i*g.n+j)*g.n + k
}

// At returns the value stored at (i, j, k)
func (g *Grid3[T]) At(i, j, k int) T {
	return g.data[g.index(i, j, k)]
}

// Set stores v at (i, j, k)
func (g *Grid3[T]) Set(i, j, k int, v T) {
	g.data[g.index(i, j, k)] = v
}

// Fill assigns f(i, j, k) to every cell
func (g *Grid3[T]) Fill(f func(i, j, k int) T) {
	for i := 0; i < g.n; i++ {
		for j := 0; j < g.n; j++ {
			for k := 0; k < g.n; k++ {
				g.data[g.index(i, j, k)] = f(i, j, k)
			}
		}
	}
}

// Data exposes the backing slice in row-major order
func (g *Grid3[T]) Data() []T { return g.data }

// Clone returns a deep copy
func (g *Grid3[T]) Clone() *Grid3[T] {
	data := make([]T, len(g.data))
	copy(data, g.data)
	return &Grid3[T]{n: g.n, data: data}
}

// Grid4 is a dense n x n x n x m table. The last axis is typically an action.
type Grid4[T Number] struct {
	n, m int
	data []T
}

// NewGrid4 creates a zeroed n x n x n x m grid
func NewGrid4[T Number](n, m int) (*Grid4[T], error) {
	if n <= 0 || m <= 0 {
		return nil, fmt.Errorf("%w: side %d depth %d", ErrInvalidShape, n, m)
	}
	return &Grid4[T]{n: n, m: m, data: make([]T, n*n*n*m)}, nil
}

// Grid4FromData wraps data as an n x n x n x m grid. The slice is not copied.
func Grid4FromData[T Number](n, m int, data []T) (*Grid4[T], error) {
	if n <= 0 || m <= 0 {
		return nil, fmt.Errorf("%w: side %d depth %d", ErrInvalidShape, n, m)
	}
	if len(data) != n*n*n*m {
		return nil, fmt.Errorf("%w: %d elements for side %d depth %d", ErrShapeMismatch, len(data), n, m)
	}
	return &Grid4[T]{n: n, m: m, data: data}, nil
}

// Side returns the length of the first three axes
func (g *Grid4[T]) Side() int { return g.n }

// Depth returns the length of the last axis
func (g *Grid4[T]) Depth() int { return g.m }

func (g *Grid4[T]) index(i, j, k, l int) int {
	return ((i*g.n+j)*g.n+k)*g.m + l
}

// At returns the value stored at (i, j, k, l)
func (g *Grid4[T]) At(i, j, k, l int) T {
	return g.data[g.index(i, j, k, l)]
}

// Set stores v at (i, j, k, l)
func (g *Grid4[T]) Set(i, j, k, l int, v T) {
	g.data[g.index(i, j, k, l)] = v
}

// Add increments the value at (i, j, k, l) by delta
func (g *Grid4[T]) Add(i, j, k, l int, delta T) {
	g.data[g.index(i, j, k, l)] += delta
}

// Fill assigns f(i, j, k, l) to every cell
func (g *Grid4[T]) Fill(f func(i, j, k, l int) T) {
	for i := 0; i < g.n; i++ {
		for j := 0; j < g.n; j++ {
			for k := 0; k < g.n; k++ {
				for l := 0; l < g.m; l++ {
					g.data[g.index(i, j, k, l)] = f(i, j, k, l)
				}
			}
		}
	}
}

// Argmax returns the index along the last axis holding the largest value.
// Ties resolve to the lowest index.
func (g *Grid4[T]) Argmax(i, j, k int) int {
	base := g.index(i, j, k, 0)
	best := 0
	for l := 1; l < g.m; l++ {
		if g.data[base+l] > g.data[base+best] {
			best = l
		}
	}
	return best
}

// Data exposes the backing slice in row-major order
func (g *Grid4[T]) Data() []T { return g.data }

// Clone returns a deep copy
func (g *Grid4[T]) Clone() *Grid4[T] {
	data := make([]T, len(g.data))
	copy(data, g.data)
	return &Grid4[T]{n: g.n, m: g.m, data: data}
}
