package table

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix3 flattens g into an (n*n) x n matrix. Row i*n+j holds cells (i, j, *).
func Matrix3[T Number](g *Grid3[T]) *mat.Dense {
	data := make([]float64, len(g.data))
	for i, v := range g.data {
		data[i] = float64(v)
	}
	return mat.NewDense(g.n*g.n, g.n, data)
}

// Grid3FromMatrix is the inverse of Matrix3
func Grid3FromMatrix[T Number](m mat.Matrix) (*Grid3[T], error) {
	r, c := m.Dims()
	if c <= 0 || r != c*c {
		return nil, fmt.Errorf("%w: %dx%d is not (n*n)xn", ErrShapeMismatch, r, c)
	}
	g, err := NewGrid3[T](c)
	if err != nil {
		return nil, err
	}
	for row := 0; row < r; row++ {
		for col := 0; col < c; col++ {
			g.data[row*c+col] = T(m.At(row, col))
		}
	}
	return g, nil
}

// Matrix4 flattens g into an (n*n*n) x m matrix
func Matrix4[T Number](g *Grid4[T]) *mat.Dense {
	data := make([]float64, len(g.data))
	for i, v := range g.data {
		data[i] = float64(v)
	}
	return mat.NewDense(g.n*g.n*g.n, g.m, data)
}

// Grid4FromMatrix is the inverse of Matrix4
func Grid4FromMatrix[T Number](m mat.Matrix) (*Grid4[T], error) {
	r, c := m.Dims()
	n := cubeRoot(r)
	if c <= 0 || n <= 0 || n*n*n != r {
		return nil, fmt.Errorf("%w: %dx%d is not (n*n*n)xm", ErrShapeMismatch, r, c)
	}
	g, err := NewGrid4[T](n, c)
	if err != nil {
		return nil, err
	}
	for row := 0; row < r; row++ {
		for col := 0; col < c; col++ {
			g.data[row*c+col] = T(m.At(row, col))
		}
	}
	return g, nil
}

func cubeRoot(x int) int {
	n := 0
	for (n+1)*(n+1)*(n+1) <= x {
		n++
	}
	return n
}
