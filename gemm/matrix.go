package gemm

import (
	"github.com/tracelab/gemmcache/mem/addressing"
)

// A MatrixID identifies one of the three GEMM operands.
type MatrixID int

// The three operands of C += A*B.
const (
	MatrixA MatrixID = iota
	MatrixB
	MatrixC
)

func (id MatrixID) String() string {
	switch id {
	case MatrixA:
		return "A"
	case MatrixB:
		return "B"
	case MatrixC:
		return "C"
	default:
		return "?"
	}
}

// Base addresses of the operands, matching the reference layout.
const (
	BaseA uint64 = 0x10000
	BaseB uint64 = 0x20000
	BaseC uint64 = 0x30000
)

// A Matrix describes one square, row-major operand.
type Matrix struct {
	ID       MatrixID
	Dim      int
	ElemSize uint64
	Base     uint64
}

// Address returns the byte address of element (row, col).
func (m Matrix) Address(row, col int) (uint64, error) {
	return addressing.CellAddress(m.Base, row, col, m.Dim, m.ElemSize)
}

// mustAddress is Address for indices already known to be in range.
func (m Matrix) mustAddress(row, col int) uint64 {
	addr, err := m.Address(row, col)
	if err != nil {
		panic(err)
	}

	return addr
}

// DefaultMatrices returns the A, B, C descriptors at the reference base
// addresses.
func DefaultMatrices(n int, elemSize uint64) [3]Matrix {
	return [3]Matrix{
		{ID: MatrixA, Dim: n, ElemSize: elemSize, Base: BaseA},
		{ID: MatrixB, Dim: n, ElemSize: elemSize, Base: BaseB},
		{ID: MatrixC, Dim: n, ElemSize: elemSize, Base: BaseC},
	}
}
