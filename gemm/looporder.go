// Package gemm generates the memory-access traces of matrix
// multiplication (C += A*B) under the six loop-order permutations, with
// optional blocking.
package gemm

import (
	"errors"
	"fmt"
	"strings"
)

// An axis is one of the three GEMM loop indices.
type axis int

const (
	axisI axis = iota
	axisJ
	axisK
)

// A LoopOrder names the nesting permutation of the i, j, k loops. The
// last letter is the innermost, fastest-varying index.
type LoopOrder int

// The six loop-order permutations.
const (
	IJK LoopOrder = iota
	IKJ
	JIK
	JKI
	KIJ
	KJI
)

// ErrInvalidLoopOrder is returned when parsing an unrecognized loop-order
// name.
var ErrInvalidLoopOrder = errors.New("invalid loop order")

var loopOrderNames = [6]string{"IJK", "IKJ", "JIK", "JKI", "KIJ", "KJI"}

var loopOrderPerms = [6][3]axis{
	{axisI, axisJ, axisK},
	{axisI, axisK, axisJ},
	{axisJ, axisI, axisK},
	{axisJ, axisK, axisI},
	{axisK, axisI, axisJ},
	{axisK, axisJ, axisI},
}

// Orders returns all six loop orders in a fixed order.
func Orders() []LoopOrder {
	return []LoopOrder{IJK, IKJ, JIK, JKI, KIJ, KJI}
}

func (o LoopOrder) String() string {
	if o < IJK || o > KJI {
		return fmt.Sprintf("LoopOrder(%d)", int(o))
	}

	return loopOrderNames[o]
}

// permutation returns the axes in nesting order, outermost first.
func (o LoopOrder) permutation() [3]axis {
	if o < IJK || o > KJI {
		panic("unknown loop order " + o.String())
	}

	return loopOrderPerms[o]
}

// ParseLoopOrder converts a name such as "kji" or "KJI" into a LoopOrder.
func ParseLoopOrder(name string) (LoopOrder, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range loopOrderNames {
		if n == upper {
			return LoopOrder(i), nil
		}
	}

	return IJK, fmt.Errorf("%w: %q", ErrInvalidLoopOrder, name)
}
