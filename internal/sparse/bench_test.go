package sparse_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/sells-group/patent-cli/internal/sparse"
)

// benchShapes are firm×patent incidence shapes at roughly 2% fill.
var benchShapes = [][2]int{{50, 500}, {200, 2000}}

var sinkM *sparse.Matrix[int]

func incidence(b *testing.B, rows, cols int, seed uint64) *sparse.Matrix[int] {
	b.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	d := make([][]int, rows)
	for i := range d {
		d[i] = make([]int, cols)
		for j := range d[i] {
			if rng.IntN(50) == 0 {
				d[i][j] = 1
			}
		}
	}
	m, err := sparse.FromDense(d)
	if err != nil {
		b.Fatal(err)
	}
	return m
}

func BenchmarkTranspose(b *testing.B) {
	b.ReportAllocs()
	for _, s := range benchShapes {
		b.Run(fmt.Sprintf("%dx%d", s[0], s[1]), func(b *testing.B) {
			m := incidence(b, s[0], s[1], 1337)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				sinkM = m.Transpose()
			}
		})
	}
}

func BenchmarkCoOccurrence(b *testing.B) {
	b.ReportAllocs()
	for _, s := range benchShapes {
		b.Run(fmt.Sprintf("%dx%d", s[0], s[1]), func(b *testing.B) {
			m := incidence(b, s[0], s[1], 4242)
			mt := m.Transpose()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				r, err := m.Multiply(mt)
				if err != nil {
					b.Fatal(err)
				}
				sinkM = r
			}
		})
	}
}
