package tensor

import (
	"fmt"
	"io"
	"strings"

	"github.com/x448/float16"

	"github.com/born-ml/tt/internal/bfloat16"
)

const formatPrefix = "tensor(["

// Format implements fmt.Formatter. The verb, flags, width and precision are
// applied to every element, so "%3v" right-aligns elements in three columns.
func (t Tensor[T, M, H, A]) Format(f fmt.State, verb rune) {
	elem := fmt.FormatString(f, verb)
	if verb == 's' {
		elem = strings.TrimSuffix(elem, "s") + "v"
	}
	writeTensor(f, t, elem)
}

// String renders t in the canonical form, e.g.
//
//	tensor([[1, 2, 3],
//	        [4, 5, 6]])
func (t Tensor[T, M, H, A]) String() string {
	var sb strings.Builder
	writeTensor(&sb, t, "%v")
	return sb.String()
}

// FormatTensor renders t with every element formatted by elem, a fmt verb
// such as "%3v" or "%.2f".
func FormatTensor[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A], elem string) string {
	var sb strings.Builder
	writeTensor(&sb, t, elem)
	return sb.String()
}

func writeTensor[T Element, M Mapping[M], H any, A Accessor[T, H]](w io.Writer, t Tensor[T, M, H, A], elem string) {
	rank := t.Rank()
	if rank == 0 {
		fmt.Fprintf(w, "tensor("+elem+")", promote(*t.ref(nil)))
		return
	}

	fmt.Fprint(w, formatPrefix)
	e := t.Extents()
	idx := make([]Index, rank)

	var recur func(depth int)
	recur = func(depth int) {
		n := e.exts[depth]
		for i := Index(0); i < n; i++ {
			idx[depth] = i
			if depth+1 == rank {
				if i > 0 {
					fmt.Fprint(w, ", ")
				}
				fmt.Fprintf(w, elem, promote(*t.ref(idx)))
				continue
			}
			if i > 0 {
				fmt.Fprint(w, ",\n"+strings.Repeat(" ", len(formatPrefix)+depth))
			}
			fmt.Fprint(w, "[")
			recur(depth + 1)
			fmt.Fprint(w, "]")
		}
	}
	recur(0)

	fmt.Fprint(w, "])")
}

// promote widens half-precision types so that elements honour numeric verbs.
func promote(v any) any {
	switch x := v.(type) {
	case bfloat16.BFloat16:
		return x.Float32()
	case float16.Float16:
		return x.Float32()
	default:
		return v
	}
}
