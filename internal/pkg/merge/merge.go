// Package merge combines fragment sequences contributed by independent editors.
package merge

// Identifiable - фрагмент со стабильным id
type Identifiable interface {
	FragmentID() string
}

// Mode - режим слияния
type Mode int

const (
	// ModeMerge объединяет существующие и новые фрагменты, новые побеждают при совпадении id
	ModeMerge Mode = iota
	// ModeReplace возвращает только новые фрагменты
	ModeReplace
)

// ByID объединяет existing и incoming.
// Порядок - по первому появлению id, значение - от последнего появления.
// Повторное слияние с теми же incoming ничего не меняет.
func ByID[T Identifiable](existing, incoming []T, mode Mode) []T {
	if mode == ModeReplace {
		out := make([]T, len(incoming))
		copy(out, incoming)
		return out
	}

	out := make([]T, 0, len(existing)+len(incoming))
	pos := make(map[string]int, len(existing)+len(incoming))

	for _, group := range [][]T{existing, incoming} {
		for _, item := range group {
			id := item.FragmentID()
			if i, ok := pos[id]; ok {
				out[i] = item
				continue
			}
			pos[id] = len(out)
			out = append(out, item)
		}
	}
	return out
}
