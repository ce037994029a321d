package parser

// Intersect returns the ids present in both sorted inputs.
func Intersect(a, b []uint32) []uint32 {
	out := make([]uint32, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// Union returns the sorted, deduplicated ids present in either input.
func Union(a, b []uint32) []uint32 {
	out := make([]uint32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// Complement returns every id in [0, total) absent from the sorted input.
func Complement(a []uint32, total uint64) []uint32 {
	size := total
	if uint64(len(a)) < size {
		size -= uint64(len(a))
	} else {
		size = 0
	}
	out := make([]uint32, 0, size)
	k := 0
	for id := uint64(0); id < total; id++ {
		for k < len(a) && uint64(a[k]) < id {
			k++
		}
		if k < len(a) && uint64(a[k]) == id {
			k++
			continue
		}
		out = append(out, uint32(id))
	}
	return out
}
