package batch

type Set[T comparable] map[T]struct{}

func NewSet[T comparable]() Set[T] {
	return make(Set[T])
}

func (s Set[T]) Add(item T) {
	s[item] = struct{}{}
}

func (s Set[T]) Contains(item T) bool {
	_, exists := s[item]
	return exists
}

// AddIfAbsent reports whether item was newly added.
func (s Set[T]) AddIfAbsent(item T) bool {
	if s.Contains(item) {
		return false
	}
	s.Add(item)
	return true
}

func (s Set[T]) Size() int {
	return len(s)
}
