package densearray

// node is a free-list entry when it carries a (virtual, real) pair and a
// spare entry when both are -1.
type node struct {
	virtual int
	real    int
	next    *node
}

// stack is a singly linked LIFO of nodes. tail lets growth hang new free
// entries below the existing ones.
type stack struct {
	top  *node
	tail *node
	len  int
}

func (s *stack) push(n *node) {
	n.next = s.top
	s.top = n
	if s.tail == nil {
		s.tail = n
	}
	s.len++
}

func (s *stack) pop() *node {
	n := s.top
	if n == nil {
		return nil
	}
	s.top = n.next
	if s.top == nil {
		s.tail = nil
	}
	n.next = nil
	s.len--
	return n
}

// appendChain links first..last (already chained) under the current bottom.
func (s *stack) appendChain(first, last *node, n int) {
	if s.tail == nil {
		s.top = first
	} else {
		s.tail.next = first
	}
	s.tail = last
	s.len += n
}

func (s *stack) reset() {
	s.top = nil
	s.tail = nil
	s.len = 0
}
