// Package list implements the simple singly-linked ordered sequence of
// integers spec.md §4.A calls for, used by src/proc to track child pids.
// Ported from the teaching kernel's linkedlist.c: same shape (head pointer,
// size counter, tail-append, first-occurrence remove), Go idiom instead of
// kmalloc/kfree.
package list

/// node_t is one link in the list.
type node_t struct {
	data int
	next *node_t
}

/// IntList_t is an ordered, duplicate-permitting sequence of ints.
type IntList_t struct {
	head *node_t
	size int
}

/// Create returns an empty list.
func Create() *IntList_t {
	return &IntList_t{}
}

/// Contains reports whether v appears anywhere in the list.
func (l *IntList_t) Contains(v int) bool {
	for cur := l.head; cur != nil; cur = cur.next {
		if cur.data == v {
			return true
		}
	}
	return false
}

/// Add appends v at the tail. Duplicates are permitted.
func (l *IntList_t) Add(v int) {
	n := &node_t{data: v}
	if l.head == nil {
		l.head = n
	} else {
		cur := l.head
		for cur.next != nil {
			cur = cur.next
		}
		cur.next = n
	}
	l.size++
}

/// Remove deletes the first occurrence of v and reports whether it was
/// found.
func (l *IntList_t) Remove(v int) bool {
	if l.head == nil {
		return false
	}
	if l.head.data == v {
		l.head = l.head.next
		l.size--
		return true
	}
	for cur := l.head; cur.next != nil; cur = cur.next {
		if cur.next.data == v {
			cur.next = cur.next.next
			l.size--
			return true
		}
	}
	return false
}

/// Empty reports whether the list has no elements.
func (l *IntList_t) Empty() bool {
	return l.size == 0
}

/// Len returns the number of elements currently in the list.
func (l *IntList_t) Len() int {
	return l.size
}

/// Each calls f for every element in insertion order.
func (l *IntList_t) Each(f func(int)) {
	for cur := l.head; cur != nil; cur = cur.next {
		f(cur.data)
	}
}

/// Slice returns a copy of the list contents in insertion order.
func (l *IntList_t) Slice() []int {
	ret := make([]int, 0, l.size)
	l.Each(func(v int) { ret = append(ret, v) })
	return ret
}

/// Destroy releases the list. With Go's GC this just drops the head
/// pointer; kept as a named operation to match spec.md §4.A's lifecycle.
func (l *IntList_t) Destroy() {
	l.head = nil
	l.size = 0
}
