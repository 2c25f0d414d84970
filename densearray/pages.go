package densearray

import "unsafe"

var (
	nodeBytes       = int64(unsafe.Sizeof(node{}))
	pageHeaderBytes = int64(unsafe.Sizeof(page{}))
)

// page holds the link nodes minted by one growth step. Pages are chained
// newest first and are only ever released all together.
type page struct {
	nodes []node
	bytes int64
	next  *page
}

type pages struct {
	head  *page
	count int
	bytes int64
}

func pageCost(n int) int64 {
	return pageHeaderBytes + int64(n)*nodeBytes
}

func (p *pages) allocate(n int) []node {
	pg := &page{
		nodes: make([]node, n),
		bytes: pageCost(n),
		next:  p.head,
	}
	p.head = pg
	p.count++
	p.bytes += pg.bytes
	return pg.nodes
}

// release drops every page and returns how many bytes they accounted for.
func (p *pages) release() int64 {
	released := p.bytes
	for p.head != nil {
		pg := p.head
		p.head = pg.next
		pg.nodes = nil
		pg.next = nil
	}
	p.count = 0
	p.bytes = 0
	return released
}
