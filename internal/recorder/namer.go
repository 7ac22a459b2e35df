package recorder

import (
	"fmt"
	"time"
)

// NameLayout names recordings after their local start time, to the second.
const NameLayout = "20060102-150405"

// Namer derives recording names from start times. Names already issued
// during the run, or reported taken by exists, get a numeric suffix.
type Namer struct {
	issued map[string]struct{}
	exists func(name string) bool
}

func NewNamer(exists func(name string) bool) *Namer {
	return &Namer{
		issued: make(map[string]struct{}),
		exists: exists,
	}
}

func (n *Namer) Next(t time.Time) string {
	base := t.Local().Format(NameLayout)

	name := base
	for i := 2; n.taken(name); i++ {
		name = fmt.Sprintf("%s-%d", base, i)
	}
	n.issued[name] = struct{}{}
	return name
}

func (n *Namer) taken(name string) bool {
	if _, ok := n.issued[name]; ok {
		return true
	}
	return n.exists != nil && n.exists(name)
}
