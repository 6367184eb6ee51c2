package local

import (
	"hash/maphash"
	"sync"
)

const lockStripes = 64

var lockSeed = maphash.MakeSeed()

// nameLocks orders commits and reads per object name. Names share a fixed set
// of stripes, so memory stays constant however many objects exist; two names
// on one stripe only wait on each other for the rename and row update.
type nameLocks [lockStripes]sync.RWMutex

func (l *nameLocks) lockFor(bucket, name string) *sync.RWMutex {
	var h maphash.Hash
	h.SetSeed(lockSeed)
	_, _ = h.WriteString(bucket)
	_ = h.WriteByte('/')
	_, _ = h.WriteString(name)
	return &l[h.Sum64()%lockStripes]
}
