package collections

import "sync"

// SafeStringSlice is a mutex guarded string slice. It backs the registry of
// staging directories awaiting best effort removal, which may be appended to
// from concurrent deploy invocations in the same process.
type SafeStringSlice struct {
	sync.Mutex
	slice []string
}

func (ss *SafeStringSlice) GetCopy() []string {
	ss.Lock()
	defer ss.Unlock()
	cpy := make([]string, len(ss.slice))
	copy(cpy, ss.slice)
	return cpy
}

func (ss *SafeStringSlice) Append(val string) {
	ss.Lock()
	defer ss.Unlock()
	ss.slice = append(ss.slice, val)
}
