package libgl

import "time"

// these are only exported when running tests

var ExpandDefines = expandDefines

type UniformTable = uniformTable

var NewUniformTable = newUniformTable

func (t *uniformTable) Put(name string, location int32) {
	t.put(name, location)
}

func (t *uniformTable) Lookup(name string) (location int32, ok bool, cached bool) {
	return t.lookup(name)
}

func (cache *ProgramCache) Write(source string, format uint32, buf []byte) error {
	return cache.write(source, format, buf)
}

func (cache *ProgramCache) SetClock(now func() time.Time) {
	cache.now = now
}
