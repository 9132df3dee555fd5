package pkg

import (
	"sort"

	sets "github.com/deckarep/golang-set"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ResourceKey identifies a kernel object a descriptor refers to.
type ResourceKey struct {
	Kind  TargetKind `json:"kind"`
	Inode uint64     `json:"inode"`
}

type ResourceSet struct {
	internal sets.Set
}

func NewResourceSet() *ResourceSet {
	return &ResourceSet{
		internal: sets.NewSet(),
	}
}

func (set *ResourceSet) Add(key ResourceKey) bool {
	return set.internal.Add(key)
}

func (set *ResourceSet) Contains(key ResourceKey) bool {
	return set.internal.Contains(key)
}

func (set *ResourceSet) Len() int {
	return set.internal.Cardinality()
}

// Slice returns the keys ordered by kind, then inode.
func (set *ResourceSet) Slice() []ResourceKey {
	keys := make([]ResourceKey, 0, set.Len())
	for _, item := range set.internal.ToSlice() {
		keys = append(keys, item.(ResourceKey))
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Inode < keys[j].Inode
	})
	return keys
}

func (set *ResourceSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Slice())
}

func (set *ResourceSet) UnmarshalJSON(data []byte) error {
	var keys []ResourceKey
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if set.internal == nil {
		set.internal = sets.NewSet()
	}
	for _, key := range keys {
		set.internal.Add(key)
	}
	return nil
}
