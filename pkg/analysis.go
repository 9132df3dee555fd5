package pkg

import (
	"strings"
)

// FilterOption narrows a snapshot after the fact, e.g. when reloading a
// saved composite table. Empty fields match everything.
type FilterOption struct {
	Pid   []uint64     `json:"pid" yaml:"pid"`
	Cmd   []string     `json:"cmd" yaml:"cmd"`
	Kinds []TargetKind `json:"kinds" yaml:"kinds"`
}

func NewFilterOption() *FilterOption {
	return &FilterOption{
		Pid:   []uint64{},
		Cmd:   []string{},
		Kinds: []TargetKind{},
	}
}

func (o *FilterOption) Empty() bool {
	return len(o.Pid) == 0 && len(o.Cmd) == 0 && len(o.Kinds) == 0
}

func (o *FilterOption) matchProcess(p *Process) bool {
	if len(o.Pid) == 0 && len(o.Cmd) == 0 {
		return true
	}
	for _, pid := range o.Pid {
		if p.Pid == pid {
			return true
		}
	}
	for _, name := range o.Cmd {
		if name != "" && strings.Contains(p.Command, name) {
			return true
		}
	}
	return false
}

func (o *FilterOption) matchKind(kind TargetKind) bool {
	if len(o.Kinds) == 0 {
		return true
	}
	for _, k := range o.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// FilterSnapshot returns a new snapshot holding the matching processes. The
// input is left untouched; descriptor records are shared, not copied.
func FilterSnapshot(option *FilterOption, snapshot *Snapshot) *Snapshot {
	if option == nil || option.Empty() {
		return snapshot
	}
	filtered := NewSnapshot()
	filtered.TakenAt = snapshot.TakenAt
	filtered.Hostname = snapshot.Hostname
	filtered.Kernel = snapshot.Kernel

	for _, p := range snapshot.Processes {
		if !option.matchProcess(p) {
			continue
		}
		np := &Process{
			Pid:         p.Pid,
			Inode:       p.Inode,
			Command:     p.Command,
			Descriptors: []*Descriptor{},
		}
		for _, d := range p.Descriptors {
			if option.matchKind(d.Kind) {
				np.Descriptors = append(np.Descriptors, d)
			}
		}
		filtered.Processes = append(filtered.Processes, np)
	}
	return filtered
}
