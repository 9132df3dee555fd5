package pkg

import (
	"strings"

	"github.com/pkg/errors"
)

type TargetKind int

const (
	KindUnresolved TargetKind = iota
	KindFile
	KindPipe
	KindSocket
)

func (k TargetKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindPipe:
		return "pipe"
	case KindSocket:
		return "socket"
	default:
		return "unresolved"
	}
}

func (k TargetKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *TargetKind) UnmarshalText(text []byte) error {
	kind, err := ParseTargetKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

func ParseTargetKind(s string) (TargetKind, error) {
	switch strings.ToLower(s) {
	case "file":
		return KindFile, nil
	case "pipe":
		return KindPipe, nil
	case "socket":
		return KindSocket, nil
	case "unresolved", "":
		return KindUnresolved, nil
	}
	return KindUnresolved, errors.Errorf("unknown descriptor kind %q", s)
}

// Descriptor is one row of the composite table: an open fd and what it points at.
type Descriptor struct {
	Fd        uint64     `json:"fd" yaml:"fd"`
	Kind      TargetKind `json:"kind" yaml:"kind"`
	Inode     uint64     `json:"inode" yaml:"inode"`
	Target    string     `json:"target" yaml:"target"`
	Truncated bool       `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Process owns its descriptors. Inode is the inode of the /proc/<pid> entry
// and doubles as the placeholder identity of descriptors that cannot be resolved.
type Process struct {
	Pid         uint64        `json:"pid" yaml:"pid"`
	Inode       uint64        `json:"inode" yaml:"inode"`
	Command     string        `json:"command,omitempty" yaml:"command,omitempty"`
	Descriptors []*Descriptor `json:"descriptors" yaml:"descriptors"`
}

func (p *Process) Size() int {
	return len(p.Descriptors)
}
