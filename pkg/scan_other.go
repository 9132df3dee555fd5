//go:build !linux

package pkg

func OpenDir(path string) (*DirReader, error) {
	return nil, &EnumerationError{Path: path, Err: ErrUnsupportedPlatform}
}

func ScanProcesses(opts ScanOptions) ([]*Process, error) {
	return nil, ErrUnsupportedPlatform
}

func ResolveDescriptor(processInode uint64, name, dirPath string, bufSize int) *Descriptor {
	return &Descriptor{Kind: KindUnresolved, Inode: processInode}
}

func AttachDescriptors(procRoot string, p *Process, bufSize int) error {
	return &UnreadableProcessError{Pid: p.Pid, Err: ErrUnsupportedPlatform}
}

func readDescriptors(procRoot string, p *Process, bufSize int) ([]*Descriptor, error) {
	return nil, &UnreadableProcessError{Pid: p.Pid, Err: ErrUnsupportedPlatform}
}

func lookupOpenFilesLimit(procRoot string, pid uint64) (uint64, bool) {
	return 0, false
}
