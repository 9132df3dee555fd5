package pkg

const DefaultProcRoot = "/proc"

type ScanOptions struct {
	ProcRoot string
	// FilterPid restricts the scan to one pid; zero means every process.
	FilterPid uint64
	UID       uint32
	AllUsers  bool

	// ownerOf replaces the owner lookup in tests.
	ownerOf func(dirfd int, name string) (uint32, error)
}
