package pkg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Format string

const (
	FormatBinary Format = "binary"
	FormatJSON   Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatBinary, "bin":
		return FormatBinary, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", errors.Errorf("unknown snapshot format %q", s)
}

// FormatFromPath picks JSON for *.json files and the binary layout otherwise.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatBinary
}

// Snapshot is the composite table of one walk. It owns every process and
// descriptor in it.
type Snapshot struct {
	TakenAt   time.Time  `json:"taken_at" yaml:"taken_at"`
	Hostname  string     `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Kernel    string     `json:"kernel,omitempty" yaml:"kernel,omitempty"`
	Processes []*Process `json:"processes" yaml:"processes"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Processes: []*Process{},
	}
}

func TakeSnapshot(ctx context.Context, cfg *Config) (*Snapshot, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	snapshot := NewSnapshot()
	snapshot.TakenAt = time.Now()
	log := logrus.WithField("root", cfg.ProcRoot)
	log.Infof("take snapshot at %s", snapshot.TakenAt.Format(time.RFC3339))

	processes, err := ScanProcesses(cfg.ScanOptions(uint32(os.Getuid())))
	if err != nil {
		return nil, errors.Wrap(err, "scan processes")
	}
	if cfg.Metadata {
		FillCommands(ctx, processes)
		snapshot.Hostname, snapshot.Kernel = hostInfo(ctx)
	}
	if err := BuildComposite(ctx, cfg.ProcRoot, processes, cfg.BuildOptions()); err != nil {
		return nil, errors.Wrap(err, "build composite table")
	}
	snapshot.Processes = processes

	log.WithField("processes", len(processes)).
		WithField("descriptors", snapshot.DescriptorCount()).
		Infoln("snapshot taken")
	return snapshot, nil
}

func (s *Snapshot) DescriptorCount() int {
	total := 0
	for _, p := range s.Processes {
		total += p.Size()
	}
	return total
}

func (s *Snapshot) Find(pid uint64) *Process {
	for _, p := range s.Processes {
		if p.Pid == pid {
			return p
		}
	}
	return nil
}

func (s *Snapshot) Dump(w io.Writer, format Format, opts ...EncodeOption) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(s), "encode json snapshot")
	case FormatBinary, "":
		return Encode(w, s.Processes, opts...)
	}
	return errors.Errorf("unknown snapshot format %q", format)
}

// DumpFile writes the snapshot to path, generating a timestamped name when
// path is empty. It returns the path written.
func (s *Snapshot) DumpFile(path string, format Format, opts ...EncodeOption) (string, error) {
	if path == "" {
		now := time.Now()
		ext := "bin"
		if format == FormatJSON {
			ext = "json"
		}
		path = fmt.Sprintf("snapshot-%s-%02d:%02d:%02d.%s", now.Format("2006-01-02"), now.Hour(), now.Minute(), now.Second(), ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create snapshot file")
	}
	defer f.Close()

	if err := s.Dump(f, format, opts...); err != nil {
		return "", err
	}
	if err := f.Sync(); err != nil {
		return "", errors.Wrap(err, "sync snapshot file")
	}

	entry := logrus.WithField("path", path).WithField("format", format)
	if info, err := f.Stat(); err == nil {
		entry = entry.WithField("size", humanize.Bytes(uint64(info.Size())))
	}
	entry.Infoln("snapshot written")
	return path, nil
}

func Load(r io.Reader, format Format) (*Snapshot, error) {
	switch format {
	case FormatJSON:
		snapshot := NewSnapshot()
		if err := json.NewDecoder(r).Decode(snapshot); err != nil {
			return nil, errors.Wrap(err, "decode json snapshot")
		}
		return snapshot, nil
	case FormatBinary, "":
		processes, err := Decode(r)
		if err != nil {
			return nil, err
		}
		snapshot := NewSnapshot()
		snapshot.Processes = processes
		return snapshot, nil
	}
	return nil, errors.Errorf("unknown snapshot format %q", format)
}

func LoadFile(path string, format Format) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot file")
	}
	defer f.Close()

	snapshot, err := Load(bufio.NewReader(f), format)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	if format != FormatJSON {
		if info, err := f.Stat(); err == nil {
			snapshot.TakenAt = info.ModTime()
		}
	}
	logrus.WithField("path", path).
		WithField("processes", len(snapshot.Processes)).
		Infoln("snapshot loaded")
	return snapshot, nil
}
