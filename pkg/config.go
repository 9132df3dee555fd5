package pkg

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	BinaryOutName = "compositeTable.bin"
	TxtOutName    = "compositeTable.txt"

	// NoThreshold disables the offending-process report.
	NoThreshold = -1
)

type Config struct {
	ProcRoot string `json:"proc_root" yaml:"proc_root"`
	// Pid limits the walk to one process; zero walks every process.
	Pid      uint64 `json:"pid" yaml:"pid"`
	AllUsers bool   `json:"all_users" yaml:"all_users"`
	// Metadata adds command names and host details from gopsutil.
	Metadata bool `json:"metadata" yaml:"metadata"`

	TargetBufferSize int           `json:"target_buffer_size" yaml:"target_buffer_size"`
	Workers          int           `json:"workers" yaml:"workers"`
	ProcessTimeout   time.Duration `json:"process_timeout" yaml:"process_timeout"`
	FailOnUnreadable bool          `json:"fail_on_unreadable" yaml:"fail_on_unreadable"`

	PerProcess bool `json:"per_process" yaml:"per_process"`
	SystemWide bool `json:"system_wide" yaml:"system_wide"`
	Vnodes     bool `json:"vnodes" yaml:"vnodes"`
	Composite  bool `json:"composite" yaml:"composite"`
	Threshold  int  `json:"threshold" yaml:"threshold"`

	OutputTxt       string `json:"output_txt" yaml:"output_txt"`
	OutputBinary    string `json:"output_binary" yaml:"output_binary"`
	VersionedBinary bool   `json:"versioned_binary" yaml:"versioned_binary"`
}

func NewConfig() *Config {
	return &Config{
		ProcRoot:         DefaultProcRoot,
		Metadata:         true,
		TargetBufferSize: DefaultTargetBufferSize,
		Workers:          1,
		Threshold:        NoThreshold,
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	c := NewConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.TargetBufferSize <= 0 {
		return errors.Errorf("target_buffer_size must be positive, got %d", c.TargetBufferSize)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ProcessTimeout < 0 {
		return errors.Errorf("process_timeout must not be negative, got %s", c.ProcessTimeout)
	}
	if c.Threshold < NoThreshold {
		return errors.Errorf("threshold must not be negative, got %d", c.Threshold)
	}
	return nil
}

// AnyView reports whether a table view was selected explicitly.
func (c *Config) AnyView() bool {
	return c.PerProcess || c.SystemWide || c.Vnodes || c.Composite
}

func (c *Config) WriteTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

func (c *Config) ScanOptions(uid uint32) ScanOptions {
	return ScanOptions{
		ProcRoot:  c.ProcRoot,
		FilterPid: c.Pid,
		UID:       uid,
		AllUsers:  c.AllUsers,
	}
}

func (c *Config) BuildOptions() BuildOptions {
	return BuildOptions{
		Workers:          c.Workers,
		ProcessTimeout:   c.ProcessTimeout,
		FailOnUnreadable: c.FailOnUnreadable,
		TargetBufferSize: c.TargetBufferSize,
	}
}
