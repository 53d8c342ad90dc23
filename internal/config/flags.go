package config

import "flag"

// Flags holds the command-line overrides shared by every avmat command.
type Flags struct {
	Config     string
	Output     string
	Debug      bool
	LogFile    string
	CPUProfile bool
}

// Register binds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.StringVar(&f.Output, "out", "", "Output file (.gltf or .glb)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
	fs.BoolVar(&f.CPUProfile, "cpu-profile", false, "Record ./cpu.pprof profile")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Output != "" {
		cfg.Output.Path = f.Output
	}
}
