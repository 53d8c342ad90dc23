// avmat is a CLI utility for cleaning up avatar materials in glTF scenes.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/flywave/go-avmat"
	"github.com/flywave/go-avmat/internal/config"
	"github.com/flywave/go-avmat/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "combine", "one-tex", "one-tex-only", "standardize":
		err = cmdOperator(command, args)
	case "run":
		err = cmdRun(args)
	case "groups":
		err = cmdGroups(args)
	case "info":
		err = cmdInfo(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	var ops strings.Builder
	for _, op := range avmat.Operators() {
		fmt.Fprintf(&ops, "  %-34s %s\n", op.Name()+" <in> [out]", op.Desc())
	}
	fmt.Printf(`avmat - avatar material utility

Usage:
  avmat <command> [options] <in> [out]

Commands:
%s  %-34s %s
  %-34s %s
  %-34s %s

Options:
  -config <file>     Config file (default ./avmat.yaml)
  -out <file>        Output file (.gltf or .glb)
  -debug             Enable debug logging
  -log-file <file>   Also write logs to this file
  -cpu-profile       Record ./cpu.pprof profile

Examples:
  avmat combine avatar.glb
  avmat run -config avmat.yaml avatar.gltf clean.glb
  avmat groups avatar.glb
`, ops.String(),
		"run <in> [out]", "Run the operators listed in the config",
		"groups <in>", "Print material fingerprint groups",
		"info <in>", "Show objects, slots and images")
}

// session is the state shared by one command invocation.
type session struct {
	cfg   *config.Config
	flags *flag.FlagSet
	stop  func()
}

func (s *session) close() {
	if s.stop != nil {
		s.stop()
	}
}

// setup parses args, loads the config and starts logging.
func setup(command string, args []string) (*session, error) {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	var fl config.Flags
	fl.Register(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		return nil, fmt.Errorf("usage: avmat %s [options] <in> [out]", command)
	}

	cfg, err := config.Load(&fl)
	if err != nil {
		return nil, err
	}
	if fs.NArg() > 1 && fl.Output == "" {
		cfg.Output.Path = fs.Arg(1)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.FileConfig{
			Path:       cfg.Logging.LogFile,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		}
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, os.Stderr); err != nil {
		return nil, err
	}

	sess := &session{cfg: cfg, flags: fs}
	// cpu profiling for development: github.com/pkg/profile
	if fl.CPUProfile {
		sess.stop = profile.Start(profile.ProfilePath("."), profile.Quiet).Stop
	}
	return sess, nil
}

func (s *session) load() (*avmat.Scene, error) {
	in := s.flags.Arg(0)
	logger.Log.Debug("loading scene", zap.String("path", in))
	scene, err := avmat.LoadScene(in)
	if err != nil {
		return nil, err
	}
	if s.cfg.Images.Probe {
		s.probe(scene)
	}
	return scene, nil
}

func (s *session) imageRoot() string {
	if s.cfg.Images.Root != "" {
		return s.cfg.Images.Root
	}
	return filepath.Dir(s.flags.Arg(0))
}

func (s *session) probe(scene *avmat.Scene) []avmat.ImageProbe {
	probes := avmat.ProbeImages(scene, s.imageRoot())
	for _, p := range probes {
		if p.Err != nil {
			logger.Log.Warn("image not readable", zap.String("image", p.Image.Name), zap.Error(p.Err))
		}
	}
	return probes
}

func (s *session) save(scene *avmat.Scene) error {
	out := s.cfg.OutputPath(s.flags.Arg(0))
	logger.Log.Debug("saving scene", zap.String("path", out))
	if err := avmat.SaveScene(scene, out); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}

func runOperators(scene *avmat.Scene, names []string) error {
	env := &avmat.Env{Scene: scene, Log: logger.Log}
	for _, name := range names {
		op, ok := avmat.FindOperator(name)
		if !ok {
			return fmt.Errorf("unknown operator %q", name)
		}
		rep, err := avmat.Run(op, env)
		if err != nil {
			return err
		}
		fmt.Println(rep.Message)
	}
	return nil
}

func cmdOperator(name string, args []string) error {
	sess, err := setup(name, args)
	if err != nil {
		return err
	}
	defer sess.close()

	scene, err := sess.load()
	if err != nil {
		return err
	}
	if err := runOperators(scene, []string{name}); err != nil {
		return err
	}
	return sess.save(scene)
}

func cmdRun(args []string) error {
	sess, err := setup("run", args)
	if err != nil {
		return err
	}
	defer sess.close()

	if len(sess.cfg.Operators) == 0 {
		return fmt.Errorf("no operators configured")
	}
	scene, err := sess.load()
	if err != nil {
		return err
	}
	if err := runOperators(scene, sess.cfg.Operators); err != nil {
		return err
	}
	return sess.save(scene)
}

func cmdGroups(args []string) error {
	sess, err := setup("groups", args)
	if err != nil {
		return err
	}
	defer sess.close()

	scene, err := sess.load()
	if err != nil {
		return err
	}

	groups := avmat.BuildGroups(scene)
	fmt.Printf("Scene:     %s\n", sess.flags.Arg(0))
	fmt.Printf("Materials: %d\n", len(scene.Materials))
	fmt.Printf("Groups:    %d (%d mergeable)\n", groups.Len(), len(groups.Mergeable()))
	fmt.Println()
	for i, g := range groups.List() {
		names := make([]string, len(g.Members))
		for j, m := range g.Members {
			names[j] = m.Name
		}
		mark := " "
		if g.Mergeable() {
			mark = "*"
		}
		fmt.Printf("%s %3d  %s\n", mark, i, strings.Join(names, ", "))
		if logger.Log.Core().Enabled(zap.DebugLevel) {
			fmt.Printf("        %q\n", g.Key)
		}
	}
	return nil
}

func cmdInfo(args []string) error {
	sess, err := setup("info", args)
	if err != nil {
		return err
	}
	defer sess.close()

	scene, err := sess.load()
	if err != nil {
		return err
	}

	box := scene.ComputeBBox()
	fmt.Printf("Scene:     %s\n", sess.flags.Arg(0))
	fmt.Printf("Objects:   %d\n", len(scene.Objects))
	fmt.Printf("Materials: %d\n", len(scene.Materials))
	fmt.Printf("Bounds:    [%.3f %.3f %.3f] - [%.3f %.3f %.3f]\n",
		box.Min[0], box.Min[1], box.Min[2], box.Max[0], box.Max[1], box.Max[2])
	fmt.Println()

	for _, o := range scene.Objects {
		fmt.Printf("%-10s %s\n", o.Type, o.Name)
		if !o.IsMesh() {
			continue
		}
		counts := o.Data.FaceCount()
		for i, slot := range o.Data.Slots {
			fmt.Printf("    slot %-3d %-30s %d faces\n", i, slot.Name(), counts[i])
		}
	}

	probes := sess.probe(scene)
	if len(probes) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println("Images:")
	for _, p := range probes {
		if p.Err != nil {
			fmt.Printf("  %-30s error: %v\n", p.Image.Name, p.Err)
			continue
		}
		fmt.Printf("  %-30s %-5s %dx%d\n", p.Image.Name, p.Image.Format, p.Image.Size[0], p.Image.Size[1])
	}
	return nil
}
