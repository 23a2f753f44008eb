package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/danmuck/podwire/internal/config"
	"github.com/danmuck/podwire/internal/diag"
	"github.com/danmuck/podwire/internal/logging"
	"github.com/danmuck/podwire/internal/pod"
	"github.com/danmuck/podwire/internal/pod/podio"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: podctl [-config FILE] <command> [flags]

commands:
  demo         -out FILE [-framed]   write the demo struct and Props object
  dump         -in FILE [-framed]    validate and print every value
  find         -in FILE -key KEY     print property KEY of the first object
  init-config  -out FILE [-force]    write a config template
`

func main() {
	logging.ConfigureRuntime()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("podctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "", "podctl TOML config")
	if err := global.Parse(args); err != nil {
		return 2
	}

	cfg := config.DefaultPodctlConfig()
	if *configPath != "" {
		loaded, err := config.LoadPodctlConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "podctl: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if os.Getenv(logging.EnvLogLevel) == "" {
		if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok {
			zerolog.SetGlobalLevel(lvl)
		}
	}

	rest := global.Args()
	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch rest[0] {
	case "demo":
		err = runDemo(cfg, rest[1:], stdout, stderr)
	case "dump":
		err = runDump(cfg, rest[1:], stdout, stderr)
	case "find":
		err = runFind(cfg, rest[1:], stdout, stderr)
	case "init-config":
		err = runInitConfig(rest[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "podctl: unknown command %q\n", rest[0])
		fmt.Fprint(stderr, usage)
		return 2
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if errors.Is(err, errUsage) {
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "podctl %s: %v\n", rest[0], err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

func newFlags(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("podctl "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

// buildDemo encodes the reference values: Struct{Int 5, Float 3.1415} and
// a Props object carrying device and frequency.
func buildDemo(maxBytes int) (*pod.Builder, error) {
	b := pod.NewGrowingBuilder(256, maxBytes)
	if _, err := b.AddStruct(pod.Int(5), pod.Float(3.1415)); err != nil {
		return nil, err
	}
	if _, err := b.AddObject(pod.ObjectProps, pod.ParamProps,
		pod.Prop(pod.PropDevice, pod.String("hw:0")),
		pod.Prop(pod.PropFrequency, pod.Float(440.0)),
	); err != nil {
		return nil, err
	}
	if _, err := b.Finish(); err != nil {
		return nil, err
	}
	return b, nil
}

func runDemo(cfg config.PodctlConfig, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("demo", stderr)
	out := fs.String("out", "buffer.dump", "output file")
	framed := fs.Bool("framed", cfg.Framed, "write a framed stream instead of a raw dump")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	b, err := buildDemo(cfg.MaxBufferBytes)
	if err != nil {
		return err
	}
	if *framed {
		var buf bytes.Buffer
		w := podio.NewWriter(&buf, podio.Limits{MaxPayloadBytes: cfg.MaxPayloadBytes})
		if err := w.WriteBuilder(b, podio.FlagEndOfStream); err != nil {
			return err
		}
		if err := podio.SaveDump(*out, buf.Bytes()); err != nil {
			return err
		}
	} else if err := podio.SaveDump(*out, b.Bytes()); err != nil {
		return err
	}
	log.Info().Str("path", *out).Bool("framed", *framed).Int("bytes", b.Len()).Msg("demo written")
	fmt.Fprintf(stdout, "wrote %d bytes to %s\n", b.Len(), *out)
	return nil
}

// loadPayloads returns every pod buffer stored in path.
func loadPayloads(cfg config.PodctlConfig, path string, framed bool) ([][]byte, error) {
	sink := diag.Multi{diag.NewLogSink(), diag.NewMetricsSink()}
	if !framed {
		data, err := podio.LoadDump(path, int64(cfg.MaxPayloadBytes))
		if err != nil {
			return nil, err
		}
		if off, err := podio.Validate(data); err != nil {
			sink.Malformed(path, off, err)
			return [][]byte{data}, fmt.Errorf("offset %d: %w", off, err)
		}
		return [][]byte{data}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := podio.NewReader(f, podio.Limits{MaxPayloadBytes: cfg.MaxPayloadBytes}, sink, path)
	var out [][]byte
	for {
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			if frame.Payload != nil {
				out = append(out, frame.Payload)
			}
			return out, err
		}
		out = append(out, frame.Payload)
		if frame.Header.Flags&podio.FlagEndOfStream != 0 {
			return out, nil
		}
	}
}

func runDump(cfg config.PodctlConfig, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("dump", stderr)
	in := fs.String("in", "buffer.dump", "input file")
	framed := fs.Bool("framed", cfg.Framed, "read a framed stream instead of a raw dump")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	payloads, loadErr := loadPayloads(cfg, *in, *framed)
	for i, data := range payloads {
		if len(payloads) > 1 {
			fmt.Fprintf(stdout, "# frame %d\n", i)
		}
		if cfg.DumpHex {
			fmt.Fprint(stdout, hex.Dump(data))
		}
		if err := pod.Dump(stdout, data); err != nil && loadErr == nil {
			loadErr = err
		}
	}
	return loadErr
}

// parseKey accepts a numeric key (decimal or 0x hex) or a property name.
func parseKey(raw string) (uint32, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseUint(raw, 0, 32); err == nil {
		return uint32(n), nil
	}
	if key, ok := pod.PropKey(raw); ok {
		return key, nil
	}
	return 0, fmt.Errorf("unknown property key %q", raw)
}

func runFind(cfg config.PodctlConfig, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("find", stderr)
	in := fs.String("in", "buffer.dump", "input file")
	keyRaw := fs.String("key", "", "property key, number or name")
	framed := fs.Bool("framed", cfg.Framed, "read a framed stream instead of a raw dump")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *keyRaw == "" {
		fmt.Fprintln(stderr, "podctl find: -key is required")
		return errUsage
	}
	key, err := parseKey(*keyRaw)
	if err != nil {
		return err
	}

	payloads, err := loadPayloads(cfg, *in, *framed)
	if err != nil {
		return err
	}
	for _, data := range payloads {
		for v, err := range pod.NewParser(data).All() {
			if err != nil {
				return err
			}
			if v.Type != pod.TypeObject {
				continue
			}
			prop, ok := pod.FindProperty(v, key)
			if !ok {
				return fmt.Errorf("property %s not found", pod.PropName(key))
			}
			fmt.Fprintf(stdout, "%s (%#x), flags %08x\n", pod.PropName(prop.Key), prop.Key, prop.Flags)
			return pod.DumpValue(stdout, prop.Value)
		}
	}
	return fmt.Errorf("no object in %s", *in)
}

func runInitConfig(args []string, stdout, stderr io.Writer) error {
	fs := newFlags("init-config", stderr)
	out := fs.String("out", "podctl.toml", "output path for config template")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := config.WriteTemplate(*out, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote config template to %s\n", *out)
	return nil
}
