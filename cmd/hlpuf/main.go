// hlpuf runs simulated PUF authentication attempts for each entry in the
// cartesian product of a collection of channel conditions, e.g. symbol noise
// and quantum channel length, and outputs a CSV of acceptance statistics for
// each combination.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/template"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/alan-christopher/hlpuf/hlpuf"
	"github.com/alan-christopher/hlpuf/hlpuf/config"
	hlog "github.com/alan-christopher/hlpuf/hlpuf/log"
)

var (
	configFile  = flag.StringP("config", "f", "", "Path to a TOML configuration file.")
	variant     = flag.String("variant", "", "Protocol variant, batch or stream. Overrides the config file.")
	attempts    = flag.Int("attempts", 0, "Attempts per parameterization. Overrides the config file.")
	seed        = flag.Int64("seed", 0, "Seed for CRP sampling, measurement and noise. Overrides the config file.")
	logLevel    = flag.String("log-level", "", "Log level. Overrides the config file.")
	metricsOut  = flag.String("metrics-out", "", "If set, write the collected metrics to this file in the Prometheus text format.")
	metricsAddr = flag.String("metrics-addr", "", "If set, serve the collected metrics over HTTP on this address until interrupted.")

	noise = flag.Float64Slice("noise", []float64{0},
		"The probabilities with which each quantum register is replaced by random symbols in transit.")
	quantumLength = flag.Float64Slice("quantumLength", nil,
		"The quantum channel lengths to simulate, in km. Defaults to the configured length.")
)

var (
	inputs  = []string{"noise", "quantumLength"}
	columns = []string{"Variant", "Noise", "QuantumLength", "Attempts", "Accepted",
		"AcceptRate", "MeanFidelity", "MeanMismatches", "MeanSimTimeNs", "Errors"}
)

func main() {
	flag.Parse()
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hlpuf: %v\n", err)
		os.Exit(1)
	}
	backend, err := hlog.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hlpuf: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()
	log := backend.GetLogger("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := prometheus.NewRegistry()
	metrics, err := hlpuf.NewMetrics(reg)
	if err != nil {
		log.Fatalf("BUG: registering metrics: %v", err)
	}

	var served <-chan error
	if *metricsAddr != "" {
		if served, err = serveMetrics(ctx, log, *metricsAddr, reg); err != nil {
			log.Fatalf("Serving metrics: %v", err)
		}
	}

	lengths := *quantumLength
	if len(lengths) == 0 {
		lengths = []float64{cfg.Network.QuantumLength}
	}
	if len(*noise) == 0 {
		log.Fatalf("--noise needs at least one value")
	}
	args := [][]interface{}{boxed(*noise), boxed(lengths)}

	fmt.Println(header())
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	b := &bencher{cfg: cfg, backend: backend, metrics: metrics, log: log}
	applyCartesian(func(args []interface{}) {
		exp := &Experiment{
			Variant:       cfg.Variant().String(),
			Noise:         args[inpIndex("noise")].(float64),
			QuantumLength: args[inpIndex("quantumLength")].(float64),
			Attempts:      cfg.Run.Attempts,
		}
		if err := b.bench(ctx, exp); err != nil {
			log.Errorf("Benching %+v: %v", *exp, err)
		}
		if err := tmpl.Execute(os.Stdout, exp); err != nil {
			log.Fatalf("BUG: could not fill in line template: %v", err)
		}
	}, args)

	if *metricsOut != "" {
		if err := prometheus.WriteToTextfile(*metricsOut, reg); err != nil {
			log.Fatalf("Writing metrics: %v", err)
		}
	}
	if served != nil {
		if err := <-served; err != nil {
			log.Errorf("Metrics server: %v", err)
		}
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadFile(*configFile); err != nil {
			return nil, err
		}
	}
	if flag.CommandLine.Changed("variant") {
		v, err := hlpuf.ParseVariant(*variant)
		if err != nil {
			return nil, err
		}
		if cfg.Protocol == nil || cfg.Protocol.Variant != v.String() {
			// Table sizes of the other variant do not carry over.
			cfg.Protocol = &config.Protocol{Variant: v.String()}
		}
	}
	if flag.CommandLine.Changed("attempts") {
		if cfg.Run == nil {
			cfg.Run = &config.Run{}
		}
		cfg.Run.Attempts = *attempts
	}
	if flag.CommandLine.Changed("seed") {
		if cfg.Run == nil {
			cfg.Run = &config.Run{}
		}
		cfg.Run.SampleSeed = *seed
	}
	if flag.CommandLine.Changed("log-level") {
		if cfg.Logging == nil {
			cfg.Logging = &config.Logging{}
		}
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func inpIndex(v string) int {
	for i, inp := range inputs {
		if inp == v {
			return i
		}
	}
	return -1
}

func header() string {
	return strings.Join(columns, ", ")
}

func lineTmpl() string {
	var els []string
	for _, c := range columns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}

func boxed(vals []float64) []interface{} {
	r := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		r = append(r, v)
	}
	return r
}

// applyCartesian calls f once for every combination of one value from each
// of args.
func applyCartesian(f func([]interface{}), args [][]interface{}) {
	for i := range args {
		if len(args[i]) == 1 {
			continue
		}
		l := make([][]interface{}, len(args))
		r := make([][]interface{}, len(args))
		copy(l, args)
		copy(r, args)
		l[i] = args[i][:1]
		r[i] = args[i][1:]
		applyCartesian(f, l)
		applyCartesian(f, r)
		return
	}
	x := make([]interface{}, 0, len(args))
	for _, a := range args {
		x = append(x, a[0])
	}
	f(x)
}
