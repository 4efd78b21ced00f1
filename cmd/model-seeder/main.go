/*
Copyright 2026 The Crossplane Authors.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command model-seeder seeds a remote REST API with the entities of a model.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/crossplane/model-seeder/pkg/config"
	"github.com/crossplane/model-seeder/pkg/external/rest"
	"github.com/crossplane/model-seeder/pkg/listener"
	"github.com/crossplane/model-seeder/pkg/logging"
	"github.com/crossplane/model-seeder/pkg/manifest"
	"github.com/crossplane/model-seeder/pkg/metrics"
	"github.com/crossplane/model-seeder/pkg/reconciler/seed"
	"github.com/crossplane/model-seeder/pkg/verify"
)

type flags struct {
	configPath        string
	endpoint          string
	manifestPath      string
	modelsDir         string
	update            bool
	verify            bool
	strict            bool
	maxConcurrency    int
	childTimeout      time.Duration
	requestsPerSecond float64
	verifyReport      string
	metricsFile       string
	debug             bool
}

func main() {
	f := flags{}
	fs := pflag.NewFlagSet("model-seeder", pflag.ExitOnError)
	fs.StringVar(&f.configPath, "config", "", "Path to the configuration file")
	fs.StringVar(&f.endpoint, "endpoint", "", "Base URL of the remote API (overrides config file)")
	fs.StringVar(&f.manifestPath, "manifest", "manifest.json", "Manifest to seed, relative to the models directory")
	fs.StringVar(&f.modelsDir, "models-dir", ".", "Directory containing manifests and models")
	fs.BoolVar(&f.update, "update", false, "Update existing entities that declare data")
	fs.BoolVar(&f.verify, "verify", false, "Only report what would be created or changed")
	fs.BoolVar(&f.strict, "strict", false, "Ignore identity fields when deciding whether an entity declares data")
	fs.IntVar(&f.maxConcurrency, "max-concurrency", seed.DefaultMaxConcurrency(), "Maximum number of children set up concurrently")
	fs.DurationVar(&f.childTimeout, "child-timeout", seed.DefaultChildTimeout, "How long a batch of children may take")
	fs.Float64Var(&f.requestsPerSecond, "requests-per-second", 0, "Limit requests to the remote API, zero for no limit")
	fs.StringVar(&f.verifyReport, "verify-report", "", "Write the verify report to this file instead of stdout")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Write run metrics in the Prometheus text format to this file")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	_ = fs.Parse(os.Args[1:])

	zl, flush, err := logging.NewZapLogger(f.debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create logger: %v\n", err)
		os.Exit(1)
	}
	log := logging.NewLogrLogger(zl.WithName("model-seeder")).WithValues("run", uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, fs, f, log)
	stop()
	if err != nil {
		log.Info("Seeding failed", "error", err)
		flush()
		os.Exit(1)
	}
	flush()
}

func run(ctx context.Context, fs *pflag.FlagSet, f flags, log logging.Logger) error {
	cfg, err := loadConfig(fs, f)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	c, err := rest.NewClient(cfg.Endpoint, append(cfg.ClientOptions(), rest.WithLogger(log))...)
	if err != nil {
		return errors.Wrap(err, "unable to create REST client")
	}

	m := metrics.New()
	chain := listener.Chain{listener.NewLogging(log)}
	if len(cfg.Variables) > 0 {
		chain = append(chain, listener.NewSubstitution(cfg.Variables))
	}

	o := append(cfg.ReconcilerOptions(),
		seed.WithLogger(log),
		seed.WithListener(chain),
		seed.WithMetrics(m),
	)
	if cfg.Verify {
		w, closeReport, err := reportWriter(f.verifyReport)
		if err != nil {
			return err
		}
		defer closeReport()
		o = append(o, seed.WithVerifyLog(verify.NewReport(w, verify.WithLogger(log))))
	}

	log.Info("Seeding model", "endpoint", cfg.Endpoint, "manifest", f.manifestPath, "update", cfg.Update, "verify", cfg.Verify)
	err = seed.NewReconciler(c, o...).Run(ctx, manifest.NewOsResolver(f.modelsDir), f.manifestPath)

	if f.metricsFile != "" {
		if merr := m.WriteToTextfile(f.metricsFile); merr != nil {
			log.Info("Cannot write metrics file", "path", f.metricsFile, "error", merr)
		}
	}
	if seed.IsConfigError(err) {
		return errors.Wrap(err, "configuration error, not retrying")
	}
	if err != nil {
		return err
	}
	log.Info("Model seeded")
	return nil
}

// loadConfig loads the configuration file, if any, and applies the flags
// that were set over it.
func loadConfig(fs *pflag.FlagSet, f flags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(afero.NewOsFs(), f.configPath); err != nil {
			return config.Config{}, errors.Wrapf(err, "unable to load configuration from %s", f.configPath)
		}
	}

	if f.endpoint != "" {
		cfg.Endpoint = f.endpoint
	}
	if fs.Changed("update") {
		cfg.Update = f.update
	}
	if fs.Changed("verify") {
		cfg.Verify = f.verify
	}
	if fs.Changed("strict") {
		cfg.Strict = f.strict
	}
	if fs.Changed("max-concurrency") {
		cfg.MaxConcurrency = f.maxConcurrency
	}
	if fs.Changed("child-timeout") {
		cfg.ChildTimeout.Duration = f.childTimeout
	}
	if fs.Changed("requests-per-second") {
		cfg.RequestsPerSecond = f.requestsPerSecond
	}
	return cfg, nil
}

func reportWriter(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	file, err := os.Create(path) //nolint:gosec // The report path is chosen by the operator.
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to create verify report %s", path)
	}
	return file, func() { _ = file.Close() }, nil
}
