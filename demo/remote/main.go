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

// Command remote serves an in-memory REST API to try model-seeder against.
//
//	go run ./demo/remote --addr :8080
//	go run ./cmd/model-seeder --endpoint http://localhost:8080 --models-dir demo/models
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/logging"
	"github.com/crossplane/model-seeder/pkg/resource/reference"
	"github.com/crossplane/model-seeder/pkg/test/fakeapi"
)

func main() {
	var (
		addr  string
		delay time.Duration
		debug bool
	)
	pflag.StringVar(&addr, "addr", ":8080", "The address the API binds to")
	pflag.DurationVar(&delay, "delay", 0, "Delay every request by this long")
	pflag.BoolVar(&debug, "debug", false, "Enable debug logging")
	pflag.Parse()

	zl, flush, err := logging.NewZapLogger(debug)
	if err != nil {
		os.Exit(1)
	}
	log := logging.NewLogrLogger(zl.WithName("remote"))

	if err := serve(addr, delay, log); err != nil {
		log.Info("Cannot serve demo API", "error", err)
		flush()
		os.Exit(1)
	}
	flush()
}

func serve(addr string, delay time.Duration, log logging.Logger) error {
	api := fakeapi.New(fakeapi.WithTypeConfigs(typeConfigs()...), fakeapi.WithDelay(delay))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = api.Echo().Shutdown(sctx)
	}()

	log.Info("Serving demo API", "addr", addr)
	if err := api.Echo().Start(addr); !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "cannot listen on %s", addr)
	}
	return nil
}

func typeConfigs() []*entityconfig.TypeConfig {
	return []*entityconfig.TypeConfig{
		{
			Type:      "roles",
			UpdateURI: "/roles/{name}",
			CreateURI: "/roles",
		},
		{
			Type:      "groups",
			UpdateURI: "/groups/{name}",
			CreateURI: "/groups",
			Children: map[string]*entityconfig.TypeConfig{
				"users": {
					UpdateURI:   "/groups/{groups.id}/users/{name}",
					CreateURI:   "/groups/{groups.id}/users",
					ParentField: &reference.ParentField{Field: "groupId", ReferencedType: "groups"},
				},
			},
		},
		{
			Type:      "audits",
			UpdateURI: entityconfig.NotSupported,
			CreateURI: "/audits",
		},
	}
}
