// Copyright 2024 Nokia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/sdcio/threadpool/pkg/config"
	"github.com/sdcio/threadpool/pkg/server"
)

var configFile string
var debug bool
var trace bool

var versionFlag bool
var version = "dev"
var commit = ""

func main() {
	pflag.StringVarP(&configFile, "config", "c", "", "config file path")
	pflag.BoolVarP(&debug, "debug", "d", false, "set log level to DEBUG")
	pflag.BoolVarP(&trace, "trace", "t", false, "set log level to TRACE")
	pflag.BoolVarP(&versionFlag, "version", "v", false, "print version")
	pflag.Parse()

	if versionFlag {
		fmt.Println(version + "-" + commit)
		return
	}

	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	if trace {
		log.SetLevel(log.TraceLevel)
	}
	log.Infof("threadpool bootstrap: version=%s commit=%s log-level=%s", version, commit, log.GetLevel())

	cfg, err := config.New(configFile)
	if err != nil {
		log.Errorf("failed to read config: %v", err)
		os.Exit(1)
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		log.Errorf("failed to marshal config: %v", err)
		os.Exit(1)
	}
	log.Infof("read config: %s", string(b))

	ctx, cancel := context.WithCancel(context.Background())
	setupCloseHandler(cancel)

	s, err := server.New(cfg)
	if err != nil {
		log.Errorf("failed to create server: %v", err)
		os.Exit(1)
	}
	if err = s.Serve(ctx); err != nil {
		log.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
}

// setupCloseHandler cancels the server context on the first signal. The pool
// then drains before main returns; a second signal exits immediately.
func setupCloseHandler(cancelFn context.CancelFunc) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-c
		fmt.Fprintf(os.Stderr, "\nreceived signal '%s'. draining pool...\n", sig.String())
		cancelFn()
		sig = <-c
		fmt.Fprintf(os.Stderr, "\nreceived signal '%s'. terminating...\n", sig.String())
		os.Exit(1)
	}()
}
