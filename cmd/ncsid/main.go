/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ncsid/ncsid/pkg/config"
	"github.com/ncsid/ncsid/pkg/lifecycle"
	"github.com/ncsid/ncsid/pkg/logger"
	"github.com/ncsid/ncsid/pkg/models"
	"github.com/ncsid/ncsid/pkg/netcheck"
	"github.com/ncsid/ncsid/pkg/responder"
	"github.com/ncsid/ncsid/pkg/svcman"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func defaultConfigPath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("ProgramData"), "NCSID", "ncsid.json")
	}

	return "/etc/ncsid/ncsid.json"
}

func run() error {
	configPath := flag.String("config", defaultConfigPath(), "Path to config file")
	flag.Parse()

	action := flag.Arg(0)
	if action == "" {
		action = "run"
	}

	ctx := context.Background()

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{
			Level:  "info",
			Output: "stdout",
		}
	}

	if err := lifecycle.InitializeLogger(logConfig); err != nil {
		return err
	}

	svcLogger, err := lifecycle.CreateComponentLogger(ctx, "ncsid", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if shutdownErr := lifecycle.ShutdownLogger(); shutdownErr != nil {
			log.Printf("Failed to shutdown logger: %v", shutdownErr)
		}
	}()

	checker := netcheck.NewChecker(cfg.Checker, svcLogger)
	cache := netcheck.NewCache(checker.Check, cfg.Checker.CacheInterval.Duration())

	server, err := responder.NewServer(cfg.Responder, cache, svcLogger)
	if err != nil {
		return fmt.Errorf("failed to create responder: %w", err)
	}

	runner := svcman.NewRunner(server, cache, svcLogger)

	manager, err := svcman.NewManager(runner, []string{"-config", *configPath, "run"}, svcLogger)
	if err != nil {
		return err
	}

	switch action {
	case "run":
		return manager.Run()
	case "install":
		return manager.Install()
	case "uninstall":
		return manager.Uninstall()
	case "start":
		return manager.Start()
	case "stop":
		return manager.Stop()
	case "status":
		state, err := manager.State()
		if err != nil {
			return err
		}

		fmt.Println(state)

		return nil
	default:
		return fmt.Errorf("unknown action %q (want run, install, uninstall, start, stop or status)", action)
	}
}

// loadConfig reads the config file, falling back to built-in defaults
// when the default path does not exist so a bare `ncsid run` works.
func loadConfig(ctx context.Context, path string) (*models.ResolverConfig, error) {
	var cfg models.ResolverConfig

	cfgLoader := config.NewConfig(nil)

	if err := cfgLoader.LoadAndValidate(ctx, path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}

		cfg = models.ResolverConfig{}
	}

	cfg.Normalize()

	return &cfg, nil
}
