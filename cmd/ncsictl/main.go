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

// ncsictl is the operator surface: it redirects the OS probes to the
// local responder, puts the system back, and answers "why is my
// indicator wrong" with a one-shot diagnosis.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ncsid/ncsid/pkg/config"
	"github.com/ncsid/ncsid/pkg/diagnostics"
	"github.com/ncsid/ncsid/pkg/lifecycle"
	"github.com/ncsid/ncsid/pkg/logger"
	"github.com/ncsid/ncsid/pkg/models"
	"github.com/ncsid/ncsid/pkg/netcheck"
	"github.com/ncsid/ncsid/pkg/sysstate"
)

const usage = `Usage: ncsictl [flags] <command>

Commands:
  apply     Point the OS connectivity probes at the local responder
  revert    Restore the original probe configuration
  status    Show whether the redirection is in effect
  check     Run the reachability checks once and print the verdict
  diagnose  Collect and print a full diagnostic report
`

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
	asJSON := flag.Bool("json", false, "Emit JSON instead of text")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		flag.Usage()

		return errors.New("no command given")
	}

	ctx := context.Background()

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{
			Level:  "warn",
			Output: "stderr",
		}
	}

	if err := lifecycle.InitializeLogger(logConfig); err != nil {
		return err
	}

	ctlLogger, err := lifecycle.CreateComponentLogger(ctx, "ncsictl", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if shutdownErr := lifecycle.ShutdownLogger(); shutdownErr != nil {
			log.Printf("Failed to shutdown logger: %v", shutdownErr)
		}
	}()

	switch command {
	case "apply":
		return sysstate.NewManager(cfg.State, ctlLogger).Apply(ctx)
	case "revert":
		return sysstate.NewManager(cfg.State, ctlLogger).Revert(ctx)
	case "status":
		return printStatus(ctx, cfg, ctlLogger, *asJSON)
	case "check":
		return printVerdict(ctx, cfg, ctlLogger, *asJSON)
	case "diagnose":
		return printDiagnosis(ctx, cfg, ctlLogger, *asJSON)
	default:
		flag.Usage()

		return fmt.Errorf("unknown command %q", command)
	}
}

func printStatus(ctx context.Context, cfg *models.ResolverConfig, log logger.Logger, asJSON bool) error {
	status, err := sysstate.NewManager(cfg.State, log).Status(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(status)
	}

	if status.Applied {
		fmt.Println("Probe redirection: applied")
	} else {
		fmt.Println("Probe redirection: not applied")
	}

	if status.Hosts.Present {
		fmt.Printf("Hosts entry: %s\n", status.Hosts.IP)
	} else {
		fmt.Println("Hosts entry: absent")
	}

	for name, value := range status.Registry {
		if value.Present {
			fmt.Printf("Registry %s: %s\n", name, value.Value)
		} else {
			fmt.Printf("Registry %s: absent\n", name)
		}
	}

	if status.SnapshotPresent {
		fmt.Println("Snapshot: present (revert available)")
	} else {
		fmt.Println("Snapshot: absent")
	}

	return nil
}

func printVerdict(ctx context.Context, cfg *models.ResolverConfig, log logger.Logger, asJSON bool) error {
	verdict := netcheck.NewChecker(cfg.Checker, log).Check(ctx)

	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(verdict)
	}

	if verdict.Online {
		fmt.Println("Connectivity: ONLINE")
	} else {
		fmt.Println("Connectivity: OFFLINE")
	}

	for method, result := range verdict.Methods {
		if result.Success {
			fmt.Printf("  %-6s ok     %s (%s)\n", method, result.Target, result.Latency)
		} else {
			fmt.Printf("  %-6s failed %s: %s\n", method, result.Target, result.Error)
		}
	}

	return nil
}

func printDiagnosis(ctx context.Context, cfg *models.ResolverConfig, log logger.Logger, asJSON bool) error {
	report := diagnostics.NewCollector(cfg.Checker, cfg.Responder.Port, log).Collect(ctx)

	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	return report.WriteText(os.Stdout)
}

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
