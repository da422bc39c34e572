package main

import (
	"fmt"
	"os"

	"telemetry-viewer/src/config"
	"telemetry-viewer/src/logger"

	"github.com/spf13/pflag"
)

// -----------------------------------------------------------------------------

func main() {

	// 1. Parse command line flags
	configPath := pflag.StringP("config", "c", "config/default.yaml", "path to config file")
	envFile := pflag.String("env-file", ".env", "file with AWS credentials and IoT endpoint")
	topic := pflag.StringP("topic", "t", "", "topic to view (overrides viewer.topic)")
	autostart := pflag.Bool("autostart", false, "connect and subscribe on startup")
	pflag.Parse()

	// 2. Environment first so it can fill the config
	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Printf("Error loading env file: %v\n", err)
		os.Exit(1)
	}

	// 3. Load config from YAML file
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *topic != "" {
		conf.Viewer.Topic = *topic
	}

	// 4. Setup Logger
	appLogger := logger.NewLogger(conf, conf.Name)
	appLogger.Info("Starting %s (presign: %s, journal: %s)", conf.Name, conf.Presign.Mode, conf.Storage.DBType)

	// 5. Run until signalled
	if err := run(conf, *configPath, *autostart, appLogger); err != nil {
		appLogger.Error("Exited with error: %v", err)
		os.Exit(1)
	}
	appLogger.Info("Shutdown complete.")
}
