package main

import (
	"os"

	"github.com/spf13/pflag"
	"github.com/tshalif/estimationtoolsplugin/internal/app"
	log "github.com/sirupsen/logrus"
)

func init() {
	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logrusLevel, err := log.ParseLevel(level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func main() {
	configPath := pflag.StringP("config", "c", "./config/application.yaml", "path to the configuration file")
	logLevel := pflag.String("log-level", "", "log level, overrides LOG_LEVEL")
	pflag.Parse()

	if *logLevel != "" {
		level, err := log.ParseLevel(*logLevel)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(level)
	}

	application, err := app.NewApplication(*configPath)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	if err := application.Run(); err != nil {
		log.Fatal(err)
	}
}
