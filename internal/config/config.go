package config

import (
	"errors"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const EnvPrefix = "ESTIMATIONTOOLS_"

// listKeys hold comma separated values when set through the environment.
var listKeys = []string{"estimationtools.closedstates", "estimationtools.customfields"}

var ErrEstimationFieldNotConfigured = errors.New("estimation field not configured")

type Application struct {
	// Host is the base href of the site, used to build server-side chart links.
	Host            string          `koanf:"host"`
	Server          Server          `koanf:"server"`
	Database        Database        `koanf:"db"`
	EstimationTools EstimationTools `koanf:"estimationtools"`
	Chart           Chart           `koanf:"chart"`
}

type Server struct {
	Addr string `koanf:"addr"`
}

type Database struct {
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
	User    string `koanf:"user"`
	Pass    string `koanf:"pass"`
	Name    string `koanf:"name"`
	Schema  string `koanf:"schema"`
	Migrate bool   `koanf:"migrate"`
}

type EstimationTools struct {
	// EstimationField is the ticket custom field holding remaining effort.
	EstimationField string `koanf:"estimationfield"`
	// ClosedStates lists the workflow states whose effort counts as zero.
	ClosedStates     []string `koanf:"closedstates"`
	EstimationSuffix string   `koanf:"estimationsuffix"`
	// ServersideCharts makes chart links point at the local proxy instead of the chart service.
	ServersideCharts bool `koanf:"serversidecharts"`
	// SkipMalformed skips tickets with unparseable estimations instead of failing the chart.
	SkipMalformed bool `koanf:"skipmalformed"`
	// CustomFields are the ticket custom fields declared by the host.
	CustomFields []string `koanf:"customfields"`
}

type Chart struct {
	ServiceURL  string        `koanf:"serviceurl"`
	UpstreamURL string        `koanf:"upstreamurl"`
	Timeout     time.Duration `koanf:"timeout"`
}

func Defaults() Application {
	return Application{
		Host: "",
		Server: Server{
			Addr: ":8181",
		},
		Database: Database{
			Host:    "localhost",
			Port:    5432,
			User:    "trac",
			Pass:    "",
			Name:    "trac",
			Schema:  "trac",
			Migrate: false,
		},
		EstimationTools: EstimationTools{
			EstimationField:  "estimatedhours",
			ClosedStates:     []string{"closed"},
			EstimationSuffix: "h",
			ServersideCharts: false,
			SkipMalformed:    false,
			CustomFields:     []string{"estimatedhours", "totalhours", "complete", "due_close"},
		},
		Chart: Chart{
			ServiceURL:  "https://chart.googleapis.com/chart",
			UpstreamURL: "https://chart.googleapis.com/chart",
			Timeout:     30 * time.Second,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, EnvPrefix)), "_", ".")
			if slices.Contains(listKeys, k) {
				return k, splitList(v)
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}

func splitList(v string) []string {
	items := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// CheckEstimationField reports whether the estimation field is one of the declared custom fields.
func (e EstimationTools) CheckEstimationField() error {
	if e.EstimationField == "" || !slices.Contains(e.CustomFields, e.EstimationField) {
		return ErrEstimationFieldNotConfigured
	}
	return nil
}

// ComponentEnabled logs and returns false when the named component cannot run with this configuration.
func (e EstimationTools) ComponentEnabled(component string) bool {
	if err := e.CheckEstimationField(); err != nil {
		log.Errorf("EstimationTools (%s): Estimation field not configured. Component disabled.", component)
		return false
	}
	return true
}
