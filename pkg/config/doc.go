// Package config provides configuration management for csvcols.
//
// # Key Features
//
// - Config: one structure shared by every command
// - Sections: CSV, Output, Log, Metrics, Server
// - Environment variable substitution with ${VAR_NAME} and ${VAR_NAME:-default}
// - Defaults that match the CSV loader, and validation with typed errors
//
// # Usage
//
// ## Basic Configuration Loading
//
//	cfg, err := config.LoadConfig("csvcols.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	opts, err := cfg.CSV.Options()
//	doc, err := csvio.Load(r, opts...)
//
// ## Environment Variable Substitution
//
//	# csvcols.yaml
//	csv:
//	  delimiter: ";"
//	  encoding: ${CSV_ENCODING:-utf-8}
//	output:
//	  format: parquet
//	  codec: zstd
//	log:
//	  level: ${LOG_LEVEL}
//
// # Configuration Structure
//
//	type Config struct {
//		Name    string        `yaml:"name" json:"name"`
//		CSV     CSVConfig     `yaml:"csv" json:"csv"`
//		Output  OutputConfig  `yaml:"output" json:"output"`
//		Log     logger.Config `yaml:"log" json:"log"`
//		Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
//		Server  ServerConfig  `yaml:"server" json:"server"`
//	}
//
// Fields missing from a file keep their defaults from NewConfig.
package config
