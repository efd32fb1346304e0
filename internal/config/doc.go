// Package config provides centralized configuration management for TrackHigh.
//
// Configuration is layered, later sources overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. An optional YAML file (TRACKHIGH_CONFIG_FILE, ./config.yaml or ./configs/config.yaml)
//  3. Environment variables
//
// Environment variables follow the pattern TRACKHIGH_<SECTION>_<KEY>:
//
//	TRACKHIGH_SERVER_PORT=8080
//	TRACKHIGH_FEED_URL=https://example.com/Data.csv
//	TRACKHIGH_FEED_PATH=./Data.csv
//	TRACKHIGH_FEED_TIMEOUT=30s
//	TRACKHIGH_LOGGING_LEVEL=debug
//
// Commands may also load a .env file before calling Load.
package config
