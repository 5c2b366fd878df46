package config

import (
	"encoding/json"
	"os"

	"github.com/jortega/fuelwatch/internal/flagx"
	"github.com/jortega/fuelwatch/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "5m"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	APIBaseURL     string         `json:"api_base_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	DatabasePath   string         `json:"database_path"`
	StaleTime      timex.Duration `json:"stale_time"`
	GCTime         timex.Duration `json:"gc_time"`
	PageSize       int            `json:"page_size"`
	Debug          bool           `json:"debug"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config flags via
// flagx.JsonConfigFlags(); when absent, no JSON is loaded. Zero values in
// the file leave the corresponding Config field untouched, so a partial
// file only overrides what it names. Read or unmarshal errors panic
// (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.StaleTime.Duration != 0 {
		cfg.StaleTime = jc.StaleTime.Duration
	}
	if jc.GCTime.Duration != 0 {
		cfg.GCTime = jc.GCTime.Duration
	}
	if jc.PageSize != 0 {
		cfg.PageSize = jc.PageSize
	}
	if jc.Debug {
		cfg.Debug = true
	}
}
