package config

import (
	"encoding/json"
	"os"

	"github.com/akarpov87/securevault/internal/flagx"
	"github.com/akarpov87/securevault/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which parses both string
// values such as "15m" and integer nanoseconds. After unmarshalling, its
// fields are copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	CipherKeyPath                string         `json:"cipher_key_path"`
	MaxUploadSize                int64          `json:"max_upload_size"`
	FaceMatchThreshold           float64        `json:"face_match_threshold"`
	ExtractorEndpoint            string         `json:"extractor_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no flag is set, nothing is
// loaded. An unreadable or malformed file panics: a deployment that points
// at a broken config file should not start.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	config.CipherKeyPath = c.CipherKeyPath
	config.MaxUploadSize = c.MaxUploadSize
	config.FaceMatchThreshold = c.FaceMatchThreshold
	config.ExtractorEndpoint = c.ExtractorEndpoint
}
