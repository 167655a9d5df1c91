package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/flagx"
	"github.com/dmitrijs2005/oneiromind/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept "90s"
// style strings or integer nanoseconds. Absent fields keep their defaults.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	DisplayTimezone             string         `json:"display_timezone"`
	LogBackend                  string         `json:"log_backend"`
	LogLevel                    string         `json:"log_level"`

	CollaboratorTimeout timex.Duration `json:"collaborator_timeout"`
	ArkAPIKey           string         `json:"ark_api_key"`
	ArkModel            string         `json:"ark_model"`
	ArkBaseURL          string         `json:"ark_base_url"`
	ArkRegion           string         `json:"ark_region"`
	GoogleAPIKey        string         `json:"google_api_key"`
	EmbeddingModel      string         `json:"embedding_model"`
	DictionaryPath      string         `json:"dictionary_path"`
	IndexDir            string         `json:"index_dir"`
	RetrievalK          int            `json:"retrieval_k"`
	ChunkSize           int            `json:"chunk_size"`
	ChunkOverlap        int            `json:"chunk_overlap"`
	StabilityAPIKey     string         `json:"stability_api_key"`
	StabilityEndpoint   string         `json:"stability_endpoint"`

	ImageStore     string         `json:"image_store"`
	S3RootUser     string         `json:"s3_root_user"`
	S3RootPassword string         `json:"s3_root_password"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
	S3PresignTTL   timex.Duration `json:"s3_presign_ttl"`
}

// parseJson overlays the JSON file named by -c/-config (or ConfigEnvVar)
// onto config. No file configured is not an error.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args, ConfigEnvVar)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setString(&config.DisplayTimezone, c.DisplayTimezone)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)

	setDuration(&config.CollaboratorTimeout, c.CollaboratorTimeout)
	setString(&config.ArkAPIKey, c.ArkAPIKey)
	setString(&config.ArkModel, c.ArkModel)
	setString(&config.ArkBaseURL, c.ArkBaseURL)
	setString(&config.ArkRegion, c.ArkRegion)
	setString(&config.GoogleAPIKey, c.GoogleAPIKey)
	setString(&config.EmbeddingModel, c.EmbeddingModel)
	setString(&config.DictionaryPath, c.DictionaryPath)
	setString(&config.IndexDir, c.IndexDir)
	setInt(&config.RetrievalK, c.RetrievalK)
	setInt(&config.ChunkSize, c.ChunkSize)
	setInt(&config.ChunkOverlap, c.ChunkOverlap)
	setString(&config.StabilityAPIKey, c.StabilityAPIKey)
	setString(&config.StabilityEndpoint, c.StabilityEndpoint)

	setString(&config.ImageStore, c.ImageStore)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.S3PresignTTL, c.S3PresignTTL)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
