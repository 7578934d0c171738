package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type Config struct {
	LogConfig       LogConfig       `json:"log_config"`
	DBConfig        DBConfig        `json:"db_config"`
	LedgerConfig    LedgerConfig    `json:"ledger_config"`
	BlobStoreConfig BlobStoreConfig `json:"blob_store_config"`
	CacheConfig     CacheConfig     `json:"cache_config"`
	ServerConfig    ServerConfig    `json:"server_config"`
	RegistrarConfig RegistrarConfig `json:"registrar_config"`
	MetricsConfig   MetricsConfig   `json:"metrics_config"`
}

type LedgerConfig struct {
	RPCAddrs         []string `json:"rpc_addrs"`          // RPCAddrs is a list of ledger full-node JSON-RPC addresses
	RegistryObjectID string   `json:"registry_object_id"` // RegistryObjectID is the on-ledger id of the dapp registry root object
	PackageID        string   `json:"package_id"`         // PackageID is the published package the registry entry functions live in
	EventScanLimit   uint64   `json:"event_scan_limit"`   // EventScanLimit bounds the registration-event window scanned for by-name lookup
}

func (cfg *LedgerConfig) Validate() {
	if len(cfg.RPCAddrs) == 0 {
		panic("at least one ledger rpc address must be configured")
	}
	if cfg.RegistryObjectID == "" {
		panic("registry object id must be configured")
	}
	if cfg.PackageID == "" {
		panic("package id must be configured")
	}
}

func (cfg *LedgerConfig) GetEventScanLimit() uint64 {
	if cfg.EventScanLimit != 0 {
		return cfg.EventScanLimit
	}
	return DefaultEventScanLimit
}

type BlobStoreConfig struct {
	PublisherEndpoints   []string `json:"publisher_endpoints"`  // PublisherEndpoints is the ordered list of store endpoints accepting uploads
	AggregatorEndpoints  []string `json:"aggregator_endpoints"` // AggregatorEndpoints is the ordered list of store endpoints serving reads
	RequestTimeoutInSecs int64    `json:"request_timeout_in_secs"`
}

func (cfg *BlobStoreConfig) Validate() {
	if len(cfg.PublisherEndpoints) == 0 && len(cfg.AggregatorEndpoints) == 0 {
		panic("blob store endpoints must be configured")
	}
}

type ServerConfig struct {
	ListenAddr string `json:"listen_addr"`
	MaxConns   int    `json:"max_conns"`
}

func (cfg *ServerConfig) GetListenAddr() string {
	if cfg.ListenAddr != "" {
		return cfg.ListenAddr
	}
	return DefaultListenAddr
}

type RegistrarConfig struct {
	PrivateKey            string `json:"private_key"`
	SubmitIntervalInMs    int64  `json:"submit_interval_in_ms"`    // SubmitIntervalInMs paces sequential bulk registration submissions
	DeleteCountdownInSecs int64  `json:"delete_countdown_in_secs"` // DeleteCountdownInSecs is the undo window before a delete commits
}

func (cfg *RegistrarConfig) GetSubmitIntervalMs() int64 {
	if cfg.SubmitIntervalInMs != 0 {
		return cfg.SubmitIntervalInMs
	}
	return DefaultSubmitIntervalMs
}

func (cfg *RegistrarConfig) GetDeleteCountdownSecs() int64 {
	if cfg.DeleteCountdownInSecs != 0 {
		return cfg.DeleteCountdownInSecs
	}
	return DefaultDeleteCountdownSecs
}

type MetricsConfig struct {
	Enable      bool   `json:"enable"`
	HTTPAddress string `json:"http_address"`
}

type CacheConfig struct {
	CacheType string `json:"cache_type"` // local or redis
	URL       string `json:"url"`
	CacheSize uint64 `json:"cache_size"`
	TTLInSecs int64  `json:"ttl_in_secs"`
}

func (c *CacheConfig) GetCacheSize() uint64 {
	if c.CacheSize != 0 {
		return c.CacheSize
	}
	return DefaultCacheSize
}

func (c *CacheConfig) GetTTLSecs() int64 {
	if c.TTLInSecs != 0 {
		return c.TTLInSecs
	}
	return DefaultCacheTTLSecs
}

type DBConfig struct {
	Dialect      string `json:"dialect"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Url          string `json:"url"`
	MaxIdleConns int    `json:"max_idle_conns"`
	MaxOpenConns int    `json:"max_open_conns"`
}

func (cfg *DBConfig) Validate() {
	if cfg.Dialect != DBDialectMysql && cfg.Dialect != DBDialectSqlite3 {
		panic(fmt.Sprintf("only %s and %s supported", DBDialectMysql, DBDialectSqlite3))
	}
	if cfg.Dialect == DBDialectMysql && (cfg.Username == "" || cfg.Url == "") {
		panic("db config is not correct, missing username and/or url")
	}
	if cfg.MaxIdleConns == 0 || cfg.MaxOpenConns == 0 {
		panic("db connections is not correct")
	}
}

type LogConfig struct {
	Level                        string `json:"level"`
	Filename                     string `json:"filename"`
	MaxFileSizeInMB              int    `json:"max_file_size_in_mb"`
	MaxBackupsOfLogFiles         int    `json:"max_backups_of_log_files"`
	MaxAgeToRetainLogFilesInDays int    `json:"max_age_to_retain_log_files_in_days"`
	UseConsoleLogger             bool   `json:"use_console_logger"`
	UseFileLogger                bool   `json:"use_file_logger"`
	Compress                     bool   `json:"compress"`
}

func (cfg *LogConfig) Validate() {
	if cfg.UseFileLogger {
		if cfg.Filename == "" {
			panic("filename should not be empty if use file logger")
		}
		if cfg.MaxFileSizeInMB <= 0 {
			panic("max_file_size_in_mb should be larger than 0 if use file logger")
		}
		if cfg.MaxBackupsOfLogFiles <= 0 {
			panic("max_backups_off_log_files should be larger than 0 if use file logger")
		}
	}
}

func (c *Config) Validate() {
	c.LedgerConfig.Validate()
	c.BlobStoreConfig.Validate()
	c.DBConfig.Validate()
	c.LogConfig.Validate()
}

func ParseConfigFromJson(content string) *Config {
	var config Config
	if err := json.Unmarshal([]byte(content), &config); err != nil {
		panic(err)
	}
	return &config
}

func ParseConfigFromFile(filePath string) *Config {
	bz, err := os.ReadFile(filePath)
	if err != nil {
		panic(err)
	}

	var config Config
	if err := json.Unmarshal(bz, &config); err != nil {
		panic(err)
	}
	return &config
}
