package config

const (
	FlagConfigPath         = "config-path"
	FlagConfigType         = "config-type"
	FlagConfigAwsRegion    = "aws-region"
	FlagConfigAwsSecretKey = "aws-secret-key"
	FlagConfigPrivateKey   = "private-key"
	FlagConfigDbPass       = "db-pass"

	LocalConfig = "local"
	AWSConfig   = "aws"

	DBDialectMysql   = "mysql"
	DBDialectSqlite3 = "sqlite3"

	CacheTypeLocal = "local"
	CacheTypeRedis = "redis"

	EnvVarConfigType     = "CONFIG_TYPE"
	EnvVarConfigFilePath = "CONFIG_FILE_PATH"
	EnvVarDBUserPass     = "DB_PASSWORD"
	EnvVarPrivateKey     = "PRIVATE_KEY"

	DefaultEventScanLimit      = 50
	DefaultCacheSize           = 1024
	DefaultCacheTTLSecs        = 300
	DefaultListenAddr          = "0.0.0.0:8080"
	DefaultSubmitIntervalMs    = 1000
	DefaultDeleteCountdownSecs = 30
)
