package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dapphub-labs/dapphub/cache"
	"github.com/dapphub-labs/dapphub/config"
	"github.com/dapphub-labs/dapphub/db"
	"github.com/dapphub-labs/dapphub/ledger"
	"github.com/dapphub-labs/dapphub/logging"
	"github.com/dapphub-labs/dapphub/metrics"
	"github.com/dapphub-labs/dapphub/pipeline"
	"github.com/dapphub-labs/dapphub/restapi"
	"github.com/dapphub-labs/dapphub/service"
	"github.com/dapphub-labs/dapphub/walrus"
)

func initFlags() {
	flag.String(config.FlagConfigPath, "", "config file path")
	flag.String(config.FlagConfigType, "", "config type, local or aws")
	flag.String(config.FlagConfigAwsRegion, "", "aws region")
	flag.String(config.FlagConfigAwsSecretKey, "", "aws secret key")
	flag.String(config.FlagConfigPrivateKey, "", "registrar private key")
	flag.String(config.FlagConfigDbPass, "", "db password")

	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	err := viper.BindPFlags(pflag.CommandLine)
	if err != nil {
		panic(err)
	}
}

func printUsage() {
	fmt.Print("usage: ./dapphub --config-type local --config-path configFile\n")
	fmt.Print("usage: ./dapphub --config-type aws --aws-region awsRegion --aws-secret-key awsSecretKey\n")
}

func getConfig() *config.Config {
	configType := viper.GetString(config.FlagConfigType)
	if configType == "" {
		configType = os.Getenv(config.EnvVarConfigType)
	}
	if configType != config.AWSConfig && configType != config.LocalConfig {
		printUsage()
		return nil
	}
	if configType == config.AWSConfig {
		awsSecretKey := viper.GetString(config.FlagConfigAwsSecretKey)
		if awsSecretKey == "" {
			printUsage()
			return nil
		}
		awsRegion := viper.GetString(config.FlagConfigAwsRegion)
		if awsRegion == "" {
			printUsage()
			return nil
		}
		configContent, err := config.GetSecret(awsSecretKey, awsRegion)
		if err != nil {
			fmt.Printf("get aws config error, err=%s", err.Error())
			return nil
		}
		return config.ParseConfigFromJson(configContent)
	}
	configFilePath := viper.GetString(config.FlagConfigPath)
	if configFilePath == "" {
		configFilePath = os.Getenv(config.EnvVarConfigFilePath)
		if configFilePath == "" {
			printUsage()
			return nil
		}
	}
	return config.ParseConfigFromFile(configFilePath)
}

func openDB(cfg *config.Config) *gorm.DB {
	password := viper.GetString(config.FlagConfigDbPass)
	if password == "" {
		password = os.Getenv(config.EnvVarDBUserPass)
		if password == "" {
			password = cfg.DBConfig.Password
		}
	}
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	var dialector gorm.Dialector
	if cfg.DBConfig.Dialect == config.DBDialectMysql {
		dbPath := fmt.Sprintf("%s:%s@%s", cfg.DBConfig.Username, password, cfg.DBConfig.Url)
		dialector = mysql.Open(dbPath)
	} else if cfg.DBConfig.Dialect == config.DBDialectSqlite3 {
		dialector = sqlite.Open(cfg.DBConfig.Url)
	} else {
		panic(fmt.Sprintf("unexpected DB dialect %s", cfg.DBConfig.Dialect))
	}
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		panic(fmt.Sprintf("open db error, err=%s", err.Error()))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxIdleConns(cfg.DBConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBConfig.MaxOpenConns)
	return gormDB
}

func main() {
	initFlags()
	cfg := getConfig()
	if cfg == nil {
		return
	}
	cfg.Validate()
	logging.InitLogger(&cfg.LogConfig)

	gormDB := openDB(cfg)
	db.AutoMigrateDB(gormDB)
	journalDao := db.NewJournalSvcDB(gormDB)

	cacheService, err := cache.NewCache(&cfg.CacheConfig)
	if err != nil {
		panic(fmt.Sprintf("init cache error, err=%s", err.Error()))
	}
	blobStore := walrus.NewClient(&cfg.BlobStoreConfig)
	ledgerClient, err := ledger.NewClient(&cfg.LedgerConfig)
	if err != nil {
		panic(fmt.Sprintf("dial ledger rpc error, err=%s", err.Error()))
	}

	privateKey := viper.GetString(config.FlagConfigPrivateKey)
	if privateKey == "" {
		privateKey = os.Getenv(config.EnvVarPrivateKey)
		if privateKey == "" {
			privateKey = cfg.RegistrarConfig.PrivateKey
		}
	}
	sender, sign, err := ledger.NewKeySigner(privateKey)
	if err != nil {
		panic(fmt.Sprintf("init registrar signer error, err=%s", err.Error()))
	}
	submitter, err := ledger.NewRPCSubmitter(&cfg.LedgerConfig, sender, sign)
	if err != nil {
		panic(fmt.Sprintf("init submitter error, err=%s", err.Error()))
	}

	registryService := service.NewRegistryService(ledgerClient, blobStore, cacheService, cfg)
	reviewService := service.NewReviewService(ledgerClient, blobStore, cacheService, cfg)
	commentService := service.NewCommentService(ledgerClient, blobStore, cacheService, cfg)
	trendingService := service.NewTrendingService(ledgerClient, cacheService, cfg)

	registrar := pipeline.NewBulkRegistrar(submitter, journalDao, cfg)
	deleter := pipeline.NewDeletionScheduler(submitter, journalDao, cfg)

	if cfg.MetricsConfig.Enable {
		metrics.NewMetrics(cfg.MetricsConfig.HTTPAddress).Start()
	}
	apiServer := restapi.NewServer(
		registryService, reviewService, commentService, trendingService,
		registrar, deleter, cfg)
	apiServer.Start()
	select {}
}
