package logging

import (
	"io"
	"os"

	"github.com/op/go-logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dapphub-labs/dapphub/config"
)

var Logger = logging.MustGetLogger("dapphub")

const format = "%{time:2006-01-02 15:04:05.000} %{level:.4s} %{shortfile} %{message}"

// InitLogger sets up the package-level Logger according to the log config.
// It must be called once from main before any component logs.
func InitLogger(cfg *config.LogConfig) {
	cfg.Validate()

	backends := make([]logging.Backend, 0)
	if cfg.UseConsoleLogger {
		backends = append(backends, newBackend(os.Stdout))
	}
	if cfg.UseFileLogger {
		backends = append(backends, newBackend(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxFileSizeInMB,
			MaxBackups: cfg.MaxBackupsOfLogFiles,
			MaxAge:     cfg.MaxAgeToRetainLogFilesInDays,
			Compress:   cfg.Compress,
		}))
	}
	if len(backends) == 0 {
		backends = append(backends, newBackend(os.Stdout))
	}

	level, err := logging.LogLevel(cfg.Level)
	if err != nil {
		level = logging.INFO
	}
	leveled := logging.MultiLogger(backends...)
	leveled.SetLevel(level, "")
	Logger.SetBackend(leveled)
}

func newBackend(w io.Writer) logging.LeveledBackend {
	backend := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(format))
	return logging.AddModuleLevel(formatted)
}
