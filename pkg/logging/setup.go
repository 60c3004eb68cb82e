package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	baseMu sync.RWMutex
	base   *logrus.Logger
)

func baseLogger() *logrus.Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()

	if base != nil {
		return base
	}
	return logrus.StandardLogger()
}

// Setup configures the process-wide logger: console output plus a dated log
// file in logDir and a separate error-only file. Old dated files are not
// rotated here; the sweeper removes them once past retention. The returned
// closer releases both file handles.
func Setup(logDir string, level string) (io.Closer, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", logDir, err)
	}

	parsedLevel, err := logrus.ParseLevel(level)
	if err != nil {
		parsedLevel = logrus.InfoLevel
	}

	day := time.Now().Format("2006-01-02")
	logFile, err := os.OpenFile(
		filepath.Join(logDir, "scribekit_"+day+".log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
	)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	errorFile, err := os.OpenFile(
		filepath.Join(logDir, "error_"+day+".log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
	)
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("open error log file: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(parsedLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetOutput(io.MultiWriter(os.Stdout, logFile))
	logger.AddHook(&errorFileHook{writer: errorFile, formatter: logger.Formatter})

	baseMu.Lock()
	base = logger
	baseMu.Unlock()

	return &setupCloser{files: []*os.File{logFile, errorFile}}, nil
}

// errorFileHook duplicates error-and-above entries into a dedicated file.
type errorFileHook struct {
	writer    io.Writer
	formatter logrus.Formatter
}

func (h *errorFileHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (h *errorFileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

type setupCloser struct {
	files []*os.File
}

func (c *setupCloser) Close() error {
	var firstErr error
	for _, f := range c.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
