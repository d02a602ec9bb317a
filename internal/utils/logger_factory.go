package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	logFilePermissionsConstant           = 0o644
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	logFileOpenErrorTemplateConstant     = "unable to open log file %s: %w"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// LoggerOutputs bundles the logger with the resources backing it.
type LoggerOutputs struct {
	Logger      *zap.Logger
	LogFilePath string
	logFile     *os.File
}

// Close releases the log file, if one was opened.
func (outputs LoggerOutputs) Close() error {
	if outputs.logFile == nil {
		return nil
	}
	return outputs.logFile.Close()
}

// LoggerFactory builds zap.Logger instances writing to the console and, optionally, a log file.
type LoggerFactory struct {
	consoleWriter io.Writer
}

// NewLoggerFactory constructs a logger factory writing console output to standard error.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{consoleWriter: os.Stderr}
}

// NewLoggerFactoryWithConsole constructs a logger factory writing console output to consoleWriter.
func NewLoggerFactoryWithConsole(consoleWriter io.Writer) *LoggerFactory {
	if consoleWriter == nil {
		consoleWriter = os.Stderr
	}
	return &LoggerFactory{consoleWriter: consoleWriter}
}

// CreateLogger produces a console-only zap.Logger honoring the requested level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	outputs, creationError := factory.CreateLoggerOutputs(requestedLogLevel, requestedLogFormat, "")
	if creationError != nil {
		return nil, creationError
	}
	return outputs.Logger, nil
}

// CreateLoggerOutputs produces a logger that tees every entry to the console
// and, when logFilePath is set, to that file. The file is truncated first so
// it only holds the current run.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat, logFilePath string) (LoggerOutputs, error) {
	zapLogLevel, levelExists := logLevelMapping[LogLevel(strings.ToLower(strings.TrimSpace(string(requestedLogLevel))))]
	if !levelExists {
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoder, encoderError := buildEncoder(LogFormat(strings.ToLower(strings.TrimSpace(string(requestedLogFormat)))))
	if encoderError != nil {
		return LoggerOutputs{}, encoderError
	}

	levelEnabler := zap.NewAtomicLevelAt(zapLogLevel)
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(factory.resolveConsoleWriter())), levelEnabler),
	}

	var logFile *os.File
	trimmedLogFilePath := strings.TrimSpace(logFilePath)
	if len(trimmedLogFilePath) > 0 {
		openedFile, openError := os.OpenFile(trimmedLogFilePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, logFilePermissionsConstant)
		if openError != nil {
			return LoggerOutputs{}, fmt.Errorf(logFileOpenErrorTemplateConstant, trimmedLogFilePath, openError)
		}
		logFile = openedFile
		cores = append(cores, zapcore.NewCore(encoder.Clone(), zapcore.Lock(openedFile), levelEnabler))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.ErrorOutput(zapcore.Lock(zapcore.AddSync(factory.resolveConsoleWriter()))))
	return LoggerOutputs{Logger: logger, logFile: logFile, LogFilePath: trimmedLogFilePath}, nil
}

func (factory *LoggerFactory) resolveConsoleWriter() io.Writer {
	if factory == nil || factory.consoleWriter == nil {
		return os.Stderr
	}
	return factory.consoleWriter
}

func buildEncoder(format LogFormat) (zapcore.Encoder, error) {
	switch format {
	case LogFormatStructured:
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(encoderConfig), nil
	case LogFormatConsole:
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		encoderConfig.CallerKey = zapcore.OmitKey
		return zapcore.NewConsoleEncoder(encoderConfig), nil
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, format)
	}
}
