// Package utils exposes reusable helpers consumed by the CLI.
//
// It houses the Viper-backed ConfigurationLoader, the zap LoggerFactory with
// its optional log file tee, and FlushingWriter for unbuffered console output.
package utils
