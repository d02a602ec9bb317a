// Package flags provides pflag values for enumerated and yes/no command options.
package flags
