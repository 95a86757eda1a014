package logger

import (
	"log"
	"os"
)

var (
	// Info carries normal operational logging, written to stdout.
	Info *log.Logger

	// Error carries error logging, written to stderr.
	Error *log.Logger
)

func init() {
	Info = log.New(os.Stdout, "", log.LstdFlags)
	Error = log.New(os.Stderr, "", log.LstdFlags)
}

// Println writes a normal log line to stdout.
func Println(v ...interface{}) {
	Info.Println(v...)
}

// Printf writes a formatted log line to stdout.
func Printf(format string, v ...interface{}) {
	Info.Printf(format, v...)
}

// Errorln writes an error log line to stderr.
func Errorln(v ...interface{}) {
	Error.Println(v...)
}

// Errorf writes a formatted error log line to stderr.
func Errorf(format string, v ...interface{}) {
	Error.Printf(format, v...)
}

// Fatalf writes a fatal error to stderr and exits the process.
func Fatalf(format string, v ...interface{}) {
	Error.Fatalf(format, v...)
}
