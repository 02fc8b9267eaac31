// Package log is a small leveled logging subsystem with code location
// tracing and colored level tags.
package log

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/gookit/color"
)

// The levels.
const (
	Off Level = iota
	Fatal
	Error
	Warn
	Info
	Debug
	Trace
)

type (
	// Level is a code representing a scale of importance and context for
	// log entries.
	Level int32
	// Println prints lists of interfaces with spaces in between.
	Println func(a ...interface{})
	// Printf prints like fmt.Printf surrounded by log details.
	Printf func(format string, a ...interface{})
	// Prints prints a spew.Sdump for an interface slice.
	Prints func(a ...interface{})
	// Chk prints if there is an error, and returns true if there was one.
	Chk func(e error) bool

	// LevelPrinter defines a set of terminal printing primitives that
	// output with extra data: time, level and code location.
	LevelPrinter struct {
		Ln  Println
		F   Printf
		S   Prints
		Chk Chk
	}

	// Logger is a set of level printers for the various levels.
	Logger struct {
		F, E, W, I, D, T LevelPrinter
	}
)

var (
	lvlShort = map[Level]string{
		Off:   "",
		Fatal: "FTL",
		Error: "ERR",
		Warn:  "WRN",
		Info:  "INF",
		Debug: "DBG",
		Trace: "TRC",
	}
	lvlColor = map[Level]func(...interface{}) string{
		Fatal: color.Red.Render,
		Error: color.LightRed.Render,
		Warn:  color.Yellow.Render,
		Info:  color.Green.Render,
		Debug: color.Blue.Render,
		Trace: color.Magenta.Render,
	}
	lvlNames = map[string]Level{
		"off":   Off,
		"fatal": Fatal,
		"error": Error,
		"warn":  Warn,
		"info":  Info,
		"debug": Debug,
		"trace": Trace,
	}

	writer   io.Writer = os.Stderr
	writerMx sync.Mutex
	logLevel = Info
)

// GetLogger returns a set of LevelPrinter ready for use.
func GetLogger() *Logger {
	return &Logger{
		getOnePrinter(Fatal),
		getOnePrinter(Error),
		getOnePrinter(Warn),
		getOnePrinter(Info),
		getOnePrinter(Debug),
		getOnePrinter(Trace),
	}
}

// New returns a logger along with its error-check shortcut.
func New() (l *Logger, chk Chk) {
	l = GetLogger()
	return l, l.E.Chk
}

// SetLogLevel adjusts the level above which entries are discarded.
func SetLogLevel(l Level) {
	writerMx.Lock()
	defer writerMx.Unlock()
	logLevel = l
}

// SetLogLevelName adjusts the level by its lower case name; unknown names
// leave the level unchanged.
func SetLogLevelName(name string) {
	if l, ok := lvlNames[strings.ToLower(name)]; ok {
		SetLogLevel(l)
	}
}

// GetLogLevel returns the current level.
func GetLogLevel() (l Level) {
	writerMx.Lock()
	defer writerMx.Unlock()
	return logLevel
}

// SetWriter redirects log output, primarily for tests.
func SetWriter(w io.Writer) {
	writerMx.Lock()
	defer writerMx.Unlock()
	writer = w
}

// GetLoc calls runtime.Caller to get the path of the calling source code
// file.
func GetLoc(skip int) (output string) {
	_, file, line, _ := runtime.Caller(skip)
	return fmt.Sprint(file, ":", line)
}

func getOnePrinter(level Level) LevelPrinter {
	return LevelPrinter{
		Ln:  _ln(level),
		F:   _f(level),
		S:   _s(level),
		Chk: _chk(level),
	}
}

func _ln(level Level) Println {
	return func(a ...interface{}) {
		logPrint(level, func() string { return joinStrings(" ", a...) })
	}
}

func _f(level Level) Printf {
	return func(format string, a ...interface{}) {
		logPrint(level, func() string { return fmt.Sprintf(format, a...) })
	}
}

func _s(level Level) Prints {
	return func(a ...interface{}) {
		logPrint(level, func() string { return "spew:\n" + spew.Sdump(a...) })
	}
}

func _chk(level Level) Chk {
	return func(e error) bool {
		if e != nil {
			logPrint(level, func() string { return "CHECK: " + e.Error() })
			return true
		}
		return false
	}
}

func joinStrings(sep string, a ...interface{}) (o string) {
	for i := range a {
		o += fmt.Sprint(a[i])
		if i < len(a)-1 {
			o += sep
		}
	}
	return
}

// logPrint is the generic printing function that provides the base format
// for log entries.
func logPrint(level Level, printFunc func() string) {
	writerMx.Lock()
	defer writerMx.Unlock()
	if level > logLevel {
		return
	}
	tag := lvlShort[level]
	if c, ok := lvlColor[level]; ok {
		tag = c(tag)
	}
	_, _ = fmt.Fprintf(writer, "%s %s %s %s\n",
		time.Now().Format("15:04:05.000000"),
		tag,
		printFunc(),
		GetLoc(3),
	)
}
