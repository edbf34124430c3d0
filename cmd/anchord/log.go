package main

import (
	"os"

	"github.com/btcsuite/btclog"
)

// Subsystem loggers, one per package this process drives directly, mirroring
// lnd.go's ltndLog/srvrLog/rpcsLog split so each subsystem's verbosity can be
// tuned independently.
var (
	mainLog   = newLogger("MAIN")
	syncLog   = newLogger("SYNC")
	rlyLog    = newLogger("RELY")
	rpcsLog   = newLogger("RPCS")
	auditLog  = newLogger("AUDT")
	healthLog = newLogger("HLTH")

	allLoggers = []btclog.Logger{mainLog, syncLog, rlyLog, rpcsLog, auditLog, healthLog}
)

func newLogger(subsystem string) btclog.Logger {
	l, err := btclog.NewLoggerFromWriter(prefixWriter{subsystem, os.Stdout}, btclog.InfoLvl)
	if err != nil {
		return btclog.Disabled
	}
	return l
}

// prefixWriter tags every log line with its subsystem, the way lnd.go's
// per-subsystem loggers are told apart in a single combined log stream.
type prefixWriter struct {
	subsystem string
	out       *os.File
}

func (w prefixWriter) Write(p []byte) (int, error) {
	if _, err := w.out.WriteString(w.subsystem + ": "); err != nil {
		return 0, err
	}
	return w.out.Write(p)
}

// setLogLevel assigns level to every subsystem logger.
func setLogLevel(level btclog.Level) {
	for _, l := range allLoggers {
		l.SetLevel(level)
	}
}

// btclogLevel parses a config-file level name, defaulting to Info on an
// unrecognized value rather than failing startup over a logging typo.
func btclogLevel(name string) btclog.Level {
	switch name {
	case "trace":
		return btclog.TraceLvl
	case "debug":
		return btclog.DebugLvl
	case "warn":
		return btclog.WarnLvl
	case "error":
		return btclog.ErrorLvl
	case "critical":
		return btclog.CriticalLvl
	default:
		return btclog.InfoLvl
	}
}
