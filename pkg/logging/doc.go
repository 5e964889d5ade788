// Package logging provides a process-wide structured logger for pqleval.
//
// The package wraps [log/slog] and exposes a single global logger instance
// that is initialized once and then retrieved via GetLogger. The evaluator,
// catalog adapters and the CLI obtain their loggers here, so that level and
// output destination are controlled from a single place. Library callers can
// instead hand an explicit *slog.Logger to eval.New.
//
// # Initialisation
//
// Call Init once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, OutputPath: "/var/log/pqleval/eval.log"}); err != nil {
//	    log.Fatal(err)
//	}
//
// # Retrieving the logger
//
//	logger := logging.GetLogger()
//	logger.Info("catalog loaded", "globals", n)
//
// If GetLogger is called before Init, it installs an INFO-level text logger
// on stderr.
//
// # Context helpers
//
// Several helpers return child loggers pre-populated with structured fields:
//
//	log := logging.WithStatement(id)          // adds statement field
//	log = logging.WithRun(log, runID)         // adds run field
//	log = logging.WithOperator(log, "Sort")   // adds operator field
//	log = logging.WithError(log, err)         // adds error, kind and op fields
package logging
