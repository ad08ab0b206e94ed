package service

import "go.uber.org/zap"

// Log is the shared application logger. It defaults to a nop logger so
// library-style use (and tests) never nil-panic; main swaps in the real one.
var Log = zap.NewNop().Sugar()

func InitLogger() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	Log = logger.Sugar()
	zap.ReplaceGlobals(logger)
}
