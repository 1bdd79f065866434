package xlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AntsXLogger routes the goroutine pool panics and errors.
type AntsXLogger struct {
	logger XLogger
}

func (l *AntsXLogger) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Logf(zapcore.ErrorLevel, format, args...)
}

func NewAntsXLogger(logger XLogger) *AntsXLogger {
	return &AntsXLogger{
		logger: newComponentXLogger(logger, "Ants"),
	}
}

// newComponentXLogger names a child logger whose core drops the caller
// and function fields but shares the parent's level and output.
func newComponentXLogger(logger XLogger, name string) XLogger {
	parent, ok := logger.(*xLogger)
	if !ok || parent == nil {
		panic("[xlog] logger is not created by NewXLogger")
	}
	l := &xLogger{
		ctxFields:           parent.ctxFields,
		dynamicLevelEnabler: parent.dynamicLevelEnabler,
		ws:                  parent.ws,
		encoder:             parent.encoder,
	}
	l.logger.Store(logger.
		zap().
		Named(name).
		WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			if core == nil {
				panic("[xlog] core is nil")
			}
			cc, ok := core.(xLogCore)
			if !ok {
				panic("[xlog] core is not xLogCore")
			}
			return wrapCore(cc, componentCoreEncoderCfg)
		})),
	)
	return l
}
