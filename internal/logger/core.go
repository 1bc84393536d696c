package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore is a custom Zap Core that intercepts logs
type DBCore struct {
	zapcore.Core
	writer *DBLogWriter
}

// NewDBCore wraps an existing core (like console logger) and adds DB logging
func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter) zapcore.Core {
	return &DBCore{
		Core:   baseCore,
		writer: writer,
	}
}

// Write is called for every log entry
func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	// Persist warn and above; debug/info stay on the console only
	if entry.Level >= zapcore.WarnLevel {
		var doctype, docname, expr string

		enc := zapcore.NewMapObjectEncoder()
		for _, f := range fields {
			f.AddTo(enc)
			switch f.Key {
			case "doctype":
				doctype = f.String
			case "docname":
				docname = f.String
			case "expression":
				expr = f.String
			}
		}

		c.writer.AddLog(LogEntry{
			Level:      entry.Level,
			Message:    entry.Message,
			DocType:    doctype,
			DocName:    docname,
			Expression: expr,
			Caller:     entry.Caller.Function,
		})
	}

	// Call the underlying core (so it still prints to Console/File)
	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
