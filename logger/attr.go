package logger

import (
	"encoding/hex"
	"log/slog"
)

/*
Log attribute key values. Generally shouldn't be used directly, use
appropriate "attribute constructor function" instead.

Only define names here if they are common for multiple modules, module
specific names should be defined in the module.
*/
const (
	ErrorKey  = "err"
	DeployKey = "deploy_hash"
	ChainKey  = "chain"
	MethodKey = "method"
	NodeKey   = "node"
)

/*
Error adds error to the log

	if err := f(); err != nil {
		log.Error("calling f", logger.Error(err))
	}
*/
func Error(err error) slog.Attr {
	return slog.Any(ErrorKey, err)
}

// Deploy adds the hex deploy hash field.
func Deploy(hash []byte) slog.Attr {
	return slog.String(DeployKey, hex.EncodeToString(hash))
}

/*
Chain adds the chain name field.

This function should be used with logger.With() method to create a sub-logger
(rather than adding the Chain call to individual logging calls).
*/
func Chain(name string) slog.Attr {
	return slog.String(ChainKey, name)
}

// Method adds the RPC method name field.
func Method(name string) slog.Attr {
	return slog.String(MethodKey, name)
}

// Node adds the node address field.
func Node(addr string) slog.Attr {
	return slog.String(NodeKey, addr)
}

func formatTimeAttr(format string) func(groups []string, a slog.Attr) slog.Attr {
	switch format {
	case "":
		// whatever handler does by default...
		return nil
	case "none":
		return func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}
	default:
		return func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t := a.Value.Time(); !t.IsZero() {
					a.Value = slog.StringValue(t.Format(format))
				}
			}
			return a
		}
	}
}
