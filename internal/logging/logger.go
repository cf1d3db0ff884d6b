// Package logging is the structured logging facade used by the server, the
// admin tool and the services. SlogLogger is the production implementation.
package logging

import "context"

// Logger takes a message plus alternating keys and values:
//
//	log.Info(ctx, "conference created", "conference_id", id, "organizer_id", uid)
//
// Fields attached to ctx with ContextWith are added by implementations that
// support them.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(context.Context, string, ...any) {}
func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
