// Package mongox wraps connection setup and error classification for the
// MongoDB store.
package mongox

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Options bound how long Open may block.
type Options struct {
	ServerSelectionTimeout time.Duration
	ConnectTimeout         time.Duration
}

// Open connects to uri and pings the primary. The whole call is bounded by
// ConnectTimeout; server selection by ServerSelectionTimeout.
func Open(ctx context.Context, uri string, o Options) (*mongo.Client, error) {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.ServerSelectionTimeout <= 0 {
		o.ServerSelectionTimeout = 5 * time.Second
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(o.ServerSelectionTimeout).
		SetConnectTimeout(o.ConnectTimeout)

	ctx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// DuplicateKeyIndex returns the name of the unique index reported in a
// duplicate key error, or "" when err is something else.
func DuplicateKeyIndex(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return indexFromMessage(e.Message)
			}
		}
	}
	return ""
}

// indexFromMessage extracts "users_email_unique" from a server message like
// "E11000 duplicate key error collection: db.users index: users_email_unique dup key: {...}".
func indexFromMessage(msg string) string {
	_, rest, ok := strings.Cut(msg, "index: ")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, " ")
	return name
}
