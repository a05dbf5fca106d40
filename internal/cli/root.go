// Package cli implements the consciousday-admin commands.
package cli

import (
	"context"
	"io"

	"github.com/ayush/consciousday/backend/internal/auth"
	"github.com/ayush/consciousday/backend/internal/config"
	"github.com/ayush/consciousday/backend/internal/store"
)

// Context is passed to every command's Run method.
type Context struct {
	Config *config.Config
	Out    io.Writer
}

func (c *Context) credentials() (*auth.CredentialStore, error) {
	return auth.LoadCredentials(c.Config.CredentialsPath, c.Config.RequirePreauthorized)
}

func (c *Context) entries(ctx context.Context) (store.Entries, error) {
	return store.OpenEntries(ctx, c.Config)
}
