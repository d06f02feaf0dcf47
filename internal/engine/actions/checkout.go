package actions

import (
	"context"
	"fmt"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/zerr"
)

// Checkout copies the workflow root into the host workspace.
// The optional path input selects a directory below the workspace.
type Checkout struct {
	copier ports.SourceCopier
}

// Run implements Action.
func (c *Checkout) Run(ctx context.Context, inv *Invocation) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst, err := inv.Host.ResolvePath(inv.Input("path", "."))
	if err != nil {
		return nil, err
	}

	n, err := c.copier.CopyTree(inv.Root, dst)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCheckoutFailed.Error()), "path", dst)
	}
	_, _ = fmt.Fprintf(inv.Out, "Checked out %d files into %s\n", n, dst)

	return &Result{}, nil
}
