// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package coordinator

import (
	"fmt"

	"github.com/luxfi/epaxos/wire"
)

// errFromPayload turns a reply's structured ErrPayload back into an error,
// for wrapping inside epaxoserr.Replica when a self-call (which never
// crosses the network) still reports a rejection.
func errFromPayload(p *wire.ErrPayload) error {
	if p == nil {
		return nil
	}
	return fmt.Errorf("%s: field=%s problem=%s ctx=%s", p.Kind, p.Field, p.Problem, p.Ctx)
}
