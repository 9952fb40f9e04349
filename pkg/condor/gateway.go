// Package condor hands submit descriptions to an HTCondor scheduler daemon.
//
// A Gateway locates schedd daemons; a Schedd scopes submissions inside a
// Transaction. The CLI implementation drives condor_status, condor_submit and
// condor_rm so no HTCondor bindings are required at build time.
package condor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrScheddNotFound is returned when a named schedd cannot be located.
var ErrScheddNotFound = errors.New("schedd not found")

// Description maps submit-file attribute names to values.
type Description map[string]string

// Render returns the submit-file form of d with attributes in sorted order,
// terminated by a single queue statement.
func (d Description) Render() string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s = %s\n", k, d[k])
	}
	b.WriteString("queue\n")
	return b.String()
}

// Gateway finds scheduler daemons.
type Gateway interface {
	// Locate finds the schedd advertised under name.
	Locate(ctx context.Context, name string) (Schedd, error)
	// Default returns the locally configured schedd.
	Default(ctx context.Context) (Schedd, error)
}

// Schedd is a scheduler daemon accepting submissions.
type Schedd interface {
	Name() string
	// Transaction runs fn with a transaction; when fn fails, everything it
	// queued is removed again.
	Transaction(ctx context.Context, fn func(Transaction) error) error
}

// Transaction queues jobs against a schedd.
type Transaction interface {
	// Queue submits desc and returns the new cluster id.
	Queue(ctx context.Context, desc Description) (int, error)
}
