// Package enrollment persists one mean face embedding per identity.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kozaktomas/whereabouts/internal/facematch"
)

// Store persists enrollment embeddings keyed by identity.
type Store interface {
	// Save stores the embedding for identity, replacing any previous record.
	Save(ctx context.Context, identity string, embedding []float32) error
	// Load returns every stored identity ordered by identity name.
	// A single malformed record fails the whole load.
	Load(ctx context.Context) ([]facematch.Reference, error)
}

// Deleter is implemented by stores that can remove an enrollment.
// Deleting an identity that is not enrolled is not an error.
type Deleter interface {
	Delete(ctx context.Context, identity string) error
}

// ErrInvalidIdentity is returned for identities that cannot be used as record keys.
var ErrInvalidIdentity = errors.New("invalid identity")

// FormatError reports a stored record that does not hold a 1-D numeric vector.
type FormatError struct {
	Source string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("embedding %s: %s", e.Source, e.Reason)
}

// ValidateIdentity checks that identity is usable as a file name and table key.
func ValidateIdentity(identity string) error {
	if strings.TrimSpace(identity) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidIdentity)
	}
	if strings.ContainsAny(identity, `/\`) || identity == "." || identity == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidIdentity, identity)
	}
	return nil
}
