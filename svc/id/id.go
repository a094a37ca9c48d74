// Package id produces the short public identifiers used as storage keys and
// URL path segments. The backend has no atomic insert-if-absent, so collision
// checking is read-then-write; the retry loop turns the rare collision into a
// much rarer indistinguishable overwrite, accepted given the 62^12 space.
package id

import (
	"context"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkg/errors"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// ErrExhausted is returned when every candidate collided. Fatal for the
// enclosing create; callers must not retry.
var ErrExhausted = errors.New("id generation exhausted retries")

// ExistsFunc reports whether a record already lives under the candidate key.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

type Generator struct {
	length      int
	maxAttempts int
}

func NewGenerator(length, maxAttempts int) *Generator {
	if length < 8 {
		length = 8
	}
	if maxAttempts < 1 {
		maxAttempts = 10
	}
	return &Generator{length: length, maxAttempts: maxAttempts}
}

func (g *Generator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate, err := gonanoid.Generate(alphabet, g.length)
		if err != nil {
			return "", errors.Wrap(err, "rand fail")
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", errors.Wrap(err, "collision check")
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

var idShape = regexp.MustCompile(`^[A-Za-z0-9]{8,20}$`)

// ValidShape reports whether an inbound path segment even looks like one of
// our ids. Anything else is treated as not-found without a storage lookup.
func ValidShape(id string) bool {
	return idShape.MatchString(id)
}
