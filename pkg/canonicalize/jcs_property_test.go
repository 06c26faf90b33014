//go:build property
// +build property

package canonicalize_test

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/mindburn-labs/governor/core/pkg/canonicalize"
)

// TestJCSIdempotence verifies canonicalize(canonicalize(x)) == canonicalize(x):
// re-canonicalizing an already-canonical byte string is a no-op, the
// property the PDO hash chain relies on when a caller re-hashes a stored
// artifact.
func TestJCSIdempotence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("re-canonicalizing canonical JSON is a no-op", prop.ForAll(
		func(keys []string, values []string) bool {
			obj := make(map[string]interface{})
			for i := 0; i < len(keys) && i < len(values); i++ {
				if keys[i] != "" {
					obj[keys[i]] = values[i]
				}
			}

			once, err := canonicalize.JCS(obj)
			if err != nil {
				return true
			}

			var reloaded map[string]interface{}
			if err := json.Unmarshal(once, &reloaded); err != nil {
				return false
			}

			twice, err := canonicalize.JCS(reloaded)
			if err != nil {
				return false
			}

			return string(once) == string(twice)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("canonical hash is deterministic for the same input", prop.ForAll(
		func(a, b, c string) bool {
			obj := map[string]interface{}{"a": a, "b": b, "c": c}

			h1, err := canonicalize.CanonicalHash(obj)
			if err != nil {
				return true
			}
			h2, err := canonicalize.CanonicalHash(obj)
			if err != nil {
				return false
			}
			return h1 == h2
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
