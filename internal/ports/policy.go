package ports

import "project-dependencies/internal/types"

// VariantPolicyPort decides which platform passes a dependency gets on
// the current host.
type VariantPolicyPort interface {
	Passes(d types.Descriptor) []types.Platform
}
