package policies

import (
	"project-dependencies/internal/types"
)

// VariantPolicy runs the host pass for every dependency and adds the iOS
// passes a descriptor declares when the host can produce them.
type VariantPolicy struct {
	Host     types.Platform
	Disabled map[types.Platform]bool
}

func NewVariantPolicy(host types.Platform) VariantPolicy {
	return VariantPolicy{Host: host}
}

// WithoutVariants returns a copy that never schedules the given variants.
func (p VariantPolicy) WithoutVariants(platforms ...types.Platform) VariantPolicy {
	disabled := make(map[types.Platform]bool, len(p.Disabled)+len(platforms))
	for platform, off := range p.Disabled {
		disabled[platform] = off
	}
	for _, platform := range platforms {
		disabled[platform] = true
	}
	p.Disabled = disabled
	return p
}

func (p VariantPolicy) Passes(d types.Descriptor) []types.Platform {
	passes := []types.Platform{p.Host}
	if p.Host != types.PlatformDarwin || d.PlatformNeutral {
		return passes
	}
	seen := map[types.Platform]bool{p.Host: true}
	for _, variant := range d.Variants {
		if !variant.IsVariant() || seen[variant] || p.Disabled[variant] {
			continue
		}
		seen[variant] = true
		passes = append(passes, variant)
	}
	return passes
}
