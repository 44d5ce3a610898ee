package policies

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"project-dependencies/internal/types"
)

func TestVariantPolicyPasses(t *testing.T) {
	mobile := types.Descriptor{Name: "sdl", Variants: []types.Platform{types.PlatformIOS, types.PlatformIOSSimulator}}
	desktopOnly := types.Descriptor{Name: "glew"}
	neutral := types.Descriptor{Name: "glm", PlatformNeutral: true}

	tests := []struct {
		name   string
		policy VariantPolicy
		desc   types.Descriptor
		want   []types.Platform
	}{
		{
			name:   "darwin adds variants",
			policy: NewVariantPolicy(types.PlatformDarwin),
			desc:   mobile,
			want:   []types.Platform{types.PlatformDarwin, types.PlatformIOS, types.PlatformIOSSimulator},
		},
		{
			name:   "linux skips variants",
			policy: NewVariantPolicy(types.PlatformLinux),
			desc:   mobile,
			want:   []types.Platform{types.PlatformLinux},
		},
		{
			name:   "no variants declared",
			policy: NewVariantPolicy(types.PlatformDarwin),
			desc:   desktopOnly,
			want:   []types.Platform{types.PlatformDarwin},
		},
		{
			name:   "neutral runs once",
			policy: NewVariantPolicy(types.PlatformDarwin),
			desc:   neutral,
			want:   []types.Platform{types.PlatformDarwin},
		},
		{
			name:   "disabled simulator",
			policy: NewVariantPolicy(types.PlatformDarwin).WithoutVariants(types.PlatformIOSSimulator),
			desc:   mobile,
			want:   []types.Platform{types.PlatformDarwin, types.PlatformIOS},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.policy.Passes(tt.desc)); diff != "" {
				t.Fatalf("unexpected passes (-want +got):\n%s", diff)
			}
		})
	}
}
