package core

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"project-dependencies/internal/types"
)

// HostPlatform maps a GOOS value to its platform key.
func HostPlatform(goos string) types.Platform {
	switch goos {
	case "windows":
		return types.PlatformWindows
	case "darwin":
		return types.PlatformDarwin
	case "linux":
		return types.PlatformLinux
	default:
		return types.PlatformUnknown
	}
}

// CurrentPlatform is HostPlatform for the running binary.
func CurrentPlatform() types.Platform {
	return HostPlatform(runtime.GOOS)
}

// ParseVariant accepts the spellings the CLI flags use for the iOS passes.
func ParseVariant(name string) (types.Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ios":
		return types.PlatformIOS, true
	case "ios_simulator", "ios-simulator", "iossim":
		return types.PlatformIOSSimulator, true
	default:
		return types.PlatformUnknown, false
	}
}

// ResolvePlatform applies the iOS flags to a host platform. iOS wins when
// both flags are set. The variants can only be produced on a Darwin host.
func ResolvePlatform(host types.Platform, ios bool, iosSimulator bool) (types.Platform, error) {
	if !ios && !iosSimulator {
		return host, nil
	}
	if host != types.PlatformDarwin {
		return types.PlatformUnknown, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("iOS builds require a darwin host, running on %s", host))
	}
	if ios {
		return types.PlatformIOS, nil
	}
	return types.PlatformIOSSimulator, nil
}
