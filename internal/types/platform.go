package types

// Platform is the install-tree spelling of a platform key.
type Platform string

const (
	PlatformWindows      Platform = "windows"
	PlatformDarwin       Platform = "darwin"
	PlatformLinux        Platform = "linux"
	PlatformIOS          Platform = "ios"
	PlatformIOSSimulator Platform = "ios_simulator"
	PlatformUnknown      Platform = "unknown"
)

// AnyPlatform keys descriptor tables that apply to every platform.
const AnyPlatform = "*"

// CacheName returns the spelling used for archive cache directories and
// file names, e.g. "iOS_Simulator".
func (p Platform) CacheName() string {
	switch p {
	case PlatformWindows:
		return "Windows"
	case PlatformDarwin:
		return "Darwin"
	case PlatformLinux:
		return "Linux"
	case PlatformIOS:
		return "iOS"
	case PlatformIOSSimulator:
		return "iOS_Simulator"
	default:
		return "unknown"
	}
}

// IsVariant reports whether p is an extra pass that only a Darwin host can
// produce.
func (p Platform) IsVariant() bool {
	return p == PlatformIOS || p == PlatformIOSSimulator
}
