package cli

import (
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"project-dependencies/internal/app"
	"project-dependencies/internal/core"
	"project-dependencies/internal/types"
)

func newAppService() app.Service {
	var output io.Writer
	if viper.GetString("log_level") == "debug" {
		output = os.Stderr
	}
	return app.NewService(app.Config{
		HTTPTimeoutSec:   viper.GetInt("http.timeout_sec"),
		HTTPRetries:      viper.GetInt("http.retries"),
		HTTPRetryDelayMs: viper.GetInt("http.retry_delay_ms"),
		Tools:            viper.GetStringMapString("tools"),
		KeepWork:         viper.GetBool("keep_work"),
		SkipVariants:     skipVariants(viper.GetStringSlice("skip_variants")),
		Output:           output,
	})
}

// skipVariants maps the skip_variants setting to platforms. Unknown names
// are reported and ignored.
func skipVariants(names []string) []types.Platform {
	var platforms []types.Platform
	for _, name := range names {
		platform, ok := core.ParseVariant(name)
		if !ok {
			log.Warn().Str("variant", name).Msg("ignoring unknown entry in skip_variants")
			continue
		}
		platforms = append(platforms, platform)
	}
	return platforms
}

// scope returns the recipe root and registry override shared by every
// command. Both persistent flags are bound to viper.
func scope() (string, string) {
	return viper.GetString("root"), viper.GetString("registry")
}
