package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"project-dependencies/internal/types"
)

type DescriptorChecker struct{}

var validTableKeys = map[string]struct{}{
	types.AnyPlatform:                      {},
	types.PlatformWindows.CacheName():      {},
	types.PlatformDarwin.CacheName():       {},
	types.PlatformLinux.CacheName():        {},
	types.PlatformIOS.CacheName():          {},
	types.PlatformIOSSimulator.CacheName(): {},
}

var validFormats = map[types.ArchiveFormat]struct{}{
	"":                       {},
	types.ArchiveFormatZip:   {},
	types.ArchiveFormatTarXz: {},
	types.ArchiveFormatTarGz: {},
}

func NewDescriptorChecker() DescriptorChecker {
	return DescriptorChecker{}
}

// ValidateRegistry checks every descriptor and rejects duplicate names.
func (c DescriptorChecker) ValidateRegistry(ctx context.Context, descriptors []types.Descriptor) error {
	seen := map[string]struct{}{}
	for _, d := range descriptors {
		if err := c.ValidateDescriptor(ctx, d); err != nil {
			return err
		}
		if _, ok := seen[d.Name]; ok {
			return invalidDescriptor(d.Name, "duplicate dependency name")
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

func (c DescriptorChecker) ValidateDescriptor(ctx context.Context, d types.Descriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("dependency name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return invalidDescriptor(name, "name must be a single path element")
	}
	if strings.TrimSpace(d.DefaultVersion) == "" {
		return invalidDescriptor(name, "default_version must be set")
	}
	if d.ArchiveName != "" && !strings.Contains(d.ArchiveName, "{version}") {
		return invalidDescriptor(name, "archive_name must contain {version}")
	}
	if err := validateVariants(d); err != nil {
		return err
	}
	if err := validatePrebuilt(d); err != nil {
		return err
	}
	if err := validateSource(d); err != nil {
		return err
	}
	if err := validateRecipes(d); err != nil {
		return err
	}
	if err := validateRoutes(d); err != nil {
		return err
	}
	for key := range d.Markers {
		if _, ok := validTableKeys[key]; !ok {
			return invalidDescriptor(name, fmt.Sprintf("unknown marker platform %q", key))
		}
	}
	return nil
}

func validateVariants(d types.Descriptor) error {
	if d.PlatformNeutral && len(d.Variants) > 0 {
		return invalidDescriptor(d.Name, "platform neutral dependencies cannot declare variants")
	}
	for _, variant := range d.Variants {
		if !variant.IsVariant() {
			return invalidDescriptor(d.Name, fmt.Sprintf("unsupported variant %q", variant))
		}
	}
	return nil
}

func validatePrebuilt(d types.Descriptor) error {
	for key, entry := range d.Prebuilt {
		if _, ok := validTableKeys[key]; !ok {
			return invalidDescriptor(d.Name, fmt.Sprintf("unknown prebuilt platform %q", key))
		}
		if _, ok := validFormats[entry.Format]; !ok {
			return invalidDescriptor(d.Name, fmt.Sprintf("unsupported archive format %q", entry.Format))
		}
		if entry.StripComponents < 0 {
			return invalidDescriptor(d.Name, "strip_components must not be negative")
		}
		if entry.URL == "" {
			continue
		}
		if err := validateURL(entry.URL); err != nil {
			return invalidDescriptor(d.Name, fmt.Sprintf("prebuilt %s: %v", key, err))
		}
	}
	return nil
}

func validateSource(d types.Descriptor) error {
	switch d.Source.Kind {
	case types.SourceKindNone:
		return nil
	case types.SourceKindGit, types.SourceKindArchive:
	default:
		return invalidDescriptor(d.Name, fmt.Sprintf("unsupported source kind %q", d.Source.Kind))
	}
	if d.Source.URL == "" {
		return invalidDescriptor(d.Name, "source url must be set")
	}
	if _, ok := validFormats[d.Source.Format]; !ok {
		return invalidDescriptor(d.Name, fmt.Sprintf("unsupported source format %q", d.Source.Format))
	}
	if d.Source.Kind == types.SourceKindArchive {
		if err := validateURL(d.Source.URL); err != nil {
			return invalidDescriptor(d.Name, fmt.Sprintf("source: %v", err))
		}
	}
	return nil
}

func validateRecipes(d types.Descriptor) error {
	for key, recipe := range d.Recipes {
		if _, ok := validTableKeys[key]; !ok {
			return invalidDescriptor(d.Name, fmt.Sprintf("unknown recipe platform %q", key))
		}
		if len(recipe.Outputs) == 0 {
			return invalidDescriptor(d.Name, fmt.Sprintf("recipe %s has no outputs", key))
		}
		for _, step := range recipe.Steps {
			if strings.TrimSpace(step.Tool) == "" {
				return invalidDescriptor(d.Name, fmt.Sprintf("recipe %s has a step without a tool", key))
			}
		}
		for _, output := range recipe.Outputs {
			if strings.TrimSpace(output.From) == "" {
				return invalidDescriptor(d.Name, fmt.Sprintf("recipe %s has an output without a source", key))
			}
		}
	}
	// A source build always packs a zip, so it cannot back a cache entry
	// stored in another format.
	for key, entry := range d.Prebuilt {
		if entry.URL == "" || entry.Format == "" || entry.Format == types.ArchiveFormatZip {
			continue
		}
		_, specific := d.Recipes[key]
		_, wildcard := d.Recipes[types.AnyPlatform]
		if specific || wildcard {
			return invalidDescriptor(d.Name, fmt.Sprintf("prebuilt %s is %s but a recipe would produce a zip", key, entry.Format))
		}
	}
	return nil
}

// validateRoutes requires a download or a recipe for every platform the
// dependency can be asked for, unless it is listed as unsupported.
func validateRoutes(d types.Descriptor) error {
	for _, key := range d.Unsupported {
		if _, ok := validTableKeys[key]; !ok || key == types.AnyPlatform {
			return invalidDescriptor(d.Name, fmt.Sprintf("unknown unsupported platform %q", key))
		}
	}
	platforms := append(append([]types.Platform(nil), desktop...), d.Variants...)
	for _, p := range platforms {
		if !Supported(d, p) {
			continue
		}
		if _, ok := PrebuiltFor(d, p); ok {
			continue
		}
		if _, ok := RecipeFor(d, p); ok {
			continue
		}
		return invalidDescriptor(d.Name, fmt.Sprintf("no prebuilt binary or build recipe for %s; add one or list it under unsupported", p.CacheName()))
	}
	return nil
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

func invalidDescriptor(name string, msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("dependency %s: %s", name, msg))
}
