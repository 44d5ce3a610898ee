package core

import (
	_ "embed"
	"os"

	"project-dependencies/internal/shared"
	"project-dependencies/internal/types"
)

// Registry holds descriptors in processing order. Built-ins come first in
// a fixed order; overrides replace a built-in with the same name or are
// appended.
type Registry struct {
	descriptors []types.Descriptor
	index       map[string]int
}

func NewRegistry(overrides []types.Descriptor) Registry {
	r := Registry{index: map[string]int{}}
	for _, d := range BuiltinDescriptors() {
		r.put(d)
	}
	for _, d := range overrides {
		r.put(d)
	}
	return r
}

func (r *Registry) put(d types.Descriptor) {
	if idx, ok := r.index[d.Name]; ok {
		r.descriptors[idx] = d
		return
	}
	r.index[d.Name] = len(r.descriptors)
	r.descriptors = append(r.descriptors, d)
}

func (r Registry) Lookup(name string) (types.Descriptor, bool) {
	idx, ok := r.index[name]
	if !ok {
		return types.Descriptor{}, false
	}
	return r.descriptors[idx], true
}

func (r Registry) All() []types.Descriptor {
	return append([]types.Descriptor(nil), r.descriptors...)
}

func (r Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		names = append(names, d.Name)
	}
	return names
}

const releases = "https://github.com/snowmeltarcade/project-dependencies/releases/download/"

var (
	iosVariants = []types.Platform{types.PlatformIOS, types.PlatformIOSSimulator}
	desktop     = []types.Platform{types.PlatformWindows, types.PlatformDarwin, types.PlatformLinux}
)

// BuiltinDescriptors returns the dependencies this tool knows out of the
// box, in the order the orchestrator processes them.
func BuiltinDescriptors() []types.Descriptor {
	return []types.Descriptor{
		clangDescriptor(),
		v8Descriptor(),
		sdlDescriptor(),
		sdlImageDescriptor(),
		sdlNetDescriptor(),
		sdlTTFDescriptor(),
		catch2Descriptor(),
		headerOnly("nlohmann_json", "3.9.1", "https://github.com/nlohmann/json.git", "v{version}"),
		libsodiumDescriptor(),
		sqlite3Descriptor(),
		glewDescriptor(),
		ninjaDescriptor(),
		headerOnly("glm", "0.9.9.8", "https://github.com/g-truc/glm.git", "{version}"),
		headerOnly("ranges-v3", "0.12.0", "https://github.com/ericniebler/range-v3.git", "{version}"),
		sailDescriptor(),
		vulkanDescriptor(),
		vulkanMemoryAllocatorDescriptor(),
	}
}

func clangDescriptor() types.Descriptor {
	llvm := "https://github.com/llvm/llvm-project/releases/download/llvmorg-{version}/clang+llvm-{version}"
	return types.Descriptor{
		Name:           "clang",
		DefaultVersion: "12.0.0",
		InstallDir:     "clang-12",
		Prebuilt: map[string]types.Prebuilt{
			"Windows": {URL: "https://github.com/richardjhughes/project-dependencies/releases/download/LLVM_{version}/LLVM_{version}_Windows.zip"},
			"Darwin":  {URL: llvm + "-x86_64-apple-darwin.tar.xz", Format: types.ArchiveFormatTarXz, StripComponents: 1},
			"Linux":   {URL: llvm + "-x86_64-linux-gnu-ubuntu-20.04.tar.xz", Format: types.ArchiveFormatTarXz, StripComponents: 1},
		},
		Markers: map[string][]types.Marker{
			"Windows":         {{"bin/clang-cl.exe"}},
			types.AnyPlatform: {{"bin/clang"}},
		},
	}
}

func v8Descriptor() types.Descriptor {
	general := `is_component_build=false is_debug=false target_cpu="x64" use_custom_libcxx=false v8_monolithic=true v8_use_external_startup_data=false`
	ios := `enable_ios_bitcode=true ios_deployment_target=10 is_component_build=false is_debug=false target_os="ios" use_custom_libcxx=false use_xcode_clang=true v8_enable_i18n_support=false v8_monolithic=true v8_use_external_startup_data=false v8_enable_pointer_compression=false`
	return types.Descriptor{
		Name:           "v8",
		DefaultVersion: "9.0",
		ArchiveName:    "v8_{version}{ext}",
		Variants:       iosVariants,
		Prebuilt: map[string]types.Prebuilt{
			"Windows":       {URL: releases + "v8_{version}_Windows/v8_{version}.zip"},
			"Darwin":        {URL: "https://github.com/richardjhughes/project-dependencies/releases/download/v8_{version}/v8_{version}_Darwin.zip"},
			"Linux":         {},
			"iOS":           {},
			"iOS_Simulator": {},
		},
		Recipes: map[string]types.Recipe{
			"Windows":         v8Recipe(".bat", ".exe", general+" is_clang=false"),
			types.AnyPlatform: v8Recipe("", "", general+" is_clang=true"),
			"iOS":             v8Recipe("", "", ios+` target_cpu="arm64"`),
			"iOS_Simulator":   v8Recipe("", "", ios+` target_cpu="x64"`),
		},
		Markers: map[string][]types.Marker{
			types.AnyPlatform: {
				{"libv8_libbase.a", "v8_libbase.lib"},
				{"libv8_libplatform.a", "v8_libplatform.lib"},
				{"libv8_monolith.a", "v8_monolith.lib"},
				{"libwee8.a", "wee8.lib"},
				{"include"},
			},
		},
	}
}

// v8Recipe drives depot_tools: fetch the checkout, pin the release branch,
// generate with gn and build with ninja.
func v8Recipe(scriptExt string, exeExt string, gnArgs string) types.Recipe {
	depot := "{work}/depot_tools/"
	env := map[string]string{
		"PATH":                      "{work}/depot_tools" + string(os.PathListSeparator) + "${PATH}",
		"DEPOT_TOOLS_WIN_TOOLCHAIN": "0",
	}
	return types.Recipe{
		Steps: []types.Step{
			{Tool: "git", Args: []string{"clone", "https://chromium.googlesource.com/chromium/tools/depot_tools.git"}, Dir: "{work}"},
			{Tool: depot + "gclient" + scriptExt, Dir: "{work}", Env: env},
			{Tool: depot + "fetch" + scriptExt, Args: []string{"v8"}, Dir: "{work}", Env: env},
			{Tool: "git", Args: []string{"fetch"}, Dir: "{work}/v8"},
			{Tool: "git", Args: []string{"checkout", "-b", "branch-heads/{version}"}, Dir: "{work}/v8"},
			{Tool: depot + "gclient" + scriptExt, Args: []string{"sync"}, Dir: "{work}/v8", Env: env},
			{Tool: depot + "gn" + scriptExt, Args: []string{"gen", "{build}", "--args=" + gnArgs}, Dir: "{work}/v8", Env: env},
			{Tool: depot + "ninja" + exeExt, Args: []string{"-C", "{build}", "v8_monolith"}, Dir: "{work}/v8", Env: env},
		},
		Outputs: []types.Output{
			{From: "{work}/v8/include", To: "include"},
			{From: "{build}/obj", Match: []string{"*.a", "*.lib"}},
		},
	}
}

func sdlDescriptor() types.Descriptor {
	recipes := map[string]types.Recipe{
		types.AnyPlatform: cmakeRecipe(nil, sdlOutputs("libSDL2*.a", "SDL2*.lib")),
		"iOS": cmakeRecipe([]string{
			"-DCMAKE_SYSTEM_NAME=iOS",
			"-DCMAKE_OSX_ARCHITECTURES=arm64",
			"-DSDL_SHARED=OFF",
		}, sdlOutputs("libSDL2*.a")),
		"iOS_Simulator": cmakeRecipe([]string{
			"-DCMAKE_SYSTEM_NAME=iOS",
			"-DCMAKE_OSX_SYSROOT=iphonesimulator",
			"-DCMAKE_OSX_ARCHITECTURES=x86_64",
			"-DSDL_SHARED=OFF",
		}, sdlOutputs("libSDL2*.a")),
	}
	return types.Descriptor{
		Name:           "sdl",
		DefaultVersion: "2.0.14",
		ArchiveName:    "sdl_{version}{ext}",
		Variants:       iosVariants,
		Source:         gitSource("https://github.com/libsdl-org/SDL.git", "release-{version}"),
		Recipes:        recipes,
		Markers: map[string][]types.Marker{
			types.AnyPlatform: {{"libSDL2.a", "SDL2.lib", "SDL2-static.lib"}, {"include"}},
		},
	}
}

func sdlOutputs(libs ...string) []types.Output {
	return []types.Output{
		{From: "{install}/include/SDL2", To: "include/SDL2"},
		{From: "{install}/lib", Match: libs},
	}
}

func sdlImageDescriptor() types.Descriptor {
	return types.Descriptor{
		Name:           "sdl_image",
		DefaultVersion: "2.0.5",
		Prebuilt:       emptyPrebuilt(desktop...),
		Source:         gitSource("https://github.com/libsdl-org/SDL_image.git", "release-{version}"),
		Recipes: map[string]types.Recipe{
			types.AnyPlatform: autotoolsRecipe(true, []types.Output{
				{From: "{install}/include/SDL2", To: "include/SDL2"},
				{From: "{install}/lib", Match: []string{"libSDL2_image*.a"}},
			}),
		},
		Markers: map[string][]types.Marker{
			types.AnyPlatform: {{"libSDL2_image.a"}, {"include/SDL2/SDL_image.h"}},
		},
	}
}

func sdlNetDescriptor() types.Descriptor {
	return types.Descriptor{
		Name:           "sdl_net",
		DefaultVersion: "2.2.0",
		Variants:       iosVariants,
		Prebuilt:       platformPrebuilt(releases+"SDL_net_{version}/{version}_{platform}.zip", "Windows", "Darwin", "Linux", "iOS", "iOS_Simulator"),
		Source:         gitSource("https://github.com/libsdl-org/SDL_net.git", "release-{version}"),
		Recipes: map[string]types.Recipe{
			types.AnyPlatform: autotoolsRecipe(true, []types.Output{
				{From: "{install}/include/SDL2", To: "include/SDL2"},
				{From: "{install}/lib/libSDL2_net.a"},
			}),
		},
		Markers: map[string][]types.Marker{
			types.AnyPlatform: {{"libSDL2_net.a", "SDL2_net.lib"}, {"include/SDL2/SDL_net.h"}},
		},
	}
}

func sdlTTFDescriptor() types.Descriptor {
	return types.Descriptor{
		Name:           "sdl_ttf",
		DefaultVersion: "2.20.2",
		Variants:       iosVariants,
		Prebuilt:       platformPrebuilt(releases+"SDL_ttf_{version}/{version}_{platform}.zip", "Windows", "Darwin", "Linux", "iOS", "iOS_Simulator"),
		Source:         gitSource("https://github.com/libsdl-org/SDL_ttf.git", "release-{version}"),
		Recipes: map[string]types.Recipe{
			types.AnyPlatform: cmakeRecipe([]string{"-DBUILD_SHARED_LIBS=off"}, []types.Output{
				{From: "{install}/include/SDL2", To: "include/SDL2"},
				{From: "{install}/lib", Match: []string{"libSDL2_ttf*.a", "SDL2_ttf*.lib"}},
				{From: "{install}/share/licenses/SDL2_ttf/LICENSE.txt", To: "share/licenses/SDL2_ttf", Optional: true},
			}),
		},
		Markers: map[string][]types.Marker{
			types.AnyPlatform: {{"libSDL2_ttf.a", "SDL2_ttf.lib", "SDL2_ttf-static.lib"}, {"include/SDL2/SDL_ttf.h"}},
		},
	}
}

func catch2Descriptor() types.Descriptor {
	return types.Descriptor{
		Name:            "catch2",
		DefaultVersion:  "3.4.0",
		PlatformNeutral: true,
		Prebuilt: map[string]types.Prebuilt{
			types.AnyPlatform: {URL: releases + "catch2_{version}/{version}.zip"},
		},
		Source: gitSource("https://github.com/catchorg/Catch2.git", "v{version}"),
		Recipes: map[string]types.Recipe{
			types.AnyPlatform: cmakeRecipe(nil, []types.Output{{From: "{install}"}}),
		},
		Markers: map[string][]types.Marker{
			types.AnyPlatform: {{"include/catch2/catch_all.hpp"}},
		},
	}
}

// headerOnly describes a library whose source tree is the artifact.
func headerOnly(name string, version string, repo string, ref string) types.Descriptor {
	return types.Descriptor{
		Name:            name,
		DefaultVersion:  version,
		PlatformNeutral: true,
		Source:          gitSource(repo, ref),
		Recipes: map[string]types.Recipe{
			types.AnyPlatform: {Outputs: []types.Output{{From: "{source}"}}},
		},
	}
}

func libsodiumDescriptor() types.Descriptor {
	autogen := types.Step{Tool: "sh", Args: []string{"autogen.sh"}}
	return types.Descriptor{
		Name:           "libsodium",
		DefaultVersion: "1.0.18",
		Variants:       []types.Platform{types.PlatformIOS},
		Prebuilt: mergePrebuilt(
			platformPrebuilt(releases+"libSodium_{version}/{version}_{platform}.zip", "Windows", "Darwin", "iOS"),
			emptyPrebuilt(types.PlatformLinux),
		),
		Source: gitSource("https://github.com/jedisct1/libsodium.git", "{version}"),
		Recipes: map[string]types.Recipe{
			"Darwin": {
				Steps:   []types.Step{autogen, {Tool: "sh", Args: []string{"./dist-build/osx.sh"}}},
				Outputs: sodiumOutputs("{source}/libsodium-osx"),
			},
			"iOS": {
				Steps:   []types.Step{autogen, {Tool: "sh", Args: []string{"./dist-build/ios.sh"}}},
				Outputs: sodiumOutputs("{source}/libsodium-ios"),
			},
			"Linux": autotoolsRecipe(true, sodiumOutputs("{install}")),
		},
		Markers: map[string][]types.Marker{
			"Windows": {{"lib/libsodium.lib"}, {"include/sodium.h"}},
			"Linux":   {{"lib/libsodium.a"}, {"lib/libsodium.la"}, {"lib/libsodium.so"}, {"include/sodium.h"}},
			"Darwin":  {{"lib/libsodium.a"}, {"lib/libsodium.dylib"}, {"include/sodium.h"}},
			"iOS":     {{"lib/libsodium.a"}, {"include/sodium.h"}},
		},
	}
}

func sodiumOutputs(prefix string) []types.Output {
	return []types.Output{
		{From: prefix + "/lib", To: "lib"},
		{From: prefix + "/include", To: "include"},
	}
}

// sqliteCMakeLists is packed next to the amalgamation unless the recipe
// directory provides its own.
//
//go:embed recipes/sqlite3/CMakeLists.txt
var sqliteCMakeLists string

func sqlite3Descriptor() types.Descriptor {
	steps := []types.Step{
		{Tool: "sh", Args: []string{"./configure"}},
		{Tool: "make", Args: []string{"sqlite3.c"}},
	}
	return types.Descriptor{
		Name:            "sqlite3",
		DefaultVersion:  "3.35.5",
		PlatformNeutral: true,
		Source:          gitSource("https://github.com/sqlite/sqlite.git", "version-{version}"),
		Recipes: map[string]types.Recipe{
			types.AnyPlatform: {
				Steps: steps,
				Outputs: []types.Output{
					{From: "{recipe}/CMakeLists.txt", Fallback: sqliteCMakeLists},
					{From: "{source}/sqlite3.h", To: "include"},
					{From: "{source}/sqlite3ext.h", To: "include"},
					{From: "{source}/sqlite3.c", To: "src"},
				},
			},
		},
		Markers: map[string][]types.Marker{
			types.AnyPlatform: {{"CMakeLists.txt"}, {"src/sqlite3.c"}, {"include/sqlite3.h"}, {"include/sqlite3ext.h"}},
		},
	}
}

func glewDescriptor() types.Descriptor {
	build := "{source}/build/cmake/build"
	return types.Descriptor{
		Name:           "glew",
		DefaultVersion: "2.2.0",
		Prebuilt: mergePrebuilt(
			platformPrebuilt(releases+"glew_{version}/{version}_{platform}.zip", "Darwin"),
			emptyPrebuilt(types.PlatformWindows, types.PlatformLinux),
		),
		Source: types.Source{
			Kind:   types.SourceKindArchive,
			URL:    "https://github.com/nigels-com/glew/releases/download/glew-{version}/glew-{version}.zip",
			Dir:    "glew-{version}",
			Format: types.ArchiveFormatZip,
		},
		Recipes: map[string]types.Recipe{
			types.AnyPlatform: {
				Steps: []types.Step{
					{Tool: "cmake", Args: []string{"-S", "{source}/build/cmake", "-B", build}},
					{Tool: "cmake", Args: []string{"--build", build, "--config", "Release"}},
				},
				Outputs: []types.Output{
					{From: build + "/lib", To: "lib"},
					{From: build + "/bin", To: "bin", Optional: true},
					{From: "{source}/include/GL", To: "include/GL"},
				},
			},
		},
		Markers: map[string][]types.Marker{
			"Windows": {{"lib/Release/glew32.lib", "lib/glew32.lib"}, {"include/GL/glew.h"}},
			"Darwin":  {{"lib/libGLEW.a"}, {"lib/libGLEW.dylib"}, {"include/GL/glew.h"}},
			"Linux":   {{"lib/libGLEW.a"}, {"lib/libGLEW.so"}, {"include/GL/glew.h"}},
		},
	}
}

func ninjaDescriptor() types.Descriptor {
	base := "https://github.com/ninja-build/ninja/releases/download/v{version}/"
	return types.Descriptor{
		Name:           "ninja",
		DefaultVersion: "1.10.2",
		Prebuilt: map[string]types.Prebuilt{
			"Windows": {URL: base + "ninja-win.zip"},
			"Darwin":  {URL: base + "ninja-mac.zip"},
			"Linux":   {URL: base + "ninja-linux.zip"},
		},
		Markers: map[string][]types.Marker{
			"Windows":         {{"ninja.exe"}},
			types.AnyPlatform: {{"ninja"}},
		},
	}
}

func sailDescriptor() types.Descriptor {
	return types.Descriptor{
		Name:           "sail",
		DefaultVersion: "v0.9.0-pre16",
		Source:         gitSource("https://github.com/HappySeaFox/sail.git", "{version}"),
		Recipes: map[string]types.Recipe{
			types.AnyPlatform: cmakeRecipe([]string{"-DSAIL_STATIC=ON"}, []types.Output{{From: "{install}"}}),
		},
		Markers: map[string][]types.Marker{
			types.AnyPlatform: {{"lib/libsail.a", "lib/sail.lib"}, {"include"}},
		},
	}
}

// vulkanDescriptor installs the LunarG SDK. Linux ships a tarball; on
// Darwin the disk image is mounted and its installer copies the SDK into
// {install}. The Windows SDK is an interactive installer and is not
// provisioned.
func vulkanDescriptor() types.Descriptor {
	mount := "{work}/mnt"
	image := "{work}/vulkan_sdk.dmg"
	return types.Descriptor{
		Name:           "vulkan",
		DefaultVersion: "1.2.198.1",
		Prebuilt: map[string]types.Prebuilt{
			"Linux": {
				URL:             "https://sdk.lunarg.com/sdk/download/{version}/linux/vulkan_sdk.tar.gz",
				Format:          types.ArchiveFormatTarGz,
				StripComponents: 1,
			},
		},
		Recipes: map[string]types.Recipe{
			"Darwin": {
				Steps: []types.Step{
					{Tool: "curl", Args: []string{"-fsSL", "-o", image, "https://sdk.lunarg.com/sdk/download/{version}/mac/vulkan_sdk.dmg"}, Dir: "{work}"},
					{Tool: "hdiutil", Args: []string{"attach", "-nobrowse", "-mountpoint", mount, image}, Dir: "{work}"},
					{Tool: mount + "/InstallVulkan.app/Contents/MacOS/InstallVulkan", Args: []string{"in", "-c", "--al", "-t", "{install}", "copy_only=1"}, Dir: "{work}"},
					{Tool: "hdiutil", Args: []string{"detach", mount}, Dir: "{work}"},
				},
				Outputs: []types.Output{{From: "{install}"}},
			},
		},
		Markers: map[string][]types.Marker{
			"Darwin":          {{"macOS/include/vulkan/vulkan.h"}},
			types.AnyPlatform: {{"x86_64/include/vulkan/vulkan.h"}},
		},
		Unsupported: []string{"Windows"},
	}
}

func vulkanMemoryAllocatorDescriptor() types.Descriptor {
	return types.Descriptor{
		Name:            "vulkan_memory_allocator",
		DefaultVersion:  "2.3.0",
		PlatformNeutral: true,
		Source:          gitSource("https://github.com/GPUOpen-LibrariesAndSDKs/VulkanMemoryAllocator.git", "v{version}"),
		Recipes: map[string]types.Recipe{
			types.AnyPlatform: {Outputs: []types.Output{{From: "{source}/src/vk_mem_alloc.h", To: "include"}}},
		},
		Markers: map[string][]types.Marker{
			types.AnyPlatform: {{"include/vk_mem_alloc.h"}},
		},
	}
}

func gitSource(url string, ref string) types.Source {
	return types.Source{Kind: types.SourceKindGit, URL: url, Ref: ref}
}

// cmakeRecipe configures, builds and installs a Release tree into
// {install}.
func cmakeRecipe(defines []string, outputs []types.Output) types.Recipe {
	configure := []string{"-S", "{source}", "-B", "{build}", "-DCMAKE_BUILD_TYPE=Release", "-DCMAKE_INSTALL_PREFIX={install}"}
	configure = append(configure, defines...)
	return types.Recipe{
		Steps: []types.Step{
			{Tool: "cmake", Args: configure},
			{Tool: "cmake", Args: []string{"--build", "{build}", "--config", "Release"}},
			{Tool: "cmake", Args: []string{"--install", "{build}", "--config", "Release", "--prefix", "{install}"}},
		},
		Outputs: outputs,
	}
}

func autotoolsRecipe(autogen bool, outputs []types.Output) types.Recipe {
	var steps []types.Step
	if autogen {
		steps = append(steps, types.Step{Tool: "sh", Args: []string{"autogen.sh"}})
	}
	steps = append(steps,
		types.Step{Tool: "sh", Args: []string{"./configure", "--prefix={install}"}},
		types.Step{Tool: "make"},
		types.Step{Tool: "make", Args: []string{"install"}},
	)
	return types.Recipe{Steps: steps, Outputs: outputs}
}

// platformPrebuilt expands {platform} in template for each cache name,
// leaving {version} for the builder.
func platformPrebuilt(template string, cacheNames ...string) map[string]types.Prebuilt {
	out := make(map[string]types.Prebuilt, len(cacheNames))
	for _, name := range cacheNames {
		out[name] = types.Prebuilt{URL: shared.ExpandPlaceholders(template, map[string]string{"platform": name})}
	}
	return out
}

// emptyPrebuilt marks platforms with no published binary.
func emptyPrebuilt(platforms ...types.Platform) map[string]types.Prebuilt {
	out := make(map[string]types.Prebuilt, len(platforms))
	for _, p := range platforms {
		out[p.CacheName()] = types.Prebuilt{}
	}
	return out
}

func mergePrebuilt(tables ...map[string]types.Prebuilt) map[string]types.Prebuilt {
	out := map[string]types.Prebuilt{}
	for _, table := range tables {
		for key, entry := range table {
			out[key] = entry
		}
	}
	return out
}
