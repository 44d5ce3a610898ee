package adapters

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"project-dependencies/internal/types"
)

func TestArchiveStorePackAndExtract(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "include"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "include", "sodium.h"), []byte("header"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "ninja"), []byte("#!/bin/sh"), 0755))

	store := NewArchiveStoreAdapter()
	archive := filepath.Join(t.TempDir(), "lib", "Linux", "1.0_Linux.zip")
	require.False(t, store.Exists(archive))

	err := store.Pack(archive, []types.ArchiveEntry{
		{Source: filepath.Join(src, "include", "sodium.h"), Name: "include/sodium.h"},
		{Source: filepath.Join(src, "ninja"), Name: "ninja"},
	})
	require.NoError(t, err)
	require.True(t, store.Exists(archive))

	dest := t.TempDir()
	require.NoError(t, store.Extract(context.Background(), archive, dest, types.ArchiveFormatZip, 0))

	data, err := os.ReadFile(filepath.Join(dest, "include", "sodium.h"))
	require.NoError(t, err)
	assert.Equal(t, "header", string(data))

	info, err := os.Stat(filepath.Join(dest, "ninja"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0100, "executable bit should survive")
}

func TestArchiveStorePackFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "out.zip")
	err := NewArchiveStoreAdapter().Pack(archive, []types.ArchiveEntry{
		{Source: filepath.Join(dir, "missing.a"), Name: "missing.a"},
	})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestArchiveStoreRejectsEscapingNames(t *testing.T) {
	tests := []struct {
		name   string
		format types.ArchiveFormat
		write  func(t *testing.T, archive string)
	}{
		{
			name:   "parent entry name",
			format: types.ArchiveFormatZip,
			write: func(t *testing.T, archive string) {
				f, err := os.Create(archive)
				require.NoError(t, err)
				w := zip.NewWriter(f)
				out, err := w.Create("../evil.txt")
				require.NoError(t, err)
				_, err = out.Write([]byte("x"))
				require.NoError(t, err)
				require.NoError(t, w.Close())
				require.NoError(t, f.Close())
			},
		},
		{
			name:   "symlink chained through an earlier symlink",
			format: types.ArchiveFormatTarGz,
			write: func(t *testing.T, archive string) {
				var buf bytes.Buffer
				gz := gzip.NewWriter(&buf)
				tw := tar.NewWriter(gz)
				require.NoError(t, tw.WriteHeader(&tar.Header{Name: "y", Linkname: ".", Typeflag: tar.TypeSymlink}))
				require.NoError(t, tw.WriteHeader(&tar.Header{Name: "x", Linkname: "y/..", Typeflag: tar.TypeSymlink}))
				require.NoError(t, tw.WriteHeader(&tar.Header{Name: "x/evil.txt", Mode: 0644, Size: 1, Typeflag: tar.TypeReg}))
				_, err := tw.Write([]byte("x"))
				require.NoError(t, err)
				require.NoError(t, tw.Close())
				require.NoError(t, gz.Close())
				require.NoError(t, os.WriteFile(archive, buf.Bytes(), 0644))
			},
		},
		{
			name:   "file written through a symlinked directory",
			format: types.ArchiveFormatZip,
			write: func(t *testing.T, archive string) {
				f, err := os.Create(archive)
				require.NoError(t, err)
				w := zip.NewWriter(f)
				header := &zip.FileHeader{Name: "up"}
				header.SetMode(os.ModeSymlink | 0777)
				out, err := w.CreateHeader(header)
				require.NoError(t, err)
				_, err = out.Write([]byte(".."))
				require.NoError(t, err)
				out, err = w.Create("up/evil.txt")
				require.NoError(t, err)
				_, err = out.Write([]byte("x"))
				require.NoError(t, err)
				require.NoError(t, w.Close())
				require.NoError(t, f.Close())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "evil.archive")
			tt.write(t, archive)

			dest := filepath.Join(dir, "dest")
			err := NewArchiveStoreAdapter().Extract(context.Background(), archive, dest, tt.format, 0)
			require.Error(t, err)
			assert.NoFileExists(t, filepath.Join(dir, "evil.txt"))
		})
	}
}

func TestArchiveStoreExtractsInternalSymlinkChain(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "sdk.tar.gz")
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "lib/libz.so.1.2", Mode: 0644, Size: 1, Typeflag: tar.TypeReg}))
	_, err := tw.Write([]byte("z"))
	require.NoError(t, err)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "lib/libz.so.1", Linkname: "libz.so.1.2", Typeflag: tar.TypeSymlink}))
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "current", Linkname: "lib", Typeflag: tar.TypeSymlink}))
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "libz.so", Linkname: "current/libz.so.1", Typeflag: tar.TypeSymlink}))
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(archive, buf.Bytes(), 0644))

	dest := filepath.Join(dir, "out")
	require.NoError(t, NewArchiveStoreAdapter().Extract(context.Background(), archive, dest, types.ArchiveFormatTarGz, 0))
	data, err := os.ReadFile(filepath.Join(dest, "libz.so"))
	require.NoError(t, err)
	assert.Equal(t, "z", string(data))
}

func TestArchiveStoreExtractLZMAZip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "v8.zip")
	f, err := os.Create(archive)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	w.RegisterCompressor(zipMethodLZMA, func(out io.Writer) (io.WriteCloser, error) {
		return &lzmaEntryWriter{out: out}, nil
	})
	content := bytes.Repeat([]byte("monolith"), 512)
	entry, err := w.CreateHeader(&zip.FileHeader{Name: "lib/libv8_monolith.a", Method: zipMethodLZMA})
	require.NoError(t, err)
	_, err = entry.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	dest := filepath.Join(dir, "out")
	require.NoError(t, NewArchiveStoreAdapter().Extract(context.Background(), archive, dest, types.ArchiveFormatZip, 0))
	data, err := os.ReadFile(filepath.Join(dest, "lib", "libv8_monolith.a"))
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLZMADecompressorRejectsBadHeader(t *testing.T) {
	rc := lzmaDecompressor(bytes.NewReader([]byte{9, 20, 4, 0, 1, 2, 3, 4}))
	_, err := io.ReadAll(rc)
	require.Error(t, err)
	assert.NoError(t, rc.Close())
}

// lzmaEntryWriter buffers an entry and writes it in the zip LZMA layout
// when closed.
type lzmaEntryWriter struct {
	out io.Writer
	buf bytes.Buffer
}

func (w *lzmaEntryWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *lzmaEntryWriter) Close() error {
	var raw bytes.Buffer
	lw, err := lzma.WriterConfig{EOSMarker: true}.NewWriter(&raw)
	if err != nil {
		return err
	}
	if _, err := lw.Write(w.buf.Bytes()); err != nil {
		return err
	}
	if err := lw.Close(); err != nil {
		return err
	}
	stream := raw.Bytes()
	if _, err := w.out.Write([]byte{9, 20, 5, 0}); err != nil {
		return err
	}
	if _, err := w.out.Write(stream[:5]); err != nil {
		return err
	}
	_, err = w.out.Write(stream[13:])
	return err
}

func TestArchiveStoreExtractTarGzStrip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "sdk.tar.gz")
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	writeTar(t, gz, map[string]string{
		"1.2.198.1/x86_64/include/vulkan/vulkan.h": "vk",
		"1.2.198.1/setup-env.sh":                   "env",
	})
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(archive, buf.Bytes(), 0644))

	dest := filepath.Join(dir, "out")
	require.NoError(t, NewArchiveStoreAdapter().Extract(context.Background(), archive, dest, types.ArchiveFormatTarGz, 1))
	assert.FileExists(t, filepath.Join(dest, "x86_64", "include", "vulkan", "vulkan.h"))
	assert.FileExists(t, filepath.Join(dest, "setup-env.sh"))
}

func TestArchiveStoreExtractTarXzWithSymlink(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "clang.tar.xz")
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	tw := tar.NewWriter(xw)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "clang+llvm/bin/clang-12", Mode: 0755, Size: 5, Typeflag: tar.TypeReg}))
	_, err = tw.Write([]byte("clang"))
	require.NoError(t, err)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "clang+llvm/bin/clang", Linkname: "clang-12", Typeflag: tar.TypeSymlink}))
	require.NoError(t, tw.Close())
	require.NoError(t, xw.Close())
	require.NoError(t, os.WriteFile(archive, buf.Bytes(), 0644))

	dest := filepath.Join(dir, "out")
	require.NoError(t, NewArchiveStoreAdapter().Extract(context.Background(), archive, dest, types.ArchiveFormatTarXz, 1))
	data, err := os.ReadFile(filepath.Join(dest, "bin", "clang"))
	require.NoError(t, err)
	assert.Equal(t, "clang", string(data))
}

func TestArchiveStoreUnsupportedFormat(t *testing.T) {
	err := NewArchiveStoreAdapter().Extract(context.Background(), "a.rar", t.TempDir(), types.ArchiveFormat("rar"), 0)
	require.Error(t, err)
}

func TestEntryTarget(t *testing.T) {
	target, ok, err := entryTarget("/dest", "top/bin/clang", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/dest", "bin", "clang"), target)

	_, ok, err = entryTarget("/dest", "top/", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = entryTarget("/dest", "/etc/passwd", 0)
	require.Error(t, err)
}

func writeTar(t *testing.T, w io.Writer, files map[string]string) {
	t.Helper()
	tw := tar.NewWriter(w)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(content)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
}
