package adapters

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz"

	"project-dependencies/internal/ports"
	"project-dependencies/internal/types"
)

// ArchiveStoreAdapter reads and writes archive cache entries. Everything
// this tool packs is a zip; downloads may also be tar.xz or tar.gz.
type ArchiveStoreAdapter struct{}

func NewArchiveStoreAdapter() ArchiveStoreAdapter {
	return ArchiveStoreAdapter{}
}

func (a ArchiveStoreAdapter) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Pack writes entries to a temp file next to dest and renames it into
// place, so dest either does not exist or is complete.
func (a ArchiveStoreAdapter) Pack(dest string, entries []types.ArchiveEntry) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return packError(dest, err)
	}
	tmp, err := os.CreateTemp(dir, ".pack-*.tmp")
	if err != nil {
		return packError(dest, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	writer := zip.NewWriter(tmp)
	for _, entry := range entries {
		if err := addZipEntry(writer, entry); err != nil {
			writer.Close()
			tmp.Close()
			return packError(dest, err)
		}
	}
	if err := writer.Close(); err != nil {
		tmp.Close()
		return packError(dest, err)
	}
	if err := tmp.Close(); err != nil {
		return packError(dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return packError(dest, err)
	}
	return nil
}

func addZipEntry(writer *zip.Writer, entry types.ArchiveEntry) error {
	name, ok := cleanEntryName(entry.Name)
	if !ok {
		return fmt.Errorf("invalid archive entry name %q", entry.Name)
	}
	info, err := os.Stat(entry.Source)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate
	out, err := writer.CreateHeader(header)
	if err != nil {
		return err
	}
	in, err := os.Open(entry.Source)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.Copy(out, in)
	return err
}

func (a ArchiveStoreAdapter) Extract(ctx context.Context, src string, dest string, format types.ArchiveFormat, stripComponents int) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return extractError(src, err)
	}
	root, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return extractError(src, err)
	}
	switch format {
	case types.ArchiveFormatZip, "":
		err = extractZip(ctx, src, root, stripComponents)
	case types.ArchiveFormatTarGz:
		err = extractTar(ctx, src, root, stripComponents, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case types.ArchiveFormatTarXz:
		err = extractTar(ctx, src, root, stripComponents, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		})
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported archive format %q", format))
	}
	if err != nil {
		return extractError(src, err)
	}
	return nil
}

func extractZip(ctx context.Context, src string, dest string, strip int) error {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer reader.Close()
	reader.RegisterDecompressor(zipMethodLZMA, lzmaDecompressor)

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, ok, err := entryTarget(dest, file.Name, strip)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		mode := file.Mode()
		switch {
		case mode.IsDir():
			if err := makeDir(dest, target); err != nil {
				return err
			}
		case mode&fs.ModeSymlink != 0:
			linkname, err := readZipLink(file)
			if err != nil {
				return err
			}
			if err := writeSymlink(dest, target, linkname); err != nil {
				return err
			}
		default:
			rc, err := file.Open()
			if err != nil {
				return err
			}
			err = writeRegular(dest, target, rc, mode.Perm())
			rc.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func readZipLink(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func extractTar(ctx context.Context, src string, dest string, strip int, decompress func(io.Reader) (io.Reader, error)) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	stream, err := decompress(f)
	if err != nil {
		return err
	}
	if closer, ok := stream.(io.Closer); ok {
		defer closer.Close()
	}
	tr := tar.NewReader(stream)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}
		target, ok, err := entryTarget(dest, header.Name, strip)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := makeDir(dest, target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeRegular(dest, target, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(dest, target, header.Linkname); err != nil {
				return err
			}
		case tar.TypeLink:
			linkTarget, ok, err := entryTarget(dest, header.Linkname, strip)
			if err != nil || !ok {
				return fmt.Errorf("invalid hard link %s -> %s", header.Name, header.Linkname)
			}
			if err := checkInside(dest, linkTarget); err != nil {
				return err
			}
			if err := prepareTarget(dest, target); err != nil {
				return err
			}
			if err := os.Link(linkTarget, target); err != nil {
				return err
			}
		}
	}
}

// entryTarget strips leading path elements from name and joins it below
// dest. Entries consumed entirely by stripping report ok=false. Names
// escaping dest are an error.
func entryTarget(dest string, name string, strip int) (string, bool, error) {
	cleaned, ok := cleanEntryName(name)
	if !ok {
		if strings.Trim(name, "/.") == "" {
			return "", false, nil
		}
		return "", false, fmt.Errorf("archive entry %q escapes the destination", name)
	}
	parts := strings.Split(cleaned, "/")
	if len(parts) <= strip {
		return "", false, nil
	}
	rel := filepath.FromSlash(strings.Join(parts[strip:], "/"))
	return filepath.Join(dest, rel), true, nil
}

func cleanEntryName(name string) (string, bool) {
	name = strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(name, "/") {
		return "", false
	}
	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}

// makeDir creates target after checking that its existing prefix, with
// symlinks resolved, stays below root.
func makeDir(root string, target string) error {
	if err := checkInside(root, target); err != nil {
		return err
	}
	return os.MkdirAll(target, 0755)
}

// prepareTarget creates the parent of target inside root and removes a
// symlink already sitting at target so the write cannot follow it.
func prepareTarget(root string, target string) error {
	if err := makeDir(root, filepath.Dir(target)); err != nil {
		return err
	}
	if info, err := os.Lstat(target); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		return os.Remove(target)
	}
	return nil
}

func writeRegular(root string, target string, r io.Reader, perm os.FileMode) error {
	if perm == 0 {
		perm = 0644
	}
	if err := prepareTarget(root, target); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeSymlink only creates links whose target stays inside root. The
// link text is walked one element at a time against the tree already on
// disk, so links chained through earlier links are resolved too.
func writeSymlink(root string, target string, linkname string) error {
	if filepath.IsAbs(linkname) || strings.HasPrefix(linkname, "/") {
		return fmt.Errorf("symlink %s points outside the archive", target)
	}
	if err := prepareTarget(root, target); err != nil {
		return err
	}
	cur, err := filepath.EvalSymlinks(filepath.Dir(target))
	if err != nil {
		return err
	}
	for _, elem := range strings.Split(strings.ReplaceAll(linkname, `\`, "/"), "/") {
		switch elem {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
		default:
			cur = filepath.Join(cur, elem)
			if info, err := os.Lstat(cur); err == nil && info.Mode()&fs.ModeSymlink != 0 {
				resolved, err := filepath.EvalSymlinks(cur)
				if err != nil {
					return fmt.Errorf("symlink %s points through unresolvable %s", target, cur)
				}
				cur = resolved
			}
		}
		if !within(root, cur) {
			return fmt.Errorf("symlink %s points outside the archive", target)
		}
	}
	return os.Symlink(linkname, target)
}

// checkInside resolves the existing prefix of p through symlinks and
// rejects paths that end up outside root. root must already be resolved.
func checkInside(root string, p string) error {
	existing := p
	var rest []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return err
	}
	full := filepath.Join(append([]string{resolved}, rest...)...)
	if !within(root, full) {
		return fmt.Errorf("archive entry %s escapes the destination", p)
	}
	return nil
}

func within(root string, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func packError(dest string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to write archive " + dest).
		WithCause(err)
}

func extractError(src string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to extract archive " + src).
		WithCause(err)
}

var _ ports.ArchivePort = ArchiveStoreAdapter{}
