// Package writer stores generated documentation either as a directory tree
// or as a single zip archive.
package writer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jcdickinson/ruledoc/internal/naming"
	"github.com/jcdickinson/ruledoc/internal/render"
	"github.com/klauspost/compress/zip"
)

// File is one generated document. Path is relative to the output root and
// uses forward slashes.
type File struct {
	Path    string
	Content []byte
}

// Writer writes generated files. When Zip is set the files go into the
// archive OutputFile, otherwise below OutputDir.
type Writer struct {
	Format     naming.Format
	OutputDir  string
	OutputFile string
	Zip        bool
	Logger     *slog.Logger
}

// Write stores files and returns the location of each one written. HTML
// output gets the stylesheet at its root.
func (w *Writer) Write(ctx context.Context, files []File) ([]string, error) {
	files = append([]File(nil), files...)
	if w.Format == naming.HTML {
		files = append(files, File{Path: render.CSSFile, Content: render.CSS()})
	}
	for i := range files {
		p, err := cleanPath(files[i].Path)
		if err != nil {
			return nil, err
		}
		files[i].Path = p
	}

	if w.Zip {
		if err := w.writeZip(ctx, files); err != nil {
			return nil, err
		}
		return []string{w.OutputFile}, nil
	}
	return w.writeDir(ctx, files)
}

func (w *Writer) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

func (w *Writer) writeDir(ctx context.Context, files []File) ([]string, error) {
	dir := w.OutputDir
	if dir == "" {
		dir = "."
	}
	var written []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		p := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return written, fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(p, f.Content, 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", p, err)
		}
		w.logger().Debug("wrote file", "path", p)
		written = append(written, p)
	}
	return written, nil
}

// writeZip builds the archive next to OutputFile and renames it into place,
// so a failed run never leaves a truncated archive behind.
func (w *Writer) writeZip(ctx context.Context, files []File) error {
	if w.OutputFile == "" {
		return &naming.InputError{Msg: "no output file given for zip output"}
	}
	if err := os.MkdirAll(filepath.Dir(w.OutputFile), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(w.OutputFile), ".ruledoc-*.zip")
	if err != nil {
		return fmt.Errorf("creating temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			zw.Close()
			tmp.Close()
			return err
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.Path, Method: zip.Deflate})
		if err != nil {
			zw.Close()
			tmp.Close()
			return fmt.Errorf("adding %s to archive: %w", f.Path, err)
		}
		if _, err := fw.Write(f.Content); err != nil {
			zw.Close()
			tmp.Close()
			return fmt.Errorf("compressing %s: %w", f.Path, err)
		}
		w.logger().Debug("archived file", "path", f.Path)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("finishing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.OutputFile); err != nil {
		return fmt.Errorf("moving archive into place: %w", err)
	}
	return nil
}

// cleanPath normalises an output path and rejects paths that leave the
// output root.
func cleanPath(p string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", &naming.InputError{Msg: fmt.Sprintf("output path %q is outside the output directory", p)}
	}
	return clean, nil
}
