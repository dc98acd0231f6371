// Package filesystem implements a document source over a local
// directory tree. Refs are paths relative to the configured root.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
	"github.com/custodia-labs/voltdex/internal/logger"
)

// Ensure Source implements the interfaces.
var (
	_ driven.DocumentSource  = (*Source)(nil)
	_ driven.WatchableSource = (*Source)(nil)
)

// Source reads documents from a local directory.
type Source struct {
	rootPath string
}

// New creates a filesystem source rooted at rootPath.
func New(rootPath string) *Source {
	return &Source{rootPath: rootPath}
}

// FetchBytes reads the file identified by ref and sniffs its MIME type.
func (s *Source) FetchBytes(ctx context.Context, ref string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	path, err := s.resolve(ref)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", ref, err)
	}

	return data, detectMIME(path, data), nil
}

// ListNewFiles walks folderRef and returns regular files modified after
// since. Hidden files and directories are skipped.
func (s *Source) ListNewFiles(ctx context.Context, folderRef string, since time.Time) ([]driven.SourceFile, error) {
	root, err := s.resolve(folderRef)
	if err != nil {
		return nil, err
	}

	var files []driven.SourceFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if hidden(d.Name()) && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().After(since) {
			return nil
		}

		ref, err := filepath.Rel(s.rootPath, path)
		if err != nil {
			return err
		}
		files = append(files, driven.SourceFile{
			Ref:      ref,
			Name:     d.Name(),
			MIMEType: detectMIME(path, nil),
			ModTime:  info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", folderRef, err)
	}

	return files, nil
}

// Watch emits a SourceFile whenever a file under folderRef is created
// or written. The channel closes when ctx is cancelled.
func (s *Source) Watch(ctx context.Context, folderRef string) (<-chan driven.SourceFile, error) {
	root, err := s.resolve(folderRef)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(root); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", folderRef, err)
	}

	out := make(chan driven.SourceFile)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if hidden(filepath.Base(event.Name)) {
					continue
				}
				info, err := os.Stat(event.Name)
				if err != nil || info.IsDir() {
					continue
				}
				ref, err := filepath.Rel(s.rootPath, event.Name)
				if err != nil {
					continue
				}
				select {
				case out <- driven.SourceFile{
					Ref:      ref,
					Name:     info.Name(),
					MIMEType: detectMIME(event.Name, nil),
					ModTime:  info.ModTime(),
				}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// resolve joins ref onto the root and rejects escapes above it.
func (s *Source) resolve(ref string) (string, error) {
	path := filepath.Join(s.rootPath, filepath.FromSlash(ref))
	rel, err := filepath.Rel(s.rootPath, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("ref %q escapes source root", ref)
	}
	return path, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// detectMIME resolves a MIME type from the file extension, falling back
// to content sniffing when data is available.
func detectMIME(path string, data []byte) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			return base
		}
		return mt
	}
	if len(data) > 0 {
		if base, _, err := mime.ParseMediaType(http.DetectContentType(data)); err == nil {
			return base
		}
	}
	return "application/octet-stream"
}
