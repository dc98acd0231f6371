// Package googledrive implements a document source over a Google Drive
// folder. Refs are Drive file IDs and folder refs are folder IDs.
package googledrive

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// Google Workspace MIME types that need export instead of download.
const (
	mimeTypeGoogleDoc   = "application/vnd.google-apps.document"
	mimeTypeGoogleSheet = "application/vnd.google-apps.spreadsheet"
	mimeTypeFolder      = "application/vnd.google-apps.folder"
)

// Export formats for Google Workspace files.
const (
	exportMimeText = "text/plain"
	exportMimeCSV  = "text/csv"
)

// MaxFetchSize caps downloaded content (20MB); electrical drawing sets
// can be large but anything beyond this will not extract usefully.
const MaxFetchSize = 20 * 1024 * 1024

// Drive allows 10 requests/sec/user; stay under it.
const (
	requestsPerSecond = 8
	burstSize         = 10
)

// listFields keeps list responses to the fields the source reads.
const listFields = "nextPageToken, files(id, name, mimeType, modifiedTime)"

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Source reads documents from Google Drive.
type Source struct {
	svc     *drive.Service
	limiter *rate.Limiter
}

// New creates a Drive source authenticated with the given token source.
func New(ctx context.Context, ts oauth2.TokenSource) (*Source, error) {
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return NewWithService(svc), nil
}

// NewWithService wraps an existing Drive service.
func NewWithService(svc *drive.Service) *Source {
	return &Source{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
	}
}

// FetchBytes downloads the file identified by ref. Google Workspace
// files are exported to a text format first.
func (s *Source) FetchBytes(ctx context.Context, ref string) ([]byte, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	file, err := s.svc.Files.Get(ref).Fields("id, name, mimeType").Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("getting file metadata: %w", err)
	}

	exportMime := ""
	switch file.MimeType {
	case mimeTypeGoogleDoc:
		exportMime = exportMimeText
	case mimeTypeGoogleSheet:
		exportMime = exportMimeCSV
	case mimeTypeFolder:
		return nil, "", fmt.Errorf("ref %q is a folder", ref)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	var body io.ReadCloser
	if exportMime != "" {
		resp, err := s.svc.Files.Export(ref, exportMime).Context(ctx).Download()
		if err != nil {
			return nil, "", fmt.Errorf("exporting file: %w", err)
		}
		body = resp.Body
	} else {
		resp, err := s.svc.Files.Get(ref).Context(ctx).Download()
		if err != nil {
			return nil, "", fmt.Errorf("downloading file: %w", err)
		}
		body = resp.Body
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxFetchSize))
	if err != nil {
		return nil, "", fmt.Errorf("reading file content: %w", err)
	}

	mimeType := file.MimeType
	if exportMime != "" {
		mimeType = exportMime
	}
	return data, mimeType, nil
}

// ListNewFiles lists non-folder files in folderRef modified after since.
func (s *Source) ListNewFiles(ctx context.Context, folderRef string, since time.Time) ([]driven.SourceFile, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", folderRef)
	if !since.IsZero() {
		query += fmt.Sprintf(" and modifiedTime > '%s'", since.UTC().Format(time.RFC3339))
	}

	var files []driven.SourceFile
	call := s.svc.Files.List().Q(query).Fields(listFields).PageSize(100)
	err := call.Pages(ctx, func(page *drive.FileList) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		for _, file := range page.Files {
			if file.MimeType == mimeTypeFolder {
				continue
			}
			modTime, _ := time.Parse(time.RFC3339, file.ModifiedTime)
			files = append(files, driven.SourceFile{
				Ref:      file.Id,
				Name:     file.Name,
				MIMEType: file.MimeType,
				ModTime:  modTime,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing folder %s: %w", folderRef, err)
	}

	return files, nil
}
