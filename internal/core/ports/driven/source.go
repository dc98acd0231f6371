package driven

import (
	"context"
	"time"
)

// SourceFile describes one file visible through a document source.
type SourceFile struct {
	// Ref is the source-specific reference used with FetchBytes.
	Ref string

	// Name is the display name of the file.
	Name string

	// MIMEType is the detected or reported content type.
	MIMEType string

	// ModTime is when the file was last modified at the source.
	ModTime time.Time
}

// DocumentSource fetches raw document bytes from an external location
// such as a local folder or a Drive share.
type DocumentSource interface {
	// FetchBytes returns the raw content and MIME type for a source
	// reference. A reference that cannot be resolved wraps
	// domain.ErrSourceUnavailable.
	FetchBytes(ctx context.Context, ref string) ([]byte, string, error)

	// ListNewFiles returns files under folderRef modified after since,
	// ordered oldest first.
	ListNewFiles(ctx context.Context, folderRef string, since time.Time) ([]SourceFile, error)
}

// WatchableSource is implemented by sources that can push change
// notifications instead of being polled.
type WatchableSource interface {
	DocumentSource

	// Watch emits a SourceFile for every new or modified file under
	// folderRef until ctx is cancelled. The returned channel is closed
	// when watching stops.
	Watch(ctx context.Context, folderRef string) (<-chan SourceFile, error)
}
