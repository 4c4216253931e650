package services

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// UploadIndexingService keeps an uploads directory in sync with the vector
// store: every supported file becomes one document with its own collection,
// keyed by the file's base name.
type UploadIndexingService struct {
	extractor *ExtractorService
	chunker   *TextChunker
	retrieval RetrievalService
}

// NewUploadIndexingService creates a new indexing service.
func NewUploadIndexingService(extractor *ExtractorService, chunker *TextChunker, retrieval RetrievalService) *UploadIndexingService {
	return &UploadIndexingService{
		extractor: extractor,
		chunker:   chunker,
		retrieval: retrieval,
	}
}

// WatchDirectory starts a long-running process to watch for file changes in real-time.
func (s *UploadIndexingService) WatchDirectory(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	// Goroutine to handle events from the watcher.
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// We only care about supported file types.
				if !isSupportedFile(event.Name) {
					continue
				}

				log.Printf("WATCHER EVENT: %s", event)

				// A Create or Write event means we need to index the file.
				// Many editors perform a "write" by creating a temp file and renaming,
				// which can trigger multiple events. We handle Create and Write the same.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Printf("WATCHER: File modified/created: %s. Re-indexing...", event.Name)
					if err := s.IndexFile(ctx, event.Name); err != nil {
						log.Printf("WATCHER ERROR: Failed to process file %s: %v", event.Name, err)
					}
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					// Rename is often treated as Remove by watchers.
					log.Printf("WATCHER: File removed/renamed: %s. Removing from index...", event.Name)
					s.retrieval.DeleteCollection(ctx, DocumentIDForFile(event.Name))
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	// Block until the context is cancelled (e.g., server shutdown).
	<-ctx.Done()
}

// ScanAndIndexDirectory indexes every supported file currently in the
// directory. Run once at startup before watching.
func (s *UploadIndexingService) ScanAndIndexDirectory(ctx context.Context, dirPath string) {
	log.Printf("INDEXER: Starting directory scan for: %s", dirPath)

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && isSupportedFile(path) {
			log.Printf("INDEXER: Indexing file: %s", path)
			if err := s.IndexFile(ctx, path); err != nil {
				log.Printf("INDEXER ERROR: Failed to process file %s: %v", path, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("INDEXER ERROR: Error walking the path %s: %v", dirPath, err)
	}
	log.Println("INDEXER: Directory scan finished.")
}

// IndexFile extracts, chunks and stores one file, replacing any previous
// index for the same document id.
func (s *UploadIndexingService) IndexFile(ctx context.Context, path string) error {
	documentID := DocumentIDForFile(path)

	text, err := s.extractor.ExtractTextFromFile(ctx, path)
	if err != nil {
		return err
	}

	chunks := s.chunker.ChunkText(text)
	log.Printf("INDEXER: Split %s into %d chunks.", path, len(chunks))
	if len(chunks) == 0 {
		// Nothing substantial to index; not an error.
		return nil
	}

	// Re-indexing replaces the whole document, so drop the old collection
	// before storing.
	s.retrieval.DeleteCollection(ctx, documentID)
	return s.retrieval.AddDocumentChunks(ctx, documentID, chunks)
}

// DocumentIDForFile derives a stable document id from a file path.
func DocumentIDForFile(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf":
		return true
	default:
		return false
	}
}
