package output

import (
	"context"

	"file-utility-bot/internal/domain"
)

// ImageTransformer interface - Output port for raster images
type ImageTransformer interface {
	// Convert re-encodes src into dst. format is "png" or "jpg"; quality applies to jpg.
	Convert(ctx context.Context, src, dst, format string, quality int) error
}

// MediaTransformer interface - Output port for audio and video
type MediaTransformer interface {
	ConvertAudio(ctx context.Context, src, dst, format string) error
	ConvertVideo(ctx context.Context, src, dst string) error
	VideoToGIF(ctx context.Context, src, dst string) error
	CompressVideo(ctx context.Context, src, dst string) error
}

// PDFTransformer interface - Output port for PDF documents
type PDFTransformer interface {
	PageCount(ctx context.Context, src string) (int, error)
	Merge(ctx context.Context, srcs []string, dst string) error
	// SelectPages writes one document with pages in the given order, duplicates included
	SelectPages(ctx context.Context, src, dst string, pages []int) error
	Optimize(ctx context.Context, src, dst string) error
	ExtractText(ctx context.Context, src string) (string, error)
	FromImages(ctx context.Context, images []string, dst string) error
}

// ArchiveTransformer interface - Output port for zip archives
type ArchiveTransformer interface {
	// Create stores files under their display names
	Create(ctx context.Context, files []domain.FileRef, dst string) error
	// Extract unpacks at most limit entries into dstDir
	Extract(ctx context.Context, src, dstDir string, limit int) ([]domain.Artifact, error)
}
