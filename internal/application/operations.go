package application

import (
	"context"
	"fmt"
	"os"
	"strings"

	"file-utility-bot/internal/domain"
)

const noTextMessage = "No extractable text (maybe scanned images)."

// Image types pdfcpu imports directly; anything else goes through PNG first
var pdfImportable = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".tif": true, ".tiff": true}

func requirePrimary(session *domain.Session, accepts func(name string) bool, message string) (domain.FileRef, error) {
	if session.PrimaryFile == nil {
		return domain.FileRef{}, domain.NewUserError(domain.ErrNoFile, message)
	}
	if accepts != nil && !accepts(session.PrimaryFile.Path) {
		return domain.FileRef{}, domain.NewUserError(domain.ErrWrongKind, message)
	}
	return *session.PrimaryFile, nil
}

func artifact(path, name, caption string) domain.OperationResult {
	return domain.ArtifactResult(domain.Artifact{Path: path, Name: name, Caption: caption})
}

// allocate reserves an output path and records it as scratch of inv
func (s *BotService) allocate(inv *Invocation, ext string) (string, error) {
	path, err := s.tracker.AllocateOutputPath(ext)
	if err != nil {
		return "", fmt.Errorf("failed to allocate output: %w", err)
	}
	inv.Scratch = append(inv.Scratch, path)
	return path, nil
}

// abandon releases everything allocated for an invocation that never started
func (s *BotService) abandon(inv *Invocation, err error) (*Invocation, error) {
	s.tracker.Discard(inv.Scratch...)
	return nil, err
}

// operationInvocation builds the invocation for a single-file menu operation.
// A missing or wrong-kind primary file is a *domain.UserError.
func (s *BotService) operationInvocation(session *domain.Session, op domain.Operation) (*Invocation, error) {
	inv := s.newInvocation(session, op)
	tf := s.transformers

	switch op {
	case domain.OpConvertPNG, domain.OpConvertJPG, domain.OpCompressImage:
		src, err := requirePrimary(session, domain.IsImage, "Send image first.")
		if err != nil {
			return nil, err
		}
		format, quality, name := "png", 0, "converted.png"
		switch op {
		case domain.OpConvertJPG:
			format, quality, name = "jpg", 95, "converted.jpg"
		case domain.OpCompressImage:
			format, quality, name = "jpg", 70, "compressed.jpg"
		}
		out, err := s.allocate(inv, format)
		if err != nil {
			return s.abandon(inv, err)
		}
		inv.Inputs = []string{src.Path}
		inv.Run = func(ctx context.Context) (domain.OperationResult, error) {
			if err := tf.Image.Convert(ctx, src.Path, out, format, quality); err != nil {
				return domain.OperationResult{}, err
			}
			return artifact(out, name, ""), nil
		}

	case domain.OpImagesToPDF:
		src, err := requirePrimary(session, domain.IsImage, "Send image(s) first.")
		if err != nil {
			return nil, err
		}
		out, err := s.allocate(inv, "pdf")
		if err != nil {
			return s.abandon(inv, err)
		}
		image := src.Path
		var intermediate string
		if !pdfImportable[src.Ext()] {
			if intermediate, err = s.allocate(inv, "png"); err != nil {
				return s.abandon(inv, err)
			}
		}
		inv.Inputs = []string{src.Path}
		inv.Run = func(ctx context.Context) (domain.OperationResult, error) {
			if intermediate != "" {
				if err := tf.Image.Convert(ctx, image, intermediate, "png", 0); err != nil {
					return domain.OperationResult{}, err
				}
				image = intermediate
			}
			if err := tf.PDF.FromImages(ctx, []string{image}, out); err != nil {
				return domain.OperationResult{}, err
			}
			return artifact(out, "images.pdf", ""), nil
		}

	case domain.OpAudioMP3, domain.OpAudioWAV:
		src, err := requirePrimary(session, nil, "Send audio first.")
		if err != nil {
			return nil, err
		}
		format := "mp3"
		if op == domain.OpAudioWAV {
			format = "wav"
		}
		out, err := s.allocate(inv, format)
		if err != nil {
			return s.abandon(inv, err)
		}
		inv.Inputs = []string{src.Path}
		inv.Run = func(ctx context.Context) (domain.OperationResult, error) {
			if err := tf.Media.ConvertAudio(ctx, src.Path, out, format); err != nil {
				return domain.OperationResult{}, err
			}
			return artifact(out, "audio."+format, ""), nil
		}

	case domain.OpVideoMP4, domain.OpVideoGIF, domain.OpCompressVideo:
		src, err := requirePrimary(session, nil, "Send video first.")
		if err != nil {
			return nil, err
		}
		ext, name, run := "mp4", "video.mp4", tf.Media.ConvertVideo
		switch op {
		case domain.OpVideoGIF:
			ext, name, run = "gif", "video.gif", tf.Media.VideoToGIF
		case domain.OpCompressVideo:
			name, run = "compressed.mp4", tf.Media.CompressVideo
		}
		out, err := s.allocate(inv, ext)
		if err != nil {
			return s.abandon(inv, err)
		}
		inv.Inputs = []string{src.Path}
		inv.Run = func(ctx context.Context) (domain.OperationResult, error) {
			if err := run(ctx, src.Path, out); err != nil {
				return domain.OperationResult{}, err
			}
			return artifact(out, name, ""), nil
		}

	case domain.OpCompressPDF:
		src, err := requirePrimary(session, domain.IsPDF, "Send a PDF first.")
		if err != nil {
			return nil, err
		}
		out, err := s.allocate(inv, "pdf")
		if err != nil {
			return s.abandon(inv, err)
		}
		inv.Inputs = []string{src.Path}
		inv.Run = func(ctx context.Context) (domain.OperationResult, error) {
			if err := tf.PDF.Optimize(ctx, src.Path, out); err != nil {
				return domain.OperationResult{}, err
			}
			return artifact(out, "resaved.pdf", ""), nil
		}

	case domain.OpExtractText:
		src, err := requirePrimary(session, domain.IsPDF, "Send a PDF first.")
		if err != nil {
			return nil, err
		}
		out, err := s.allocate(inv, "txt")
		if err != nil {
			return s.abandon(inv, err)
		}
		inv.Inputs = []string{src.Path}
		inv.Run = func(ctx context.Context) (domain.OperationResult, error) {
			text, err := tf.PDF.ExtractText(ctx, src.Path)
			if err != nil {
				return domain.OperationResult{}, err
			}
			text = strings.TrimSpace(text)
			if text == "" {
				return domain.MessageResult(noTextMessage), nil
			}
			if err := os.WriteFile(out, []byte(text), 0o600); err != nil {
				return domain.OperationResult{}, fmt.Errorf("failed to write text: %w", err)
			}
			return artifact(out, "extracted.txt", ""), nil
		}

	case domain.OpExtractZip:
		src, err := requirePrimary(session, domain.IsZIP, "Send a .zip file first.")
		if err != nil {
			return nil, err
		}
		dir, err := s.tracker.AllocateOutputDir()
		if err != nil {
			return nil, fmt.Errorf("failed to allocate output: %w", err)
		}
		inv.Scratch = append(inv.Scratch, dir)
		limit := s.cfg.MaxExtractEntries
		inv.Inputs = []string{src.Path}
		inv.Run = func(ctx context.Context) (domain.OperationResult, error) {
			entries, err := tf.Archive.Extract(ctx, src.Path, dir, limit)
			if err != nil {
				return domain.OperationResult{}, err
			}
			if len(entries) == 0 {
				return domain.MessageResult("Archive empty."), nil
			}
			return domain.ArtifactsResult(entries), nil
		}

	default:
		return nil, fmt.Errorf("operation %s cannot be started from a menu", op)
	}

	return inv, nil
}

// mergeInvocation merges the collected PDFs; on success the session is reset
func (s *BotService) mergeInvocation(session *domain.Session, files []domain.FileRef) (*Invocation, error) {
	inv := s.newInvocation(session, domain.OpMergePDF)
	out, err := s.allocate(inv, "pdf")
	if err != nil {
		return s.abandon(inv, err)
	}

	srcs := make([]string, 0, len(files))
	for _, f := range files {
		srcs = append(srcs, f.Path)
	}
	inv.Inputs = srcs
	inv.Run = func(ctx context.Context) (domain.OperationResult, error) {
		if err := s.transformers.PDF.Merge(ctx, srcs, out); err != nil {
			return domain.OperationResult{}, err
		}
		return artifact(out, "merged.pdf", "✅ Merged PDF"), nil
	}
	inv.OnSuccess = s.resetAfterSuccess(inv.Inputs)
	return inv, nil
}

// zipInvocation archives files under their display names; on success the session is reset
func (s *BotService) zipInvocation(session *domain.Session, files []domain.FileRef) (*Invocation, error) {
	inv := s.newInvocation(session, domain.OpCreateZip)
	out, err := s.allocate(inv, "zip")
	if err != nil {
		return s.abandon(inv, err)
	}

	for _, f := range files {
		inv.Inputs = append(inv.Inputs, f.Path)
	}
	inv.Run = func(ctx context.Context) (domain.OperationResult, error) {
		if err := s.transformers.Archive.Create(ctx, files, out); err != nil {
			return domain.OperationResult{}, err
		}
		return artifact(out, "archive.zip", "✅ ZIP created"), nil
	}
	inv.OnSuccess = s.resetAfterSuccess(inv.Inputs)
	return inv, nil
}

// splitInvocation selects the pages named by expr into one document.
// Bad ranges leave the session waiting for another expression.
func (s *BotService) splitInvocation(session *domain.Session, expr string) (*Invocation, error) {
	src, err := requirePrimary(session, domain.IsPDF, "Send PDF first.")
	if err != nil {
		return nil, err
	}

	inv := s.newInvocation(session, domain.OpSplitPDF)
	inv.WorkingText = splittingText
	inv.FailureHint = splitHint
	inv.InputHint = splitHint

	out, err := s.allocate(inv, "pdf")
	if err != nil {
		return s.abandon(inv, err)
	}
	inv.Inputs = []string{src.Path}
	inv.Run = func(ctx context.Context) (domain.OperationResult, error) {
		total, err := s.transformers.PDF.PageCount(ctx, src.Path)
		if err != nil {
			return domain.OperationResult{}, err
		}
		pages, err := domain.ParsePageRanges(expr, total)
		if err != nil {
			return domain.OperationResult{}, err
		}
		if err := s.transformers.PDF.SelectPages(ctx, src.Path, out, pages); err != nil {
			return domain.OperationResult{}, err
		}
		return artifact(out, "split.pdf", ""), nil
	}
	inv.OnSuccess = func(session *domain.Session) (string, error) {
		if session.Step == domain.StepAwaitingSplitRanges {
			if err := session.Transition(domain.StepPDFMenu); err != nil {
				return "", err
			}
		}
		return "✅ Done.\n\n" + pdfMenuText, nil
	}
	return inv, nil
}

// resetAfterSuccess clears the session once inputs were consumed.
// Uploads collected after the operation started are named in the reply since the reset drops them.
func (s *BotService) resetAfterSuccess(inputs []string) func(*domain.Session) (string, error) {
	consumed := make(map[string]struct{}, len(inputs))
	for _, path := range inputs {
		consumed[path] = struct{}{}
	}

	return func(session *domain.Session) (string, error) {
		late := make([]string, 0)
		for _, ref := range session.CollectionSnapshot() {
			if _, ok := consumed[ref.Path]; !ok {
				late = append(late, ref.DisplayName)
			}
		}

		if _, err := s.sessions.Reset(session.Key); err != nil {
			return "", fmt.Errorf("failed to reset session: %w", err)
		}
		if len(late) > 0 {
			return lateUploadsText + strings.Join(late, ", ") + "\n\n" + mainMenuText, nil
		}
		return mainMenuText, nil
	}
}
