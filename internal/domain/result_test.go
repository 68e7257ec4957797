package domain

import (
	"errors"
	"testing"
)

type matchRecorder struct {
	message   string
	artifact  *Artifact
	artifacts []Artifact
	calls     int
}

func (m *matchRecorder) match(r OperationResult) error {
	return r.Match(
		func(message string) error {
			m.calls++
			m.message = message
			return nil
		},
		func(artifact Artifact) error {
			m.calls++
			m.artifact = &artifact
			return nil
		},
		func(artifacts []Artifact) error {
			m.calls++
			m.artifacts = artifacts
			return errors.New("send failed")
		},
	)
}

// TestOperationResultMatch tests that exactly one handler runs per variant
func TestOperationResultMatch(t *testing.T) {
	msg := &matchRecorder{}
	_ = msg.match(MessageResult("Archive empty."))
	if msg.calls != 1 || msg.message != "Archive empty." {
		t.Errorf("expected message handler once, got calls=%d message=%q", msg.calls, msg.message)
	}

	one := &matchRecorder{}
	_ = one.match(ArtifactResult(Artifact{Path: "/tmp/x.png", Name: "converted.png"}))
	if one.calls != 1 || one.artifact == nil || one.artifact.Name != "converted.png" {
		t.Errorf("expected artifact handler once, got calls=%d artifact=%v", one.calls, one.artifact)
	}

	many := &matchRecorder{}
	err := many.match(ArtifactsResult([]Artifact{{Path: "/a"}, {Path: "/b"}}))
	if many.calls != 1 || len(many.artifacts) != 2 {
		t.Errorf("expected artifacts handler once with 2 entries, got calls=%d len=%d", many.calls, len(many.artifacts))
	}
	if err == nil {
		t.Error("expected handler error to be returned by Match")
	}
}

// TestOperationResultPaths tests artifact path listing
func TestOperationResultPaths(t *testing.T) {
	if len(MessageResult("nothing").Paths()) != 0 {
		t.Error("expected no paths for a message result")
	}

	paths := ArtifactsResult([]Artifact{{Path: "/a"}, {Path: "/b"}}).Paths()
	if len(paths) != 2 || paths[0] != "/a" || paths[1] != "/b" {
		t.Errorf("expected [/a /b], got %v", paths)
	}
}

// TestFileKindSniffing tests extension checks are case-insensitive
func TestFileKindSniffing(t *testing.T) {
	if !IsPDF("Report.PDF") || IsPDF("report.pdf.txt") {
		t.Error("expected IsPDF to match only a .pdf extension")
	}
	if !IsZIP("bundle.Zip") || IsZIP("bundle.rar") {
		t.Error("expected IsZIP to match only a .zip extension")
	}
	for _, name := range []string{"a.png", "b.JPG", "c.jpeg", "d.webp", "e.tiff"} {
		if !IsImage(name) {
			t.Errorf("expected %s to be an image", name)
		}
	}
	if IsImage("movie.mp4") {
		t.Error("expected movie.mp4 to not be an image")
	}
}
