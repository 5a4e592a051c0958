package service

import (
	"context"
	"errors"
	"testing"
)

// seedTasteCorpus loads the two-movie scenario: dialogue praised three times,
// color complained about twice.
func seedTasteCorpus(t *testing.T, f *fixture) (m1, m2 string) {
	t.Helper()
	m1 = f.addMovie(t, "Arrival")
	m2 = f.addMovie(t, "Columbus")
	f.addResponse(t, m1, "The dialogue between them was brilliant, every exchange landed.")
	f.addResponse(t, m2, "Brilliant dialogue again, the exchanges crackled from the first scene.")
	f.addResponse(t, m1, "That monologue near the end was a brilliant piece of dialogue.")
	f.addResponse(t, m1, "The colors looked flat and cold, the palette felt dull.")
	f.addResponse(t, m2, "The color grading was cold in a way that kept me at a distance.")
	return m1, m2
}

func TestDetectAndStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedTasteCorpus(t, f)

	detected, err := f.patternSvc.DetectAndStore(ctx)
	if err != nil {
		t.Fatalf("DetectAndStore() error = %v", err)
	}
	if len(detected) != 2 {
		t.Fatalf("detected %d patterns, want 2", len(detected))
	}
	if detected[0].Element != "dialogue" || detected[1].Element != "color" {
		t.Errorf("elements = %q, %q, want dialogue, color", detected[0].Element, detected[1].Element)
	}
	if !almostEqual(detected[0].Confidence, 0.88) {
		t.Errorf("dialogue confidence = %v, want 0.88", detected[0].Confidence)
	}
	if !almostEqual(detected[1].Confidence, 0.82) {
		t.Errorf("color confidence = %v, want 0.82", detected[1].Confidence)
	}

	stored, err := f.patternRepo.List(ctx)
	if err != nil {
		t.Fatalf("patternRepo.List() error = %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d patterns, want 2", len(stored))
	}
	for _, p := range stored {
		if p.ID == "" {
			t.Errorf("stored pattern %q has no ID", p.Element)
		}
	}

	cached, _ := f.patternCache.GetPatterns(ctx)
	if len(cached) != 2 {
		t.Errorf("cached %d patterns, want 2", len(cached))
	}
	for _, p := range cached {
		if p.ID == "" {
			t.Errorf("cached pattern %q missing the stored ID", p.Element)
		}
	}

	if got := f.elements.count("dialogue"); got != 3 {
		t.Errorf("leaderboard dialogue = %d, want 3", got)
	}
	if got := f.elements.count("color"); got != 2 {
		t.Errorf("leaderboard color = %d, want 2", got)
	}
}

func TestListUsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedTasteCorpus(t, f)

	if _, err := f.patternSvc.DetectAndStore(ctx); err != nil {
		t.Fatalf("DetectAndStore() error = %v", err)
	}

	first, err := f.patternSvc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	// Wipe the repo behind the cache; a cached read must not notice.
	if err := f.patternRepo.ReplaceAll(ctx, nil); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	second, err := f.patternSvc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(second) != len(first) {
		t.Errorf("cached List() = %d patterns, want %d", len(second), len(first))
	}

	// After invalidation the repo is the source again.
	if err := f.patternCache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	third, err := f.patternSvc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(third) != 0 {
		t.Errorf("List() after wipe = %d patterns, want 0", len(third))
	}
}

func TestValidateRejectionSurvivesRedetection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedTasteCorpus(t, f)

	if _, err := f.patternSvc.DetectAndStore(ctx); err != nil {
		t.Fatalf("DetectAndStore() error = %v", err)
	}
	patterns, err := f.patternSvc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	var colorID string
	for _, p := range patterns {
		if p.Element == "color" {
			colorID = p.ID
		}
	}
	if colorID == "" {
		t.Fatal("color pattern not found")
	}

	rejected, err := f.patternSvc.Validate(ctx, colorID, false)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if rejected.Validated == nil || *rejected.Validated {
		t.Error("Validate(false) did not mark pattern rejected")
	}
	if f.patternCache.invalidation == 0 {
		t.Error("Validate() did not invalidate the cache")
	}

	detected, err := f.patternSvc.DetectAndStore(ctx)
	if err != nil {
		t.Fatalf("DetectAndStore() error = %v", err)
	}
	for _, p := range detected {
		if p.Element == "color" {
			t.Error("rejected element came back in detection output")
		}
	}

	// The tombstone stays in the stored set so the next run still sees it.
	stored, err := f.patternRepo.List(ctx)
	if err != nil {
		t.Fatalf("patternRepo.List() error = %v", err)
	}
	var tombstones int
	for _, p := range stored {
		if p.Element == "color" {
			if p.Validated == nil || *p.Validated {
				t.Error("stored color pattern lost its rejection")
			}
			tombstones++
		}
	}
	if tombstones != 1 {
		t.Errorf("stored %d color tombstones, want 1", tombstones)
	}

	// And a further run keeps suppressing it.
	detected, err = f.patternSvc.DetectAndStore(ctx)
	if err != nil {
		t.Fatalf("DetectAndStore() error = %v", err)
	}
	for _, p := range detected {
		if p.Element == "color" {
			t.Error("rejected element resurfaced on the second re-run")
		}
	}
}

func TestValidateConfirmationBoostsConfidence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedTasteCorpus(t, f)

	if _, err := f.patternSvc.DetectAndStore(ctx); err != nil {
		t.Fatalf("DetectAndStore() error = %v", err)
	}
	patterns, err := f.patternSvc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	var dialogueID string
	for _, p := range patterns {
		if p.Element == "dialogue" {
			dialogueID = p.ID
		}
	}
	if _, err := f.patternSvc.Validate(ctx, dialogueID, true); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	detected, err := f.patternSvc.DetectAndStore(ctx)
	if err != nil {
		t.Fatalf("DetectAndStore() error = %v", err)
	}
	var (
		found      bool
		confidence float64
		validated  *bool
	)
	for _, p := range detected {
		if p.Element == "dialogue" {
			found = true
			confidence = p.Confidence
			validated = p.Validated
		}
	}
	if !found {
		t.Fatal("dialogue pattern missing after confirmation")
	}
	// 0.88 plus the confirmation boost, clipped at the ceiling.
	if !almostEqual(confidence, 0.98) {
		t.Errorf("confirmed confidence = %v, want 0.98", confidence)
	}
	if validated == nil || !*validated {
		t.Error("confirmation lost on re-detection")
	}
}

func TestValidateNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.patternSvc.Validate(context.Background(), "missing", true)
	if !errors.Is(err, ErrPatternNotFound) {
		t.Errorf("Validate() error = %v, want ErrPatternNotFound", err)
	}
}
