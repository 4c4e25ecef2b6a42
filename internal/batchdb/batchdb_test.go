package batchdb

import (
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func ptr(s string) *string { return &s }

func TestAddImage(t *testing.T) {
	store := openTestStore(t)
	id, err := store.AddImage("images/q1.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero image ID")
	}

	record, err := store.GetImage(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected record")
	}
	if record.Status != StatusPending {
		t.Errorf("expected pending status, got %q", record.Status)
	}
}

func TestAddImageIdempotent(t *testing.T) {
	store := openTestStore(t)
	first, _ := store.AddImage("images/q1.png")
	second, err := store.AddImage("images/q1.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("expected same ID for duplicate path, got %d and %d", first, second)
	}

	stats, _ := store.GetStats()
	if stats.Total != 1 {
		t.Errorf("expected exactly one row, got %d", stats.Total)
	}
}

func TestUpdateStatusCompletedStampsTimestamp(t *testing.T) {
	store := openTestStore(t)
	id, _ := store.AddImage("images/q1.png")

	if err := store.UpdateStatus(id, StatusCompleted, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	record, _ := store.GetImage(id)
	if record.CompletedAt == nil {
		t.Error("expected completed_at to be stamped")
	}

	// Any other status clears it again.
	store.UpdateStatus(id, StatusScanning, ptr("scan"), nil)
	record, _ = store.GetImage(id)
	if record.CompletedAt != nil {
		t.Error("expected completed_at cleared")
	}
	if record.CurrentStage == nil || *record.CurrentStage != "scan" {
		t.Error("expected current_stage to be recorded")
	}
}

func TestStagePayloads(t *testing.T) {
	store := openTestStore(t)
	id, _ := store.AddImage("images/q1.png")

	store.SaveClassification(id, `{"question_type":"mcq_sc"}`)
	store.SaveLatex(id, "\\begin{problem}...\\end{problem}")
	store.SaveTikz(id, "\\begin{tikzpicture}\\end{tikzpicture}")
	store.SaveIdeas(id, `{"concepts":["kinematics"]}`)

	record, _ := store.GetImage(id)
	if record.ClassificationJSON == nil || record.Latex == nil ||
		record.TikzCode == nil || record.IdeasJSON == nil {
		t.Error("expected all payloads saved")
	}
	if record.Status != StatusPending {
		t.Errorf("payload saves must not touch status, got %q", record.Status)
	}
}

func TestVariantUpsert(t *testing.T) {
	store := openTestStore(t)
	id, _ := store.AddImage("images/q1.png")

	store.SaveVariant(id, "numerical", "X")
	store.SaveVariant(id, "numerical", "Y")
	store.SaveVariant(id, "context", "Z")

	variants, err := store.GetVariants(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(variants) != 2 {
		t.Errorf("expected 2 variants, got %d", len(variants))
	}
	if variants["numerical"] != "Y" {
		t.Errorf("expected upsert to keep latest, got %q", variants["numerical"])
	}
}

func TestAlternatesAccumulate(t *testing.T) {
	store := openTestStore(t)
	id, _ := store.AddImage("images/q1.png")

	store.SaveAlternate(id, "method A")
	store.SaveAlternate(id, "method B")
	store.SaveAlternate(id, "method A")

	alternates, err := store.GetAlternates(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alternates) != 3 {
		t.Errorf("expected 3 alternates, got %d", len(alternates))
	}
}

func TestPendingQueueExcludesTerminal(t *testing.T) {
	store := openTestStore(t)
	a, _ := store.AddImage("a.png")
	b, _ := store.AddImage("b.png")
	c, _ := store.AddImage("c.png")

	store.UpdateStatus(a, StatusCompleted, nil, nil)
	store.UpdateStatus(b, StatusFailed, nil, ptr("boom"))
	store.UpdateStatus(c, StatusScanning, ptr("scan"), nil)

	pending, err := store.GetPendingImages()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending image, got %d", len(pending))
	}
	if pending[0].ID != c {
		t.Errorf("expected image %d in queue, got %d", c, pending[0].ID)
	}
}

func TestStatsConsistency(t *testing.T) {
	store := openTestStore(t)
	a, _ := store.AddImage("a.png")
	b, _ := store.AddImage("b.png")
	store.AddImage("c.png")
	d, _ := store.AddImage("d.png")

	store.UpdateStatus(a, StatusCompleted, nil, nil)
	store.UpdateStatus(b, StatusFailed, nil, ptr("boom"))
	store.UpdateStatus(d, StatusIdeas, ptr("ideas"), nil)

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 4 || stats.Completed != 1 || stats.Failed != 1 ||
		stats.Pending != 1 || stats.InProgress != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.Total != stats.Completed+stats.Failed+stats.Pending+stats.InProgress {
		t.Error("stats do not sum to total")
	}
}

func TestResetFailed(t *testing.T) {
	store := openTestStore(t)
	a, _ := store.AddImage("a.png")
	b, _ := store.AddImage("b.png")
	c, _ := store.AddImage("c.png")

	store.UpdateStatus(a, StatusFailed, nil, ptr("boom"))
	store.UpdateStatus(b, StatusFailed, nil, ptr("crash"))
	store.UpdateStatus(c, StatusCompleted, nil, nil)

	count, err := store.ResetFailed()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 reset, got %d", count)
	}

	record, _ := store.GetImage(a)
	if record.Status != StatusPending {
		t.Errorf("expected pending after reset, got %q", record.Status)
	}
	if record.ErrorMessage != nil {
		t.Errorf("expected error cleared, got %q", *record.ErrorMessage)
	}

	completed, _ := store.GetImage(c)
	if completed.Status != StatusCompleted {
		t.Error("reset must not touch completed images")
	}
}

func TestExampleScenario(t *testing.T) {
	store := openTestStore(t)
	a, _ := store.AddImage("a.png")
	b, _ := store.AddImage("b.png")

	store.UpdateStatus(a, StatusCompleted, nil, nil)
	store.UpdateStatus(b, StatusFailed, nil, ptr("boom"))

	stats, _ := store.GetStats()
	if stats.Total != 2 || stats.Completed != 1 || stats.Failed != 1 ||
		stats.Pending != 0 || stats.InProgress != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	count, _ := store.ResetFailed()
	if count != 1 {
		t.Errorf("expected 1 reset, got %d", count)
	}

	record, _ := store.GetImageByPath("b.png")
	if record.Status != StatusPending {
		t.Errorf("expected pending, got %q", record.Status)
	}
	if record.ErrorMessage != nil {
		t.Error("expected error message cleared")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	store := openTestStore(t)

	cfg, err := store.GetConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Fatal("expected nil config before save")
	}

	store.SaveConfig(Config{
		ImagesDir:          "images",
		OutputDir:          "out",
		VariantTypes:       []string{"numerical", "context"},
		GenerateAlternates: true,
		UseContext:         false,
	})

	cfg, _ = store.GetConfig()
	if cfg == nil {
		t.Fatal("expected config")
	}
	if cfg.ImagesDir != "images" || cfg.OutputDir != "out" {
		t.Errorf("unexpected dirs: %+v", cfg)
	}
	if len(cfg.VariantTypes) != 2 || cfg.VariantTypes[0] != "numerical" {
		t.Errorf("unexpected variant types: %v", cfg.VariantTypes)
	}
	if !cfg.GenerateAlternates || cfg.UseContext {
		t.Errorf("unexpected flags: %+v", cfg)
	}

	// Saving again overwrites the singleton wholesale.
	store.SaveConfig(Config{ImagesDir: "images2", OutputDir: "out2", UseContext: true})
	cfg, _ = store.GetConfig()
	if cfg.ImagesDir != "images2" || len(cfg.VariantTypes) != 0 || cfg.GenerateAlternates {
		t.Errorf("expected overwrite, got %+v", cfg)
	}
}
