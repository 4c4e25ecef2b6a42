// Package pipeline drives each registered image through the processing
// stages: classify, scan, tikz, ideas, alternates, and variants. Stage
// results and status transitions are recorded in the batch database so an
// interrupted run resumes where it stopped.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vaibhavblayer/vbagent-sub000/internal/agents"
	"github.com/vaibhavblayer/vbagent-sub000/internal/batchdb"
)

// Result holds the results of a batch run.
type Result struct {
	Processed int
	Completed int
	Failed    int
}

// Pipeline orchestrates per-image processing.
type Pipeline struct {
	store  *batchdb.Store
	agents *agents.Agents
}

// New creates a new pipeline.
func New(store *batchdb.Store, ag *agents.Agents) *Pipeline {
	return &Pipeline{store: store, agents: ag}
}

// imageExtensions accepted during discovery.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true,
}

// InitBatch discovers images in imagesDir, registers them, and saves the
// batch configuration. Returns the number of images now registered.
func (p *Pipeline) InitBatch(imagesDir string, cfg batchdb.Config) (int, error) {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		return 0, fmt.Errorf("reading images dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(imagesDir, entry.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return 0, fmt.Errorf("no images found in %s", imagesDir)
	}

	for _, path := range paths {
		if _, err := p.store.AddImage(path); err != nil {
			return 0, fmt.Errorf("registering %s: %w", path, err)
		}
	}

	cfg.ImagesDir = imagesDir
	if err := p.store.SaveConfig(cfg); err != nil {
		return 0, fmt.Errorf("saving batch config: %w", err)
	}
	return len(paths), nil
}

// Run processes all pending images. Each failure is recorded against its
// image and the run continues with the next one.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	cfg, err := p.store.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("loading batch config: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no batch initialized; run 'vbagent batch init' first")
	}

	pending, err := p.store.GetPendingImages()
	if err != nil {
		return nil, fmt.Errorf("loading pending images: %w", err)
	}
	if len(pending) == 0 {
		log.Println("No pending images")
		return &Result{}, nil
	}

	r := &Result{}
	for i, record := range pending {
		if ctx.Err() != nil {
			return r, ctx.Err()
		}
		log.Printf("Processing %d/%d: %s", i+1, len(pending), record.ImagePath)
		r.Processed++

		if err := p.processImage(ctx, record, cfg); err != nil {
			msg := err.Error()
			p.store.UpdateStatus(record.ID, batchdb.StatusFailed, nil, &msg)
			log.Printf("Failed %s: %v", record.ImagePath, err)
			r.Failed++
			continue
		}
		p.store.UpdateStatus(record.ID, batchdb.StatusCompleted, nil, nil)
		r.Completed++
	}

	log.Printf("Batch run complete: %d completed, %d failed", r.Completed, r.Failed)
	return r, nil
}

func (p *Pipeline) processImage(ctx context.Context, record batchdb.ImageRecord, cfg *batchdb.Config) error {
	id := record.ID
	baseName := problemName(record.ImagePath)

	stage := "classify"
	p.store.UpdateStatus(id, batchdb.StatusClassifying, &stage, nil)
	classification, err := p.agents.Classify(ctx, record.ImagePath)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	classJSON, err := json.Marshal(classification)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	if err := p.store.SaveClassification(id, string(classJSON)); err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	stage = "scan"
	p.store.UpdateStatus(id, batchdb.StatusScanning, &stage, nil)
	scan, err := p.agents.Scan(ctx, record.ImagePath)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if scan.Latex == "" {
		return fmt.Errorf("scan: empty transcription")
	}
	if err := p.store.SaveLatex(id, scan.Latex); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	var tikz string
	if classification.HasDiagram || scan.HasDiagram {
		stage = "tikz"
		p.store.UpdateStatus(id, batchdb.StatusTikz, &stage, nil)
		description := ""
		if scan.DiagramDescription != nil {
			description = *scan.DiagramDescription
		}
		tikz, err = p.agents.GenerateTikz(ctx, description, scan.Latex)
		if err != nil {
			return fmt.Errorf("tikz: %w", err)
		}
		if err := p.store.SaveTikz(id, tikz); err != nil {
			return fmt.Errorf("tikz: %w", err)
		}
	}

	stage = "ideas"
	p.store.UpdateStatus(id, batchdb.StatusIdeas, &stage, nil)
	ideas, err := p.agents.ExtractIdeas(ctx, scan.Latex)
	if err != nil {
		return fmt.Errorf("ideas: %w", err)
	}
	ideasJSON, err := json.Marshal(ideas)
	if err != nil {
		return fmt.Errorf("ideas: %w", err)
	}
	if err := p.store.SaveIdeas(id, string(ideasJSON)); err != nil {
		return fmt.Errorf("ideas: %w", err)
	}

	var alternates []string
	if cfg.GenerateAlternates {
		stage = "alternates"
		p.store.UpdateStatus(id, batchdb.StatusAlternates, &stage, nil)
		alt, err := p.agents.GenerateAlternate(ctx, scan.Latex)
		if err != nil {
			return fmt.Errorf("alternates: %w", err)
		}
		if err := p.store.SaveAlternate(id, alt); err != nil {
			return fmt.Errorf("alternates: %w", err)
		}
		alternates = append(alternates, alt)
	}

	variants := make(map[string]string)
	if len(cfg.VariantTypes) > 0 {
		stage = "variants"
		p.store.UpdateStatus(id, batchdb.StatusVariants, &stage, nil)
		for _, vtype := range cfg.VariantTypes {
			variant, err := p.agents.GenerateVariant(ctx, scan.Latex, string(ideasJSON), vtype)
			if err != nil {
				return fmt.Errorf("variant %s: %w", vtype, err)
			}
			if err := p.store.SaveVariant(id, vtype, variant); err != nil {
				return fmt.Errorf("variant %s: %w", vtype, err)
			}
			variants[vtype] = variant
		}
	}

	return writeOutputs(cfg.OutputDir, baseName, outputSet{
		latex:          scan.Latex,
		classification: string(classJSON),
		tikz:           tikz,
		ideas:          string(ideasJSON),
		alternates:     alternates,
		variants:       variants,
	})
}

// problemName derives the problem identifier from the image filename.
func problemName(imagePath string) string {
	base := filepath.Base(imagePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type outputSet struct {
	latex          string
	classification string
	tikz           string
	ideas          string
	alternates     []string
	variants       map[string]string
}

// writeOutputs lays the results out under the output directory:
//
//	scans/{name}.tex
//	classifications/{name}.json
//	tikz/{name}.tex
//	ideas/{name}.json
//	alternates/{name}.tex
//	variants/{type}/{name}.tex
func writeOutputs(outputDir, baseName string, out outputSet) error {
	write := func(subdir, filename, content string) error {
		dir := filepath.Join(outputDir, subdir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		path := filepath.Join(dir, filename)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return nil
	}

	if err := write("scans", baseName+".tex", out.latex); err != nil {
		return err
	}
	if err := write("classifications", baseName+".json", out.classification); err != nil {
		return err
	}
	if out.tikz != "" {
		if err := write("tikz", baseName+".tex", out.tikz); err != nil {
			return err
		}
	}
	if err := write("ideas", baseName+".json", out.ideas); err != nil {
		return err
	}
	if len(out.alternates) > 0 {
		combined := strings.Join(out.alternates, "\n\n% --- Alternate Solution ---\n\n")
		if err := write("alternates", baseName+".tex", combined); err != nil {
			return err
		}
	}
	for vtype, content := range out.variants {
		if err := write(filepath.Join("variants", vtype), baseName+".tex", content); err != nil {
			return err
		}
	}
	return nil
}
