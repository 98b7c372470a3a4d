// Package enroll builds one mean face embedding per identity from a directory
// of reference photos.
package enroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kozaktomas/whereabouts/internal/enrollment"
	"github.com/kozaktomas/whereabouts/internal/faceapi"
	"github.com/kozaktomas/whereabouts/internal/facematch"
	"github.com/kozaktomas/whereabouts/internal/logger"
)

// Progress receives one Add(1) per processed image.
type Progress interface {
	Add(n int) error
}

// Builder walks <root>/<identity>/<image> and stores the mean embedding of each identity.
type Builder struct {
	Detector    faceapi.Detector
	Store       enrollment.Store
	Logger      *logger.Logger
	Progress    Progress
	Concurrency int
}

// IdentityReport summarizes the enrollment of one identity.
type IdentityReport struct {
	Identity string `json:"identity"`
	Images   int    `json:"images"`
	Used     int    `json:"used"`
	Skipped  int    `json:"skipped"`
	Dim      int    `json:"dim"`
	Saved    bool   `json:"saved"`
}

// Report summarizes a Build run.
type Report struct {
	Identities []IdentityReport `json:"identities"`
}

// Saved returns the number of identities written to the store.
func (r *Report) Saved() int {
	n := 0
	for _, id := range r.Identities {
		if id.Saved {
			n++
		}
	}
	return n
}

type identityDir struct {
	name   string
	images []string
}

// scan lists identity directories under root and their files, both sorted by name.
// Non-directory entries directly under root are ignored.
func scan(root string) ([]identityDir, int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, 0, fmt.Errorf("read raw faces dir: %w", err)
	}

	var dirs []identityDir
	total := 0
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, 0, fmt.Errorf("read identity dir %s: %w", e.Name(), err)
		}
		d := identityDir{name: e.Name()}
		for _, f := range files {
			if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			d.images = append(d.images, filepath.Join(root, e.Name(), f.Name()))
		}
		sort.Strings(d.images)
		dirs = append(dirs, d)
		total += len(d.images)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].name < dirs[j].name })
	return dirs, total, nil
}

// CountImages returns the number of candidate image files under root.
func CountImages(root string) (int, error) {
	_, total, err := scan(root)
	return total, err
}

// Build enrolls every identity directory under root. An identity whose photos
// yield no face gets no record; previous records of other identities are replaced.
func (b *Builder) Build(ctx context.Context, root string) (*Report, error) {
	dirs, _, err := scan(root)
	if err != nil {
		return nil, err
	}

	log := b.Logger
	if log == nil {
		log = logger.Nop()
	}

	report := &Report{}
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		ir, err := b.enrollIdentity(ctx, log.With("identity", dir.name), dir)
		report.Identities = append(report.Identities, ir)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (b *Builder) enrollIdentity(ctx context.Context, log *logger.Logger, dir identityDir) (IdentityReport, error) {
	ir := IdentityReport{Identity: dir.name, Images: len(dir.images)}

	if err := enrollment.ValidateIdentity(dir.name); err != nil {
		log.Warn("skipping identity with unusable name", "error", err)
		ir.Skipped = ir.Images
		return ir, nil
	}

	embeddings := b.detectAll(ctx, log, dir.images)
	if err := ctx.Err(); err != nil {
		return ir, err
	}

	var kept [][]float32
	for i, emb := range embeddings {
		if emb == nil {
			continue
		}
		if len(kept) > 0 && len(emb) != len(kept[0]) {
			log.Warn("skipping image with mismatched embedding dimension",
				"image", filepath.Base(dir.images[i]), "dim", len(emb), "expected", len(kept[0]))
			continue
		}
		kept = append(kept, emb)
	}
	ir.Used = len(kept)
	ir.Skipped = ir.Images - ir.Used

	if len(kept) == 0 {
		log.Warn("no usable faces found, identity not enrolled", "images", ir.Images)
		return ir, nil
	}

	mean := facematch.Mean(kept)
	if err := b.Store.Save(ctx, dir.name, mean); err != nil {
		return ir, fmt.Errorf("save embedding for %s: %w", dir.name, err)
	}
	ir.Dim = len(mean)
	ir.Saved = true
	log.Info("identity enrolled", "images", ir.Images, "used", ir.Used, "dim", ir.Dim)
	return ir, nil
}

// detectAll returns the first face embedding of every image, nil where the
// image was skipped. Results keep image order regardless of concurrency.
func (b *Builder) detectAll(ctx context.Context, log *logger.Logger, images []string) [][]float32 {
	out := make([][]float32, len(images))

	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, path := range images {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer b.tick()

			if ctx.Err() != nil {
				return
			}
			out[i] = b.detectFirst(ctx, log.With("image", filepath.Base(path)), path)
		}(i, path)
	}

	wg.Wait()
	return out
}

func (b *Builder) detectFirst(ctx context.Context, log *logger.Logger, path string) []float32 {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Info("skipping unreadable image", "error", err)
		return nil
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		log.Info("skipping unreadable image", "error", err)
		return nil
	}

	detections, err := b.Detector.Detect(ctx, data)
	if err != nil {
		if errors.Is(err, faceapi.ErrUndecodable) {
			log.Info("skipping unreadable image", "error", err)
		} else {
			log.Warn("face detection failed, skipping image", "error", err)
		}
		return nil
	}
	if len(detections) == 0 {
		log.Info("no face detected, skipping image")
		return nil
	}
	if len(detections) > 1 {
		log.Debug("multiple faces detected, using the first", "faces", len(detections))
	}
	if len(detections[0].Embedding) == 0 {
		log.Info("first face has no embedding, skipping image")
		return nil
	}
	return detections[0].Embedding
}

func (b *Builder) tick() {
	if b.Progress != nil {
		_ = b.Progress.Add(1)
	}
}
