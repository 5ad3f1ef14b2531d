package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jacklau/floatpack/internal/bitpack"
	"github.com/jacklau/floatpack/internal/codec"
	"github.com/jacklau/floatpack/internal/pubsub"
)

// DefaultChunkRecords is the number of records each worker handles at a time.
const DefaultChunkRecords = 64 * 1024

// Stage names the direction of a job.
type Stage string

const (
	StageCompress   Stage = "compress"
	StageDecompress Stage = "decompress"
)

// Progress is the payload published on the broker.
type Progress struct {
	Stage Stage
	Done  int
	Total int
}

// Deps holds the dependencies for the Pipeline.
type Deps struct {
	Config       codec.Config
	Workers      int
	ChunkRecords int
	Broker       *pubsub.Broker[Progress]
	Logger       *slog.Logger
}

// Pipeline encodes and packs float sequences in parallel. Records have a
// fixed width per session, so every chunk's byte offset is known up front
// and workers write disjoint ranges of one output buffer.
type Pipeline struct {
	deps Deps
}

// New creates a Pipeline. The codec config is validated here so that a bad
// truncate count fails before any data is touched.
func New(deps Deps) (*Pipeline, error) {
	if err := deps.Config.Validate(); err != nil {
		return nil, err
	}
	if deps.Workers <= 0 {
		deps.Workers = runtime.NumCPU()
	}
	if deps.ChunkRecords <= 0 {
		deps.ChunkRecords = DefaultChunkRecords
	}
	// Chunks of a multiple of 8 records start on byte boundaries.
	deps.ChunkRecords = (deps.ChunkRecords + 7) &^ 7
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline{deps: deps}, nil
}

// Config returns the codec configuration in use.
func (p *Pipeline) Config() codec.Config {
	return p.deps.Config
}

type chunk struct {
	first, count int
}

func (p *Pipeline) plan(total int) []chunk {
	var chunks []chunk
	for first := 0; first < total; first += p.deps.ChunkRecords {
		chunks = append(chunks, chunk{first: first, count: min(p.deps.ChunkRecords, total-first)})
	}
	return chunks
}

// byteOffset is exact because chunk starts are multiples of 8 records.
func (p *Pipeline) byteOffset(record int) int {
	return record * p.deps.Config.RecordWidth() / 8
}

// Compress encodes values and packs them into a single buffer.
func (p *Pipeline) Compress(ctx context.Context, values []float32) ([]byte, error) {
	cfg := p.deps.Config
	out := make([]byte, bitpack.PackedSize(len(values), cfg))

	err := p.run(ctx, StageCompress, len(values), func(c chunk) error {
		records := codec.EncodeSlice(values[c.first:c.first+c.count], cfg)
		return bitpack.PackInto(out[p.byteOffset(c.first):], records, cfg)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Decompress unpacks count records from buf and decodes them.
func (p *Pipeline) Decompress(ctx context.Context, buf []byte, count int) ([]float32, error) {
	cfg := p.deps.Config
	if err := bitpack.CheckRange(buf, 0, count, cfg); err != nil {
		return nil, err
	}
	out := make([]float32, count)

	err := p.run(ctx, StageDecompress, count, func(c chunk) error {
		records, err := bitpack.UnpackAt(buf, c.first, c.count, cfg)
		if err != nil {
			return err
		}
		for i, r := range records {
			out[c.first+i] = codec.Decode(r, cfg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) run(ctx context.Context, stage Stage, total int, work func(chunk) error) error {
	chunks := p.plan(total)
	logger := p.deps.Logger.With(
		"stage", stage,
		"records", total,
		"chunks", len(chunks),
		"truncate_count", p.deps.Config.TruncateCount,
	)

	start := time.Now()
	logger.Debug("pipeline started", "workers", p.deps.Workers)
	p.deps.Broker.Publish(pubsub.Started, Progress{Stage: stage, Total: total})

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.deps.Workers)

	for _, c := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := work(c); err != nil {
				return fmt.Errorf("chunk at record %d: %w", c.first, err)
			}
			n := done.Add(int64(c.count))
			p.deps.Broker.Publish(pubsub.Progress, Progress{Stage: stage, Done: int(n), Total: total})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("pipeline failed", "error", err, "duration", time.Since(start))
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.deps.Broker.Publish(pubsub.Finished, Progress{Stage: stage, Done: total, Total: total})
	logger.Debug("pipeline finished", "duration", time.Since(start))
	return nil
}
