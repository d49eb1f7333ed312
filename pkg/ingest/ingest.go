// Package ingest 实现文档摄取管线。
//
// 单文档流程：校验 → 指纹 → 幂等闸门（已入库则跳过）→ 抽取 → 分块 →
// 批量向量化 → upsert 入库。向量化与索引写入失败按指数退避重试，
// 有限次后放弃并将该文档标记为失败。批量摄取按文档并发，单个文档的
// 失败不影响批内其它文档，每个文档产出一条结局记录。
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kart-io/logger"

	"github.com/lontok/kala-rag/internal/pkg/pool"
	"github.com/lontok/kala-rag/pkg/chunk"
	"github.com/lontok/kala-rag/pkg/errors"
	"github.com/lontok/kala-rag/pkg/extract"
	"github.com/lontok/kala-rag/pkg/fingerprint"
	"github.com/lontok/kala-rag/pkg/index"
	ingestopts "github.com/lontok/kala-rag/pkg/options/ingest"
)

// Status 是单文档摄取结局。
type Status string

const (
	// StatusIndexed 文档已成功分块并入库。
	StatusIndexed Status = "indexed"

	// StatusAlreadyIndexed 相同内容已在库中，本次为幂等空操作。
	StatusAlreadyIndexed Status = "already-indexed"

	// StatusEmpty 文档有效但抽取后没有可入库的文本。
	StatusEmpty Status = "empty"

	// StatusFailed 文档处理失败。
	StatusFailed Status = "failed"
)

// Outcome 是单文档的摄取结局记录。
type Outcome struct {
	// Path 是源文件路径。
	Path string

	// Fingerprint 是文档内容指纹，校验失败时可能为空。
	Fingerprint string

	// Status 是结局状态。
	Status Status

	// Chunks 是入库的块数。
	Chunks int

	// Err 在 Status 为 failed 时携带失败原因。
	Err error
}

// Embedder 批量向量化块文本。
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline 组合抽取、分块、向量化与索引写入。
type Pipeline struct {
	extractor *extract.Extractor
	chunker   *chunk.Chunker
	embedder  Embedder
	idx       index.Index
	opts      *ingestopts.Options
}

// New 创建摄取管线。
func New(extractor *extract.Extractor, chunker *chunk.Chunker, embedder Embedder, idx index.Index, opts *ingestopts.Options) *Pipeline {
	if opts == nil {
		opts = ingestopts.NewOptions()
	}
	return &Pipeline{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		idx:       idx,
		opts:      opts,
	}
}

// IngestFile 摄取单个文档并返回其结局。
func (p *Pipeline) IngestFile(ctx context.Context, path string) *Outcome {
	outcome := &Outcome{Path: path}

	if err := p.extractor.Validate(path); err != nil {
		return outcome.fail(err)
	}

	fp, err := fingerprint.SumFile(path)
	if err != nil {
		return outcome.fail(errors.ErrInvalidFile.WithCause(err))
	}
	outcome.Fingerprint = fp

	// 幂等闸门：相同内容已入库时跳过抽取与向量化开销
	exists, err := p.idx.Exists(ctx, fp)
	if err != nil {
		return outcome.fail(err)
	}
	if exists {
		logger.Infow("document already indexed, skipping", "path", path, "fingerprint", fp)
		outcome.Status = StatusAlreadyIndexed
		return outcome
	}

	doc, err := p.extractor.Extract(path)
	if err != nil {
		return outcome.fail(err)
	}

	chunks, err := p.splitDocument(path, fp, doc)
	if err != nil {
		return outcome.fail(err)
	}
	if len(chunks) == 0 {
		logger.Warnw("document yielded no chunks", "path", path, "fingerprint", fp)
		outcome.Status = StatusEmpty
		return outcome
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	var vectors [][]float32
	err = p.retry(ctx, func() error {
		var embedErr error
		vectors, embedErr = p.embedder.EmbedTexts(ctx, texts)
		return embedErr
	})
	if err != nil {
		return outcome.fail(err)
	}

	embedded := make([]index.EmbeddedChunk, len(chunks))
	for i, ch := range chunks {
		embedded[i] = index.EmbeddedChunk{Chunk: ch, Vector: vectors[i]}
	}

	if err := p.retry(ctx, func() error {
		return p.idx.Insert(ctx, embedded)
	}); err != nil {
		return outcome.fail(err)
	}

	logger.Infow("document indexed",
		"path", path, "fingerprint", fp, "chunks", len(chunks))
	outcome.Status = StatusIndexed
	outcome.Chunks = len(chunks)
	return outcome
}

// IngestFiles 并发摄取一批文档，返回与输入同序的结局列表。
func (p *Pipeline) IngestFiles(ctx context.Context, paths []string) ([]Outcome, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	workers, err := pool.New("ingest", &pool.Config{
		Capacity:       p.opts.Workers,
		ExpiryDuration: 10 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	defer workers.Release()

	outcomes := make([]Outcome, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		i, path := i, path
		wg.Add(1)
		if err := workers.Submit(func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				outcomes[i] = Outcome{Path: path, Status: StatusFailed, Err: ctx.Err()}
			default:
				outcomes[i] = *p.IngestFile(ctx, path)
			}
		}); err != nil {
			wg.Done()
			outcomes[i] = Outcome{Path: path, Status: StatusFailed, Err: err}
		}
	}

	wg.Wait()
	return outcomes, nil
}

// IngestDir 摄取目录下所有受支持格式的文件（递归）。
func (p *Pipeline) IngestDir(ctx context.Context, dir string) ([]Outcome, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := extract.DetectFormat(path); err != nil {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, errors.ErrInvalidFile.WithMessagef("failed to scan directory: %s", dir).WithCause(err)
	}

	return p.IngestFiles(ctx, paths)
}

// Delete 删除指定指纹文档的全部块。
func (p *Pipeline) Delete(ctx context.Context, fp string) (int64, error) {
	deleted, err := p.idx.Delete(ctx, fp)
	if err != nil {
		return deleted, err
	}
	logger.Infow("document deleted", "fingerprint", fp, "chunks", deleted)
	return deleted, nil
}

// Reset 清空索引集合。只在显式调用时执行。
func (p *Pipeline) Reset(ctx context.Context) error {
	return p.idx.Reset(ctx)
}

// splitDocument 组装块来源信息并执行分块。
func (p *Pipeline) splitDocument(path, fp string, doc *extract.Document) ([]chunk.Chunk, error) {
	meta := make(map[string]any, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	meta["file_path"] = path
	meta["format"] = string(doc.Format)

	src := chunk.Source{
		Fingerprint: fp,
		Name:        filepath.Base(path),
		Metadata:    meta,
		Pages:       doc.Pages,
	}
	return p.chunker.Split(doc.Text, src, p.opts.ChunkSize, p.opts.ChunkOverlap)
}

// retry 以指数退避重试向量化/索引操作，维度不匹配视为永久失败。
func (p *Pipeline) retry(ctx context.Context, op func() error) error {
	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.IsCode(err, errors.ErrEmbeddingDimension.Code) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.opts.RetryInitialInterval
	return backoff.Retry(wrapped, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(p.opts.MaxRetries)), ctx))
}

func (o *Outcome) fail(err error) *Outcome {
	logger.Errorw("document ingestion failed", "path", o.Path, "error", err.Error())
	o.Status = StatusFailed
	o.Err = err
	return o
}

// String 返回结局摘要，用于批量报告。
func (o *Outcome) String() string {
	var sb strings.Builder
	sb.WriteString(string(o.Status))
	sb.WriteString(" ")
	sb.WriteString(o.Path)
	return sb.String()
}
