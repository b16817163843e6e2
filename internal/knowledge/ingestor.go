package knowledge

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

const (
	chunkSize    = 800
	chunkOverlap = 120
)

type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Indexer is the store-facing side of ingestion.
type Indexer interface {
	AddPassages(ctx context.Context, passages []Passage) error
}

// Ingestor loads veterinary knowledge documents from a local directory
// and/or an S3 bucket, chunks them, and feeds the store.
type Ingestor struct {
	store  Indexer
	s3     s3API
	logger *logging.Logger
}

// NewIngestor creates a document ingestor. s3Client may be nil when only
// local ingestion is used.
func NewIngestor(store Indexer, s3Client s3API, logger *logging.Logger) *Ingestor {
	if store == nil {
		panic("knowledge: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Ingestor{
		store:  store,
		s3:     s3Client,
		logger: logger,
	}
}

// IngestDir indexes every .txt and .md file under dir.
func (in *Ingestor) IngestDir(ctx context.Context, dir string) (int, error) {
	var passages []Passage

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isTextDocument(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("knowledge: failed to read %s: %w", path, err)
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = filepath.Base(path)
		}
		for _, chunk := range chunkText(string(data)) {
			passages = append(passages, Passage{Content: chunk, Source: rel})
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("knowledge: directory ingestion failed: %w", err)
	}

	if len(passages) == 0 {
		in.logger.Warn("no documents found for ingestion", "dir", dir)
		return 0, nil
	}
	if err := in.store.AddPassages(ctx, passages); err != nil {
		return 0, err
	}
	return len(passages), nil
}

// IngestBucket indexes every .txt and .md object under bucket/prefix.
func (in *Ingestor) IngestBucket(ctx context.Context, bucket, prefix string) (int, error) {
	if in.s3 == nil {
		return 0, fmt.Errorf("knowledge: no S3 client configured")
	}

	var passages []Passage
	var continuation *string

	for {
		out, err := in.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return 0, fmt.Errorf("knowledge: failed to list s3://%s/%s: %w", bucket, prefix, err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if !isTextDocument(key) {
				continue
			}
			body, err := in.fetchObject(ctx, bucket, key)
			if err != nil {
				return 0, err
			}
			for _, chunk := range chunkText(body) {
				passages = append(passages, Passage{Content: chunk, Source: "s3://" + bucket + "/" + key})
			}
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		continuation = out.NextContinuationToken
	}

	if len(passages) == 0 {
		in.logger.Warn("no documents found in bucket", "bucket", bucket, "prefix", prefix)
		return 0, nil
	}
	if err := in.store.AddPassages(ctx, passages); err != nil {
		return 0, err
	}
	return len(passages), nil
}

func (in *Ingestor) fetchObject(ctx context.Context, bucket, key string) (string, error) {
	out, err := in.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("knowledge: failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("knowledge: failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return string(data), nil
}

func isTextDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}

// chunkText splits a document into overlapping rune windows so that a fact
// near a chunk boundary is still retrievable in one piece.
func chunkText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	step := chunkSize - chunkOverlap
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
