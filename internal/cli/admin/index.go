package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/lectio-dev/lectio/internal/chunker"
	"github.com/lectio-dev/lectio/internal/config"
	"github.com/lectio-dev/lectio/internal/corpus"
	"github.com/lectio-dev/lectio/internal/domain"
	"github.com/lectio-dev/lectio/internal/indexer"
)

// IndexCmd returns the index command
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index a corpus into the vector store",
		Long:  "Chunk a corpus of text files, embed each chunk, and upsert the records into the configured vector store",
		RunE:  runIndex,
	}

	cmd.Flags().String("corpus", "", "Path to a local corpus directory")
	cmd.Flags().String("s3-bucket", "", "S3 bucket holding the corpus (alternative to --corpus)")
	cmd.Flags().String("s3-prefix", "", "Key prefix within the S3 bucket")
	cmd.Flags().String("collection", "", "Override the configured collection name")
	cmd.Flags().Int("concurrency", 0, "Override the embedding concurrency limit")
	cmd.Flags().Int("batch-size", 0, "Override the upsert batch size")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if v, _ := cmd.Flags().GetString("collection"); v != "" {
		cfg.Collection = v
	}
	if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
		cfg.IndexConcurrency = v
	}
	if v, _ := cmd.Flags().GetInt("batch-size"); v > 0 {
		cfg.UpsertBatchSize = v
	}

	source, err := buildSource(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	ch, err := chunker.New(chunker.Config{
		MaxLen:  cfg.ChunkMaxLen,
		Overlap: cfg.ChunkOverlap,
	})
	if err != nil {
		return err
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ix := indexer.New(source, ch, embedder, store, indexer.Config{
		Collection:  cfg.Collection,
		MinChunkLen: cfg.ChunkMinLen,
		Concurrency: cfg.IndexConcurrency,
		BatchSize:   cfg.UpsertBatchSize,
	})

	summary, err := ix.Run(ctx)
	if err != nil {
		// A partial failure still indexed most of the corpus. Report it
		// and exit cleanly so schedulers don't retry the whole run.
		if domain.ErrorCode(err) == domain.ErrCodePartialIndexFailure {
			log.Printf("indexing finished with failures: %v", err)
			printSummary(summary)
			return nil
		}
		return err
	}

	printSummary(summary)
	return nil
}

func buildSource(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (corpus.Source, error) {
	corpusDir, _ := cmd.Flags().GetString("corpus")
	s3Bucket, _ := cmd.Flags().GetString("s3-bucket")

	switch {
	case corpusDir != "" && s3Bucket != "":
		return nil, fmt.Errorf("--corpus and --s3-bucket are mutually exclusive")
	case corpusDir != "":
		return corpus.NewDirSource(corpusDir)
	case s3Bucket != "":
		if !cfg.HasS3() {
			return nil, fmt.Errorf("S3 credentials are not configured (LECTIO_S3_ENDPOINT, LECTIO_S3_ACCESS_KEY_ID, LECTIO_S3_SECRET_ACCESS_KEY)")
		}
		s3Prefix, _ := cmd.Flags().GetString("s3-prefix")
		return corpus.NewS3Source(ctx, corpus.S3SourceConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          s3Bucket,
			Prefix:          s3Prefix,
			UsePathStyle:    true,
		})
	default:
		return nil, fmt.Errorf("either --corpus or --s3-bucket is required")
	}
}

func printSummary(summary *indexer.Summary) {
	if summary == nil {
		return
	}
	log.Printf("indexed %d/%d chunks from %d files (%d failed)",
		summary.Indexed, summary.Chunks, summary.Files, summary.Failed)
}
