package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	clientdist "github.com/kinet-dev/kinet/client/dist"
	"github.com/kinet-dev/kinet/internal/config"
	kineterrors "github.com/kinet-dev/kinet/internal/errors"
	"github.com/kinet-dev/kinet/pkg/assets"
)

const (
	// clientKey is the bucket key for the client runtime. Deliberately
	// unfingerprinted: the shell references it by stable URL.
	clientKey = "kinet.js"

	// manifestName is where the source-to-published mapping lands.
	manifestName = "kinet-manifest.json"
)

func publishCmd() *cobra.Command {
	var (
		bucket string
		region string
		prefix string
		dist   string
		prune  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the client bundle and static assets to S3",
		Long: `Upload the client runtime and the static assets directory to an S3
bucket for CDN-backed serving.

Static assets are fingerprinted by content hash, so every upload gets a
fresh key and caches never serve stale bytes. The source-to-published
mapping is written to kinet-manifest.json.

Credentials come from the default AWS chain (environment, shared config,
instance role).

Examples:
  kinet publish --bucket=my-assets
  kinet publish --bucket=my-assets --region=eu-west-1 --prefix=app/
  kinet publish --dist=build/public --prune=720h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(bucket, region, prefix, dist, prune)
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Target S3 bucket (default from kinet.json)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region of the bucket (default from kinet.json)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix inside the bucket (default from kinet.json)")
	cmd.Flags().StringVar(&dist, "dist", "", "Directory to publish (default: the static directory)")
	cmd.Flags().DurationVar(&prune, "prune", 0, "Delete published objects older than this after upload")

	return cmd
}

func runPublish(bucket, region, prefix, dist string, prune time.Duration) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		if !isCode(err, "K061") {
			return err
		}
		cfg = config.New()
	}

	// Apply command-line overrides
	if bucket == "" {
		bucket = cfg.Assets.Bucket
	}
	if bucket == "" {
		return kineterrors.New("K063").
			WithSuggestion("Set assets.bucket in kinet.json or pass --bucket")
	}
	if region == "" {
		region = cfg.Assets.Region
	}
	if prefix == "" {
		prefix = cfg.Assets.Prefix
	}
	if dist == "" {
		dist = cfg.StaticPath()
	}

	if fi, err := os.Stat(dist); err != nil || !fi.IsDir() {
		return kineterrors.New("K080").
			WithDetail("Not a directory: " + dist).
			WithSuggestion("Point --dist at the directory to publish")
	}

	clientJS := clientdist.KinetJS
	if path := cfg.ClientPath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return kineterrors.New("K082").
				WithDetail("Cannot read " + path).
				Wrap(err)
		}
		clientJS = data
	}

	// Handle signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	printBanner()
	fmt.Println("  publish")
	fmt.Println()
	info("Target: s3://%s/%s", bucket, prefix)
	fmt.Println()

	var optFns []func(*awsconfig.LoadOptions) error
	if region != "" {
		optFns = append(optFns, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return kineterrors.New("K081").
			WithDetail("AWS configuration failed").
			Wrap(err)
	}

	store := assets.NewS3Store(s3.NewFromConfig(awsCfg), bucket, prefix)
	start := time.Now()

	err = store.Put(ctx, clientKey,
		"application/javascript; charset=utf-8", bytes.NewReader(clientJS))
	if err != nil {
		return kineterrors.New("K081").
			WithDetail("Uploading " + clientKey).
			Wrap(err)
	}
	info("%s (%s)", clientKey, formatBytes(int64(len(clientJS))))

	manifest, err := assets.Sync(ctx, store, dist, assets.WithFingerprint(true))
	if err != nil {
		return kineterrors.New("K081").
			WithDetail("Syncing " + dist).
			Wrap(err)
	}

	published := manifest.All()
	sources := make([]string, 0, len(published))
	for source := range published {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		info("%s → %s", source, published[source])
	}

	manifestPath := filepath.Join(cfg.Dir(), manifestName)
	if err := manifest.WriteFile(manifestPath); err != nil {
		warn("Could not write %s: %v", manifestPath, err)
	}

	if prune > 0 {
		removed, err := store.Prune(ctx, prune)
		if err != nil {
			warn("Prune failed: %v", err)
		} else if removed > 0 {
			info("Pruned %d stale objects", removed)
		}
	}

	fmt.Println()
	success("Published %d assets in %s", manifest.Len()+1, time.Since(start).Round(time.Millisecond))

	if url, err := store.URL(ctx, clientKey); err == nil {
		fmt.Println()
		fmt.Println("  Client bundle:")
		fmt.Printf("    %s\n", url)
	}
	fmt.Println()

	return nil
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
