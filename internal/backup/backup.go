// Package backup ships encrypted SQLite snapshots to S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"

	"github.com/getresett/resett/internal/config"
)

const keyPrefix = "backups/"

// s3Client is the slice of the S3 API the manager uses, kept narrow so tests
// can stand in for it.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Manager takes nightly snapshots of the database, encrypts them, and prunes
// old ones. The snapshot uses VACUUM INTO so the copy is consistent without
// stopping writers.
type Manager struct {
	mu     sync.RWMutex
	cfg    config.Backup
	db     *sql.DB
	dbPath string
	client s3Client
	logger *slog.Logger
	now    func() time.Time

	lastRun string // date key of the last successful scheduled run

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a backup manager against the configured bucket.
func NewManager(cfg config.Backup, db *sql.DB, dbPath string, logger *slog.Logger) *Manager {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &Manager{
		cfg:    cfg,
		db:     db,
		dbPath: dbPath,
		client: s3.New(opts),
		logger: logger,
		now:    time.Now,
	}
}

// Start begins the nightly snapshot loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkSchedule(ctx)
			}
		}
	}()
}

// Stop gracefully stops the snapshot loop.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// checkSchedule runs one snapshot per UTC day, in the 03:00 hour.
func (m *Manager) checkSchedule(ctx context.Context) {
	now := m.now().UTC()
	if now.Hour() != 3 {
		return
	}

	today := now.Format("2006-01-02")
	m.mu.RLock()
	alreadyRan := m.lastRun == today
	m.mu.RUnlock()
	if alreadyRan {
		return
	}

	if err := m.RunNow(ctx); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
		return
	}

	m.mu.Lock()
	m.lastRun = today
	m.mu.Unlock()
}

// RunNow takes a snapshot, encrypts it, uploads it, and prunes old objects.
func (m *Manager) RunNow(ctx context.Context) error {
	snapshot := filepath.Join(os.TempDir(), fmt.Sprintf("resett-snapshot-%d.db", m.now().UnixNano()))
	defer os.Remove(snapshot)

	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return fmt.Errorf("vacuum into snapshot: %w", err)
	}

	plaintext, err := os.ReadFile(snapshot)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	blob, err := Encrypt(plaintext, m.cfg.Passphrase)
	if err != nil {
		return fmt.Errorf("encrypt snapshot: %w", err)
	}

	key := keyPrefix + m.now().UTC().Format("2006-01-02T150405Z") + ".db.enc"
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(blob),
		ContentLength: aws.Int64(int64(len(blob))),
	})
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}

	m.logger.Info("backup uploaded", "key", key, "bytes", len(blob))

	if err := m.prune(ctx); err != nil {
		m.logger.Warn("prune old backups", "error", err)
	}
	return nil
}

// Restore fetches and decrypts a snapshot into dstPath. It does not touch the
// live database file; swapping it in is an operator step.
func (m *Manager) Restore(ctx context.Context, key, dstPath string) error {
	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download snapshot: %w", err)
	}
	defer result.Body.Close()

	blob, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("read snapshot body: %w", err)
	}

	plaintext, err := Decrypt(blob, m.cfg.Passphrase)
	if err != nil {
		return fmt.Errorf("decrypt snapshot: %w", err)
	}

	if err := os.WriteFile(dstPath, plaintext, 0600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}

	// Sanity-check before anyone points the service at it.
	check, err := sql.Open("sqlite", dstPath)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer check.Close()

	var integrity string
	if err := check.QueryRow("PRAGMA integrity_check").Scan(&integrity); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}
	return nil
}

// prune deletes the oldest snapshots beyond the configured retention count.
// Keys embed their timestamp, so lexical order is chronological.
func (m *Manager) prune(ctx context.Context) error {
	if m.cfg.Keep <= 0 {
		return nil
	}

	result, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.cfg.Bucket),
		Prefix: aws.String(keyPrefix),
	})
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	keys := make([]string, 0, len(result.Contents))
	for _, obj := range result.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	if len(keys) <= m.cfg.Keep {
		return nil
	}
	sort.Strings(keys)

	for _, key := range keys[:len(keys)-m.cfg.Keep] {
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete old snapshot", "key", key, "error", err)
		}
	}
	return nil
}
