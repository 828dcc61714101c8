package backup

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/getresett/resett/internal/config"
	"github.com/getresett/resett/internal/database"
)

// fakeS3 keeps objects in memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[aws.ToString(input.Key)] = data
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	data, ok := f.objects[aws.ToString(input.Key)]
	f.mu.Unlock()
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, aws.ToString(input.Key))
	f.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var contents []types.Object
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(input.Prefix)) {
			contents = append(contents, types.Object{Key: aws.String(key)})
		}
	}
	return &s3.ListObjectsV2Output{Contents: contents}, nil
}

func (f *fakeS3) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func testManager(t *testing.T, keep int) (*Manager, *fakeS3) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Backup{Bucket: "test-bucket", Passphrase: "hunter2", Keep: keep}
	m := NewManager(cfg, db, dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	fake := newFakeS3()
	m.client = fake
	return m, fake
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	m, fake := testManager(t, 14)

	if err := m.RunNow(context.Background()); err != nil {
		t.Fatalf("run now: %v", err)
	}

	keys := fake.keys()
	if len(keys) != 1 {
		t.Fatalf("uploaded objects = %d, want 1", len(keys))
	}
	if !strings.HasPrefix(keys[0], "backups/") || !strings.HasSuffix(keys[0], ".db.enc") {
		t.Errorf("key = %q", keys[0])
	}

	// The uploaded blob must decrypt back to a SQLite file.
	plaintext, err := Decrypt(fake.objects[keys[0]], "hunter2")
	if err != nil {
		t.Fatalf("decrypt uploaded blob: %v", err)
	}
	if !strings.HasPrefix(string(plaintext[:16]), "SQLite format 3") {
		t.Error("decrypted snapshot is not a SQLite database")
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	m, fake := testManager(t, 2)

	for _, key := range []string{
		"backups/2025-01-01T030000Z.db.enc",
		"backups/2025-01-02T030000Z.db.enc",
		"backups/2025-01-03T030000Z.db.enc",
		"unrelated/file",
	} {
		fake.objects[key] = []byte("x")
	}

	if err := m.prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	keys := fake.keys()
	want := []string{
		"backups/2025-01-02T030000Z.db.enc",
		"backups/2025-01-03T030000Z.db.enc",
		"unrelated/file",
	}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	m, _ := testManager(t, 14)

	if err := m.RunNow(context.Background()); err != nil {
		t.Fatalf("run now: %v", err)
	}

	var key string
	for _, k := range m.client.(*fakeS3).keys() {
		key = k
	}

	dst := filepath.Join(t.TempDir(), "restored.db")
	if err := m.Restore(context.Background(), key, dst); err != nil {
		t.Fatalf("restore: %v", err)
	}
}

func TestScheduleRunsOncePerDay(t *testing.T) {
	m, fake := testManager(t, 14)

	now := time.Date(2025, time.April, 30, 3, 15, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.checkSchedule(context.Background())
	m.checkSchedule(context.Background())
	if len(fake.keys()) != 1 {
		t.Fatalf("objects after same-day ticks = %d, want 1", len(fake.keys()))
	}

	// Off-hour tick does nothing.
	now = now.Add(2 * time.Hour)
	m.checkSchedule(context.Background())
	if len(fake.keys()) != 1 {
		t.Fatalf("objects after off-hour tick = %d, want 1", len(fake.keys()))
	}

	// Next day at 03:00 runs again.
	now = now.AddDate(0, 0, 1).Add(-2 * time.Hour)
	m.checkSchedule(context.Background())
	if len(fake.keys()) != 2 {
		t.Fatalf("objects after next-day tick = %d, want 2", len(fake.keys()))
	}
}
