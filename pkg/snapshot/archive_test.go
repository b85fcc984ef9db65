package snapshot

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/authz"
)

// fakeS3 records uploaded objects in memory.
type fakeS3 struct {
	objects map[string][]byte
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, assert.AnError
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func newTestArchiver(client s3API) *S3Archiver {
	a := newS3Archiver(client, ArchiveConfig{Bucket: "warden-test"})
	a.now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	}
	return a
}

func TestArchiveAndRetrieve(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	archiver := newTestArchiver(fake)

	snap := &Snapshot{
		Groups: []*authz.Group{{ID: "g1", Name: "eng"}},
		Roles:  []*authz.Role{{ID: "r1", Name: "reader"}},
	}

	key, err := archiver.Archive(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/2024-03-01T12-30-00Z.json", key)

	// Both the timestamped object and the latest pointer exist.
	assert.Contains(t, fake.objects, key)
	assert.Contains(t, fake.objects, "snapshots/latest.json")

	got, err := archiver.Retrieve(ctx, archiver.LatestKey())
	require.NoError(t, err)
	require.Len(t, got.Groups, 1)
	assert.Equal(t, "g1", got.Groups[0].ID)
	require.Len(t, got.Roles, 1)
	assert.Equal(t, "reader", got.Roles[0].Name)
}

func TestArchiveUploadFailure(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = assert.AnError
	archiver := newTestArchiver(fake)

	_, err := archiver.Archive(context.Background(), &Snapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload snapshot")
}

func TestRetrieveMissingKey(t *testing.T) {
	archiver := newTestArchiver(newFakeS3())
	_, err := archiver.Retrieve(context.Background(), "snapshots/nope.json")
	require.Error(t, err)
}

func TestArchiveCustomPrefix(t *testing.T) {
	fake := newFakeS3()
	a := newS3Archiver(fake, ArchiveConfig{Bucket: "b", Prefix: "backups/warden"})
	a.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	key, err := a.Archive(context.Background(), &Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, "backups/warden/2024-03-01T00-00-00Z.json", key)
	assert.Equal(t, "backups/warden/latest.json", a.LatestKey())
}
