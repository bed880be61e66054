package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

type mediaFixture struct {
	*fixture
	coach, athlete Actor
	set            domain.Set
	storage        *storage.MockFileStorage
	media          MediaService
}

func newMediaFixture(t *testing.T) *mediaFixture {
	t.Helper()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	block := f.newBlock(t, coach, athlete, &blockStart, shape{weeks: 1, days: 1, exercises: 1, sets: 1})
	tree, err := f.programs.GetTree(context.Background(), coach, blockRef(block.ID))
	require.NoError(t, err)

	fileStorage := storage.NewMockFileStorage(gomock.NewController(t))
	return &mediaFixture{
		fixture: f,
		coach:   coach,
		athlete: athlete,
		set:     firstSet(t, tree),
		storage: fileStorage,
		media:   NewMediaService(f.deps, f.store.Uploads(), fileStorage, 10*time.Minute),
	}
}

func TestMediaService_UploadFlow(t *testing.T) {
	ctx := context.Background()
	m := newMediaFixture(t)

	var objectKey string
	m.storage.EXPECT().
		GeneratePresignedUploadURL(gomock.Any(), gomock.Any(), "video/mp4", 10*time.Minute).
		DoAndReturn(func(_ context.Context, key, _ string, _ time.Duration) (string, error) {
			objectKey = key
			return "https://s3.example/put/" + key, nil
		})

	resp, err := m.media.RequestUploadURL(ctx, m.athlete, m.set.ID, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, objectKey, resp.ObjectKey)
	assert.True(t, strings.HasPrefix(resp.ObjectKey, "uploads/"+m.athlete.ID.Hex()+"/"+m.set.ID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(resp.ObjectKey, ".mp4"))

	m.storage.EXPECT().StatObject(gomock.Any(), objectKey).
		Return(&storage.ObjectInfo{Size: 2048, ContentType: "video/mp4"}, nil)

	upload, err := m.media.ConfirmUpload(ctx, m.athlete, m.set.ID, ConfirmUploadInput{ObjectKey: objectKey, FileName: "squat.mp4"})
	require.NoError(t, err)
	assert.Equal(t, m.coach.ID, upload.CoachID)
	assert.Equal(t, int64(2048), upload.Size)

	set, err := m.deps.Tree.Sets.GetByID(ctx, m.set.ID)
	require.NoError(t, err)
	require.NotNil(t, set.VideoUploadID)
	assert.Equal(t, upload.ID, *set.VideoUploadID)

	m.storage.EXPECT().GeneratePresignedDownloadURL(gomock.Any(), objectKey, 10*time.Minute).
		Return("https://s3.example/get", nil).Times(2)
	for _, viewer := range []Actor{m.coach, m.athlete} {
		url, err := m.media.GetDownloadURL(ctx, viewer, m.set.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://s3.example/get", url)
	}

	m.storage.EXPECT().DeleteObject(gomock.Any(), objectKey).Return(nil)
	require.NoError(t, m.media.DeleteUpload(ctx, m.athlete, m.set.ID))
	set, err = m.deps.Tree.Sets.GetByID(ctx, m.set.ID)
	require.NoError(t, err)
	assert.Nil(t, set.VideoUploadID)

	_, err = m.media.GetDownloadURL(ctx, m.coach, m.set.ID)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestMediaService_ConfirmReplacesPreviousVideo(t *testing.T) {
	ctx := context.Background()
	m := newMediaFixture(t)
	prefix := "uploads/" + m.athlete.ID.Hex() + "/" + m.set.ID.Hex() + "/"

	m.storage.EXPECT().StatObject(gomock.Any(), gomock.Any()).
		Return(&storage.ObjectInfo{Size: 1, ContentType: "video/quicktime"}, nil).Times(2)
	m.storage.EXPECT().DeleteObject(gomock.Any(), prefix+"a.mov").Return(nil)

	_, err := m.media.ConfirmUpload(ctx, m.athlete, m.set.ID, ConfirmUploadInput{ObjectKey: prefix + "a.mov"})
	require.NoError(t, err)
	second, err := m.media.ConfirmUpload(ctx, m.athlete, m.set.ID, ConfirmUploadInput{ObjectKey: prefix + "b.mov"})
	require.NoError(t, err)

	stored, err := m.store.Uploads().GetBySetID(ctx, m.set.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, stored.ID)
}

func TestMediaService_ConfirmRetryKeepsVideo(t *testing.T) {
	ctx := context.Background()
	m := newMediaFixture(t)
	key := "uploads/" + m.athlete.ID.Hex() + "/" + m.set.ID.Hex() + "/a.mp4"

	m.storage.EXPECT().StatObject(gomock.Any(), key).
		Return(&storage.ObjectInfo{Size: 4096, ContentType: "video/mp4"}, nil).Times(2)
	m.storage.EXPECT().DeleteObject(gomock.Any(), gomock.Any()).Times(0)

	first, err := m.media.ConfirmUpload(ctx, m.athlete, m.set.ID, ConfirmUploadInput{ObjectKey: key, FileName: "a.mp4"})
	require.NoError(t, err)
	retried, err := m.media.ConfirmUpload(ctx, m.athlete, m.set.ID, ConfirmUploadInput{ObjectKey: key, FileName: "a.mp4"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, retried.ID)

	stored, err := m.store.Uploads().GetBySetID(ctx, m.set.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	set, err := m.deps.Tree.Sets.GetByID(ctx, m.set.ID)
	require.NoError(t, err)
	require.NotNil(t, set.VideoUploadID)
	assert.Equal(t, first.ID, *set.VideoUploadID)
}

func TestMediaService_Rejections(t *testing.T) {
	ctx := context.Background()
	m := newMediaFixture(t)
	prefix := "uploads/" + m.athlete.ID.Hex() + "/" + m.set.ID.Hex() + "/"

	_, err := m.media.RequestUploadURL(ctx, m.athlete, m.set.ID, "image/png")
	assert.ErrorIs(t, err, ErrInvalidContentType)
	_, err = m.media.RequestUploadURL(ctx, m.athlete, m.set.ID, "video/")
	assert.ErrorIs(t, err, ErrInvalidContentType)
	_, err = m.media.RequestUploadURL(ctx, m.coach, m.set.ID, "video/mp4")
	assert.ErrorIs(t, err, ErrProgramAccessDenied)
	_, err = m.media.RequestUploadURL(ctx, m.athlete, primitive.NewObjectID(), "video/mp4")
	assert.ErrorIs(t, err, ErrSetNotFound)

	m.storage.EXPECT().GeneratePresignedUploadURL(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("no credentials"))
	_, err = m.media.RequestUploadURL(ctx, m.athlete, m.set.ID, "video/mp4")
	assert.ErrorIs(t, err, ErrUploadURLError)

	_, err = m.media.ConfirmUpload(ctx, m.athlete, m.set.ID, ConfirmUploadInput{ObjectKey: "uploads/someone-else/x.mp4"})
	assert.ErrorIs(t, err, ErrUploadKeyMismatch)

	m.storage.EXPECT().StatObject(gomock.Any(), prefix+"missing.mp4").Return(nil, storage.ErrObjectNotFound)
	_, err = m.media.ConfirmUpload(ctx, m.athlete, m.set.ID, ConfirmUploadInput{ObjectKey: prefix + "missing.mp4"})
	assert.ErrorIs(t, err, ErrUploadObjectMissing)

	disabled := NewMediaService(m.deps, m.store.Uploads(), nil, 0)
	_, err = disabled.RequestUploadURL(ctx, m.athlete, m.set.ID, "video/mp4")
	assert.ErrorIs(t, err, ErrMediaDisabled)
}
