package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"
	"alcyxob/blockcoach/internal/storage"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadURLResponse is handed to the athlete's client for a direct PUT to storage.
type UploadURLResponse struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"` // reported back on confirm
	ExpiresAt time.Time `json:"expiresAt"`
}

// ConfirmUploadInput describes a finished upload.
type ConfirmUploadInput struct {
	ObjectKey string
	FileName  string
}

// MediaService attaches form-check videos to logged sets.
type MediaService interface {
	RequestUploadURL(ctx context.Context, actor Actor, setID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmUpload(ctx context.Context, actor Actor, setID primitive.ObjectID, in ConfirmUploadInput) (*domain.Upload, error)
	GetDownloadURL(ctx context.Context, actor Actor, setID primitive.ObjectID) (string, error)
	DeleteUpload(ctx context.Context, actor Actor, setID primitive.ObjectID) error
}

type mediaService struct {
	tree        TreeRepos
	uploadRepo  repository.UploadRepository
	loader      programLoader
	fileStorage storage.FileStorage
	expiry      time.Duration
	now         func() time.Time
}

// NewMediaService creates the upload flow. A nil fileStorage disables it.
func NewMediaService(deps ProgramDeps, uploadRepo repository.UploadRepository, fileStorage storage.FileStorage, expiry time.Duration) MediaService {
	if expiry <= 0 {
		expiry = storage.DefaultPresignedURLExpiry
	}
	return &mediaService{
		tree:        deps.Tree,
		uploadRepo:  uploadRepo,
		loader:      programLoader{blockRepo: deps.Blocks, templateRepo: deps.Templates},
		fileStorage: fileStorage,
		expiry:      expiry,
		now:         time.Now,
	}
}

// setInBlock loads a set and the block it belongs to.
func (s *mediaService) setInBlock(ctx context.Context, setID primitive.ObjectID) (*domain.Set, *program, error) {
	if s.fileStorage == nil {
		return nil, nil, ErrMediaDisabled
	}
	set, err := s.tree.Sets.GetByID(ctx, setID)
	if err != nil {
		return nil, nil, notFound(err, ErrSetNotFound)
	}
	if set.ProgramKind != domain.KindBlock {
		return nil, nil, ErrNotABlock
	}
	p, err := s.loader.load(ctx, set.Program())
	if err != nil {
		return nil, nil, err
	}
	return set, p, nil
}

func (s *mediaService) athleteSet(ctx context.Context, actor Actor, setID primitive.ObjectID) (*domain.Set, *program, error) {
	set, p, err := s.setInBlock(ctx, setID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.IsAthlete() || p.AthleteID != actor.ID {
		return nil, nil, ErrProgramAccessDenied
	}
	return set, p, nil
}

func objectKeyPrefix(athleteID, setID primitive.ObjectID) string {
	return path.Join("uploads", athleteID.Hex(), setID.Hex()) + "/"
}

// RequestUploadURL generates a pre-signed PUT URL for a video of one set.
func (s *mediaService) RequestUploadURL(ctx context.Context, actor Actor, setID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "video/") || len(contentType) == len("video/") {
		return nil, ErrInvalidContentType
	}
	_, _, err := s.athleteSet(ctx, actor, setID)
	if err != nil {
		return nil, err
	}

	extension := strings.TrimPrefix(contentType, "video/")
	objectKey := objectKeyPrefix(actor.ID, setID) + fmt.Sprintf("%s.%s", uuid.NewString(), extension)

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, s.expiry)
	if err != nil {
		log.Errorf("media: presign upload for set %s: %s", setID.Hex(), err)
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		ExpiresAt: s.now().Add(s.expiry).UTC(),
	}, nil
}

// ConfirmUpload records the uploaded object and links it to the set. A
// previous video of the same set is replaced; confirming the object that is
// already linked returns the existing record.
func (s *mediaService) ConfirmUpload(ctx context.Context, actor Actor, setID primitive.ObjectID, in ConfirmUploadInput) (*domain.Upload, error) {
	set, p, err := s.athleteSet(ctx, actor, setID)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(in.ObjectKey, objectKeyPrefix(actor.ID, setID)) {
		return nil, ErrUploadKeyMismatch
	}

	info, err := s.fileStorage.StatObject(ctx, in.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrUploadObjectMissing
		}
		return nil, err
	}

	if previous, err := s.uploadRepo.GetBySetID(ctx, setID); err == nil {
		if previous.ObjectKey == in.ObjectKey {
			return s.relink(ctx, set, previous)
		}
		if err := s.removeUpload(ctx, previous); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	upload := &domain.Upload{
		SetID:       setID,
		BlockID:     p.Ref.ID,
		AthleteID:   actor.ID,
		CoachID:     p.CoachID,
		ObjectKey:   in.ObjectKey,
		FileName:    in.FileName,
		ContentType: info.ContentType,
		Size:        info.Size,
	}
	uploadID, err := s.uploadRepo.Create(ctx, upload)
	if err != nil {
		log.Errorf("media: save upload metadata for set %s: %s", setID.Hex(), err)
		return nil, ErrUploadConfirmationFailed
	}

	if err := s.tree.Sets.SetVideo(ctx, setID, &uploadID); err != nil {
		// undo the metadata so the set and the upload record never disagree
		if delErr := s.uploadRepo.Delete(context.WithoutCancel(ctx), uploadID); delErr != nil {
			log.Errorf("media: compensate upload %s: %s", uploadID.Hex(), delErr)
		}
		return nil, ErrUploadConfirmationFailed
	}
	return upload, nil
}

// relink makes sure a retried confirm leaves the set pointing at upload.
func (s *mediaService) relink(ctx context.Context, set *domain.Set, upload *domain.Upload) (*domain.Upload, error) {
	if set.VideoUploadID != nil && *set.VideoUploadID == upload.ID {
		return upload, nil
	}
	if err := s.tree.Sets.SetVideo(ctx, set.ID, &upload.ID); err != nil {
		return nil, notFound(err, ErrSetNotFound)
	}
	return upload, nil
}

// GetDownloadURL is open to the block's athlete and its coach.
func (s *mediaService) GetDownloadURL(ctx context.Context, actor Actor, setID primitive.ObjectID) (string, error) {
	_, p, err := s.setInBlock(ctx, setID)
	if err != nil {
		return "", err
	}
	if !p.viewableBy(actor) {
		return "", ErrProgramAccessDenied
	}
	upload, err := s.uploadRepo.GetBySetID(ctx, setID)
	if err != nil {
		return "", notFound(err, ErrUploadNotFound)
	}
	downloadURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, upload.ObjectKey, s.expiry)
	if err != nil {
		log.Errorf("media: presign download for set %s: %s", setID.Hex(), err)
		return "", ErrDownloadURLError
	}
	return downloadURL, nil
}

func (s *mediaService) DeleteUpload(ctx context.Context, actor Actor, setID primitive.ObjectID) error {
	if _, _, err := s.athleteSet(ctx, actor, setID); err != nil {
		return err
	}
	upload, err := s.uploadRepo.GetBySetID(ctx, setID)
	if err != nil {
		return notFound(err, ErrUploadNotFound)
	}
	if err := s.removeUpload(ctx, upload); err != nil {
		return err
	}
	return notFound(s.tree.Sets.SetVideo(ctx, setID, nil), ErrSetNotFound)
}

// removeUpload deletes the stored object, then its metadata.
func (s *mediaService) removeUpload(ctx context.Context, upload *domain.Upload) error {
	if err := s.fileStorage.DeleteObject(ctx, upload.ObjectKey); err != nil {
		return fmt.Errorf("delete stored video: %w", err)
	}
	if err := s.uploadRepo.Delete(ctx, upload.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete upload record: %w", err)
	}
	return nil
}
