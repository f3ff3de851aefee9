package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"nextlevel/api/internal/apperrors"
	"nextlevel/api/internal/ids"
	"nextlevel/api/internal/storage"
	"nextlevel/api/internal/strutil"
)

const maxAvatarBytes = 5 << 20

var allowedAvatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AvatarUpdater is the slice of the user store the upload service
// needs.
type AvatarUpdater interface {
	UpdateAvatar(ctx context.Context, id bson.ObjectID, avatarURL string) error
}

type UploadService struct {
	store *storage.ObjectStore
	users AvatarUpdater
	log   zerolog.Logger
}

func NewUploadService(store *storage.ObjectStore, users AvatarUpdater, log zerolog.Logger) *UploadService {
	return &UploadService{
		store: store,
		users: users,
		log:   log,
	}
}

// UploadAvatar sniffs the real content type, stores the file under a
// fresh key and persists the resulting URL on the user.
func (s *UploadService) UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (string, error) {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return "", fmt.Errorf("%w: malformed user id", apperrors.ErrValidation)
	}

	if header.Size > maxAvatarBytes {
		return "", fmt.Errorf("%w: file exceeds %s", apperrors.ErrValidation, strutil.FormatBytes(maxAvatarBytes))
	}

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", apperrors.ErrValidation)
	}
	if len(data) > maxAvatarBytes {
		return "", fmt.Errorf("%w: file exceeds %s", apperrors.ErrValidation, strutil.FormatBytes(maxAvatarBytes))
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedAvatarTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type %s", apperrors.ErrValidation, contentType)
	}
	if declared := path.Ext(strings.ToLower(header.Filename)); declared == ".jpeg" && ext == ".jpg" {
		ext = ".jpeg"
	}

	key := fmt.Sprintf("avatars/%s%s", ids.New(), ext)
	avatarURL, err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return "", err
	}

	if err := s.users.UpdateAvatar(ctx, id, avatarURL); err != nil {
		return "", err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("size", strutil.FormatBytes(int64(len(data)))).
		Msg("avatar uploaded")
	return avatarURL, nil
}
