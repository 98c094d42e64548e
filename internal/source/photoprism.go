package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/drummonds/photoprism-go-api/api"
	"github.com/drummonds/slideframe/internal/config"
	"github.com/drummonds/slideframe/internal/logging"
)

// PhotoPrismPrefix marks slide paths that name a PhotoPrism photo UID.
const PhotoPrismPrefix = "photoprism:"

// How many photos one album search returns.
const albumPageSize = 100

// PhotoPrism lists the photos of an album (or of the whole library when
// no album is set) and downloads the first JPEG file of each.
type PhotoPrism struct {
	client *api.ClientWithResponses
	album  string
	log    *slog.Logger
}

func NewPhotoPrism(cfg config.PhotoPrism, logger *slog.Logger) (*PhotoPrism, error) {
	provider := api.NewXAuthProvider(cfg.Token)
	client, err := api.NewClientWithResponses(cfg.URL, api.WithRequestEditorFn(provider.Intercept))
	if err != nil {
		return nil, fmt.Errorf("photoprism client: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PhotoPrism{client: client, album: cfg.Album, log: logger}, nil
}

// List pages through the album until a short page comes back.
func (p *PhotoPrism) List(ctx context.Context) ([]string, error) {
	var list []string
	for offset := 0; ; offset += albumPageSize {
		page, err := p.page(ctx, offset)
		if err != nil {
			return nil, err
		}
		for _, photo := range page {
			if photo.UID == nil {
				continue
			}
			if photo.OriginalName != nil {
				p.log.Debug("photoprism photo", "uid", *photo.UID, "original_name", *photo.OriginalName)
			}
			list = append(list, PhotoPrismPrefix+*photo.UID)
		}
		if len(page) < albumPageSize {
			break
		}
	}
	if len(list) == 0 {
		return nil, ErrEmpty
	}
	return list, nil
}

func (p *PhotoPrism) page(ctx context.Context, offset int) ([]api.SearchPhoto, error) {
	params := api.SearchPhotosParams{Count: albumPageSize, Offset: &offset}
	if p.album != "" {
		album := p.album
		params.S = &album
	}
	photos, err := p.client.SearchPhotosWithResponse(ctx, &params)
	if err != nil {
		return nil, fmt.Errorf("search photos: %w", err)
	}
	if photos.HTTPResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search photos: status %d", photos.HTTPResponse.StatusCode)
	}
	if photos.JSON200 == nil {
		return nil, nil
	}
	return *photos.JSON200, nil
}

// Fetch downloads the original JPEG of the photo named by path.
func (p *PhotoPrism) Fetch(ctx context.Context, path string) ([]byte, error) {
	uid, ok := strings.CutPrefix(path, PhotoPrismPrefix)
	if !ok {
		return nil, fmt.Errorf("not a photoprism path: %q", path)
	}
	photo, err := p.client.GetPhotoWithResponse(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get photo %s: %w", uid, err)
	}
	if photo.HTTPResponse.StatusCode != http.StatusOK || photo.JSON200 == nil {
		return nil, fmt.Errorf("get photo %s: status %d", uid, photo.HTTPResponse.StatusCode)
	}
	files := photo.JSON200.Files
	if files == nil || len(*files) == 0 {
		return nil, fmt.Errorf("photo %s has no files", uid)
	}
	file := firstJpeg(*files)
	if file.Hash == nil {
		return nil, fmt.Errorf("photo %s has no jpeg file", uid)
	}
	download, err := p.client.GetDownloadWithResponse(ctx, *file.Hash)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", uid, err)
	}
	if download.HTTPResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", uid, download.HTTPResponse.StatusCode)
	}
	return download.Body, nil
}

func firstJpeg(files []api.EntityFile) api.EntityFile {
	for _, file := range files {
		if file.Mime != nil && *file.Mime == "image/jpeg" {
			return file
		}
	}
	return api.EntityFile{}
}
