package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/gosimple/slug"
)

// ObjectUploader is the bucket the archive writes to. Location is empty
// when the bucket has no public address.
type ObjectUploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (*UploadResult, error)
	GetPublicURL(key string) string
}

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// PlacementArchive uploads the final placement list of a tournament as JSON.
type PlacementArchive struct {
	uploader ObjectUploader
	logger   *slog.Logger
	now      func() time.Time
}

func NewPlacementArchive(uploader ObjectUploader, logger *slog.Logger) *PlacementArchive {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlacementArchive{uploader: uploader, logger: logger, now: time.Now}
}

type placementDocument struct {
	TournamentID int                     `json:"tournament_id"`
	Name         string                  `json:"name"`
	Format       models.TournamentFormat `json:"format"`
	Season       int                     `json:"season"`
	ArchivedAt   time.Time               `json:"archived_at"`
	Placements   []models.Placement      `json:"placements"`
}

// PlacementKey is placements/{season}/{name-slug}-{id}.json.
func PlacementKey(t *models.Tournament) string {
	return fmt.Sprintf("placements/%d/%s-%d.json", t.Season, slug.Make(t.Name), t.ID)
}

// ArchivePlacements returns the public URL of the object, or its key when
// the bucket has no public URL.
func (a *PlacementArchive) ArchivePlacements(ctx context.Context, t *models.Tournament, placements []models.Placement) (string, error) {
	body, err := json.Marshal(placementDocument{
		TournamentID: t.ID,
		Name:         t.Name,
		Format:       t.Format,
		Season:       t.Season,
		ArchivedAt:   a.now().UTC(),
		Placements:   placements,
	})
	if err != nil {
		return "", fmt.Errorf("encode placements: %w", err)
	}

	key := PlacementKey(t)
	result, err := a.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	a.logger.Debug("placements uploaded", slog.String("key", key), slog.String("etag", result.ETag))
	if result.Location != "" {
		return result.Location, nil
	}
	return result.Key, nil
}
