package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/in4everyall/tennisclub-league/models"
	"github.com/in4everyall/tennisclub-league/storage"
)

// ArchiveService keeps a frozen copy of a closed phase's standings in object storage.
type ArchiveService interface {
	ArchivePhase(ctx context.Context, phaseCode string, groups []models.GroupStandings) (string, error)
}

type phaseArchive struct {
	PhaseCode  string                  `json:"phase_code"`
	ArchivedAt time.Time               `json:"archived_at"`
	Groups     []models.GroupStandings `json:"groups"`
}

type archiveService struct {
	uploader storage.FileUploader
	now      Clock
}

func NewArchiveService(uploader storage.FileUploader, now Clock) ArchiveService {
	return &archiveService{uploader: uploader, now: now}
}

func archiveKey(phaseCode string) string {
	return fmt.Sprintf("phases/%s/standings.json", phaseCode)
}

func (s *archiveService) ArchivePhase(ctx context.Context, phaseCode string, groups []models.GroupStandings) (string, error) {
	body, err := json.Marshal(phaseArchive{
		PhaseCode:  phaseCode,
		ArchivedAt: s.now().UTC(),
		Groups:     groups,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode archive of phase %s: %w", phaseCode, err)
	}

	result, err := s.uploader.Upload(ctx, archiveKey(phaseCode), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return result.Location, nil
}
