package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mirage-engine/application/ports"
	"mirage-engine/domain/core/aggregates"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	"mirage-engine/domain/events"
	domainservices "mirage-engine/domain/services"
	pkgerrors "mirage-engine/pkg/errors"
)

// MintService turns a destiny tree snapshot into a fate artifact.
// The snapshot's canonical JSON is hashed; minting is idempotent on
// that hash, so re-minting an unchanged tree returns the existing
// artifact instead of creating a duplicate.
type MintService struct {
	artifacts ports.ArtifactRepository
	evaluator *domainservices.RarityEvaluator
	publisher ports.TickPublisher
	logger    *zap.Logger
}

// NewMintService creates a mint service
func NewMintService(
	artifacts ports.ArtifactRepository,
	evaluator *domainservices.RarityEvaluator,
	publisher ports.TickPublisher,
	logger *zap.Logger,
) *MintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MintService{
		artifacts: artifacts,
		evaluator: evaluator,
		publisher: publisher,
		logger:    logger,
	}
}

// MintResult reports the outcome of a mint call
type MintResult struct {
	Artifact *entities.FateArtifact
	// Existing is true when the snapshot had already been minted and
	// the stored artifact was returned unchanged
	Existing bool
}

// Mint evaluates a snapshot and persists the resulting artifact
func (s *MintService) Mint(ctx context.Context, graph *aggregates.DestinyGraph, characterID valueobjects.CharacterID) (*MintResult, error) {
	snap, err := graph.Snapshot(characterID)
	if err != nil {
		return nil, err
	}

	hash, err := SnapshotHash(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to hash snapshot: %w", err)
	}

	if existing, err := s.artifacts.GetByContentHash(ctx, hash); err == nil && existing != nil {
		s.logger.Debug("snapshot already minted",
			zap.String("token_id", existing.TokenID()),
			zap.String("content_hash", hash),
		)
		return &MintResult{Artifact: existing, Existing: true}, nil
	} else if err != nil && !pkgerrors.IsNotFound(err) {
		return nil, err
	}

	evaluation, err := s.evaluator.Evaluate(snap)
	if err != nil {
		return nil, err
	}

	previous, err := s.artifacts.GetByCharacterID(ctx, characterID)
	if err != nil && !pkgerrors.IsNotFound(err) {
		return nil, err
	}

	artifact, err := entities.NewFateArtifact(
		uuid.New().String(),
		characterID,
		hash,
		evaluation.Tier,
		evaluation.Score,
		len(previous)+1,
		evaluation.NodeCount,
		time.Now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.artifacts.Save(ctx, artifact); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		evt := events.NewArtifactMinted(
			artifact.TokenID(), characterID,
			artifact.Tier(), artifact.RarityScore(),
			artifact.ContentHash(), artifact.MintedAt(),
		)
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("mint event publish failed",
				zap.String("token_id", artifact.TokenID()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("artifact minted",
		zap.String("token_id", artifact.TokenID()),
		zap.String("character_id", characterID.String()),
		zap.String("tier", string(artifact.Tier())),
		zap.Float64("score", artifact.RarityScore()),
		zap.Int("generation", artifact.Generation()),
	)
	return &MintResult{Artifact: artifact}, nil
}

// SnapshotHash computes the deterministic content hash of a snapshot:
// SHA-256 over its canonical JSON encoding. Snapshot node order and tag
// order are already normalized, so equal trees hash equally.
func SnapshotHash(snap *aggregates.GraphSnapshot) (string, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
