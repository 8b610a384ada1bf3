/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateShareLink mints a read-only dashboard share token for a patient.
// The token is an unguessable UUID, not a sequential ID, since it is the
// only credential protecting the shared view.
func CreateShareLink(ctx context.Context, patientID string, label *string) (*ShareLink, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")

	var share ShareLink
	query := `
		INSERT INTO share_links (patient_id, token, label)
		VALUES ($1, $2, $3)
		RETURNING id, patient_id, token, label, revoked, created_at
	`

	err := pool.QueryRow(ctx, query, patientID, token, label).Scan(
		&share.ID, &share.PatientID, &share.Token, &share.Label,
		&share.Revoked, &share.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create share link: %w", err)
	}

	return &share, nil
}

// GetShareLinkByToken resolves an active share token to its share link.
// Revoked or unknown tokens yield ErrShareNotFound.
func GetShareLinkByToken(ctx context.Context, token string) (*ShareLink, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var share ShareLink
	query := `
		SELECT id, patient_id, token, label, revoked, created_at
		FROM share_links
		WHERE token = $1 AND NOT revoked
	`

	err := pool.QueryRow(ctx, query, token).Scan(
		&share.ID, &share.PatientID, &share.Token, &share.Label,
		&share.Revoked, &share.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve share token: %w", err)
	}

	return &share, nil
}

// GetShareLinkByID fetches one share link, active or revoked.
func GetShareLinkByID(ctx context.Context, id string) (*ShareLink, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var share ShareLink
	query := `
		SELECT id, patient_id, token, label, revoked, created_at
		FROM share_links
		WHERE id = $1
	`

	err := pool.QueryRow(ctx, query, id).Scan(
		&share.ID, &share.PatientID, &share.Token, &share.Label,
		&share.Revoked, &share.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch share link: %w", err)
	}

	return &share, nil
}

// ListShareLinks returns all share links for a patient, newest first.
func ListShareLinks(ctx context.Context, patientID string) ([]ShareLink, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT id, patient_id, token, label, revoked, created_at
		FROM share_links
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`

	rows, err := pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list share links: %w", err)
	}
	defer rows.Close()

	var shares []ShareLink
	for rows.Next() {
		var share ShareLink
		err := rows.Scan(
			&share.ID, &share.PatientID, &share.Token, &share.Label,
			&share.Revoked, &share.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share link: %w", err)
		}
		shares = append(shares, share)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating share links: %w", err)
	}

	return shares, nil
}

// RevokeShareLink marks a share link revoked. The row is kept for the
// share history listing.
func RevokeShareLink(ctx context.Context, id string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx, `UPDATE share_links SET revoked = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke share link: %w", err)
	}

	return nil
}
