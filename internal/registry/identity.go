// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/pdiddy/paperdex/pkg/types"
)

// UpsertIdentity records that identity denotes the canonical paper with the
// given id. If the (source, external_id) pair already points at a different
// row it is repointed (last writer wins) and the conflict is noted on w.
// The returned bool reports whether a new mapping was created.
//
// Safe under a concurrent duplicate insert: the loser of the unique-index
// race observes the winning row and treats it as a no-op rather than
// erroring.
func (s *Store) UpsertIdentity(ctx context.Context, canonicalID int64, identity types.Identity, w io.Writer) (bool, error) {
	return upsertIdentity(ctx, s.db, canonicalID, identity, w)
}

func upsertIdentity(ctx context.Context, q querier, canonicalID int64, identity types.Identity, w io.Writer) (bool, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO identity_mappings (source, external_id, canonical_id) VALUES (?, ?, ?)
		 ON CONFLICT(source, external_id) DO NOTHING`,
		string(identity.Source), identity.ExternalID, canonicalID)
	if err != nil {
		return false, fmt.Errorf("inserting identity %s:%s: %w", identity.Source, identity.ExternalID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return true, nil
	}

	// The mapping already exists; find out where it points.
	var existing int64
	err = q.QueryRowContext(ctx,
		`SELECT canonical_id FROM identity_mappings WHERE source = ? AND external_id = ?`,
		string(identity.Source), identity.ExternalID).Scan(&existing)
	if err != nil {
		return false, fmt.Errorf("re-reading identity %s:%s: %w", identity.Source, identity.ExternalID, err)
	}
	if existing == canonicalID {
		return false, nil
	}

	// Repointing an existing mapping is an explicit, logged exception path.
	if w != nil {
		fmt.Fprintf(w, "identity conflict: %s:%s repointed from paper %d to paper %d\n",
			identity.Source, identity.ExternalID, existing, canonicalID)
	}
	_, err = q.ExecContext(ctx,
		`UPDATE identity_mappings SET canonical_id = ? WHERE source = ? AND external_id = ?`,
		canonicalID, string(identity.Source), identity.ExternalID)
	if err != nil {
		return false, fmt.Errorf("repointing identity %s:%s: %w", identity.Source, identity.ExternalID, err)
	}
	return false, nil
}

// Resolve returns the canonical id mapped to (source, externalID), or 0 when
// no mapping exists.
func (s *Store) Resolve(ctx context.Context, source types.Source, externalID string) (int64, error) {
	return resolveIdentity(ctx, s.db, source, externalID)
}

func resolveIdentity(ctx context.Context, q querier, source types.Source, externalID string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT canonical_id FROM identity_mappings WHERE source = ? AND external_id = ?`,
		string(source), externalID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolving %s:%s: %w", source, externalID, err)
	}
	return id, nil
}

// ResolveAny returns the canonical id mapped to externalID under any source
// (first hit in source order), or 0 when no mapping exists.
func (s *Store) ResolveAny(ctx context.Context, externalID string) (int64, error) {
	return resolveAnyIdentity(ctx, s.db, externalID)
}

func resolveAnyIdentity(ctx context.Context, q querier, externalID string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT canonical_id FROM identity_mappings WHERE external_id = ? ORDER BY source LIMIT 1`,
		externalID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolving %s: %w", externalID, err)
	}
	return id, nil
}

// ListIdentities returns every identity mapped to the canonical paper,
// ordered by source then external id.
func (s *Store) ListIdentities(ctx context.Context, canonicalID int64) ([]types.Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, external_id FROM identity_mappings WHERE canonical_id = ?
		 ORDER BY source, external_id`, canonicalID)
	if err != nil {
		return nil, fmt.Errorf("listing identities for paper %d: %w", canonicalID, err)
	}
	defer rows.Close()

	var ids []types.Identity
	for rows.Next() {
		var src string
		var id types.Identity
		if err := rows.Scan(&src, &id.ExternalID); err != nil {
			return nil, fmt.Errorf("scanning identity row: %w", err)
		}
		id.Source = types.Source(src)
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteIdentity removes a mapping. Used by operators to undo a bad link;
// normal operation never deletes identities.
func (s *Store) DeleteIdentity(ctx context.Context, identity types.Identity) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM identity_mappings WHERE source = ? AND external_id = ?`,
		string(identity.Source), identity.ExternalID)
	if err != nil {
		return fmt.Errorf("deleting identity %s:%s: %w", identity.Source, identity.ExternalID, err)
	}
	return nil
}
