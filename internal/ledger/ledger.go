// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package ledger records issued licenses in a SQLite database.
package ledger

import (
	"context"
	_ "crypto/sha256" // Register SHA-256 for go-digest.
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/opencontainers/go-digest"
	_ "modernc.org/sqlite" // Register the SQLite driver for database/sql.

	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
)

// ErrNotFound is returned when no entry exists for a license ID.
var ErrNotFound = errors.New("license not found in ledger")

// ErrLicenseIDMissing is returned when recording a license without a license ID.
var ErrLicenseIDMissing = errors.New("license ID is missing")

const schema = `
CREATE TABLE IF NOT EXISTS licenses (
  id          TEXT    PRIMARY KEY,
  fingerprint TEXT    NOT NULL,
  kid         TEXT    NOT NULL,
  digest      TEXT    NOT NULL,
  issued      INTEGER NOT NULL,
  expiry      INTEGER,
  revoked     INTEGER,
  data        TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS licenses_issued_idx ON licenses(issued);
`

// Entry is a ledger record of an issued license.
type Entry struct {
	// LicenseID is the licenseId feature of the license.
	LicenseID string `json:"licenseId"`

	// Fingerprint is the SHA-256 digest of the unsigned binary form.
	Fingerprint digest.Digest `json:"fingerprint"`

	// KeyID is the ID of the key that signed the license.
	KeyID string `json:"kid,omitempty"`

	// DigestAlgorithm is the digest algorithm used for signing.
	DigestAlgorithm string `json:"digestAlgorithm,omitempty"`

	// IssuedAt is the time the entry was recorded.
	IssuedAt time.Time `json:"issuedAt"`

	// Expiry is the license expiry date, if any.
	Expiry *time.Time `json:"expiry,omitempty"`

	// Revoked is the revocation time, if revoked.
	Revoked *time.Time `json:"revoked,omitempty"`

	// Data is the base64 form of the license.
	Data string `json:"data"`
}

// NewEntry builds a ledger entry for a license signed with the given key ID.
func NewEntry(lic *license.License, keyID string) (*Entry, error) {
	id, ok := lic.LicenseID()
	if !ok {
		return nil, ErrLicenseIDMissing
	}

	e := &Entry{
		LicenseID:   id.String(),
		Fingerprint: digest.FromBytes(lic.Unsigned()),
		KeyID:       keyID,
		IssuedAt:    time.Now().UTC(),
		Data:        lic.Base64(),
	}
	if alg, ok := lic.DigestAlgorithm(); ok {
		e.DigestAlgorithm = alg
	}
	if exp, ok := lic.Expiry(); ok {
		e.Expiry = &exp
	}
	return e, nil
}

// License decodes the license stored in the entry.
func (e *Entry) License() (*license.License, error) {
	return license.FromBase64(e.Data)
}

// Store is a SQLite backed ledger.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at dsn
// and ensures the PRAGMAs and the schema are set.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps in-memory databases shared across calls.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts the entry or replaces the entry with the same license ID.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.LicenseID == "" {
		return ErrLicenseIDMissing
	}
	if err := e.Fingerprint.Validate(); err != nil {
		return fmt.Errorf("invalid fingerprint: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO licenses(id, fingerprint, kid, digest, issued, expiry, revoked, data)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET fingerprint=excluded.fingerprint, kid=excluded.kid,
		   digest=excluded.digest, issued=excluded.issued, expiry=excluded.expiry,
		   revoked=COALESCE(excluded.revoked, licenses.revoked), data=excluded.data`,
		e.LicenseID, e.Fingerprint.String(), e.KeyID, e.DigestAlgorithm,
		e.IssuedAt.UnixMilli(), toMillis(e.Expiry), toMillis(e.Revoked), e.Data)
	if err != nil {
		return fmt.Errorf("failed to record license %s: %w", e.LicenseID, err)
	}

	logr.FromContextOrDiscard(ctx).V(1).Info("license recorded",
		"licenseId", e.LicenseID, "fingerprint", e.Fingerprint.String())
	return nil
}

// Get returns the entry for the license ID.
func (s *Store) Get(ctx context.Context, licenseID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, fingerprint, kid, digest, issued, expiry, revoked, data FROM licenses WHERE id=?`,
		licenseID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, licenseID)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns all entries ordered by issue time.
func (s *Store) List(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fingerprint, kid, digest, issued, expiry, revoked, data FROM licenses ORDER BY issued ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkRevoked sets the revocation time of the license ID.
func (s *Store) MarkRevoked(ctx context.Context, licenseID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE licenses SET revoked=? WHERE id=?`, at.UnixMilli(), licenseID)
	if err != nil {
		return fmt.Errorf("failed to revoke license %s: %w", licenseID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, licenseID)
	}

	logr.FromContextOrDiscard(ctx).V(1).Info("license revoked", "licenseId", licenseID)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e               Entry
		fingerprint     string
		issued          int64
		expiry, revoked sql.NullInt64
	)
	if err := row.Scan(&e.LicenseID, &fingerprint, &e.KeyID, &e.DigestAlgorithm,
		&issued, &expiry, &revoked, &e.Data); err != nil {
		return nil, err
	}

	d, err := digest.Parse(fingerprint)
	if err != nil {
		return nil, fmt.Errorf("invalid fingerprint for license %s: %w", e.LicenseID, err)
	}
	e.Fingerprint = d
	e.IssuedAt = time.UnixMilli(issued).UTC()
	e.Expiry = fromMillis(expiry)
	e.Revoked = fromMillis(revoked)
	return &e, nil
}

func toMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
