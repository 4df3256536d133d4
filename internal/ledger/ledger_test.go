// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package ledger

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	. "github.com/onsi/gomega"
	"github.com/opencontainers/go-digest"

	"github.com/controlplaneio-fluxcd/license-kit/internal/license"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestLicense(g *WithT, owner string) *license.License {
	lic := license.New()
	f, err := license.NewString("owner", owner)
	g.Expect(err).ToNot(HaveOccurred())
	_, err = lic.Add(f)
	g.Expect(err).ToNot(HaveOccurred())
	_, err = lic.NewLicenseID()
	g.Expect(err).ToNot(HaveOccurred())
	return lic
}

func TestNewEntry(t *testing.T) {
	t.Run("builds entry from license", func(t *testing.T) {
		g := NewWithT(t)
		lic := newTestLicense(g, "Peter Verhas")
		expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		g.Expect(lic.SetExpiry(expiry)).To(Succeed())

		e, err := NewEntry(lic, "kid-1")
		g.Expect(err).ToNot(HaveOccurred())

		id, _ := lic.LicenseID()
		g.Expect(e.LicenseID).To(Equal(id.String()))
		g.Expect(e.KeyID).To(Equal("kid-1"))
		g.Expect(e.Fingerprint).To(Equal(digest.FromBytes(lic.Unsigned())))
		g.Expect(e.Fingerprint.Algorithm()).To(Equal(digest.SHA256))
		g.Expect(e.Expiry).ToNot(BeNil())
		g.Expect(*e.Expiry).To(BeTemporally("==", expiry))
		g.Expect(e.Revoked).To(BeNil())

		decoded, err := e.License()
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(decoded.Equal(lic)).To(BeTrue())
	})

	t.Run("fails without license ID", func(t *testing.T) {
		g := NewWithT(t)

		_, err := NewEntry(license.New(), "kid-1")
		g.Expect(err).To(MatchError(ErrLicenseIDMissing))
	})
}

func TestStore(t *testing.T) {
	t.Run("records and gets entries", func(t *testing.T) {
		g := NewWithT(t)
		store := openTestStore(t)
		ctx := context.Background()

		e, err := NewEntry(newTestLicense(g, "alice"), "kid-1")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(store.Record(ctx, e)).To(Succeed())

		got, err := store.Get(ctx, e.LicenseID)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(got.Fingerprint).To(Equal(e.Fingerprint))
		g.Expect(got.KeyID).To(Equal("kid-1"))
		g.Expect(got.IssuedAt).To(BeTemporally("~", e.IssuedAt, time.Millisecond))
		g.Expect(got.Expiry).To(BeNil())
		g.Expect(got.Data).To(Equal(e.Data))
	})

	t.Run("replaces entries with the same license ID", func(t *testing.T) {
		g := NewWithT(t)
		store := openTestStore(t)
		ctx := context.Background()

		lic := newTestLicense(g, "alice")
		e, err := NewEntry(lic, "kid-1")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(store.Record(ctx, e)).To(Succeed())

		e.KeyID = "kid-2"
		g.Expect(store.Record(ctx, e)).To(Succeed())

		entries, err := store.List(ctx)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(entries).To(HaveLen(1))
		g.Expect(entries[0].KeyID).To(Equal("kid-2"))
	})

	t.Run("lists entries by issue time", func(t *testing.T) {
		g := NewWithT(t)
		store := openTestStore(t)
		ctx := context.Background()

		first, err := NewEntry(newTestLicense(g, "alice"), "kid-1")
		g.Expect(err).ToNot(HaveOccurred())
		second, err := NewEntry(newTestLicense(g, "bob"), "kid-1")
		g.Expect(err).ToNot(HaveOccurred())
		second.IssuedAt = first.IssuedAt.Add(time.Hour)

		g.Expect(store.Record(ctx, second)).To(Succeed())
		g.Expect(store.Record(ctx, first)).To(Succeed())

		entries, err := store.List(ctx)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(entries).To(HaveLen(2))
		g.Expect(entries[0].LicenseID).To(Equal(first.LicenseID))
		g.Expect(entries[1].LicenseID).To(Equal(second.LicenseID))
	})

	t.Run("marks entries revoked", func(t *testing.T) {
		g := NewWithT(t)
		store := openTestStore(t)

		var lines []string
		log := funcr.New(func(prefix, args string) {
			lines = append(lines, args)
		}, funcr.Options{Verbosity: 1})
		ctx := logr.NewContext(context.Background(), log)

		e, err := NewEntry(newTestLicense(g, "alice"), "kid-1")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(store.Record(ctx, e)).To(Succeed())

		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		g.Expect(store.MarkRevoked(ctx, e.LicenseID, at)).To(Succeed())

		got, err := store.Get(ctx, e.LicenseID)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(got.Revoked).ToNot(BeNil())
		g.Expect(*got.Revoked).To(BeTemporally("==", at))
		g.Expect(strings.Join(lines, "\n")).To(ContainSubstring(`"msg"="license revoked"`))
	})

	t.Run("keeps the revocation when a license is signed again", func(t *testing.T) {
		g := NewWithT(t)
		store := openTestStore(t)
		ctx := context.Background()

		lic := newTestLicense(g, "alice")
		e, err := NewEntry(lic, "kid-1")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(store.Record(ctx, e)).To(Succeed())

		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		g.Expect(store.MarkRevoked(ctx, e.LicenseID, at)).To(Succeed())

		resigned, err := NewEntry(lic, "kid-2")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(resigned.Revoked).To(BeNil())
		g.Expect(store.Record(ctx, resigned)).To(Succeed())

		got, err := store.Get(ctx, e.LicenseID)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(got.KeyID).To(Equal("kid-2"))
		g.Expect(got.Revoked).ToNot(BeNil())
		g.Expect(*got.Revoked).To(BeTemporally("==", at))
	})

	t.Run("fails for unknown license IDs", func(t *testing.T) {
		g := NewWithT(t)
		store := openTestStore(t)
		ctx := context.Background()

		_, err := store.Get(ctx, "1f0c1c5e-0000-6000-8000-000000000000")
		g.Expect(err).To(MatchError(ErrNotFound))

		err = store.MarkRevoked(ctx, "1f0c1c5e-0000-6000-8000-000000000000", time.Now())
		g.Expect(err).To(MatchError(ErrNotFound))
	})

	t.Run("rejects entries without license ID", func(t *testing.T) {
		g := NewWithT(t)
		store := openTestStore(t)

		err := store.Record(context.Background(), &Entry{Fingerprint: digest.FromString("x")})
		g.Expect(err).To(MatchError(ErrLicenseIDMissing))
	})

	t.Run("reopens an existing database", func(t *testing.T) {
		g := NewWithT(t)
		path := filepath.Join(t.TempDir(), "ledger.db")
		ctx := context.Background()

		store, err := Open(path)
		g.Expect(err).ToNot(HaveOccurred())
		e, err := NewEntry(newTestLicense(g, "alice"), "kid-1")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(store.Record(ctx, e)).To(Succeed())
		g.Expect(store.Close()).To(Succeed())

		store, err = Open(path)
		g.Expect(err).ToNot(HaveOccurred())
		defer store.Close()

		entries, err := store.List(ctx)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(entries).To(HaveLen(1))
	})

	t.Run("works in memory", func(t *testing.T) {
		g := NewWithT(t)
		store, err := Open("file::memory:")
		g.Expect(err).ToNot(HaveOccurred())
		defer store.Close()

		entries, err := store.List(context.Background())
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(entries).To(BeEmpty())
	})
}
