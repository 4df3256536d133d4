// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package license implements the license record: a named set of typed
// features that can be exchanged in three interoperable forms.
//
// The package provides the following representations of a License:
//
//   - A compact binary wire form, prefixed by a magic number and made of
//     length-prefixed feature blocks encoded in big-endian byte order
//   - A base64 transport form of the binary wire form
//   - A canonical, human-editable text form with one `name[:TYPE]=value`
//     line per feature, where multi-line string values are framed with a
//     generated heredoc delimiter
//   - A JSON object keyed by feature name, for tooling
//
// Every representation orders features by name, so encoding the same
// License always yields the same bytes.
//
// A License can be signed in place. Signing stores the digest algorithm
// name in the `signatureDigest` feature and the signature bytes in the
// `licenseSignature` feature, so signed and unsigned licenses travel
// through the same codecs. Verification recomputes the digest over the
// record without its signature. Verify reports why a license fails,
// wrapping ErrVerification, while IsOK never panics and only answers
// whether the license is authentic.
//
// The package performs no I/O beyond the io.Reader and io.Writer helpers
// and has no knowledge of keys. Digests and signatures are computed by
// collaborators implementing the Hasher, Signer and Verifier interfaces.
//
// Features are immutable and safe for concurrent use. A License is not
// safe for concurrent mutation.
package license
