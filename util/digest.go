// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package util

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// DigestSize is the byte length of layout digests.
const DigestSize = 16

// Digest returns the hex encoded BLAKE2b digest of buf.
func Digest(buf []byte) (string, error) {
	h, err := blake2b.New(DigestSize, nil)

	if err != nil {
		return "", err
	}

	h.Write(buf)

	return hex.EncodeToString(h.Sum(nil)), nil
}
