// ABOUTME: Digest engine computing MD5, SHA1, and SHA256 in one pass
// ABOUTME: Produces the lowercase hex digests tables are matched against

package engine

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

// newHasher returns a fresh hash.Hash for the algorithm.
func newHasher(ht types.HashType) (hash.Hash, error) {
	switch ht {
	case types.HashTypeMD5:
		return md5.New(), nil
	case types.HashTypeSHA1:
		return sha1.New(), nil
	case types.HashTypeSHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash type %s", ht)
	}
}

// ComputeDigests reads r to the end once, feeding every requested algorithm.
// It returns the digests and the number of bytes read.
func ComputeDigests(r io.Reader, algs []types.HashType) (types.Digests, int64, error) {
	hashers := make(map[types.HashType]hash.Hash, len(algs))
	writers := make([]io.Writer, 0, len(algs))

	for _, ht := range algs {
		if _, ok := hashers[ht]; ok {
			continue
		}
		h, err := newHasher(ht)
		if err != nil {
			return nil, 0, err
		}
		hashers[ht] = h
		writers = append(writers, h)
	}

	n, err := io.Copy(io.MultiWriter(writers...), r)
	if err != nil {
		return nil, n, err
	}

	digests := make(types.Digests, len(hashers))
	for ht, h := range hashers {
		digests[ht] = hex.EncodeToString(h.Sum(nil))
	}

	return digests, n, nil
}

// DigestBytes is ComputeDigests over an in-memory buffer.
func DigestBytes(data []byte, algs []types.HashType) types.Digests {
	digests := make(types.Digests, len(algs))
	for _, ht := range algs {
		switch ht {
		case types.HashTypeMD5:
			sum := md5.Sum(data)
			digests[ht] = hex.EncodeToString(sum[:])
		case types.HashTypeSHA1:
			sum := sha1.Sum(data)
			digests[ht] = hex.EncodeToString(sum[:])
		case types.HashTypeSHA256:
			sum := sha256.Sum256(data)
			digests[ht] = hex.EncodeToString(sum[:])
		}
	}
	return digests
}
