package hostchain

import "crypto/sha256"

func shaSum(b []byte) [32]byte {
	return sha256.Sum256(b)
}
