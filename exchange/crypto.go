package exchange

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/sha3"
)

// Digest is the output encoding of Hash and HMAC.
type Digest string

// Digests.
const (
	DigestHex    Digest = "hex"
	DigestBase64 Digest = "base64"
	DigestBinary Digest = "binary"
)

func hasher(algorithm string) (func() hash.Hash, error) {
	switch algorithm {
	case "md5":
		return md5.New, nil
	case "sha1":
		return sha1.New, nil
	case "sha256":
		return sha256.New, nil
	case "sha384":
		return sha512.New384, nil
	case "sha512":
		return sha512.New, nil
	case "sha3":
		return sha3.New256, nil
	case "keccak":
		return sha3.NewLegacyKeccak256, nil
	}
	return nil, Errorf(NotSupported, "hash algorithm %s is not supported", algorithm)
}

func encodeDigest(sum []byte, digest Digest) string {
	switch digest {
	case DigestBase64:
		return base64.StdEncoding.EncodeToString(sum)
	case DigestBinary:
		return string(sum)
	}
	return hex.EncodeToString(sum)
}

// Hash digests data with the named algorithm.
func Hash(data []byte, algorithm string, digest Digest) (string, error) {
	newHash, err := hasher(algorithm)
	if err != nil {
		return "", err
	}
	h := newHash()
	h.Write(data)
	return encodeDigest(h.Sum(nil), digest), nil
}

// HMAC signs data with secret using the named algorithm.
func HMAC(data, secret []byte, algorithm string, digest Digest) (string, error) {
	newHash, err := hasher(algorithm)
	if err != nil {
		return "", err
	}
	mac := hmac.New(newHash, secret)
	mac.Write(data)
	return encodeDigest(mac.Sum(nil), digest), nil
}

// JWT signs claims with secret. alg is a JWS algorithm name like HS256.
func JWT(claims map[string]interface{}, secret []byte, alg string) (string, error) {
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return "", Errorf(NotSupported, "jwt algorithm %s is not supported", alg)
	}
	token := jwt.NewWithClaims(method, jwt.MapClaims(claims))
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", Errorf(ExchangeError, "jwt sign: %v", err)
	}
	return signed, nil
}
