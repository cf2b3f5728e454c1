package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argonParams are Argon2id cost parameters. Costs travel inside every
// PHC string, so hashes created under older settings keep verifying
// after a cost bump here.
type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

// defaultCost is applied to new hashes, per the OWASP 2025
// recommendation. Hashing a password takes tens of milliseconds on
// purpose; it only happens at login, never on the door control path.
var defaultCost = argonParams{memory: 64 * 1024, time: 3, threads: 1}

const (
	saltBytes = 16
	keyBytes  = 32
)

// phcHash is one decoded PHC string.
type phcHash struct {
	salt []byte
	hash []byte
	cost argonParams
}

// HashPassword derives an Argon2id hash of password with a fresh random
// salt, encoded as a PHC string:
//
//	$argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
//
// The PHC string is what goes into the users section of config.yaml.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	cost := defaultCost
	hash := argon2.IDKey([]byte(password), salt, cost.time, cost.memory, cost.threads, keyBytes)

	return encodePHC(salt, hash, cost), nil
}

// VerifyPassword re-derives the hash from password using the salt and
// cost parameters carried in the PHC string and compares in constant
// time. A false return with nil error means the password is wrong; an
// error means the stored hash itself is unusable.
func VerifyPassword(password, encodedHash string) (bool, error) {
	phc, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	cost := phc.cost
	candidate := argon2.IDKey([]byte(password), phc.salt, cost.time, cost.memory, cost.threads, uint32(len(phc.hash))) //nolint:gosec // G115: hash length always fits uint32

	return subtle.ConstantTimeCompare(phc.hash, candidate) == 1, nil
}

// encodePHC renders one hash into its storage form.
func encodePHC(salt, hash []byte, cost argonParams) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		cost.memory, cost.time, cost.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
}

// parsePHC splits a PHC string into salt, hash and cost parameters,
// rejecting algorithms and argon2 versions we never produce.
func parsePHC(encoded string) (phcHash, error) {
	var phc phcHash

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 { //nolint:mnd // PHC strings carry exactly six $-delimited sections
		return phc, errors.New("malformed PHC hash")
	}
	if parts[1] != "argon2id" {
		return phc, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return phc, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return phc, fmt.Errorf("unsupported argon2 version: %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &phc.cost.memory, &phc.cost.time, &phc.cost.threads); err != nil {
		return phc, fmt.Errorf("parsing cost parameters: %w", err)
	}

	var err error
	if phc.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return phc, fmt.Errorf("decoding salt: %w", err)
	}
	if phc.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return phc, fmt.Errorf("decoding hash: %w", err)
	}

	return phc, nil
}
