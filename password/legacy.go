package password

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Legacy scheme: bcrypt digests produced before the argon2id migration.
// They verify normally and always report NeedsUpgrade, so callers re-hash
// on the next successful login.

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

func isLegacyBcrypt(encoded string) bool {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(encoded, prefix) {
			return true
		}
	}
	return false
}

func verifyBcrypt(plaintext, encoded string) bool {
	// bcrypt.CompareHashAndPassword is internally constant-time on the
	// digest comparison; a malformed digest returns an error which maps
	// to a plain false here.
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext)) == nil
}

// HashLegacy produces a bcrypt digest. Only tests and migration tooling
// should create new legacy digests.
func HashLegacy(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}
