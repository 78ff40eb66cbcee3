package utils // package utils provides helper functions for token creation and hashing

import "golang.org/x/crypto/bcrypt" // bcrypt implements the password hashing scheme

// HashPassword derives a bcrypt hash for a new account's password.  The
// cost comes from configuration so test and dev environments can trade
// hashing strength for speed without code changes.
func HashPassword(plain string, cost int) (string, error) {
    b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
    if err != nil {
        return "", err
    }
    return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.  A
// malformed hash and a wrong password both come back as a plain false;
// the login handler deliberately cannot tell them apart.
func VerifyPassword(hash, plain string) bool {
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
