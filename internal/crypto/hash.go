package crypto

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash indicates that a stored digest is not a valid argon2id PHC string
var ErrMalformedHash = errors.New("malformed argon2id hash")

// Hasher хеширует секреты (пароли, refresh токены) с помощью Argon2id.
// Результат кодируется в PHC формате:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Hasher struct {
	params Params
}

// NewHasher creates a hasher with the given cost parameters
func NewHasher(params Params) (*Hasher, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid argon2 params: %w", err)
	}
	return &Hasher{params: params}, nil
}

// Hash returns a salted argon2id digest of secret
func (h *Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("secret cannot be empty")
	}

	salt, err := GenerateSalt(h.params.SaltLen)
	if err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(secret), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify сравнивает candidate с сохраненным digest за постоянное время.
// Параметры стоимости берутся из самого digest, а не из Hasher,
// поэтому старые хеши проверяются и после смены параметров.
func (h *Hasher) Verify(digest, candidate string) (bool, error) {
	if digest == "" {
		return false, fmt.Errorf("hashed secret cannot be empty")
	}

	params, salt, key, err := decodeHash(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(candidate), salt, params.Time, params.Memory, params.Threads, uint32(len(key)))

	return subtle.ConstantTimeCompare(key, computed) == 1, nil
}

// decodeHash разбирает PHC строку
func decodeHash(digest string) (Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if version != argon2.Version {
		return Params{}, nil, nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedHash, version)
	}

	var params Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Threads); err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if params.Time == 0 || params.Threads == 0 {
		return Params{}, nil, nil, fmt.Errorf("%w: zero cost parameters", ErrMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: bad salt: %v", ErrMalformedHash, err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: bad key: %v", ErrMalformedHash, err)
	}
	if len(key) == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}

	return params, salt, key, nil
}
