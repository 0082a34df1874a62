package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
)

// LocalFilesRoute is the path prefix the HTTP server mounts local downloads under.
const LocalFilesRoute = "/files/"

// LocalSigner signs download links for files under a local directory with an HMAC token.
type LocalSigner struct {
	root    string
	baseURL string
	key     []byte
}

type downloadClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

func NewLocalSigner(root, baseURL, signingKey string) (*LocalSigner, error) {
	if signingKey == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "STORAGE_SIGNING_KEY is required for local storage", common.ErrInvalidInput)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &LocalSigner{root: abs, baseURL: strings.TrimRight(baseURL, "/"), key: []byte(signingKey)}, nil
}

func (s *LocalSigner) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	if _, err := s.resolve(path); err != nil {
		return "", err
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, downloadClaims{
		Path: path,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", common.WrapError(common.ErrStorage, fmt.Sprintf("sign local object %s: %v", path, err))
	}
	return s.baseURL + LocalFilesRoute + escapePath(path) + "?token=" + url.QueryEscape(signed), nil
}

// Verify checks that token is unexpired and was issued for path.
func (s *LocalSigner) Verify(path, token string) error {
	claims := &downloadClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil || !parsed.Valid {
		return common.WrapError(common.ErrUnauthorized, "invalid download token")
	}
	if claims.Path != path {
		return common.WrapError(common.ErrUnauthorized, "download token issued for a different path")
	}
	return nil
}

// Open verifies token and returns the file contents.
func (s *LocalSigner) Open(path, token string) ([]byte, error) {
	if err := s.Verify(path, token); err != nil {
		return nil, err
	}
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(common.ErrStorage, fmt.Sprintf("read %s: %v", path, err))
	}
	return b, nil
}

func (s *LocalSigner) resolve(path string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", common.NewAppError("INVALID_INPUT", fmt.Sprintf("storage path %q escapes root", path), common.ErrInvalidInput)
	}
	return full, nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
