package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"

	"driverDeliveryWorkflow/internal/db"
)

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// A shared-cache memory database so multiple connections see the same DB.
// Closed automatically via t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// OpenFileDB opens a file-backed SQLite database in a temp directory.
// Use this for tests that hammer the DB from multiple goroutines; WAL plus
// busy_timeout handles concurrent writers where shared-cache memory does not.
func OpenFileDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), name+".db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// GenerateJWTHS256 returns a signed JWT string with the minimal claims used by the app.
func GenerateJWTHS256(t *testing.T, secret, name, kind string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"name": name,
		"kind": kind,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxWithBearer returns a context containing gRPC metadata Authorization header with the given token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}
