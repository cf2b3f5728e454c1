package auth

import "testing"

// Argon2id is tuned to be slow on purpose; these put a number on it for
// the configured parameters.

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		HashPassword("open-the-pod-bay-doors") //nolint:errcheck // benchmark
	}
}

func BenchmarkVerifyPassword(b *testing.B) {
	hash, err := HashPassword("open-the-pod-bay-doors")
	if err != nil {
		b.Fatalf("HashPassword: %v", err)
	}

	for i := 0; i < b.N; i++ {
		VerifyPassword("open-the-pod-bay-doors", hash) //nolint:errcheck // benchmark
	}
}

// Token mint and verify run once per API request.

func BenchmarkGenerateAccessToken(b *testing.B) {
	user := &User{Username: "bench", Role: RoleAdmin}

	for i := 0; i < b.N; i++ {
		GenerateAccessToken(user, "jwt-bench-signing-secret-abc123", 15) //nolint:errcheck // benchmark
	}
}

func BenchmarkParseToken(b *testing.B) {
	user := &User{Username: "bench", Role: RoleAdmin}
	secret := "jwt-bench-signing-secret-abc123"

	token, err := GenerateAccessToken(user, secret, 15)
	if err != nil {
		b.Fatalf("GenerateAccessToken: %v", err)
	}

	for i := 0; i < b.N; i++ {
		ParseToken(token, secret) //nolint:errcheck // benchmark
	}
}

func BenchmarkGenerateTicket(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateTicket() //nolint:errcheck // benchmark
	}
}
