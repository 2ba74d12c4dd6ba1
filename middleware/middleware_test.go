package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/admin", AdminAuth(testSecret), func(c *fiber.Ctx) error {
		name, err := GetUsername(c)
		if err != nil {
			return err
		}
		return c.SendString(name)
	})
	return app
}

func TestAdminAuth(t *testing.T) {
	valid, _, err := GenerateAdminToken(testSecret, 1, "admin")
	if err != nil {
		t.Fatalf("GenerateAdminToken: %v", err)
	}
	otherSecret, _, _ := GenerateAdminToken("another-secret-another-secret-xx", 1, "admin")
	notAdmin, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "reader",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "admin",
		"is_admin": true,
		"exp":      time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, 200},
		{"missing", "", 401},
		{"wrong scheme", "Token " + valid, 401},
		{"wrong secret", "Bearer " + otherSecret, 401},
		{"expired", "Bearer " + expired, 401},
		{"not admin", "Bearer " + notAdmin, 403},
	}

	app := protectedApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	app := fiber.New()
	app.Use(Limit(NewRateLimiter(2, 3600), "slow down"))
	app.Get("/api/books", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	want := []int{200, 200, 429}
	for i, status := range want {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/books", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != status {
			t.Errorf("request %d: status = %d, want %d", i, resp.StatusCode, status)
		}
		if status == 429 && resp.Header.Get("Retry-After") == "" {
			t.Error("429 without Retry-After")
		}
	}

	resp, _ := app.Test(httptest.NewRequest("GET", "/health", nil))
	if resp.StatusCode != 200 {
		t.Errorf("health check limited: %d", resp.StatusCode)
	}
}

func TestLimitDisabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	app := fiber.New()
	app.Use(Limit(NewRateLimiter(1, 3600), "slow down"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 3; i++ {
		resp, _ := app.Test(httptest.NewRequest("GET", "/", nil))
		if resp.StatusCode != 200 {
			t.Fatalf("request %d: status = %d", i, resp.StatusCode)
		}
	}
}

func TestWriteLimiterFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("SHARE_RATE_LIMIT_MAX", "2")
	t.Setenv("SHARE_RATE_LIMIT_WINDOW_MS", "60000")

	rl := limiterFromEnv("write", "SHARE_RATE_LIMIT_MAX", "SHARE_RATE_LIMIT_WINDOW_MS", 20, time.Minute)
	if rl.maxRequests != 2 || rl.window != time.Minute {
		t.Fatalf("limiter = %d per %v", rl.maxRequests, rl.window)
	}

	app := fiber.New()
	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Post("/api/share", Limit(rl, "too many"), ok)
	app.Post("/api/copy", Limit(rl, "too many"), ok)
	app.Get("/api/books", ok)

	for i, path := range []string{"/api/share", "/api/copy"} {
		resp, _ := app.Test(httptest.NewRequest("POST", path, nil))
		if resp.StatusCode != 200 {
			t.Fatalf("write %d: status = %d", i, resp.StatusCode)
		}
	}
	resp, _ := app.Test(httptest.NewRequest("POST", "/api/share", nil))
	if resp.StatusCode != 429 {
		t.Errorf("third write: status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") != "30" {
		t.Errorf("Retry-After = %q, want 30", resp.Header.Get("Retry-After"))
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/api/books", nil))
	if resp.StatusCode != 200 {
		t.Errorf("reads share the write budget: %d", resp.StatusCode)
	}
}

func TestBucketRefills(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, 10)
	rl.now = func() time.Time { return now }

	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Fatal("first request refused")
	}
	ok, wait := rl.Allow("1.2.3.4")
	if ok || wait < 9*time.Second || wait > 10*time.Second {
		t.Fatalf("second request: ok=%v wait=%v", ok, wait)
	}

	now = now.Add(11 * time.Second)
	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Error("bucket did not refill")
	}
}

func TestSweepIdleBuckets(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(5, 60)
	rl.now = func() time.Time { return now }
	rl.Allow("1.2.3.4")

	now = now.Add(time.Hour)
	rl.Allow("5.6.7.8")

	if dropped := rl.sweep(30 * time.Minute); dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if _, ok := rl.buckets["1.2.3.4"]; ok {
		t.Error("idle bucket kept")
	}
	if _, ok := rl.buckets["5.6.7.8"]; !ok {
		t.Error("active bucket dropped")
	}
}
