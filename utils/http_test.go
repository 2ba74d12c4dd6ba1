package utils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func decode(t *testing.T, app *fiber.App, target string) map[string]interface{} {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return out
}

func TestJSONHelpers(t *testing.T) {
	app := fiber.New()
	app.Get("/err", func(c *fiber.Ctx) error { return JSONError(c, 400, "bad") })
	app.Get("/map", func(c *fiber.Ctx) error { return JSONSuccess(c, fiber.Map{"count": 2}) })
	app.Get("/data", func(c *fiber.Ctx) error { return JSONSuccess(c, []string{"a"}) })

	if got := decode(t, app, "/err"); got["success"] != false || got["error"] != "bad" {
		t.Errorf("/err = %v", got)
	}
	if got := decode(t, app, "/map"); got["success"] != true || got["count"] != float64(2) {
		t.Errorf("/map = %v", got)
	}
	if got := decode(t, app, "/data"); !reflect.DeepEqual(got["data"], []interface{}{"a"}) {
		t.Errorf("/data = %v", got)
	}
}

func TestQueryHelpers(t *testing.T) {
	var n int
	var ok bool
	var list []string
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		n, ok = QueryInt(c, "chapter")
		list = QueryList(c, "translations")
		return nil
	})

	tests := []struct {
		query string
		n     int
		ok    bool
		list  []string
	}{
		{"?chapter=3&translations=KJV,+TB,,", 3, true, []string{"KJV", "TB"}},
		{"?chapter=0", 0, false, nil},
		{"?chapter=abc", 0, false, nil},
		{"", 0, false, nil},
	}
	for _, tt := range tests {
		if _, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil)); err != nil {
			t.Fatal(err)
		}
		if n != tt.n || ok != tt.ok || !reflect.DeepEqual(list, tt.list) {
			t.Errorf("%q: got (%d, %v, %v)", tt.query, n, ok, list)
		}
	}
}
