package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAuth_RegisterAndLogin(t *testing.T) {
	stub := speechStub(t, "unused", "[]")
	app := setupApp(t, stub.URL)

	accessToken, _, userID := app.registerUser(t, "auth@test.com", "password123")
	if userID == "" {
		t.Fatal("expected a user ID from registration")
	}

	// The access token works immediately.
	rec := app.request("GET", "/api/v1/profile", "", accessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["email"] != "auth@test.com" {
		t.Errorf("expected auth@test.com, got %v", user["email"])
	}
	if user["currency"] != "USD" || user["voice_language"] != "en" {
		t.Errorf("expected USD/en defaults, got %v/%v", user["currency"], user["voice_language"])
	}

	// Login works with the same credentials.
	loginToken, _ := app.loginUser(t, "auth@test.com", "password123")
	rec = app.request("GET", "/api/v1/profile", "", loginToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with login token, got %d", rec.Code)
	}
}

func TestAuth_DuplicateEmail(t *testing.T) {
	stub := speechStub(t, "unused", "[]")
	app := setupApp(t, stub.URL)
	app.registerUser(t, "dup@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/register",
		`{"email":"dup@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuth_WrongPassword(t *testing.T) {
	stub := speechStub(t, "unused", "[]")
	app := setupApp(t, stub.URL)
	app.registerUser(t, "wrongpw@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"wrongpw@test.com","password":"not-the-password"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuth_RefreshRotation(t *testing.T) {
	stub := speechStub(t, "unused", "[]")
	app := setupApp(t, stub.URL)
	_, refreshToken, _ := app.registerUser(t, "refresh@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, refreshToken), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	newAccess := result["access_token"].(string)

	rec = app.request("GET", "/api/v1/profile", "", newAccess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with refreshed token, got %d", rec.Code)
	}
}

func TestAuth_RefreshTokenRejectedAsAccessToken(t *testing.T) {
	stub := speechStub(t, "unused", "[]")
	app := setupApp(t, stub.URL)
	_, refreshToken, _ := app.registerUser(t, "misuse@test.com", "password123")

	rec := app.request("GET", "/api/v1/profile", "", refreshToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 using refresh token as access token, got %d", rec.Code)
	}
}

func TestAuth_UpdatePreferences(t *testing.T) {
	stub := speechStub(t, "unused", "[]")
	app := setupApp(t, stub.URL)
	token, _, _ := app.registerUser(t, "prefs@test.com", "password123")

	rec := app.request("PATCH", "/api/v1/profile/preferences",
		`{"currency":"eur","voice_language":"es"}`, token)
	if rec.Code != http.StatusBadRequest {
		// Lowercase currency fails ISO 4217 validation at the binding layer.
		t.Fatalf("expected 400 for lowercase currency, got %d", rec.Code)
	}

	rec = app.request("PATCH", "/api/v1/profile/preferences",
		`{"currency":"EUR","voice_language":"es"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["currency"] != "EUR" || user["voice_language"] != "es" {
		t.Errorf("expected EUR/es, got %v/%v", user["currency"], user["voice_language"])
	}
}
