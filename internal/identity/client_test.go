package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"calmspace/internal/platform"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, kind platform.Kind) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	uris := RedirectURIs{
		Web:     "https://calm.test",
		Android: "https://calm.test/auth-redirect.html",
		IOS:     "https://calm.test/auth-redirect.html",
	}
	return NewClient(server.URL, "test-key", kind, uris, "com.calm.test", zap.NewNop()), server
}

func TestLoginSuccessEmitsSessionChange(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "signInWithPassword") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"localId":     "uid-1",
			"email":       "Ana@Example.com",
			"displayName": "Ana",
			"idToken":     "tok-1",
		})
	}, platform.DesktopWeb)

	changes, cancel := client.SessionChanges()
	defer cancel()

	if initial := <-changes; initial != nil {
		t.Fatalf("expected nil initial snapshot, got %+v", initial)
	}

	user, err := client.Login(context.Background(), "ana@example.com", "secret12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "uid-1" || user.Email != "ana@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.AuthProvider != "password" || user.AuthSubject != "uid-1" {
		t.Fatalf("expected provider credential reference, got %+v", user)
	}

	select {
	case got := <-changes:
		if got == nil || got.ID != "uid-1" {
			t.Fatalf("expected session change for uid-1, got %+v", got)
		}
	default:
		t.Fatal("expected a session change notification")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "INVALID_LOGIN_CREDENTIALS"},
		})
	}, platform.DesktopWeb)

	_, err := client.Login(context.Background(), "ana@example.com", "wrong")
	if err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "TOO_MANY_ATTEMPTS_TRY_LATER"},
		})
	}, platform.DesktopWeb)

	_, err := client.Login(context.Background(), "ana@example.com", "secret12")
	if err != ErrRateLimited {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestSignupCompensatesOnProfileFailure(t *testing.T) {
	var deleted bool
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "signUp"):
			json.NewEncoder(w).Encode(map[string]any{
				"localId": "uid-2", "email": "ben@example.com", "idToken": "tok-2",
			})
		case strings.Contains(r.URL.Path, "accounts:update"):
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "INTERNAL"},
			})
		case strings.Contains(r.URL.Path, "accounts:delete"):
			deleted = true
			json.NewEncoder(w).Encode(map[string]any{})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}, platform.DesktopWeb)

	_, err := client.Signup(context.Background(), "ben@example.com", "secret12", "Ben")
	if err == nil {
		t.Fatal("expected signup to fail when profile update fails")
	}
	if !deleted {
		t.Fatal("expected compensating account delete")
	}
}

func TestLoginWithGoogleNativeReturnsNil(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("native redirect flow must not call the provider")
	}, platform.NativeAndroid)

	user, err := client.LoginWithGoogle(context.Background(), "cred")
	if err != nil {
		t.Fatalf("redirect initiation is not an error: %v", err)
	}
	if user != nil {
		t.Fatal("native flow must return nil and defer to the session stream")
	}
}

func TestResolveRedirectStoresResultOnce(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "signInWithIdp") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"localId": "uid-3", "email": "cara@example.com", "idToken": "tok-3",
		})
	}, platform.NativeAndroid)

	if _, err := client.ResolveRedirect(context.Background(), "cred"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, _ := client.RedirectResult(context.Background())
	if first == nil || first.ID != "uid-3" {
		t.Fatalf("expected redirect result for uid-3, got %+v", first)
	}
	second, _ := client.RedirectResult(context.Background())
	if second != nil {
		t.Fatal("redirect result must be consumed at most once")
	}
}

func TestGoogleAuthURLUsesPlatformRedirect(t *testing.T) {
	uris := RedirectURIs{
		Web:     "https://calm.test",
		Android: "https://calm.test/auth-redirect.html",
		IOS:     "https://calm.test/ios-redirect.html",
	}
	web := NewClient("https://id.test", "k", platform.DesktopWeb, uris, "com.calm.test", zap.NewNop())
	android := NewClient("https://id.test", "k", platform.NativeAndroid, uris, "com.calm.test", zap.NewNop())
	ios := NewClient("https://id.test", "k", platform.NativeIOS, uris, "com.calm.test", zap.NewNop())

	if !strings.Contains(web.GoogleAuthURL("s"), "redirect_uri=https%3A%2F%2Fcalm.test&") &&
		!strings.Contains(web.GoogleAuthURL("s"), "redirect_uri=https%3A%2F%2Fcalm.test") {
		t.Fatalf("web url missing web redirect: %s", web.GoogleAuthURL("s"))
	}
	if strings.Contains(web.GoogleAuthURL("s"), "apn=") {
		t.Fatalf("web url must not carry android package: %s", web.GoogleAuthURL("s"))
	}
	if !strings.Contains(android.GoogleAuthURL("s"), "auth-redirect.html") {
		t.Fatalf("android url missing android redirect: %s", android.GoogleAuthURL("s"))
	}
	if !strings.Contains(android.GoogleAuthURL("s"), "apn=com.calm.test") {
		t.Fatalf("android url missing package name: %s", android.GoogleAuthURL("s"))
	}
	if !strings.Contains(ios.GoogleAuthURL("s"), "ios-redirect.html") {
		t.Fatalf("ios url missing ios redirect: %s", ios.GoogleAuthURL("s"))
	}
	if strings.Contains(ios.GoogleAuthURL("s"), "apn=") {
		t.Fatalf("ios url must not carry android package: %s", ios.GoogleAuthURL("s"))
	}
}

func TestLogoutEmitsNil(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"localId": "uid-4", "email": "dan@example.com", "idToken": "tok-4",
		})
	}, platform.DesktopWeb)

	if _, err := client.Login(context.Background(), "dan@example.com", "secret12"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	changes, cancel := client.SessionChanges()
	defer cancel()

	if initial := <-changes; initial == nil || initial.ID != "uid-4" {
		t.Fatalf("expected initial snapshot with current session, got %+v", initial)
	}

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case got := <-changes:
		if got != nil {
			t.Fatalf("expected nil session change on logout, got %+v", got)
		}
	default:
		t.Fatal("expected a session change notification on logout")
	}
}
