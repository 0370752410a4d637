package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"calmspace/internal/domain"
	"calmspace/internal/platform"
)

// RedirectURIs son las tres URIs de retorno OAuth, una por plataforma.
type RedirectURIs struct {
	Web     string
	Android string
	IOS     string
}

// Client implementa Gateway contra la API REST del proveedor de identidad.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger

	// Configuración estática decidida al construir, no por llamada.
	kind        platform.Kind
	redirectURI string
	authURL     string
	androidPkg  string

	mu          sync.Mutex
	current     *domain.User
	idToken     string
	redirectRes *domain.User
	subs        map[int]chan *domain.User
	nextSub     int
}

const defaultGoogleAuthURL = "https://accounts.google.com/o/oauth2/auth"

// NewClient construye el adaptador. La URI de retorno OAuth se elige una
// sola vez según la plataforma detectada, por eso la detección debe estar
// resuelta antes del primer uso.
func NewClient(baseURL, apiKey string, kind platform.Kind, uris RedirectURIs, androidPkg string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://identitytoolkit.googleapis.com/v1"
	}
	redirectURI := uris.Web
	switch kind {
	case platform.NativeAndroid:
		redirectURI = uris.Android
	case platform.NativeIOS:
		redirectURI = uris.IOS
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		client:      &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
		kind:        kind,
		redirectURI: redirectURI,
		authURL:     defaultGoogleAuthURL,
		androidPkg:  androidPkg,
		subs:        make(map[int]chan *domain.User),
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (domain.User, error) {
	var resp accountResponse
	err := c.post(ctx, "/accounts:signInWithPassword", signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return domain.User{}, err
	}
	user := resp.toUser("password")
	c.setSession(&user, resp.IDToken)
	return user, nil
}

func (c *Client) Signup(ctx context.Context, email, password, displayName string) (domain.User, error) {
	var resp accountResponse
	err := c.post(ctx, "/accounts:signUp", signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return domain.User{}, err
	}

	// Segundo paso no atómico: si falla, se elimina la cuenta recién creada.
	var updated accountResponse
	err = c.post(ctx, "/accounts:update", updateRequest{
		IDToken:           resp.IDToken,
		DisplayName:       displayName,
		ReturnSecureToken: true,
	}, &updated)
	if err != nil {
		if delErr := c.post(ctx, "/accounts:delete", deleteRequest{IDToken: resp.IDToken}, &struct{}{}); delErr != nil {
			c.logger.Error("compensating account delete failed",
				zap.String("email", email), zap.Error(delErr))
		}
		return domain.User{}, fmt.Errorf("set display name: %w", err)
	}

	user := resp.toUser("password")
	user.DisplayName = displayName
	c.setSession(&user, resp.IDToken)
	return user, nil
}

func (c *Client) LoginWithGoogle(ctx context.Context, credential string) (*domain.User, error) {
	if c.kind.IsNative() {
		// Flujo redirect: el navegador navega fuera; el usuario llegará por
		// el stream de sesión cuando vuelva la credencial.
		return nil, nil
	}
	user, err := c.exchangeIdp(ctx, credential)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GoogleAuthURL(state string) string {
	params := url.Values{
		"client_id":     {c.apiKey},
		"redirect_uri":  {c.redirectURI},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"state":         {state},
		"prompt":        {"select_account"},
	}
	// El shell Android declara su paquete para que el proveedor verifique
	// que la app que recibe el retorno es la esperada.
	if c.kind == platform.NativeAndroid && c.androidPkg != "" {
		params.Set("apn", c.androidPkg)
	}
	return c.authURL + "?" + params.Encode()
}

func (c *Client) ResolveRedirect(ctx context.Context, credential string) (domain.User, error) {
	user, err := c.exchangeIdp(ctx, credential)
	if err != nil {
		return domain.User{}, err
	}
	c.mu.Lock()
	c.redirectRes = &user
	c.mu.Unlock()
	return user, nil
}

func (c *Client) RedirectResult(_ context.Context) (*domain.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := c.redirectRes
	c.redirectRes = nil
	return res, nil
}

func (c *Client) Logout(_ context.Context) error {
	c.setSession(nil, "")
	return nil
}

func (c *Client) UpdateName(ctx context.Context, displayName string) error {
	c.mu.Lock()
	token := c.idToken
	current := c.current
	c.mu.Unlock()
	if current == nil || token == "" {
		return ErrNotAuthenticated
	}

	var resp accountResponse
	err := c.post(ctx, "/accounts:update", updateRequest{
		IDToken:           token,
		DisplayName:       displayName,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return err
	}

	refreshed := *current
	refreshed.DisplayName = displayName
	c.setSession(&refreshed, token)
	return nil
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "/accounts:sendOobCode", oobRequest{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}, &struct{}{})
}

func (c *Client) SessionChanges() (<-chan *domain.User, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan *domain.User, 16)
	// El estado vigente se entrega de inmediato: el suscriptor sabe desde
	// la primera notificación si hay sesión o no.
	ch <- c.current
	c.subs[id] = ch
	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (c *Client) exchangeIdp(ctx context.Context, credential string) (domain.User, error) {
	var resp accountResponse
	err := c.post(ctx, "/accounts:signInWithIdp", idpRequest{
		PostBody:          "id_token=" + credential + "&providerId=google.com",
		RequestURI:        c.redirectURI,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return domain.User{}, err
	}
	user := resp.toUser("google")
	c.setSession(&user, resp.IDToken)
	return user, nil
}

// setSession fija la sesión actual y notifica a los suscriptores en orden
// de emisión. Un suscriptor con el buffer lleno pierde la notificación.
func (c *Client) setSession(user *domain.User, idToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = user
	c.idToken = idToken
	for _, ch := range c.subs {
		select {
		case ch <- user:
		default:
			c.logger.Warn("session subscriber buffer full, dropping notification")
		}
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + path
	if c.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.mapError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// mapError traduce los códigos del proveedor a errores del dominio.
func (c *Client) mapError(status int, body []byte) error {
	var er errorResponse
	_ = json.Unmarshal(body, &er)
	code := er.Error.Message
	switch {
	case strings.HasPrefix(code, "TOO_MANY_ATTEMPTS"):
		return ErrRateLimited
	case code == "EMAIL_NOT_FOUND", code == "INVALID_PASSWORD", code == "INVALID_LOGIN_CREDENTIALS":
		return ErrInvalidCredentials
	case code == "EMAIL_EXISTS":
		return ErrEmailInUse
	}
	if c.logger != nil {
		c.logger.Warn("identity provider error",
			zap.Int("status", status), zap.String("code", code))
	}
	return fmt.Errorf("identity provider error: status=%d code=%s", status, code)
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type updateRequest struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type deleteRequest struct {
	IDToken string `json:"idToken"`
}

type idpRequest struct {
	PostBody          string `json:"postBody"`
	RequestURI        string `json:"requestUri"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type oobRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email"`
}

type accountResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoUrl"`
	IDToken       string `json:"idToken"`
	EmailVerified bool   `json:"emailVerified"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (r accountResponse) toUser(provider string) domain.User {
	user := domain.User{
		ID:           r.LocalID,
		Email:        strings.ToLower(strings.TrimSpace(r.Email)),
		DisplayName:  r.DisplayName,
		PhotoURL:     r.PhotoURL,
		AuthProvider: provider,
		AuthSubject:  r.LocalID,
		CreatedAt:    time.Now().UTC(),
	}
	if r.EmailVerified {
		now := time.Now().UTC()
		user.EmailVerifiedAt = &now
	}
	return user
}
