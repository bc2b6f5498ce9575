package api_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/middleware"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/testutil"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/token"
)

type productBody struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    *string `json:"imageUrl"`
	SellerID    string  `json:"sellerId"`
}

type productEnvelope struct {
	Message string      `json:"message"`
	Data    productBody `json:"data"`
}

type productListEnvelope struct {
	Message string        `json:"message"`
	Data    []productBody `json:"data"`
}

type errorEnvelope struct {
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Rule    string `json:"rule"`
		Message string `json:"message"`
	} `json:"errors"`
}

func createProduct(t *testing.T, app *testutil.TestApp, bearer string, body map[string]any) productBody {
	t.Helper()

	w := app.Do(t, http.MethodPost, "/api/products", body, bearer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp productEnvelope
	testutil.DecodeJSON(t, w, &resp)
	return resp.Data
}

// ==================== PUBLIC ROUTES ====================

func TestRouter_PublicRoutes(t *testing.T) {
	app := testutil.NewTestApp(t)

	w := app.Do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello backend", w.Body.String())

	w = app.Do(t, http.MethodGet, "/api/auth/test", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Auth router OK", w.Body.String())

	w = app.Do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_CORSPreflight(t *testing.T) {
	app := testutil.NewTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Authorization,Content-Type")
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// ==================== AUTH FLOW ====================

func TestRouter_RegisterTwice(t *testing.T) {
	app := testutil.NewTestApp(t)
	body := map[string]string{"email": "seller@example.com", "password": "password123"}

	w := app.Do(t, http.MethodPost, "/api/auth/register", body, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Message string `json:"message"`
		User    map[string]any
	}
	testutil.DecodeJSON(t, w, &created)
	assert.Equal(t, "User registered successfully", created.Message)
	assert.Equal(t, "seller@example.com", created.User["email"])
	assert.NotEmpty(t, created.User["id"])
	assert.NotEmpty(t, created.User["createdAt"])
	assert.NotContains(t, w.Body.String(), "password")

	w = app.Do(t, http.MethodPost, "/api/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"Email already registered"}`, w.Body.String())
}

func TestRouter_RegisterValidation(t *testing.T) {
	app := testutil.NewTestApp(t)

	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{"invalid email", map[string]string{"email": "not-an-email", "password": "password123"}, "email"},
		{"short password", map[string]string{"email": "a@example.com", "password": "short"}, "password"},
		{"missing password", map[string]string{"email": "a@example.com"}, "password"},
		{"malformed json", `{"email":`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.Do(t, http.MethodPost, "/api/auth/register", tt.body, "")
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp errorEnvelope
			testutil.DecodeJSON(t, w, &resp)
			assert.Equal(t, "Invalid input", resp.Message)
			require.NotEmpty(t, resp.Errors)
			assert.Equal(t, tt.wantField, resp.Errors[0].Field)
		})
	}
}

func TestRouter_Login(t *testing.T) {
	app := testutil.NewTestApp(t)
	app.Register(t, "seller@example.com", "password123")

	t.Run("unknown email", func(t *testing.T) {
		w := app.Do(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email": "nobody@example.com", "password": "password123",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"message":"Email not registered"}`, w.Body.String())
	})

	t.Run("wrong password", func(t *testing.T) {
		w := app.Do(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email": "seller@example.com", "password": "wrongpassword",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"Invalid email or password"}`, w.Body.String())
	})

	t.Run("success", func(t *testing.T) {
		signed := app.Login(t, "seller@example.com", "password123")

		payload, err := app.Tokens.Verify(signed)
		require.NoError(t, err)
		assert.Equal(t, "seller@example.com", payload.Email)
		assert.NotEqual(t, uuid.Nil, payload.UserID)
	})
}

func TestRouter_LoginWithoutSecret(t *testing.T) {
	app := testutil.NewTestApp(t, testutil.WithTokenManager(token.NewManager(token.Config{})))
	app.Register(t, "seller@example.com", "password123")

	w := app.Do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "seller@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Server configuration error"}`, w.Body.String())

	w = app.Do(t, http.MethodGet, "/api/products", nil, "anything")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ==================== AUTHENTICATION ====================

func TestRouter_ProductsRequireToken(t *testing.T) {
	app := testutil.NewTestApp(t)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Access denied: token missing or malformed"},
		{"wrong scheme", "Basic abc", "Access denied: token missing or malformed"},
		{"garbage token", "Bearer not.a.token", "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			app.Router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"message":%q}`, tt.want), w.Body.String())
		})
	}
}

func TestRouter_ExpiredAndTamperedTokens(t *testing.T) {
	app := testutil.NewTestApp(t)
	valid := app.Seller(t, "seller@example.com")

	past := time.Now().Add(-2 * token.TTL)
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, token.Claims{
		UserID: uuid.NewString(),
		Email:  "seller@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(token.TTL)),
		},
	})
	expiredString, err := expired.SignedString([]byte(testutil.TestSecret))
	require.NoError(t, err)

	w := app.Do(t, http.MethodGet, "/api/products", nil, expiredString)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Token expired"}`, w.Body.String())

	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	tamperedSig := []byte(parts[2])
	if tamperedSig[0] == 'A' {
		tamperedSig[0] = 'B'
	} else {
		tamperedSig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(tamperedSig)

	w = app.Do(t, http.MethodGet, "/api/products", nil, tampered)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Invalid token"}`, w.Body.String())

	otherKey := token.NewManager(token.Config{Secret: "some-other-secret"})
	foreign, err := otherKey.Sign(token.Payload{UserID: uuid.New(), Email: "x@example.com"})
	require.NoError(t, err)

	w = app.Do(t, http.MethodGet, "/api/products", nil, foreign)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ==================== PRODUCTS ====================

func TestRouter_ProductRoundTrip(t *testing.T) {
	app := testutil.NewTestApp(t)
	bearer := app.Seller(t, "seller@example.com")

	created := createProduct(t, app, bearer, map[string]any{
		"name":        "Widget",
		"description": "A widget",
		"price":       19.99,
		"stock":       5,
		"imageUrl":    "http://example.com/uploads/widget.png",
	})
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Widget", created.Name)
	require.NotNil(t, created.Description)
	assert.Equal(t, "A widget", *created.Description)
	assert.Equal(t, 19.99, created.Price)
	assert.Equal(t, 5, created.Stock)

	w := app.Do(t, http.MethodGet, "/api/products/"+created.ID, nil, bearer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var fetched productEnvelope
	testutil.DecodeJSON(t, w, &fetched)
	assert.Equal(t, created, fetched.Data)

	w = app.Do(t, http.MethodGet, "/api/products", nil, bearer)
	require.Equal(t, http.StatusOK, w.Code)

	var list productListEnvelope
	testutil.DecodeJSON(t, w, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, created.ID, list.Data[0].ID)
}

func TestRouter_CreateDefaultsStock(t *testing.T) {
	app := testutil.NewTestApp(t)
	bearer := app.Seller(t, "seller@example.com")

	created := createProduct(t, app, bearer, map[string]any{"name": "Widget", "price": 10})
	assert.Equal(t, 0, created.Stock)
	assert.Nil(t, created.Description)
	assert.Nil(t, created.ImageURL)
}

func TestRouter_CreateValidation(t *testing.T) {
	app := testutil.NewTestApp(t)
	bearer := app.Seller(t, "seller@example.com")

	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{"zero price", map[string]any{"name": "Widget", "price": 0}, "price"},
		{"missing price", map[string]any{"name": "Widget"}, "price"},
		{"price as string", map[string]any{"name": "Widget", "price": "10"}, "price"},
		{"negative stock", map[string]any{"name": "Widget", "price": 10, "stock": -1}, "stock"},
		{"empty name", map[string]any{"name": "", "price": 10}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.Do(t, http.MethodPost, "/api/products", tt.body, bearer)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var resp errorEnvelope
			testutil.DecodeJSON(t, w, &resp)
			require.NotEmpty(t, resp.Errors)
			assert.Equal(t, tt.wantField, resp.Errors[0].Field)
		})
	}

	w := app.Do(t, http.MethodGet, "/api/products", nil, bearer)
	var list productListEnvelope
	testutil.DecodeJSON(t, w, &list)
	assert.Empty(t, list.Data)
}

func TestRouter_EmptyListIsArray(t *testing.T) {
	app := testutil.NewTestApp(t)
	bearer := app.Seller(t, "seller@example.com")

	w := app.Do(t, http.MethodGet, "/api/products", nil, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestRouter_ListNewestFirst(t *testing.T) {
	app := testutil.NewTestApp(t)
	bearer := app.Seller(t, "seller@example.com")

	first := createProduct(t, app, bearer, map[string]any{"name": "First", "price": 10})
	time.Sleep(50 * time.Millisecond)
	second := createProduct(t, app, bearer, map[string]any{"name": "Second", "price": 10})

	w := app.Do(t, http.MethodGet, "/api/products", nil, bearer)
	var list productListEnvelope
	testutil.DecodeJSON(t, w, &list)

	require.Len(t, list.Data, 2)
	assert.Equal(t, second.ID, list.Data[0].ID)
	assert.Equal(t, first.ID, list.Data[1].ID)
}

func TestRouter_CrossSellerIsolation(t *testing.T) {
	app := testutil.NewTestApp(t)
	alice := app.Seller(t, "alice@example.com")
	bob := app.Seller(t, "bob@example.com")

	product := createProduct(t, app, alice, map[string]any{"name": "Alice's", "price": 10})
	path := "/api/products/" + product.ID

	w := app.Do(t, http.MethodGet, path, nil, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Product not found"}`, w.Body.String())

	w = app.Do(t, http.MethodPut, path, map[string]any{"name": "Stolen"}, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.Do(t, http.MethodDelete, path, nil, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.Do(t, http.MethodGet, "/api/products", nil, bob)
	var list productListEnvelope
	testutil.DecodeJSON(t, w, &list)
	assert.Empty(t, list.Data)

	w = app.Do(t, http.MethodGet, path, nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched productEnvelope
	testutil.DecodeJSON(t, w, &fetched)
	assert.Equal(t, "Alice's", fetched.Data.Name)
}

func TestRouter_PartialUpdate(t *testing.T) {
	app := testutil.NewTestApp(t)
	bearer := app.Seller(t, "seller@example.com")

	product := createProduct(t, app, bearer, map[string]any{
		"name":        "Widget",
		"description": "Original",
		"price":       10,
		"stock":       3,
	})

	w := app.Do(t, http.MethodPut, "/api/products/"+product.ID, map[string]any{"price": 25.5}, bearer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated productEnvelope
	testutil.DecodeJSON(t, w, &updated)
	assert.Equal(t, 25.5, updated.Data.Price)
	assert.Equal(t, "Widget", updated.Data.Name)
	assert.Equal(t, 3, updated.Data.Stock)
	require.NotNil(t, updated.Data.Description)
	assert.Equal(t, "Original", *updated.Data.Description)

	w = app.Do(t, http.MethodPut, "/api/products/"+product.ID, map[string]any{}, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	testutil.DecodeJSON(t, w, &updated)
	assert.Equal(t, 25.5, updated.Data.Price)

	w = app.Do(t, http.MethodPut, "/api/products/"+product.ID, map[string]any{"price": 0}, bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_DeleteThenGet(t *testing.T) {
	app := testutil.NewTestApp(t)
	bearer := app.Seller(t, "seller@example.com")

	product := createProduct(t, app, bearer, map[string]any{"name": "Widget", "price": 10})
	path := "/api/products/" + product.ID

	w := app.Do(t, http.MethodDelete, path, nil, bearer)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = app.Do(t, http.MethodGet, path, nil, bearer)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.Do(t, http.MethodDelete, path, nil, bearer)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_MalformedProductID(t *testing.T) {
	app := testutil.NewTestApp(t)
	bearer := app.Seller(t, "seller@example.com")

	w := app.Do(t, http.MethodGet, "/api/products/not-a-uuid", nil, bearer)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Product not found"}`, w.Body.String())
}

// ==================== UPLOADS ====================

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, writer.WriteField("other", "value"))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestRouter_UploadAndServe(t *testing.T) {
	app := testutil.NewTestApp(t)
	content := []byte("fake png bytes")

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, uploadRequest(t, "image", "photo.png", content))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Message string `json:"message"`
		URL     string `json:"url"`
	}
	testutil.DecodeJSON(t, w, &resp)
	assert.Equal(t, "File uploaded successfully", resp.Message)
	assert.Regexp(t, `^http://example\.com/uploads/\d+-\d{9}\.png$`, resp.URL)

	path := strings.TrimPrefix(resp.URL, "http://example.com")
	stored, err := os.ReadFile(filepath.Join(app.Config.UploadDir, filepath.Base(path)))
	require.NoError(t, err)
	assert.Equal(t, content, stored)

	w = app.Do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
}

func TestRouter_UploadErrors(t *testing.T) {
	app := testutil.NewTestApp(t)

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, uploadRequest(t, "", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"No file uploaded"}`, w.Body.String())

	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, uploadRequest(t, "image", "big.png", bytes.Repeat([]byte("x"), int(app.Config.MaxUploadSize)+1)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "exceeds the limit")
}

func TestRouter_DeleteReleasesUnreferencedImage(t *testing.T) {
	app := testutil.NewTestApp(t)
	bearer := app.Seller(t, "seller@example.com")

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, uploadRequest(t, "image", "photo.jpg", []byte("jpg")))
	require.Equal(t, http.StatusOK, w.Code)

	var upload struct {
		URL string `json:"url"`
	}
	testutil.DecodeJSON(t, w, &upload)
	stored := filepath.Join(app.Config.UploadDir, filepath.Base(upload.URL))

	product := createProduct(t, app, bearer, map[string]any{"name": "Widget", "price": 10, "imageUrl": upload.URL})

	w = app.Do(t, http.MethodDelete, "/api/products/"+product.ID, nil, bearer)
	require.Equal(t, http.StatusNoContent, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Pool.Wait(ctx))

	_, err := os.Stat(stored)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// ==================== RATE LIMIT ====================

func TestRouter_AuthRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := middleware.NewRateLimiter(client, 2, time.Hour, testutil.TestLogger())
	app := testutil.NewTestApp(t, testutil.WithRateLimiter(limiter))

	for i := 0; i < 2; i++ {
		w := app.Do(t, http.MethodGet, "/api/auth/test", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := app.Do(t, http.MethodGet, "/api/auth/test", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Routes outside /api/auth are not limited
	w = app.Do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
