package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/itchub/edu-dashboard/authfetch"
	"github.com/itchub/edu-dashboard/backend"
	"github.com/itchub/edu-dashboard/backend/httpapi"
	"github.com/itchub/edu-dashboard/internal/utils"
	"github.com/itchub/edu-dashboard/tokenstore"
	"github.com/itchub/edu-dashboard/tokenstore/storefake"
	"github.com/itchub/edu-dashboard/users"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	store  *storefake.FakeStore
	server *httptest.Server
	client *httpapi.Client
}

func setupAPI(t *testing.T, handler http.Handler) *apiFixture {
	t.Helper()

	f := &apiFixture{store: storefake.NewFakeStore()}
	f.server = httptest.NewServer(handler)
	t.Cleanup(f.server.Close)

	fetch, err := authfetch.New(f.server.URL, f.store)
	require.NoError(t, err)
	client, err := httpapi.New(fetch)
	require.NoError(t, err)
	f.client = client
	return f
}

func TestLoginParsesTokensAndNormalizesUser(t *testing.T) {
	f := setupAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, httpapi.RouteLogin, r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "admin", body["username_or_phone"])
		require.Equal(t, "admin123", body["password"])

		json.NewEncoder(w).Encode(map[string]any{
			"access":  "tok1",
			"refresh": "ref1",
			"user":    map[string]any{"id": "ADM1", "username": "admin", "role": "admin"},
		})
	}))

	resp, err := f.client.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	require.Equal(t, "tok1", resp.Access)
	require.Equal(t, "ref1", resp.Refresh)
	require.Equal(t, "ADM1", resp.User.ID)
	require.Equal(t, users.RoleAdmin, resp.User.Role)
	require.True(t, resp.User.Active, "optional fields are defaulted")
}

func TestLoginSurfacesAPIError(t *testing.T) {
	f := setupAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "Invalid credentials"}`))
	}))

	_, err := f.client.Login(context.Background(), "admin", "wrong")
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Invalid credentials", apiErr.Message)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestListUsersSendsBearerAndPagination(t *testing.T) {
	var gotAuth, gotQuery string
	f := setupAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{
			"count":    2,
			"next":     "/users/users/?limit=1&offset=1",
			"previous": nil,
			"results": []map[string]any{
				{"id": 1, "username": "aziz", "role": "student", "coins": 150},
			},
		})
	}))
	require.NoError(t, f.store.Set(tokenstore.KeyAccessToken, "tok1"))

	page, err := f.client.ListUsers(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Equal(t, "Bearer tok1", gotAuth)
	require.Contains(t, gotQuery, "limit=1")
	require.Contains(t, gotQuery, "offset=0")
	require.Equal(t, 2, page.Count)
	require.Equal(t, "/users/users/?limit=1&offset=1", page.Next)
	require.Empty(t, page.Previous)
	require.Len(t, page.Results, 1)
	require.Equal(t, "1", page.Results[0].ID)
	require.Equal(t, 150, page.Results[0].Coins)
}

func TestCreateUserPostsMultipartForm(t *testing.T) {
	f := setupAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		require.Equal(t, "aziz", r.FormValue("username"))
		require.Equal(t, "Aziz", r.FormValue("surname"))
		require.Equal(t, "Karimov", r.FormValue("lastname"))
		require.Equal(t, "ITC003", r.FormValue("uuid"))
		require.Equal(t, "+998901234567", r.FormValue("phone_number"))
		require.Equal(t, "beginner", r.FormValue("level"))
		require.Equal(t, "Secret123", r.FormValue("password"))

		file, header, err := r.FormFile("photo")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "avatar.png", header.Filename)

		json.NewEncoder(w).Encode(map[string]any{"id": "ITC003", "username": "aziz", "role": "student"})
	}))

	created, err := f.client.CreateUser(context.Background(), backend.NewUser{
		Username:    "aziz",
		Surname:     "Aziz",
		Lastname:    "Karimov",
		MemberID:    "ITC003",
		PhoneNumber: "+998901234567",
		Level:       users.LevelBeginner,
		Password:    "Secret123",
		Photo:       &backend.PhotoUpload{Filename: "avatar.png", Content: []byte("png-bytes")},
	})
	require.NoError(t, err)
	require.Equal(t, "ITC003", created.ID)
}

func TestUpdateUserSendsJSONPatchWithoutPhoto(t *testing.T) {
	f := setupAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/users/users/ITC003/", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(300), body["coins"])
		require.Equal(t, false, body["is_active"])
		require.NotContains(t, body, "surname", "nil fields stay out of the patch")

		json.NewEncoder(w).Encode(map[string]any{
			"id": "ITC003", "username": "aziz", "role": "student",
			"coins": 300, "is_active": false,
		})
	}))

	updated, err := f.client.UpdateUser(context.Background(), "ITC003", backend.UserPatch{
		Partial: users.Partial{Coins: utils.Ptr(300), Active: utils.Ptr(false)},
	})
	require.NoError(t, err)
	require.Equal(t, 300, updated.Coins)
	require.False(t, updated.Active)
}

func TestUpdateUserUsesMultipartForPhoto(t *testing.T) {
	f := setupAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "450", r.FormValue("coins"))

		_, header, err := r.FormFile("photo")
		require.NoError(t, err)
		require.Equal(t, "new.png", header.Filename)

		json.NewEncoder(w).Encode(map[string]any{"id": "ITC003", "username": "aziz", "role": "student", "coins": 450})
	}))

	_, err := f.client.UpdateUser(context.Background(), "ITC003", backend.UserPatch{
		Partial: users.Partial{Coins: utils.Ptr(450)},
		Photo:   &backend.PhotoUpload{Filename: "new.png", Content: []byte("png")},
	})
	require.NoError(t, err)
}

func TestChangePasswordPostsBothFields(t *testing.T) {
	f := setupAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/users/ITC003/change-password/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "NewPass123", body["new_password"])
		require.Equal(t, "NewPass123", body["confirm_password"])
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, f.client.ChangePassword(context.Background(), "ITC003", "NewPass123", "NewPass123"))
}

func TestDeleteUser(t *testing.T) {
	f := setupAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/users/users/ITC003/", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, f.client.DeleteUser(context.Background(), "ITC003"))
}

func TestDeleteUserNotFound(t *testing.T) {
	f := setupAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Not found."}`))
	}))

	err := f.client.DeleteUser(context.Background(), "missing")
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Not found.", apiErr.Message)
}

func TestStatistics(t *testing.T) {
	f := setupAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, httpapi.RouteStatistics, r.URL.Path)
		json.NewEncoder(w).Encode(backend.Statistics{TotalUsers: 12, TotalStudents: 10, ActiveStudents: 9, TotalCoins: 1500})
	}))

	stats, err := f.client.Statistics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 12, stats.TotalUsers)
	require.Equal(t, 1500, stats.TotalCoins)
}
