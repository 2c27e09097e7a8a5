package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	echoapi "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core/maintenance"
	"github.com/trezcool/mahudhurio/core/user"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func raiseWindow(t *testing.T, message string) {
	t.Helper()

	_, err := maintSvc.Set(context.Background(), maintenance.UpdateWindow{Active: true, Message: message})
	if err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
}

func clearWindow(t *testing.T) {
	t.Helper()

	if _, err := maintSvc.Set(context.Background(), maintenance.UpdateWindow{}); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
}

func Test_maintenanceApi_notice(t *testing.T) {
	app := setup(t)

	t.Run("empty when nothing is scheduled", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/maintenance/notice")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
	})

	t.Run("exposes the window message", func(t *testing.T) {
		raiseWindow(t, "back soon")

		req, rec := newRequest(http.MethodGet, "/v1/maintenance/notice")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var n maintenance.Notice
		if err := json.Unmarshal(rec.Body.Bytes(), &n); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if n.Message != "back soon" {
			t.Errorf("Notice.Message = %q", n.Message)
		}
	})
}

func Test_maintenanceApi_window(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "badhero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/maintenance")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/maintenance", getToken(t, student))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("get materializes defaults", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/maintenance", adminToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var w maintenance.Window
		if err := json.Unmarshal(rec.Body.Bytes(), &w); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if w.Active || w.StartAt != "" {
			t.Errorf("window = %+v, want pristine", w)
		}
	})

	t.Run("malformed timestamp is rejected", func(t *testing.T) {
		body := marchallObj(t, maintenance.UpdateWindow{StartAt: "06/01/2021 10:00"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/maintenance", adminToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("end at or before start is shifted", func(t *testing.T) {
		body := marchallObj(t, maintenance.UpdateWindow{
			StartAt: "2032-01-02T22:00",
			EndAt:   "2032-01-02T21:00",
		})
		req, rec := newAuthRequest(http.MethodPut, "/v1/maintenance", adminToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var w maintenance.Window
		if err := json.Unmarshal(rec.Body.Bytes(), &w); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		start, _ := maintenance.ParseInstant(w.StartAt, conf.Location())
		end, err := maintenance.ParseInstant(w.EndAt, conf.Location())
		if err != nil {
			t.Fatalf("shifted end does not parse: %v", err)
		}
		if want := start.Add(conf.Maintenance.DefaultWindowLength); !end.Equal(want) {
			t.Errorf("end = %v, want %v", end, want)
		}
		clearWindow(t)
	})
}

func Test_maintenanceGate(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "badhero", "hero@test.cd", "0neT!me@lol", []string{user.RoleStudent}, true)
	plainAdmin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	// the repo assigns IDs, so exemption comes via the allow-list here
	exemptAdmin := testutil.CreateUser(t, usrRepo, "Owner", "owner77", "owner@test.cd", "", []string{user.RoleAdminOwner}, true)
	conf.Maintenance.ExemptIDs = []string{exemptAdmin.ID}

	t.Run("no window lets everything through", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/classes")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized { // stopped by auth, not by the gate
			t.Errorf("code = %v; want %v", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("enforcing window redirects guarded routes", func(t *testing.T) {
		raiseWindow(t, "back soon")
		defer clearWindow(t)

		req, rec := newAuthRequest(http.MethodGet, "/v1/classes", getToken(t, student))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusFound {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusFound)
		}
		if loc := rec.Header().Get("Location"); loc != "/v1/maintenance/notice" {
			t.Errorf("Location = %q; want the notice route", loc)
		}
	})

	t.Run("blocked sessions are terminated", func(t *testing.T) {
		raiseWindow(t, "back soon")
		defer clearWindow(t)

		claims := echoapi.GetUserClaims(student)
		claims.IssuedAt = time.Now().Add(-time.Minute).Unix()
		token, err := echoapi.GenerateToken(claims)
		if err != nil {
			t.Fatalf("GenerateToken() failed: %v", err)
		}

		req, rec := newAuthRequest(http.MethodGet, "/v1/classes", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusFound {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusFound)
		}

		refreshed, err := usrRepo.GetUserByID(context.Background(), student.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		if refreshed.ForcedLogoutAt.IsZero() {
			t.Fatal("sessions were not terminated")
		}

		// the stale token stays dead after the window clears
		clearWindow(t)
		req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+student.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code after window = %v; want %v", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("exempt admin passes and keeps their session", func(t *testing.T) {
		raiseWindow(t, "back soon")
		defer clearWindow(t)

		req, rec := newAuthRequest(http.MethodGet, "/v1/maintenance", getToken(t, exemptAdmin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		refreshed, err := usrRepo.GetUserByID(context.Background(), exemptAdmin.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		if !refreshed.ForcedLogoutAt.IsZero() {
			t.Error("exempt admin's sessions were terminated")
		}
	})

	t.Run("plain admin is not exempt", func(t *testing.T) {
		raiseWindow(t, "back soon")
		defer clearWindow(t)

		req, rec := newAuthRequest(http.MethodGet, "/v1/classes", getToken(t, plainAdmin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusFound {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusFound)
		}
	})

	t.Run("bypass routes stay reachable", func(t *testing.T) {
		raiseWindow(t, "back soon")
		defer clearWindow(t)

		for _, path := range []string{"/", "/v1/maintenance/notice"} {
			req, rec := newRequest(http.MethodGet, path)
			app.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("GET %s = %v; want %v", path, rec.Code, http.StatusOK)
			}
		}

		// login keeps working for fresh credentials
		body := marchallObj(t, echoapi.LoginRequest{Username: "hero@test.cd", Password: "0neT!me@lol"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("login = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})

	t.Run("scheduled window does not block yet", func(t *testing.T) {
		if _, err := maintSvc.Set(context.Background(), maintenance.UpdateWindow{
			Active:  true,
			StartAt: maintenance.FormatInstant(time.Now().Add(time.Hour), conf.Location()),
		}); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}
		defer clearWindow(t)

		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+plainAdmin.ID, getToken(t, plainAdmin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusOK)
		}
	})

	t.Run("elapsed schedule is enforced on the next request", func(t *testing.T) {
		if _, err := maintSvc.Set(context.Background(), maintenance.UpdateWindow{
			StartAt: maintenance.FormatInstant(time.Now().Add(-time.Minute), conf.Location()),
		}); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}
		defer clearWindow(t)

		req, rec := newRequest(http.MethodGet, "/v1/classes")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusFound {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusFound)
		}

		w, err := maintRepo.GetSettings(context.Background())
		if err != nil {
			t.Fatalf("GetSettings() failed: %v", err)
		}
		if !w.Active {
			t.Error("gate did not persist the activation")
		}
	})
}
