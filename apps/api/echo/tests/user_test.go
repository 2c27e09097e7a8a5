package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	echoapi "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core/user"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awesome", "awe@test.cd", "0neT!me@lol", nil, true)
	testutil.CreateUser(t, usrRepo, "N Dog", "naughty", "ndog@test.cd", "0neT!me@lol", nil, false)

	tests := []httpTest{
		{
			name: "empty payload", body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown user", body: marchallObj(t, echoapi.LoginRequest{Username: "lol", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: marchallObj(t, echoapi.LoginRequest{Username: usr.Username, Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: marchallObj(t, echoapi.LoginRequest{Username: "naughty", Password: "0neT!me@lol"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "login with username", body: marchallObj(t, echoapi.LoginRequest{Username: usr.Username, Password: "0neT!me@lol"})},
		{name: "login with email", body: marchallObj(t, echoapi.LoginRequest{Username: usr.Email, Password: "0neT!me@lol"})},
	}
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK {
				var resp echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("json.Unmarshal() failed: %v", err)
				}
				if resp.Token == "" {
					t.Error("no token returned")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_logout(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awesome", "awe@test.cd", "0neT!me@lol", nil, true)

	// a token issued well before the logout; the watermark must kill it too
	claims := echoapi.GetUserClaims(usr)
	claims.IssuedAt = time.Now().Add(-time.Minute).Unix()
	oldToken, err := echoapi.GenerateToken(claims)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/logout", oldToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout code = %v; want %v", rec.Code, http.StatusNoContent)
	}

	refreshed, err := usrRepo.GetUserByID(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if refreshed.ForcedLogoutAt.IsZero() {
		t.Error("ForcedLogoutAt not set")
	}

	// the old token is now rejected on authed endpoints
	req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+usr.ID, oldToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code after logout = %v; want %v", rec.Code, http.StatusUnauthorized)
	}
}

func Test_userApi_userQuery(t *testing.T) {
	app := setup(t)

	path := func(search, ordering string, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}

	now := time.Now()
	usr := testutil.CreateUser(t, usrRepo, "User", "awesome", "awe@test.cd", "", nil, true, now.Add(1*time.Hour))
	student := testutil.CreateUser(t, usrRepo, "Hero", "badhero", "hero@test.cd", "", []string{user.RoleStudent}, true, now.Add(2*time.Hour))
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true, now.Add(3*time.Hour))

	adminToken := getToken(t, admin)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Get all", path: "/v1/users", token: adminToken, wantData: marchallList(t, usr, student, admin)},
		{name: "search (unknown)", path: path("lol", ""), token: adminToken, wantData: empty},
		{name: "search=her", path: path("her", ""), token: adminToken, wantData: marchallList(t, student)},
		{name: "role (unknown)", path: path("", "", "lol"), token: adminToken, wantData: empty},
		{name: "role=admin:", path: path("", "", user.RoleAdmin), token: adminToken, wantData: marchallList(t, admin)},
		{name: "order by name", path: path("", "name"), token: adminToken, wantData: marchallList(t, admin, student, usr)},
		{name: "order by -created_at", path: path("", "-created_at"), token: adminToken, wantData: marchallList(t, admin, student, usr)},
	}
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awesome", "awe@test.cd", "", nil, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "otherrr", "other@test.cd", "", nil, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/" + usr.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "others' detail is hidden", path: "/v1/users/" + other.ID, token: getToken(t, usr),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "own detail", path: "/v1/users/" + usr.ID, token: getToken(t, usr), wantData: marchallObj(t, usr)},
		{name: "admin reads any detail", path: "/v1/users/" + usr.ID, token: getToken(t, admin), wantData: marchallObj(t, usr)},
	}
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
