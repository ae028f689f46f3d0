package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(AuthResult{
			Token: "tok-1",
			User:  UserRef{ID: "u1", Email: body.Email},
		})
	})

	mux.HandleFunc("POST /projects/create", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Name string }
		json.NewDecoder(r.Body).Decode(&body)
		if body.Name == "taken" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "project name already exists"})
			return
		}
		json.NewEncoder(w).Encode(Project{ID: "p1", Name: body.Name})
	})

	mux.HandleFunc("GET /projects/get-project/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "p1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]Project{"project": {
			ID: "p1", Name: "demo", Users: []UserRef{{ID: "u1", Email: "a@b.com"}},
		}})
	})

	mux.HandleFunc("PUT /projects/add-user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			ProjectID string   `json:"projectId"`
			Users     []string `json:"users"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		users := []UserRef{{ID: "u1", Email: "a@b.com"}}
		for _, id := range body.Users {
			users = append(users, UserRef{ID: id, Email: id + "@b.com"})
		}
		json.NewEncoder(w).Encode(map[string]Project{"project": {ID: body.ProjectID, Name: "demo", Users: users}})
	})

	mux.HandleFunc("GET /users/all", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]UserRef{"users": {
			{ID: "u1", Email: "a@b.com"},
			{ID: "u2", Email: "c@d.com"},
		}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, func() string { return "tok-1" })
}

func TestLogin(t *testing.T) {
	_, c := testServer(t)
	res, err := c.Login(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token != "tok-1" || res.User.ID != "u1" {
		t.Errorf("Login = %+v", res)
	}
}

func TestLoginRejected(t *testing.T) {
	_, c := testServer(t)
	_, err := c.Login(context.Background(), "a@b.com", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Login with bad password = %v, want ErrUnauthorized", err)
	}
}

func TestCreateProjectDuplicateName(t *testing.T) {
	_, c := testServer(t)

	p, err := c.CreateProject(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.Name != "fresh" {
		t.Errorf("CreateProject = %+v", p)
	}

	// Duplicate name must fail distinctly from other failures.
	_, err = c.CreateProject(context.Background(), "taken")
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("CreateProject duplicate = %v, want ErrDuplicateName", err)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	_, c := testServer(t)

	p, err := c.GetProject(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if p.Name != "demo" || len(p.Users) != 1 {
		t.Errorf("GetProject = %+v", p)
	}

	_, err = c.GetProject(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProject missing = %v, want ErrNotFound", err)
	}
}

func TestAddUsersSendsBearer(t *testing.T) {
	_, c := testServer(t)
	p, err := c.AddUsers(context.Background(), "p1", []string{"u2", "u3"})
	if err != nil {
		t.Fatalf("AddUsers: %v", err)
	}
	if len(p.Users) != 3 {
		t.Errorf("AddUsers roster = %+v", p.Users)
	}
}

func TestListUsers(t *testing.T) {
	_, c := testServer(t)
	users, err := c.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("ListUsers = %+v", users)
	}
}
