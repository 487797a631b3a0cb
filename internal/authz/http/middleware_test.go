package authzhttp_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/assetflow/assetflow/internal/authz"
	authzhttp "github.com/assetflow/assetflow/internal/authz/http"
	"github.com/assetflow/assetflow/internal/shared"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}

func requestAs(principal *shared.Principal, method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if principal != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), *principal))
	}
	return req
}

func TestRequireWithoutPrincipal(t *testing.T) {
	mw := authzhttp.Middleware{Matrix: authz.NewMatrix()}
	perm := authz.Permission{Action: authz.ActionView, Resource: authz.ResourceAssets}
	handler := mw.Require(perm)(okHandler())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestAs(nil, http.MethodGet, "/assets"))

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Authentication required") {
		t.Fatalf("body = %s", res.Body.String())
	}
}

func TestRequireInsufficientRole(t *testing.T) {
	mw := authzhttp.Middleware{Matrix: authz.NewMatrix()}
	perm := authz.Permission{Action: authz.ActionDelete, Resource: authz.ResourceAssets}
	handler := mw.Require(perm)(okHandler())

	res := httptest.NewRecorder()
	viewer := &shared.Principal{ID: 3, Role: authz.RoleViewer}
	handler.ServeHTTP(res, requestAs(viewer, http.MethodDelete, "/assets/1"))

	if res.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Insufficient permissions") {
		t.Fatalf("body = %s", res.Body.String())
	}
}

func TestRequireGranted(t *testing.T) {
	mw := authzhttp.Middleware{Matrix: authz.NewMatrix()}
	perm := authz.Permission{Action: authz.ActionView, Resource: authz.ResourceAssets}
	handler := mw.Require(perm)(okHandler())

	res := httptest.NewRecorder()
	viewer := &shared.Principal{ID: 3, Role: authz.RoleViewer}
	handler.ServeHTTP(res, requestAs(viewer, http.MethodGet, "/assets"))

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.Code)
	}
}

func staticOwner(id int64) authzhttp.OwnerLookup {
	return func(ctx context.Context, r *http.Request) (*int64, error) {
		return &id, nil
	}
}

func TestRequireOwnership(t *testing.T) {
	mw := authzhttp.Middleware{Matrix: authz.NewMatrix()}
	perm := authz.Permission{Action: authz.ActionUpdate, Resource: authz.ResourceCheckouts}

	t.Run("owner allowed", func(t *testing.T) {
		handler := mw.RequireOwnership(perm, staticOwner(7))(okHandler())
		res := httptest.NewRecorder()
		user := &shared.Principal{ID: 7, Role: authz.RoleUser}
		handler.ServeHTTP(res, requestAs(user, http.MethodPut, "/checkouts/1"))
		if res.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", res.Code)
		}
	})

	t.Run("non-owner denied", func(t *testing.T) {
		handler := mw.RequireOwnership(perm, staticOwner(8))(okHandler())
		res := httptest.NewRecorder()
		user := &shared.Principal{ID: 7, Role: authz.RoleUser}
		handler.ServeHTTP(res, requestAs(user, http.MethodPut, "/checkouts/1"))
		if res.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", res.Code)
		}
		if !strings.Contains(res.Body.String(), "Access denied to this resource") {
			t.Fatalf("body = %s", res.Body.String())
		}
	})

	t.Run("unknown owner fails closed", func(t *testing.T) {
		lookup := func(ctx context.Context, r *http.Request) (*int64, error) { return nil, nil }
		handler := mw.RequireOwnership(perm, lookup)(okHandler())
		res := httptest.NewRecorder()
		user := &shared.Principal{ID: 7, Role: authz.RoleUser}
		handler.ServeHTTP(res, requestAs(user, http.MethodPut, "/checkouts/1"))
		if res.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", res.Code)
		}
	})

	t.Run("lookup failure is a 500", func(t *testing.T) {
		lookup := func(ctx context.Context, r *http.Request) (*int64, error) {
			return nil, errors.New("backend down")
		}
		handler := mw.RequireOwnership(perm, lookup)(okHandler())
		res := httptest.NewRecorder()
		user := &shared.Principal{ID: 7, Role: authz.RoleUser}
		handler.ServeHTTP(res, requestAs(user, http.MethodPut, "/checkouts/1"))
		if res.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", res.Code)
		}
	})

	t.Run("manager skips ownership", func(t *testing.T) {
		handler := mw.RequireOwnership(perm, staticOwner(99))(okHandler())
		res := httptest.NewRecorder()
		manager := &shared.Principal{ID: 7, Role: authz.RoleManager}
		handler.ServeHTTP(res, requestAs(manager, http.MethodPut, "/checkouts/1"))
		if res.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", res.Code)
		}
	})
}

func TestRequireOwnershipCollapsesLookups(t *testing.T) {
	mw := authzhttp.Middleware{Matrix: authz.NewMatrix()}
	perm := authz.Permission{Action: authz.ActionUpdate, Resource: authz.ResourceCheckouts}

	var calls atomic.Int64
	release := make(chan struct{})
	lookup := func(ctx context.Context, r *http.Request) (*int64, error) {
		calls.Add(1)
		<-release
		owner := int64(7)
		return &owner, nil
	}
	handler := mw.RequireOwnership(perm, lookup)(okHandler())

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := httptest.NewRecorder()
			user := &shared.Principal{ID: 7, Role: authz.RoleUser}
			handler.ServeHTTP(res, requestAs(user, http.MethodPut, "/checkouts/1"))
			if res.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", res.Code)
			}
		}()
	}
	// The first lookup holds the flight open while the rest pile onto the
	// same key, then everyone shares its result.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got >= n {
		t.Fatalf("lookup ran %d times for %d concurrent requests", got, n)
	}
}
