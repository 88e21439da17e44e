package workspace

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"churchconsole/internal/adapters/api"
	"churchconsole/internal/adapters/api/apitest"
	"churchconsole/internal/adapters/storage"
	deletionStore "churchconsole/internal/adapters/storage/deletion"
	sessionStore "churchconsole/internal/adapters/storage/session"
	"churchconsole/internal/domain/deletion"
	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/registration"
)

type fixture struct {
	backend *apitest.Backend
	deps    Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := apitest.New()
	t.Cleanup(backend.Close)
	backend.AddUser("admin", "secret", "ADMIN")

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}

	client, err := api.New(api.Config{BaseURL: backend.URL(), Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	return &fixture{
		backend: backend,
		deps: Deps{
			Backend:   client,
			Tokens:    sessionStore.NewSQLiteStore(db),
			Deletions: deletionStore.NewSQLiteStore(db),
		},
	}
}

func signedIn(t *testing.T, reg *Registry) *Workspace {
	t.Helper()
	ws := reg.Create()
	if _, err := ws.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return ws
}

// TestRegistry_RestoreAndLogout verifies tokens outlive the in-memory workspace until logout.
func TestRegistry_RestoreAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws := signedIn(t, NewRegistry(f.deps))

	restarted := NewRegistry(f.deps)
	got, ok := restarted.Get(ctx, ws.Key)
	if !ok {
		t.Fatal("workspace was not restored from stored tokens")
	}
	id, ok := got.CurrentIdentity()
	if !ok || id.Username != "admin" || id.Role != "ADMIN" {
		t.Errorf("restored identity = %+v, %v", id, ok)
	}
	if _, err := got.API.ListMembers(ctx); err != nil {
		t.Errorf("restored client is not authenticated: %v", err)
	}

	if err := restarted.Logout(ctx, got); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := got.CurrentIdentity(); ok {
		t.Error("identity survived logout")
	}
	if _, ok := NewRegistry(f.deps).Get(ctx, ws.Key); ok {
		t.Error("key resolves after logout")
	}
	if _, ok := restarted.Get(ctx, ""); ok {
		t.Error("empty key resolved")
	}
}

// TestLogin_WrongPassword verifies a refused sign-in hides the backend reason.
func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	reg := NewRegistry(f.deps)
	ws := reg.Create()
	if _, err := ws.Login(context.Background(), "admin", "wrong"); err == nil || err.Error() != "invalid username or password" {
		t.Fatalf("Login = %v", err)
	}
	if _, ok := ws.CurrentIdentity(); ok {
		t.Error("identity set after a refused sign-in")
	}
}

// TestWizard_SubmitClosesOnlyOnSuccess verifies a refused wizard stays open.
func TestWizard_SubmitClosesOnlyOnSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws := signedIn(t, NewRegistry(f.deps))

	wiz, err := ws.OpenWizard(ctx, 0)
	if err != nil {
		t.Fatalf("OpenWizard: %v", err)
	}
	err = ws.WithWizard(wiz.ID, func(w *registration.Wizard) error {
		return w.Apply([]byte(`{"full_name":"Grace Wanjiku","phone":"0712345678"}`), nil)
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	_, err = ws.SubmitWizard(ctx, wiz.ID)
	var verr *registration.ValidationError
	if !errors.As(err, &verr) || verr.Fields["pledge_agreed"] == "" {
		t.Fatalf("submit without pledge = %v", err)
	}
	if n := f.backend.CallCount("create_member"); n != 0 {
		t.Fatalf("create_member called %d times before the pledge", n)
	}

	ws.WithWizard(wiz.ID, func(w *registration.Wizard) error {
		return w.Apply(nil, []byte(`{"signature_name":"Grace Wanjiku","signature_id":"12345678","pledge_agreed":true}`))
	})
	res, err := ws.SubmitWizard(ctx, wiz.ID)
	if err != nil {
		t.Fatalf("SubmitWizard: %v", err)
	}
	if !res.Created || res.Member.ID == 0 {
		t.Errorf("result = %+v", res)
	}
	if err := ws.WithWizard(wiz.ID, func(*registration.Wizard) error { return nil }); !errors.Is(err, ErrWizardNotFound) {
		t.Errorf("wizard still open after save: %v", err)
	}
}

// TestWizard_EditModeLoadsMember verifies edit mode pre-populates from the backend.
func TestWizard_EditModeLoadsMember(t *testing.T) {
	f := newFixture(t)
	year := 1990
	m := f.backend.SeedMember(member.Member{FullName: "Peter Otieno", Phone: "0722000000", NationalID: "998877", MemberType: member.TypeOld, YearOfBirth: &year})
	ws := signedIn(t, NewRegistry(f.deps))

	wiz, err := ws.OpenWizard(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("OpenWizard: %v", err)
	}
	if !wiz.IsEdit() || wiz.Draft.DOB != "1990-01-01" || !wiz.Pledge.Agreed || wiz.Pledge.SignatureID != "998877" {
		t.Errorf("wizard = %+v pledge = %+v", wiz.Draft, wiz.Pledge)
	}
	if err := ws.CancelWizard(wiz.ID); err != nil {
		t.Errorf("CancelWizard: %v", err)
	}
	if err := ws.CancelWizard(wiz.ID); !errors.Is(err, ErrWizardNotFound) {
		t.Errorf("second cancel = %v", err)
	}
	if _, err := ws.OpenWizard(context.Background(), -1); !errors.Is(err, ErrInvalidMember) {
		t.Errorf("OpenWizard(-1) = %v", err)
	}
}

// TestDeletion_CancelRefusedWhileConfirming verifies the in-flight guard.
func TestDeletion_CancelRefusedWhileConfirming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.backend.SeedMember(member.Member{FullName: "Ann Njeri", Phone: "0733000000"})
	ws := signedIn(t, NewRegistry(f.deps))

	req, err := ws.RequestDeletion(ctx, deletion.TargetMember, m.ID)
	if err != nil {
		t.Fatalf("RequestDeletion: %v", err)
	}
	if req.Label != "Ann Njeri" {
		t.Errorf("label = %q", req.Label)
	}

	release := f.backend.Hold("delete_member")
	done := make(chan error, 1)
	go func() {
		_, err := ws.ConfirmDeletion(ctx, req.ID)
		done <- err
	}()
	deadline := time.Now().Add(2 * time.Second)
	for f.backend.CallCount("delete_member") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := ws.CancelDeletion(ctx, req.ID); !errors.Is(err, deletion.ErrInFlight) {
		t.Errorf("cancel during confirm = %v, want ErrInFlight", err)
	}
	release()
	if err := <-done; err != nil {
		t.Fatalf("ConfirmDeletion: %v", err)
	}
	if _, ok := f.backend.Member(m.ID); ok {
		t.Error("member still exists")
	}
	if _, err := ws.CancelDeletion(ctx, req.ID); !errors.Is(err, deletion.ErrInvalidStatus) {
		t.Errorf("cancel after processed = %v", err)
	}
}

// TestRegistry_Sweep verifies idle workspaces leave memory but stay restorable.
func TestRegistry_Sweep(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC)
	f.deps.Now = func() time.Time { return now }
	reg := NewRegistry(f.deps)
	ws := signedIn(t, reg)

	if n := reg.Sweep(now.Add(-time.Minute)); n != 0 {
		t.Errorf("swept %d fresh workspaces", n)
	}
	if n := reg.Sweep(now.Add(time.Minute)); n != 1 || reg.Len() != 0 {
		t.Errorf("swept %d, len %d", n, reg.Len())
	}
	if _, ok := reg.Get(context.Background(), ws.Key); !ok {
		t.Error("swept workspace was not restored")
	}
}
