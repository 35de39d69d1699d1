package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/disaster-portal/internal/models"
)

func TestRoundtripAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	st, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SetTokens("access", "refresh"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetCitizen(models.Citizen{ID: 1, Name: "Asha Rao", Phone: "9999999999"}); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.AccessToken() != "access" {
		t.Fatalf("token lost across restart: %q", reopened.AccessToken())
	}
	c, ok := reopened.Citizen()
	if !ok || c.Name != "Asha Rao" {
		t.Fatalf("citizen snapshot lost: %+v ok=%v", c, ok)
	}
}

func TestMissingFileIsUnauthenticated(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "nope", "session.json"))
	if err != nil {
		t.Fatal(err)
	}
	if st.AccessToken() != "" {
		t.Fatal("expected empty session")
	}
	if _, ok := st.Citizen(); ok {
		t.Fatal("expected no citizen")
	}
}

func TestCorruptFileStartsClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0o600); err != nil {
		t.Fatal(err)
	}
	st, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.AccessToken() != "" {
		t.Fatal("corrupt session must read as logged out")
	}
}

func TestClearDropsEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	st, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SetTokens("access", "refresh"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetAgency(models.Agency{ID: 2, Name: "NDRF"}); err != nil {
		t.Fatal(err)
	}
	if err := st.Clear(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.AccessToken() != "" {
		t.Fatal("token survived clear")
	}
	if _, ok := reopened.Agency(); ok {
		t.Fatal("agency survived clear")
	}
}
