package syncbranch

import "testing"

func TestValidateBranchNameRejectsReservedAndMalformed(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{"entirecontext-sync", false},
		{"", false},
		{"feature/sync-v2", false},
		{"HEAD", true},
		{".", true},
		{"..", true},
		{"has..dots", true},
		{"/leading-slash", true},
		{"trailing-slash/", true},
	}
	for _, c := range cases {
		err := ValidateBranchName(c.name)
		if (err != nil) != c.wantErr {
			t.Errorf("ValidateBranchName(%q): err=%v, wantErr=%v", c.name, err, c.wantErr)
		}
	}
}

func TestValidateSyncBranchNameRejectsMainAndMaster(t *testing.T) {
	for _, name := range []string{"main", "master"} {
		if err := ValidateSyncBranchName(name); err == nil {
			t.Errorf("expected ValidateSyncBranchName(%q) to reject a working-branch name", name)
		}
	}
	if err := ValidateSyncBranchName("entirecontext-sync"); err != nil {
		t.Errorf("expected dedicated sync branch name to validate, got %v", err)
	}
}
