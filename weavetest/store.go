package weavetest

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/nftmarket/store/iavl"
)

// TempDir creates a directory for on disk stores. Call cleanup once the
// test is done.
func TempDir(t testing.TB) (dir string, cleanup func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "nftmarket")
	if err != nil {
		t.Fatalf("cannot create a temporary directory: %s", err)
	}
	return dir, func() { os.RemoveAll(dir) }
}

// OpenCommitStore opens the leveldb backed store kept in dir, the same
// engine the production instance is using. Reopening the same directory
// continues from the latest committed version.
func OpenCommitStore(t testing.TB, dir string) *iavl.CommitStore {
	t.Helper()
	s, err := iavl.NewCommitStore(dir, "state")
	if err != nil {
		t.Fatalf("cannot open commit store: %s", err)
	}
	return s
}
