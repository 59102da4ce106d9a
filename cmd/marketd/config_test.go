package main

import (
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/weavetest/assert"
)

func serveFlags(args ...string) *flag.FlagSet {
	fl := flag.NewFlagSet("", flag.ContinueOnError)
	fl.String("config", "", "")
	fl.String("http", ":8000", "")
	fl.String("home", defaultHome(), "")
	fl.String("genesis", "", "")
	fl.String("log-level", "info", "")
	fl.Bool("debug", false, "")
	if err := fl.Parse(args); err != nil {
		panic(err)
	}
	return fl
}

func TestLoadConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "marketd")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	confPath := filepath.Join(dir, "marketd.json")
	assert.Nil(t, ioutil.WriteFile(confPath, []byte(`{
		"http": ":9000",
		"home": "`+dir+`",
		"log_level": "error"
	}`), 0600))

	cases := map[string]struct {
		env        map[string]string
		args       []string
		configFile string
		want       Config
		wantErr    *errors.Error
	}{
		"defaults": {
			args: []string{"-home", dir},
			want: Config{
				HTTP:     ":8000",
				Home:     dir,
				Genesis:  filepath.Join(dir, "genesis.json"),
				LogLevel: "info",
			},
		},
		"config file": {
			configFile: confPath,
			want: Config{
				HTTP:     ":9000",
				Home:     dir,
				Genesis:  filepath.Join(dir, "genesis.json"),
				LogLevel: "error",
			},
		},
		"environment overrides config file": {
			env:        map[string]string{"MARKETD_HTTP": ":7000"},
			configFile: confPath,
			want: Config{
				HTTP:     ":7000",
				Home:     dir,
				Genesis:  filepath.Join(dir, "genesis.json"),
				LogLevel: "error",
			},
		},
		"flags override everything": {
			env:        map[string]string{"MARKETD_HTTP": ":7000"},
			configFile: confPath,
			args:       []string{"-http", ":6000", "-genesis", "/tmp/gen.json", "-log-level", "debug", "-debug"},
			want: Config{
				HTTP:     ":6000",
				Home:     dir,
				Genesis:  "/tmp/gen.json",
				LogLevel: "debug",
				Debug:    true,
			},
		},
		"missing config file": {
			configFile: filepath.Join(dir, "missing.json"),
			wantErr:    errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			for k, v := range tc.env {
				assert.Nil(t, os.Setenv(k, v))
				defer os.Unsetenv(k)
			}
			conf, err := loadConfig(serveFlags(tc.args...), tc.configFile)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			assert.Equal(t, tc.want, *conf)
		})
	}
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(ioutil.Discard, "debug")
	assert.Nil(t, err)

	if _, err := newLogger(ioutil.Discard, "loud"); err == nil {
		t.Fatal("want an error for an unknown log level")
	}
}
