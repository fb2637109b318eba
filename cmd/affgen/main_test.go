package main

import (
	"testing"

	"github.com/alecthomas/kong"
)

func TestCLIDefaults(t *testing.T) {
	parser, err := kong.New(&CLI)
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	if _, err := parser.Parse([]string{"daemon"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if CLI.Config != "config.yaml" {
		t.Errorf("default config path = %q, want config.yaml", CLI.Config)
	}
	if CLI.Verbose {
		t.Error("verbose must default off")
	}
}
