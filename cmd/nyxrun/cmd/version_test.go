package cmd

import (
	"strings"
	"testing"
)

func TestVersionCommandPrintsVersion(t *testing.T) {
	out, err := captureStdout(t, func() error {
		versionCmd.Run(versionCmd, nil)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "nyxrun version") || !strings.Contains(out, Version) {
		t.Errorf("want version banner in output, got %q", out)
	}
}
