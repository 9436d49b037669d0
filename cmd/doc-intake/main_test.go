package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/a3tai/doc-intake/internal/config"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	originalStdout := os.Stdout

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w

	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
		os.Stdout = originalStdout
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		printVersion()
		w.Close()
	}()

	var buf bytes.Buffer
	io.Copy(&buf, r)
	<-done

	output := buf.String()
	expectedStrings := []string{
		"Doc Intake",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestSetupLogging(t *testing.T) {
	originalOutput := log.Writer()
	originalFlags := log.Flags()
	defer func() {
		log.SetOutput(originalOutput)
		log.SetFlags(originalFlags)
	}()

	tests := []struct {
		name       string
		mode       string
		logLevel   string
		wantOutput io.Writer
	}{
		{"stdio quiet", config.ModeStdio, "info", io.Discard},
		{"stdio debug", config.ModeStdio, "debug", os.Stderr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Mode: tt.mode, LogLevel: tt.logLevel}
			logger := setupLogging(cfg)
			if logger == nil {
				t.Fatal("setupLogging() returned nil logger")
			}
			if logger.Writer() != tt.wantOutput {
				t.Errorf("setupLogging() logger writes to %v, want %v", logger.Writer(), tt.wantOutput)
			}
		})
	}

	cfg := &config.Config{Mode: config.ModeServer, LogLevel: "info"}
	setupLogging(cfg)
	if log.Flags()&log.Lshortfile == 0 {
		t.Error("setupLogging() in server mode should enable short file names")
	}
}
