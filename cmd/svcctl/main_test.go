package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"servicehost/internal/lifecycle"
	"servicehost/internal/scm"
	"servicehost/internal/scm/scmtest"
)

func TestRun_InstallCreatesAndStarts(t *testing.T) {
	b := scmtest.New()
	var stderr bytes.Buffer

	run([]string{"install", "demo", `C:\svc.exe`}, &stderr, b)

	if stderr.Len() != 0 {
		t.Errorf("unexpected stderr: %q", stderr.String())
	}
	cfg, state, ok := b.Lookup("demo")
	if !ok {
		t.Fatal("entry demo not created")
	}
	if cfg.BinaryPath != `C:\svc.exe` {
		t.Errorf("path = %q", cfg.BinaryPath)
	}
	if cfg.DisplayName != "demo" {
		t.Errorf("display name = %q, want the service name", cfg.DisplayName)
	}
	if cfg.StartType != scm.StartAuto {
		t.Errorf("start type = %v, want auto", cfg.StartType)
	}
	if cfg.ServiceType != lifecycle.OwnProcess {
		t.Errorf("service type = %#x, want own process", cfg.ServiceType)
	}
	if state != lifecycle.StartPending {
		t.Errorf("state = %v, want START_PENDING", state)
	}
}

func TestRun_RemoveDeletesEntry(t *testing.T) {
	b := scmtest.New()
	var stderr bytes.Buffer

	run([]string{"install", "demo", `C:\svc.exe`}, &stderr, b)
	// The service process would report RUNNING and later STOPPED.
	b.Report("demo", lifecycle.Stopped)

	run([]string{"remove", "demo"}, &stderr, b)
	if stderr.Len() != 0 {
		t.Errorf("unexpected stderr: %q", stderr.String())
	}
	if _, _, ok := b.Lookup("demo"); ok {
		t.Fatal("entry still present after remove")
	}

	m := scm.ConnectWith(b, "")
	defer m.Close()
	s := m.Service("demo")
	if s.OK() || !errors.Is(s.Err(), scm.ErrNotExist) {
		t.Errorf("open after remove: OK=%v err=%v, want ErrNotExist", s.OK(), s.Err())
	}
	if s.State() != 0 {
		t.Error("State of a removed entry must be 0")
	}
}

func TestRun_RemoveMissing(t *testing.T) {
	var stderr bytes.Buffer
	run([]string{"remove", "ghost"}, &stderr, scmtest.New())

	if !strings.HasPrefix(stderr.String(), "can't remove ghost: ") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRun_InstallDuplicate(t *testing.T) {
	b := scmtest.New()
	var stderr bytes.Buffer
	run([]string{"install", "demo", `C:\a.exe`}, &stderr, b)
	stderr.Reset()

	run([]string{"install", "demo", `C:\b.exe`}, &stderr, b)
	if !strings.HasPrefix(stderr.String(), "can't install demo: ") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRun_ManagerUnavailable(t *testing.T) {
	b := scmtest.New()
	b.ConnectErr = errors.New("access is denied")

	for _, args := range [][]string{
		{"install", "demo", `C:\svc.exe`},
		{"remove", "demo"},
	} {
		var stderr bytes.Buffer
		run(args, &stderr, b)
		want := "can't open service manager: access is denied\n"
		if stderr.String() != want {
			t.Errorf("%v: stderr = %q, want %q", args, stderr.String(), want)
		}
	}
}

func TestRun_UsageDoesNothing(t *testing.T) {
	cases := [][]string{
		nil,
		{"install"},
		{"install", "demo"},
		{"install", "demo", "path", "extra"},
		{"remove"},
		{"remove", "a", "b"},
		{"start", "demo"},
	}
	for _, args := range cases {
		b := scmtest.New()
		var stderr bytes.Buffer
		run(args, &stderr, b)

		lines := strings.Split(strings.TrimRight(stderr.String(), "\n"), "\n")
		if len(lines) != 2 || !strings.HasPrefix(lines[0], "usage: ") {
			t.Errorf("%v: stderr = %q, want two-line usage", args, stderr.String())
		}
		if _, _, ok := b.Lookup("demo"); ok {
			t.Errorf("%v: created an entry", args)
		}
	}
}
