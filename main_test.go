package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleJava = `package com.example;

public class Calculator {
    public int add(int a, int b) {
        return a + b;
    }
}
`

func TestVersionFlag(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--version"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "testsmith") {
		t.Errorf("version output: %q", stdout.String())
	}
}

func TestMissingArgument(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run(nil, &stdout, &stderr); err == nil {
		t.Fatal("expected error for missing argument")
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Errorf("stderr: %q", stderr.String())
	}
}

func TestDryRunFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "Calculator.java")
	if err := os.WriteFile(src, []byte(sampleJava), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var stdout, stderr bytes.Buffer
	err := run([]string{"-dry-run", "-framework", "junit", src}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, `"frameworkId": "junit"`) {
		t.Errorf("request JSON missing framework: %s", out)
	}
	if !strings.Contains(out, `"name": "Calculator"`) {
		t.Errorf("request JSON missing type: %s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "CalculatorTest.java")); err == nil {
		t.Error("dry run must not write a test file")
	}
}

func TestDryRunDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Calculator.java"), []byte(sampleJava), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-dry-run", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "(dry run)") {
		t.Errorf("expected dry run marker: %s", out)
	}
	if !strings.Contains(out, "1 file(s) processed") {
		t.Errorf("expected summary line: %s", out)
	}
}

func TestFunctionFlagRejectedForDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	err := run([]string{"-dry-run", "-function", "add", dir}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for -function with a directory")
	}
}

func TestUnknownFrameworkFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "Calculator.java")
	if err := os.WriteFile(src, []byte(sampleJava), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var stdout, stderr bytes.Buffer
	err := run([]string{"-dry-run", "-framework", "rspec", src}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "rspec") {
		t.Fatalf("expected unsupported framework error, got %v", err)
	}
}

func TestReorderArgs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "positional before flags",
			in:   []string{"src/Calc.java", "-framework", "junit"},
			want: []string{"-framework", "junit", "src/Calc.java"},
		},
		{
			name: "boolean flag keeps following positional",
			in:   []string{"-dry-run", "src"},
			want: []string{"-dry-run", "src"},
		},
		{
			name: "double dash stops flag parsing",
			in:   []string{"-v", "--", "-weird-name"},
			want: []string{"-v", "-weird-name"},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := reorderArgs(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("reorderArgs(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
