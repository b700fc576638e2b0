package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// TesseractCLI runs the tesseract binary, one process per page
type TesseractCLI struct {
	binary string
}

// NewTesseractCLI creates a CLI engine. Empty binary means "tesseract" on PATH.
func NewTesseractCLI(binary string) *TesseractCLI {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractCLI{binary: binary}
}

func (t *TesseractCLI) Name() string { return "tesseract" }

// RecognizeText pipes the image through `tesseract stdin stdout`
func (t *TesseractCLI) RecognizeText(ctx context.Context, image []byte, languages []string, psm PageSegMode) (string, error) {
	args := []string{
		"stdin", "stdout",
		"-l", languageString(languages),
		"--psm", strconv.Itoa(int(psm)),
	}
	cmd := exec.CommandContext(ctx, t.binary, args...)
	// One OpenMP thread per page job; parallelism is decided by the recognizer.
	cmd.Env = append(os.Environ(), "OMP_THREAD_LIMIT=1")
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Version returns the first line of `tesseract --version`
func (t *TesseractCLI) Version() (string, error) {
	output, err := exec.Command(t.binary, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s not found or not executable: %w", t.binary, err)
	}
	lines := strings.Split(string(output), "\n")
	return strings.TrimSpace(lines[0]), nil
}
